// Package webhookapi receives provider callbacks. The ingestion gate
// decides whether an event is stored; providers only ever see 2xx once
// the event is safely recorded (or recognized as a duplicate).
package webhookapi

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jvidal-dev/stokage-backend/api/responses"
	"github.com/jvidal-dev/stokage-backend/internal/webhooks"
	"github.com/jvidal-dev/stokage-backend/pkg/config"
	pkgerrors "github.com/jvidal-dev/stokage-backend/pkg/errors"
	"github.com/jvidal-dev/stokage-backend/pkg/logger"
)

const signatureHeader = "X-Webhook-Signature"

// Ingest handles POST /webhooks/{token}.
func Ingest(gate webhooks.Gate, cfg config.WebhooksConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := chi.URLParam(r, "token")
		if token == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing webhook token"))
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, cfg.MaxBodyBytes)
		body, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "payload too large or unreadable"))
			return
		}

		err = gate.Ingest(r.Context(), webhooks.IngestInput{
			Token:     token,
			Signature: r.Header.Get(signatureHeader),
			Body:      body,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		// Providers only need an ack; any body would be ignored.
		w.WriteHeader(http.StatusNoContent)
	}
}
