package middleware

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"

	"github.com/jvidal-dev/stokage-backend/api/responses"
	"github.com/jvidal-dev/stokage-backend/internal/webhooks"
	"github.com/jvidal-dev/stokage-backend/pkg/db/models"
	pkgerrors "github.com/jvidal-dev/stokage-backend/pkg/errors"
	"github.com/jvidal-dev/stokage-backend/pkg/logger"
)

const partnerSignatureHeader = "X-Stokage-Signature"

const ctxMerchantID contextKey = "merchant_id"

// MerchantIDFromContext returns the authenticated merchant id.
func MerchantIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxMerchantID).(string); ok {
		return v
	}
	return ""
}

type partnerSecretSource interface {
	FindSettingsByMerchant(ctx context.Context, merchantID string) (*models.PartnerSettings, error)
}

// PartnerAuth authenticates partner API calls: the merchant comes from
// the URL and the request body must carry that merchant's HMAC.
func PartnerAuth(source partnerSecretSource, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			merchantID := strings.TrimSpace(chi.URLParam(r, "merchantID"))
			if merchantID == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "merchant id required"))
				return
			}

			settings, err := source.FindSettingsByMerchant(r.Context(), merchantID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "unknown merchant"))
					return
				}
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load partner settings"))
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			verifier := webhooks.NewHMACVerifier(settings.WebhookSecret, webhooks.EncodingHex)
			if err := verifier.Verify(body, r.Header.Get(partnerSignatureHeader)); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			ctx := context.WithValue(r.Context(), ctxMerchantID, merchantID)
			if logg != nil {
				ctx = logg.WithField(ctx, "merchant_id", merchantID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
