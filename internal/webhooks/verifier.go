package webhooks

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"strings"

	pkgerrors "github.com/jvidal-dev/stokage-backend/pkg/errors"
)

// Verifier checks a provider signature against the raw request body.
type Verifier interface {
	Verify(body []byte, signature string) error
}

// SignatureEncoding selects how a provider encodes its HMAC digest.
type SignatureEncoding string

const (
	EncodingHex    SignatureEncoding = "hex"
	EncodingBase64 SignatureEncoding = "base64"
)

type hmacVerifier struct {
	secret   []byte
	encoding SignatureEncoding
}

// NewHMACVerifier builds an HMAC-SHA256 verifier for the given shared
// secret. Signatures may carry a "sha256=" prefix, which is stripped
// before comparison.
func NewHMACVerifier(secret string, encoding SignatureEncoding) Verifier {
	return &hmacVerifier{secret: []byte(secret), encoding: encoding}
}

func (v *hmacVerifier) Verify(body []byte, signature string) error {
	signature = strings.TrimPrefix(strings.TrimSpace(signature), "sha256=")
	if signature == "" {
		return pkgerrors.New(pkgerrors.CodeSignature, "missing webhook signature")
	}

	var provided []byte
	var err error
	switch v.encoding {
	case EncodingBase64:
		provided, err = base64.StdEncoding.DecodeString(signature)
	default:
		provided, err = hex.DecodeString(signature)
	}
	if err != nil {
		return pkgerrors.New(pkgerrors.CodeSignature, "malformed webhook signature")
	}

	mac := hmac.New(sha256.New, v.secret)
	mac.Write(body)
	if !hmac.Equal(provided, mac.Sum(nil)) {
		return pkgerrors.New(pkgerrors.CodeSignature, "webhook signature mismatch")
	}
	return nil
}

// Sign computes the hex HMAC-SHA256 digest of body with secret. Used by
// the outbound dispatcher and by tests building inbound signatures.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
