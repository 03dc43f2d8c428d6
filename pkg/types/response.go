package types

// SuccessEnvelope wraps every direct-API success payload. The partner
// surface bypasses it and writes the partner contract verbatim.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the public projection of a pkg/errors Error: the stable
// code, a safe message, and optional structured details.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope wraps every direct-API error payload.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
