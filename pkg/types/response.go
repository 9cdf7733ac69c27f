package types

// SuccessEnvelope wraps every successful API payload under a "data" key so
// clients can distinguish results from error envelopes by shape.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the wire form of a failed request: a stable machine code, a
// human-readable message, and optional structured details (for example the
// per-gift availability on an insufficient-stock conflict).
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope wraps an APIError under an "error" key.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
