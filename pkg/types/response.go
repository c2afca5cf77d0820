package types

// SuccessEnvelope wraps every successful JSON payload.
type SuccessEnvelope struct {
	Data     any        `json:"data"`
	Warnings []APIError `json:"warnings,omitempty"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
