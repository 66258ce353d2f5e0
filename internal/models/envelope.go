package models

// Envelope is the uniform wrapper for every non-paged response.
type Envelope struct {
	Success bool    `json:"success"`
	Data    any     `json:"data"`
	Message *string `json:"message"`
}

// ErrorResponse is the envelope written for failed requests.
type ErrorResponse struct {
	Success bool    `json:"success"`
	Data    any     `json:"data"`
	Message *string `json:"message"`
	Code    string  `json:"code,omitempty"`
	Details string  `json:"details,omitempty"`
}

// PagedResult is returned by the search endpoint.
type PagedResult[T any] struct {
	Items []T    `json:"items"`
	Count *int64 `json:"count"`
}

// Ok wraps data in a successful envelope.
func Ok(data any) Envelope {
	return Envelope{Success: true, Data: data}
}

// Failure builds a failure envelope carrying a user-facing message.
func Failure(message string) Envelope {
	return Envelope{Success: false, Message: &message}
}
