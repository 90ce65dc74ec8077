package errors

// represents a standardized error response
type ErrorResponse struct {
	Error   string `json:"error"`             // error code (e.g., "not_found", "validation_error")
	Message string `json:"message"`           // user-friendly message
	Details string `json:"details,omitempty"` // optional details (sanitized in production)
}

type ErrorInfo struct {
	category  string
	sanitized string
}

// returns the classification category
func (i ErrorInfo) Category() string {
	return i.category
}

// returns the client-safe message
func (i ErrorInfo) Sanitized() string {
	return i.sanitized
}
