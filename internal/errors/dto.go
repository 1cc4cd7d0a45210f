package errors

// ErrorResponse represents the standard error response structure
type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Display       string         `json:"message"`
	Code          string         `json:"code,omitempty"`
	InternalError string         `json:"internal_error,omitempty"`
	Details       map[string]any `json:"details,omitempty"`
}

// CodeFromErr returns the machine readable code of the first sentinel the error is marked with
func CodeFromErr(err error) string {
	for _, sentinel := range []*InternalError{
		ErrNotFound,
		ErrAlreadyExists,
		ErrValidation,
		ErrInvalidOperation,
		ErrPermissionDenied,
		ErrHTTPClient,
		ErrDatabase,
		ErrSystem,
	} {
		if Is(err, sentinel) {
			return sentinel.Code
		}
	}
	return ErrCodeSystemError
}
