package model

// APIResponse is the success envelope.
type APIResponse struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data,omitempty"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

// ErrorResponse is the failure envelope. Errors always serializes, as an
// empty array when the failure carries no field-level violations.
type ErrorResponse struct {
	StatusCode int      `json:"statusCode"`
	Message    string   `json:"message"`
	Success    bool     `json:"success"`
	Errors     []string `json:"errors"`
}

func NewErrorResponse(status int, message string, violations []string) ErrorResponse {
	if violations == nil {
		violations = []string{}
	}

	return ErrorResponse{StatusCode: status, Message: message, Errors: violations}
}
