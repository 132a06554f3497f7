package common

import "fmt"

type ErrorResponse struct {
	Message string `json:"message"`
}

func NewErrorResponse(message string) *ErrorResponse {
	return &ErrorResponse{
		Message: message,
	}
}

func NewErrorResponsef(format string, args ...any) *ErrorResponse {
	return NewErrorResponse(fmt.Sprintf(format, args...))
}
