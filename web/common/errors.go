package common

import (
	"fmt"
	"net/http"
)

// ViewError separates what the user sees from what goes to the log
type ViewError struct {
	Status      int
	UserMessage string
	LogMessage  string
	Err         error
}

func (e *ViewError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.LogMessage, e.Err)
	}
	return e.LogMessage
}

func (e *ViewError) Unwrap() error {
	return e.Err
}

// BadRequest is a malformed request body or parameter
func BadRequest(userMessage string, err error) *ViewError {
	return &ViewError{
		Status:      http.StatusBadRequest,
		UserMessage: userMessage,
		LogMessage:  "Bad request",
		Err:         err,
	}
}

// NoSession means the request reached a handler without a session
func NoSession() *ViewError {
	return &ViewError{
		Status:      http.StatusUnauthorized,
		UserMessage: "Необходима авторизация",
		LogMessage:  "Request without session",
	}
}
