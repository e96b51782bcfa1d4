package apiclient

import (
	"encoding/json"
	"fmt"
	"strings"
)

// NetworkError is a transport failure: the request never produced an HTTP response
type NetworkError struct {
	Method string
	URL    string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: network error: %v", e.Method, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// HTTPStatusError is a non-2xx response
type HTTPStatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
	Detail     string // The backend's "detail" field, when present
}

func (e *HTTPStatusError) Error() string {
	msg := e.Detail
	if msg == "" {
		msg = e.Body
	}
	if msg == "" {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("request failed with status %d: %s", e.StatusCode, msg)
}

// ParseError is a 2xx response whose body does not match the expected shape
type ParseError struct {
	URL  string
	Body string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to decode response from %s: %v", e.URL, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// extractDetail pulls the message out of a FastAPI style error body:
// {"detail": "..."} or {"detail": [{"msg": "..."}, ...]}
func extractDetail(body []byte) string {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Detail) == 0 {
		return ""
	}

	var text string
	if err := json.Unmarshal(envelope.Detail, &text); err == nil {
		return text
	}

	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(envelope.Detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if it.Msg != "" {
				msgs = append(msgs, it.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}

	return string(envelope.Detail)
}
