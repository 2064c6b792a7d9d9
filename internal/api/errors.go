package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

const (
	unauthorizedMessage = "Unauthorized"
	fallbackMessage     = "Request failed"
)

// ErrUnauthorized is returned for every HTTP 401. By the time a caller sees it
// the stored session was cleared and the session-expired hooks have run, so it
// must not be retried.
var ErrUnauthorized error = &RequestError{Status: http.StatusUnauthorized, Message: unauthorizedMessage}

// RequestError is a non-success HTTP status returned by the backend. Message
// is the body's detail field, or "Request failed" when there is none.
type RequestError struct {
	Status  int
	Message string
}

func (e *RequestError) Error() string {
	return e.Message
}

// TransportError means the request never produced an HTTP response
// (unreachable host, reset connection, cancelled context, truncated body).
type TransportError struct {
	Method   string
	Endpoint string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// DecodeError means a success response carried a body that is not the
// expected JSON document.
type DecodeError struct {
	Endpoint string
	Status   int
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s response (status %d): %v", e.Endpoint, e.Status, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func newRequestError(status int, body []byte) *RequestError {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	message := fallbackMessage
	if err := json.Unmarshal(body, &envelope); err == nil {
		if detail := detailMessage(envelope.Detail); detail != "" {
			message = detail
		}
	}
	return &RequestError{Status: status, Message: message}
}

// detailMessage renders the detail field. Validation failures arrive as a
// list of {loc, msg, type} objects; their messages are joined.
func detailMessage(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return strings.TrimSpace(text)
	}

	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(raw, &items); err == nil {
		messages := make([]string, 0, len(items))
		for _, item := range items {
			if item.Msg != "" {
				messages = append(messages, item.Msg)
			}
		}
		if len(messages) > 0 {
			return strings.Join(messages, "; ")
		}
	}

	return string(raw)
}
