package domain

import (
	"errors"
	"fmt"
	"net/http"
)

var ErrCatalogUnavailable = errors.New("rule catalog unavailable error")

const (
	MsgBothInputs = "Both code and image not accepted"
	MsgNoInput    = "Please provide either code or image input"
)

// ValidationError is raised at the submission boundary before any inference.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// InferenceError wraps any failure of a completion call.
type InferenceError struct {
	Stage      string
	StatusCode int
	Err        error
}

func (e *InferenceError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s inference failed (status %d): %s", e.Stage, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s inference failed: %s", e.Stage, e.Err)
}

func (e *InferenceError) Unwrap() error {
	return e.Err
}

// Retryable reports whether a later identical call could succeed. Transport
// failures carry no status code.
func (e *InferenceError) Retryable() bool {
	return e.StatusCode == 0 || e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}
