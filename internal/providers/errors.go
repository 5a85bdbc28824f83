package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// GenerationError reports a failed call to a model server. StatusCode and
// Body carry the raw HTTP response when the server answered at all.
type GenerationError struct {
	Host       string
	Endpoint   string
	StatusCode int
	Status     string
	Body       string
	Err        error
}

func (e *GenerationError) Error() string {
	switch {
	case e.StatusCode != 0:
		msg := fmt.Sprintf("generation failed: %s returned %s", e.Endpoint, e.Status)
		if body := strings.TrimSpace(e.Body); body != "" {
			msg += ": " + body
		}
		return msg
	case e.Err != nil:
		return fmt.Sprintf("generation failed: %s: %v", e.Endpoint, e.Err)
	default:
		return "generation failed: " + e.Endpoint
	}
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// IsDeadlineExceeded reports whether err is a context or client timeout.
func IsDeadlineExceeded(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "context deadline exceeded")
}
