package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// Kind classifies a model failure.
type Kind string

const (
	KindTimeout          Kind = "timeout"
	KindRateLimited      Kind = "rate_limited"
	KindAuthentication   Kind = "authentication"
	KindMalformedRequest Kind = "malformed_request"
	KindUnavailable      Kind = "unavailable"
	KindUnknown          Kind = "unknown"
)

// Retryable reports whether failures of this kind may succeed on retry.
func (k Kind) Retryable() bool {
	switch k {
	case KindTimeout, KindRateLimited, KindUnavailable:
		return true
	default:
		return false
	}
}

// ModelError is a classified language-model failure.
type ModelError struct {
	Kind      Kind
	Retryable bool
	Err       error
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("model %s: %v", e.Kind, e.Err)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// Classify turns any error into a *ModelError. Typed errors are checked
// first, then sentinels, then message patterns from provider responses.
// A nil error classifies to nil.
func Classify(err error) *ModelError {
	if err == nil {
		return nil
	}

	var me *ModelError
	if errors.As(err, &me) {
		return me
	}

	if kind, ok := classifySentinel(err); ok {
		return newModelError(kind, err)
	}

	return newModelError(classifyPattern(err.Error()), err)
}

func newModelError(kind Kind, err error) *ModelError {
	return &ModelError{Kind: kind, Retryable: kind.Retryable(), Err: err}
}

func classifySentinel(err error) (Kind, bool) {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout, true
	case errors.Is(err, context.Canceled):
		return KindUnknown, true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout, true
	}

	return "", false
}

var patterns = []struct {
	kind    Kind
	needles []string
}{
	{KindRateLimited, []string{"status code: 429", "rate limit", "rate_limit", "too many requests", "quota"}},
	{KindAuthentication, []string{"status code: 401", "status code: 403", "invalid api key", "incorrect api key", "invalid_api_key", "unauthorized", "authentication"}},
	{KindMalformedRequest, []string{"status code: 400", "status code: 404", "status code: 422", "invalid_request", "context_length_exceeded", "bad request"}},
	{KindTimeout, []string{"timeout", "timed out", "deadline exceeded"}},
	{KindUnavailable, []string{"status code: 500", "status code: 502", "status code: 503", "status code: 504", "connection refused", "connection reset", "no such host", "eof", "overloaded", "server error"}},
}

func classifyPattern(msg string) Kind {
	msg = strings.ToLower(msg)
	for _, p := range patterns {
		for _, needle := range p.needles {
			if strings.Contains(msg, needle) {
				return p.kind
			}
		}
	}
	return KindUnknown
}
