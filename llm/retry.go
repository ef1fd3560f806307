package llm

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryingModel retries retryable failures of the wrapped Model with bounded
// exponential backoff. Fatal kinds return on the first attempt.
type RetryingModel struct {
	next            Model
	maxRetries      int
	initialInterval time.Duration
	maxInterval     time.Duration
	logger          *slog.Logger
}

// RetryOption customizes a RetryingModel.
type RetryOption func(*RetryingModel)

// WithBackoff sets the first and the largest wait between attempts.
func WithBackoff(initial, max time.Duration) RetryOption {
	return func(r *RetryingModel) {
		r.initialInterval = initial
		r.maxInterval = max
	}
}

// WithRetryLogger sets the logger for retry warnings.
func WithRetryLogger(logger *slog.Logger) RetryOption {
	return func(r *RetryingModel) {
		r.logger = logger
	}
}

// NewRetryingModel wraps next with at most maxRetries additional attempts.
func NewRetryingModel(next Model, maxRetries int, opts ...RetryOption) *RetryingModel {
	r := &RetryingModel{
		next:            next,
		maxRetries:      max(maxRetries, 0),
		initialInterval: time.Second,
		maxInterval:     10 * time.Second,
		logger:          slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *RetryingModel) Generate(ctx context.Context, tmpl *Template, vars map[string]any) (string, error) {
	var (
		out     string
		attempt int
	)

	op := func() error {
		attempt++
		text, err := r.next.Generate(ctx, tmpl, vars)
		if err == nil {
			out = text
			return nil
		}

		me := Classify(err)
		if !me.Retryable {
			return backoff.Permanent(me)
		}

		if attempt <= r.maxRetries {
			r.logger.WarnContext(ctx, "retrying model call",
				"template", tmpl.Name(),
				"attempt", attempt,
				"max_retries", r.maxRetries,
				"kind", string(me.Kind),
				"error", me.Err,
			)
		}
		return me
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.initialInterval
	b.MaxInterval = r.maxInterval
	b.MaxElapsedTime = 0

	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(r.maxRetries)), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		return "", Classify(err)
	}
	return out, nil
}
