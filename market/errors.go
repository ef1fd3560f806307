package market

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrorKind classifies a fetch failure.
type ErrorKind string

const (
	KindNotFound    ErrorKind = "not_found"
	KindTimeout     ErrorKind = "timeout"
	KindUnavailable ErrorKind = "unavailable"
	KindMalformed   ErrorKind = "malformed"
)

// FetchError is a classified provider failure.
type FetchError struct {
	Kind   ErrorKind
	Ticker string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Ticker, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of a *FetchError in err's chain. Other errors are
// classified by transport: deadlines and network timeouts are KindTimeout and
// everything else is KindUnavailable.
func KindOf(err error) ErrorKind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	if isTimeout(err) {
		return KindTimeout
	}
	return KindUnavailable
}

// wrap classifies a transport error for ticker.
func wrap(ticker string, err error) *FetchError {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe
	}
	return &FetchError{Kind: KindOf(err), Ticker: ticker, Err: err}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
