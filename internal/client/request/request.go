// Package request binds a remote call to loading/error/payload bookkeeping
// and reports every failure as exactly one error notice.
package request

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/contaportal/portal/internal/client/api"
	"github.com/contaportal/portal/internal/client/notify"
)

// FallbackMessage is shown when an error carries no usable text.
const FallbackMessage = "Something went wrong, please try again."

// SessionExpiredMessage replaces the server text when a token was rejected.
const SessionExpiredMessage = "Your session has expired, please log in again."

// Func is a remote call taking one argument.
type Func[A, T any] func(ctx context.Context, arg A) (T, error)

// Publisher receives failure notices.
type Publisher interface {
	Publish(message string, severity notify.Severity, ttl time.Duration) int64
}

// State is a snapshot of one bound call. After a terminal outcome exactly
// one of Data and Err is set.
type State[T any] struct {
	Data    *T
	Err     error
	Loading bool
}

// Request wraps fn. It may be invoked any number of times; every invocation
// starts from a clean state.
type Request[A, T any] struct {
	fn  Func[A, T]
	pub Publisher

	mu    sync.Mutex
	state State[T]
	seq   uint64
}

func New[A, T any](fn Func[A, T], pub Publisher) *Request[A, T] {
	return &Request[A, T]{fn: fn, pub: pub}
}

// Invoke runs the call. On success it stores and returns the payload. On
// failure it stores the error, publishes one error notice and returns the
// same error so the caller can compensate.
func (r *Request[A, T]) Invoke(ctx context.Context, arg A) (T, error) {
	r.mu.Lock()
	r.seq++
	seq := r.seq
	r.state = State[T]{Loading: true}
	r.mu.Unlock()

	out, err := r.fn(ctx, arg)

	r.mu.Lock()
	// A newer invocation owns the state now; only the latest one settles it.
	if seq == r.seq {
		if err != nil {
			r.state = State[T]{Err: err}
		} else {
			r.state = State[T]{Data: &out}
		}
	}
	r.mu.Unlock()

	if err != nil {
		if r.pub != nil {
			r.pub.Publish(MessageFor(err), notify.SeverityError, 0)
		}
		var zero T
		return zero, err
	}
	return out, nil
}

// State returns the current snapshot.
func (r *Request[A, T]) State() State[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// MessageFor picks the text shown for err: SessionExpiredMessage for a
// rejected token, then the server's own message, then the error text, then
// FallbackMessage.
func MessageFor(err error) string {
	if err == nil {
		return FallbackMessage
	}
	if api.IsSessionExpired(err) {
		return SessionExpiredMessage
	}
	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.ServerMessage != "" {
		return apiErr.ServerMessage
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return FallbackMessage
}
