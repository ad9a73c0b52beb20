package alerts

import "errors"

// ErrNoSenders is returned when a notifier is built without destinations.
var ErrNoSenders = errors.New("no alert senders configured")

// retryable is implemented by sender errors that may succeed on a later attempt.
type retryable interface {
	IsRetryable() bool
}

// IsRetryable reports whether err is a temporary delivery failure.
// Errors that do not say otherwise are treated as retryable.
func IsRetryable(err error) bool {
	var r retryable
	if errors.As(err, &r) {
		return r.IsRetryable()
	}
	return true
}
