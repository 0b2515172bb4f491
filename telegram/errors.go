package telegram

import (
	"fmt"

	"github.com/pkg/errors"
)

// Resolution errors: a Context convenience call could not resolve the
// identity it needs from the bound update. They are returned synchronously,
// before any network call is attempted.
var (
	ErrNoChat     = errors.New("no chat could be resolved from this update")
	ErrNoMessage  = errors.New("no message could be resolved from this update")
	ErrNoSender   = errors.New("no sender could be resolved from this update")
	ErrNoThread   = errors.New("no forum topic could be resolved from this update")
	ErrNoCallback = errors.New("update does not carry a callback query")
)

// ErrRunning is returned by Start* when an ingestion loop is already active
// for this client.
var ErrRunning = errors.New("an update fetcher is already running for this client")

// Error is a rejection returned by the Bot API itself, as opposed to a
// transport failure reaching it. Transport failures are plain wrapped errors
// and can be told apart with IsRejected.
type Error struct {
	Method      string
	Code        int
	Description string
	RetryAfter  int
}

func (e *Error) Error() string {
	return fmt.Sprintf("telegram: %s: %s (%d)", e.Method, e.Description, e.Code)
}

// IsRejected reports whether err (or anything it wraps) is a Bot API
// rejection rather than a transport failure.
func IsRejected(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr)
}

// RejectionCode returns the Bot API error code buried in err, or 0 when err
// is not a rejection.
func RejectionCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return 0
}
