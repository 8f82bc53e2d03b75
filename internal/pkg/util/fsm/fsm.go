package fsm

import (
	"context"
	"errors"

	"github.com/looplab/fsm"
)

// WrapEvent adapts an error-returning callback to a looplab/fsm callback,
// recording the error on the event.
func WrapEvent(fn func(ctx context.Context, event *fsm.Event) error) fsm.Callback {
	return func(ctx context.Context, event *fsm.Event) {
		if err := fn(ctx, event); err != nil {
			event.Err = err
		}
	}
}

// IsRealError reports whether err is a genuine failure rather than one of the
// benign outcomes of firing an event (no transition, cancelled, not applicable
// in the current state).
func IsRealError(err error) bool {
	if err == nil {
		return false
	}

	var noTransition fsm.NoTransitionError
	var canceled fsm.CanceledError
	var invalid fsm.InvalidEventError

	if errors.As(err, &noTransition) || errors.As(err, &canceled) || errors.As(err, &invalid) {
		return false
	}

	return true
}
