package stage

import "errors"

var (
	// ErrIllegalArgument reports a rejected value; the receiver is unchanged.
	ErrIllegalArgument = errors.New("stage: illegal argument")
	// ErrIllegalState reports an operation that conflicts with current state.
	ErrIllegalState = errors.New("stage: illegal state")
)
