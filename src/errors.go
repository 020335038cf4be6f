package magstripe

import (
	"fmt"
)

// DecodeError is a terminal failure for one swipe.  The caller decides
// whether to ask for another one.
type DecodeError struct {
	reason string
}

func (e *DecodeError) Error() string {
	return e.reason
}

var (
	ErrEmptyCapture         = &DecodeError{"no usable bits in capture"}
	ErrMissingStartSentinel = &DecodeError{"no start sentinel"}
	ErrMissingEndSentinel   = &DecodeError{"no end sentinel"}
	ErrBadLRC               = &DecodeError{"bad LRC"}
)

// StageError carries how far through the chain a failed decode got, so a
// failed swipe can be diagnosed without rerunning it.
type StageError struct {
	Stats Stats
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s (%d intervals, %d bits, %d symbols)", e.Err, e.Stats.Intervals, e.Stats.Bits, e.Stats.Symbols)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
