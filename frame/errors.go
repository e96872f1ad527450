package frame

import (
	"errors"
	"fmt"
)

// ErrorKind classifies framing errors.
type ErrorKind int

const (
	// KindIncompleteTransfer indicates the stream ended before the frame was complete.
	KindIncompleteTransfer ErrorKind = iota
	// KindUnexpectedTrailingData indicates bytes arrived after the frame was complete.
	KindUnexpectedTrailingData
	// KindSignatureTooLarge indicates a length prefix above the configured limit.
	KindSignatureTooLarge
)

// String returns the kind name.
func (k ErrorKind) String() string {
	switch k {
	case KindIncompleteTransfer:
		return "incomplete_transfer"
	case KindUnexpectedTrailingData:
		return "unexpected_trailing_data"
	case KindSignatureTooLarge:
		return "signature_too_large"
	default:
		return "unknown"
	}
}

// FrameError represents a framing error.
type FrameError struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *FrameError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *FrameError) Unwrap() error {
	return e.Err
}

// IsFatal returns true if the error invalidates the transfer.
// Trailing data is reported but does not invalidate an already completed frame.
func (e *FrameError) IsFatal() bool {
	return e.Kind != KindUnexpectedTrailingData
}

// IsKind reports whether err is a *FrameError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var frameErr *FrameError
	if errors.As(err, &frameErr) {
		return frameErr.Kind == kind
	}
	return false
}

// IsFatalFrameError returns true if the error is a fatal frame error.
func IsFatalFrameError(err error) bool {
	var frameErr *FrameError
	if errors.As(err, &frameErr) {
		return frameErr.IsFatal()
	}
	return false
}
