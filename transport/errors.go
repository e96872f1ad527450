package transport

import (
	"errors"
	"fmt"
)

// Operations reported in Error.Op.
const (
	OpListen = "listen"
	OpDial   = "dial"
	OpAccept = "accept"
	OpRead   = "read"
	OpWrite  = "write"
	OpClose  = "close"
)

// Error is a transport-level failure: the connection could not be
// established or dropped while bytes were in flight.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("transport %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsTransportError reports whether err is or wraps an *Error.
func IsTransportError(err error) bool {
	var tErr *Error
	return errors.As(err, &tErr)
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var tErr *Error
	if errors.As(err, &tErr) {
		return err
	}
	return &Error{Op: op, Err: err}
}
