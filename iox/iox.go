// Package iox provides cleanup helpers for connections, listeners and files.
package iox

import (
	"errors"
	"io"
)

// DiscardClose closes c and discards the error. For deferred closes of
// listeners and finished connections where nothing can be done about a
// failure:
//
//	defer iox.DiscardClose(ln)
func DiscardClose(c io.Closer) { _ = c.Close() }

// CloseFunc returns a function that closes c, for t.Cleanup:
//
//	t.Cleanup(iox.CloseFunc(conn))
func CloseFunc(c io.Closer) func() {
	return func() { _ = c.Close() }
}

// DiscardErr calls fn and discards the returned error, e.g. a logger Sync.
func DiscardErr(fn func() error) { _ = fn() }

// CloseAll closes every non-nil closer in order and joins the errors.
func CloseAll(closers ...io.Closer) error {
	var errs []error
	for _, c := range closers {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
