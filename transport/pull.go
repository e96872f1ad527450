// Package transport adapts byte-stream connections to the two consumption
// models used by receivers: a blocking pull model (TLS over TCP) and an
// event-driven push model (QUIC stream pumped by a delivery goroutine).
package transport

import (
	"errors"
	"io"
	"time"
)

// PullTransport delivers inbound bytes on demand.
type PullTransport interface {
	// ReadChunk blocks until at least one byte is available or the stream ends.
	// It returns between 1 and max bytes, or io.EOF once the remote end has
	// closed. The returned slice is valid until the next call.
	ReadChunk(max int) ([]byte, error)
}

// StreamPull adapts an io.Reader to PullTransport.
type StreamPull struct {
	r       io.Reader
	buf     []byte
	pending error
}

// NewStreamPull creates a pull transport over r.
func NewStreamPull(r io.Reader) *StreamPull {
	return &StreamPull{r: r}
}

// SetReadDeadline forwards to the underlying reader when it supports
// deadlines and reports whether it did.
func (p *StreamPull) SetReadDeadline(t time.Time) bool {
	d, ok := p.r.(readDeadliner)
	if !ok {
		return false
	}
	return d.SetReadDeadline(t) == nil
}

// ReadChunk implements PullTransport.
func (p *StreamPull) ReadChunk(max int) ([]byte, error) {
	if p.pending != nil {
		return nil, p.pending
	}
	if max <= 0 {
		max = 1
	}
	if cap(p.buf) < max {
		p.buf = make([]byte, max)
	}
	buf := p.buf[:max]

	for {
		n, err := p.r.Read(buf)
		if err != nil {
			if errors.Is(err, io.EOF) {
				p.pending = io.EOF
			} else {
				p.pending = wrap(OpRead, err)
			}
		}
		if n > 0 {
			return buf[:n], nil
		}
		if p.pending != nil {
			return nil, p.pending
		}
	}
}
