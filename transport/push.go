package transport

import (
	"context"
	"errors"
	"io"
	"time"
)

// DefaultPushBufferSize is the read size of the push pump.
const DefaultPushBufferSize = 64 * 1024

// Handler receives inbound bytes. For one connection it is never invoked
// concurrently with itself, and chunks arrive in send order. The final
// invocation has end set and carries no data. data is only valid for the
// duration of the call.
type Handler func(data []byte, end bool) error

// PushTransport delivers inbound bytes by invoking a Handler.
type PushTransport interface {
	// Start begins delivery. The returned channel yields exactly one value
	// when delivery stops: nil after the end-of-stream invocation returned nil,
	// the handler's error, or a transport error.
	Start(ctx context.Context, h Handler) <-chan error
}

type readDeadliner interface {
	SetReadDeadline(t time.Time) error
}

// StreamPush adapts an io.Reader to PushTransport. A pump goroutine reads
// from the stream and invokes the handler.
type StreamPush struct {
	r       io.Reader
	bufSize int
}

// NewStreamPush creates a push transport over r. bufSize <= 0 selects
// DefaultPushBufferSize.
func NewStreamPush(r io.Reader, bufSize int) *StreamPush {
	if bufSize <= 0 {
		bufSize = DefaultPushBufferSize
	}
	return &StreamPush{r: r, bufSize: bufSize}
}

// Start implements PushTransport. Cancelling ctx interrupts a blocked read
// when the underlying reader supports read deadlines.
func (p *StreamPush) Start(ctx context.Context, h Handler) <-chan error {
	done := make(chan error, 1)

	stop := context.AfterFunc(ctx, func() {
		if d, ok := p.r.(readDeadliner); ok {
			_ = d.SetReadDeadline(time.Now())
		}
	})

	go func() {
		defer stop()
		done <- p.pump(ctx, h)
	}()

	return done
}

func (p *StreamPush) pump(ctx context.Context, h Handler) error {
	buf := make([]byte, p.bufSize)
	for {
		n, err := p.r.Read(buf)
		if n > 0 {
			if hErr := h(buf[:n], false); hErr != nil {
				return hErr
			}
		}
		if err == nil {
			continue
		}
		if errors.Is(err, io.EOF) {
			return h(nil, true)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return wrap(OpRead, ctxErr)
		}
		return wrap(OpRead, err)
	}
}
