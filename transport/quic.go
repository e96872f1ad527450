package transport

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net"
	"time"

	"github.com/quic-go/quic-go"
)

// Application error codes used when closing QUIC connections.
const (
	QUICCodeOK       quic.ApplicationErrorCode = 0
	QUICCodeProtocol quic.ApplicationErrorCode = 1
)

// DefaultQUICIdleTimeout bounds how long an idle QUIC connection is kept.
const DefaultQUICIdleTimeout = 30 * time.Second

func quicConfig() *quic.Config {
	return &quic.Config{
		MaxIdleTimeout:  DefaultQUICIdleTimeout,
		KeepAlivePeriod: 5 * time.Second,
	}
}

// QUICListener accepts QUIC connections.
type QUICListener struct {
	ln *quic.Listener
}

// ListenQUIC listens for QUIC connections on the UDP address addr.
func ListenQUIC(addr string, conf *tls.Config) (*QUICListener, error) {
	ln, err := quic.ListenAddr(addr, conf, quicConfig())
	if err != nil {
		return nil, wrap(OpListen, err)
	}
	return &QUICListener{ln: ln}, nil
}

// Addr returns the listener's network address.
func (l *QUICListener) Addr() net.Addr {
	return l.ln.Addr()
}

// Accept waits for the next connection whose handshake has completed.
func (l *QUICListener) Accept(ctx context.Context) (*QUICConn, error) {
	conn, err := l.ln.Accept(ctx)
	if err != nil {
		return nil, wrap(OpAccept, err)
	}
	return &QUICConn{conn: conn}, nil
}

// Close closes the listener.
func (l *QUICListener) Close() error {
	return l.ln.Close()
}

// QUICConn is one QUIC connection carrying a single bidirectional stream.
type QUICConn struct {
	conn   quic.Connection
	stream quic.Stream
}

// DialQUIC connects to addr and opens the frame stream.
func DialQUIC(ctx context.Context, addr string, conf *tls.Config) (*QUICConn, error) {
	conn, err := quic.DialAddr(ctx, addr, conf, quicConfig())
	if err != nil {
		return nil, wrap(OpDial, err)
	}
	if err := VerifyALPN(conn.ConnectionState().TLS); err != nil {
		_ = conn.CloseWithError(QUICCodeProtocol, err.Error())
		return nil, wrap(OpDial, err)
	}
	stream, err := conn.OpenStreamSync(ctx)
	if err != nil {
		_ = conn.CloseWithError(QUICCodeProtocol, "open stream failed")
		return nil, wrap(OpDial, err)
	}
	return &QUICConn{conn: conn, stream: stream}, nil
}

// AcceptStream waits for the peer to open the frame stream. The stream becomes
// visible once the peer has sent its first bytes.
func (c *QUICConn) AcceptStream(ctx context.Context) error {
	stream, err := c.conn.AcceptStream(ctx)
	if err != nil {
		return wrap(OpAccept, err)
	}
	c.stream = stream
	return nil
}

// RemoteAddr returns the peer address.
func (c *QUICConn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// Push returns a push transport pumping the frame stream.
func (c *QUICConn) Push(bufSize int) *StreamPush {
	return NewStreamPush(c.stream, bufSize)
}

// WriteChunk implements ChunkWriter.
func (c *QUICConn) WriteChunk(p []byte) error {
	if _, err := c.stream.Write(p); err != nil {
		return wrap(OpWrite, err)
	}
	return nil
}

// CloseWrite implements ChunkWriter. It closes the send direction of the stream.
func (c *QUICConn) CloseWrite() error {
	return wrap(OpClose, c.stream.Close())
}

// WaitPeerClose implements PeerWaiter. The peer may either finish its side of
// the stream or close the connection with QUICCodeOK.
func (c *QUICConn) WaitPeerClose(ctx context.Context) error {
	if deadline, ok := ctx.Deadline(); ok {
		_ = c.stream.SetReadDeadline(deadline)
	}
	stop := context.AfterFunc(ctx, func() {
		_ = c.stream.SetReadDeadline(time.Now())
	})
	defer stop()

	_, err := io.Copy(io.Discard, c.stream)
	if err == nil || isCleanQUICClose(err) {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return wrap(OpClose, ctxErr)
	}
	return wrap(OpClose, err)
}

// Close finishes the stream and closes the connection with QUICCodeOK.
func (c *QUICConn) Close() error {
	return c.CloseWithError(QUICCodeOK, "")
}

// CloseWithError finishes the stream and closes the connection with code.
func (c *QUICConn) CloseWithError(code quic.ApplicationErrorCode, msg string) error {
	if c.stream != nil {
		_ = c.stream.Close()
	}
	return c.conn.CloseWithError(code, msg)
}

func isCleanQUICClose(err error) bool {
	var appErr *quic.ApplicationError
	if errors.As(err, &appErr) {
		return appErr.ErrorCode == QUICCodeOK
	}
	return false
}
