package transport

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net"
	"time"
)

// TLSListener accepts TLS-over-TCP connections.
type TLSListener struct {
	ln   net.Listener
	conf *tls.Config
}

// ListenTLS listens on addr.
func ListenTLS(addr string, conf *tls.Config) (*TLSListener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, wrap(OpListen, err)
	}
	return &TLSListener{ln: ln, conf: conf}, nil
}

// Addr returns the listener's network address.
func (l *TLSListener) Addr() net.Addr {
	return l.ln.Addr()
}

// Accept waits for the next TCP connection. The TLS handshake is deferred to
// TLSConn.Handshake so callers can time it. Accept unblocks with an error
// when ctx is cancelled.
func (l *TLSListener) Accept(ctx context.Context) (*TLSConn, error) {
	stop := context.AfterFunc(ctx, func() {
		if tl, ok := l.ln.(*net.TCPListener); ok {
			_ = tl.SetDeadline(time.Now())
		}
	})
	defer stop()

	raw, err := l.ln.Accept()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, wrap(OpAccept, ctxErr)
		}
		return nil, wrap(OpAccept, err)
	}
	return &TLSConn{conn: tls.Server(raw, l.conf)}, nil
}

// Close closes the listener.
func (l *TLSListener) Close() error {
	return l.ln.Close()
}

// TLSConn is one TLS-over-TCP connection. It is a ChunkWriter and a
// PeerWaiter for senders; receivers read through Pull.
type TLSConn struct {
	conn *tls.Conn
}

// DialTLS connects to addr and completes the handshake.
func DialTLS(ctx context.Context, addr string, conf *tls.Config) (*TLSConn, error) {
	d := tls.Dialer{Config: conf}
	c, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, wrap(OpDial, err)
	}
	tc, ok := c.(*tls.Conn)
	if !ok {
		_ = c.Close()
		return nil, &Error{Op: OpDial, Err: errors.New("dialer returned non-TLS connection")}
	}
	if err := VerifyALPN(tc.ConnectionState()); err != nil {
		_ = tc.Close()
		return nil, wrap(OpDial, err)
	}
	return &TLSConn{conn: tc}, nil
}

// Handshake runs the TLS handshake if it has not completed.
func (c *TLSConn) Handshake(ctx context.Context) error {
	if err := c.conn.HandshakeContext(ctx); err != nil {
		return wrap(OpAccept, err)
	}
	return wrap(OpAccept, VerifyALPN(c.conn.ConnectionState()))
}

// RemoteAddr returns the peer address.
func (c *TLSConn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// Pull returns a pull transport reading from the connection.
func (c *TLSConn) Pull() *StreamPull {
	return NewStreamPull(c.conn)
}

// SetReadDeadline sets the read deadline on the underlying connection.
func (c *TLSConn) SetReadDeadline(t time.Time) error {
	return c.conn.SetReadDeadline(t)
}

// WriteChunk implements ChunkWriter.
func (c *TLSConn) WriteChunk(p []byte) error {
	if _, err := c.conn.Write(p); err != nil {
		return wrap(OpWrite, err)
	}
	return nil
}

// CloseWrite implements ChunkWriter.
func (c *TLSConn) CloseWrite() error {
	return wrap(OpClose, c.conn.CloseWrite())
}

// WaitPeerClose implements PeerWaiter. Bytes sent by the peer are discarded.
func (c *TLSConn) WaitPeerClose(ctx context.Context) error {
	if deadline, ok := ctx.Deadline(); ok {
		_ = c.conn.SetReadDeadline(deadline)
	}
	stop := context.AfterFunc(ctx, func() {
		_ = c.conn.SetReadDeadline(time.Now())
	})
	defer stop()

	_, err := io.Copy(io.Discard, c.conn)
	if err == nil || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, net.ErrClosed) {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return wrap(OpClose, ctxErr)
	}
	return wrap(OpClose, err)
}

// Close closes the connection.
func (c *TLSConn) Close() error {
	return c.conn.Close()
}
