package runtime

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"time"

	"github.com/pithecene-io/sigbench/transport"
	"github.com/pithecene-io/sigbench/types"
)

// SenderConn is a dialed connection a Sender writes to.
type SenderConn interface {
	transport.ChunkWriter
	transport.PeerWaiter
	io.Closer
}

// Dial connects to addr over protocol, timing the handshake.
func Dial(ctx context.Context, protocol types.Protocol, addr string, conf *tls.Config) (SenderConn, ConnInfo, error) {
	info := ConnInfo{Peer: addr, StartedAt: time.Now()}

	var (
		conn SenderConn
		err  error
	)
	switch protocol {
	case types.ProtocolBlockingStream:
		conn, err = transport.DialTLS(ctx, addr, conf)
	case types.ProtocolEventStream:
		conn, err = transport.DialQUIC(ctx, addr, conf)
	default:
		return nil, info, fmt.Errorf("unsupported protocol %q", protocol)
	}
	if err != nil {
		return nil, info, err
	}
	info.HandshakeTime = time.Since(info.StartedAt)
	return conn, info, nil
}
