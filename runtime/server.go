package runtime

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/pithecene-io/sigbench/iox"
	"github.com/pithecene-io/sigbench/log"
	"github.com/pithecene-io/sigbench/transport"
	"github.com/pithecene-io/sigbench/types"
)

// sinkTimeout bounds record delivery for one connection.
const sinkTimeout = 10 * time.Second

// ServerConfig configures a Server.
type ServerConfig struct {
	Protocol types.Protocol
	// Addr is the listen address, e.g. ":4433".
	Addr     string
	TLS      *tls.Config
	Receiver *Receiver
	// Sink receives every record. Optional.
	Sink   RecordSink
	Logger *log.Logger
	// MaxTransfers stops the server after that many connections. Zero means unlimited.
	MaxTransfers int
	// OnResult is called once per connection after the sink. Optional.
	OnResult func(*TransferResult)
	// Ready is called with the bound address once the server listens. Optional.
	Ready func(net.Addr)
}

// Server accepts connections and runs one receiver transfer per connection,
// each on its own goroutine.
type Server struct {
	cfg ServerConfig
}

// NewServer creates a server.
func NewServer(cfg ServerConfig) (*Server, error) {
	if _, err := types.ParseProtocol(string(cfg.Protocol)); err != nil {
		return nil, err
	}
	if cfg.Receiver == nil {
		return nil, errors.New("receiver is required")
	}
	if cfg.TLS == nil {
		return nil, errors.New("tls config is required")
	}
	if cfg.MaxTransfers < 0 {
		return nil, fmt.Errorf("max transfers must be >= 0, got %d", cfg.MaxTransfers)
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Nop()
	}
	return &Server{cfg: cfg}, nil
}

// Serve listens and accepts until ctx is cancelled or MaxTransfers
// connections were handled. It waits for in-flight transfers before returning.
func (s *Server) Serve(ctx context.Context) error {
	switch s.cfg.Protocol {
	case types.ProtocolEventStream:
		ln, err := transport.ListenQUIC(s.cfg.Addr, s.cfg.TLS)
		if err != nil {
			return err
		}
		defer iox.DiscardClose(ln)
		return s.acceptLoop(ctx, ln.Addr(), func(ctx context.Context) (func(context.Context), error) {
			conn, err := ln.Accept(ctx)
			if err != nil {
				return nil, err
			}
			return func(ctx context.Context) { s.handleQUIC(ctx, conn) }, nil
		})
	default:
		ln, err := transport.ListenTLS(s.cfg.Addr, s.cfg.TLS)
		if err != nil {
			return err
		}
		defer iox.DiscardClose(ln)
		return s.acceptLoop(ctx, ln.Addr(), func(ctx context.Context) (func(context.Context), error) {
			conn, err := ln.Accept(ctx)
			if err != nil {
				return nil, err
			}
			return func(ctx context.Context) { s.handleTLS(ctx, conn) }, nil
		})
	}
}

func (s *Server) acceptLoop(ctx context.Context, addr net.Addr, accept func(context.Context) (func(context.Context), error)) error {
	s.cfg.Logger.Info("listening", map[string]any{
		"addr":     addr.String(),
		"protocol": s.cfg.Protocol,
	})
	if s.cfg.Ready != nil {
		s.cfg.Ready(addr)
	}

	var wg sync.WaitGroup
	defer wg.Wait()

	for accepted := 0; s.cfg.MaxTransfers == 0 || accepted < s.cfg.MaxTransfers; accepted++ {
		handle, err := accept(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			handle(ctx)
		}()
	}
	return nil
}

func (s *Server) handleTLS(ctx context.Context, conn *transport.TLSConn) {
	info := ConnInfo{Peer: conn.RemoteAddr().String(), StartedAt: time.Now()}
	var result *TransferResult
	if err := conn.Handshake(ctx); err != nil {
		result = s.cfg.Receiver.Reject(types.ProtocolBlockingStream, info, err)
	} else {
		info.HandshakeTime = time.Since(info.StartedAt)
		result = s.cfg.Receiver.ReceivePull(ctx, info, conn.Pull())
	}
	// Close before delivery so the sender's wait for close is not
	// extended by sink latency.
	iox.DiscardClose(conn)
	s.deliver(ctx, result)
}

func (s *Server) handleQUIC(ctx context.Context, conn *transport.QUICConn) {
	info := ConnInfo{Peer: conn.RemoteAddr().String(), StartedAt: time.Now()}
	var result *TransferResult
	if err := conn.AcceptStream(ctx); err != nil {
		result = s.cfg.Receiver.Reject(types.ProtocolEventStream, info, err)
	} else {
		result = s.cfg.Receiver.ReceivePush(ctx, info, conn.Push(0))
	}

	code := transport.QUICCodeOK
	if result.Frame == nil {
		code = transport.QUICCodeProtocol
	}
	_ = conn.CloseWithError(code, string(result.Record.Outcome.Status))
	s.deliver(ctx, result)
}

func (s *Server) deliver(ctx context.Context, result *TransferResult) {
	if s.cfg.Sink != nil {
		sinkCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sinkTimeout)
		if err := s.cfg.Sink.WriteRecord(sinkCtx, result.Record); err != nil {
			s.cfg.Logger.Warn("record sink failed", map[string]any{
				"transfer_id": result.Record.TransferID,
				"error":       err.Error(),
			})
		}
		cancel()
	}
	if s.cfg.OnResult != nil {
		s.cfg.OnResult(result)
	}
}
