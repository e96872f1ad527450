package runtime

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/pithecene-io/sigbench/iox"
	"github.com/pithecene-io/sigbench/log"
	"github.com/pithecene-io/sigbench/metrics"
	"github.com/pithecene-io/sigbench/sampler"
	"github.com/pithecene-io/sigbench/signature"
	"github.com/pithecene-io/sigbench/transport"
)

// BenchConfig configures an in-process loopback benchmark.
type BenchConfig struct {
	Transfer   TransferConfig
	Provider   signature.Provider
	PublicKey  []byte
	PrivateKey []byte
	// Iterations is the number of transfers. Defaults to 1.
	Iterations int
	// Addr is the loopback listen address. Defaults to 127.0.0.1:0.
	Addr      string
	Logger    *log.Logger
	Collector *metrics.Collector
	// Sink receives sender and receiver records. Optional.
	Sink  RecordSink
	Stats sampler.StatsSource
}

// BenchResult holds both sides of every transfer, in completion order.
type BenchResult struct {
	Sends    []*TransferResult
	Receives []*TransferResult
}

// Results returns sender and receiver results together.
func (b *BenchResult) Results() []*TransferResult {
	out := make([]*TransferResult, 0, len(b.Sends)+len(b.Receives))
	out = append(out, b.Sends...)
	return append(out, b.Receives...)
}

// RunBench runs a server and a sender in one process over loopback.
func RunBench(ctx context.Context, cfg BenchConfig) (*BenchResult, error) {
	if cfg.Iterations <= 0 {
		cfg.Iterations = 1
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:0"
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Nop()
	}

	receiver, err := NewReceiver(ReceiverConfig{
		Transfer:  cfg.Transfer,
		Provider:  cfg.Provider,
		PublicKey: cfg.PublicKey,
		Logger:    cfg.Logger,
		Collector: cfg.Collector,
		Stats:     cfg.Stats,
	})
	if err != nil {
		return nil, err
	}
	sender, err := NewSender(SenderConfig{
		Transfer:   cfg.Transfer,
		Provider:   cfg.Provider,
		PrivateKey: cfg.PrivateKey,
		Logger:     cfg.Logger,
		Collector:  cfg.Collector,
		Stats:      cfg.Stats,
	})
	if err != nil {
		return nil, err
	}

	serverTLS, err := transport.NewServerTLSConfig(transport.TLSConfig{})
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	result := &BenchResult{}
	var mu sync.Mutex
	ready := make(chan net.Addr, 1)

	srv, err := NewServer(ServerConfig{
		Protocol:     cfg.Transfer.Protocol,
		Addr:         cfg.Addr,
		TLS:          serverTLS,
		Receiver:     receiver,
		Sink:         cfg.Sink,
		Logger:       cfg.Logger,
		MaxTransfers: cfg.Iterations,
		OnResult: func(r *TransferResult) {
			mu.Lock()
			result.Receives = append(result.Receives, r)
			mu.Unlock()
		},
		Ready: func(addr net.Addr) { ready <- addr },
	})
	if err != nil {
		return nil, err
	}

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Serve(ctx) }()

	var addr net.Addr
	select {
	case addr = <-ready:
	case err := <-serveErr:
		if err == nil {
			err = errors.New("server stopped before listening")
		}
		return nil, err
	}

	clientTLS := transport.NewClientTLSConfig(transport.TLSConfig{
		ServerName:         "localhost",
		InsecureSkipVerify: true,
	})

	for i := 0; i < cfg.Iterations; i++ {
		msg, err := sender.Sign()
		if err != nil {
			return nil, err
		}
		conn, info, err := Dial(ctx, cfg.Transfer.Protocol, addr.String(), clientTLS)
		if err != nil {
			return nil, fmt.Errorf("iteration %d: %w", i, err)
		}
		send := sender.Send(ctx, info, msg, conn, conn)
		iox.DiscardClose(conn)

		if cfg.Sink != nil {
			if err := cfg.Sink.WriteRecord(ctx, send.Record); err != nil {
				cfg.Logger.Warn("record sink failed", map[string]any{"error": err.Error()})
			}
		}
		mu.Lock()
		result.Sends = append(result.Sends, send)
		mu.Unlock()
	}

	if err := <-serveErr; err != nil {
		return result, err
	}
	return result, nil
}
