package runtime

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pithecene-io/sigbench/frame"
	"github.com/pithecene-io/sigbench/log"
	"github.com/pithecene-io/sigbench/metrics"
	"github.com/pithecene-io/sigbench/record"
	"github.com/pithecene-io/sigbench/sampler"
	"github.com/pithecene-io/sigbench/signature"
	"github.com/pithecene-io/sigbench/transport"
	"github.com/pithecene-io/sigbench/types"
)

// SenderConfig configures a Sender.
type SenderConfig struct {
	Transfer   TransferConfig
	Provider   signature.Provider
	PrivateKey []byte
	// Payload overrides the generated payload. Its length must equal
	// Transfer.PayloadSize.
	Payload   []byte
	Logger    *log.Logger
	Collector *metrics.Collector
	// Stats is shared by every Send. By default each Send samples this
	// process with its own CPU baseline.
	Stats sampler.StatsSource
	Now   func() time.Time
}

// SignedPayload is a payload with its signature.
type SignedPayload struct {
	Signature []byte
	Payload   []byte
	SignTime  time.Duration
}

// Sender signs a payload and writes it as one frame per connection.
type Sender struct {
	cfg     SenderConfig
	encoder *frame.Encoder
	proc    *sampler.ProcessSource
}

// NewSender creates a sender.
func NewSender(cfg SenderConfig) (*Sender, error) {
	if err := cfg.Transfer.Validate(); err != nil {
		return nil, fmt.Errorf("invalid transfer config: %w", err)
	}
	if cfg.Provider == nil {
		return nil, errors.New("signature provider is required")
	}
	if len(cfg.PrivateKey) == 0 {
		return nil, errors.New("private key is required")
	}
	if cfg.Payload == nil {
		cfg.Payload = GeneratePayload(cfg.Transfer.PayloadSize)
	} else if len(cfg.Payload) != cfg.Transfer.PayloadSize {
		return nil, fmt.Errorf("payload is %d bytes, payload_size is %d", len(cfg.Payload), cfg.Transfer.PayloadSize)
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Nop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	var proc *sampler.ProcessSource
	if cfg.Stats == nil {
		src, err := sampler.NewProcessSource()
		if err != nil {
			return nil, err
		}
		proc = src
	}

	enc, err := frame.NewEncoder(cfg.Transfer.ChunkSize)
	if err != nil {
		return nil, err
	}
	return &Sender{cfg: cfg, encoder: enc, proc: proc}, nil
}

// Sign signs the configured payload and measures the signing time.
func (s *Sender) Sign() (*SignedPayload, error) {
	start := s.cfg.Now()
	sig, err := s.cfg.Provider.Sign(s.cfg.PrivateKey, s.cfg.Payload)
	if err != nil {
		return nil, fmt.Errorf("sign payload: %w", err)
	}
	return &SignedPayload{
		Signature: sig,
		Payload:   s.cfg.Payload,
		SignTime:  s.cfg.Now().Sub(start),
	}, nil
}

// Send writes msg as one frame to w, half-closes and waits for the peer to
// close. peer may be nil to skip the wait.
func (s *Sender) Send(ctx context.Context, info ConnInfo, msg *SignedPayload, w transport.ChunkWriter, peer transport.PeerWaiter) *TransferResult {
	meta := types.TransferMeta{
		TransferID: types.NewTransferID(),
		Role:       types.RoleSender,
		Protocol:   s.cfg.Transfer.Protocol,
		Scheme:     s.cfg.Transfer.Scheme,
	}
	logger := s.cfg.Logger.ForTransfer(meta)
	s.cfg.Collector.IncTransferStarted()

	var counter sampler.ByteCounter
	var stats sampler.StatsSource = s.cfg.Stats
	if stats == nil {
		stats = s.proc.Fork()
	}
	smp := sampler.New(stats)
	smp.Start(s.cfg.Transfer.SampleInterval, &counter)
	defer smp.Stop()

	var chunks [][]byte
	if s.cfg.Transfer.Protocol == types.ProtocolEventStream {
		chunks = s.encoder.EncodeTerminated(msg.Signature, msg.Payload)
	} else {
		chunks = s.encoder.Encode(msg.Signature, msg.Payload)
	}

	logger.Info("sending frame", map[string]any{
		"peer":           info.Peer,
		"signature_size": len(msg.Signature),
		"payload_size":   len(msg.Payload),
		"chunks":         len(chunks),
	})

	var (
		loopErr error
		firstAt time.Time
	)
	for _, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			loopErr = &transport.Error{Op: transport.OpWrite, Err: err}
			break
		}
		if err := w.WriteChunk(chunk); err != nil {
			loopErr = err
			break
		}
		if firstAt.IsZero() {
			firstAt = s.cfg.Now()
		}
		counter.Add(len(chunk))
	}
	if loopErr == nil {
		loopErr = w.CloseWrite()
	}
	if loopErr == nil && peer != nil {
		loopErr = s.waitPeer(ctx, logger, peer)
	}

	ended := s.cfg.Now()
	samples := smp.Stop()

	outcome := DetermineOutcome(loopErr, nil)
	total := counter.Load()
	rec := record.Build(record.Input{
		Meta: meta,
		Peer: info.Peer,
		Timing: record.Timing{
			StartedAt:     info.StartedAt,
			EndedAt:       ended,
			FirstDataAt:   firstAt,
			HandshakeTime: info.HandshakeTime,
			SignTime:      msg.SignTime,
		},
		TotalBytes:    total,
		SignatureSize: len(msg.Signature),
		PayloadSize:   len(msg.Payload),
		Samples:       samples,
		Outcome:       outcome,
	})

	s.cfg.Collector.AddBytes(total)
	s.cfg.Collector.RecordOutcome(string(outcome.Status))

	fields := map[string]any{
		"outcome":            outcome.Status,
		"message":            outcome.Message,
		"total_bytes":        total,
		"connection_time_ms": rec.ConnectionTime.Milliseconds(),
		"throughput_mb_s":    rec.ThroughputMBps,
	}
	if outcome.Status == types.OutcomeSuccess {
		logger.Info("transfer finished", fields)
	} else {
		logger.Error("transfer failed", fields)
	}

	return &TransferResult{Record: rec, Err: loopErr}
}

// waitPeer waits for the receiver to close, bounded by the close timeout.
// A receiver that stays open past the timeout is logged, not failed: every
// byte was already written.
func (s *Sender) waitPeer(ctx context.Context, logger *log.Logger, peer transport.PeerWaiter) error {
	timeout := s.cfg.Transfer.CloseTimeout
	if timeout <= 0 {
		return nil
	}
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := peer.WaitPeerClose(waitCtx)
	if err != nil && errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		logger.Warn("peer did not close before timeout", map[string]any{"timeout_ms": timeout.Milliseconds()})
		return nil
	}
	return err
}
