package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
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

// ReceiverConfig configures a Receiver.
type ReceiverConfig struct {
	Transfer TransferConfig
	// Provider verifies completed frames. If nil, every verification
	// yields an error result.
	Provider signature.Provider
	// PublicKey is the sender's public key.
	PublicKey []byte
	// Logger defaults to a no-op logger.
	Logger *log.Logger
	// Collector is optional; all Collector methods are nil-safe.
	Collector *metrics.Collector
	// Stats overrides the sampler's stats source and is shared by every
	// session. By default each session samples this process with its own
	// CPU baseline.
	Stats sampler.StatsSource
	// Now overrides the clock used for transfer timestamps.
	Now func() time.Time
}

// TransferResult is the result of one side of one transfer.
type TransferResult struct {
	Record *record.TransferRecord
	// Frame is the reassembled frame. Nil unless the frame completed.
	Frame *frame.Frame
	// Err is the error that ended the transfer loop, nil if the loop finished.
	Err error
}

// ExitCode returns the process exit code for the result's outcome.
func (r *TransferResult) ExitCode() int {
	return ExitCode(r.Record.Outcome.Status)
}

// Receiver reassembles and verifies one frame per connection. A Receiver
// may serve many connections concurrently.
type Receiver struct {
	cfg    ReceiverConfig
	bridge *signature.Bridge
	proc   *sampler.ProcessSource
}

// NewReceiver creates a receiver.
func NewReceiver(cfg ReceiverConfig) (*Receiver, error) {
	if err := cfg.Transfer.Validate(); err != nil {
		return nil, fmt.Errorf("invalid transfer config: %w", err)
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Nop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	r := &Receiver{cfg: cfg, bridge: signature.NewBridge(cfg.Provider)}
	if cfg.Stats == nil {
		src, err := sampler.NewProcessSource()
		if err != nil {
			return nil, err
		}
		r.proc = src
	}
	return r, nil
}

// receiveSession is the per-connection state. The reassembler and the
// payload counter are touched only by the actor feeding chunks; completion
// fields are published to the transfer loop by closing completed.
type receiveSession struct {
	r       *Receiver
	meta    types.TransferMeta
	info    ConnInfo
	logger  *log.Logger
	counter sampler.ByteCounter
	sampler *sampler.Sampler
	asm     *frame.Reassembler
	counted int

	completed chan struct{}
	endedAt   time.Time
	sig       []byte
	payload   []byte
	firstAt   time.Time

	trailing atomic.Bool
}

func (r *Receiver) stats() sampler.StatsSource {
	if r.cfg.Stats != nil {
		return r.cfg.Stats
	}
	return r.proc.Fork()
}

func (r *Receiver) begin(protocol types.Protocol, info ConnInfo) (*receiveSession, error) {
	meta := types.TransferMeta{
		TransferID: types.NewTransferID(),
		Role:       types.RoleReceiver,
		Protocol:   protocol,
		Scheme:     r.cfg.Transfer.Scheme,
	}
	s := &receiveSession{
		r:         r,
		meta:      meta,
		info:      info,
		logger:    r.cfg.Logger.ForTransfer(meta),
		sampler:   sampler.New(r.stats()),
		completed: make(chan struct{}),
	}
	asm, err := frame.NewReassembler(frame.Config{
		PayloadSize:      r.cfg.Transfer.PayloadSize,
		MaxSignatureSize: r.cfg.Transfer.MaxSignatureSize,
		Now:              r.cfg.Now,
	}, s.onComplete)
	if err != nil {
		return nil, err
	}
	s.asm = asm

	r.cfg.Collector.IncTransferStarted()
	s.logger.Info("receiving frame", map[string]any{
		"peer":         info.Peer,
		"payload_size": r.cfg.Transfer.PayloadSize,
	})
	s.sampler.Start(r.cfg.Transfer.SampleInterval, &s.counter)
	return s, nil
}

func (s *receiveSession) onComplete(sig, payload []byte, firstAt time.Time) {
	s.endedAt = s.r.cfg.Now()
	s.sig = sig
	s.payload = payload
	s.firstAt = firstAt
	close(s.completed)
}

func (s *receiveSession) isComplete() bool {
	select {
	case <-s.completed:
		return true
	default:
		return false
	}
}

// feed advances the reassembler and accounts payload bytes. Trailing data is
// recorded and swallowed so the completed frame is kept.
func (s *receiveSession) feed(chunk []byte) error {
	err := s.asm.Feed(chunk)
	if n := s.asm.Received(); n > s.counted {
		s.counter.Add(n - s.counted)
		s.counted = n
	}
	if frame.IsKind(err, frame.KindUnexpectedTrailingData) {
		if !s.trailing.Swap(true) {
			s.logger.Warn("unexpected trailing data", map[string]any{"error": err.Error()})
		}
		return nil
	}
	return err
}

// stop captures the end timestamp, then stops and joins the sampler.
func (s *receiveSession) stop() (time.Time, bool, []sampler.Sample) {
	complete := s.isComplete()
	ended := s.endedAt
	if !complete {
		ended = s.r.cfg.Now()
	}
	return ended, complete, s.sampler.Stop()
}

func (s *receiveSession) finish(loopErr error, ended time.Time, complete bool, samples []sampler.Sample) *TransferResult {
	var (
		verification *signature.Result
		fr           *frame.Frame
	)
	if complete {
		res := s.r.bridge.Verify(s.r.cfg.PublicKey, s.sig, s.payload)
		verification = &res
		fr = &frame.Frame{Signature: s.sig, Payload: s.payload}
	}

	outcome := DetermineOutcome(loopErr, verification)
	trailing := s.trailing.Load()
	total := s.counter.Load()

	timing := record.Timing{
		StartedAt:     s.info.StartedAt,
		EndedAt:       ended,
		HandshakeTime: s.info.HandshakeTime,
	}
	if complete {
		timing.FirstDataAt = s.firstAt
	}

	rec := record.Build(record.Input{
		Meta:          s.meta,
		Peer:          s.info.Peer,
		Timing:        timing,
		TotalBytes:    total,
		SignatureSize: len(s.sig),
		PayloadSize:   s.r.cfg.Transfer.PayloadSize,
		Samples:       samples,
		Verification:  verification,
		Outcome:       outcome,
		TrailingData:  trailing,
	})

	c := s.r.cfg.Collector
	c.AddBytes(total)
	c.RecordOutcome(string(outcome.Status))
	if trailing {
		c.IncTrailingData()
	}

	fields := map[string]any{
		"outcome":            outcome.Status,
		"message":            outcome.Message,
		"total_bytes":        total,
		"connection_time_ms": rec.ConnectionTime.Milliseconds(),
		"throughput_mb_s":    rec.ThroughputMBps,
		"samples":            len(samples),
	}
	if outcome.Status == types.OutcomeSuccess {
		s.logger.Info("transfer finished", fields)
	} else {
		s.logger.Error("transfer failed", fields)
	}

	return &TransferResult{Record: rec, Frame: fr, Err: loopErr}
}

// ReceivePull drives a reassembler from a blocking pull transport until the
// frame completes or the stream ends.
func (r *Receiver) ReceivePull(ctx context.Context, info ConnInfo, pull transport.PullTransport) *TransferResult {
	s, err := r.begin(types.ProtocolBlockingStream, info)
	if err != nil {
		return r.Reject(types.ProtocolBlockingStream, info, err)
	}
	defer s.sampler.Stop()

	// Cancellation unblocks a pending ReadChunk through its read deadline.
	unwatch := func() bool { return true }
	if d, ok := pull.(pullDeadliner); ok {
		unwatch = context.AfterFunc(ctx, func() { d.SetReadDeadline(time.Now()) })
	}

	var loopErr error
	for !s.isComplete() {
		if err := ctx.Err(); err != nil {
			loopErr = &transport.Error{Op: transport.OpRead, Err: err}
			break
		}
		chunk, err := pull.ReadChunk(r.cfg.Transfer.ChunkSize)
		if errors.Is(err, io.EOF) {
			loopErr = s.asm.Close()
			break
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				err = &transport.Error{Op: transport.OpRead, Err: ctxErr}
			}
			loopErr = err
			break
		}
		if err := s.feed(chunk); err != nil {
			loopErr = err
			break
		}
	}
	cancelled := !unwatch()

	ended, complete, samples := s.stop()
	if complete && !cancelled && !s.trailing.Load() {
		s.drainPull(pull)
	}
	return s.finish(loopErr, ended, complete, samples)
}

type pullDeadliner interface {
	SetReadDeadline(t time.Time) bool
}

// drainPull waits up to the drain timeout for end of stream, recording any
// bytes that arrive instead.
func (s *receiveSession) drainPull(pull transport.PullTransport) {
	timeout := s.r.cfg.Transfer.DrainTimeout
	d, ok := pull.(pullDeadliner)
	if !ok || timeout <= 0 || !d.SetReadDeadline(time.Now().Add(timeout)) {
		return
	}

	chunk, err := pull.ReadChunk(s.r.cfg.Transfer.ChunkSize)
	switch {
	case len(chunk) > 0:
		_ = s.feed(chunk)
	case errors.Is(err, io.EOF):
	default:
		s.logger.Debug("stream not finished before drain timeout", map[string]any{"error": err.Error()})
	}
}

// ReceivePush drives a reassembler from an event-driven push transport. The
// transport's delivery goroutine invokes the reassembler; this goroutine
// waits for completion, end of stream or cancellation.
func (r *Receiver) ReceivePush(ctx context.Context, info ConnInfo, push transport.PushTransport) *TransferResult {
	s, err := r.begin(types.ProtocolEventStream, info)
	if err != nil {
		return r.Reject(types.ProtocolEventStream, info, err)
	}
	defer s.sampler.Stop()

	done := push.Start(ctx, func(data []byte, end bool) error {
		if end {
			return s.asm.Close()
		}
		return s.feed(data)
	})

	var loopErr error
	select {
	case loopErr = <-done:
	case <-s.completed:
		loopErr = s.awaitEnd(ctx, done)
	case <-ctx.Done():
		loopErr = &transport.Error{Op: transport.OpRead, Err: ctx.Err()}
	}

	ended, complete, samples := s.stop()
	if complete && loopErr != nil {
		s.logger.Warn("stream error after frame completion", map[string]any{"error": loopErr.Error()})
		loopErr = nil
	}
	return s.finish(loopErr, ended, complete, samples)
}

// awaitEnd waits up to the drain timeout for the stream to end after the
// frame completed.
func (s *receiveSession) awaitEnd(ctx context.Context, done <-chan error) error {
	timeout := s.r.cfg.Transfer.DrainTimeout
	if timeout <= 0 {
		return nil
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		s.logger.Debug("stream not finished before drain timeout", nil)
		return nil
	case <-ctx.Done():
		return nil
	}
}

// Reject records a connection that failed before any frame bytes were read.
func (r *Receiver) Reject(protocol types.Protocol, info ConnInfo, err error) *TransferResult {
	meta := types.TransferMeta{
		TransferID: types.NewTransferID(),
		Role:       types.RoleReceiver,
		Protocol:   protocol,
		Scheme:     r.cfg.Transfer.Scheme,
	}
	outcome := DetermineOutcome(err, nil)
	rec := record.Build(record.Input{
		Meta:        meta,
		Peer:        info.Peer,
		Timing:      record.Timing{StartedAt: info.StartedAt, EndedAt: r.cfg.Now(), HandshakeTime: info.HandshakeTime},
		PayloadSize: r.cfg.Transfer.PayloadSize,
		Outcome:     outcome,
	})

	r.cfg.Collector.IncTransferStarted()
	r.cfg.Collector.RecordOutcome(string(outcome.Status))
	r.cfg.Logger.ForTransfer(meta).Error("connection rejected", map[string]any{
		"peer":  info.Peer,
		"error": err.Error(),
	})
	return &TransferResult{Record: rec, Err: err}
}
