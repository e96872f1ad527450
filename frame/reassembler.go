package frame

import (
	"encoding/binary"
	"fmt"
	"time"
)

// State is the position of a Reassembler in the frame.
type State int

const (
	// StateAwaitingLength accumulates the 4-byte signature length prefix.
	StateAwaitingLength State = iota
	// StateAwaitingSignature accumulates signature bytes.
	StateAwaitingSignature
	// StateAwaitingPayload accumulates payload bytes.
	StateAwaitingPayload
	// StateDone is terminal.
	StateDone
)

func (s State) String() string {
	switch s {
	case StateAwaitingLength:
		return "awaiting_length"
	case StateAwaitingSignature:
		return "awaiting_signature"
	case StateAwaitingPayload:
		return "awaiting_payload"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// CompletionFunc receives the reassembled frame. firstPayloadAt is the zero
// time when the frame carried no payload bytes.
type CompletionFunc func(signature, payload []byte, firstPayloadAt time.Time)

// Config configures a Reassembler.
type Config struct {
	// PayloadSize is the out-of-band payload length N.
	PayloadSize int
	// MaxSignatureSize bounds the accepted length prefix. Zero means DefaultMaxSignatureSize.
	MaxSignatureSize int
	// Now is the clock used for the first payload timestamp. Defaults to time.Now.
	Now func() time.Time
}

// Reassembler reconstructs one frame from an ordered sequence of chunks of
// arbitrary size. It is owned by a single connection and is not safe for
// concurrent use.
type Reassembler struct {
	payloadSize  int
	maxSigSize   int
	now          func() time.Time
	onComplete   CompletionFunc
	state        State
	lengthPrefix [LengthPrefixSize]byte
	prefixLen    int
	sigLen       int
	signature    []byte
	payload      []byte
	firstAt      time.Time
	err          error
}

// NewReassembler creates a reassembler expecting payloadSize payload bytes.
// onComplete is invoked exactly once, synchronously, on entering StateDone.
func NewReassembler(cfg Config, onComplete CompletionFunc) (*Reassembler, error) {
	if cfg.PayloadSize < 0 {
		return nil, fmt.Errorf("payload size must be >= 0, got %d", cfg.PayloadSize)
	}
	if onComplete == nil {
		return nil, fmt.Errorf("completion callback is required")
	}
	maxSig := cfg.MaxSignatureSize
	if maxSig <= 0 {
		maxSig = DefaultMaxSignatureSize
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Reassembler{
		payloadSize: cfg.PayloadSize,
		maxSigSize:  maxSig,
		now:         now,
		onComplete:  onComplete,
	}, nil
}

// State returns the current state.
func (r *Reassembler) State() State {
	return r.state
}

// Done reports whether the frame is complete.
func (r *Reassembler) Done() bool {
	return r.state == StateDone
}

// Received returns the number of payload bytes held so far.
func (r *Reassembler) Received() int {
	return len(r.payload)
}

// FirstPayloadAt returns when the first payload byte was observed, or the
// zero time if none has been.
func (r *Reassembler) FirstPayloadAt() time.Time {
	return r.firstAt
}

// Feed advances the state machine with one inbound chunk. Surplus bytes past
// a field boundary are consumed by the following state within the same call.
//
// Bytes fed after StateDone yield a KindUnexpectedTrailingData error and are
// not buffered. After a fatal error every call returns that error.
func (r *Reassembler) Feed(chunk []byte) error {
	if r.err != nil {
		return r.err
	}
	if r.state == StateDone {
		if len(chunk) == 0 {
			return nil
		}
		return &FrameError{
			Kind: KindUnexpectedTrailingData,
			Msg:  fmt.Sprintf("%d bytes after frame completion", len(chunk)),
		}
	}

	for {
		switch r.state {
		case StateAwaitingLength:
			n := copy(r.lengthPrefix[r.prefixLen:], chunk)
			r.prefixLen += n
			chunk = chunk[n:]
			if r.prefixLen < LengthPrefixSize {
				return nil
			}
			sigLen := binary.BigEndian.Uint32(r.lengthPrefix[:])
			if uint64(sigLen) > uint64(r.maxSigSize) {
				r.err = &FrameError{
					Kind: KindSignatureTooLarge,
					Msg:  fmt.Sprintf("signature length %d exceeds max %d", sigLen, r.maxSigSize),
				}
				return r.err
			}
			r.sigLen = int(sigLen)
			r.signature = make([]byte, 0, r.sigLen)
			r.state = StateAwaitingSignature

		case StateAwaitingSignature:
			n := min(r.sigLen-len(r.signature), len(chunk))
			r.signature = append(r.signature, chunk[:n]...)
			chunk = chunk[n:]
			if len(r.signature) < r.sigLen {
				return nil
			}
			r.payload = make([]byte, 0, r.payloadSize)
			r.state = StateAwaitingPayload

		case StateAwaitingPayload:
			n := min(r.payloadSize-len(r.payload), len(chunk))
			if n > 0 && r.firstAt.IsZero() {
				r.firstAt = r.now()
			}
			r.payload = append(r.payload, chunk[:n]...)
			chunk = chunk[n:]
			if len(r.payload) < r.payloadSize {
				return nil
			}
			r.state = StateDone
			r.onComplete(r.signature, r.payload, r.firstAt)
			if len(chunk) > 0 {
				return &FrameError{
					Kind: KindUnexpectedTrailingData,
					Msg:  fmt.Sprintf("%d bytes after frame completion", len(chunk)),
				}
			}
			return nil

		default:
			return nil
		}
	}
}

// Close signals the end of the inbound stream. It returns a
// KindIncompleteTransfer error if the frame was not completed.
func (r *Reassembler) Close() error {
	if r.state == StateDone {
		return nil
	}
	if r.err != nil {
		return r.err
	}
	return &FrameError{
		Kind: KindIncompleteTransfer,
		Msg:  r.progress(),
	}
}

func (r *Reassembler) progress() string {
	switch r.state {
	case StateAwaitingLength:
		return fmt.Sprintf("stream ended in %s after %d of %d prefix bytes", r.state, r.prefixLen, LengthPrefixSize)
	case StateAwaitingSignature:
		return fmt.Sprintf("stream ended in %s after %d of %d signature bytes", r.state, len(r.signature), r.sigLen)
	default:
		return fmt.Sprintf("stream ended in %s after %d of %d payload bytes", r.state, len(r.payload), r.payloadSize)
	}
}
