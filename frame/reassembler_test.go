package frame

import (
	"bytes"
	"math/rand/v2"
	"testing"
	"time"
)

type completion struct {
	calls     int
	signature []byte
	payload   []byte
	firstAt   time.Time
}

func (c *completion) record(signature, payload []byte, firstAt time.Time) {
	c.calls++
	c.signature = signature
	c.payload = payload
	c.firstAt = firstAt
}

func newTestReassembler(t *testing.T, payloadSize int, c *completion) *Reassembler {
	t.Helper()
	r, err := NewReassembler(Config{PayloadSize: payloadSize}, c.record)
	if err != nil {
		t.Fatalf("NewReassembler failed: %v", err)
	}
	return r
}

// partition splits wire into chunks whose sizes are produced by next.
func partition(wire []byte, next func() int) [][]byte {
	var chunks [][]byte
	for len(wire) > 0 {
		n := min(max(next(), 1), len(wire))
		chunks = append(chunks, wire[:n])
		wire = wire[n:]
	}
	return chunks
}

func TestReassembler_ChunkBoundaryInvariance(t *testing.T) {
	sig := make([]byte, 300)
	for i := range sig {
		sig[i] = byte(i)
	}
	payload := bytes.Repeat([]byte("payload-"), 1000)
	wire := Marshal(sig, payload)
	rng := rand.New(rand.NewPCG(1, 2))

	tests := []struct {
		name   string
		chunks [][]byte
	}{
		{"one byte chunks", partition(wire, func() int { return 1 })},
		{"one giant chunk", [][]byte{wire}},
		{"prefix split", partition(wire, func() int { return 3 })},
		{"default chunk size", partition(wire, func() int { return DefaultChunkSize })},
		{"random partition", partition(wire, func() int { return rng.IntN(700) + 1 })},
		{"random small partition", partition(wire, func() int { return rng.IntN(7) + 1 })},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c completion
			r := newTestReassembler(t, len(payload), &c)

			for i, chunk := range tt.chunks {
				if err := r.Feed(chunk); err != nil {
					t.Fatalf("Feed chunk %d failed: %v", i, err)
				}
			}
			if err := r.Close(); err != nil {
				t.Fatalf("Close failed: %v", err)
			}

			if c.calls != 1 {
				t.Fatalf("completion calls = %d, want 1", c.calls)
			}
			if !bytes.Equal(c.signature, sig) {
				t.Error("signature mismatch")
			}
			if !bytes.Equal(c.payload, payload) {
				t.Error("payload mismatch")
			}
			if r.State() != StateDone {
				t.Errorf("State = %v, want %v", r.State(), StateDone)
			}
		})
	}
}

func TestReassembler_SurplusCarryThrough(t *testing.T) {
	sig := []byte("signature")
	payload := []byte("payload")
	wire := Marshal(sig, payload)

	var c completion
	r := newTestReassembler(t, len(payload), &c)

	// First chunk completes the prefix and carries two signature bytes.
	if err := r.Feed(wire[:6]); err != nil {
		t.Fatalf("Feed failed: %v", err)
	}
	if r.State() != StateAwaitingSignature {
		t.Errorf("State = %v, want %v", r.State(), StateAwaitingSignature)
	}

	// Second chunk completes the signature and the payload in one delivery.
	if err := r.Feed(wire[6:]); err != nil {
		t.Fatalf("Feed failed: %v", err)
	}
	if c.calls != 1 {
		t.Fatalf("completion calls = %d, want 1", c.calls)
	}
	if string(c.signature) != "signature" {
		t.Errorf("signature = %q, want %q", c.signature, "signature")
	}
	if string(c.payload) != "payload" {
		t.Errorf("payload = %q, want %q", c.payload, "payload")
	}
}

func TestReassembler_LargeFrame(t *testing.T) {
	sig := make([]byte, 256)
	for i := range sig {
		sig[i] = byte(i)
	}
	payload := make([]byte, DefaultPayloadSize)
	for i := range payload {
		payload[i] = byte(i * 7)
	}
	wire := Marshal(sig, payload)

	var c completion
	r := newTestReassembler(t, DefaultPayloadSize, &c)

	if err := r.Feed(wire[:2]); err != nil {
		t.Fatalf("Feed failed: %v", err)
	}
	if r.State() != StateAwaitingLength {
		t.Errorf("State = %v, want %v", r.State(), StateAwaitingLength)
	}
	for off := 2; off < len(wire); off += DefaultChunkSize {
		if err := r.Feed(wire[off:min(off+DefaultChunkSize, len(wire))]); err != nil {
			t.Fatalf("Feed at offset %d failed: %v", off, err)
		}
	}

	if c.calls != 1 {
		t.Fatalf("completion calls = %d, want 1", c.calls)
	}
	if !bytes.Equal(c.signature, sig) {
		t.Errorf("signature differs from sent (len %d, want %d)", len(c.signature), len(sig))
	}
	if !bytes.Equal(c.payload, payload) {
		t.Errorf("payload differs from sent (len %d, want %d)", len(c.payload), len(payload))
	}
	if c.firstAt.IsZero() {
		t.Error("first payload timestamp not recorded")
	}
}

func TestReassembler_IncompleteTransfer(t *testing.T) {
	sig := []byte("sig")
	payload := bytes.Repeat([]byte{'x'}, 100)
	wire := Marshal(sig, payload)

	tests := []struct {
		name      string
		fed       int
		wantState State
	}{
		{"nothing", 0, StateAwaitingLength},
		{"partial prefix", 2, StateAwaitingLength},
		{"partial signature", 5, StateAwaitingSignature},
		{"payload minus one", len(wire) - 1, StateAwaitingPayload},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c completion
			r := newTestReassembler(t, len(payload), &c)

			if err := r.Feed(wire[:tt.fed]); err != nil {
				t.Fatalf("Feed failed: %v", err)
			}
			if r.State() != tt.wantState {
				t.Errorf("State = %v, want %v", r.State(), tt.wantState)
			}

			err := r.Close()
			if !IsKind(err, KindIncompleteTransfer) {
				t.Fatalf("Close error = %v, want incomplete transfer", err)
			}
			if !IsFatalFrameError(err) {
				t.Error("incomplete transfer should be fatal")
			}
			if c.calls != 0 {
				t.Errorf("completion calls = %d, want 0", c.calls)
			}
		})
	}
}

func TestReassembler_TrailingData(t *testing.T) {
	payload := []byte("abc")
	wire := Marshal([]byte("s"), payload)

	t.Run("same chunk", func(t *testing.T) {
		var c completion
		r := newTestReassembler(t, len(payload), &c)

		err := r.Feed(append(append([]byte{}, wire...), "extra"...))
		if !IsKind(err, KindUnexpectedTrailingData) {
			t.Fatalf("Feed error = %v, want trailing data", err)
		}
		if IsFatalFrameError(err) {
			t.Error("trailing data should not be fatal")
		}
		if c.calls != 1 {
			t.Errorf("completion calls = %d, want 1", c.calls)
		}
		if string(c.payload) != "abc" {
			t.Errorf("payload = %q, want %q", c.payload, "abc")
		}
	})

	t.Run("later chunk", func(t *testing.T) {
		var c completion
		r := newTestReassembler(t, len(payload), &c)

		if err := r.Feed(wire); err != nil {
			t.Fatalf("Feed failed: %v", err)
		}
		err := r.Feed([]byte("more"))
		if !IsKind(err, KindUnexpectedTrailingData) {
			t.Fatalf("Feed error = %v, want trailing data", err)
		}
		if r.Received() != len(payload) {
			t.Errorf("Received = %d, want %d", r.Received(), len(payload))
		}
		if string(c.payload) != "abc" {
			t.Errorf("payload = %q, want %q", c.payload, "abc")
		}
		if c.calls != 1 {
			t.Errorf("completion calls = %d, want 1", c.calls)
		}
		if err := r.Close(); err != nil {
			t.Errorf("Close after Done = %v, want nil", err)
		}
	})

	t.Run("empty chunk after done", func(t *testing.T) {
		var c completion
		r := newTestReassembler(t, len(payload), &c)

		if err := r.Feed(wire); err != nil {
			t.Fatalf("Feed failed: %v", err)
		}
		if err := r.Feed(nil); err != nil {
			t.Errorf("Feed(nil) after Done = %v, want nil", err)
		}
	})
}

func TestReassembler_ZeroLengths(t *testing.T) {
	tests := []struct {
		name    string
		sig     []byte
		payload []byte
	}{
		{"empty signature", nil, []byte("data")},
		{"empty payload", []byte("sig"), nil},
		{"both empty", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c completion
			r := newTestReassembler(t, len(tt.payload), &c)

			if err := r.Feed(Marshal(tt.sig, tt.payload)); err != nil {
				t.Fatalf("Feed failed: %v", err)
			}
			if c.calls != 1 {
				t.Fatalf("completion calls = %d, want 1", c.calls)
			}
			if len(c.signature) != len(tt.sig) {
				t.Errorf("len(signature) = %d, want %d", len(c.signature), len(tt.sig))
			}
			if len(c.payload) != len(tt.payload) {
				t.Errorf("len(payload) = %d, want %d", len(c.payload), len(tt.payload))
			}
			if len(tt.payload) == 0 && !c.firstAt.IsZero() {
				t.Error("first payload timestamp set without payload bytes")
			}
		})
	}
}

func TestReassembler_FirstPayloadTimestamp(t *testing.T) {
	base := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	tick := 0
	clock := func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	var c completion
	r, err := NewReassembler(Config{PayloadSize: 4, Now: clock}, c.record)
	if err != nil {
		t.Fatalf("NewReassembler failed: %v", err)
	}

	wire := Marshal([]byte("s"), []byte("abcd"))
	// Prefix and signature only: no payload byte yet.
	if err := r.Feed(wire[:5]); err != nil {
		t.Fatalf("Feed failed: %v", err)
	}
	if !r.FirstPayloadAt().IsZero() {
		t.Error("timestamp recorded before any payload byte")
	}
	for _, b := range wire[5:] {
		if err := r.Feed([]byte{b}); err != nil {
			t.Fatalf("Feed failed: %v", err)
		}
	}

	want := base.Add(time.Second)
	if !c.firstAt.Equal(want) {
		t.Errorf("firstAt = %v, want %v", c.firstAt, want)
	}
	if tick != 1 {
		t.Errorf("clock calls = %d, want 1", tick)
	}
}

func TestReassembler_SignatureTooLarge(t *testing.T) {
	var c completion
	r, err := NewReassembler(Config{PayloadSize: 10, MaxSignatureSize: 16}, c.record)
	if err != nil {
		t.Fatalf("NewReassembler failed: %v", err)
	}

	wire := Marshal(make([]byte, 17), make([]byte, 10))
	err = r.Feed(wire)
	if !IsKind(err, KindSignatureTooLarge) {
		t.Fatalf("Feed error = %v, want signature too large", err)
	}
	if !IsFatalFrameError(err) {
		t.Error("signature too large should be fatal")
	}
	if err := r.Feed([]byte{1}); !IsKind(err, KindSignatureTooLarge) {
		t.Errorf("subsequent Feed error = %v, want sticky error", err)
	}
	if err := r.Close(); !IsKind(err, KindSignatureTooLarge) {
		t.Errorf("Close error = %v, want sticky error", err)
	}
	if c.calls != 0 {
		t.Errorf("completion calls = %d, want 0", c.calls)
	}
}

func TestNewReassembler_Validation(t *testing.T) {
	noop := func([]byte, []byte, time.Time) {}

	if _, err := NewReassembler(Config{PayloadSize: -1}, noop); err == nil {
		t.Error("expected error for negative payload size")
	}
	if _, err := NewReassembler(Config{PayloadSize: 1}, nil); err == nil {
		t.Error("expected error for nil callback")
	}
}

func TestFrameError_Message(t *testing.T) {
	err := &FrameError{Kind: KindIncompleteTransfer, Msg: "stream ended"}
	if got := err.Error(); got != "incomplete_transfer: stream ended" {
		t.Errorf("Error() = %q", got)
	}
}
