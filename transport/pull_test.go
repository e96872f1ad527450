package transport

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"testing/iotest"
)

func readAll(t *testing.T, p PullTransport, max int) []byte {
	t.Helper()
	var out []byte
	for {
		chunk, err := p.ReadChunk(max)
		if errors.Is(err, io.EOF) {
			return out
		}
		if err != nil {
			t.Fatalf("ReadChunk failed: %v", err)
		}
		if len(chunk) == 0 || len(chunk) > max {
			t.Fatalf("chunk length = %d, want 1..%d", len(chunk), max)
		}
		out = append(out, chunk...)
	}
}

func TestStreamPull_Fragmentation(t *testing.T) {
	data := bytes.Repeat([]byte("0123456789"), 500)

	tests := []struct {
		name string
		r    io.Reader
		max  int
	}{
		{"whole reader", bytes.NewReader(data), 4096},
		{"one byte reader", iotest.OneByteReader(bytes.NewReader(data)), 4096},
		{"half reader", iotest.HalfReader(bytes.NewReader(data)), 100},
		{"data with eof", iotest.DataErrReader(bytes.NewReader(data)), 333},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := readAll(t, NewStreamPull(tt.r), tt.max)
			if !bytes.Equal(got, data) {
				t.Errorf("read %d bytes, want %d", len(got), len(data))
			}
		})
	}
}

func TestStreamPull_EOFIsSticky(t *testing.T) {
	p := NewStreamPull(bytes.NewReader(nil))

	for i := 0; i < 2; i++ {
		if _, err := p.ReadChunk(10); !errors.Is(err, io.EOF) {
			t.Errorf("ReadChunk #%d error = %v, want io.EOF", i, err)
		}
	}
}

func TestStreamPull_ReadError(t *testing.T) {
	boom := errors.New("connection reset")
	p := NewStreamPull(io.MultiReader(bytes.NewReader([]byte("ab")), iotest.ErrReader(boom)))

	chunk, err := p.ReadChunk(10)
	if err != nil {
		t.Fatalf("first ReadChunk failed: %v", err)
	}
	if string(chunk) != "ab" {
		t.Errorf("chunk = %q, want %q", chunk, "ab")
	}

	_, err = p.ReadChunk(10)
	if !IsTransportError(err) {
		t.Fatalf("error = %v, want transport error", err)
	}
	if !errors.Is(err, boom) {
		t.Errorf("error does not wrap cause: %v", err)
	}
}
