package frame

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func TestEncoder_ChunkBounds(t *testing.T) {
	tests := []struct {
		name       string
		chunkSize  int
		sigLen     int
		payloadLen int
		wantChunks int
	}{
		{"exact multiple", 4, 4, 8, 4},
		{"remainder", 4096, 256, 10000, 3},
		{"single chunk", 4096, 10, 10, 1},
		{"empty signature and payload", 4096, 0, 0, 1},
		{"one byte chunks", 1, 2, 3, 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc, err := NewEncoder(tt.chunkSize)
			if err != nil {
				t.Fatalf("NewEncoder failed: %v", err)
			}
			sig := bytes.Repeat([]byte{0xAB}, tt.sigLen)
			payload := bytes.Repeat([]byte{'x'}, tt.payloadLen)

			chunks := enc.Encode(sig, payload)
			if len(chunks) != tt.wantChunks {
				t.Fatalf("len(chunks) = %d, want %d", len(chunks), tt.wantChunks)
			}

			var joined []byte
			for i, c := range chunks {
				if len(c) == 0 {
					t.Errorf("chunk %d is empty", i)
				}
				if len(c) > tt.chunkSize {
					t.Errorf("chunk %d size = %d, want <= %d", i, len(c), tt.chunkSize)
				}
				joined = append(joined, c...)
			}
			if !bytes.Equal(joined, Marshal(sig, payload)) {
				t.Error("concatenated chunks differ from Marshal output")
			}
			if len(joined) != WireSize(tt.sigLen, tt.payloadLen) {
				t.Errorf("wire size = %d, want %d", len(joined), WireSize(tt.sigLen, tt.payloadLen))
			}
		})
	}
}

func TestMarshal_Layout(t *testing.T) {
	sig := []byte{1, 2, 3}
	payload := []byte("hello")

	wire := Marshal(sig, payload)

	if got := binary.BigEndian.Uint32(wire[:LengthPrefixSize]); got != 3 {
		t.Errorf("length prefix = %d, want 3", got)
	}
	if !bytes.Equal(wire[4:7], sig) {
		t.Errorf("signature = %v, want %v", wire[4:7], sig)
	}
	if string(wire[7:]) != "hello" {
		t.Errorf("payload = %q, want %q", wire[7:], "hello")
	}
}

func TestEncoder_Terminated(t *testing.T) {
	enc, err := NewEncoder(DefaultChunkSize)
	if err != nil {
		t.Fatalf("NewEncoder failed: %v", err)
	}

	chunks := enc.EncodeTerminated([]byte("sig"), []byte("payload"))
	if len(chunks) != 2 {
		t.Fatalf("len(chunks) = %d, want 2", len(chunks))
	}
	if len(chunks[1]) != 0 {
		t.Errorf("final chunk length = %d, want 0", len(chunks[1]))
	}
}

func TestEncoder_ChunksDoNotAlias(t *testing.T) {
	enc, err := NewEncoder(2)
	if err != nil {
		t.Fatalf("NewEncoder failed: %v", err)
	}

	chunks := enc.Encode([]byte{}, []byte("abcd"))
	chunks[1] = append(chunks[1], 'Z')
	if chunks[2][0] != 'a' {
		t.Errorf("append to chunk 1 overwrote chunk 2: %q", chunks[2])
	}
}

func TestNewEncoder_InvalidChunkSize(t *testing.T) {
	for _, size := range []int{0, -1} {
		if _, err := NewEncoder(size); err == nil {
			t.Errorf("NewEncoder(%d) expected error", size)
		}
	}
}
