// Package frame implements the signed-payload wire format.
//
// One frame is sent per connection:
//
//	uint32_be(len(signature)) || signature || payload
//
// The payload length is agreed out of band and is not prefixed.
package frame

import (
	"encoding/binary"
	"fmt"
)

const (
	// LengthPrefixSize is the size of the signature length prefix in bytes.
	LengthPrefixSize = 4
	// DefaultChunkSize is the default maximum chunk size.
	DefaultChunkSize = 4096
	// DefaultPayloadSize is the default out-of-band payload size (5 MiB).
	DefaultPayloadSize = 5 * 1024 * 1024
	// DefaultMaxSignatureSize bounds the signature length a receiver accepts.
	DefaultMaxSignatureSize = 1 << 20
)

// Frame is one reassembled transfer unit.
type Frame struct {
	Signature []byte
	Payload   []byte
}

// WireSize returns the number of bytes a frame occupies on the wire.
func WireSize(signatureLen, payloadLen int) int {
	return LengthPrefixSize + signatureLen + payloadLen
}

// Marshal returns the contiguous wire representation of a frame.
func Marshal(signature, payload []byte) []byte {
	buf := make([]byte, WireSize(len(signature), len(payload)))
	binary.BigEndian.PutUint32(buf[:LengthPrefixSize], uint32(len(signature)))
	n := copy(buf[LengthPrefixSize:], signature)
	copy(buf[LengthPrefixSize+n:], payload)
	return buf
}

// Encoder slices frames into bounded chunks.
type Encoder struct {
	chunkSize int
}

// NewEncoder creates an encoder with the given maximum chunk size.
func NewEncoder(chunkSize int) (*Encoder, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be > 0, got %d", chunkSize)
	}
	return &Encoder{chunkSize: chunkSize}, nil
}

// ChunkSize returns the configured maximum chunk size.
func (e *Encoder) ChunkSize() int {
	return e.chunkSize
}

// Encode returns the wire bytes of one frame split into ordered, non-empty
// chunks of at most ChunkSize bytes. Chunks share one backing array.
func (e *Encoder) Encode(signature, payload []byte) [][]byte {
	wire := Marshal(signature, payload)
	chunks := make([][]byte, 0, (len(wire)+e.chunkSize-1)/e.chunkSize)
	for off := 0; off < len(wire); off += e.chunkSize {
		end := min(off+e.chunkSize, len(wire))
		chunks = append(chunks, wire[off:end:end])
	}
	return chunks
}

// EncodeTerminated is Encode followed by one empty chunk, the end-of-stream
// marker used by push transports.
func (e *Encoder) EncodeTerminated(signature, payload []byte) [][]byte {
	return append(e.Encode(signature, payload), []byte{})
}
