package runtime

import (
	"errors"
	"fmt"
	"time"

	"github.com/pithecene-io/sigbench/frame"
	"github.com/pithecene-io/sigbench/sampler"
	"github.com/pithecene-io/sigbench/types"
)

// Defaults for TransferConfig.
const (
	DefaultDrainTimeout = 2 * time.Second
	DefaultCloseTimeout = 5 * time.Second
)

// TransferConfig holds the parameters both sides of a transfer agree on.
type TransferConfig struct {
	Protocol types.Protocol
	Scheme   types.Scheme
	// PayloadSize is the out-of-band payload length.
	PayloadSize int
	// ChunkSize bounds sender writes and receiver reads.
	ChunkSize int
	// MaxSignatureSize bounds the accepted signature length prefix.
	MaxSignatureSize int
	// SampleInterval is the resource sampler period.
	SampleInterval time.Duration
	// DrainTimeout bounds how long a receiver waits for end of stream after
	// the frame completed.
	DrainTimeout time.Duration
	// CloseTimeout bounds how long a sender waits for the receiver to close.
	CloseTimeout time.Duration
}

// DefaultTransferConfig returns the benchmark defaults for protocol and scheme.
func DefaultTransferConfig(protocol types.Protocol, scheme types.Scheme) TransferConfig {
	return TransferConfig{
		Protocol:         protocol,
		Scheme:           scheme,
		PayloadSize:      frame.DefaultPayloadSize,
		ChunkSize:        frame.DefaultChunkSize,
		MaxSignatureSize: frame.DefaultMaxSignatureSize,
		SampleInterval:   sampler.DefaultInterval,
		DrainTimeout:     DefaultDrainTimeout,
		CloseTimeout:     DefaultCloseTimeout,
	}
}

// Validate checks the configuration.
func (c *TransferConfig) Validate() error {
	if _, err := types.ParseProtocol(string(c.Protocol)); err != nil {
		return err
	}
	if _, err := types.ParseScheme(string(c.Scheme)); err != nil {
		return err
	}
	if c.PayloadSize < 0 {
		return fmt.Errorf("payload_size must be >= 0, got %d", c.PayloadSize)
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunk_size must be > 0, got %d", c.ChunkSize)
	}
	if c.MaxSignatureSize < 0 {
		return errors.New("max_signature_size must be >= 0")
	}
	if c.SampleInterval < 0 || c.DrainTimeout < 0 || c.CloseTimeout < 0 {
		return errors.New("intervals and timeouts must be >= 0")
	}
	return nil
}

// GeneratePayload returns the deterministic benchmark payload of size n.
func GeneratePayload(n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i % 256)
	}
	return data
}

// ConnInfo describes an established connection.
type ConnInfo struct {
	Peer string
	// StartedAt is when the connection was accepted or the dial began.
	StartedAt time.Time
	// HandshakeTime is the measured TLS handshake duration, zero if unknown.
	HandshakeTime time.Duration
}
