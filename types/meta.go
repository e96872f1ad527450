// Package types defines core domain types for sigbench.
//
//nolint:revive // types is a common Go package naming convention
package types

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Protocol identifies the transport binding of a transfer.
type Protocol string

const (
	// ProtocolBlockingStream is TLS over TCP, consumed with blocking reads.
	ProtocolBlockingStream Protocol = "blocking_stream"
	// ProtocolEventStream is QUIC, consumed through event delivery.
	ProtocolEventStream Protocol = "event_stream"
)

// ParseProtocol accepts the canonical names and the short aliases tcp/quic.
func ParseProtocol(s string) (Protocol, error) {
	switch s {
	case "tcp", string(ProtocolBlockingStream):
		return ProtocolBlockingStream, nil
	case "quic", string(ProtocolEventStream):
		return ProtocolEventStream, nil
	default:
		return "", fmt.Errorf("invalid protocol %q (must be tcp or quic)", s)
	}
}

// Short returns the transport name used in file names and partitions.
func (p Protocol) Short() string {
	switch p {
	case ProtocolBlockingStream:
		return "tcp"
	case ProtocolEventStream:
		return "quic"
	default:
		return string(p)
	}
}

// Scheme identifies a signature scheme.
type Scheme string

const (
	// SchemeRSA is RSA-2048 with PKCS#1 v1.5 over SHA-256.
	SchemeRSA Scheme = "rsa"
	// SchemeMLDSA44 is ML-DSA-44.
	SchemeMLDSA44 Scheme = "mldsa44"
)

// ParseScheme parses a scheme name. "mldsa" and "ml-dsa" alias ML-DSA-44.
func ParseScheme(s string) (Scheme, error) {
	switch s {
	case "rsa":
		return SchemeRSA, nil
	case "mldsa44", "mldsa", "ml-dsa":
		return SchemeMLDSA44, nil
	default:
		return "", fmt.Errorf("invalid scheme %q (must be rsa or mldsa44)", s)
	}
}

// Role is the side of a transfer a record describes.
type Role string

const (
	RoleSender   Role = "sender"
	RoleReceiver Role = "receiver"
)

// TransferMeta identifies one transfer attempt.
type TransferMeta struct {
	// TransferID is unique per transfer attempt and side.
	TransferID string
	Role       Role
	Protocol   Protocol
	Scheme     Scheme
}

// NewTransferID returns a fresh random transfer identifier.
func NewTransferID() string {
	return uuid.NewString()
}

// Validate checks that all identity fields are set.
func (m *TransferMeta) Validate() error {
	if m.TransferID == "" {
		return errors.New("transfer_id must be non-empty")
	}
	switch m.Role {
	case RoleSender, RoleReceiver:
	default:
		return fmt.Errorf("invalid role %q", m.Role)
	}
	if _, err := ParseProtocol(string(m.Protocol)); err != nil {
		return err
	}
	if _, err := ParseScheme(string(m.Scheme)); err != nil {
		return err
	}
	return nil
}
