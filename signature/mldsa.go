package signature

import (
	"errors"
	"fmt"

	"github.com/cloudflare/circl/sign"
	"github.com/cloudflare/circl/sign/mldsa/mldsa44"

	"github.com/pithecene-io/sigbench/types"
)

// ErrInvalidSignature is returned when a signature does not verify.
var ErrInvalidSignature = errors.New("signature verification failed")

// MLDSA44 signs with ML-DSA-44 (FIPS 204). Keys use the packed encodings
// of the scheme.
type MLDSA44 struct{}

func (MLDSA44) scheme() sign.Scheme {
	return mldsa44.Scheme()
}

// Scheme implements Provider.
func (MLDSA44) Scheme() types.Scheme {
	return types.SchemeMLDSA44
}

// GenerateKey implements Provider.
func (m MLDSA44) GenerateKey() ([]byte, []byte, error) {
	pk, sk, err := m.scheme().GenerateKey()
	if err != nil {
		return nil, nil, fmt.Errorf("generate ml-dsa-44 key: %w", err)
	}
	pub, err := pk.MarshalBinary()
	if err != nil {
		return nil, nil, fmt.Errorf("marshal ml-dsa-44 public key: %w", err)
	}
	priv, err := sk.MarshalBinary()
	if err != nil {
		return nil, nil, fmt.Errorf("marshal ml-dsa-44 private key: %w", err)
	}
	return pub, priv, nil
}

// Sign implements Provider.
func (m MLDSA44) Sign(private, message []byte) ([]byte, error) {
	sk, err := m.scheme().UnmarshalBinaryPrivateKey(private)
	if err != nil {
		return nil, fmt.Errorf("parse ml-dsa-44 private key: %w", err)
	}
	return m.scheme().Sign(sk, message, nil), nil
}

// Verify implements Provider.
func (m MLDSA44) Verify(public, signature, message []byte) error {
	pk, err := m.scheme().UnmarshalBinaryPublicKey(public)
	if err != nil {
		return fmt.Errorf("parse ml-dsa-44 public key: %w", err)
	}
	if len(signature) != m.scheme().SignatureSize() {
		return fmt.Errorf("ml-dsa-44 signature is %d bytes, want %d: %w",
			len(signature), m.scheme().SignatureSize(), ErrInvalidSignature)
	}
	if !m.scheme().Verify(pk, message, signature, nil) {
		return ErrInvalidSignature
	}
	return nil
}
