// Package signature wraps the signature schemes under benchmark and
// classifies verification outcomes.
package signature

import (
	"fmt"

	"github.com/pithecene-io/sigbench/types"
)

// Provider signs and verifies messages under one scheme. Keys are opaque
// byte encodings owned by the provider.
type Provider interface {
	Scheme() types.Scheme
	GenerateKey() (public, private []byte, err error)
	Sign(private, message []byte) ([]byte, error)
	// Verify returns nil when signature is valid for message under public.
	Verify(public, signature, message []byte) error
}

// ForScheme returns the provider for scheme.
func ForScheme(scheme types.Scheme) (Provider, error) {
	switch scheme {
	case types.SchemeRSA:
		return RSA{}, nil
	case types.SchemeMLDSA44:
		return MLDSA44{}, nil
	default:
		return nil, fmt.Errorf("unsupported signature scheme %q", scheme)
	}
}
