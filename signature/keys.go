package signature

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pithecene-io/sigbench/types"
)

// ErrEmptyKey is returned when a key file is empty.
var ErrEmptyKey = errors.New("key file is empty")

// PublicKeyPath returns the public key file for scheme in dir.
func PublicKeyPath(dir string, scheme types.Scheme) string {
	return filepath.Join(dir, string(scheme)+"_public.key")
}

// PrivateKeyPath returns the private key file for scheme in dir.
func PrivateKeyPath(dir string, scheme types.Scheme) string {
	return filepath.Join(dir, string(scheme)+"_private.key")
}

// WriteKeyPair writes a key pair for scheme into dir, creating dir if needed.
// The private key is written with mode 0600.
func WriteKeyPair(dir string, scheme types.Scheme, public, private []byte) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create key directory: %w", err)
	}
	if err := os.WriteFile(PrivateKeyPath(dir, scheme), private, 0o600); err != nil {
		return fmt.Errorf("write private key: %w", err)
	}
	if err := os.WriteFile(PublicKeyPath(dir, scheme), public, 0o644); err != nil {
		return fmt.Errorf("write public key: %w", err)
	}
	return nil
}

// LoadPublicKey reads the public key for scheme from dir.
func LoadPublicKey(dir string, scheme types.Scheme) ([]byte, error) {
	return readKey(PublicKeyPath(dir, scheme))
}

// LoadPrivateKey reads the private key for scheme from dir.
func LoadPrivateKey(dir string, scheme types.Scheme) ([]byte, error) {
	return readKey(PrivateKeyPath(dir, scheme))
}

func readKey(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read key %s: %w", path, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrEmptyKey)
	}
	return data, nil
}

// LoadOrGenerate returns the key pair for p from dir, generating and writing
// a new pair when neither file exists.
func LoadOrGenerate(dir string, p Provider) (public, private []byte, generated bool, err error) {
	public, pubErr := LoadPublicKey(dir, p.Scheme())
	private, privErr := LoadPrivateKey(dir, p.Scheme())
	if pubErr == nil && privErr == nil {
		return public, private, false, nil
	}
	if !errors.Is(pubErr, os.ErrNotExist) || !errors.Is(privErr, os.ErrNotExist) {
		return nil, nil, false, errors.Join(pubErr, privErr)
	}

	public, private, err = p.GenerateKey()
	if err != nil {
		return nil, nil, false, err
	}
	if err := WriteKeyPair(dir, p.Scheme(), public, private); err != nil {
		return nil, nil, false, err
	}
	return public, private, true, nil
}
