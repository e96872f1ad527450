package signature

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"errors"
	"fmt"

	"github.com/pithecene-io/sigbench/types"
)

// RSAKeyBits is the modulus size of generated RSA keys.
const RSAKeyBits = 2048

// RSA signs with RSASSA-PKCS1-v1_5 over SHA-256. Public keys are PKIX DER,
// private keys PKCS#1 DER.
type RSA struct{}

// Scheme implements Provider.
func (RSA) Scheme() types.Scheme {
	return types.SchemeRSA
}

// GenerateKey implements Provider.
func (RSA) GenerateKey() ([]byte, []byte, error) {
	key, err := rsa.GenerateKey(rand.Reader, RSAKeyBits)
	if err != nil {
		return nil, nil, fmt.Errorf("generate rsa key: %w", err)
	}
	pub, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal rsa public key: %w", err)
	}
	return pub, x509.MarshalPKCS1PrivateKey(key), nil
}

// Sign implements Provider.
func (RSA) Sign(private, message []byte) ([]byte, error) {
	key, err := x509.ParsePKCS1PrivateKey(private)
	if err != nil {
		return nil, fmt.Errorf("parse rsa private key: %w", err)
	}
	digest := sha256.Sum256(message)
	sig, err := rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA256, digest[:])
	if err != nil {
		return nil, fmt.Errorf("rsa sign: %w", err)
	}
	return sig, nil
}

// Verify implements Provider.
func (RSA) Verify(public, signature, message []byte) error {
	parsed, err := x509.ParsePKIXPublicKey(public)
	if err != nil {
		return fmt.Errorf("parse rsa public key: %w", err)
	}
	key, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return errors.New("public key is not an RSA key")
	}
	digest := sha256.Sum256(message)
	if err := rsa.VerifyPKCS1v15(key, crypto.SHA256, digest[:], signature); err != nil {
		return fmt.Errorf("rsa verify: %w", err)
	}
	return nil
}
