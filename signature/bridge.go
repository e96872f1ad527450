package signature

import (
	"fmt"
	"time"
)

// Status is the outcome of one verification.
type Status string

const (
	// StatusValid means the signature verified.
	StatusValid Status = "valid"
	// StatusInvalid means the provider rejected the signature.
	StatusInvalid Status = "invalid"
	// StatusError means verification could not be attempted.
	StatusError Status = "error"
)

// Result is the classified verification outcome.
type Result struct {
	Status   Status        `json:"status" msgpack:"status"`
	Detail   string        `json:"detail,omitempty" msgpack:"detail,omitempty"`
	Duration time.Duration `json:"duration_ns" msgpack:"duration_ns"`
}

// Valid reports whether the signature verified.
func (r Result) Valid() bool {
	return r.Status == StatusValid
}

// Bridge invokes a Provider once per completed frame and classifies the
// outcome. It never retries.
type Bridge struct {
	provider Provider
	now      func() time.Time
}

// NewBridge creates a bridge over provider. provider may be nil, in which
// case every verification yields StatusError.
func NewBridge(provider Provider) *Bridge {
	return &Bridge{provider: provider, now: time.Now}
}

// Verify checks signature over payload under publicKey.
func (b *Bridge) Verify(publicKey, signature, payload []byte) Result {
	if b == nil || b.provider == nil {
		return Result{Status: StatusError, Detail: "no signature provider configured"}
	}
	if len(publicKey) == 0 {
		return Result{Status: StatusError, Detail: fmt.Sprintf("no %s public key available", b.provider.Scheme())}
	}

	start := b.now()
	err := b.provider.Verify(publicKey, signature, payload)
	elapsed := b.now().Sub(start)

	if err != nil {
		return Result{Status: StatusInvalid, Detail: err.Error(), Duration: elapsed}
	}
	return Result{Status: StatusValid, Duration: elapsed}
}
