package runtime

import (
	"context"
	"testing"
	"time"

	"github.com/pithecene-io/sigbench/signature"
	"github.com/pithecene-io/sigbench/types"
)

type fixedStats struct{}

func (fixedStats) CPUPercent() (float64, error) { return 5, nil }
func (fixedStats) RSSBytes() (uint64, error)    { return 32 * 1024 * 1024, nil }

type testKeys struct {
	provider signature.Provider
	public   []byte
	private  []byte
}

func newTestKeys(t *testing.T) testKeys {
	t.Helper()
	p := signature.MLDSA44{}
	pub, priv, err := p.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}
	return testKeys{provider: p, public: pub, private: priv}
}

func testTransferConfig(protocol types.Protocol, payloadSize int) TransferConfig {
	cfg := DefaultTransferConfig(protocol, types.SchemeMLDSA44)
	cfg.PayloadSize = payloadSize
	cfg.SampleInterval = 5 * time.Millisecond
	return cfg
}

func contextWithTimeout(t *testing.T, d time.Duration) (context.Context, context.CancelFunc) {
	t.Helper()
	return context.WithTimeout(t.Context(), d)
}
