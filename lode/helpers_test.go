package lode

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/justapithecus/lode/lode"

	"github.com/pithecene-io/sigbench/record"
	"github.com/pithecene-io/sigbench/signature"
	"github.com/pithecene-io/sigbench/types"
)

// sharedFactory returns a StoreFactory that always returns the given store.
// This allows write and read datasets to share the same in-memory state.
func sharedFactory(store lode.Store) lode.StoreFactory {
	return func() (lode.Store, error) { return store, nil }
}

// FailingStore is a lode.Store that returns configurable errors.
type FailingStore struct {
	PutErr   error
	PutCalls int
	PutPaths []string
}

func (s *FailingStore) Put(_ context.Context, path string, _ io.Reader) error {
	s.PutCalls++
	s.PutPaths = append(s.PutPaths, path)
	return s.PutErr
}

func (s *FailingStore) Get(_ context.Context, _ string) (io.ReadCloser, error) {
	return nil, errors.New("not found")
}

func (s *FailingStore) Exists(_ context.Context, _ string) (bool, error) {
	return false, nil
}

func (s *FailingStore) List(_ context.Context, _ string) ([]string, error) {
	return nil, nil
}

func (s *FailingStore) Delete(_ context.Context, _ string) error {
	return nil
}

func (s *FailingStore) ReadRange(_ context.Context, _ string, _, _ int64) ([]byte, error) {
	return nil, errors.New("not implemented")
}

func (s *FailingStore) ReaderAt(_ context.Context, _ string) (io.ReaderAt, error) {
	return nil, errors.New("not implemented")
}

var _ lode.Store = (*FailingStore)(nil)

func newTestRecord(id string, role types.Role, protocol types.Protocol) *record.TransferRecord {
	latency := 1500 * time.Microsecond
	return &record.TransferRecord{
		TransferID:       id,
		Role:             role,
		Protocol:         protocol,
		Scheme:           types.SchemeMLDSA44,
		Peer:             "127.0.0.1:50000",
		StartedAt:        time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC),
		TotalBytes:       5242880,
		SignatureSize:    2420,
		PayloadSize:      5242880,
		ConnectionTime:   2 * time.Second,
		FirstDataLatency: &latency,
		HandshakeTime:    3 * time.Millisecond,
		VerifyTime:       time.Millisecond,
		ThroughputMBps:   2.5,
		Samples: []record.SampleRecord{
			{ElapsedSeconds: 0.1, CPUPercent: 10, MemoryMB: 30, TotalBytes: 1048576, ThroughputMBps: 10},
			{ElapsedSeconds: 0.2, CPUPercent: 20, MemoryMB: 32, TotalBytes: 2097152, ThroughputMBps: 10},
			{ElapsedSeconds: 0.3, CPUPercent: 15, MemoryMB: 31, TotalBytes: 5242880, ThroughputMBps: 30},
		},
		Verification: &signature.Result{Status: signature.StatusValid, Duration: time.Millisecond},
		Outcome:      types.TransferOutcome{Status: types.OutcomeSuccess, Message: "signature verified"},
	}
}
