// Package lode persists transfer records to a Lode dataset.
//
// Records are Hive-partitioned by protocol, scheme, day, role and
// record_kind. Each transfer is written as one "transfer" record plus one
// "sample" record per sampler observation.
package lode

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/pithecene-io/sigbench/record"
)

// DefaultDataset is the dataset ID used when none is configured.
const DefaultDataset = "sigbench"

// partitionKeys is the Hive layout shared by the write and read paths.
var partitionKeys = []string{"protocol", "scheme", "day", "role", "record_kind"}

// DeriveDay computes the partition day from a transfer start time.
// Format: YYYY-MM-DD in UTC.
func DeriveDay(startTime time.Time) string {
	return startTime.UTC().Format("2006-01-02")
}

// Config holds Lode client configuration.
type Config struct {
	// Dataset is the Lode dataset ID.
	Dataset string
	// WriteCSV also stores each transfer's CSV rows as a sidecar file.
	WriteCSV bool
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Dataset == "" {
		return errors.New("lode dataset is required")
	}
	return nil
}

// Client abstracts the record store. Its method set matches the runtime
// record sink so a Client can be handed to the server directly.
type Client interface {
	// WriteRecord persists one transfer record and its samples.
	WriteRecord(ctx context.Context, rec *record.TransferRecord) error

	// Close releases client resources.
	Close() error
}

// StubClient records writes without persisting. Safe for concurrent use.
type StubClient struct {
	mu      sync.Mutex
	Records []*record.TransferRecord
	Err     error
	Closed  bool
}

// NewStubClient creates a new stub client.
func NewStubClient() *StubClient {
	return &StubClient{}
}

// WriteRecord implements Client. It returns Err when set.
func (c *StubClient) WriteRecord(_ context.Context, rec *record.TransferRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return c.Err
	}
	c.Records = append(c.Records, rec)
	return nil
}

// Close implements Client.
func (c *StubClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Closed = true
	return nil
}

// Written returns a copy of the recorded writes.
func (c *StubClient) Written() []*record.TransferRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*record.TransferRecord(nil), c.Records...)
}

var _ Client = (*StubClient)(nil)
