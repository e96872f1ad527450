// Package metrics provides process-level transfer counters.
//
// The Collector accumulates counters across every transfer a process runs.
// It is a leaf package with no internal dependencies: outcomes are passed as
// strings so callers map their own types onto the counters.
package metrics

import "sync"

// Outcome labels accepted by RecordOutcome.
const (
	OutcomeSuccess            = "success"
	OutcomeVerificationFailed = "verification_failed"
	OutcomeIncompleteTransfer = "incomplete_transfer"
	OutcomeTransportError     = "transport_error"
)

// Snapshot is an immutable point-in-time view of all counters.
// Returned by Collector.Snapshot(). Safe to read concurrently after creation.
type Snapshot struct {
	// Transfer lifecycle
	TransfersStarted     int64 `json:"transfers_started"`
	TransfersSucceeded   int64 `json:"transfers_succeeded"`
	VerificationFailures int64 `json:"verification_failures"`
	IncompleteTransfers  int64 `json:"incomplete_transfers"`
	TransportErrors      int64 `json:"transport_errors"`

	// Wire
	BytesTransferred int64 `json:"bytes_transferred"`
	TrailingData     int64 `json:"trailing_data"`

	// Record sinks (per call)
	RecordWriteSuccess int64 `json:"record_write_success"`
	RecordWriteFailure int64 `json:"record_write_failure"`
	PublishSuccess     int64 `json:"publish_success"`
	PublishFailure     int64 `json:"publish_failure"`

	// Dimensions (informational, set at construction)
	Role           string `json:"role"`
	Protocol       string `json:"protocol"`
	Scheme         string `json:"scheme"`
	StorageBackend string `json:"storage_backend"`
}

// Collector accumulates counters.
// Thread-safe via sync.Mutex. All methods are nil-receiver safe.
type Collector struct {
	mu sync.Mutex

	transfersStarted     int64
	transfersSucceeded   int64
	verificationFailures int64
	incompleteTransfers  int64
	transportErrors      int64

	bytesTransferred int64
	trailingData     int64

	recordWriteSuccess int64
	recordWriteFailure int64
	publishSuccess     int64
	publishFailure     int64

	role           string
	protocol       string
	scheme         string
	storageBackend string
}

// NewCollector creates a Collector with dimension labels.
// storageBackend is empty when records are not persisted.
func NewCollector(role, protocol, scheme, storageBackend string) *Collector {
	return &Collector{
		role:           role,
		protocol:       protocol,
		scheme:         scheme,
		storageBackend: storageBackend,
	}
}

func (c *Collector) add(field *int64, n int64) {
	c.mu.Lock()
	*field += n
	c.mu.Unlock()
}

// IncTransferStarted records a transfer start.
func (c *Collector) IncTransferStarted() {
	if c == nil {
		return
	}
	c.add(&c.transfersStarted, 1)
}

// RecordOutcome records the final classification of a transfer.
// Unknown outcomes are counted as transport errors.
func (c *Collector) RecordOutcome(outcome string) {
	if c == nil {
		return
	}
	switch outcome {
	case OutcomeSuccess:
		c.add(&c.transfersSucceeded, 1)
	case OutcomeVerificationFailed:
		c.add(&c.verificationFailures, 1)
	case OutcomeIncompleteTransfer:
		c.add(&c.incompleteTransfers, 1)
	default:
		c.add(&c.transportErrors, 1)
	}
}

// AddBytes records transferred bytes.
func (c *Collector) AddBytes(n int64) {
	if c == nil {
		return
	}
	c.add(&c.bytesTransferred, n)
}

// IncTrailingData records a connection that delivered bytes after its frame.
func (c *Collector) IncTrailingData() {
	if c == nil {
		return
	}
	c.add(&c.trailingData, 1)
}

// --- Record sinks ---
// Sink counters are per-call, not per-record.

// IncRecordWriteSuccess records a successful storage write.
func (c *Collector) IncRecordWriteSuccess() {
	if c == nil {
		return
	}
	c.add(&c.recordWriteSuccess, 1)
}

// IncRecordWriteFailure records a failed storage write.
func (c *Collector) IncRecordWriteFailure() {
	if c == nil {
		return
	}
	c.add(&c.recordWriteFailure, 1)
}

// IncPublishSuccess records a delivered completion notification.
func (c *Collector) IncPublishSuccess() {
	if c == nil {
		return
	}
	c.add(&c.publishSuccess, 1)
}

// IncPublishFailure records a failed completion notification.
func (c *Collector) IncPublishFailure() {
	if c == nil {
		return
	}
	c.add(&c.publishFailure, 1)
}

// Snapshot returns an immutable point-in-time view of all counters.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	return Snapshot{
		TransfersStarted:     c.transfersStarted,
		TransfersSucceeded:   c.transfersSucceeded,
		VerificationFailures: c.verificationFailures,
		IncompleteTransfers:  c.incompleteTransfers,
		TransportErrors:      c.transportErrors,

		BytesTransferred: c.bytesTransferred,
		TrailingData:     c.trailingData,

		RecordWriteSuccess: c.recordWriteSuccess,
		RecordWriteFailure: c.recordWriteFailure,
		PublishSuccess:     c.publishSuccess,
		PublishFailure:     c.publishFailure,

		Role:           c.role,
		Protocol:       c.protocol,
		Scheme:         c.scheme,
		StorageBackend: c.storageBackend,
	}
}
