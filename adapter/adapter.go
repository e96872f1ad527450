// Package adapter publishes transfer completion notifications to downstream
// systems. Each finished transfer record becomes one TransferCompletedEvent.
package adapter

import (
	"context"
	"time"

	"github.com/pithecene-io/sigbench/record"
	"github.com/pithecene-io/sigbench/types"
)

// EventTypeTransferCompleted is the event_type of every published event.
const EventTypeTransferCompleted = "transfer_completed"

// TransferCompletedEvent is the payload published when one side of a
// transfer finishes.
type TransferCompletedEvent struct {
	ContractVersion    string   `json:"contract_version"`
	EventType          string   `json:"event_type"` // always "transfer_completed"
	TransferID         string   `json:"transfer_id"`
	Role               string   `json:"role"`
	Protocol           string   `json:"protocol"`
	Scheme             string   `json:"scheme"`
	Outcome            string   `json:"outcome"` // success, verification_failed, ...
	Message            string   `json:"message,omitempty"`
	Timestamp          string   `json:"timestamp"` // RFC 3339
	TotalBytes         int64    `json:"total_bytes"`
	ConnectionTimeMs   int64    `json:"connection_time_ms"`
	FirstDataLatencyMs *float64 `json:"first_data_latency_ms,omitempty"`
	ThroughputMBps     float64  `json:"throughput_mb_per_s"`
	Verification       string   `json:"verification,omitempty"`
	TrailingData       bool     `json:"trailing_data,omitempty"`
}

// NewTransferCompletedEvent builds the event for rec, stamped with now.
func NewTransferCompletedEvent(rec *record.TransferRecord, now time.Time) *TransferCompletedEvent {
	ev := &TransferCompletedEvent{
		ContractVersion:  types.ContractVersion,
		EventType:        EventTypeTransferCompleted,
		TransferID:       rec.TransferID,
		Role:             string(rec.Role),
		Protocol:         string(rec.Protocol),
		Scheme:           string(rec.Scheme),
		Outcome:          string(rec.Outcome.Status),
		Message:          rec.Outcome.Message,
		Timestamp:        now.UTC().Format(time.RFC3339),
		TotalBytes:       rec.TotalBytes,
		ConnectionTimeMs: rec.ConnectionTime.Milliseconds(),
		ThroughputMBps:   rec.ThroughputMBps,
		TrailingData:     rec.TrailingData,
	}
	if rec.FirstDataLatency != nil {
		ms := float64(*rec.FirstDataLatency) / float64(time.Millisecond)
		ev.FirstDataLatencyMs = &ms
	}
	if rec.Verification != nil {
		ev.Verification = string(rec.Verification.Status)
	}
	return ev
}

// Adapter publishes transfer completion events to a downstream system.
type Adapter interface {
	// Publish sends one event. Must respect context cancellation and deadlines.
	Publish(ctx context.Context, event *TransferCompletedEvent) error

	// Close releases adapter resources.
	Close() error
}

// Publisher turns finished records into events for an Adapter. It satisfies
// the runtime record sink interface.
type Publisher struct {
	adapter Adapter
	now     func() time.Time
}

// NewPublisher wraps a.
func NewPublisher(a Adapter) *Publisher {
	return &Publisher{adapter: a, now: time.Now}
}

// WriteRecord publishes the completion event for rec.
func (p *Publisher) WriteRecord(ctx context.Context, rec *record.TransferRecord) error {
	return p.adapter.Publish(ctx, NewTransferCompletedEvent(rec, p.now()))
}

// Close closes the underlying adapter.
func (p *Publisher) Close() error {
	return p.adapter.Close()
}
