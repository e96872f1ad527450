// Package record aggregates transfer timing and sampler output into
// benchmark records.
package record

import (
	"time"

	"github.com/pithecene-io/sigbench/sampler"
	"github.com/pithecene-io/sigbench/signature"
	"github.com/pithecene-io/sigbench/types"
)

const bytesPerMiB = 1024 * 1024

// SampleRecord is one sampler observation.
type SampleRecord struct {
	ElapsedSeconds float64 `json:"elapsed_seconds" msgpack:"elapsed_seconds" yaml:"elapsed_seconds"`
	CPUPercent     float64 `json:"cpu_percent" msgpack:"cpu_percent" yaml:"cpu_percent"`
	MemoryMB       float64 `json:"memory_mb" msgpack:"memory_mb" yaml:"memory_mb"`
	TotalBytes     int64   `json:"total_bytes" msgpack:"total_bytes" yaml:"total_bytes"`
	ThroughputMBps float64 `json:"throughput_mb_per_s" msgpack:"throughput_mb_per_s" yaml:"throughput_mb_per_s"`
}

// TransferRecord is the benchmark record of one side of one transfer.
type TransferRecord struct {
	TransferID string         `json:"transfer_id" msgpack:"transfer_id"`
	Role       types.Role     `json:"role" msgpack:"role"`
	Protocol   types.Protocol `json:"protocol" msgpack:"protocol"`
	Scheme     types.Scheme   `json:"scheme" msgpack:"scheme"`
	Peer       string         `json:"peer,omitempty" msgpack:"peer,omitempty"`

	StartedAt        time.Time      `json:"started_at" msgpack:"started_at"`
	TotalBytes       int64          `json:"total_bytes" msgpack:"total_bytes"`
	SignatureSize    int            `json:"signature_size" msgpack:"signature_size"`
	PayloadSize      int            `json:"payload_size" msgpack:"payload_size"`
	ConnectionTime   time.Duration  `json:"connection_time_ns" msgpack:"connection_time_ns"`
	FirstDataLatency *time.Duration `json:"first_data_latency_ns,omitempty" msgpack:"first_data_latency_ns,omitempty"`
	HandshakeTime    time.Duration  `json:"handshake_time_ns" msgpack:"handshake_time_ns"`
	SignTime         time.Duration  `json:"sign_time_ns,omitempty" msgpack:"sign_time_ns,omitempty"`
	VerifyTime       time.Duration  `json:"verify_time_ns,omitempty" msgpack:"verify_time_ns,omitempty"`
	ThroughputMBps   float64        `json:"throughput_mb_per_s" msgpack:"throughput_mb_per_s"`

	Samples      []SampleRecord        `json:"samples" msgpack:"samples"`
	Verification *signature.Result     `json:"verification,omitempty" msgpack:"verification,omitempty"`
	Outcome      types.TransferOutcome `json:"outcome" msgpack:"outcome"`
	TrailingData bool                  `json:"trailing_data,omitempty" msgpack:"trailing_data,omitempty"`
}

// Timing holds the timestamps and durations measured by a transfer loop.
type Timing struct {
	// StartedAt is when the connection was accepted or dialed.
	StartedAt time.Time
	// EndedAt is when the frame completed or the transfer failed. It is
	// captured before the sampler is stopped.
	EndedAt time.Time
	// FirstDataAt is when the first payload byte was observed, zero if never.
	FirstDataAt   time.Time
	HandshakeTime time.Duration
	SignTime      time.Duration
}

// Input is everything Build aggregates.
type Input struct {
	Meta          types.TransferMeta
	Peer          string
	Timing        Timing
	TotalBytes    int64
	SignatureSize int
	PayloadSize   int
	Samples       []sampler.Sample
	Verification  *signature.Result
	Outcome       types.TransferOutcome
	TrailingData  bool
}

// Build aggregates in into a TransferRecord.
func Build(in Input) *TransferRecord {
	rec := &TransferRecord{
		TransferID:     in.Meta.TransferID,
		Role:           in.Meta.Role,
		Protocol:       in.Meta.Protocol,
		Scheme:         in.Meta.Scheme,
		Peer:           in.Peer,
		StartedAt:      in.Timing.StartedAt.UTC(),
		TotalBytes:     in.TotalBytes,
		SignatureSize:  in.SignatureSize,
		PayloadSize:    in.PayloadSize,
		HandshakeTime:  in.Timing.HandshakeTime,
		SignTime:       in.Timing.SignTime,
		Samples:        FromSamples(in.Samples),
		Verification:   in.Verification,
		Outcome:        in.Outcome,
		TrailingData:   in.TrailingData,
		ConnectionTime: max(in.Timing.EndedAt.Sub(in.Timing.StartedAt), 0),
	}

	if !in.Timing.FirstDataAt.IsZero() {
		latency := max(in.Timing.FirstDataAt.Sub(in.Timing.StartedAt), 0)
		rec.FirstDataLatency = &latency
	}
	if in.Verification != nil {
		rec.VerifyTime = in.Verification.Duration
	}
	if secs := rec.ConnectionTime.Seconds(); secs > 0 {
		rec.ThroughputMBps = float64(in.TotalBytes) / bytesPerMiB / secs
	}

	return rec
}

// FromSamples converts sampler observations.
func FromSamples(samples []sampler.Sample) []SampleRecord {
	out := make([]SampleRecord, len(samples))
	for i, s := range samples {
		out[i] = SampleRecord{
			ElapsedSeconds: s.Elapsed.Seconds(),
			CPUPercent:     s.CPUPercent,
			MemoryMB:       s.MemoryMB,
			TotalBytes:     s.TotalBytes,
			ThroughputMBps: s.ThroughputMBps,
		}
	}
	return out
}

// Succeeded reports whether the transfer outcome is success.
func (r *TransferRecord) Succeeded() bool {
	return r.Outcome.Status == types.OutcomeSuccess
}

// PeakCPU returns the highest sampled CPU percentage.
func (r *TransferRecord) PeakCPU() float64 {
	peak := 0.0
	for _, s := range r.Samples {
		peak = max(peak, s.CPUPercent)
	}
	return peak
}

// PeakMemoryMB returns the highest sampled resident memory.
func (r *TransferRecord) PeakMemoryMB() float64 {
	peak := 0.0
	for _, s := range r.Samples {
		peak = max(peak, s.MemoryMB)
	}
	return peak
}
