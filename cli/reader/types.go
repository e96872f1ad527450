// Package reader is the read side of the sigbench CLI. It loads transfer
// records from a msgpack record file or a Lode dataset and shapes them into
// the payloads the list, inspect and stats commands render.
package reader

import "time"

// Query narrows a read. Empty fields match everything.
type Query struct {
	TransferID string
	Protocol   string
	Scheme     string
	Role       string
	// Outcome filters on outcome status.
	Outcome string
	// Limit caps the number of records, newest first. Zero means no limit.
	Limit int
}

// TransferItem is one row of the list view.
type TransferItem struct {
	TransferID     string    `json:"transfer_id" yaml:"transfer_id"`
	Role           string    `json:"role" yaml:"role"`
	Protocol       string    `json:"protocol" yaml:"protocol"`
	Scheme         string    `json:"scheme" yaml:"scheme"`
	Outcome        string    `json:"outcome" yaml:"outcome"`
	TotalBytes     int64     `json:"total_bytes" yaml:"total_bytes"`
	ConnectionMs   float64   `json:"connection_ms" yaml:"connection_ms"`
	ThroughputMBps float64   `json:"throughput_mb_per_s" yaml:"throughput_mb_per_s"`
	StartedAt      time.Time `json:"started_at" yaml:"started_at"`
}

// TransferDetail is the inspect view of one side of one transfer.
type TransferDetail struct {
	TransferID         string    `json:"transfer_id" yaml:"transfer_id"`
	Role               string    `json:"role" yaml:"role"`
	Protocol           string    `json:"protocol" yaml:"protocol"`
	Scheme             string    `json:"scheme" yaml:"scheme"`
	Peer               string    `json:"peer,omitempty" yaml:"peer,omitempty"`
	StartedAt          time.Time `json:"started_at" yaml:"started_at"`
	Outcome            string    `json:"outcome" yaml:"outcome"`
	Message            string    `json:"message,omitempty" yaml:"message,omitempty"`
	Verification       string    `json:"verification,omitempty" yaml:"verification,omitempty"`
	VerificationDetail string    `json:"verification_detail,omitempty" yaml:"verification_detail,omitempty"`
	TotalBytes         int64     `json:"total_bytes" yaml:"total_bytes"`
	SignatureSize      int       `json:"signature_size" yaml:"signature_size"`
	PayloadSize        int       `json:"payload_size" yaml:"payload_size"`
	ConnectionMs       float64   `json:"connection_ms" yaml:"connection_ms"`
	FirstDataLatencyMs *float64  `json:"first_data_latency_ms,omitempty" yaml:"first_data_latency_ms,omitempty"`
	HandshakeMs        float64   `json:"handshake_ms" yaml:"handshake_ms"`
	SignMs             float64   `json:"sign_ms,omitempty" yaml:"sign_ms,omitempty"`
	VerifyMs           float64   `json:"verify_ms,omitempty" yaml:"verify_ms,omitempty"`
	ThroughputMBps     float64   `json:"throughput_mb_per_s" yaml:"throughput_mb_per_s"`
	PeakCPUPercent     float64   `json:"peak_cpu_percent" yaml:"peak_cpu_percent"`
	PeakMemoryMB       float64   `json:"peak_memory_mb" yaml:"peak_memory_mb"`
	SampleCount        int       `json:"sample_count" yaml:"sample_count"`
	TrailingData       bool      `json:"trailing_data,omitempty" yaml:"trailing_data,omitempty"`
}

// TransferStats aggregates a set of transfer records.
type TransferStats struct {
	Total              int     `json:"total" yaml:"total"`
	Succeeded          int     `json:"succeeded" yaml:"succeeded"`
	VerificationFailed int     `json:"verification_failed" yaml:"verification_failed"`
	Incomplete         int     `json:"incomplete_transfer" yaml:"incomplete_transfer"`
	TransportError     int     `json:"transport_error" yaml:"transport_error"`
	TrailingData       int     `json:"trailing_data" yaml:"trailing_data"`
	TotalBytes         int64   `json:"total_bytes" yaml:"total_bytes"`
	MeanConnectionMs   float64 `json:"mean_connection_ms" yaml:"mean_connection_ms"`
	MeanThroughputMBps float64 `json:"mean_throughput_mb_per_s" yaml:"mean_throughput_mb_per_s"`
	MaxThroughputMBps  float64 `json:"max_throughput_mb_per_s" yaml:"max_throughput_mb_per_s"`
	MeanVerifyMs       float64 `json:"mean_verify_ms,omitempty" yaml:"mean_verify_ms,omitempty"`
}
