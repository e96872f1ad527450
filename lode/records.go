package lode

import (
	"time"

	"github.com/pithecene-io/sigbench/record"
	"github.com/pithecene-io/sigbench/signature"
	"github.com/pithecene-io/sigbench/types"
)

// RecordKind discriminator values.
const (
	RecordKindTransfer = "transfer"
	RecordKindSample   = "sample"
)

// toTransferRecordMap converts a TransferRecord to a map for Lode storage.
// Lode HiveLayout requires records as map[string]any. Durations are stored
// in seconds.
func toTransferRecordMap(rec *record.TransferRecord) map[string]any {
	m := map[string]any{
		"record_kind":         RecordKindTransfer,
		"transfer_id":         rec.TransferID,
		"role":                string(rec.Role),
		"protocol":            string(rec.Protocol),
		"scheme":              string(rec.Scheme),
		"day":                 DeriveDay(rec.StartedAt),
		"started_at":          rec.StartedAt.UTC().Format(time.RFC3339Nano),
		"total_bytes":         rec.TotalBytes,
		"signature_size":      int64(rec.SignatureSize),
		"payload_size":        int64(rec.PayloadSize),
		"connection_time_s":   rec.ConnectionTime.Seconds(),
		"handshake_time_s":    rec.HandshakeTime.Seconds(),
		"sign_time_s":         rec.SignTime.Seconds(),
		"verify_time_s":       rec.VerifyTime.Seconds(),
		"throughput_mb_per_s": rec.ThroughputMBps,
		"outcome":             string(rec.Outcome.Status),
		"outcome_message":     rec.Outcome.Message,
		"trailing_data":       rec.TrailingData,
		"sample_count":        int64(len(rec.Samples)),
		"peak_cpu_percent":    rec.PeakCPU(),
		"peak_memory_mb":      rec.PeakMemoryMB(),
	}
	if rec.Peer != "" {
		m["peer"] = rec.Peer
	}
	if rec.FirstDataLatency != nil {
		m["first_data_latency_s"] = rec.FirstDataLatency.Seconds()
	}
	if rec.Verification != nil {
		m["verification"] = string(rec.Verification.Status)
		if rec.Verification.Detail != "" {
			m["verification_detail"] = rec.Verification.Detail
		}
	}
	return m
}

// toSampleRecordMaps converts the samples of rec, one map per sample.
// Partition keys repeat the transfer's so samples land beside it.
func toSampleRecordMaps(rec *record.TransferRecord) []map[string]any {
	out := make([]map[string]any, len(rec.Samples))
	day := DeriveDay(rec.StartedAt)
	for i, s := range rec.Samples {
		out[i] = map[string]any{
			"record_kind":         RecordKindSample,
			"transfer_id":         rec.TransferID,
			"role":                string(rec.Role),
			"protocol":            string(rec.Protocol),
			"scheme":              string(rec.Scheme),
			"day":                 day,
			"seq":                 int64(i),
			"elapsed_seconds":     s.ElapsedSeconds,
			"cpu_percent":         s.CPUPercent,
			"memory_mb":           s.MemoryMB,
			"total_bytes":         s.TotalBytes,
			"throughput_mb_per_s": s.ThroughputMBps,
		}
	}
	return out
}

// DecodeTransfer rebuilds a TransferRecord from a stored transfer map and its
// sample maps. Fields not persisted (signature bytes, verification timing)
// stay zero.
func DecodeTransfer(m map[string]any, samples []map[string]any) *record.TransferRecord {
	rec := &record.TransferRecord{
		TransferID:     toString(m["transfer_id"]),
		Role:           types.Role(toString(m["role"])),
		Protocol:       types.Protocol(toString(m["protocol"])),
		Scheme:         types.Scheme(toString(m["scheme"])),
		Peer:           toString(m["peer"]),
		TotalBytes:     toInt64(m["total_bytes"]),
		SignatureSize:  int(toInt64(m["signature_size"])),
		PayloadSize:    int(toInt64(m["payload_size"])),
		ConnectionTime: seconds(m["connection_time_s"]),
		HandshakeTime:  seconds(m["handshake_time_s"]),
		SignTime:       seconds(m["sign_time_s"]),
		VerifyTime:     seconds(m["verify_time_s"]),
		ThroughputMBps: toFloat64(m["throughput_mb_per_s"]),
		Outcome: types.TransferOutcome{
			Status:  types.OutcomeStatus(toString(m["outcome"])),
			Message: toString(m["outcome_message"]),
		},
		Samples: make([]record.SampleRecord, 0, len(samples)),
	}
	if b, ok := m["trailing_data"].(bool); ok {
		rec.TrailingData = b
	}
	if ts, err := time.Parse(time.RFC3339Nano, toString(m["started_at"])); err == nil {
		rec.StartedAt = ts
	}
	if _, ok := m["first_data_latency_s"]; ok {
		latency := seconds(m["first_data_latency_s"])
		rec.FirstDataLatency = &latency
	}
	if status := toString(m["verification"]); status != "" {
		rec.Verification = &signature.Result{
			Status:   signature.Status(status),
			Detail:   toString(m["verification_detail"]),
			Duration: rec.VerifyTime,
		}
	}
	for _, s := range samples {
		rec.Samples = append(rec.Samples, record.SampleRecord{
			ElapsedSeconds: toFloat64(s["elapsed_seconds"]),
			CPUPercent:     toFloat64(s["cpu_percent"]),
			MemoryMB:       toFloat64(s["memory_mb"]),
			TotalBytes:     toInt64(s["total_bytes"]),
			ThroughputMBps: toFloat64(s["throughput_mb_per_s"]),
		})
	}
	return rec
}

func seconds(v any) time.Duration {
	return time.Duration(toFloat64(v) * float64(time.Second))
}

// toString converts a value to string, returning empty string for nil/non-string.
func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// toInt64 accepts the numeric types a record map holds before and after a
// JSONL round trip.
func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}

func toFloat64(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case int:
		return float64(n)
	default:
		return 0
	}
}
