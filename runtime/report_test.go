package runtime

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pithecene-io/sigbench/iox"
	"github.com/pithecene-io/sigbench/metrics"
	"github.com/pithecene-io/sigbench/record"
	"github.com/pithecene-io/sigbench/types"
)

func newTestTransferResult(role types.Role, status types.OutcomeStatus, message string) *TransferResult {
	latency := 3 * time.Millisecond
	return &TransferResult{
		Record: &record.TransferRecord{
			TransferID:       "transfer-001",
			Role:             role,
			Protocol:         types.ProtocolBlockingStream,
			Scheme:           types.SchemeMLDSA44,
			TotalBytes:       5242880,
			ConnectionTime:   2 * time.Second,
			FirstDataLatency: &latency,
			HandshakeTime:    4 * time.Millisecond,
			ThroughputMBps:   2.5,
			Samples: []record.SampleRecord{
				{ElapsedSeconds: 0.1, CPUPercent: 12, MemoryMB: 40},
				{ElapsedSeconds: 0.2, CPUPercent: 30, MemoryMB: 38},
			},
			Outcome: types.TransferOutcome{Status: status, Message: message},
		},
	}
}

func newTestSnapshot() metrics.Snapshot {
	return metrics.Snapshot{
		TransfersStarted:   2,
		TransfersSucceeded: 2,
		BytesTransferred:   10487296,
		RecordWriteSuccess: 2,
		Role:               "bench",
		Protocol:           "blocking_stream",
		Scheme:             "mldsa44",
		StorageBackend:     "fs",
	}
}

func TestBuildTransferReport_Success(t *testing.T) {
	results := []*TransferResult{
		newTestTransferResult(types.RoleSender, types.OutcomeSuccess, "frame sent"),
		newTestTransferResult(types.RoleReceiver, types.OutcomeSuccess, "signature verified"),
	}

	report := BuildTransferReport(results, newTestSnapshot())

	if report.Outcome != types.OutcomeSuccess {
		t.Errorf("Outcome = %q, want %q", report.Outcome, types.OutcomeSuccess)
	}
	if report.ExitCode != ExitCodeSuccess {
		t.Errorf("ExitCode = %d, want %d", report.ExitCode, ExitCodeSuccess)
	}
	if report.Message != "2 transfers succeeded" {
		t.Errorf("Message = %q", report.Message)
	}
	if len(report.Transfers) != 2 {
		t.Fatalf("Transfers = %d, want 2", len(report.Transfers))
	}

	tr := report.Transfers[1]
	if tr.Role != types.RoleReceiver {
		t.Errorf("Role = %q, want receiver", tr.Role)
	}
	if tr.ConnectionTimeMs != 2000 {
		t.Errorf("ConnectionTimeMs = %v, want 2000", tr.ConnectionTimeMs)
	}
	if tr.FirstDataLatencyMs == nil || *tr.FirstDataLatencyMs != 3 {
		t.Errorf("FirstDataLatencyMs = %v, want 3", tr.FirstDataLatencyMs)
	}
	if tr.PeakCPUPercent != 30 {
		t.Errorf("PeakCPUPercent = %v, want 30", tr.PeakCPUPercent)
	}
	if tr.PeakMemoryMB != 40 {
		t.Errorf("PeakMemoryMB = %v, want 40", tr.PeakMemoryMB)
	}
	if tr.Samples != 2 {
		t.Errorf("Samples = %d, want 2", tr.Samples)
	}
	if report.Metrics == nil || report.Metrics.TransfersSucceeded != 2 {
		t.Errorf("Metrics = %+v", report.Metrics)
	}
}

func TestBuildTransferReport_WorstOutcomeWins(t *testing.T) {
	results := []*TransferResult{
		newTestTransferResult(types.RoleSender, types.OutcomeSuccess, "frame sent"),
		newTestTransferResult(types.RoleReceiver, types.OutcomeVerificationFailed, "signature invalid: bad"),
		newTestTransferResult(types.RoleReceiver, types.OutcomeIncompleteTransfer, "incomplete_transfer: short"),
	}

	report := BuildTransferReport(results, newTestSnapshot())

	if report.Outcome != types.OutcomeIncompleteTransfer {
		t.Errorf("Outcome = %q, want %q", report.Outcome, types.OutcomeIncompleteTransfer)
	}
	if report.ExitCode != ExitCodeIncompleteTransfer {
		t.Errorf("ExitCode = %d, want %d", report.ExitCode, ExitCodeIncompleteTransfer)
	}
	if report.Message != "signature invalid: bad" {
		t.Errorf("Message = %q, want first failure message", report.Message)
	}
}

func TestBuildTransferReport_NoLatency(t *testing.T) {
	result := newTestTransferResult(types.RoleReceiver, types.OutcomeTransportError, "connection reset")
	result.Record.FirstDataLatency = nil

	report := BuildTransferReport([]*TransferResult{result}, newTestSnapshot())

	data, err := json.Marshal(report)
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}
	var raw struct {
		Transfers []map[string]any `json:"transfers"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	if _, exists := raw.Transfers[0]["first_data_latency_ms"]; exists {
		t.Error("first_data_latency_ms should be omitted when no payload arrived")
	}
}

func TestTransferReport_JSONKeys(t *testing.T) {
	report := BuildTransferReport([]*TransferResult{
		newTestTransferResult(types.RoleSender, types.OutcomeSuccess, "frame sent"),
	}, newTestSnapshot())

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	for _, key := range []string{"outcome", "message", "exit_code", "transfers", "metrics"} {
		if _, exists := raw[key]; !exists {
			t.Errorf("missing required key %q in report JSON", key)
		}
	}

	transfers, ok := raw["transfers"].([]any)
	if !ok || len(transfers) != 1 {
		t.Fatalf("transfers = %v", raw["transfers"])
	}
	tr, ok := transfers[0].(map[string]any)
	if !ok {
		t.Fatal("transfer is not an object")
	}
	for _, key := range []string{
		"transfer_id", "role", "protocol", "scheme", "outcome", "total_bytes",
		"connection_time_ms", "handshake_time_ms", "throughput_mb_per_s",
		"peak_cpu_percent", "peak_memory_mb", "samples",
	} {
		if _, exists := tr[key]; !exists {
			t.Errorf("missing required key %q in transfer object", key)
		}
	}
}

func TestWriteTransferReport_File(t *testing.T) {
	report := BuildTransferReport([]*TransferResult{
		newTestTransferResult(types.RoleReceiver, types.OutcomeSuccess, "signature verified"),
	}, newTestSnapshot())

	path := filepath.Join(t.TempDir(), "report.json")
	if err := WriteTransferReport(report, path); err != nil {
		t.Fatalf("WriteTransferReport failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read report: %v", err)
	}
	var decoded TransferReport
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("failed to unmarshal report: %v", err)
	}
	if decoded.Outcome != types.OutcomeSuccess {
		t.Errorf("decoded Outcome = %q, want %q", decoded.Outcome, types.OutcomeSuccess)
	}
	if len(decoded.Transfers) != 1 || decoded.Transfers[0].TransferID != "transfer-001" {
		t.Errorf("decoded Transfers = %+v", decoded.Transfers)
	}
}

func TestWriteTransferReport_EmptyPath(t *testing.T) {
	if err := WriteTransferReport(&TransferReport{}, ""); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestWriteTransferReportTo_Writer(t *testing.T) {
	report := BuildTransferReport(nil, newTestSnapshot())

	var buf bytes.Buffer
	if err := writeTransferReportTo(report, &buf); err != nil {
		t.Fatalf("writeTransferReportTo failed: %v", err)
	}
	var decoded TransferReport
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	if decoded.Outcome != types.OutcomeSuccess {
		t.Errorf("Outcome = %q, want success for an empty run", decoded.Outcome)
	}
}

func TestWriteTransferReport_Stderr(t *testing.T) {
	origStderr := os.Stderr
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	os.Stderr = w

	report := BuildTransferReport([]*TransferResult{
		newTestTransferResult(types.RoleSender, types.OutcomeSuccess, "frame sent"),
	}, newTestSnapshot())
	writeErr := WriteTransferReport(report, "-")

	// Restore stderr before any assertions so failures print.
	iox.DiscardClose(w)
	os.Stderr = origStderr

	if writeErr != nil {
		t.Fatalf("WriteTransferReport to stderr failed: %v", writeErr)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		t.Fatalf("failed to read from pipe: %v", err)
	}
	var decoded TransferReport
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("stderr output is not valid JSON: %v\noutput: %s", err, buf.String())
	}
}
