package runtime

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/pithecene-io/sigbench/metrics"
	"github.com/pithecene-io/sigbench/record"
	"github.com/pithecene-io/sigbench/types"
)

// TransferReport is the structured JSON report written by --report.
type TransferReport struct {
	Outcome  types.OutcomeStatus `json:"outcome"`
	Message  string              `json:"message"`
	ExitCode int                 `json:"exit_code"`

	Transfers []ReportTransfer  `json:"transfers"`
	Metrics   *metrics.Snapshot `json:"metrics"`
}

// ReportTransfer summarizes one record in the report.
type ReportTransfer struct {
	TransferID         string              `json:"transfer_id"`
	Role               types.Role          `json:"role"`
	Protocol           types.Protocol      `json:"protocol"`
	Scheme             types.Scheme        `json:"scheme"`
	Outcome            types.OutcomeStatus `json:"outcome"`
	Message            string              `json:"message"`
	TotalBytes         int64               `json:"total_bytes"`
	ConnectionTimeMs   float64             `json:"connection_time_ms"`
	FirstDataLatencyMs *float64            `json:"first_data_latency_ms,omitempty"`
	HandshakeTimeMs    float64             `json:"handshake_time_ms"`
	SignTimeMs         float64             `json:"sign_time_ms,omitempty"`
	VerifyTimeMs       float64             `json:"verify_time_ms,omitempty"`
	ThroughputMBps     float64             `json:"throughput_mb_per_s"`
	PeakCPUPercent     float64             `json:"peak_cpu_percent"`
	PeakMemoryMB       float64             `json:"peak_memory_mb"`
	Samples            int                 `json:"samples"`
	TrailingData       bool                `json:"trailing_data,omitempty"`
}

// BuildTransferReport composes a report from finished transfers and a metrics
// snapshot. The overall outcome is the most severe transfer outcome.
func BuildTransferReport(results []*TransferResult, snap metrics.Snapshot) *TransferReport {
	report := &TransferReport{
		Transfers: make([]ReportTransfer, 0, len(results)),
		Metrics:   &snap,
	}

	statuses := make([]types.OutcomeStatus, 0, len(results))
	for _, r := range results {
		report.Transfers = append(report.Transfers, summarize(r.Record))
		statuses = append(statuses, r.Record.Outcome.Status)
		if r.Record.Outcome.Status != types.OutcomeSuccess && report.Message == "" {
			report.Message = r.Record.Outcome.Message
		}
	}

	report.Outcome = WorstOutcome(statuses...)
	report.ExitCode = ExitCode(report.Outcome)
	switch {
	case report.Message != "":
	case report.Outcome == types.OutcomeSuccess:
		report.Message = fmt.Sprintf("%d transfers succeeded", len(results))
	default:
		report.Message = fmt.Sprintf("transfer ended with %s", report.Outcome)
	}
	return report
}

func summarize(rec *record.TransferRecord) ReportTransfer {
	rt := ReportTransfer{
		TransferID:       rec.TransferID,
		Role:             rec.Role,
		Protocol:         rec.Protocol,
		Scheme:           rec.Scheme,
		Outcome:          rec.Outcome.Status,
		Message:          rec.Outcome.Message,
		TotalBytes:       rec.TotalBytes,
		ConnectionTimeMs: ms(rec.ConnectionTime.Seconds()),
		HandshakeTimeMs:  ms(rec.HandshakeTime.Seconds()),
		SignTimeMs:       ms(rec.SignTime.Seconds()),
		VerifyTimeMs:     ms(rec.VerifyTime.Seconds()),
		ThroughputMBps:   rec.ThroughputMBps,
		PeakCPUPercent:   rec.PeakCPU(),
		PeakMemoryMB:     rec.PeakMemoryMB(),
		Samples:          len(rec.Samples),
		TrailingData:     rec.TrailingData,
	}
	if rec.FirstDataLatency != nil {
		v := ms(rec.FirstDataLatency.Seconds())
		rt.FirstDataLatencyMs = &v
	}
	return rt
}

func ms(seconds float64) float64 {
	return seconds * 1000
}

// WriteTransferReport writes the report as JSON to the specified path.
// If path is "-", writes to stderr.
func WriteTransferReport(report *TransferReport, path string) error {
	if path == "" {
		return errors.New("report path must not be empty")
	}

	if path == "-" {
		if err := writeTransferReportTo(report, os.Stderr); err != nil {
			return fmt.Errorf("failed to write report to stderr: %w", err)
		}
		return nil
	}

	data, err := marshalReport(report)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write report to %s: %w", path, err)
	}
	return nil
}

// writeTransferReportTo writes report JSON to any writer (for testing).
func writeTransferReportTo(report *TransferReport, w io.Writer) error {
	data, err := marshalReport(report)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func marshalReport(report *TransferReport) ([]byte, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report: %w", err)
	}
	return append(data, '\n'), nil
}
