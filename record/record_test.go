package record

import (
	"bytes"
	"encoding/csv"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pithecene-io/sigbench/sampler"
	"github.com/pithecene-io/sigbench/signature"
	"github.com/pithecene-io/sigbench/types"
)

var testStart = time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)

func testInput() Input {
	return Input{
		Meta: types.TransferMeta{
			TransferID: "xfer-001",
			Role:       types.RoleReceiver,
			Protocol:   types.ProtocolBlockingStream,
			Scheme:     types.SchemeRSA,
		},
		Timing: Timing{
			StartedAt:     testStart,
			EndedAt:       testStart.Add(2 * time.Second),
			FirstDataAt:   testStart.Add(250 * time.Millisecond),
			HandshakeTime: 10 * time.Millisecond,
		},
		TotalBytes:    4 * bytesPerMiB,
		SignatureSize: 256,
		PayloadSize:   4 * bytesPerMiB,
		Samples: []sampler.Sample{
			{Elapsed: 100 * time.Millisecond, CPUPercent: 20, MemoryMB: 30, TotalBytes: bytesPerMiB, ThroughputMBps: 10},
			{Elapsed: 200 * time.Millisecond, CPUPercent: 40, MemoryMB: 25, TotalBytes: 2 * bytesPerMiB, ThroughputMBps: 10},
		},
		Verification: &signature.Result{Status: signature.StatusValid, Duration: 3 * time.Millisecond},
		Outcome:      types.TransferOutcome{Status: types.OutcomeSuccess, Message: "verified"},
	}
}

func TestBuild(t *testing.T) {
	rec := Build(testInput())

	if rec.ConnectionTime != 2*time.Second {
		t.Errorf("ConnectionTime = %v, want 2s", rec.ConnectionTime)
	}
	if rec.FirstDataLatency == nil || *rec.FirstDataLatency != 250*time.Millisecond {
		t.Errorf("FirstDataLatency = %v, want 250ms", rec.FirstDataLatency)
	}
	if rec.ThroughputMBps != 2 {
		t.Errorf("ThroughputMBps = %v, want 2", rec.ThroughputMBps)
	}
	if rec.VerifyTime != 3*time.Millisecond {
		t.Errorf("VerifyTime = %v, want 3ms", rec.VerifyTime)
	}
	if len(rec.Samples) != 2 {
		t.Fatalf("len(Samples) = %d, want 2", len(rec.Samples))
	}
	if rec.Samples[1].ElapsedSeconds != 0.2 {
		t.Errorf("Samples[1].ElapsedSeconds = %v, want 0.2", rec.Samples[1].ElapsedSeconds)
	}
	if rec.PeakCPU() != 40 {
		t.Errorf("PeakCPU = %v, want 40", rec.PeakCPU())
	}
	if rec.PeakMemoryMB() != 30 {
		t.Errorf("PeakMemoryMB = %v, want 30", rec.PeakMemoryMB())
	}
	if !rec.Succeeded() {
		t.Error("Succeeded = false, want true")
	}
}

func TestBuild_NoPayloadObserved(t *testing.T) {
	in := testInput()
	in.Timing.FirstDataAt = time.Time{}
	in.Timing.EndedAt = in.Timing.StartedAt
	in.Verification = nil

	rec := Build(in)
	if rec.FirstDataLatency != nil {
		t.Errorf("FirstDataLatency = %v, want nil", *rec.FirstDataLatency)
	}
	if rec.ThroughputMBps != 0 {
		t.Errorf("ThroughputMBps = %v, want 0 for zero duration", rec.ThroughputMBps)
	}
	if rec.VerifyTime != 0 {
		t.Errorf("VerifyTime = %v, want 0", rec.VerifyTime)
	}
}

func TestRows(t *testing.T) {
	rec := Build(testInput())
	rows := rec.Rows()

	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(rows))
	}
	for i, row := range rows {
		if row.ConnectionTimeS != 2 {
			t.Errorf("rows[%d].ConnectionTimeS = %v, want 2", i, row.ConnectionTimeS)
		}
		if row.TotalBytes != 4*bytesPerMiB {
			t.Errorf("rows[%d].TotalBytes = %d", i, row.TotalBytes)
		}
		if row.FirstDataLatencyS == nil || *row.FirstDataLatencyS != 0.25 {
			t.Errorf("rows[%d].FirstDataLatencyS = %v, want 0.25", i, row.FirstDataLatencyS)
		}
	}
}

func TestRows_NoSamples(t *testing.T) {
	in := testInput()
	in.Samples = nil
	rows := Build(in).Rows()

	if len(rows) != 1 {
		t.Fatalf("len(rows) = %d, want 1", len(rows))
	}
	if rows[0].ElapsedSeconds != 2 {
		t.Errorf("ElapsedSeconds = %v, want 2", rows[0].ElapsedSeconds)
	}
	if rows[0].ThroughputMBps != 2 {
		t.Errorf("ThroughputMBps = %v, want 2", rows[0].ThroughputMBps)
	}
}

func TestWriteCSV(t *testing.T) {
	in := testInput()
	in.Timing.FirstDataAt = time.Time{}
	var buf bytes.Buffer

	if err := WriteCSV(&buf, Build(in)); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}

	lines, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(lines) != 3 {
		t.Fatalf("len(lines) = %d, want 3", len(lines))
	}
	if strings.Join(lines[0], ",") != strings.Join(Header, ",") {
		t.Errorf("header = %v, want %v", lines[0], Header)
	}
	want := []string{"0.100000", "20.000000", "30.000000", "10.000000", "2.000000", "4194304", ""}
	if strings.Join(lines[1], ",") != strings.Join(want, ",") {
		t.Errorf("row = %v, want %v", lines[1], want)
	}
}

func TestCodec_FileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.msgpack")
	first := Build(testInput())

	in := testInput()
	in.Meta.TransferID = "xfer-002"
	in.Outcome = types.TransferOutcome{Status: types.OutcomeIncompleteTransfer, Message: "stream ended"}
	in.Verification = nil
	second := Build(in)

	for _, rec := range []*TransferRecord{first, second} {
		if err := AppendFile(path, rec); err != nil {
			t.Fatalf("AppendFile failed: %v", err)
		}
	}

	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len(records) = %d, want 2", len(got))
	}
	if got[0].TransferID != "xfer-001" || got[1].TransferID != "xfer-002" {
		t.Errorf("TransferIDs = %q, %q", got[0].TransferID, got[1].TransferID)
	}
	if !got[0].StartedAt.Equal(testStart) {
		t.Errorf("StartedAt = %v, want %v", got[0].StartedAt, testStart)
	}
	if got[0].FirstDataLatency == nil || *got[0].FirstDataLatency != 250*time.Millisecond {
		t.Errorf("FirstDataLatency = %v, want 250ms", got[0].FirstDataLatency)
	}
	if got[0].Verification == nil || got[0].Verification.Status != signature.StatusValid {
		t.Errorf("Verification = %+v, want valid", got[0].Verification)
	}
	if got[1].Verification != nil {
		t.Errorf("Verification = %+v, want nil", got[1].Verification)
	}
	if got[1].Outcome.Status != types.OutcomeIncompleteTransfer {
		t.Errorf("Outcome = %q, want %q", got[1].Outcome.Status, types.OutcomeIncompleteTransfer)
	}
}

func TestDecodeAll_Corrupt(t *testing.T) {
	if _, err := DecodeAll(bytes.NewReader([]byte{0xc1})); err == nil {
		t.Error("expected error for corrupt input")
	}
}
