package reader

import (
	"context"
	"errors"
	"fmt"
	"slices"

	lodelibrary "github.com/justapithecus/lode/lode"

	"github.com/pithecene-io/sigbench/lode"
	"github.com/pithecene-io/sigbench/record"
	"github.com/pithecene-io/sigbench/types"
)

// ErrNotFound is returned when no record matches a query.
var ErrNotFound = errors.New("no matching transfer records")

// FileSource reads a msgpack record file written with --record-out.
type FileSource struct {
	Path string
}

// Transfers implements Source. Later records in the file are newer.
func (s FileSource) Transfers(_ context.Context, q Query) ([]*record.TransferRecord, error) {
	all, err := record.ReadFile(s.Path)
	if err != nil {
		return nil, err
	}
	var out []*record.TransferRecord
	for _, rec := range slices.Backward(all) {
		if !q.matches(rec) {
			continue
		}
		out = append(out, rec)
		if q.Limit > 0 && len(out) >= q.Limit {
			break
		}
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return out, nil
}

// LodeSource reads the transfer records of a Lode dataset.
type LodeSource struct {
	Dataset lodelibrary.Dataset
}

// Transfers implements Source. Samples are loaded only for queries that
// name a transfer.
func (s LodeSource) Transfers(ctx context.Context, q Query) ([]*record.TransferRecord, error) {
	limit := q.Limit
	if q.Outcome != "" {
		limit = 0
	}
	maps, err := lode.QueryTransfers(ctx, s.Dataset, lode.Filter{
		TransferID: q.TransferID,
		Protocol:   q.Protocol,
		Scheme:     q.Scheme,
		Role:       q.Role,
	}, limit)
	if err != nil {
		if errors.Is(err, lode.ErrNoRecordsFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var out []*record.TransferRecord
	for _, m := range maps {
		var samples []map[string]any
		if q.TransferID != "" {
			rec := lode.DecodeTransfer(m, nil)
			samples, err = lode.QuerySamples(ctx, s.Dataset, rec.TransferID, string(rec.Role))
			if err != nil {
				return nil, fmt.Errorf("load samples: %w", err)
			}
		}
		rec := lode.DecodeTransfer(m, samples)
		if !q.matches(rec) {
			continue
		}
		out = append(out, rec)
		if q.Limit > 0 && len(out) >= q.Limit {
			break
		}
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return out, nil
}

func (q Query) matches(rec *record.TransferRecord) bool {
	return match(q.TransferID, rec.TransferID) &&
		match(q.Protocol, string(rec.Protocol)) &&
		match(q.Scheme, string(rec.Scheme)) &&
		match(q.Role, string(rec.Role)) &&
		match(q.Outcome, string(rec.Outcome.Status))
}

func match(want, got string) bool {
	return want == "" || want == got
}

// pickSide returns the receiver record if present, else the first.
func pickSide(recs []*record.TransferRecord) *record.TransferRecord {
	for _, rec := range recs {
		if rec.Role == types.RoleReceiver {
			return rec
		}
	}
	return recs[0]
}

// NewTransferItem shapes rec as a list row.
func NewTransferItem(rec *record.TransferRecord) TransferItem {
	return TransferItem{
		TransferID:     rec.TransferID,
		Role:           string(rec.Role),
		Protocol:       string(rec.Protocol),
		Scheme:         string(rec.Scheme),
		Outcome:        string(rec.Outcome.Status),
		TotalBytes:     rec.TotalBytes,
		ConnectionMs:   ms(rec.ConnectionTime.Seconds()),
		ThroughputMBps: rec.ThroughputMBps,
		StartedAt:      rec.StartedAt,
	}
}

// NewTransferDetail shapes rec for inspect.
func NewTransferDetail(rec *record.TransferRecord) *TransferDetail {
	d := &TransferDetail{
		TransferID:     rec.TransferID,
		Role:           string(rec.Role),
		Protocol:       string(rec.Protocol),
		Scheme:         string(rec.Scheme),
		Peer:           rec.Peer,
		StartedAt:      rec.StartedAt,
		Outcome:        string(rec.Outcome.Status),
		Message:        rec.Outcome.Message,
		TotalBytes:     rec.TotalBytes,
		SignatureSize:  rec.SignatureSize,
		PayloadSize:    rec.PayloadSize,
		ConnectionMs:   ms(rec.ConnectionTime.Seconds()),
		HandshakeMs:    ms(rec.HandshakeTime.Seconds()),
		SignMs:         ms(rec.SignTime.Seconds()),
		VerifyMs:       ms(rec.VerifyTime.Seconds()),
		ThroughputMBps: rec.ThroughputMBps,
		PeakCPUPercent: rec.PeakCPU(),
		PeakMemoryMB:   rec.PeakMemoryMB(),
		SampleCount:    len(rec.Samples),
		TrailingData:   rec.TrailingData,
	}
	if rec.FirstDataLatency != nil {
		latency := ms(rec.FirstDataLatency.Seconds())
		d.FirstDataLatencyMs = &latency
	}
	if rec.Verification != nil {
		d.Verification = string(rec.Verification.Status)
		d.VerificationDetail = rec.Verification.Detail
	}
	return d
}

// ComputeStats aggregates recs. Means are over the records that
// contribute a value; verify time only exists on receiver records.
func ComputeStats(recs []*record.TransferRecord) *TransferStats {
	st := &TransferStats{Total: len(recs)}
	var connSum, tputSum, verifySum float64
	verified := 0
	for _, rec := range recs {
		switch rec.Outcome.Status {
		case types.OutcomeSuccess:
			st.Succeeded++
		case types.OutcomeVerificationFailed:
			st.VerificationFailed++
		case types.OutcomeIncompleteTransfer:
			st.Incomplete++
		case types.OutcomeTransportError:
			st.TransportError++
		}
		if rec.TrailingData {
			st.TrailingData++
		}
		st.TotalBytes += rec.TotalBytes
		connSum += ms(rec.ConnectionTime.Seconds())
		tputSum += rec.ThroughputMBps
		st.MaxThroughputMBps = max(st.MaxThroughputMBps, rec.ThroughputMBps)
		if rec.Verification != nil {
			verifySum += ms(rec.VerifyTime.Seconds())
			verified++
		}
	}
	if st.Total > 0 {
		st.MeanConnectionMs = connSum / float64(st.Total)
		st.MeanThroughputMBps = tputSum / float64(st.Total)
	}
	if verified > 0 {
		st.MeanVerifyMs = verifySum / float64(verified)
	}
	return st
}

func ms(seconds float64) float64 {
	return seconds * 1000
}
