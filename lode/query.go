package lode

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/justapithecus/lode/lode"

	"github.com/pithecene-io/sigbench/record"
)

// ErrNoRecordsFound is returned when no transfer record matches a query.
var ErrNoRecordsFound = errors.New("no transfer records found")

// Filter narrows a transfer query. Empty fields match everything.
type Filter struct {
	TransferID string
	Protocol   string
	Scheme     string
	Role       string
}

func (f Filter) matches(m map[string]any) bool {
	return matchField(m, "transfer_id", f.TransferID) &&
		matchField(m, "protocol", f.Protocol) &&
		matchField(m, "scheme", f.Scheme) &&
		matchField(m, "role", f.Role)
}

func matchField(m map[string]any, key, want string) bool {
	return want == "" || toString(m[key]) == want
}

// QueryTransfers returns up to limit transfer records, newest snapshot first.
// A limit of zero or less returns every match. Records repeated across
// snapshots are returned once.
func QueryTransfers(ctx context.Context, ds lode.Dataset, f Filter, limit int) ([]map[string]any, error) {
	snapshots, err := ds.Snapshots(ctx)
	if err != nil {
		return nil, WrapReadError(err, fmt.Sprintf("%s/snapshots", ds.ID()))
	}

	var out []map[string]any
	seen := make(map[string]struct{})

	// Iterate in reverse (latest first), snapshots are ordered by creation time
	for i := len(snapshots) - 1; i >= 0; i-- {
		snap := snapshots[i]

		if !snapshotMatchesFilter(snap, "record_kind", RecordKindTransfer) ||
			!snapshotMatchesFilter(snap, "protocol", f.Protocol) ||
			!snapshotMatchesFilter(snap, "scheme", f.Scheme) ||
			!snapshotMatchesFilter(snap, "role", f.Role) {
			continue
		}

		data, err := ds.Read(ctx, snap.ID)
		if err != nil {
			return nil, WrapReadError(err, fmt.Sprintf("%s/snapshot/%s", ds.ID(), snap.ID))
		}

		// Manifest path filtering is a coarse pre-filter; record fields
		// are authoritative. Later records in a snapshot are newer.
		for j := len(data) - 1; j >= 0; j-- {
			rec, ok := data[j].(map[string]any)
			if !ok || rec["record_kind"] != RecordKindTransfer || !f.matches(rec) {
				continue
			}
			key := toString(rec["transfer_id"]) + "/" + toString(rec["role"])
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, rec)
			if limit > 0 && len(out) >= limit {
				return out, nil
			}
		}
	}

	if len(out) == 0 {
		return nil, ErrNoRecordsFound
	}
	return out, nil
}

// QueryLatestTransfer returns the most recent transfer record matching f.
func QueryLatestTransfer(ctx context.Context, ds lode.Dataset, f Filter) (map[string]any, error) {
	recs, err := QueryTransfers(ctx, ds, f, 1)
	if err != nil {
		return nil, err
	}
	return recs[0], nil
}

// QuerySamples returns the sample records of one side of a transfer,
// ordered by sequence number.
func QuerySamples(ctx context.Context, ds lode.Dataset, transferID, role string) ([]map[string]any, error) {
	snapshots, err := ds.Snapshots(ctx)
	if err != nil {
		return nil, WrapReadError(err, fmt.Sprintf("%s/snapshots", ds.ID()))
	}

	bySeq := make(map[int64]map[string]any)
	for _, snap := range snapshots {
		if !snapshotMatchesFilter(snap, "record_kind", RecordKindSample) ||
			!snapshotMatchesFilter(snap, "role", role) {
			continue
		}
		data, err := ds.Read(ctx, snap.ID)
		if err != nil {
			return nil, WrapReadError(err, fmt.Sprintf("%s/snapshot/%s", ds.ID(), snap.ID))
		}
		for _, item := range data {
			rec, ok := item.(map[string]any)
			if !ok || rec["record_kind"] != RecordKindSample {
				continue
			}
			if toString(rec["transfer_id"]) != transferID || !matchField(rec, "role", role) {
				continue
			}
			bySeq[toInt64(rec["seq"])] = rec
		}
	}

	seqs := make([]int64, 0, len(bySeq))
	for seq := range bySeq {
		seqs = append(seqs, seq)
	}
	slices.Sort(seqs)

	out := make([]map[string]any, len(seqs))
	for i, seq := range seqs {
		out[i] = bySeq[seq]
	}
	return out, nil
}

// LoadTransfer queries the latest transfer matching f and decodes it with
// its samples.
func LoadTransfer(ctx context.Context, ds lode.Dataset, f Filter) (*record.TransferRecord, error) {
	m, err := QueryLatestTransfer(ctx, ds, f)
	if err != nil {
		return nil, err
	}
	samples, err := QuerySamples(ctx, ds, toString(m["transfer_id"]), toString(m["role"]))
	if err != nil {
		return nil, err
	}
	return DecodeTransfer(m, samples), nil
}

// snapshotMatchesFilter checks if a snapshot's file paths match
// the given partition key=value filter.
func snapshotMatchesFilter(snap *lode.DatasetSnapshot, key, value string) bool {
	if value == "" {
		return true
	}
	for _, f := range snap.Manifest.Files {
		if matchesPartitionValue(f.Path, key, value) {
			return true
		}
	}
	return false
}

// matchesPartitionValue checks if a Hive-partitioned path contains an exact
// key=value segment, so role=send does not match role=sender.
func matchesPartitionValue(path, key, value string) bool {
	segment := key + "=" + value
	for _, part := range strings.Split(path, "/") {
		if part == segment {
			return true
		}
	}
	return false
}
