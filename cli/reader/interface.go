package reader

import (
	"context"

	"github.com/pithecene-io/sigbench/record"
)

// Source loads transfer records, newest first. Implementations return
// ErrNotFound when nothing matches.
type Source interface {
	Transfers(ctx context.Context, q Query) ([]*record.TransferRecord, error)
}

// Reader shapes records from a Source for the CLI commands. It never
// writes.
type Reader struct {
	src Source
}

// New creates a Reader over src.
func New(src Source) *Reader {
	return &Reader{src: src}
}

// ListTransfers returns list rows for records matching q.
func (r *Reader) ListTransfers(ctx context.Context, q Query) ([]TransferItem, error) {
	recs, err := r.src.Transfers(ctx, q)
	if err != nil {
		return nil, err
	}
	items := make([]TransferItem, len(recs))
	for i, rec := range recs {
		items[i] = NewTransferItem(rec)
	}
	return items, nil
}

// InspectTransfer returns one side of a transfer. With an empty role the
// receiver side is preferred, since it carries the verification result.
func (r *Reader) InspectTransfer(ctx context.Context, transferID, role string) (*TransferDetail, *record.TransferRecord, error) {
	recs, err := r.src.Transfers(ctx, Query{TransferID: transferID, Role: role})
	if err != nil {
		return nil, nil, err
	}
	rec := pickSide(recs)
	return NewTransferDetail(rec), rec, nil
}

// Samples returns the sampler rows of one side of a transfer.
func (r *Reader) Samples(ctx context.Context, transferID, role string) ([]record.SampleRecord, error) {
	_, rec, err := r.InspectTransfer(ctx, transferID, role)
	if err != nil {
		return nil, err
	}
	return rec.Samples, nil
}

// Stats aggregates the records matching q.
func (r *Reader) Stats(ctx context.Context, q Query) (*TransferStats, error) {
	recs, err := r.src.Transfers(ctx, q)
	if err != nil {
		return nil, err
	}
	return ComputeStats(recs), nil
}
