package lode

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/justapithecus/lode/lode"

	"github.com/pithecene-io/sigbench/record"
)

// LodeClient is a Lode-backed implementation of Client.
type LodeClient struct {
	dataset lode.Dataset
	config  Config

	// storeFactory backs sidecar files, which bypass the dataset.
	storeFactory lode.StoreFactory
	storeOnce    sync.Once
	store        lode.Store
	storeErr     error
}

// NewLodeClientWithFactory creates a Lode client with a custom store factory.
// Use lode.NewMemoryFactory() for testing.
func NewLodeClientWithFactory(cfg Config, factory lode.StoreFactory) (*LodeClient, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	ds, err := newDataset(cfg.Dataset, factory)
	if err != nil {
		return nil, WrapInitError(err, cfg.Dataset)
	}
	return newClient(ds, cfg, factory), nil
}

func newClient(ds lode.Dataset, cfg Config, factory lode.StoreFactory) *LodeClient {
	return &LodeClient{
		dataset:      ds,
		config:       cfg,
		storeFactory: factory,
	}
}

func newDataset(dataset string, factory lode.StoreFactory) (lode.Dataset, error) {
	return lode.NewDataset(
		lode.DatasetID(dataset),
		factory,
		lode.WithHiveLayout(partitionKeys...),
		lode.WithCodec(lode.NewJSONLCodec()),
	)
}

// WriteRecord writes the transfer record and its samples in one snapshot.
// With WriteCSV set, the CSV rows are stored next to it as
// <transfer_id>_<role>.csv.
func (c *LodeClient) WriteRecord(ctx context.Context, rec *record.TransferRecord) error {
	if rec == nil {
		return nil
	}
	records := make([]any, 0, len(rec.Samples)+1)
	records = append(records, toTransferRecordMap(rec))
	for _, s := range toSampleRecordMaps(rec) {
		records = append(records, s)
	}

	if _, err := c.dataset.Write(ctx, records, lode.Metadata{}); err != nil {
		return WrapWriteError(err, c.partitionPath(rec))
	}

	if !c.config.WriteCSV {
		return nil
	}
	var buf bytes.Buffer
	if err := record.WriteCSV(&buf, rec); err != nil {
		return fmt.Errorf("encode csv sidecar: %w", err)
	}
	return c.PutFile(ctx, rec, csvFilename(rec), "text/csv", buf.Bytes())
}

// Close releases client resources.
func (c *LodeClient) Close() error {
	return nil
}

// partitionDir is the transfer-level Hive partition of rec.
func partitionDir(rec *record.TransferRecord) string {
	return fmt.Sprintf("protocol=%s/scheme=%s/day=%s/role=%s",
		rec.Protocol, rec.Scheme, DeriveDay(rec.StartedAt), rec.Role)
}

func (c *LodeClient) partitionPath(rec *record.TransferRecord) string {
	return c.config.Dataset + "/" + partitionDir(rec)
}

func csvFilename(rec *record.TransferRecord) string {
	return fmt.Sprintf("%s_%s.csv", rec.TransferID, rec.Role)
}

var _ Client = (*LodeClient)(nil)
