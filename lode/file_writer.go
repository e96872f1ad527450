package lode

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/justapithecus/lode/lode"

	"github.com/pithecene-io/sigbench/record"
)

// FileWriter stores sidecar files next to a transfer's records. Sidecars go
// straight to the store; they are not part of any dataset snapshot.
type FileWriter interface {
	// PutFile writes a file under the transfer's partition. The filename
	// must not contain path separators or "..".
	PutFile(ctx context.Context, rec *record.TransferRecord, filename, contentType string, data []byte) error
}

var _ FileWriter = (*LodeClient)(nil)

// PutFile writes a sidecar file to the Lode store at the computed Hive path.
func (c *LodeClient) PutFile(ctx context.Context, rec *record.TransferRecord, filename, _ string, data []byte) error {
	if err := validateFilename(filename); err != nil {
		return err
	}
	store, err := c.sidecarStore()
	if err != nil {
		return WrapInitError(fmt.Errorf("file write store init failed: %w", err), c.config.Dataset)
	}

	key := c.buildFilePath(rec, filename)
	if err := store.Put(ctx, key, bytes.NewReader(data)); err != nil {
		return WrapWriteError(err, key)
	}
	return nil
}

func (c *LodeClient) sidecarStore() (lode.Store, error) {
	c.storeOnce.Do(func() {
		c.store, c.storeErr = c.storeFactory()
	})
	return c.store, c.storeErr
}

// buildFilePath places sidecars beside the transfer's partition:
// datasets/<dataset>/partitions/<partitionDir>/files/<filename>.
func (c *LodeClient) buildFilePath(rec *record.TransferRecord, filename string) string {
	return path.Join("datasets", c.config.Dataset, "partitions", partitionDir(rec), "files", filename)
}

func validateFilename(name string) error {
	if name == "" || strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return fmt.Errorf("invalid sidecar filename %q", name)
	}
	return nil
}
