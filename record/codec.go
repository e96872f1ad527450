package record

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/vmihailenco/msgpack/v5"
)

// Encode writes rec as one msgpack value.
func Encode(w io.Writer, rec *TransferRecord) error {
	if err := msgpack.NewEncoder(w).Encode(rec); err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	return nil
}

// DecodeAll reads consecutive msgpack records until EOF.
func DecodeAll(r io.Reader) ([]*TransferRecord, error) {
	dec := msgpack.NewDecoder(r)
	var out []*TransferRecord
	for {
		var rec TransferRecord
		if err := dec.Decode(&rec); err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return out, fmt.Errorf("decode record %d: %w", len(out), err)
		}
		out = append(out, &rec)
	}
}

// AppendFile appends rec to the record file at path, creating it if needed.
func AppendFile(path string, rec *TransferRecord) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open record file: %w", err)
	}
	if err := Encode(f, rec); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// ReadFile reads every record in the file at path.
func ReadFile(path string) ([]*TransferRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open record file: %w", err)
	}
	defer f.Close()
	return DecodeAll(f)
}
