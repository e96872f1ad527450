package runtime

import (
	"context"
	"errors"
	"sync"

	"github.com/pithecene-io/sigbench/log"
	"github.com/pithecene-io/sigbench/metrics"
	"github.com/pithecene-io/sigbench/record"
)

// RecordSink receives finished transfer records.
type RecordSink interface {
	WriteRecord(ctx context.Context, rec *record.TransferRecord) error
}

// RecordSinkFunc adapts a function to RecordSink.
type RecordSinkFunc func(ctx context.Context, rec *record.TransferRecord) error

// WriteRecord implements RecordSink.
func (f RecordSinkFunc) WriteRecord(ctx context.Context, rec *record.TransferRecord) error {
	return f(ctx, rec)
}

// FileSink appends records to a msgpack record file. Safe for concurrent use.
type FileSink struct {
	mu   sync.Mutex
	path string
}

// NewFileSink creates a sink appending to path.
func NewFileSink(path string) *FileSink {
	return &FileSink{path: path}
}

// WriteRecord implements RecordSink.
func (f *FileSink) WriteRecord(_ context.Context, rec *record.TransferRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return record.AppendFile(f.path, rec)
}

// NamedSink pairs a sink with a label for logging and metrics.
type NamedSink struct {
	Name string
	Sink RecordSink
	// Publish marks notification sinks, counted as publishes rather than writes.
	Publish bool
}

// Dispatcher fans records out to every sink. Sink failures are logged and
// counted; they never change a transfer's outcome.
type Dispatcher struct {
	sinks     []NamedSink
	logger    *log.Logger
	collector *metrics.Collector
}

// NewDispatcher creates a dispatcher. logger may be nil.
func NewDispatcher(logger *log.Logger, collector *metrics.Collector, sinks ...NamedSink) *Dispatcher {
	if logger == nil {
		logger = log.Nop()
	}
	return &Dispatcher{sinks: sinks, logger: logger, collector: collector}
}

// Len returns the number of sinks.
func (d *Dispatcher) Len() int {
	if d == nil {
		return 0
	}
	return len(d.sinks)
}

// WriteRecord implements RecordSink. It always returns nil.
func (d *Dispatcher) WriteRecord(ctx context.Context, rec *record.TransferRecord) error {
	if d == nil {
		return nil
	}
	for _, s := range d.sinks {
		err := s.Sink.WriteRecord(ctx, rec)
		switch {
		case err != nil && s.Publish:
			d.collector.IncPublishFailure()
		case err != nil:
			d.collector.IncRecordWriteFailure()
		case s.Publish:
			d.collector.IncPublishSuccess()
		default:
			d.collector.IncRecordWriteSuccess()
		}
		if err != nil {
			d.logger.Warn("record sink failed", map[string]any{
				"sink":        s.Name,
				"transfer_id": rec.TransferID,
				"transient":   isTransient(err),
				"error":       err.Error(),
			})
		}
	}
	return nil
}

// isTransient reports whether err says a retry may succeed, as storage
// errors do for timeouts and throttling.
func isTransient(err error) bool {
	var t interface{ Transient() bool }
	return errors.As(err, &t) && t.Transient()
}
