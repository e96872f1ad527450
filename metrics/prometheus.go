package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "sigbench"

type counterDesc struct {
	desc  *prometheus.Desc
	value func(Snapshot) int64
}

// exporter exposes a Collector's Snapshot as Prometheus counters. Values
// are read at scrape time; the Collector stays the only source of truth.
type exporter struct {
	c        *Collector
	counters []counterDesc
}

func newExporter(c *Collector) *exporter {
	s := c.Snapshot()
	labels := prometheus.Labels{
		"role":            s.Role,
		"protocol":        s.Protocol,
		"scheme":          s.Scheme,
		"storage_backend": s.StorageBackend,
	}
	counter := func(name, help string, value func(Snapshot) int64) counterDesc {
		return counterDesc{
			desc:  prometheus.NewDesc(prometheus.BuildFQName(namespace, "", name), help, nil, labels),
			value: value,
		}
	}
	return &exporter{c: c, counters: []counterDesc{
		counter("transfers_started_total", "Transfers started.", func(s Snapshot) int64 { return s.TransfersStarted }),
		counter("transfers_succeeded_total", "Transfers verified successfully.", func(s Snapshot) int64 { return s.TransfersSucceeded }),
		counter("verification_failures_total", "Transfers whose signature did not verify.", func(s Snapshot) int64 { return s.VerificationFailures }),
		counter("incomplete_transfers_total", "Transfers that ended before the frame completed.", func(s Snapshot) int64 { return s.IncompleteTransfers }),
		counter("transport_errors_total", "Transfers that failed in the transport.", func(s Snapshot) int64 { return s.TransportErrors }),
		counter("bytes_total", "Bytes counted by the resource sampler.", func(s Snapshot) int64 { return s.BytesTransferred }),
		counter("trailing_data_total", "Connections that sent bytes after the frame.", func(s Snapshot) int64 { return s.TrailingData }),
		counter("record_write_success_total", "Successful record writes.", func(s Snapshot) int64 { return s.RecordWriteSuccess }),
		counter("record_write_failure_total", "Failed record writes.", func(s Snapshot) int64 { return s.RecordWriteFailure }),
		counter("publish_success_total", "Delivered completion notifications.", func(s Snapshot) int64 { return s.PublishSuccess }),
		counter("publish_failure_total", "Failed completion notifications.", func(s Snapshot) int64 { return s.PublishFailure }),
	}}
}

func (e *exporter) Describe(ch chan<- *prometheus.Desc) {
	for _, cd := range e.counters {
		ch <- cd.desc
	}
}

func (e *exporter) Collect(ch chan<- prometheus.Metric) {
	s := e.c.Snapshot()
	for _, cd := range e.counters {
		ch <- prometheus.MustNewConstMetric(cd.desc, prometheus.CounterValue, float64(cd.value(s)))
	}
}

// Registry returns a registry exporting c's counters.
func Registry(c *Collector) *prometheus.Registry {
	r := prometheus.NewRegistry()
	r.MustRegister(newExporter(c))
	return r
}

// Handler serves c's counters in the Prometheus text format.
func Handler(c *Collector) http.Handler {
	return promhttp.HandlerFor(Registry(c), promhttp.HandlerOpts{})
}
