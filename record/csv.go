package record

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// Header is the column order of Rows.
var Header = []string{
	"elapsed_seconds",
	"cpu_percent",
	"memory_mb",
	"throughput_mb_per_s",
	"connection_time_s",
	"total_bytes",
	"first_data_latency_s",
}

// Row is one line of tabular output. Per-transfer columns repeat on every row.
type Row struct {
	ElapsedSeconds    float64
	CPUPercent        float64
	MemoryMB          float64
	ThroughputMBps    float64
	ConnectionTimeS   float64
	TotalBytes        int64
	FirstDataLatencyS *float64
}

// Rows flattens the record into one row per sample. A record without
// samples yields a single summary row at the end of the transfer.
func (r *TransferRecord) Rows() []Row {
	var latency *float64
	if r.FirstDataLatency != nil {
		v := r.FirstDataLatency.Seconds()
		latency = &v
	}
	conn := r.ConnectionTime.Seconds()

	if len(r.Samples) == 0 {
		return []Row{{
			ElapsedSeconds:    conn,
			ThroughputMBps:    r.ThroughputMBps,
			ConnectionTimeS:   conn,
			TotalBytes:        r.TotalBytes,
			FirstDataLatencyS: latency,
		}}
	}

	rows := make([]Row, len(r.Samples))
	for i, s := range r.Samples {
		rows[i] = Row{
			ElapsedSeconds:    s.ElapsedSeconds,
			CPUPercent:        s.CPUPercent,
			MemoryMB:          s.MemoryMB,
			ThroughputMBps:    s.ThroughputMBps,
			ConnectionTimeS:   conn,
			TotalBytes:        r.TotalBytes,
			FirstDataLatencyS: latency,
		}
	}
	return rows
}

func (row Row) strings() []string {
	latency := ""
	if row.FirstDataLatencyS != nil {
		latency = formatFloat(*row.FirstDataLatencyS)
	}
	return []string{
		formatFloat(row.ElapsedSeconds),
		formatFloat(row.CPUPercent),
		formatFloat(row.MemoryMB),
		formatFloat(row.ThroughputMBps),
		formatFloat(row.ConnectionTimeS),
		strconv.FormatInt(row.TotalBytes, 10),
		latency,
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

// WriteCSV writes the header followed by the rows of every record.
func WriteCSV(w io.Writer, records ...*TransferRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, rec := range records {
		for _, row := range rec.Rows() {
			if err := cw.Write(row.strings()); err != nil {
				return fmt.Errorf("write csv row: %w", err)
			}
		}
	}
	cw.Flush()
	return cw.Error()
}
