package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/sigbench/metrics"
	"github.com/pithecene-io/sigbench/runtime"
)

// printTransferSummary writes one line per transfer.
func printTransferSummary(w io.Writer, results []*runtime.TransferResult) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "TRANSFER\tROLE\tPROTOCOL\tSCHEME\tOUTCOME\tBYTES\tCONN_MS\tMIB/S\tPEAK_CPU\tPEAK_RSS_MB")
	for _, r := range results {
		rec := r.Record
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%.3f\t%.2f\t%.1f\t%.1f\n",
			rec.TransferID,
			rec.Role,
			rec.Protocol.Short(),
			rec.Scheme,
			rec.Outcome.Status,
			rec.TotalBytes,
			float64(rec.ConnectionTime.Microseconds())/1000,
			rec.ThroughputMBps,
			rec.PeakCPU(),
			rec.PeakMemoryMB(),
		)
	}
}

// finish writes the report if requested and maps the results to an exit
// status. Without results it returns nil.
func finish(c *cli.Context, reportPath string, results []*runtime.TransferResult, collector *metrics.Collector) error {
	if len(results) == 0 {
		return nil
	}
	if !c.Bool("quiet") {
		printTransferSummary(c.App.Writer, results)
	}

	report := runtime.BuildTransferReport(results, collector.Snapshot())
	if reportPath != "" {
		if err := runtime.WriteTransferReport(report, reportPath); err != nil {
			fmt.Fprintf(c.App.ErrWriter, "Warning: %v\n", err)
		}
	}
	if report.ExitCode == runtime.ExitCodeSuccess {
		return nil
	}
	return cli.Exit(report.Message, report.ExitCode)
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
