package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/sigbench/cli/reader"
	"github.com/pithecene-io/sigbench/cli/render"
	"github.com/pithecene-io/sigbench/cli/tui"
	"github.com/pithecene-io/sigbench/record"
)

// InspectCommand returns the inspect command with subcommands.
// Inspect returns a deep view of a single transfer.
func InspectCommand() *cli.Command {
	return &cli.Command{
		Name:  "inspect",
		Usage: "Inspect a single transfer (transfer, samples)",
		Subcommands: []*cli.Command{
			inspectTransferCommand(),
			inspectSamplesCommand(),
		},
	}
}

func roleFlag() cli.Flag {
	return &cli.StringFlag{Name: "role", Usage: "Transfer side: sender or receiver (default: receiver if present)"}
}

func inspectTransferCommand() *cli.Command {
	return &cli.Command{
		Name:      "transfer",
		Usage:     "Inspect a transfer by ID",
		ArgsUsage: "<transfer-id>",
		Flags:     concat(TUIReadOnlyFlags(), readSourceFlags(), []cli.Flag{roleFlag()}),
		Action:    inspectTransferAction,
	}
}

func inspectTransferAction(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("transfer-id required", 1)
	}
	transferID := c.Args().First()

	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}
	src, err := buildReadSource(c.Context, c)
	if err != nil {
		return err
	}

	detail, rec, err := reader.New(src).InspectTransfer(c.Context, transferID, c.String("role"))
	if err != nil {
		return notFound(err, "transfer", transferID)
	}

	if c.Bool("tui") {
		return r.RenderTUI(tui.ViewInspectTransfer, detail)
	}
	if r.Format() == render.FormatCSV {
		return r.Render(recordCSV{rec})
	}
	return r.Render(detail)
}

func inspectSamplesCommand() *cli.Command {
	return &cli.Command{
		Name:      "samples",
		Usage:     "Show the resource samples of a transfer",
		ArgsUsage: "<transfer-id>",
		Flags:     concat(ReadOnlyFlags(), readSourceFlags(), []cli.Flag{roleFlag()}),
		Action:    inspectSamplesAction,
	}
}

func inspectSamplesAction(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("transfer-id required", 1)
	}
	transferID := c.Args().First()

	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}
	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for inspect samples", 1)
	}
	src, err := buildReadSource(c.Context, c)
	if err != nil {
		return err
	}

	_, rec, err := reader.New(src).InspectTransfer(c.Context, transferID, c.String("role"))
	if err != nil {
		return notFound(err, "transfer", transferID)
	}
	if r.Format() == render.FormatCSV {
		return r.Render(recordCSV{rec})
	}
	samples := rec.Samples
	if samples == nil {
		samples = []record.SampleRecord{}
	}
	return r.Render(samples)
}

// recordCSV renders a record as the per-sample CSV rows.
type recordCSV struct {
	rec *record.TransferRecord
}

func (r recordCSV) WriteCSV(w io.Writer) error {
	return record.WriteCSV(w, r.rec)
}

func notFound(err error, kind, id string) error {
	if errors.Is(err, reader.ErrNotFound) {
		return cli.Exit(fmt.Sprintf("%s not found: %s", kind, id), 1)
	}
	return err
}
