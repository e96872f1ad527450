package cmd

import (
	"errors"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/sigbench/cli/reader"
	"github.com/pithecene-io/sigbench/cli/render"
	"github.com/pithecene-io/sigbench/cli/tui"
)

// StatsCommand returns the stats command with subcommands.
// Stats returns aggregated, derived facts.
func StatsCommand() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Show aggregated transfer statistics",
		Subcommands: []*cli.Command{
			statsTransfersCommand(),
		},
	}
}

func statsTransfersCommand() *cli.Command {
	return &cli.Command{
		Name:   "transfers",
		Usage:  "Show outcome counts and mean timings",
		Flags:  concat(TUIReadOnlyFlags(), readSourceFlags(), filterFlags()),
		Action: statsTransfersAction,
	}
}

func statsTransfersAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}
	q, err := queryFromFlags(c)
	if err != nil {
		return err
	}
	src, err := buildReadSource(c.Context, c)
	if err != nil {
		return err
	}

	stats, err := reader.New(src).Stats(c.Context, q)
	if errors.Is(err, reader.ErrNotFound) {
		stats, err = reader.ComputeStats(nil), nil
	}
	if err != nil {
		return err
	}

	if c.Bool("tui") {
		return r.RenderTUI(tui.ViewStatsTransfers, stats)
	}
	return r.Render(stats)
}
