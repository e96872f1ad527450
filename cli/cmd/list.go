package cmd

import (
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/sigbench/cli/reader"
	"github.com/pithecene-io/sigbench/cli/render"
	"github.com/pithecene-io/sigbench/types"
)

// listWarningThreshold is the number of items above which we warn about using --limit.
const listWarningThreshold = 100

// ListCommand returns the list command with subcommands.
// List returns thin slices, not inspect-level detail.
func ListCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List recorded transfers",
		Subcommands: []*cli.Command{
			listTransfersCommand(),
		},
	}
}

// filterFlags narrow the records read by list and stats.
func filterFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "protocol", Usage: "Filter by protocol: blocking_stream or event_stream"},
		&cli.StringFlag{Name: "scheme", Usage: "Filter by scheme: rsa or mldsa44"},
		&cli.StringFlag{Name: "role", Usage: "Filter by role: sender or receiver"},
		&cli.StringFlag{Name: "outcome", Usage: "Filter by outcome: success, verification_failed, incomplete_transfer, transport_error"},
	}
}

// queryFromFlags builds a reader query. Protocol and scheme accept the
// same aliases as the transfer commands.
func queryFromFlags(c *cli.Context) (reader.Query, error) {
	q := reader.Query{
		Role:    c.String("role"),
		Outcome: c.String("outcome"),
		Limit:   c.Int("limit"),
	}
	if s := c.String("protocol"); s != "" {
		p, err := types.ParseProtocol(s)
		if err != nil {
			return q, err
		}
		q.Protocol = string(p)
	}
	if s := c.String("scheme"); s != "" {
		sc, err := types.ParseScheme(s)
		if err != nil {
			return q, err
		}
		q.Scheme = string(sc)
	}
	return q, nil
}

func listTransfersCommand() *cli.Command {
	return &cli.Command{
		Name:  "transfers",
		Usage: "List transfers, newest first",
		Flags: concat(ReadOnlyFlags(), readSourceFlags(), filterFlags(), []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of transfers to return (0 = no limit)",
				Value: 0,
			},
		}),
		Action: listTransfersAction,
	}
}

func listTransfersAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}

	// TUI not supported for list commands
	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for list commands", 1)
	}

	q, err := queryFromFlags(c)
	if err != nil {
		return err
	}
	src, err := buildReadSource(c.Context, c)
	if err != nil {
		return err
	}

	results, err := reader.New(src).ListTransfers(c.Context, q)
	if err != nil && !errors.Is(err, reader.ErrNotFound) {
		return err
	}
	if results == nil {
		results = []reader.TransferItem{}
	}

	// Warn if output is large and --limit was not specified (TTY only to avoid noise in pipelines)
	if len(results) > listWarningThreshold && q.Limit == 0 && isStderrTTY() {
		_, _ = fmt.Fprintf(c.App.ErrWriter, "Warning: returning %d results. Consider using --limit to reduce output.\n\n", len(results))
	}

	return r.Render(results)
}
