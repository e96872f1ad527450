package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/sigbench/cli/config"
	"github.com/pithecene-io/sigbench/iox"
	"github.com/pithecene-io/sigbench/metrics"
	"github.com/pithecene-io/sigbench/runtime"
	"github.com/pithecene-io/sigbench/signature"
	"github.com/pithecene-io/sigbench/types"
)

// SendCommand returns the send command: the sending side of the benchmark.
// Each iteration signs the payload once and writes one frame over a fresh
// connection.
func SendCommand() *cli.Command {
	return &cli.Command{
		Name:  "send",
		Usage: "Sign a payload and send it as one frame per connection",
		Flags: concat(transferFlags(), tlsFlags(), outputFlags(), []cli.Flag{
			&cli.StringFlag{Name: "addr", Usage: "Receiver address", Value: "localhost:4433"},
			&cli.IntFlag{Name: "iterations", Aliases: []string{"n"}, Usage: "Number of transfers", Value: 1},
		}),
		Action: sendAction,
	}
}

func sendAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	transfer, err := buildTransferConfig(c, cfg)
	if err != nil {
		return err
	}
	iterations := c.Int("iterations")
	if iterations <= 0 {
		return fmt.Errorf("--iterations must be > 0, got %d", iterations)
	}
	logger, err := buildLogger(c, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	provider, err := signature.ForScheme(transfer.Scheme)
	if err != nil {
		return err
	}
	dir := keysDir(c, cfg)
	privateKey, err := signature.LoadPrivateKey(dir, transfer.Scheme)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("no %s private key in %s (run `sigbench keygen --scheme %s`)", transfer.Scheme, dir, transfer.Scheme)
		}
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	sinks, err := buildSinks(ctx, c, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = sinks.Close() }()

	collector := metrics.NewCollector(string(types.RoleSender), string(transfer.Protocol), string(transfer.Scheme), sinks.storageBackend)
	sink := sinks.Sink(logger, collector)

	sender, err := runtime.NewSender(runtime.SenderConfig{
		Transfer:   transfer,
		Provider:   provider,
		PrivateKey: privateKey,
		Logger:     logger,
		Collector:  collector,
	})
	if err != nil {
		return err
	}

	addr := resolveString(c, "addr", configVal(cfg, func(c *config.Config) string { return c.Addr }))
	clientTLS := buildClientTLS(c, cfg)

	var results []*runtime.TransferResult
	for i := 0; i < iterations; i++ {
		msg, err := sender.Sign()
		if err != nil {
			return err
		}
		conn, info, err := runtime.Dial(ctx, transfer.Protocol, addr, clientTLS)
		if err != nil {
			logger.Error("dial failed", map[string]any{"addr": addr, "error": err.Error()})
			return cli.Exit(fmt.Sprintf("dial %s: %v", addr, err), runtime.ExitCodeTransportError)
		}
		result := sender.Send(ctx, info, msg, conn, conn)
		iox.DiscardClose(conn)

		if sink != nil {
			if err := sink.WriteRecord(ctx, result.Record); err != nil {
				logger.Warn("record sink failed", map[string]any{"error": err.Error()})
			}
		}
		results = append(results, result)
		if ctx.Err() != nil {
			break
		}
	}

	reportPath := resolveString(c, "report", configVal(cfg, func(c *config.Config) string { return c.Report }))
	return finish(c, reportPath, results, collector)
}
