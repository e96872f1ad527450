package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/sigbench/cli/config"
	"github.com/pithecene-io/sigbench/metrics"
	"github.com/pithecene-io/sigbench/runtime"
	"github.com/pithecene-io/sigbench/signature"
)

// BenchCommand returns the bench command: receiver and sender in one
// process over loopback. Missing keys are generated into --keys-dir.
func BenchCommand() *cli.Command {
	return &cli.Command{
		Name:  "bench",
		Usage: "Run sender and receiver in-process over loopback",
		Flags: concat(transferFlags(), outputFlags(), []cli.Flag{
			&cli.IntFlag{Name: "iterations", Aliases: []string{"n"}, Usage: "Number of transfers", Value: 1},
			&cli.StringFlag{Name: "addr", Usage: "Loopback listen address", Value: "127.0.0.1:0"},
		}),
		Action: benchAction,
	}
}

func benchAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	transfer, err := buildTransferConfig(c, cfg)
	if err != nil {
		return err
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
	public, private, generated, err := signature.LoadOrGenerate(dir, provider)
	if err != nil {
		return fmt.Errorf("failed to load keys: %w", err)
	}
	if generated {
		logger.Sugar().Infof("generated %s key pair in %s", transfer.Scheme, dir)
	}

	ctx, cancel := signalContext()
	defer cancel()

	sinks, err := buildSinks(ctx, c, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = sinks.Close() }()

	collector := metrics.NewCollector("bench", string(transfer.Protocol), string(transfer.Scheme), sinks.storageBackend)

	result, err := runtime.RunBench(ctx, runtime.BenchConfig{
		Transfer:   transfer,
		Provider:   provider,
		PublicKey:  public,
		PrivateKey: private,
		Iterations: c.Int("iterations"),
		Addr:       c.String("addr"),
		Logger:     logger,
		Collector:  collector,
		Sink:       sinks.Sink(logger, collector),
	})
	if err != nil {
		if result == nil {
			return cli.Exit(fmt.Sprintf("bench failed: %v", err), runtime.ExitCodeTransportError)
		}
		logger.Error("bench ended early", map[string]any{"error": err.Error()})
	}

	reportPath := resolveString(c, "report", configVal(cfg, func(c *config.Config) string { return c.Report }))
	return finish(c, reportPath, result.Results(), collector)
}
