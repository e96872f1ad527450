package cmd

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/sigbench/cli/config"
	"github.com/pithecene-io/sigbench/metrics"
	"github.com/pithecene-io/sigbench/runtime"
	"github.com/pithecene-io/sigbench/signature"
	"github.com/pithecene-io/sigbench/types"
)

// ServeCommand returns the serve command: the receiving side of the
// benchmark. Each connection carries one frame, which is reassembled,
// verified against the sender's public key and recorded.
func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Receive signed frames and record each transfer",
		Flags: concat(transferFlags(), tlsFlags(), outputFlags(), []cli.Flag{
			&cli.StringFlag{Name: "addr", Usage: "Listen address", Value: ":4433"},
			&cli.IntFlag{Name: "max-transfers", Usage: "Stop after this many connections (0 = until interrupted)"},
			&cli.StringFlag{Name: "metrics-addr", Usage: "Serve Prometheus counters on this address at /metrics (empty disables)"},
		}),
		Action: serveAction,
	}
}

func serveAction(c *cli.Context) error {
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
	publicKey, err := signature.LoadPublicKey(dir, transfer.Scheme)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("no %s public key in %s (run `sigbench keygen --scheme %s`)", transfer.Scheme, dir, transfer.Scheme)
		}
		return err
	}

	serverTLS, err := buildServerTLS(c, cfg)
	if err != nil {
		return fmt.Errorf("failed to configure TLS: %w", err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	sinks, err := buildSinks(ctx, c, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = sinks.Close() }()

	collector := metrics.NewCollector(string(types.RoleReceiver), string(transfer.Protocol), string(transfer.Scheme), sinks.storageBackend)
	if addr := resolveString(c, "metrics-addr", configVal(cfg, func(c *config.Config) string { return c.MetricsAddr })); addr != "" {
		stop, err := serveMetrics(addr, collector, logger)
		if err != nil {
			return err
		}
		defer stop()
	}

	receiver, err := runtime.NewReceiver(runtime.ReceiverConfig{
		Transfer:  transfer,
		Provider:  provider,
		PublicKey: publicKey,
		Logger:    logger,
		Collector: collector,
	})
	if err != nil {
		return err
	}

	var (
		mu      sync.Mutex
		results []*runtime.TransferResult
	)
	srv, err := runtime.NewServer(runtime.ServerConfig{
		Protocol:     transfer.Protocol,
		Addr:         resolveString(c, "addr", configVal(cfg, func(c *config.Config) string { return c.Addr })),
		TLS:          serverTLS,
		Receiver:     receiver,
		Sink:         sinks.Sink(logger, collector),
		Logger:       logger,
		MaxTransfers: c.Int("max-transfers"),
		OnResult: func(r *runtime.TransferResult) {
			mu.Lock()
			results = append(results, r)
			mu.Unlock()
		},
	})
	if err != nil {
		return err
	}

	if err := srv.Serve(ctx); err != nil {
		return cli.Exit(fmt.Sprintf("server failed: %v", err), runtime.ExitCodeTransportError)
	}

	reportPath := resolveString(c, "report", configVal(cfg, func(c *config.Config) string { return c.Report }))
	return finish(c, reportPath, results, collector)
}
