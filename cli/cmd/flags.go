// Package cmd provides CLI commands for the sigbench binary.
package cmd

import (
	"os"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/sigbench/adapter/redis"
	"github.com/pithecene-io/sigbench/frame"
	"github.com/pithecene-io/sigbench/lode"
	"github.com/pithecene-io/sigbench/runtime"
	"github.com/pithecene-io/sigbench/sampler"
)

// Shared flags for read-only commands.
var (
	// FormatFlag selects output format.
	FormatFlag = &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: json, table, yaml, csv",
	}

	// NoColorFlag disables colored output.
	NoColorFlag = &cli.BoolFlag{
		Name:  "no-color",
		Usage: "Disable colored output",
	}

	// TUIFlag enables Bubble Tea interactive mode.
	// Only valid for inspect and stats.
	TUIFlag = &cli.BoolFlag{
		Name:  "tui",
		Usage: "Enable interactive TUI mode (inspect, stats only)",
	}

	// ConfigFlag points at a sigbench.yaml file.
	ConfigFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "Path to sigbench.yaml; flags override file values",
	}
)

// ReadOnlyFlags returns the shared flags for all read-only commands.
// Includes --tui so that unsupported commands can give an explicit error
// instead of a generic "flag not defined".
func ReadOnlyFlags() []cli.Flag {
	return []cli.Flag{
		FormatFlag,
		NoColorFlag,
		TUIFlag,
	}
}

// TUIReadOnlyFlags returns flags for commands that support TUI mode.
func TUIReadOnlyFlags() []cli.Flag {
	return ReadOnlyFlags()
}

// transferFlags are the parameters both sides of a transfer must agree on.
func transferFlags() []cli.Flag {
	return []cli.Flag{
		ConfigFlag,
		&cli.StringFlag{Name: "protocol", Aliases: []string{"p"}, Usage: "Transport: tcp (blocking_stream) or quic (event_stream)", Value: "tcp"},
		&cli.StringFlag{Name: "scheme", Aliases: []string{"s"}, Usage: "Signature scheme: rsa or mldsa44", Value: "mldsa44"},
		&cli.IntFlag{Name: "payload-size", Usage: "Payload length in bytes", Value: frame.DefaultPayloadSize},
		&cli.IntFlag{Name: "chunk-size", Usage: "Maximum bytes per write or read", Value: frame.DefaultChunkSize},
		&cli.IntFlag{Name: "max-signature-size", Usage: "Largest accepted signature length prefix", Value: frame.DefaultMaxSignatureSize},
		&cli.DurationFlag{Name: "sample-interval", Usage: "Resource sampler period", Value: sampler.DefaultInterval},
		&cli.DurationFlag{Name: "drain-timeout", Usage: "Receiver wait for end of stream after the frame", Value: runtime.DefaultDrainTimeout},
		&cli.DurationFlag{Name: "close-timeout", Usage: "Sender wait for the receiver to close", Value: runtime.DefaultCloseTimeout},
		&cli.StringFlag{Name: "keys-dir", Usage: "Directory holding <scheme>_public.key and <scheme>_private.key", Value: "keys"},
		&cli.StringFlag{Name: "log-level", Usage: "Log level: debug, info, warn, error", Value: "info"},
	}
}

func tlsFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "tls-cert", Usage: "PEM certificate (server); empty uses an ephemeral self-signed certificate"},
		&cli.StringFlag{Name: "tls-key", Usage: "PEM private key (server)"},
		&cli.StringFlag{Name: "tls-server-name", Usage: "Expected server name (client)", Value: "localhost"},
		&cli.BoolFlag{Name: "tls-insecure", Usage: "Skip server certificate verification (client)"},
	}
}

// outputFlags control where transfer records go.
func outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "record-out", Usage: "Append msgpack transfer records to this file"},
		&cli.StringFlag{Name: "report", Usage: "Write a JSON transfer report to this path (- for stderr)"},
		&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: "Suppress the summary"},
		&cli.StringFlag{Name: "storage-dataset", Usage: "Lode dataset ID", Value: lode.DefaultDataset},
		&cli.StringFlag{Name: "storage-backend", Usage: "Record storage backend: fs or s3"},
		&cli.StringFlag{Name: "storage-path", Usage: "Storage path (fs: directory, s3: bucket/prefix)"},
		&cli.StringFlag{Name: "storage-region", Usage: "AWS region for S3 backend (optional, uses default chain)"},
		&cli.StringFlag{Name: "storage-endpoint", Usage: "Custom S3 endpoint URL (MinIO, R2)"},
		&cli.BoolFlag{Name: "storage-s3-path-style", Usage: "Force path-style S3 addressing"},
		&cli.BoolFlag{Name: "storage-write-csv", Usage: "Also store each transfer's CSV rows as a sidecar file"},
		&cli.StringFlag{Name: "adapter", Usage: "Completion notification adapter: webhook or redis"},
		&cli.StringFlag{Name: "adapter-url", Usage: "Webhook endpoint or Redis URL"},
		&cli.StringFlag{Name: "adapter-channel", Usage: "Redis pub/sub channel"},
		&cli.StringSliceFlag{Name: "adapter-header", Usage: "Webhook header as key=value (repeatable)"},
		&cli.DurationFlag{Name: "adapter-timeout", Usage: "Per-publish timeout"},
		&cli.IntFlag{Name: "adapter-retries", Usage: "Publish retry attempts"},
		&cli.StringFlag{Name: "adapter-secret", Usage: "HMAC-SHA256 key for the webhook signature header", EnvVars: []string{"SIGBENCH_WEBHOOK_SECRET"}},
		&cli.StringFlag{Name: "adapter-history-key", Usage: "Redis list that keeps recent events (empty disables)"},
		&cli.Int64Flag{Name: "adapter-history-len", Usage: "Maximum length of the Redis history list", Value: redis.DefaultHistoryLen},
	}
}

// readSourceFlags select where read-only commands load records from.
func readSourceFlags() []cli.Flag {
	return []cli.Flag{
		ConfigFlag,
		&cli.StringFlag{Name: "file", Usage: "Msgpack record file written with --record-out"},
		&cli.StringFlag{Name: "storage-dataset", Usage: "Lode dataset ID", Value: lode.DefaultDataset},
		&cli.StringFlag{Name: "storage-backend", Usage: "Storage backend: fs or s3"},
		&cli.StringFlag{Name: "storage-path", Usage: "Storage path (fs: directory, s3: bucket/prefix)"},
		&cli.StringFlag{Name: "storage-region", Usage: "AWS region for S3 backend"},
		&cli.StringFlag{Name: "storage-endpoint", Usage: "Custom S3 endpoint URL"},
		&cli.BoolFlag{Name: "storage-s3-path-style", Usage: "Force path-style S3 addressing"},
	}
}

func concat(groups ...[]cli.Flag) []cli.Flag {
	var out []cli.Flag
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// isStderrTTY returns true if stderr is a TTY.
func isStderrTTY() bool {
	info, err := os.Stderr.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
