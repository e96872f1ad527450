// Package main provides the sigbench CLI entrypoint.
//
// serve, send and bench move signed frames and record each transfer.
// keygen writes key pairs. inspect, list, stats and version are read-only.
//
// Usage:
//
//	sigbench <command> [subcommand] [options]
//
// Exit codes for serve, send and bench (worst outcome across transfers):
//   - 0: success
//   - 1: verification failed (also usage and configuration errors)
//   - 2: incomplete transfer
//   - 3: transport error
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/sigbench/cli/cmd"
	"github.com/pithecene-io/sigbench/types"
)

// Commit is set via ldflags at build time.
var commit = "unknown"

func main() {
	app := &cli.App{
		Name:           "sigbench",
		Usage:          "Signed payload transfer benchmark over TLS/TCP and QUIC",
		Version:        fmt.Sprintf("%s (commit: %s)", types.Version, commit),
		ExitErrHandler: exitErrHandler,
		Commands: []*cli.Command{
			cmd.ServeCommand(),
			cmd.SendCommand(),
			cmd.BenchCommand(),
			cmd.KeygenCommand(),
			cmd.InspectCommand(),
			cmd.ListCommand(),
			cmd.StatsCommand(),
			cmd.VersionCommand("", commit),
		},
	}

	if err := app.Run(os.Args); err != nil {
		// ExitErrHandler already exited for every non-nil error.
		os.Exit(1)
	}
}

// exitErrHandler prints err and exits, preserving codes from cli.Exit().
func exitErrHandler(_ *cli.Context, err error) {
	if err == nil {
		return
	}
	code, msg := exitStatus(err)
	if msg != "" {
		fmt.Fprintln(os.Stderr, msg)
	}
	os.Exit(code)
}

// exitStatus maps err to a process exit code and the message to print.
// cli.Exit("", N) prints nothing; any other error exits 1.
func exitStatus(err error) (int, string) {
	var exitCoder cli.ExitCoder
	if errors.As(err, &exitCoder) {
		code := exitCoder.ExitCode()
		msg := exitCoder.Error()
		if msg == fmt.Sprintf("exit status %d", code) {
			msg = ""
		}
		return code, msg
	}
	return 1, fmt.Sprintf("Error: %v", err)
}
