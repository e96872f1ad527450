package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/sigbench/signature"
	"github.com/pithecene-io/sigbench/types"
)

// KeygenCommand returns the keygen command, which writes key pairs into
// --keys-dir for one scheme or for all of them.
func KeygenCommand() *cli.Command {
	return &cli.Command{
		Name:  "keygen",
		Usage: "Generate signing key pairs",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "scheme", Usage: "Signature scheme: rsa, mldsa44, or all", Value: "all"},
			&cli.StringFlag{Name: "keys-dir", Usage: "Key directory", Value: "keys"},
			&cli.BoolFlag{Name: "force", Usage: "Overwrite existing keys"},
		},
		Action: keygenAction,
	}
}

func keygenAction(c *cli.Context) error {
	schemes, err := keygenSchemes(c.String("scheme"))
	if err != nil {
		return err
	}
	dir := c.String("keys-dir")

	for _, scheme := range schemes {
		if !c.Bool("force") {
			if _, err := os.Stat(signature.PrivateKeyPath(dir, scheme)); err == nil {
				return fmt.Errorf("%s key already exists in %s (use --force to overwrite)", scheme, dir)
			} else if !errors.Is(err, os.ErrNotExist) {
				return err
			}
		}

		provider, err := signature.ForScheme(scheme)
		if err != nil {
			return err
		}
		public, private, err := provider.GenerateKey()
		if err != nil {
			return fmt.Errorf("generate %s key: %w", scheme, err)
		}
		if err := signature.WriteKeyPair(dir, scheme, public, private); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(c.App.Writer, "%s: %s (%d bytes public, %d bytes private)\n",
			scheme, signature.PublicKeyPath(dir, scheme), len(public), len(private))
	}
	return nil
}

func keygenSchemes(s string) ([]types.Scheme, error) {
	if s == "" || s == "all" {
		return []types.Scheme{types.SchemeRSA, types.SchemeMLDSA44}, nil
	}
	scheme, err := types.ParseScheme(s)
	if err != nil {
		return nil, err
	}
	return []types.Scheme{scheme}, nil
}
