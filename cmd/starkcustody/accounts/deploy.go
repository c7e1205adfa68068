package accounts

import (
	"context"
	"math/big"

	"github.com/pkg/errors"
	"github.com/starkcustody/starkcustody/cmd/starkcustody/flags"
	"github.com/urfave/cli/v2"
)

func deployAccount(cliCtx *cli.Context) error {
	registry, passphrase, err := newRegistry(cliCtx)
	if err != nil {
		return err
	}
	alias, err := requireString(cliCtx, flags.AliasFlag)
	if err != nil {
		return err
	}
	var key *big.Int
	if raw := cliCtx.String(flags.PrivateKeyFlag.Name); raw != "" {
		key, err = parsePrivateKey(raw)
		if err != nil {
			return err
		}
	}
	contractAddress, err := registry.DeployAccount(context.Background(), alias, key, passphrase)
	if err != nil {
		return errors.Wrapf(err, "could not deploy account %q", alias)
	}
	log.WithField("alias", alias).
		WithField("contractAddress", contractAddress).
		Info("Account contract deployed")
	return nil
}
