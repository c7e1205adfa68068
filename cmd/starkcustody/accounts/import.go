package accounts

import (
	"github.com/pkg/errors"
	"github.com/starkcustody/starkcustody/cmd/starkcustody/flags"
	"github.com/urfave/cli/v2"
)

func importAccount(cliCtx *cli.Context) error {
	registry, passphrase, err := newRegistry(cliCtx)
	if err != nil {
		return err
	}
	alias, err := requireString(cliCtx, flags.AliasFlag)
	if err != nil {
		return err
	}
	rawKey, err := requireString(cliCtx, flags.PrivateKeyFlag)
	if err != nil {
		return err
	}
	contractAddress, err := requireString(cliCtx, flags.ContractAddressFlag)
	if err != nil {
		return err
	}
	key, err := parsePrivateKey(rawKey)
	if err != nil {
		return err
	}
	networkName := cliCtx.String(flags.NetworkFlag.Name)
	if err := registry.ImportAccount(alias, networkName, contractAddress, key, passphrase); err != nil {
		return errors.Wrapf(err, "could not import account %q", alias)
	}
	log.WithField("alias", alias).Info("Account imported")
	return nil
}
