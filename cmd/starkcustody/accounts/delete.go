package accounts

import (
	"github.com/pkg/errors"
	"github.com/starkcustody/starkcustody/cmd/starkcustody/flags"
	"github.com/urfave/cli/v2"
)

func deleteAccount(cliCtx *cli.Context) error {
	registry, passphrase, err := newRegistry(cliCtx)
	if err != nil {
		return err
	}
	alias, err := requireString(cliCtx, flags.AliasFlag)
	if err != nil {
		return err
	}
	networkName := cliCtx.String(flags.NetworkFlag.Name)
	if err := registry.DeleteAccount(alias, networkName, passphrase); err != nil {
		return errors.Wrapf(err, "could not delete account %q", alias)
	}
	log.WithField("alias", alias).WithField("network", networkName).Info("Account deleted")
	return nil
}

func changePassphrase(cliCtx *cli.Context) error {
	registry, _, err := newRegistry(cliCtx)
	if err != nil {
		return err
	}
	alias, err := requireString(cliCtx, flags.AliasFlag)
	if err != nil {
		return err
	}
	if err := registry.ChangePassphrase(alias, "", ""); err != nil {
		return errors.Wrapf(err, "could not change passphrase for %q", alias)
	}
	log.WithField("alias", alias).Info("Passphrase changed")
	return nil
}
