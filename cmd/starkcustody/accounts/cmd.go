// Package accounts wires the account-management subcommands of the
// starkcustody CLI.
package accounts

import (
	"math/big"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/starkcustody/starkcustody/accounts"
	"github.com/starkcustody/starkcustody/cmd/starkcustody/flags"
	"github.com/starkcustody/starkcustody/io/prompt"
	"github.com/starkcustody/starkcustody/network"
	"github.com/starkcustody/starkcustody/provider"
	"github.com/urfave/cli/v2"
)

var log = logrus.WithField("prefix", "accounts")

// Commands for managing starkcustody accounts.
var Commands = &cli.Command{
	Name:     "accounts",
	Category: "accounts",
	Usage:    "defines commands for managing accounts and their keys",
	Subcommands: []*cli.Command{
		{
			Name:        "list",
			Description: "Lists all account aliases with their addresses and deployments",
			Flags: []cli.Flag{
				flags.DataDirFlag,
				flags.NetworkFlag,
			},
			Action: listAccounts,
		},
		{
			Name:        "import",
			Description: "Imports an existing private key under a new alias with one deployment record",
			Flags: []cli.Flag{
				flags.DataDirFlag,
				flags.NetworkFlag,
				flags.AliasFlag,
				flags.PrivateKeyFlag,
				flags.ContractAddressFlag,
				flags.PassphraseFileFlag,
				flags.LightKDFFlag,
			},
			Action: importAccount,
		},
		{
			Name:        "deploy",
			Description: "Deploys a new account contract to the active network and imports it",
			Flags: []cli.Flag{
				flags.DataDirFlag,
				flags.NetworkFlag,
				flags.GatewayFlag,
				flags.AliasFlag,
				flags.PrivateKeyFlag,
				flags.PassphraseFileFlag,
				flags.LightKDFFlag,
			},
			Action: deployAccount,
		},
		{
			Name:        "delete",
			Description: "Removes an account's deployment record for a network, deleting the credential file when it was the last one",
			Flags: []cli.Flag{
				flags.DataDirFlag,
				flags.NetworkFlag,
				flags.AliasFlag,
				flags.PassphraseFileFlag,
			},
			Action: deleteAccount,
		},
		{
			Name:        "change-passphrase",
			Description: "Re-encrypts an account's credential file under a new passphrase",
			Flags: []cli.Flag{
				flags.DataDirFlag,
				flags.NetworkFlag,
				flags.AliasFlag,
			},
			Action: changePassphrase,
		},
	},
}

// newRegistry builds the account registry from CLI flags.
func newRegistry(cliCtx *cli.Context) (*accounts.Registry, string, error) {
	prompter, passphrase, err := newPrompter(cliCtx)
	if err != nil {
		return nil, "", err
	}
	var submitter provider.Submitter
	if gateway := cliCtx.String(flags.GatewayFlag.Name); gateway != "" {
		submitter = provider.NewGateway(gateway)
	}
	registry, err := accounts.NewRegistry(&accounts.Config{
		DataDir:   cliCtx.String(flags.DataDirFlag.Name),
		Network:   network.NewStatic(cliCtx.String(flags.NetworkFlag.Name)),
		Submitter: submitter,
		Prompter:  prompter,
		LightKDF:  cliCtx.Bool(flags.LightKDFFlag.Name),
	})
	if err != nil {
		return nil, "", err
	}
	return registry, passphrase, nil
}

// newPrompter returns the interactive terminal prompter, or a static one
// when a passphrase file enables non-interactive mode. The passphrase is
// also returned so actions can pass it programmatically.
func newPrompter(cliCtx *cli.Context) (prompt.Prompter, string, error) {
	path := cliCtx.String(flags.PassphraseFileFlag.Name)
	if path == "" {
		return prompt.NewTerminal(), "", nil
	}
	data, err := os.ReadFile(path) // #nosec G304
	if err != nil {
		return nil, "", errors.Wrapf(err, "could not read passphrase file %s", path)
	}
	passphrase := strings.TrimRight(string(data), "\r\n")
	return &prompt.Static{Passphrase: passphrase, Confirmed: true}, passphrase, nil
}

// parsePrivateKey accepts hex (with or without 0x) and decimal spellings,
// tolerating shell quoting around the value.
func parsePrivateKey(raw string) (*big.Int, error) {
	trimmed := strings.Trim(strings.TrimSpace(raw), `'"`)
	if v, ok := new(big.Int).SetString(trimmed, 0); ok {
		return v, nil
	}
	if v, ok := new(big.Int).SetString(strings.TrimPrefix(trimmed, "0x"), 16); ok {
		return v, nil
	}
	return nil, errors.Errorf("could not parse private key %q", raw)
}

func requireString(cliCtx *cli.Context, flag *cli.StringFlag) (string, error) {
	v := cliCtx.String(flag.Name)
	if v == "" {
		return "", errors.Errorf("--%s is required", flag.Name)
	}
	return v, nil
}
