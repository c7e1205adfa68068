// Package flags defines the CLI flag surface shared by the starkcustody
// commands.
package flags

import (
	"github.com/urfave/cli/v2"
)

var (
	// DataDirFlag points at the directory holding one credential file per
	// persisted alias.
	DataDirFlag = &cli.StringFlag{
		Name:  "data-dir",
		Usage: "Directory holding encrypted account credential files",
		Value: "~/.starkcustody/accounts",
	}
	// NetworkFlag selects the active network.
	NetworkFlag = &cli.StringFlag{
		Name:  "network",
		Usage: "Active network name (local, testnet, mainnet, or a custom name)",
		Value: "testnet",
	}
	// GatewayFlag points at the transaction gateway used for deployments.
	GatewayFlag = &cli.StringFlag{
		Name:  "gateway",
		Usage: "Base URL of the transaction gateway",
	}
	// AliasFlag names the account an operation applies to.
	AliasFlag = &cli.StringFlag{
		Name:  "alias",
		Usage: "Account alias",
	}
	// PrivateKeyFlag supplies a private key as a hex or decimal string.
	PrivateKeyFlag = &cli.StringFlag{
		Name:  "private-key",
		Usage: "Private key as a hex (0x-prefixed) or decimal string",
	}
	// ContractAddressFlag supplies the deployed account contract address.
	ContractAddressFlag = &cli.StringFlag{
		Name:  "contract-address",
		Usage: "Address of the deployed account contract",
	}
	// PassphraseFileFlag enables non-interactive runs by reading the
	// passphrase from a file instead of prompting.
	PassphraseFileFlag = &cli.StringFlag{
		Name:  "passphrase-file",
		Usage: "File containing the account passphrase, enables non-interactive mode",
	}
	// LightKDFFlag weakens the key-derivation parameters for throwaway
	// setups and tests.
	LightKDFFlag = &cli.BoolFlag{
		Name:  "lightkdf",
		Usage: "Use light scrypt parameters (testing only)",
	}
	// LogFileFlag mirrors log output into a file.
	LogFileFlag = &cli.StringFlag{
		Name:  "log-file",
		Usage: "Write logs to the given file as well as stdout",
	}
	// VerbosityFlag sets the logging level.
	VerbosityFlag = &cli.StringFlag{
		Name:  "verbosity",
		Usage: "Logging verbosity (trace, debug, info, warn, error)",
		Value: "info",
	}
)
