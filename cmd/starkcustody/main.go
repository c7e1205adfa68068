// starkcustody is a CLI for managing account contracts and their locally
// held signing keys.
package main

import (
	"os"

	"github.com/sirupsen/logrus"
	accountscmd "github.com/starkcustody/starkcustody/cmd/starkcustody/accounts"
	"github.com/starkcustody/starkcustody/cmd/starkcustody/flags"
	"github.com/starkcustody/starkcustody/io/logs"
	"github.com/urfave/cli/v2"
)

var log = logrus.WithField("prefix", "main")

func main() {
	app := &cli.App{
		Name:  "starkcustody",
		Usage: "manages accounts and signing keys for contract-based networks",
		Flags: []cli.Flag{
			flags.VerbosityFlag,
			flags.LogFileFlag,
		},
		Before: func(cliCtx *cli.Context) error {
			level, err := logrus.ParseLevel(cliCtx.String(flags.VerbosityFlag.Name))
			if err != nil {
				return err
			}
			logrus.SetLevel(level)
			if logFile := cliCtx.String(flags.LogFileFlag.Name); logFile != "" {
				if err := logs.ConfigurePersistentLogging(logFile); err != nil {
					log.WithError(err).Error("Failed to configure file logging")
					return err
				}
			}
			return nil
		},
		Commands: []*cli.Command{
			accountscmd.Commands,
		},
	}
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err.Error())
	}
}
