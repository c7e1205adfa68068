package accounts

import (
	"fmt"

	"github.com/logrusorgru/aurora"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

func listAccounts(cliCtx *cli.Context) error {
	registry, _, err := newRegistry(cliCtx)
	if err != nil {
		return err
	}
	all, err := registry.Accounts()
	if err != nil {
		return errors.Wrap(err, "could not enumerate accounts")
	}
	au := aurora.NewAurora(true)
	if len(all) == 0 {
		fmt.Println("No accounts found")
		return nil
	}
	fmt.Printf("Showing %d account(s)\n", au.BrightYellow(len(all)))
	for _, acct := range all {
		fmt.Println("")
		fmt.Printf("%s\n", au.BrightGreen(acct.Alias()).Bold())
		fmt.Printf("%s %s\n", au.BrightMagenta("[address]").Bold(), acct.Address())
		for _, d := range acct.Deployments() {
			fmt.Printf("%s %s -> %s\n", au.BrightCyan("[deployment]"), d.NetworkName, d.ContractAddress)
		}
	}
	return nil
}
