package account

import (
	"github.com/0xarkstar/IPRAYS-PUBLIC/cmd/iprays/account/balance"
	"github.com/0xarkstar/IPRAYS-PUBLIC/cmd/iprays/account/create"
	"github.com/0xarkstar/IPRAYS-PUBLIC/cmd/iprays/account/importkey"
	"github.com/urfave/cli/v2"
)

func Account() *cli.Command {
	return &cli.Command{
		Name:  "account",
		Usage: "Manage accounts",
		Subcommands: []*cli.Command{
			create.Create(),
			balance.AccountBalance(),
			importkey.ImportAccount(),
		},
	}
}
