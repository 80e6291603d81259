package main

import (
	"log"
	"os"

	"github.com/0xarkstar/IPRAYS-PUBLIC/cmd/iprays/account"
	"github.com/0xarkstar/IPRAYS-PUBLIC/cmd/iprays/admin"
	"github.com/0xarkstar/IPRAYS-PUBLIC/cmd/iprays/history"
	"github.com/0xarkstar/IPRAYS-PUBLIC/cmd/iprays/info"
	"github.com/0xarkstar/IPRAYS-PUBLIC/cmd/iprays/pixel"
	"github.com/0xarkstar/IPRAYS-PUBLIC/cmd/iprays/place"
	"github.com/0xarkstar/IPRAYS-PUBLIC/cmd/iprays/sync"
	"github.com/urfave/cli/v2"
)

func main() {

	app := &cli.App{
		Name:  "iprays",
		Usage: "Collaborative canvas on a public ledger",

		Commands: []*cli.Command{
			account.Account(),
			place.Place(),
			pixel.Pixel(),
			info.Info(),
			history.History(),
			admin.Admin(),
			sync.Sync(),
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		log.Fatal(err)
	}
}
