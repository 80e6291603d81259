package info

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/0xarkstar/IPRAYS-PUBLIC/client/chain"
	"github.com/dustin/go-humanize"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/urfave/cli/v2"
)

func Info() *cli.Command {
	cfg := struct {
		nodeURL string
	}{}
	return &cli.Command{
		Name:  "info",
		Usage: "Show the canvas configuration and placement count",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "node-url",
				Usage:       "The URL of the node to connect to",
				Value:       "http://localhost:8545",
				EnvVars:     []string{"IPRAYS_NODE_URL"},
				Destination: &cfg.nodeURL,
			},
		},
		Action: func(c *cli.Context) error {
			ctx, cancel := signal.NotifyContext(c.Context, os.Interrupt)
			defer cancel()

			client, err := ethclient.DialContext(ctx, cfg.nodeURL)
			if err != nil {
				return fmt.Errorf("failed to connect to node: %w", err)
			}
			defer client.Close()

			info, err := chain.NewReader(client).CanvasInfo(ctx)
			if err != nil {
				return fmt.Errorf("failed to read canvas info: %w", err)
			}

			fmt.Printf("Canvas: %dx%d\n", info.Width, info.Height)
			fmt.Println("Pixels placed:", humanize.Comma(int64(info.TotalPlaced)))
			fmt.Println("Pixel price:", info.PixelPrice, "wei")
			fmt.Println("Max verified payload:", info.MaxPayload, "bytes")

			return nil
		},
	}
}
