package pixel

import (
	"encoding/hex"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/0xarkstar/IPRAYS-PUBLIC/canvas/canvastype"
	"github.com/0xarkstar/IPRAYS-PUBLIC/client/chain"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/urfave/cli/v2"
)

func Pixel() *cli.Command {
	cfg := struct {
		nodeURL string
		x, y    uint64
	}{}
	return &cli.Command{
		Name:  "pixel",
		Usage: "Read the pixel at a coordinate",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "node-url",
				Usage:       "The URL of the node to connect to",
				Value:       "http://localhost:8545",
				EnvVars:     []string{"IPRAYS_NODE_URL"},
				Destination: &cfg.nodeURL,
			},
			&cli.Uint64Flag{
				Name:        "x",
				Usage:       "x coordinate",
				Required:    true,
				Destination: &cfg.x,
			},
			&cli.Uint64Flag{
				Name:        "y",
				Usage:       "y coordinate",
				Required:    true,
				Destination: &cfg.y,
			},
		},
		Action: func(c *cli.Context) error {
			ctx, cancel := signal.NotifyContext(c.Context, os.Interrupt)
			defer cancel()

			if !canvastype.InBounds(cfg.x, cfg.y) {
				return fmt.Errorf("coordinate (%d, %d) is outside the %dx%d canvas",
					cfg.x, cfg.y, canvastype.GridSize, canvastype.GridSize)
			}

			client, err := ethclient.DialContext(ctx, cfg.nodeURL)
			if err != nil {
				return fmt.Errorf("failed to connect to node: %w", err)
			}
			defer client.Close()

			record, err := chain.NewReader(client).Pixel(ctx, cfg.x, cfg.y)
			if err != nil {
				return fmt.Errorf("failed to read pixel: %w", err)
			}

			if record == nil {
				fmt.Printf("Pixel (%d, %d) has never been placed\n", cfg.x, cfg.y)
				return nil
			}

			fmt.Printf("Pixel (%d, %d)\n", record.X, record.Y)
			fmt.Println("Color: #" + hex.EncodeToString(record.Color[:]))
			fmt.Println("Placed by:", record.PlacedBy.Hex())
			fmt.Println("Placed at:", time.Unix(int64(record.Timestamp), 0).UTC().Format(time.RFC3339))
			if record.IsVerified {
				fmt.Println("Verified data:", record.DataRef)
			}

			return nil
		},
	}
}
