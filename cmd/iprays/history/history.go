package history

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"sort"
	"time"

	"github.com/0xarkstar/IPRAYS-PUBLIC/canvas/address"
	canvaslogs "github.com/0xarkstar/IPRAYS-PUBLIC/canvas/logs"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/urfave/cli/v2"
)

func History() *cli.Command {
	cfg := struct {
		nodeURL   string
		x, y      uint64
		fromBlock uint64
	}{}
	return &cli.Command{
		Name:  "history",
		Usage: "List every placement at a coordinate in chain order",
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
			&cli.Uint64Flag{
				Name:        "from-block",
				Usage:       "first block to search from",
				Destination: &cfg.fromBlock,
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

			logs, err := client.FilterLogs(ctx, ethereum.FilterQuery{
				FromBlock: new(big.Int).SetUint64(cfg.fromBlock),
				Addresses: []common.Address{address.CanvasProcessorAddress},
				Topics: [][]common.Hash{
					{canvaslogs.PixelPlaced},
					{common.BigToHash(new(big.Int).SetUint64(cfg.x))},
					{common.BigToHash(new(big.Int).SetUint64(cfg.y))},
				},
			})
			if err != nil {
				return fmt.Errorf("failed to fetch placement logs: %w", err)
			}

			events := make([]*canvaslogs.PlacementEvent, 0, len(logs))
			for i := range logs {
				event, err := canvaslogs.ParsePixelPlaced(&logs[i])
				if err != nil {
					continue
				}
				events = append(events, event)
			}

			sort.Slice(events, func(i, j int) bool {
				return events[j].After(events[i])
			})

			if len(events) == 0 {
				fmt.Printf("No placements at (%d, %d)\n", cfg.x, cfg.y)
				return nil
			}

			for _, e := range events {
				fmt.Printf("block %d\t#%s\t%s\t%s\n",
					e.BlockNumber,
					hex.EncodeToString(e.Color[:]),
					e.User.Hex(),
					time.Unix(int64(e.Timestamp), 0).UTC().Format(time.RFC3339),
				)
			}

			return nil
		},
	}
}
