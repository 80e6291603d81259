// Package admin holds the operator commands. Every subcommand signs with
// the local wallet; the ledger rejects the operation unless that wallet is
// the configured admin.
package admin

import (
	"fmt"
	"math/big"
	"os"
	"os/signal"

	"github.com/0xarkstar/IPRAYS-PUBLIC/canvas/canvastx"
	"github.com/0xarkstar/IPRAYS-PUBLIC/client/chain"
	"github.com/0xarkstar/IPRAYS-PUBLIC/cmd/iprays/account/pkg/useraccount"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/urfave/cli/v2"
)

func Admin() *cli.Command {
	return &cli.Command{
		Name:  "admin",
		Usage: "Operator configuration of the canvas",
		Subcommands: []*cli.Command{
			setPixelPrice(),
			setTreasury(),
			setAutoWithdrawThreshold(),
			setMinPlacementInterval(),
			setMaxVerifiedPayload(),
			pause(),
			unpause(),
			withdraw(),
		},
	}
}

func nodeURLFlag(dest *string) cli.Flag {
	return &cli.StringFlag{
		Name:        "node-url",
		Usage:       "The URL of the node to connect to",
		Value:       "http://localhost:8545",
		EnvVars:     []string{"IPRAYS_NODE_URL"},
		Destination: dest,
	}
}

// submit signs and sends a single admin operation and waits for inclusion.
func submit(c *cli.Context, nodeURL string, op canvastx.AdminOp) error {
	ctx, cancel := signal.NotifyContext(c.Context, os.Interrupt)
	defer cancel()

	userAccount, err := useraccount.Load()
	if err != nil {
		return fmt.Errorf("failed to load user account: %w", err)
	}

	client, err := ethclient.DialContext(ctx, nodeURL)
	if err != nil {
		return fmt.Errorf("failed to connect to node: %w", err)
	}
	defer client.Close()

	submitter := chain.NewSubmitter(client, userAccount.PrivateKey)

	txHash, err := submitter.SubmitAdmin(ctx, &canvastx.Envelope{
		Tx: canvastx.CanvasTransaction{
			Admin: []canvastx.AdminOp{op},
		},
	})
	if err != nil {
		return err
	}

	fmt.Println("Admin operation applied")
	fmt.Println("Tx:", txHash.Hex())
	return nil
}

func setPixelPrice() *cli.Command {
	cfg := struct {
		nodeURL string
		price   string
	}{}
	return &cli.Command{
		Name:  "set-price",
		Usage: "Set the pixel price in wei",
		Flags: []cli.Flag{
			nodeURLFlag(&cfg.nodeURL),
			&cli.StringFlag{
				Name:        "price",
				Usage:       "new price in wei",
				Required:    true,
				Destination: &cfg.price,
			},
		},
		Action: func(c *cli.Context) error {
			price, ok := new(big.Int).SetString(cfg.price, 10)
			if !ok {
				return fmt.Errorf("invalid price %q", cfg.price)
			}
			return submit(c, cfg.nodeURL, canvastx.AdminOp{Kind: canvastx.OpSetPixelPrice, Num: price})
		},
	}
}

func setTreasury() *cli.Command {
	cfg := struct {
		nodeURL  string
		treasury string
	}{}
	return &cli.Command{
		Name:  "set-treasury",
		Usage: "Set the treasury address",
		Flags: []cli.Flag{
			nodeURLFlag(&cfg.nodeURL),
			&cli.StringFlag{
				Name:        "treasury",
				Usage:       "treasury address",
				Required:    true,
				Destination: &cfg.treasury,
			},
		},
		Action: func(c *cli.Context) error {
			if !common.IsHexAddress(cfg.treasury) {
				return fmt.Errorf("invalid treasury address %q", cfg.treasury)
			}
			return submit(c, cfg.nodeURL, canvastx.AdminOp{
				Kind: canvastx.OpSetTreasury,
				Addr: common.HexToAddress(cfg.treasury),
			})
		},
	}
}

func setAutoWithdrawThreshold() *cli.Command {
	cfg := struct {
		nodeURL   string
		threshold string
	}{}
	return &cli.Command{
		Name:  "set-threshold",
		Usage: "Set the auto-withdraw threshold in wei, 0 disables the sweep",
		Flags: []cli.Flag{
			nodeURLFlag(&cfg.nodeURL),
			&cli.StringFlag{
				Name:        "threshold",
				Usage:       "threshold in wei",
				Required:    true,
				Destination: &cfg.threshold,
			},
		},
		Action: func(c *cli.Context) error {
			threshold, ok := new(big.Int).SetString(cfg.threshold, 10)
			if !ok {
				return fmt.Errorf("invalid threshold %q", cfg.threshold)
			}
			return submit(c, cfg.nodeURL, canvastx.AdminOp{Kind: canvastx.OpSetAutoWithdrawThreshold, Num: threshold})
		},
	}
}

func setMinPlacementInterval() *cli.Command {
	cfg := struct {
		nodeURL string
		seconds uint64
	}{}
	return &cli.Command{
		Name:  "set-interval",
		Usage: "Set the per-address placement cooldown in seconds",
		Flags: []cli.Flag{
			nodeURLFlag(&cfg.nodeURL),
			&cli.Uint64Flag{
				Name:        "seconds",
				Usage:       "cooldown in seconds",
				Required:    true,
				Destination: &cfg.seconds,
			},
		},
		Action: func(c *cli.Context) error {
			return submit(c, cfg.nodeURL, canvastx.AdminOp{
				Kind: canvastx.OpSetMinPlacementInterval,
				Num:  new(big.Int).SetUint64(cfg.seconds),
			})
		},
	}
}

func setMaxVerifiedPayload() *cli.Command {
	cfg := struct {
		nodeURL string
		size    uint64
	}{}
	return &cli.Command{
		Name:  "set-max-payload",
		Usage: "Set the maximum verified payload size in bytes",
		Flags: []cli.Flag{
			nodeURLFlag(&cfg.nodeURL),
			&cli.Uint64Flag{
				Name:        "bytes",
				Usage:       "maximum payload size",
				Required:    true,
				Destination: &cfg.size,
			},
		},
		Action: func(c *cli.Context) error {
			return submit(c, cfg.nodeURL, canvastx.AdminOp{
				Kind: canvastx.OpSetMaxVerifiedPayload,
				Num:  new(big.Int).SetUint64(cfg.size),
			})
		},
	}
}

func pause() *cli.Command {
	cfg := struct{ nodeURL string }{}
	return &cli.Command{
		Name:  "pause",
		Usage: "Pause all placements",
		Flags: []cli.Flag{nodeURLFlag(&cfg.nodeURL)},
		Action: func(c *cli.Context) error {
			return submit(c, cfg.nodeURL, canvastx.AdminOp{Kind: canvastx.OpPause})
		},
	}
}

func unpause() *cli.Command {
	cfg := struct{ nodeURL string }{}
	return &cli.Command{
		Name:  "unpause",
		Usage: "Resume placements",
		Flags: []cli.Flag{nodeURLFlag(&cfg.nodeURL)},
		Action: func(c *cli.Context) error {
			return submit(c, cfg.nodeURL, canvastx.AdminOp{Kind: canvastx.OpUnpause})
		},
	}
}

func withdraw() *cli.Command {
	cfg := struct {
		nodeURL string
		amount  string
	}{}
	return &cli.Command{
		Name:  "withdraw",
		Usage: "Move collected funds to the treasury",
		Flags: []cli.Flag{
			nodeURLFlag(&cfg.nodeURL),
			&cli.StringFlag{
				Name:        "amount",
				Usage:       "amount in wei, omit to withdraw everything",
				Destination: &cfg.amount,
			},
		},
		Action: func(c *cli.Context) error {
			if cfg.amount == "" {
				return submit(c, cfg.nodeURL, canvastx.AdminOp{Kind: canvastx.OpWithdrawAll})
			}
			amount, ok := new(big.Int).SetString(cfg.amount, 10)
			if !ok {
				return fmt.Errorf("invalid amount %q", cfg.amount)
			}
			return submit(c, cfg.nodeURL, canvastx.AdminOp{Kind: canvastx.OpWithdraw, Num: amount})
		},
	}
}
