package sync

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/0xarkstar/IPRAYS-PUBLIC/client/snapshot"
	clientsync "github.com/0xarkstar/IPRAYS-PUBLIC/client/sync"
	"github.com/adrg/xdg"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/urfave/cli/v2"
)

func Sync() *cli.Command {
	cfg := struct {
		nodeURL      string
		network      string
		startBlock   uint64
		chunkSize    uint64
		pollInterval time.Duration
		depth        uint64
		dbFile       string
		follow       bool
	}{}
	return &cli.Command{
		Name:  "sync",
		Usage: "Replay placement events into the local snapshot",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "node-url",
				Usage:       "The URL of the node to connect to",
				Value:       "http://localhost:8545",
				EnvVars:     []string{"IPRAYS_NODE_URL"},
				Destination: &cfg.nodeURL,
			},
			&cli.StringFlag{
				Name:        "network",
				Usage:       "network id the snapshot belongs to",
				Value:       "local",
				EnvVars:     []string{"IPRAYS_NETWORK"},
				Destination: &cfg.network,
			},
			&cli.Uint64Flag{
				Name:        "start-block",
				Usage:       "first block to replay when no snapshot exists",
				Destination: &cfg.startBlock,
			},
			&cli.Uint64Flag{
				Name:        "chunk-size",
				Usage:       "blocks per log query",
				Value:       2000,
				Destination: &cfg.chunkSize,
			},
			&cli.DurationFlag{
				Name:        "poll-interval",
				Usage:       "how often to poll for new blocks when following",
				Value:       5 * time.Second,
				Destination: &cfg.pollInterval,
			},
			&cli.Uint64Flag{
				Name:        "confirmation-depth",
				Usage:       "blocks held back from the head before events settle",
				Destination: &cfg.depth,
			},
			&cli.StringFlag{
				Name:        "db",
				Usage:       "snapshot database file",
				Value:       filepath.Join(xdg.DataHome, "iprays", "snapshot.db"),
				EnvVars:     []string{"IPRAYS_SNAPSHOT_DB"},
				Destination: &cfg.dbFile,
			},
			&cli.BoolFlag{
				Name:        "follow",
				Usage:       "keep polling for new events after catching up",
				Destination: &cfg.follow,
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

			store, err := snapshot.NewStore(cfg.dbFile)
			if err != nil {
				return err
			}
			defer store.Close()

			engine := clientsync.New(client, store, clientsync.Config{
				Network:           cfg.network,
				StartBlock:        cfg.startBlock,
				ChunkSize:         cfg.chunkSize,
				PollInterval:      cfg.pollInterval,
				ConfirmationDepth: cfg.depth,
			})

			if cfg.follow {
				return engine.Run(ctx)
			}

			if err := engine.SyncOnce(ctx); err != nil {
				return err
			}

			fmt.Println("Synced to block", engine.SyncedBlock())
			fmt.Println("Pixels:", len(engine.Confirmed()))
			return nil
		},
	}
}
