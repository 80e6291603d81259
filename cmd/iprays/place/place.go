package place

import (
	"encoding/hex"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/0xarkstar/IPRAYS-PUBLIC/canvas/canvastype"
	"github.com/0xarkstar/IPRAYS-PUBLIC/canvas/colorhex"
	"github.com/0xarkstar/IPRAYS-PUBLIC/client/chain"
	"github.com/0xarkstar/IPRAYS-PUBLIC/client/overlay"
	"github.com/0xarkstar/IPRAYS-PUBLIC/client/payload"
	placeengine "github.com/0xarkstar/IPRAYS-PUBLIC/client/place"
	"github.com/0xarkstar/IPRAYS-PUBLIC/cmd/iprays/account/pkg/useraccount"
	"github.com/adrg/xdg"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/google/uuid"
	"github.com/urfave/cli/v2"
)

func Place() *cli.Command {
	cfg := struct {
		nodeURL    string
		x, y       uint64
		color      string
		message    string
		payloadDir string
	}{}
	return &cli.Command{
		Name:  "place",
		Usage: "Place a pixel on the canvas",
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
			&cli.StringFlag{
				Name:        "color",
				Usage:       "pixel color as #rrggbb",
				Required:    true,
				Destination: &cfg.color,
			},
			&cli.StringFlag{
				Name:        "message",
				Usage:       "optional message stored with a verified placement",
				Destination: &cfg.message,
			},
			&cli.StringFlag{
				Name:        "payload-dir",
				Usage:       "directory for the local payload store",
				Value:       filepath.Join(xdg.DataHome, "iprays", "payloads"),
				EnvVars:     []string{"IPRAYS_PAYLOAD_DIR"},
				Destination: &cfg.payloadDir,
			},
		},
		Action: func(c *cli.Context) error {
			ctx, cancel := signal.NotifyContext(c.Context, os.Interrupt)
			defer cancel()

			if !canvastype.InBounds(cfg.x, cfg.y) {
				return fmt.Errorf("coordinate (%d, %d) is outside the %dx%d canvas",
					cfg.x, cfg.y, canvastype.GridSize, canvastype.GridSize)
			}

			color, err := parseColor(cfg.color)
			if err != nil {
				return err
			}

			userAccount, err := useraccount.Load()
			if err != nil {
				return fmt.Errorf("failed to load user account: %w", err)
			}

			client, err := ethclient.DialContext(ctx, cfg.nodeURL)
			if err != nil {
				return fmt.Errorf("failed to connect to node: %w", err)
			}
			defer client.Close()

			submitter := chain.NewSubmitter(client, userAccount.PrivateKey)

			store, err := payload.NewStore(cfg.payloadDir)
			if err != nil {
				return err
			}

			orchestrator := placeengine.NewOrchestrator(
				submitter,
				store,
				overlay.New(overlay.DefaultTTL),
				placeengine.DefaultRetryPolicy(),
			)

			result := orchestrator.Place(ctx, placeengine.Request{
				X:          cfg.x,
				Y:          cfg.y,
				Color:      color,
				Payload:    buildPayload(cfg.color, cfg.message),
				ClientTxID: uuid.NewString(),
			})

			if !result.Confirmed {
				return cli.Exit(result.Reason, 1)
			}

			fmt.Println("Pixel placed")
			fmt.Println("Coordinate:", fmt.Sprintf("(%d, %d)", cfg.x, cfg.y))
			fmt.Println("Tier:", result.Tier)
			fmt.Println("Attempts:", result.Attempts)
			fmt.Println("Tx:", result.TxHash.Hex())

			return nil
		},
	}
}

func parseColor(s string) ([3]byte, error) {
	var color [3]byte
	trimmed := strings.TrimPrefix(s, "#")
	b, err := hex.DecodeString(trimmed)
	if err != nil || len(b) != 3 {
		return color, fmt.Errorf("invalid color %q, expected #rrggbb", s)
	}
	copy(color[:], b)
	return color, nil
}

// buildPayload composes the verified payload. The ledger extracts the color
// from the payload itself, so the color token always leads.
func buildPayload(color, message string) []byte {
	if message == "" {
		return nil
	}
	if _, err := colorhex.Extract([]byte(message)); err == nil {
		return []byte(message)
	}
	if !strings.HasPrefix(color, "#") {
		color = "#" + color
	}
	return []byte(color + " " + message)
}
