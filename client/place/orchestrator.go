package place

import (
	"context"
	"fmt"
	"time"

	"github.com/0xarkstar/IPRAYS-PUBLIC/canvas/accesslist"
	"github.com/0xarkstar/IPRAYS-PUBLIC/canvas/canvastx"
	"github.com/0xarkstar/IPRAYS-PUBLIC/client/overlay"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
)

// TxSender submits a canvas envelope and blocks until the ledger accepts or
// rejects it. Once submitted there is no cancellation: abandoning the
// context only stops the wait.
type TxSender interface {
	SubmitPlacement(ctx context.Context, envelope *canvastx.Envelope) (common.Hash, error)
}

// Uploader publishes a payload to the off-chain store ahead of a verified
// placement.
type Uploader interface {
	Upload(ctx context.Context, data []byte) (string, accesslist.Declared, error)
}

// Request is one user-initiated placement.
type Request struct {
	X, Y       uint64
	Color      [3]byte
	Payload    []byte // optional; enables the verified tiers
	ClientTxID string
}

// Result is the typed outcome handed back to the caller. The orchestrator
// already updated the overlay; Reason is the single human-readable line to
// show on failure.
type Result struct {
	Confirmed bool
	Tier      Tier
	TxHash    common.Hash
	Attempts  int
	Class     Class
	Reason    string
	Err       error
}

// Orchestrator drives one placement through upload, submission and
// confirmation with tier fallback and per-tier retry budgets.
type Orchestrator struct {
	sender   TxSender
	uploader Uploader
	overlay  *overlay.Overlay
	policy   RetryPolicy

	// sleep is swapped out in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

func NewOrchestrator(sender TxSender, uploader Uploader, ov *overlay.Overlay, policy RetryPolicy) *Orchestrator {
	return &Orchestrator{
		sender:   sender,
		uploader: uploader,
		overlay:  ov,
		policy:   policy,
		sleep:    sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Place applies the pixel optimistically, then works through the tier
// pipeline. On success the overlay entry is confirmed; on terminal failure
// it is rolled back and the result carries the classified reason.
func (o *Orchestrator) Place(ctx context.Context, req Request) Result {
	o.overlay.Add(req.X, req.Y, req.Color, req.ClientTxID)

	var (
		dataRef  string
		declared accesslist.Declared
		uploaded bool
	)

	attempts := 0
	var lastErr error
	var lastTier Tier

	for _, tier := range tiersFor(req, o.uploader != nil) {
		lastTier = tier

		if tier == TierVerified || tier == TierLegacy {
			if !uploaded {
				var err error
				dataRef, declared, err = o.uploader.Upload(ctx, req.Payload)
				if err != nil {
					lastErr = fmt.Errorf("payload upload failed: %w", err)
					log.Warn("payload upload failed, falling back", "tier", tier, "error", err)
					continue
				}
				uploaded = true
			}
		}

		envelope := o.buildEnvelope(tier, req, dataRef, declared)

	attemptLoop:
		for attempt := 1; ; attempt++ {
			attempts++

			txHash, err := o.sender.SubmitPlacement(ctx, envelope)
			if err == nil {
				o.overlay.Confirm(req.ClientTxID)
				log.Info("placement confirmed", "x", req.X, "y", req.Y, "tier", tier, "tx", txHash)
				return Result{
					Confirmed: true,
					Tier:      tier,
					TxHash:    txHash,
					Attempts:  attempts,
				}
			}

			lastErr = err
			class := Classify(err)
			log.Warn("placement attempt failed",
				"tier", tier, "attempt", attempt, "class", class, "error", err)

			if Terminal(class) {
				return o.rollback(req, lastTier, attempts, lastErr)
			}

			if !o.policy.Retryable(class, attempt) {
				break attemptLoop // fall through to the next tier
			}

			if err := o.sleep(ctx, o.policy.Delay(attempt)); err != nil {
				lastErr = err
				return o.rollback(req, lastTier, attempts, lastErr)
			}
		}
	}

	return o.rollback(req, lastTier, attempts, lastErr)
}

func (o *Orchestrator) buildEnvelope(tier Tier, req Request, dataRef string, declared accesslist.Declared) *canvastx.Envelope {
	switch tier {
	case TierVerified:
		return &canvastx.Envelope{
			Tx: canvastx.CanvasTransaction{
				Verified: []canvastx.PlaceVerified{{X: req.X, Y: req.Y, DataRef: dataRef}},
			},
			Declared: []accesslist.Declared{declared},
		}
	case TierLegacy:
		return &canvastx.Envelope{
			Tx: canvastx.CanvasTransaction{
				Verified: []canvastx.PlaceVerified{{X: req.X, Y: req.Y, DataRef: dataRef}},
			},
		}
	default:
		return &canvastx.Envelope{
			Tx: canvastx.CanvasTransaction{
				Place: []canvastx.PlacePixel{{X: req.X, Y: req.Y, Color: req.Color, DataRef: dataRef}},
			},
		}
	}
}

func (o *Orchestrator) rollback(req Request, tier Tier, attempts int, err error) Result {
	o.overlay.Rollback(req.X, req.Y)

	class := Classify(err)
	reason := class.Message(err)
	log.Warn("placement rolled back", "x", req.X, "y", req.Y, "reason", reason)

	return Result{
		Tier:     tier,
		Attempts: attempts,
		Class:    class,
		Reason:   reason,
		Err:      err,
	}
}
