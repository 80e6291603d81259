package canvastx

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/0xarkstar/IPRAYS-PUBLIC/canvas/accesslist"
	"github.com/0xarkstar/IPRAYS-PUBLIC/canvas/canvastype"
	"github.com/0xarkstar/IPRAYS-PUBLIC/canvas/storageutil/params"
	"github.com/ethereum/go-ethereum/common"
)

// CanvasTransaction is the payload of a transaction addressed to the canvas
// processor. It carries at most one placement operation (direct-color or
// verified-data) and any number of admin operations, each list processed in
// order. The transaction is atomic: any failing operation rejects the whole
// transaction with no state change.
type CanvasTransaction struct {
	Place    []PlacePixel    `json:"place"`
	Verified []PlaceVerified `json:"verified"`
	Admin    []AdminOp       `json:"admin"`
}

// PlacePixel sets one cell to a caller-supplied color. DataRef is an
// optional opaque annotation stored with the record; it is not validated
// against off-chain data.
type PlacePixel struct {
	X       uint64  `json:"x"`
	Y       uint64  `json:"y"`
	Color   [3]byte `json:"color"`
	DataRef string  `json:"dataRef"`
}

// PlaceVerified sets one cell to a color extracted from the transaction's
// pre-declared off-chain payload. The payload itself arrives through the
// access list, never as a parameter.
type PlaceVerified struct {
	X       uint64 `json:"x"`
	Y       uint64 `json:"y"`
	DataRef string `json:"dataRef"`
}

// AdminOp kinds.
const (
	OpSetPixelPrice uint8 = iota + 1
	OpSetTreasury
	OpSetAutoWithdrawThreshold
	OpSetMinPlacementInterval
	OpSetMaxVerifiedPayload
	OpPause
	OpUnpause
	OpWithdraw
	OpWithdrawAll
)

// AdminOp is one admin-surface operation. Num carries the numeric argument
// for the kinds that take one, Addr the address argument.
type AdminOp struct {
	Kind uint8          `json:"kind"`
	Num  *big.Int       `json:"num"`
	Addr common.Address `json:"addr"`
}

// Envelope is the wire form: the transaction plus its declared access-list
// ranges. The execution environment resolves Declared before running the
// state transition, so the processor can only validate what the caller
// pre-declared, never choose its own reads.
type Envelope struct {
	Tx       CanvasTransaction     `json:"tx"`
	Declared []accesslist.Declared `json:"declared"`
}

// Rejection conditions surfaced to callers. The client-side error
// classifier matches on these.
var (
	ErrOutOfBounds         = errors.New("coordinates out of canvas bounds")
	ErrInsufficientPayment = errors.New("payment below pixel price")
	ErrRateLimited         = errors.New("placement rate limit in effect")
	ErrPaused              = errors.New("canvas is paused")
	ErrNotAdmin            = errors.New("sender is not the canvas admin")
	ErrEmptyDataRef        = errors.New("data reference is empty")
	ErrAlreadyProcessed    = errors.New("data reference already processed")
	ErrPayloadSize         = errors.New("verified payload length out of bounds")
	ErrNoDeclaredRange     = errors.New("verified placement needs exactly one declared range")
	ErrZeroTreasury        = errors.New("treasury address is not set")
	ErrMultiplePlacements  = errors.New("at most one placement per transaction")
)

// Validate checks the statically checkable parts of the transaction: at most
// one placement, coordinates on the canvas, data references present where
// required, admin arguments within their hard caps.
func (tx *CanvasTransaction) Validate() error {
	if len(tx.Place)+len(tx.Verified) > 1 {
		return ErrMultiplePlacements
	}

	for i, p := range tx.Place {
		if !canvastype.InBounds(p.X, p.Y) {
			return fmt.Errorf("place[%d] (%d,%d): %w", i, p.X, p.Y, ErrOutOfBounds)
		}
	}

	for i, p := range tx.Verified {
		if !canvastype.InBounds(p.X, p.Y) {
			return fmt.Errorf("verified[%d] (%d,%d): %w", i, p.X, p.Y, ErrOutOfBounds)
		}
		if p.DataRef == "" {
			return fmt.Errorf("verified[%d]: %w", i, ErrEmptyDataRef)
		}
	}

	for i, op := range tx.Admin {
		switch op.Kind {
		case OpSetPixelPrice, OpSetAutoWithdrawThreshold, OpWithdraw:
			if op.Num == nil || op.Num.Sign() < 0 {
				return fmt.Errorf("admin[%d] kind %d: missing or negative amount", i, op.Kind)
			}
		case OpSetMinPlacementInterval:
			if op.Num == nil || !op.Num.IsUint64() || op.Num.Uint64() > params.MaxPlacementInterval {
				return fmt.Errorf("admin[%d]: interval above %d seconds", i, params.MaxPlacementInterval)
			}
		case OpSetMaxVerifiedPayload:
			if op.Num == nil || !op.Num.IsUint64() {
				return fmt.Errorf("admin[%d]: missing payload length", i)
			}
			n := op.Num.Uint64()
			if n < params.MinVerifiedPayload || n > params.HardMaxVerifiedPayload {
				return fmt.Errorf("admin[%d]: payload length %d outside [%d, %d]",
					i, n, params.MinVerifiedPayload, params.HardMaxVerifiedPayload)
			}
		case OpSetTreasury, OpPause, OpUnpause, OpWithdrawAll:
			// no arguments to check
		default:
			return fmt.Errorf("admin[%d]: unknown op kind %d", i, op.Kind)
		}
	}

	return nil
}
