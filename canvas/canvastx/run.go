package canvastx

import (
	"fmt"

	"github.com/0xarkstar/IPRAYS-PUBLIC/canvas/accesslist"
	"github.com/0xarkstar/IPRAYS-PUBLIC/canvas/address"
	"github.com/0xarkstar/IPRAYS-PUBLIC/canvas/colorhex"
	canvaslogs "github.com/0xarkstar/IPRAYS-PUBLIC/canvas/logs"
	"github.com/0xarkstar/IPRAYS-PUBLIC/canvas/storageutil"
	"github.com/0xarkstar/IPRAYS-PUBLIC/canvas/storageutil/grid"
	"github.com/0xarkstar/IPRAYS-PUBLIC/canvas/storageutil/params"
	"github.com/0xarkstar/IPRAYS-PUBLIC/canvas/storageutil/ratelimit"
	"github.com/0xarkstar/IPRAYS-PUBLIC/canvas/storageutil/verified"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
)

//go:generate go run github.com/ethereum/go-ethereum/rlp/rlpgen -type Envelope -out gen_envelope_rlp.go

// Env is the execution context the ledger supplies for one transaction.
type Env struct {
	BlockNumber uint64
	Timestamp   uint64
	TxHash      common.Hash
	TxIndex     int
	Sender      common.Address
	Value       *uint256.Int
}

// LegacyLookup resolves a verified placement's payload directly by data
// reference when the transaction declared no access-list ranges. Development
// nodes provide it; production nodes leave it nil so the declared range is
// the only way in.
type LegacyLookup func(dataRef string) ([]byte, error)

// Run applies the transaction to the canvas state and returns the logs it
// emits. Any error means the caller must revert every state change made so
// far; Run itself performs no rollback.
func (tx *CanvasTransaction) Run(
	env Env,
	access storageutil.StateAccess,
	funds storageutil.FundsAccess,
	resolved []accesslist.Resolved,
	legacy LegacyLookup,
) (_ []*types.Log, err error) {

	defer func() {
		if err != nil {
			log.Error("failed to run canvas transaction", "tx", env.TxHash, "error", err)
		}
	}()

	if err := tx.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate canvas transaction: %w", err)
	}

	logs := []*types.Log{}
	placed := false

	for _, p := range tx.Place {
		l, err := runPlacement(env, access, placement{
			x: p.X, y: p.Y, color: p.Color, dataRef: p.DataRef,
		})
		if err != nil {
			return nil, err
		}
		logs = append(logs, l...)
		placed = true
	}

	for _, p := range tx.Verified {
		payload, err := verifiedPayload(p.DataRef, resolved, legacy)
		if err != nil {
			return nil, err
		}

		if verified.IsProcessed(access, p.DataRef) {
			return nil, fmt.Errorf("data reference %q: %w", p.DataRef, ErrAlreadyProcessed)
		}

		maxLen := params.MaxVerifiedPayload(access)
		if uint64(len(payload)) < params.MinVerifiedPayload || uint64(len(payload)) > maxLen {
			return nil, fmt.Errorf("%w: %d bytes, allowed [%d, %d]",
				ErrPayloadSize, len(payload), params.MinVerifiedPayload, maxLen)
		}

		color, err := colorhex.Extract(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to extract color from payload %q: %w", p.DataRef, err)
		}

		l, err := runPlacement(env, access, placement{
			x: p.X, y: p.Y, color: color, dataRef: p.DataRef, isVerified: true,
		})
		if err != nil {
			return nil, err
		}

		if err := verified.Store(access, p.DataRef, payload); err != nil {
			return nil, fmt.Errorf("failed to store verified data: %w", err)
		}

		logs = append(logs, l...)
		logs = append(logs, canvaslogs.BuildVerifiedDataProcessed(env.BlockNumber, p.DataRef, payload, env.Timestamp))
		placed = true
	}

	if placed {
		if l := sweepTreasury(env, access, funds); l != nil {
			logs = append(logs, l)
		}
	}

	for i, op := range tx.Admin {
		l, err := runAdminOp(env, access, funds, op)
		if err != nil {
			return nil, fmt.Errorf("admin[%d]: %w", i, err)
		}
		logs = append(logs, l...)
	}

	return logs, nil
}

type placement struct {
	x, y       uint64
	color      [3]byte
	dataRef    string
	isVerified bool
}

func runPlacement(env Env, access storageutil.StateAccess, p placement) ([]*types.Log, error) {
	if params.Paused(access) {
		return nil, ErrPaused
	}

	price := params.PixelPrice(access)
	if env.Value == nil || env.Value.Cmp(price) < 0 {
		return nil, fmt.Errorf("%w: need %s wei", ErrInsufficientPayment, price.Dec())
	}

	if remaining := ratelimit.Remaining(access, env.Sender, env.Timestamp); remaining > 0 {
		return nil, fmt.Errorf("%w: retry in %ds", ErrRateLimited, remaining)
	}

	err := grid.StorePixel(access, &grid.PixelRecord{
		X:          p.x,
		Y:          p.y,
		Color:      p.color,
		PlacedBy:   env.Sender,
		Timestamp:  env.Timestamp,
		DataRef:    p.dataRef,
		IsVerified: p.isVerified,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store pixel: %w", err)
	}

	ratelimit.RecordPlacement(access, env.Sender, env.Timestamp)
	params.IncrementTotalPlaced(access)

	return []*types.Log{
		canvaslogs.BuildPixelPlaced(env.BlockNumber, p.x, p.y, p.color, env.Sender, env.Timestamp),
	}, nil
}

// verifiedPayload picks the payload bytes for a verified placement: the
// single declared range when present, the legacy lookup otherwise.
func verifiedPayload(dataRef string, resolved []accesslist.Resolved, legacy LegacyLookup) ([]byte, error) {
	switch {
	case len(resolved) == 1:
		return resolved[0].Data, nil
	case len(resolved) > 1:
		return nil, fmt.Errorf("%w: got %d", ErrNoDeclaredRange, len(resolved))
	case legacy != nil:
		payload, err := legacy(dataRef)
		if err != nil {
			return nil, fmt.Errorf("legacy payload lookup for %q failed: %w", dataRef, err)
		}
		return payload, nil
	default:
		return nil, ErrNoDeclaredRange
	}
}

// sweepTreasury moves the processor balance to the treasury once it crosses
// the configured threshold. A failing sweep must never revert the placement
// that triggered it, so errors are only logged.
func sweepTreasury(env Env, access storageutil.StateAccess, funds storageutil.FundsAccess) *types.Log {
	threshold := params.AutoWithdrawThreshold(access)
	if threshold.IsZero() {
		return nil
	}

	treasury := params.Treasury(access)
	if treasury == (common.Address{}) {
		return nil
	}

	balance := funds.GetBalance(address.CanvasProcessorAddress)
	if balance.Cmp(threshold) < 0 {
		return nil
	}

	amount := new(uint256.Int).Set(balance)
	if err := funds.Transfer(address.CanvasProcessorAddress, treasury, amount); err != nil {
		log.Warn("treasury sweep failed", "treasury", treasury, "amount", amount, "error", err)
		return nil
	}

	l := canvaslogs.BuildParamUpdated(canvaslogs.TreasurySwept, env.BlockNumber, amount.Bytes32(), env.Timestamp)
	l.Topics = append(l.Topics, addressTopic(treasury))
	return l
}

func runAdminOp(env Env, access storageutil.StateAccess, funds storageutil.FundsAccess, op AdminOp) ([]*types.Log, error) {
	if env.Sender != params.Admin(access) {
		return nil, ErrNotAdmin
	}

	word := func(v *uint256.Int) common.Hash { return v.Bytes32() }

	switch op.Kind {
	case OpSetPixelPrice:
		price, overflow := uint256.FromBig(op.Num)
		if overflow {
			return nil, fmt.Errorf("pixel price overflows uint256")
		}
		params.SetPixelPrice(access, price)
		return []*types.Log{canvaslogs.BuildParamUpdated(canvaslogs.PixelPriceUpdated, env.BlockNumber, word(price), env.Timestamp)}, nil

	case OpSetTreasury:
		params.SetTreasury(access, op.Addr)
		return []*types.Log{canvaslogs.BuildParamUpdated(canvaslogs.TreasuryUpdated, env.BlockNumber, addressTopic(op.Addr), env.Timestamp)}, nil

	case OpSetAutoWithdrawThreshold:
		threshold, overflow := uint256.FromBig(op.Num)
		if overflow {
			return nil, fmt.Errorf("threshold overflows uint256")
		}
		params.SetAutoWithdrawThreshold(access, threshold)
		return []*types.Log{canvaslogs.BuildParamUpdated(canvaslogs.AutoWithdrawThresholdUpdated, env.BlockNumber, word(threshold), env.Timestamp)}, nil

	case OpSetMinPlacementInterval:
		params.SetMinPlacementInterval(access, op.Num.Uint64())
		return []*types.Log{canvaslogs.BuildParamUpdated(canvaslogs.RateLimitUpdated, env.BlockNumber, word(uint256.NewInt(op.Num.Uint64())), env.Timestamp)}, nil

	case OpSetMaxVerifiedPayload:
		params.SetMaxVerifiedPayload(access, op.Num.Uint64())
		return []*types.Log{canvaslogs.BuildParamUpdated(canvaslogs.MaxVerifiedPayloadUpdated, env.BlockNumber, word(uint256.NewInt(op.Num.Uint64())), env.Timestamp)}, nil

	case OpPause:
		params.SetPaused(access, true)
		return []*types.Log{canvaslogs.BuildParamUpdated(canvaslogs.CanvasPaused, env.BlockNumber, common.Hash{}, env.Timestamp)}, nil

	case OpUnpause:
		params.SetPaused(access, false)
		return []*types.Log{canvaslogs.BuildParamUpdated(canvaslogs.CanvasUnpaused, env.BlockNumber, common.Hash{}, env.Timestamp)}, nil

	case OpWithdraw, OpWithdrawAll:
		treasury := params.Treasury(access)
		if treasury == (common.Address{}) {
			return nil, ErrZeroTreasury
		}

		amount := funds.GetBalance(address.CanvasProcessorAddress)
		if op.Kind == OpWithdraw {
			requested, overflow := uint256.FromBig(op.Num)
			if overflow {
				return nil, fmt.Errorf("withdraw amount overflows uint256")
			}
			amount = requested
		}

		if err := funds.Transfer(address.CanvasProcessorAddress, treasury, amount); err != nil {
			return nil, fmt.Errorf("withdrawal failed: %w", err)
		}

		l := canvaslogs.BuildParamUpdated(canvaslogs.TreasurySwept, env.BlockNumber, amount.Bytes32(), env.Timestamp)
		l.Topics = append(l.Topics, addressTopic(treasury))
		return []*types.Log{l}, nil

	default:
		return nil, fmt.Errorf("unknown admin op kind %d", op.Kind)
	}
}

func addressTopic(a common.Address) common.Hash {
	h := common.Hash{}
	copy(h[12:], a[:])
	return h
}

// ExecuteTransaction decodes an RLP envelope, resolves its declared ranges
// and runs it. This is the single entry point the execution environment
// calls.
func ExecuteTransaction(
	d []byte,
	env Env,
	access storageutil.StateAccess,
	funds storageutil.FundsAccess,
	resolver accesslist.Resolver,
	legacy LegacyLookup,
) ([]*types.Log, error) {

	envelope := &Envelope{}
	if err := rlp.DecodeBytes(d, envelope); err != nil {
		return nil, fmt.Errorf("failed to decode canvas transaction: %w", err)
	}

	var resolved []accesslist.Resolved
	if len(envelope.Declared) > 0 {
		if resolver == nil {
			return nil, fmt.Errorf("transaction declared %d ranges but no resolver is available", len(envelope.Declared))
		}
		var err error
		resolved, err = resolver.Resolve(envelope.Declared)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve declared ranges: %w", err)
		}
	}

	logs, err := envelope.Tx.Run(env, access, funds, resolved, legacy)
	if err != nil {
		return nil, fmt.Errorf("failed to run canvas transaction: %w", err)
	}

	return logs, nil
}
