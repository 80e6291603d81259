// Package chain is the client's thin binding to the ledger RPC: signed
// placement submission and read-only access to the processor's storage
// layout. Reads go straight to storage slots over eth_getStorageAt, so the
// client needs nothing from the node beyond the standard eth namespace.
package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/0xarkstar/IPRAYS-PUBLIC/canvas/address"
	"github.com/0xarkstar/IPRAYS-PUBLIC/canvas/canvastype"
	"github.com/0xarkstar/IPRAYS-PUBLIC/canvas/storageutil/grid"
	"github.com/0xarkstar/IPRAYS-PUBLIC/canvas/storageutil/params"
	"github.com/0xarkstar/IPRAYS-PUBLIC/canvas/storageutil/ratelimit"
	"github.com/0xarkstar/IPRAYS-PUBLIC/canvas/storageutil/verified"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// StorageReader is the slice of the RPC client the reader needs.
// *ethclient.Client satisfies it.
type StorageReader interface {
	StorageAt(ctx context.Context, account common.Address, key common.Hash, blockNumber *big.Int) ([]byte, error)
}

// Reader answers the contract's read entry points from raw storage slots.
type Reader struct {
	rpc StorageReader
}

func NewReader(rpc StorageReader) *Reader {
	return &Reader{rpc: rpc}
}

// remoteState adapts eth_getStorageAt to the StateAccess interface so the
// storage packages can decode records remotely. Writes are a programming
// error on this path.
type remoteState struct {
	ctx context.Context
	rpc StorageReader
	err error
}

func (s *remoteState) GetState(account common.Address, key common.Hash) common.Hash {
	if s.err != nil {
		return common.Hash{}
	}
	b, err := s.rpc.StorageAt(s.ctx, account, key, nil)
	if err != nil {
		s.err = err
		return common.Hash{}
	}
	return common.BytesToHash(b)
}

func (s *remoteState) SetState(common.Address, common.Hash, common.Hash) common.Hash {
	panic("remote state is read-only")
}

func (r *Reader) slot(ctx context.Context, key common.Hash) (common.Hash, error) {
	b, err := r.rpc.StorageAt(ctx, address.CanvasProcessorAddress, key, nil)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to read storage slot %s: %w", key.Hex(), err)
	}
	return common.BytesToHash(b), nil
}

func (r *Reader) PixelPrice(ctx context.Context) (*uint256.Int, error) {
	w, err := r.slot(ctx, params.SlotPixelPrice)
	if err != nil {
		return nil, err
	}
	return new(uint256.Int).SetBytes(w[:]), nil
}

func (r *Reader) MinPlacementInterval(ctx context.Context) (uint64, error) {
	w, err := r.slot(ctx, params.SlotMinPlacementInterval)
	if err != nil {
		return 0, err
	}
	return new(uint256.Int).SetBytes(w[:]).Uint64(), nil
}

func (r *Reader) LastPlacementAt(ctx context.Context, sender common.Address) (uint64, error) {
	w, err := r.slot(ctx, ratelimit.SlotFor(sender))
	if err != nil {
		return 0, err
	}
	return new(uint256.Int).SetBytes(w[:]).Uint64(), nil
}

func (r *Reader) IsProcessed(ctx context.Context, dataRef string) (bool, error) {
	w, err := r.slot(ctx, verified.ProcessedSlotFor(dataRef))
	if err != nil {
		return false, err
	}
	return w != (common.Hash{}), nil
}

// Pixel reads the full record at (x, y), nil if never placed.
func (r *Reader) Pixel(ctx context.Context, x, y uint64) (*grid.PixelRecord, error) {
	state := &remoteState{ctx: ctx, rpc: r.rpc}
	rec, err := grid.GetPixel(state, x, y)
	if state.err != nil {
		return nil, fmt.Errorf("failed to read pixel storage: %w", state.err)
	}
	return rec, err
}

func (r *Reader) CanvasInfo(ctx context.Context) (*canvastype.CanvasInfo, error) {
	price, err := r.PixelPrice(ctx)
	if err != nil {
		return nil, err
	}

	total, err := r.slot(ctx, params.SlotTotalPlaced)
	if err != nil {
		return nil, err
	}

	maxPayload, err := r.slot(ctx, params.SlotMaxVerifiedPayload)
	if err != nil {
		return nil, err
	}
	maxLen := new(uint256.Int).SetBytes(maxPayload[:]).Uint64()
	if maxLen == 0 {
		maxLen = params.DefaultMaxVerifiedPayload
	}

	return &canvastype.CanvasInfo{
		Width:       canvastype.GridSize,
		Height:      canvastype.GridSize,
		TotalPlaced: new(uint256.Int).SetBytes(total[:]).Uint64(),
		PixelPrice:  price.Dec(),
		MaxPayload:  maxLen,
	}, nil
}
