// Package sync replays PixelPlaced logs into a confirmed pixel map. It
// resumes from the snapshot store, fetches history in bounded block chunks,
// merges with last-writer-wins by chain order, and then polls for new
// events on a fixed interval; no push channel is assumed.
package sync

import (
	"context"
	"fmt"
	"maps"
	"math/big"
	stdsync "sync"
	"time"

	"github.com/0xarkstar/IPRAYS-PUBLIC/canvas/address"
	canvaslogs "github.com/0xarkstar/IPRAYS-PUBLIC/canvas/logs"
	"github.com/0xarkstar/IPRAYS-PUBLIC/client/snapshot"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"
)

// Source is the read side of the ledger the engine replays from.
// *ethclient.Client satisfies it.
type Source interface {
	BlockNumber(ctx context.Context) (uint64, error)
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
}

// Config tunes one engine instance.
type Config struct {
	// Network identifies the chain for the snapshot store.
	Network string
	// StartBlock is the first block to replay when no snapshot exists.
	StartBlock uint64
	// ChunkSize bounds each FilterLogs range, respecting provider limits.
	ChunkSize uint64
	// PollInterval is the steady-state re-poll cadence.
	PollInterval time.Duration
	// ConfirmationDepth holds back that many blocks from the head before
	// events count as settled.
	ConfirmationDepth uint64
}

// Engine owns the confirmed pixel map. It is the map's only writer; readers
// get copies.
type Engine struct {
	src   Source
	store *snapshot.Store
	cfg   Config

	mu        stdsync.RWMutex
	confirmed map[uint64]*canvaslogs.PlacementEvent
	synced    uint64
	loaded    bool
}

func New(src Source, store *snapshot.Store, cfg Config) *Engine {
	if cfg.ChunkSize == 0 {
		cfg.ChunkSize = 2000
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = 5 * time.Second
	}
	return &Engine{
		src:       src,
		store:     store,
		cfg:       cfg,
		confirmed: make(map[uint64]*canvaslogs.PlacementEvent),
	}
}

// Run catches up from the snapshot and then polls until the context ends.
func (e *Engine) Run(ctx context.Context) error {
	if err := e.SyncOnce(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(e.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := e.SyncOnce(ctx); err != nil {
				log.Warn("sync cycle failed", "error", err)
			}
		}
	}
}

// SyncOnce advances the confirmed state to the current settled head. It is
// safe to call repeatedly; a range that was already merged is skipped.
func (e *Engine) SyncOnce(ctx context.Context) error {
	if err := e.ensureLoaded(ctx); err != nil {
		return err
	}

	head, err := e.src.BlockNumber(ctx)
	if err != nil {
		return fmt.Errorf("failed to get chain head: %w", err)
	}

	if head < e.cfg.ConfirmationDepth {
		return nil
	}
	target := head - e.cfg.ConfirmationDepth

	e.mu.RLock()
	from := e.synced + 1
	e.mu.RUnlock()

	if from > target {
		return nil
	}

	events, err := e.fetchRange(ctx, from, target)
	if err != nil {
		return err
	}

	e.mu.Lock()
	e.mergeLocked(events)
	e.synced = target
	pixels := maps.Clone(e.confirmed)
	e.mu.Unlock()

	if e.store != nil {
		if err := e.store.Save(ctx, e.cfg.Network, target, pixels); err != nil {
			return fmt.Errorf("failed to persist snapshot: %w", err)
		}
	}

	log.Info("synced placement events", "from", from, "to", target, "events", len(events))
	return nil
}

func (e *Engine) ensureLoaded(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.loaded {
		return nil
	}

	if e.cfg.StartBlock > 0 {
		e.synced = e.cfg.StartBlock - 1
	}

	if e.store != nil {
		snap, err := e.store.Load(ctx, e.cfg.Network)
		if err != nil {
			return fmt.Errorf("failed to load snapshot: %w", err)
		}
		if snap != nil {
			e.confirmed = snap.Pixels
			e.synced = snap.BlockNumber
			log.Info("resumed from snapshot", "blockNumber", snap.BlockNumber, "pixels", len(snap.Pixels))
		}
	}

	e.loaded = true
	return nil
}

// fetchRange pulls PixelPlaced logs for [from, to] in ChunkSize pieces.
func (e *Engine) fetchRange(ctx context.Context, from, to uint64) ([]*canvaslogs.PlacementEvent, error) {
	events := []*canvaslogs.PlacementEvent{}

	for start := from; start <= to; start += e.cfg.ChunkSize {
		end := min(start+e.cfg.ChunkSize-1, to)

		logs, err := e.src.FilterLogs(ctx, ethereum.FilterQuery{
			FromBlock: new(big.Int).SetUint64(start),
			ToBlock:   new(big.Int).SetUint64(end),
			Addresses: []common.Address{address.CanvasProcessorAddress},
			Topics:    [][]common.Hash{{canvaslogs.PixelPlaced}},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to fetch logs for [%d, %d]: %w", start, end, err)
		}

		for i := range logs {
			event, err := canvaslogs.ParsePixelPlaced(&logs[i])
			if err != nil {
				log.Warn("skipping unparseable placement log", "block", logs[i].BlockNumber, "error", err)
				continue
			}
			events = append(events, event)
		}
	}

	return events, nil
}

// mergeLocked folds events into the confirmed map. The merge is idempotent
// and insensitive to fetch order: for one coordinate the event latest in
// chain order wins, regardless of the order it arrives in.
func (e *Engine) mergeLocked(events []*canvaslogs.PlacementEvent) {
	for _, event := range events {
		key := event.CoordKey()
		current, ok := e.confirmed[key]
		if !ok || event.After(current) {
			e.confirmed[key] = event
		}
	}
}

// Confirmed returns a copy of the confirmed pixel map, safe to merge against
// concurrently with ongoing syncs.
func (e *Engine) Confirmed() map[uint64]*canvaslogs.PlacementEvent {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return maps.Clone(e.confirmed)
}

// SyncedBlock returns the last block fully merged.
func (e *Engine) SyncedBlock() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.synced
}
