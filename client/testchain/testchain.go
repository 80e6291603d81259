// Package testchain is an in-memory ledger for tests: it executes canvas
// envelopes against map-backed state with revert-on-error semantics, seals
// logs into blocks and serves them back through the same FilterLogs surface
// a real node exposes.
package testchain

import (
	"context"
	"encoding/binary"
	"fmt"
	"maps"
	"sync"

	"github.com/0xarkstar/IPRAYS-PUBLIC/canvas/accesslist"
	"github.com/0xarkstar/IPRAYS-PUBLIC/canvas/address"
	"github.com/0xarkstar/IPRAYS-PUBLIC/canvas/canvastx"
	"github.com/0xarkstar/IPRAYS-PUBLIC/canvas/storageutil"
	"github.com/0xarkstar/IPRAYS-PUBLIC/canvas/storageutil/params"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
)

// Chain is a single-goroutine-friendly ledger. All methods take the
// internal lock, so concurrent use from a sync engine and a test body is
// fine.
type Chain struct {
	mu sync.Mutex

	state    map[common.Address]map[common.Hash]common.Hash
	balances map[common.Address]*uint256.Int

	// blocks[n] holds the sealed logs of block n.
	blocks  map[uint64][]types.Log
	head    uint64
	pending []types.Log
	txIndex int

	now     uint64
	txNonce uint64

	resolver accesslist.Resolver
	legacy   canvastx.LegacyLookup
}

func New() *Chain {
	return &Chain{
		state:    make(map[common.Address]map[common.Hash]common.Hash),
		balances: make(map[common.Address]*uint256.Int),
		blocks:   make(map[uint64][]types.Log),
		now:      1_700_000_000,
	}
}

// SetResolver installs the access-list resolver the environment uses for
// declared ranges.
func (c *Chain) SetResolver(r accesslist.Resolver) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resolver = r
}

// SetLegacyLookup installs direct data-reference resolution, mimicking a
// development node.
func (c *Chain) SetLegacyLookup(l canvastx.LegacyLookup) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.legacy = l
}

// Fund credits an account out of thin air.
func (c *Chain) Fund(addr common.Address, amount *uint256.Int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.creditLocked(addr, amount)
}

// Initialize seeds the canvas parameters the way genesis would.
func (c *Chain) Initialize(admin, treasury common.Address, pixelPrice *uint256.Int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	params.Initialize(&stateAccess{c: c}, admin, treasury, pixelPrice)
}

// Now returns the current ledger timestamp.
func (c *Chain) Now() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the ledger clock forward.
func (c *Chain) Advance(seconds uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now += seconds
}

// Balance returns a copy of the account balance.
func (c *Chain) Balance(addr common.Address) *uint256.Int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return new(uint256.Int).Set(c.balanceLocked(addr))
}

// Apply executes one envelope in the block currently being built. The value
// moves from sender to the processor before execution and moves back when
// execution fails, along with every state change.
func (c *Chain) Apply(sender common.Address, value *uint256.Int, envelope *canvastx.Envelope) (common.Hash, []*types.Log, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	encoded, err := rlp.EncodeToBytes(envelope)
	if err != nil {
		return common.Hash{}, nil, fmt.Errorf("failed to encode envelope: %w", err)
	}

	c.txNonce++
	var nonce [8]byte
	binary.BigEndian.PutUint64(nonce[:], c.txNonce)
	txHash := crypto.Keccak256Hash(encoded, nonce[:])

	stateCopy := c.copyStateLocked()
	balancesCopy := c.copyBalancesLocked()

	if value == nil {
		value = uint256.NewInt(0)
	}
	fa := &fundsAccess{c: c}
	if err := fa.Transfer(sender, address.CanvasProcessorAddress, value); err != nil {
		return txHash, nil, err
	}

	env := canvastx.Env{
		BlockNumber: c.head + 1,
		Timestamp:   c.now,
		TxHash:      txHash,
		TxIndex:     c.txIndex,
		Sender:      sender,
		Value:       value,
	}

	logs, err := canvastx.ExecuteTransaction(encoded, env, &stateAccess{c: c}, fa, c.resolver, c.legacy)
	if err != nil {
		c.state = stateCopy
		c.balances = balancesCopy
		return txHash, nil, err
	}

	for _, l := range logs {
		l.TxHash = txHash
		l.TxIndex = uint(c.txIndex)
		l.Index = uint(len(c.pending))
		c.pending = append(c.pending, *l)
	}
	c.txIndex++

	return txHash, logs, nil
}

// MineBlock seals the pending logs into the next block.
func (c *Chain) MineBlock() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mineLocked()
}

// MineEmpty advances the head by n blocks with no transactions, useful for
// pushing events past a confirmation depth.
func (c *Chain) MineEmpty(n uint64) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	for range n {
		c.mineLocked()
	}
	return c.head
}

func (c *Chain) mineLocked() uint64 {
	c.head++
	c.blocks[c.head] = c.pending
	c.pending = nil
	c.txIndex = 0
	return c.head
}

// BlockNumber implements the sync engine's source interface.
func (c *Chain) BlockNumber(ctx context.Context) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.head, nil
}

// FilterLogs implements the sync engine's source interface over the sealed
// blocks, honouring the block range, address and first-topic filters.
func (c *Chain) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	from := uint64(0)
	if q.FromBlock != nil {
		from = q.FromBlock.Uint64()
	}
	to := c.head
	if q.ToBlock != nil {
		to = q.ToBlock.Uint64()
	}
	if to > c.head {
		return nil, fmt.Errorf("block %d not yet mined", to)
	}

	out := []types.Log{}
	for n := from; n <= to; n++ {
		for _, l := range c.blocks[n] {
			if !matchAddress(q.Addresses, l.Address) {
				continue
			}
			if !matchFirstTopic(q.Topics, l.Topics) {
				continue
			}
			out = append(out, l)
		}
	}
	return out, nil
}

func matchAddress(want []common.Address, got common.Address) bool {
	if len(want) == 0 {
		return true
	}
	for _, a := range want {
		if a == got {
			return true
		}
	}
	return false
}

func matchFirstTopic(want [][]common.Hash, got []common.Hash) bool {
	if len(want) == 0 || len(want[0]) == 0 {
		return true
	}
	if len(got) == 0 {
		return false
	}
	for _, t := range want[0] {
		if t == got[0] {
			return true
		}
	}
	return false
}

// GetState reads a storage slot directly, for assertions.
func (c *Chain) GetState(addr common.Address, key common.Hash) common.Hash {
	c.mu.Lock()
	defer c.mu.Unlock()
	return (&stateAccess{c: c}).GetState(addr, key)
}

// State returns a raw state accessor. Callers must not use it concurrently
// with Apply.
func (c *Chain) State() storageutil.StateAccess {
	return &stateAccess{c: c}
}

func (c *Chain) copyStateLocked() map[common.Address]map[common.Hash]common.Hash {
	cp := make(map[common.Address]map[common.Hash]common.Hash, len(c.state))
	for addr, slots := range c.state {
		cp[addr] = maps.Clone(slots)
	}
	return cp
}

func (c *Chain) copyBalancesLocked() map[common.Address]*uint256.Int {
	cp := make(map[common.Address]*uint256.Int, len(c.balances))
	for addr, b := range c.balances {
		cp[addr] = new(uint256.Int).Set(b)
	}
	return cp
}

func (c *Chain) balanceLocked(addr common.Address) *uint256.Int {
	if b, ok := c.balances[addr]; ok {
		return b
	}
	return uint256.NewInt(0)
}

func (c *Chain) creditLocked(addr common.Address, amount *uint256.Int) {
	c.balances[addr] = new(uint256.Int).Add(c.balanceLocked(addr), amount)
}

// stateAccess implements storage reads and writes over the chain's state
// map. Zero values delete the slot, matching real state trie behaviour.
type stateAccess struct {
	c *Chain
}

func (s *stateAccess) GetState(addr common.Address, key common.Hash) common.Hash {
	if slots, ok := s.c.state[addr]; ok {
		return slots[key]
	}
	return common.Hash{}
}

func (s *stateAccess) SetState(addr common.Address, key common.Hash, value common.Hash) common.Hash {
	if value == (common.Hash{}) {
		if slots, ok := s.c.state[addr]; ok {
			delete(slots, key)
			if len(slots) == 0 {
				delete(s.c.state, addr)
			}
		}
		return value
	}
	slots, ok := s.c.state[addr]
	if !ok {
		slots = make(map[common.Hash]common.Hash)
		s.c.state[addr] = slots
	}
	slots[key] = value
	return value
}

type fundsAccess struct {
	c *Chain
}

func (f *fundsAccess) GetBalance(addr common.Address) *uint256.Int {
	return new(uint256.Int).Set(f.c.balanceLocked(addr))
}

func (f *fundsAccess) Transfer(from, to common.Address, amount *uint256.Int) error {
	balance := f.c.balanceLocked(from)
	if balance.Cmp(amount) < 0 {
		return fmt.Errorf("insufficient funds: %s has %s, needs %s", from, balance.Dec(), amount.Dec())
	}
	f.c.balances[from] = new(uint256.Int).Sub(balance, amount)
	f.c.creditLocked(to, amount)
	return nil
}
