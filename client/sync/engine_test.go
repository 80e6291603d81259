package sync_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/0xarkstar/IPRAYS-PUBLIC/canvas/canvastx"
	"github.com/0xarkstar/IPRAYS-PUBLIC/canvas/canvastype"
	"github.com/0xarkstar/IPRAYS-PUBLIC/client/snapshot"
	clientsync "github.com/0xarkstar/IPRAYS-PUBLIC/client/sync"
	"github.com/0xarkstar/IPRAYS-PUBLIC/client/testchain"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	admin = common.HexToAddress("0x1111111111111111111111111111111111111111")
	alice = common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	bob   = common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
)

func newChain(t *testing.T) *testchain.Chain {
	t.Helper()
	chain := testchain.New()
	// free pixels and no cooldown keep the placement plumbing out of the way
	chain.Initialize(admin, admin, uint256.NewInt(0))
	return chain
}

func place(t *testing.T, chain *testchain.Chain, sender common.Address, x, y uint64, color [3]byte) {
	t.Helper()
	_, _, err := chain.Apply(sender, nil, &canvastx.Envelope{
		Tx: canvastx.CanvasTransaction{
			Place: []canvastx.PlacePixel{{X: x, Y: y, Color: color}},
		},
	})
	require.NoError(t, err)
}

func TestSyncOnce(t *testing.T) {
	chain := newChain(t)

	place(t, chain, alice, 1, 1, [3]byte{1, 0, 0})
	chain.MineBlock()
	place(t, chain, alice, 2, 2, [3]byte{0, 1, 0})
	chain.MineBlock()

	engine := clientsync.New(chain, nil, clientsync.Config{Network: "test"})
	require.NoError(t, engine.SyncOnce(context.Background()))

	confirmed := engine.Confirmed()
	require.Len(t, confirmed, 2)
	assert.Equal(t, [3]byte{1, 0, 0}, confirmed[canvastype.PackCoord(1, 1)].Color)
	assert.Equal(t, [3]byte{0, 1, 0}, confirmed[canvastype.PackCoord(2, 2)].Color)
	assert.Equal(t, uint64(2), engine.SyncedBlock())
}

func TestChunkSizeIsTransparent(t *testing.T) {
	chain := newChain(t)

	colors := [][3]byte{{1, 0, 0}, {2, 0, 0}, {3, 0, 0}, {4, 0, 0}, {5, 0, 0}}
	for i, color := range colors {
		place(t, chain, alice, uint64(i), uint64(i), color)
		chain.MineBlock()
		chain.MineEmpty(1)
	}

	small := clientsync.New(chain, nil, clientsync.Config{Network: "test", ChunkSize: 2})
	big := clientsync.New(chain, nil, clientsync.Config{Network: "test", ChunkSize: 10000})

	require.NoError(t, small.SyncOnce(context.Background()))
	require.NoError(t, big.SyncOnce(context.Background()))

	assert.Equal(t, big.Confirmed(), small.Confirmed())
	assert.Len(t, small.Confirmed(), len(colors))
}

func TestLastWriterWins(t *testing.T) {
	t.Run("AcrossBlocks", func(t *testing.T) {
		chain := newChain(t)

		place(t, chain, alice, 7, 7, [3]byte{1, 1, 1})
		chain.MineBlock()
		place(t, chain, bob, 7, 7, [3]byte{2, 2, 2})
		chain.MineBlock()

		engine := clientsync.New(chain, nil, clientsync.Config{Network: "test"})
		require.NoError(t, engine.SyncOnce(context.Background()))

		confirmed := engine.Confirmed()
		require.Len(t, confirmed, 1)
		event := confirmed[canvastype.PackCoord(7, 7)]
		assert.Equal(t, [3]byte{2, 2, 2}, event.Color)
		assert.Equal(t, bob, event.User)
	})

	t.Run("WithinOneBlock", func(t *testing.T) {
		chain := newChain(t)

		place(t, chain, alice, 7, 7, [3]byte{1, 1, 1})
		place(t, chain, bob, 7, 7, [3]byte{2, 2, 2})
		chain.MineBlock()

		engine := clientsync.New(chain, nil, clientsync.Config{Network: "test"})
		require.NoError(t, engine.SyncOnce(context.Background()))

		event := engine.Confirmed()[canvastype.PackCoord(7, 7)]
		require.NotNil(t, event)
		assert.Equal(t, [3]byte{2, 2, 2}, event.Color, "higher log index wins the block")
	})
}

func TestSyncIsIdempotent(t *testing.T) {
	chain := newChain(t)

	place(t, chain, alice, 1, 1, [3]byte{1, 0, 0})
	chain.MineBlock()

	engine := clientsync.New(chain, nil, clientsync.Config{Network: "test"})
	require.NoError(t, engine.SyncOnce(context.Background()))
	first := engine.Confirmed()

	// nothing new on chain: a second pass changes nothing
	require.NoError(t, engine.SyncOnce(context.Background()))
	assert.Equal(t, first, engine.Confirmed())
	assert.Equal(t, uint64(1), engine.SyncedBlock())
}

func TestConfirmationDepthHoldsBackRecentBlocks(t *testing.T) {
	chain := newChain(t)

	place(t, chain, alice, 1, 1, [3]byte{1, 0, 0})
	chain.MineBlock()
	place(t, chain, alice, 2, 2, [3]byte{2, 0, 0})
	chain.MineBlock()

	engine := clientsync.New(chain, nil, clientsync.Config{Network: "test", ConfirmationDepth: 1})
	require.NoError(t, engine.SyncOnce(context.Background()))

	confirmed := engine.Confirmed()
	require.Len(t, confirmed, 1, "the head block is not settled yet")
	assert.Contains(t, confirmed, canvastype.PackCoord(1, 1))

	// once another block lands on top, the held-back event settles
	chain.MineEmpty(1)
	require.NoError(t, engine.SyncOnce(context.Background()))
	assert.Len(t, engine.Confirmed(), 2)
}

// recordingSource wraps a source and tracks the lowest FromBlock queried.
type recordingSource struct {
	clientsync.Source
	lowest uint64
}

func (r *recordingSource) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	from := q.FromBlock.Uint64()
	if r.lowest == 0 || from < r.lowest {
		r.lowest = from
	}
	return r.Source.FilterLogs(ctx, q)
}

func TestSnapshotResume(t *testing.T) {
	chain := newChain(t)
	dbFile := filepath.Join(t.TempDir(), "snapshot.db")

	place(t, chain, alice, 1, 1, [3]byte{1, 0, 0})
	chain.MineBlock()
	place(t, chain, alice, 2, 2, [3]byte{2, 0, 0})
	chain.MineBlock()

	store, err := snapshot.NewStore(dbFile)
	require.NoError(t, err)

	first := clientsync.New(chain, store, clientsync.Config{Network: "test"})
	require.NoError(t, first.SyncOnce(context.Background()))
	require.NoError(t, store.Close())

	// more activity after the snapshot was taken
	place(t, chain, bob, 3, 3, [3]byte{3, 0, 0})
	chain.MineBlock()

	store, err = snapshot.NewStore(dbFile)
	require.NoError(t, err)
	defer store.Close()

	src := &recordingSource{Source: chain}
	resumed := clientsync.New(src, store, clientsync.Config{Network: "test"})
	require.NoError(t, resumed.SyncOnce(context.Background()))

	confirmed := resumed.Confirmed()
	require.Len(t, confirmed, 3)
	assert.Equal(t, [3]byte{1, 0, 0}, confirmed[canvastype.PackCoord(1, 1)].Color)
	assert.Equal(t, [3]byte{3, 0, 0}, confirmed[canvastype.PackCoord(3, 3)].Color)

	// only blocks past the snapshot were fetched
	assert.Equal(t, uint64(3), src.lowest)
}
