// Package overlay holds the locally-applied pixels that the ledger has not
// confirmed yet. Entries are keyed by packed coordinate: a second local
// placement at the same cell replaces the first, and while an entry exists
// it shadows the confirmed value in the merged view.
package overlay

import (
	"sync"
	"time"

	"github.com/0xarkstar/IPRAYS-PUBLIC/canvas/canvastype"
	canvaslogs "github.com/0xarkstar/IPRAYS-PUBLIC/canvas/logs"
)

// DefaultTTL is how long an entry survives without a confirm or rollback
// before the sweep collects it.
const DefaultTTL = 30 * time.Second

// Pixel is one optimistic entry.
type Pixel struct {
	X          uint64
	Y          uint64
	Color      [3]byte
	ClientTxID string
	CreatedAt  time.Time
}

// Overlay is safe for one writer plus concurrent readers; Merge works on
// copies, so readers never observe a torn map.
type Overlay struct {
	mu      sync.Mutex
	entries map[uint64]Pixel
	ttl     time.Duration
	now     func() time.Time
}

func New(ttl time.Duration) *Overlay {
	if ttl == 0 {
		ttl = DefaultTTL
	}
	return &Overlay{
		entries: make(map[uint64]Pixel),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Add inserts or replaces the optimistic entry for a coordinate.
func (o *Overlay) Add(x, y uint64, color [3]byte, clientTxID string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.entries[canvastype.PackCoord(x, y)] = Pixel{
		X:          x,
		Y:          y,
		Color:      color,
		ClientTxID: clientTxID,
		CreatedAt:  o.now(),
	}
}

// Confirm removes the entry created under clientTxID. The real event
// supersedes it on the next sync. Returns false if the entry was already
// gone (expired, or replaced by a newer local write).
func (o *Overlay) Confirm(clientTxID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	for key, p := range o.entries {
		if p.ClientTxID == clientTxID {
			delete(o.entries, key)
			return true
		}
	}
	return false
}

// Rollback removes the entry at a coordinate after a failed placement.
// Returns the removed entry so the caller can notify the user.
func (o *Overlay) Rollback(x, y uint64) (Pixel, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	key := canvastype.PackCoord(x, y)
	p, ok := o.entries[key]
	if ok {
		delete(o.entries, key)
	}
	return p, ok
}

// Expire sweeps entries older than the TTL and returns them, so callers can
// surface the abandonment to the user.
func (o *Overlay) Expire() []Pixel {
	o.mu.Lock()
	defer o.mu.Unlock()

	cutoff := o.now().Add(-o.ttl)
	expired := []Pixel{}
	for key, p := range o.entries {
		if p.CreatedAt.Before(cutoff) {
			expired = append(expired, p)
			delete(o.entries, key)
		}
	}
	return expired
}

// Len returns the number of pending entries.
func (o *Overlay) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.entries)
}

// Merge produces the visible canvas: confirmed pixels first, optimistic
// entries layered on top.
func (o *Overlay) Merge(confirmed map[uint64]*canvaslogs.PlacementEvent) map[uint64]canvastype.Pixel {
	o.mu.Lock()
	pending := make(map[uint64]Pixel, len(o.entries))
	for k, v := range o.entries {
		pending[k] = v
	}
	o.mu.Unlock()

	visible := make(map[uint64]canvastype.Pixel, len(confirmed)+len(pending))

	for key, e := range confirmed {
		visible[key] = canvastype.Pixel{
			X:         e.X,
			Y:         e.Y,
			Color:     e.Color,
			PlacedBy:  e.User,
			Timestamp: e.Timestamp,
		}
	}

	for key, p := range pending {
		visible[key] = canvastype.Pixel{
			X:     p.X,
			Y:     p.Y,
			Color: p.Color,
		}
	}

	return visible
}
