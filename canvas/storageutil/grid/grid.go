// Package grid persists the sparse pixel grid: one record per packed
// coordinate, overwritten on every successful placement and never deleted.
package grid

import (
	"bytes"
	"fmt"

	"github.com/0xarkstar/IPRAYS-PUBLIC/canvas/canvastype"
	"github.com/0xarkstar/IPRAYS-PUBLIC/canvas/storageutil"
	"github.com/0xarkstar/IPRAYS-PUBLIC/canvas/storageutil/stateblob"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/klauspost/compress/zstd"
)

var PixelRecordSalt = []byte("ipraysPixelRecord")

type StateAccess = storageutil.StateAccess

// PixelRecord is the on-ledger state of one cell.
type PixelRecord struct {
	X          uint64         `json:"x"`
	Y          uint64         `json:"y"`
	Color      [3]byte        `json:"color"`
	PlacedBy   common.Address `json:"placedBy"`
	Timestamp  uint64         `json:"timestamp"`
	DataRef    string         `json:"dataRef"`
	IsVerified bool           `json:"isVerified"`
}

var encoder, _ = zstd.NewWriter(nil)
var decoder, _ = zstd.NewReader(nil)

// SlotFor returns the head slot of the record blob for a coordinate.
// Exported so read-only clients can walk the same layout remotely.
func SlotFor(x, y uint64) common.Hash {
	coord := canvastype.CoordHash(x, y)
	return crypto.Keccak256Hash(PixelRecordSalt, coord[:])
}

// StorePixel writes (or overwrites) the record at its coordinate.
func StorePixel(access StateAccess, rec *PixelRecord) error {
	buf := new(bytes.Buffer)
	if err := rlp.Encode(buf, rec); err != nil {
		return fmt.Errorf("failed to encode pixel record: %w", err)
	}

	compressed := encoder.EncodeAll(buf.Bytes(), nil)

	stateblob.SetBlob(access, SlotFor(rec.X, rec.Y), compressed)
	return nil
}

// GetPixel reads the record at (x, y). A never-placed coordinate returns
// (nil, nil).
func GetPixel(access StateAccess, x, y uint64) (*PixelRecord, error) {
	d := stateblob.GetBlob(access, SlotFor(x, y))
	if len(d) == 0 {
		return nil, nil
	}

	raw, err := decoder.DecodeAll(d, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress pixel record: %w", err)
	}

	rec := PixelRecord{}
	if err := rlp.DecodeBytes(raw, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode pixel record: %w", err)
	}

	return &rec, nil
}
