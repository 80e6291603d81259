package canvastype

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"
)

// GridSize is the width and height of the canvas. Coordinates are valid in
// [0, GridSize) on both axes.
const GridSize = 1024

// PackCoord packs a coordinate pair into a single key, x in the high 32 bits
// and y in the low 32 bits. The packing is injective over the full uint32
// domain, so distinct coordinates can never collide.
func PackCoord(x, y uint64) uint64 {
	return x<<32 | y&0xffffffff
}

// UnpackCoord is the inverse of PackCoord.
func UnpackCoord(key uint64) (x, y uint64) {
	return key >> 32, key & 0xffffffff
}

// CoordHash returns the packed coordinate as a 32-byte word, for use as a
// storage slot salt component.
func CoordHash(x, y uint64) common.Hash {
	var h common.Hash
	binary.BigEndian.PutUint64(h[24:], PackCoord(x, y))
	return h
}

// Pixel is the read-side view of one placed cell.
type Pixel struct {
	X          uint64         `json:"x"`
	Y          uint64         `json:"y"`
	Color      [3]byte        `json:"color"`
	PlacedBy   common.Address `json:"placedBy"`
	Timestamp  uint64         `json:"timestamp"`
	DataRef    string         `json:"dataRef"`
	IsVerified bool           `json:"isVerified"`
}

// CanvasInfo mirrors the getCanvasInfo read entry point.
type CanvasInfo struct {
	Width       uint64 `json:"width"`
	Height      uint64 `json:"height"`
	TotalPlaced uint64 `json:"totalPlaced"`
	PixelPrice  string `json:"pixelPrice"`
	MaxPayload  uint64 `json:"maxPayload"`
}

// InBounds reports whether the coordinate is on the canvas.
func InBounds(x, y uint64) bool {
	return x < GridSize && y < GridSize
}
