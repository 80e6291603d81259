// Package logs defines the event signatures the canvas processor emits and
// the parsers the client sync engine replays them with.
package logs

import (
	"fmt"

	"github.com/0xarkstar/IPRAYS-PUBLIC/canvas/address"
	"github.com/0xarkstar/IPRAYS-PUBLIC/canvas/canvastype"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

// PixelPlaced is the event signature for every successful placement.
// Parameters: x (indexed), y (indexed), color, user (indexed), timestamp
var PixelPlaced = crypto.Keccak256Hash([]byte("PixelPlaced(uint256,uint256,bytes3,address,uint256)"))

// VerifiedDataProcessed is emitted once per consumed data reference.
// Parameters: dataRefHash (indexed), data, timestamp
var VerifiedDataProcessed = crypto.Keccak256Hash([]byte("VerifiedDataProcessed(string,bytes,uint256)"))

// RateLimitUpdated is emitted when the admin changes the placement interval.
// Parameters: newInterval, timestamp
var RateLimitUpdated = crypto.Keccak256Hash([]byte("RateLimitUpdated(uint256,uint256)"))

// Admin configuration events.
var (
	PixelPriceUpdated            = crypto.Keccak256Hash([]byte("PixelPriceUpdated(uint256,uint256)"))
	TreasuryUpdated              = crypto.Keccak256Hash([]byte("TreasuryUpdated(address,uint256)"))
	AutoWithdrawThresholdUpdated = crypto.Keccak256Hash([]byte("AutoWithdrawThresholdUpdated(uint256,uint256)"))
	MaxVerifiedPayloadUpdated    = crypto.Keccak256Hash([]byte("MaxVerifiedPayloadUpdated(uint256,uint256)"))
	CanvasPaused                 = crypto.Keccak256Hash([]byte("CanvasPaused(uint256)"))
	CanvasUnpaused               = crypto.Keccak256Hash([]byte("CanvasUnpaused(uint256)"))
	TreasurySwept                = crypto.Keccak256Hash([]byte("TreasurySwept(address,uint256,uint256)"))
)

// PlacementEvent is the client-side view of one PixelPlaced log.
type PlacementEvent struct {
	X           uint64         `json:"x"`
	Y           uint64         `json:"y"`
	Color       [3]byte        `json:"color"`
	User        common.Address `json:"user"`
	Timestamp   uint64         `json:"timestamp"`
	BlockNumber uint64         `json:"blockNumber"`
	LogIndex    uint           `json:"logIndex"`
}

// After reports whether e wins a coordinate conflict against other under
// chain order: higher block number, then higher index within the block.
func (e *PlacementEvent) After(other *PlacementEvent) bool {
	if e.BlockNumber != other.BlockNumber {
		return e.BlockNumber > other.BlockNumber
	}
	return e.LogIndex > other.LogIndex
}

// CoordKey returns the packed coordinate the event targets.
func (e *PlacementEvent) CoordKey() uint64 {
	return canvastype.PackCoord(e.X, e.Y)
}

// BuildPixelPlaced constructs the log the processor emits for a placement.
func BuildPixelPlaced(blockNumber uint64, x, y uint64, color [3]byte, user common.Address, timestamp uint64) *types.Log {
	data := make([]byte, 64)
	copy(data[:3], color[:])
	ts := uint256.NewInt(timestamp)
	ts.PutUint256(data[32:])

	return &types.Log{
		Address: address.CanvasProcessorAddress,
		Topics: []common.Hash{
			PixelPlaced,
			common.Hash(uint256.NewInt(x).Bytes32()),
			common.Hash(uint256.NewInt(y).Bytes32()),
			addressTopic(user),
		},
		Data:        data,
		BlockNumber: blockNumber,
	}
}

// BuildVerifiedDataProcessed constructs the data-processed log. The raw
// payload rides in the data section after the timestamp word.
func BuildVerifiedDataProcessed(blockNumber uint64, dataRef string, payload []byte, timestamp uint64) *types.Log {
	data := make([]byte, 32+len(payload))
	ts := uint256.NewInt(timestamp)
	ts.PutUint256(data[:32])
	copy(data[32:], payload)

	return &types.Log{
		Address: address.CanvasProcessorAddress,
		Topics: []common.Hash{
			VerifiedDataProcessed,
			crypto.Keccak256Hash([]byte(dataRef)),
		},
		Data:        data,
		BlockNumber: blockNumber,
	}
}

// BuildParamUpdated constructs a one-word admin configuration log.
func BuildParamUpdated(topic common.Hash, blockNumber uint64, value common.Hash, timestamp uint64) *types.Log {
	data := make([]byte, 64)
	copy(data[:32], value[:])
	ts := uint256.NewInt(timestamp)
	ts.PutUint256(data[32:])

	return &types.Log{
		Address:     address.CanvasProcessorAddress,
		Topics:      []common.Hash{topic},
		Data:        data,
		BlockNumber: blockNumber,
	}
}

// ParsePixelPlaced decodes a PixelPlaced log back into a PlacementEvent.
func ParsePixelPlaced(l *types.Log) (*PlacementEvent, error) {
	if len(l.Topics) != 4 || l.Topics[0] != PixelPlaced {
		return nil, fmt.Errorf("not a PixelPlaced log")
	}
	if len(l.Data) < 64 {
		return nil, fmt.Errorf("short PixelPlaced data: %d bytes", len(l.Data))
	}

	e := &PlacementEvent{
		X:           new(uint256.Int).SetBytes32(l.Topics[1][:]).Uint64(),
		Y:           new(uint256.Int).SetBytes32(l.Topics[2][:]).Uint64(),
		User:        common.BytesToAddress(l.Topics[3][:]),
		Timestamp:   new(uint256.Int).SetBytes(l.Data[32:64]).Uint64(),
		BlockNumber: l.BlockNumber,
		LogIndex:    l.Index,
	}
	copy(e.Color[:], l.Data[:3])

	return e, nil
}

func addressTopic(a common.Address) common.Hash {
	h := common.Hash{}
	copy(h[12:], a[:])
	return h
}
