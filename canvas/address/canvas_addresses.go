package address

import "github.com/ethereum/go-ethereum/common"

var (
	// CanvasProcessorAddress is the well-known address of the pixel placement
	// processor. All canvas state lives in this account's storage and all
	// placement events are emitted from it.
	CanvasProcessorAddress = common.HexToAddress("0x0000000000000000000000000000007072617973")
)
