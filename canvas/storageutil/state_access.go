package storageutil

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// StateAccess is the slot-level view of the ledger state the processor runs
// against. The execution environment decides what backs it (a StateDB on a
// node, an in-memory map in tests).
type StateAccess interface {
	GetState(common.Address, common.Hash) common.Hash
	SetState(common.Address, common.Hash, common.Hash) common.Hash
}

// FundsAccess exposes account balances to the processor. Transfer moves wei
// between accounts and fails without side effects if the source balance is
// insufficient.
type FundsAccess interface {
	GetBalance(common.Address) *uint256.Int
	Transfer(from, to common.Address, amount *uint256.Int) error
}
