// Package accesslist models the pre-declared read ranges a transaction
// attaches when it wants the processor to consume off-chain data. The
// processor never chooses what to read: the execution environment resolves
// the declared ranges against the content-addressed payload store before the
// state transition runs, and the transition only sees the resolved bytes.
package accesslist

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Declared is one transaction-attached range: a bounded slice of a
// previously published content-addressed payload.
type Declared struct {
	ContentHash common.Hash `json:"contentHash"`
	Offset      uint64      `json:"offset"`
	Length      uint64      `json:"length"`
}

// Resolved pairs a declared range with the bytes it addressed at execution
// time.
type Resolved struct {
	Declared
	Data []byte
}

// ContentReader is the opaque off-chain payload store, addressed by content
// hash plus offset and length.
type ContentReader interface {
	ReadRange(hash common.Hash, offset, length uint64) ([]byte, error)
}

// Resolver turns a transaction's declared ranges into resolved bytes.
type Resolver interface {
	Resolve(declared []Declared) ([]Resolved, error)
}

// ReaderResolver adapts any ContentReader into a Resolver.
type ReaderResolver struct {
	Reader ContentReader
}

func (r ReaderResolver) Resolve(declared []Declared) ([]Resolved, error) {
	resolved := make([]Resolved, 0, len(declared))
	for i, d := range declared {
		data, err := r.Reader.ReadRange(d.ContentHash, d.Offset, d.Length)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve declared range %d (%s +%d/%d): %w",
				i, d.ContentHash.Hex(), d.Offset, d.Length, err)
		}
		resolved = append(resolved, Resolved{Declared: d, Data: data})
	}
	return resolved, nil
}
