// Package payload is the client's view of the opaque content-addressed
// store verified placements read from. Uploads return the content hash that
// later appears in a transaction's declared range. Bytes are held brotli
// compressed at rest.
package payload

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/0xarkstar/IPRAYS-PUBLIC/canvas/accesslist"
	"github.com/andybalholm/brotli"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

const maxDecompressedSize = 1024 * 1024 // well above the 8192 on-ledger ceiling

// Store is a directory-backed payload store, one file per content hash.
type Store struct {
	dir string
}

func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create payload store directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

func compress(data []byte) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	w := brotli.NewWriterV2(buf, 9)
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("failed to write to brotli compressor: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to close brotli compressor: %w", err)
	}
	return buf.Bytes(), nil
}

func decompress(compressed []byte) ([]byte, error) {
	lr := io.LimitReader(brotli.NewReader(bytes.NewReader(compressed)), maxDecompressedSize)
	data, err := io.ReadAll(lr)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress payload: %w", err)
	}
	return data, nil
}

// Upload stores data and returns its reference string together with the
// declared range covering the whole payload.
func (s *Store) Upload(ctx context.Context, data []byte) (string, accesslist.Declared, error) {
	if err := ctx.Err(); err != nil {
		return "", accesslist.Declared{}, err
	}

	hash := crypto.Keccak256Hash(data)

	compressed, err := compress(data)
	if err != nil {
		return "", accesslist.Declared{}, err
	}

	path := filepath.Join(s.dir, hash.Hex())
	if err := os.WriteFile(path, compressed, 0644); err != nil {
		return "", accesslist.Declared{}, fmt.Errorf("failed to write payload file: %w", err)
	}

	return hash.Hex(), accesslist.Declared{
		ContentHash: hash,
		Offset:      0,
		Length:      uint64(len(data)),
	}, nil
}

// ReadRange implements accesslist.ContentReader.
func (s *Store) ReadRange(hash common.Hash, offset, length uint64) ([]byte, error) {
	compressed, err := os.ReadFile(filepath.Join(s.dir, hash.Hex()))
	if err != nil {
		return nil, fmt.Errorf("failed to read payload file: %w", err)
	}

	data, err := decompress(compressed)
	if err != nil {
		return nil, err
	}

	return slice(data, offset, length)
}

// ReadAll returns the whole payload for a reference, the legacy-tier lookup.
func (s *Store) ReadAll(dataRef string) ([]byte, error) {
	return s.ReadRange(common.HexToHash(dataRef), 0, 0)
}

// MemStore is the in-memory variant used by tests and the dev chain.
type MemStore struct {
	mu       sync.Mutex
	payloads map[common.Hash][]byte
}

func NewMemStore() *MemStore {
	return &MemStore{payloads: make(map[common.Hash][]byte)}
}

func (s *MemStore) Upload(ctx context.Context, data []byte) (string, accesslist.Declared, error) {
	if err := ctx.Err(); err != nil {
		return "", accesslist.Declared{}, err
	}

	hash := crypto.Keccak256Hash(data)

	s.mu.Lock()
	s.payloads[hash] = bytes.Clone(data)
	s.mu.Unlock()

	return hash.Hex(), accesslist.Declared{
		ContentHash: hash,
		Offset:      0,
		Length:      uint64(len(data)),
	}, nil
}

func (s *MemStore) ReadRange(hash common.Hash, offset, length uint64) ([]byte, error) {
	s.mu.Lock()
	data, ok := s.payloads[hash]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("payload %s not found", hash.Hex())
	}
	return slice(data, offset, length)
}

func (s *MemStore) ReadAll(dataRef string) ([]byte, error) {
	return s.ReadRange(common.HexToHash(dataRef), 0, 0)
}

// slice cuts offset+length out of data; a zero length means the rest of the
// payload.
func slice(data []byte, offset, length uint64) ([]byte, error) {
	if offset > uint64(len(data)) {
		return nil, fmt.Errorf("offset %d beyond payload of %d bytes", offset, len(data))
	}
	if length == 0 {
		return bytes.Clone(data[offset:]), nil
	}
	if offset+length > uint64(len(data)) {
		return nil, fmt.Errorf("range %d+%d beyond payload of %d bytes", offset, length, len(data))
	}
	return bytes.Clone(data[offset : offset+length]), nil
}
