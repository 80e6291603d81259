// Package snapshot persists the sync engine's confirmed pixel set together
// with the block height it was taken at. The snapshot is a resumable cache,
// never authoritative: dropping the file only costs a full replay.
package snapshot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	canvaslogs "github.com/0xarkstar/IPRAYS-PUBLIC/canvas/logs"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	_ "github.com/mattn/go-sqlite3"
)

const snapshotSchemaVersion = uint64(1)

// Snapshot is one persisted (blockNumber, pixels) pair.
type Snapshot struct {
	BlockNumber uint64
	Pixels      map[uint64]*canvaslogs.PlacementEvent
}

// Store wraps the sqlite database holding at most one snapshot per network.
type Store struct {
	db *sql.DB
}

func NewStore(dbFile string) (*Store, error) {
	dir := filepath.Dir(dbFile)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?cache=shared&mode=rwc&_journal_mode=WAL", dbFile))
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot database: %w", err)
	}

	ctx := context.Background()

	version := uint64(0)

	var tableName string
	err = db.QueryRowContext(ctx, `
		SELECT name FROM sqlite_master
		WHERE type='table' AND name='schema_versions';
	`).Scan(&tableName)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		log.Warn("snapshot: no schema version info found, table missing")
	case err == nil:
		err = db.QueryRowContext(ctx, `SELECT snapshots FROM schema_versions WHERE id = 1;`).Scan(&version)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			db.Close()
			return nil, fmt.Errorf("failed to check snapshot schema: %w", err)
		}
	default:
		db.Close()
		return nil, fmt.Errorf("failed to check snapshot schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to begin schema transaction: %w", err)
	}

	if version != snapshotSchemaVersion {
		log.Warn("snapshot: outdated schema, dropping tables",
			"existingVersion", version, "requiredVersion", snapshotSchemaVersion)
		for _, stmt := range []string{
			`DROP TABLE IF EXISTS pixels;`,
			`DROP TABLE IF EXISTS snapshot_meta;`,
		} {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				tx.Rollback()
				db.Close()
				return nil, fmt.Errorf("failed to drop outdated snapshot tables: %w", err)
			}
		}
	}

	for _, stmt := range []string{
		`CREATE TABLE IF NOT EXISTS schema_versions (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			snapshots INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS snapshot_meta (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			network TEXT NOT NULL,
			block_number INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS pixels (
			coord INTEGER PRIMARY KEY,
			x INTEGER NOT NULL,
			y INTEGER NOT NULL,
			color BLOB NOT NULL,
			placed_by TEXT NOT NULL,
			timestamp INTEGER NOT NULL,
			block_number INTEGER NOT NULL,
			log_index INTEGER NOT NULL
		);`,
	} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			tx.Rollback()
			db.Close()
			return nil, fmt.Errorf("failed to apply snapshot schema: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO schema_versions (id, snapshots) VALUES (1, ?);`,
		snapshotSchemaVersion,
	); err != nil {
		tx.Rollback()
		db.Close()
		return nil, fmt.Errorf("failed to record schema version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply snapshot schema: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Load returns the stored snapshot for the network, or nil if none exists.
// A snapshot written under a different network id is an error: one database
// tracks one chain.
func (s *Store) Load(ctx context.Context, network string) (*Snapshot, error) {
	var storedNetwork string
	var blockNumber uint64

	err := s.db.QueryRowContext(ctx,
		`SELECT network, block_number FROM snapshot_meta WHERE id = 1;`,
	).Scan(&storedNetwork, &blockNumber)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot meta: %w", err)
	}

	if storedNetwork != network {
		return nil, fmt.Errorf("snapshot belongs to network %q, not %q", storedNetwork, network)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT coord, x, y, color, placed_by, timestamp, block_number, log_index FROM pixels;`)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot pixels: %w", err)
	}
	defer rows.Close()

	pixels := make(map[uint64]*canvaslogs.PlacementEvent)
	for rows.Next() {
		var coord, x, y, timestamp, blockNum uint64
		var logIndex uint
		var color []byte
		var placedBy string

		if err := rows.Scan(&coord, &x, &y, &color, &placedBy, &timestamp, &blockNum, &logIndex); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot pixel: %w", err)
		}

		e := &canvaslogs.PlacementEvent{
			X:           x,
			Y:           y,
			User:        common.HexToAddress(placedBy),
			Timestamp:   timestamp,
			BlockNumber: blockNum,
			LogIndex:    logIndex,
		}
		copy(e.Color[:], color)
		pixels[coord] = e
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read snapshot pixels: %w", err)
	}

	return &Snapshot{BlockNumber: blockNumber, Pixels: pixels}, nil
}

// Save atomically replaces the snapshot with the given confirmed set.
func (s *Store) Save(ctx context.Context, network string, blockNumber uint64, pixels map[uint64]*canvaslogs.PlacementEvent) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin snapshot transaction: %w", err)
	}

	defer func() {
		if err != nil {
			err = errors.Join(err, tx.Rollback())
		}
	}()

	var storedNetwork string
	row := tx.QueryRowContext(ctx, `SELECT network FROM snapshot_meta WHERE id = 1;`)
	if scanErr := row.Scan(&storedNetwork); scanErr == nil && storedNetwork != network {
		return fmt.Errorf("snapshot database already tracks network %q", storedNetwork)
	}

	if _, err = tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO snapshot_meta (id, network, block_number) VALUES (1, ?, ?);`,
		network, blockNumber,
	); err != nil {
		return fmt.Errorf("failed to write snapshot meta: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM pixels;`); err != nil {
		return fmt.Errorf("failed to clear snapshot pixels: %w", err)
	}

	for coord, e := range pixels {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO pixels (coord, x, y, color, placed_by, timestamp, block_number, log_index)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?);`,
			coord, e.X, e.Y, e.Color[:], e.User.Hex(), e.Timestamp, e.BlockNumber, e.LogIndex,
		); err != nil {
			return fmt.Errorf("failed to insert snapshot pixel %d: %w", coord, err)
		}
	}

	return tx.Commit()
}
