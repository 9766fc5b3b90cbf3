// Package audit records pruning-pass history — when a pass ran, how many
// clusters it dropped, and the oldest timestamp among them — so an
// operator can later answer "when did a pass last drop clusters, and how
// many" without the registry itself persisting any counter value across
// restarts. The keys of the dropped clusters are not recorded. It
// reuses the dual RO/RW SQLite wrapper and embed.FS-backed schema
// migration used elsewhere in this repo.
package audit

import (
	"context"
	"embed"
	"fmt"
	"time"

	"github.com/cloudbox/logstats/internal/sqlite"
	"github.com/cloudbox/logstats/migrate"
)

//go:embed migrations
var migrations embed.FS

const component = "audit"

// Store is a best-effort ledger of pruning history, backed by SQLite.
type Store struct {
	db *sqlite.DB
}

// Open opens (creating if necessary) the audit database at dbPath and
// applies any pending schema migrations.
func Open(ctx context.Context, dbPath string) (*Store, error) {
	db, err := sqlite.NewDB(ctx, dbPath)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}

	mg, err := migrate.New(db.RW(), "migrations")
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrator: %w", err)
	}

	if err := mg.Migrate(&migrations, component); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &Store{db: db}, nil
}

// RecordPrune inserts one pruning-pass record. It satisfies
// publish.AuditRecorder.
func (s *Store) RecordPrune(at time.Time, droppedCount int, oldestTimestamp int64) error {
	_, err := s.db.RW().Exec(
		`INSERT INTO prune_event (occurred_at, dropped_count, oldest_timestamp) VALUES (?, ?, ?)`,
		at.Unix(), droppedCount, oldestTimestamp,
	)
	if err != nil {
		return fmt.Errorf("record prune: %w", err)
	}
	return nil
}

// PruneEvent is one recorded pruning pass.
type PruneEvent struct {
	OccurredAt      time.Time
	DroppedCount    int
	OldestTimestamp int64
}

// Recent returns the most recent pruning-pass records, newest first,
// capped at limit.
func (s *Store) Recent(limit int) ([]PruneEvent, error) {
	rows, err := s.db.RO().Query(
		`SELECT occurred_at, dropped_count, oldest_timestamp FROM prune_event ORDER BY occurred_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	var events []PruneEvent
	for rows.Next() {
		var occurredAt int64
		var ev PruneEvent
		if err := rows.Scan(&occurredAt, &ev.DroppedCount, &ev.OldestTimestamp); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		ev.OccurredAt = time.Unix(occurredAt, 0)
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return events, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
