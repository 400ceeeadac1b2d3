// Package db provides the optional Postgres archive for caught
// messages. The in-memory caches never survive a restart; the archive
// is a best-effort durable copy, enabled only when a DSN is configured.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx postgres driver registered as 'pgx'

	"github.com/onnwee/chatfilter/cache"
)

// Archive stores caught messages in Postgres. It implements the
// pipeline's Archiver interface.
type Archive struct {
	db *sql.DB
}

// Connect opens a Postgres connection for the archive.
func Connect(dsn string) (*Archive, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open archive db: %w", err)
	}
	return &Archive{db: db}, nil
}

// Close releases the underlying connection pool.
func (a *Archive) Close() error { return a.db.Close() }

// Migrate applies idempotent schema changes. Safe to run on every
// startup.
func (a *Archive) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS caught_messages (
			id SERIAL PRIMARY KEY,
			dedup_id TEXT UNIQUE,
			channel TEXT,
			participant TEXT,
			message TEXT,
			kind TEXT,
			matches TEXT,
			correlation_id TEXT,
			caught_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_caught_channel_time ON caught_messages(channel, caught_at)`,
		`CREATE INDEX IF NOT EXISTS idx_caught_participant ON caught_messages(participant)`,
	}
	for i, s := range stmts {
		if _, err := a.db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("archive migrate step %d failed: %w", i, err)
		}
	}
	return nil
}

// ArchiveCaught inserts one caught record. The dedup id makes the
// insert idempotent across restarts: replaying a message already
// archived is a no-op.
func (a *Archive) ArchiveCaught(ctx context.Context, rec cache.Record) error {
	id := fmt.Sprintf("%016x", cache.ID(rec.Channel, rec.Participant, rec.Text))
	q := `INSERT INTO caught_messages(dedup_id, channel, participant, message, kind, matches, correlation_id, caught_at)
		  VALUES($1,$2,$3,$4,$5,$6,$7,$8)
		  ON CONFLICT(dedup_id) DO NOTHING`
	_, err := a.db.ExecContext(ctx, q,
		id, rec.Channel, rec.Participant, rec.Text, rec.Kind,
		strings.Join(rec.Matches, ","), rec.Corr, rec.Time)
	if err != nil {
		return fmt.Errorf("archive insert: %w", err)
	}
	return nil
}
