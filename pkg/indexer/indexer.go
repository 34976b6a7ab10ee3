// Package indexer is the optional relational event sink SPEC_FULL.md's
// domain stack describes: a narrow consumer of the event stream
// pkg/app.App.FinalizeBlock produces, not a chain-state replica. It exists
// so block explorers and analytics can query "every event a given
// contract emitted" without walking pkg/db's versioned state, and follows
// the connection-pooling and functional-option shape of the teacher's
// pkg/database.Client, narrowed from a dozen anchor/attestation/batch
// repositories down to the single append-only events table a deterministic
// app chain actually needs.
package indexer

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/certen-labs/chainkit/pkg/events"
)

// Indexer persists flattened block events to Postgres for off-chain query.
// A nil *Indexer is valid and IndexBlock on it is a no-op, mirroring
// pkg/app.Metrics' nil-receiver convention -- a node that never set
// CHAIND_INDEXER_DSN runs with indexing silently disabled.
type Indexer struct {
	db *sql.DB
}

// Option configures an Indexer at construction, following the teacher's
// ClientOption pattern.
type Option func(*sql.DB)

// WithMaxOpenConns bounds the underlying connection pool.
func WithMaxOpenConns(n int) Option {
	return func(db *sql.DB) { db.SetMaxOpenConns(n) }
}

// WithConnMaxLifetime bounds how long a pooled connection is reused.
func WithConnMaxLifetime(d time.Duration) Option {
	return func(db *sql.DB) { db.SetConnMaxLifetime(d) }
}

// Open connects to dsn, applies opts, verifies the connection, and ensures
// the events table exists.
func Open(ctx context.Context, dsn string, opts ...Option) (*Indexer, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("indexer: open: %w", err)
	}
	for _, opt := range opts {
		opt(db)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("indexer: ping: %w", err)
	}
	if _, err := db.ExecContext(ctx, createEventsTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("indexer: migrate: %w", err)
	}
	return &Indexer{db: db}, nil
}

const createEventsTable = `
CREATE TABLE IF NOT EXISTS chainkit_events (
	id          UUID PRIMARY KEY,
	block_height BIGINT NOT NULL,
	path        TEXT NOT NULL,
	status      SMALLINT NOT NULL,
	event_type  TEXT NOT NULL,
	attributes  JSONB NOT NULL,
	indexed_at  TIMESTAMPTZ NOT NULL DEFAULT now()
)`

func (idx *Indexer) Close() error {
	if idx == nil {
		return nil
	}
	return idx.db.Close()
}

// IndexBlock inserts one row per flattened event produced by a finalized
// block. Rows are inserted in their own transaction per block so a
// mid-block failure never leaves a partially indexed height.
func (idx *Indexer) IndexBlock(ctx context.Context, height uint64, flat []events.FlatEvent) error {
	if idx == nil || len(flat) == 0 {
		return nil
	}
	tx, err := idx.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("indexer: begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chainkit_events (id, block_height, path, status, event_type, attributes)
		VALUES ($1, $2, $3, $4, $5, $6)`)
	if err != nil {
		return fmt.Errorf("indexer: prepare: %w", err)
	}
	defer stmt.Close()

	for _, fe := range flat {
		attrs := make(map[string]string, len(fe.Event.Attributes))
		for _, at := range fe.Event.Attributes {
			attrs[at.Key] = at.Value
		}
		attrJSON, err := json.Marshal(attrs)
		if err != nil {
			return fmt.Errorf("indexer: marshal attributes: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, uuid.New(), height, fe.Path, int(fe.Status), fe.Event.Type, attrJSON); err != nil {
			return fmt.Errorf("indexer: insert: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("indexer: commit: %w", err)
	}
	return nil
}
