package stats

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
)

// PostgresBackend keeps the document as jsonb in a single row.
type PostgresBackend struct {
	db *sql.DB
}

const docRowID = 1

func NewPostgresBackend(ctx context.Context, databaseURL string) (*PostgresBackend, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("%w: DATABASE_URL", ErrMissingParam)
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	b := &PostgresBackend{db: db}
	if err := b.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return b, nil
}

func (b *PostgresBackend) migrate(ctx context.Context) error {
	const q = `
		CREATE TABLE IF NOT EXISTS rps_stats (
			id         SMALLINT PRIMARY KEY,
			doc        JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`
	if _, err := b.db.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("create rps_stats: %w", err)
	}
	return nil
}

func (b *PostgresBackend) Load(ctx context.Context) (Document, error) {
	const insert = `
		INSERT INTO rps_stats (id, doc) VALUES ($1, '{}'::jsonb)
		ON CONFLICT (id) DO NOTHING`
	if _, err := b.db.ExecContext(ctx, insert, docRowID); err != nil {
		return nil, fmt.Errorf("init rps_stats: %w", err)
	}

	var raw []byte
	err := b.db.QueryRowContext(ctx, `SELECT doc FROM rps_stats WHERE id = $1`, docRowID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select rps_stats: %w", err)
	}
	return decodeDocument(raw)
}

func (b *PostgresBackend) Save(ctx context.Context, doc Document) error {
	raw, err := encodeDocument(doc)
	if err != nil {
		return err
	}
	const q = `
		INSERT INTO rps_stats (id, doc, updated_at) VALUES ($1, $2::jsonb, NOW())
		ON CONFLICT (id) DO UPDATE SET
			doc = EXCLUDED.doc,
			updated_at = NOW()`
	if _, err := b.db.ExecContext(ctx, q, docRowID, string(raw)); err != nil {
		return fmt.Errorf("upsert rps_stats: %w", err)
	}
	return nil
}

func (b *PostgresBackend) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}
