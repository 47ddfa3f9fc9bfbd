package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists ended calls in PostgreSQL as JSONB documents.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS call_archive (
			id TEXT PRIMARY KEY,
			started_at TIMESTAMPTZ NOT NULL,
			ended_at TIMESTAMPTZ NOT NULL,
			final_phase TEXT NOT NULL,
			config JSONB NOT NULL,
			stats JSONB NOT NULL,
			transcript JSONB NOT NULL,
			insights JSONB NOT NULL,
			pii_redacted BOOLEAN NOT NULL DEFAULT FALSE,
			archived_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE INDEX IF NOT EXISTS idx_call_archive_archived ON call_archive (archived_at DESC);`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

func (s *PostgresStore) Save(ctx context.Context, rec Record) error {
	if rec.ArchivedAt.IsZero() {
		rec.ArchivedAt = time.Now().UTC()
	}
	cfg, err := json.Marshal(rec.Config)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	stats, err := json.Marshal(rec.Stats)
	if err != nil {
		return fmt.Errorf("encode stats: %w", err)
	}
	transcript, err := json.Marshal(rec.Transcript)
	if err != nil {
		return fmt.Errorf("encode transcript: %w", err)
	}
	insights, err := json.Marshal(rec.Insights)
	if err != nil {
		return fmt.Errorf("encode insights: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO call_archive (id, started_at, ended_at, final_phase, config, stats, transcript, insights, pii_redacted, archived_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (id) DO UPDATE SET
			ended_at = EXCLUDED.ended_at,
			final_phase = EXCLUDED.final_phase,
			stats = EXCLUDED.stats,
			transcript = EXCLUDED.transcript,
			insights = EXCLUDED.insights,
			pii_redacted = EXCLUDED.pii_redacted,
			archived_at = EXCLUDED.archived_at`,
		rec.ID,
		rec.Stats.StartedAt,
		rec.Stats.EndedAt,
		string(rec.Stats.FinalPhase),
		cfg,
		stats,
		transcript,
		insights,
		rec.PIIRedacted,
		rec.ArchivedAt,
	)
	if err != nil {
		return fmt.Errorf("save call: %w", err)
	}
	return nil
}

const selectColumns = `SELECT id, config, stats, transcript, insights, pii_redacted, archived_at FROM call_archive`

func (s *PostgresStore) Get(ctx context.Context, id string) (Record, error) {
	row := s.pool.QueryRow(ctx, selectColumns+` WHERE id=$1`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("get call: %w", err)
	}
	return rec, nil
}

func (s *PostgresStore) List(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.pool.Query(ctx, selectColumns+` ORDER BY archived_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query calls: %w", err)
	}
	defer rows.Close()

	items := make([]Record, 0, limit)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan call row: %w", err)
		}
		items = append(items, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate call rows: %w", err)
	}
	return items, nil
}

func scanRecord(row pgx.Row) (Record, error) {
	var (
		rec                              Record
		cfg, stats, transcript, insights []byte
	)
	if err := row.Scan(&rec.ID, &cfg, &stats, &transcript, &insights, &rec.PIIRedacted, &rec.ArchivedAt); err != nil {
		return Record{}, err
	}
	for _, col := range []struct {
		raw []byte
		dst any
	}{
		{cfg, &rec.Config},
		{stats, &rec.Stats},
		{transcript, &rec.Transcript},
		{insights, &rec.Insights},
	} {
		if err := json.Unmarshal(col.raw, col.dst); err != nil {
			return Record{}, fmt.Errorf("decode column: %w", err)
		}
	}
	return rec, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
