package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"regact/internal/errors"
)

// Open connects to PostgreSQL and verifies the connection.
func Open(ctx context.Context, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open postgres connection")
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to ping postgres")
	}
	return db, nil
}

// EnsureSchema creates the runs and scores tables if they do not exist.
func (s *ResultStore) EnsureSchema(ctx context.Context) error {
	if err := s.createRunsTable(ctx); err != nil {
		return errors.Wrap(err, "failed to create runs table")
	}
	if err := s.createScoresTable(ctx); err != nil {
		return errors.Wrap(err, "failed to create scores table")
	}
	if err := s.createIndexes(ctx); err != nil {
		return errors.Wrap(err, "failed to create score indexes")
	}
	return nil
}

func (s *ResultStore) createRunsTable(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			matrix_hash TEXT NOT NULL,
			network_hash TEXT NOT NULL,
			methods TEXT NOT NULL,
			features INTEGER NOT NULL,
			conditions INTEGER NOT NULL,
			sources INTEGER NOT NULL,
			seed BIGINT NOT NULL,
			times INTEGER NOT NULL,
			min_size INTEGER NOT NULL,
			code_version TEXT NOT NULL,
			fingerprint TEXT NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	return err
}

func (s *ResultStore) createScoresTable(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS scores (
			id BIGSERIAL PRIMARY KEY,
			run_id TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
			statistic TEXT NOT NULL,
			source TEXT NOT NULL,
			condition TEXT NOT NULL,
			score DOUBLE PRECISION,
			p_value DOUBLE PRECISION,
			UNIQUE (run_id, statistic, source, condition)
		)
	`)
	return err
}

func (s *ResultStore) createIndexes(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE INDEX IF NOT EXISTS idx_scores_run_statistic
		ON scores (run_id, statistic)
	`)
	return err
}
