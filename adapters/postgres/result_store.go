// Package postgres persists run manifests and score tables. It is the
// durable implementation of ports.ResultStorePort; deployments without a
// database fall back to the in-memory store.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"regact/domain/analysis"
	"regact/domain/core"
	"regact/domain/score"
)

// ResultStore handles run persistence for PostgreSQL
type ResultStore struct {
	db *sqlx.DB
}

// NewResultStore creates a new PostgreSQL result store
func NewResultStore(db *sqlx.DB) *ResultStore {
	return &ResultStore{db: db}
}

// runRow mirrors the runs table.
type runRow struct {
	RunID       string    `db:"run_id"`
	MatrixHash  string    `db:"matrix_hash"`
	NetworkHash string    `db:"network_hash"`
	Methods     string    `db:"methods"`
	Features    int       `db:"features"`
	Conditions  int       `db:"conditions"`
	Sources     int       `db:"sources"`
	Seed        int64     `db:"seed"`
	Times       int       `db:"times"`
	MinSize     int       `db:"min_size"`
	CodeVersion string    `db:"code_version"`
	Fingerprint string    `db:"fingerprint"`
	CreatedAt   time.Time `db:"created_at"`
}

// scoreRow mirrors the scores table. NaN cells travel as SQL NULL, matching
// the null convention of the JSON encoding.
type scoreRow struct {
	RunID     string          `db:"run_id"`
	Statistic string          `db:"statistic"`
	Source    string          `db:"source"`
	Condition string          `db:"condition"`
	Score     sql.NullFloat64 `db:"score"`
	PValue    sql.NullFloat64 `db:"p_value"`
}

func toNullFloat(v float64) sql.NullFloat64 {
	if math.IsNaN(v) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func fromNullFloat(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}

func rowFromManifest(m *analysis.RunManifest) runRow {
	return runRow{
		RunID:       m.RunID.String(),
		MatrixHash:  string(m.MatrixHash),
		NetworkHash: string(m.NetworkHash),
		Methods:     strings.Join(m.Methods, ","),
		Features:    m.Features,
		Conditions:  m.Conditions,
		Sources:     m.Sources,
		Seed:        m.Seed,
		Times:       m.Times,
		MinSize:     m.MinSize,
		CodeVersion: m.CodeVersion,
		Fingerprint: string(m.Fingerprint.Fingerprint),
		CreatedAt:   m.CreatedAt.Time(),
	}
}

// manifestFromRow rebuilds a manifest and re-derives its fingerprint from the
// stored determinism tuple. A stored hash that no longer matches means the
// row was tampered with or written by incompatible code.
func manifestFromRow(row runRow) (*analysis.RunManifest, error) {
	methods := strings.Split(row.Methods, ",")
	fingerprint := analysis.NewRunFingerprint(
		core.MatrixHash(row.MatrixHash),
		core.NetworkHash(row.NetworkHash),
		methods,
		row.Seed, row.Times, row.MinSize,
		row.CodeVersion,
	)
	if string(fingerprint.Fingerprint) != row.Fingerprint {
		return nil, fmt.Errorf("%w: run %s stored fingerprint %s, derived %s",
			core.ErrHashMismatch, row.RunID, row.Fingerprint, fingerprint.Fingerprint)
	}
	return &analysis.RunManifest{
		RunID:       core.RunID(row.RunID),
		MatrixHash:  core.MatrixHash(row.MatrixHash),
		NetworkHash: core.NetworkHash(row.NetworkHash),
		Methods:     methods,
		Features:    row.Features,
		Conditions:  row.Conditions,
		Sources:     row.Sources,
		Seed:        row.Seed,
		Times:       row.Times,
		MinSize:     row.MinSize,
		CodeVersion: row.CodeVersion,
		Fingerprint: fingerprint,
		CreatedAt:   core.NewTimestamp(row.CreatedAt),
	}, nil
}

// SaveRun writes a manifest and its scores in one transaction. Runs are
// append-only: writing the same run id twice fails.
func (s *ResultStore) SaveRun(ctx context.Context, manifest *analysis.RunManifest, results score.Table) error {
	if manifest == nil {
		return core.NewValidationError("manifest", "manifest must not be nil")
	}
	if err := manifest.Validate(); err != nil {
		return err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin save transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO runs (
			run_id, matrix_hash, network_hash, methods,
			features, conditions, sources,
			seed, times, min_size, code_version, fingerprint, created_at
		) VALUES (
			:run_id, :matrix_hash, :network_hash, :methods,
			:features, :conditions, :sources,
			:seed, :times, :min_size, :code_version, :fingerprint, :created_at
		)
	`, rowFromManifest(manifest))
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return core.NewValidationError("run_id",
				fmt.Sprintf("run %s already stored", manifest.RunID))
		}
		return fmt.Errorf("failed to insert run manifest: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn(
		"scores", "run_id", "statistic", "source", "condition", "score", "p_value"))
	if err != nil {
		return fmt.Errorf("failed to prepare score copy: %w", err)
	}
	for _, rec := range results {
		_, err = stmt.ExecContext(ctx,
			manifest.RunID.String(), rec.Statistic, rec.Source, rec.Condition,
			toNullFloat(rec.Score), toNullFloat(rec.PValue))
		if err != nil {
			stmt.Close()
			return fmt.Errorf("failed to buffer score row: %w", err)
		}
	}
	if _, err := stmt.ExecContext(ctx); err != nil {
		stmt.Close()
		return fmt.Errorf("failed to flush score copy: %w", err)
	}
	if err := stmt.Close(); err != nil {
		return fmt.Errorf("failed to close score copy: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run %s: %w", manifest.RunID, err)
	}
	return nil
}

// GetRun returns the manifest for one run.
func (s *ResultStore) GetRun(ctx context.Context, runID core.RunID) (*analysis.RunManifest, error) {
	var row runRow
	err := s.db.GetContext(ctx, &row, `
		SELECT run_id, matrix_hash, network_hash, methods,
		       features, conditions, sources,
		       seed, times, min_size, code_version, fingerprint, created_at
		FROM runs
		WHERE run_id = $1
	`, runID.String())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", core.ErrRunNotFound, runID)
		}
		return nil, fmt.Errorf("failed to get run %s: %w", runID, err)
	}
	return manifestFromRow(row)
}

// GetResults returns the score table for one run in canonical order.
func (s *ResultStore) GetResults(ctx context.Context, runID core.RunID) (score.Table, error) {
	var rows []scoreRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT run_id, statistic, source, condition, score, p_value
		FROM scores
		WHERE run_id = $1
		ORDER BY statistic, source, condition
	`, runID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to get results for run %s: %w", runID, err)
	}
	if len(rows) == 0 {
		// Distinguish an unknown run from a run stored without scores.
		if _, err := s.GetRun(ctx, runID); err != nil {
			return nil, err
		}
	}

	out := make(score.Table, 0, len(rows))
	for _, row := range rows {
		out = append(out, score.Record{
			Statistic: row.Statistic,
			Source:    row.Source,
			Condition: row.Condition,
			Score:     fromNullFloat(row.Score),
			PValue:    fromNullFloat(row.PValue),
		})
	}
	return out, nil
}

// ListRuns returns manifests newest first. A non-positive limit returns all.
func (s *ResultStore) ListRuns(ctx context.Context, limit int) ([]*analysis.RunManifest, error) {
	query := `
		SELECT run_id, matrix_hash, network_hash, methods,
		       features, conditions, sources,
		       seed, times, min_size, code_version, fingerprint, created_at
		FROM runs
		ORDER BY created_at DESC, run_id DESC
	`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	var rows []runRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	out := make([]*analysis.RunManifest, 0, len(rows))
	for _, row := range rows {
		manifest, err := manifestFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, manifest)
	}
	return out, nil
}
