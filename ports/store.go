package ports

import (
	"context"

	"regact/domain/analysis"
	"regact/domain/core"
	"regact/domain/score"
)

// ResultWriterPort is the only way run output enters a store. Runs are
// append-only: a manifest and its scores are written once, together.
type ResultWriterPort interface {
	SaveRun(ctx context.Context, manifest *analysis.RunManifest, results score.Table) error
}

// ResultReaderPort provides read-only access to stored runs.
type ResultReaderPort interface {
	GetRun(ctx context.Context, runID core.RunID) (*analysis.RunManifest, error)
	GetResults(ctx context.Context, runID core.RunID) (score.Table, error)
	ListRuns(ctx context.Context, limit int) ([]*analysis.RunManifest, error)
}

// ResultStorePort combines read and write access.
type ResultStorePort interface {
	ResultWriterPort
	ResultReaderPort
}
