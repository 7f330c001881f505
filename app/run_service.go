package app

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"regact/adapters/methods"
	"regact/domain/analysis"
	"regact/domain/core"
	"regact/domain/omics"
	"regact/domain/score"
	"regact/internal/prep"
	"regact/ports"
)

// RunService orchestrates one enrichment run: shared preparation, method
// fan-out, optional consensus, manifest assembly, and persistence.
type RunService struct {
	store       ports.ResultStorePort
	codeVersion string
}

// NewRunService creates a run service. A nil store disables persistence;
// runs still execute and return results.
func NewRunService(store ports.ResultStorePort, codeVersion string) *RunService {
	return &RunService{
		store:       store,
		codeVersion: codeVersion,
	}
}

// DecoupleRequest defines the inputs for one deterministic enrichment run.
type DecoupleRequest struct {
	Matrix  *omics.Matrix
	Network *omics.Table

	// Methods selects the scorers to run; empty means the default set.
	Methods []string
	Options methods.Options

	// Consensus adds a combined score over the selected methods.
	Consensus bool

	// RunID is optional; a fresh id is generated when empty.
	RunID core.RunID
	// Persist stores the run when a store is configured.
	Persist bool
}

// DecoupleResult contains the complete output of an enrichment run.
type DecoupleResult struct {
	RunID      core.RunID            `json:"run_id"`
	Results    score.Table           `json:"results"`
	Manifest   *analysis.RunManifest `json:"manifest"`
	ResultHash core.ResultHash       `json:"result_hash"`
	RuntimeMs  int64                 `json:"runtime_ms"`
	Persisted  bool                  `json:"persisted"`
}

// Decouple executes the selected methods against one matrix and network.
// The whole run is deterministic in (inputs, methods, options): the manifest
// fingerprint identifies it, and replaying with equal parameters reproduces
// the result hash bit for bit.
func (s *RunService) Decouple(ctx context.Context, req DecoupleRequest) (*DecoupleResult, error) {
	startTime := time.Now()

	if req.Matrix == nil {
		return nil, core.NewValidationError("matrix", "matrix is required")
	}
	if req.Network == nil {
		return nil, core.NewValidationError("network", "network is required")
	}

	selected, err := resolveMethods(req.Methods)
	if err != nil {
		return nil, err
	}
	opts := req.Options

	runID := req.RunID
	if runID.String() == "" {
		runID = core.RunID(core.NewID())
	}

	// Shared preparation: one validated matrix, one canonical network, one
	// aligned view for every method.
	if err := req.Matrix.Validate(); err != nil {
		return nil, err
	}
	matrixHash := req.Matrix.Fingerprint()

	formatter := prep.NetworkFormatter{Columns: opts.Columns}
	network, err := formatter.Format(req.Network)
	if err != nil {
		return nil, err
	}
	networkHash := network.Fingerprint()

	filter := prep.SizeFilter{MinSize: opts.MinSize}
	network, err = filter.Apply(network, req.Matrix.Features)
	if err != nil {
		return nil, err
	}
	data := prep.MatrixAligner{}.Align(req.Matrix, network)

	// Method fan-out. Each scorer reads the shared view and writes only its
	// own slot, so the only coordination point is the errgroup wait.
	tables := make([]score.Table, len(selected))
	grp, grpCtx := errgroup.WithContext(ctx)
	for i, method := range selected {
		i, method := i, method
		grp.Go(func() error {
			tbl, err := method.Score(grpCtx, data, opts)
			if err != nil {
				return fmt.Errorf("%s: %w", method.Name(), err)
			}
			tables[i] = tbl
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return nil, err
	}

	results := make(score.Table, 0)
	for _, tbl := range tables {
		results = append(results, tbl...)
	}

	if req.Consensus {
		consensus, err := consensusOver(selected, tables)
		if err != nil {
			return nil, err
		}
		results = append(results, consensus...)
	}
	results.Sort()

	methodNames := make([]string, len(selected))
	for i, m := range selected {
		methodNames[i] = m.Name()
	}
	manifest := analysis.NewRunManifest(
		runID,
		matrixHash,
		networkHash,
		methodNames,
		len(data.Features), len(data.Conditions), len(data.Sources),
		opts.Seed,
		opts.Times, opts.MinSize,
		s.codeVersion,
	)

	persisted := false
	if req.Persist && s.store != nil {
		if err := s.store.SaveRun(ctx, manifest, results); err != nil {
			return nil, fmt.Errorf("failed to persist run %s: %w", runID, err)
		}
		persisted = true
	}

	return &DecoupleResult{
		RunID:      runID,
		Results:    results,
		Manifest:   manifest,
		ResultHash: results.Fingerprint(),
		RuntimeMs:  time.Since(startTime).Milliseconds(),
		Persisted:  persisted,
	}, nil
}

// resolveMethods maps requested names onto registered scorers, defaulting to
// the standard selection and rejecting unknown or duplicate names.
func resolveMethods(names []string) ([]methods.Method, error) {
	if len(names) == 0 {
		names = methods.DefaultSet
	}
	seen := make(map[string]bool, len(names))
	selected := make([]methods.Method, 0, len(names))
	for _, name := range names {
		if seen[name] {
			return nil, core.NewValidationError("methods",
				fmt.Sprintf("method %q requested twice", name))
		}
		seen[name] = true
		method, ok := methods.Lookup(name)
		if !ok {
			return nil, core.NewValidationError("methods",
				fmt.Sprintf("unknown method %q", name))
		}
		selected = append(selected, method)
	}
	return selected, nil
}

// consensusOver combines each method's preferred statistic group into the
// consensus score.
func consensusOver(selected []methods.Method, tables []score.Table) (score.Table, error) {
	if len(selected) < 2 {
		return nil, core.NewValidationError("consensus",
			"consensus needs at least two methods")
	}
	inputs := make([]score.Table, len(selected))
	for i, method := range selected {
		inputs[i] = tables[i].Filter(methods.PreferredStatistic(method.Name()))
	}
	return methods.Consensus(inputs)
}

// GetRun returns a stored manifest.
func (s *RunService) GetRun(ctx context.Context, runID core.RunID) (*analysis.RunManifest, error) {
	if s.store == nil {
		return nil, fmt.Errorf("%w: no result store configured", core.ErrRunNotFound)
	}
	return s.store.GetRun(ctx, runID)
}

// GetResults returns a stored score table.
func (s *RunService) GetResults(ctx context.Context, runID core.RunID) (score.Table, error) {
	if s.store == nil {
		return nil, fmt.Errorf("%w: no result store configured", core.ErrRunNotFound)
	}
	return s.store.GetResults(ctx, runID)
}

// ListRuns returns stored manifests, newest first.
func (s *RunService) ListRuns(ctx context.Context, limit int) ([]*analysis.RunManifest, error) {
	if s.store == nil {
		return []*analysis.RunManifest{}, nil
	}
	return s.store.ListRuns(ctx, limit)
}
