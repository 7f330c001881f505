package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"regact/adapters/methods"
	"regact/app"
	"regact/domain/analysis"
	"regact/domain/core"
	"regact/domain/omics"
	"regact/domain/score"
	"regact/internal/errors"
)

// edgeRecord is one network row on the wire. Weight and likelihood default
// to 1 when omitted, matching the formatter's missing-column behavior.
type edgeRecord struct {
	Source     string   `json:"source"`
	Target     string   `json:"target"`
	Weight     *float64 `json:"weight"`
	Likelihood *float64 `json:"likelihood"`
}

// decoupleRequest is the scoring request body. Pointer knobs distinguish
// "unset, use the server default" from an explicit zero.
type decoupleRequest struct {
	Matrix  *omics.Matrix `json:"matrix"`
	Network []edgeRecord  `json:"network"`
	Methods []string      `json:"methods"`

	MinSize *int   `json:"min_size"`
	Times   *int   `json:"times"`
	Seed    *int64 `json:"seed"`
	Workers *int   `json:"workers"`
	Center  bool   `json:"center"`

	Consensus bool `json:"consensus"`
	Persist   bool `json:"persist"`
}

func floatOr(v *float64, def float64) float64 {
	if v != nil {
		return *v
	}
	return def
}

// toServiceRequest resolves the wire request against the server defaults.
func (req decoupleRequest) toServiceRequest(defaults methods.Options) (app.DecoupleRequest, error) {
	if req.Matrix == nil {
		return app.DecoupleRequest{}, core.NewValidationError("matrix", "matrix is required")
	}
	if len(req.Network) == 0 {
		return app.DecoupleRequest{}, core.NewValidationError("network", "network needs at least one edge")
	}

	edges := make([]omics.Edge, len(req.Network))
	for i, rec := range req.Network {
		edges[i] = omics.Edge{
			Source:     rec.Source,
			Target:     rec.Target,
			Weight:     floatOr(rec.Weight, 1),
			Likelihood: floatOr(rec.Likelihood, 1),
		}
	}

	opts := defaults
	// Wire networks always arrive under canonical column names.
	opts.Columns = omics.DefaultColumnMap()
	if req.MinSize != nil {
		opts.MinSize = *req.MinSize
	}
	if req.Times != nil {
		opts.Times = *req.Times
	}
	if req.Seed != nil {
		opts.Seed = *req.Seed
	}
	if req.Workers != nil {
		opts.Workers = *req.Workers
	}
	opts.Center = req.Center

	return app.DecoupleRequest{
		Matrix:    req.Matrix,
		Network:   omics.TableFromEdges(edges),
		Methods:   req.Methods,
		Options:   opts,
		Consensus: req.Consensus,
		Persist:   req.Persist,
	}, nil
}

// handleDecouple scores one matrix against one network.
func (s *Server) handleDecouple(w http.ResponseWriter, r *http.Request) {
	if !s.gate.TryAcquire(1) {
		w.Header().Set("Retry-After", "1")
		writeError(w, http.StatusServiceUnavailable, "SERVER_BUSY",
			fmt.Sprintf("all %d scoring slots are busy", s.config.MaxConcurrentRuns))
		return
	}
	defer s.gate.Release(1)

	var req decoupleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.CodeValidation,
			"invalid request body: "+err.Error())
		return
	}

	serviceReq, err := req.toServiceRequest(s.config.Defaults)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	result, err := s.runs.Decouple(r.Context(), serviceReq)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	s.logger.Info("run %s scored %d records in %dms", result.RunID, len(result.Results), result.RuntimeMs)
	writeJSON(w, http.StatusOK, result)
}

type listRunsResponse struct {
	Runs  []*analysis.RunManifest `json:"runs"`
	Count int                     `json:"count"`
}

// handleListRuns returns stored run manifests, newest first.
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, errors.CodeValidation,
				fmt.Sprintf("invalid limit %q", raw))
			return
		}
		limit = n
	}

	manifests, err := s.runs.ListRuns(r.Context(), limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, listRunsResponse{Runs: manifests, Count: len(manifests)})
}

// handleGetRun returns one stored manifest.
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	runID := core.RunID(chi.URLParam(r, "id"))

	manifest, err := s.runs.GetRun(r.Context(), runID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, manifest)
}

type resultsResponse struct {
	RunID   core.RunID  `json:"run_id"`
	Results score.Table `json:"results"`
	Count   int         `json:"count"`
}

// handleGetResults returns one stored score table.
func (s *Server) handleGetResults(w http.ResponseWriter, r *http.Request) {
	runID := core.RunID(chi.URLParam(r, "id"))

	results, err := s.runs.GetResults(r.Context(), runID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resultsResponse{RunID: runID, Results: results, Count: len(results)})
}

// handleReport renders a stored run as a readable report. HTML by default,
// raw markdown with ?format=markdown.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	runID := core.RunID(chi.URLParam(r, "id"))

	manifest, err := s.runs.GetRun(r.Context(), runID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	results, err := s.runs.GetResults(r.Context(), runID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	md := BuildReport(manifest, results)

	if r.URL.Query().Get("format") == "markdown" {
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write(md)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(RenderHTML(md))
}

type methodInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	// Preferred is the statistic group this method feeds into a consensus.
	Preferred string `json:"preferred_statistic"`
}

type methodsResponse struct {
	Methods    []methodInfo `json:"methods"`
	DefaultSet []string     `json:"default_set"`
}

// handleListMethods describes the available scoring methods.
func (s *Server) handleListMethods(w http.ResponseWriter, r *http.Request) {
	infos := make([]methodInfo, 0)
	for _, m := range methods.All() {
		infos = append(infos, methodInfo{
			Name:        m.Name(),
			Description: m.Description(),
			Preferred:   methods.PreferredStatistic(m.Name()),
		})
	}

	writeJSON(w, http.StatusOK, methodsResponse{Methods: infos, DefaultSet: methods.DefaultSet})
}

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": s.config.Version,
	})
}
