package omics

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"regact/domain/core"
)

// Matrix is a dense features x conditions measurement matrix. Rows follow
// Features, columns follow Conditions, Values[i][j] is the measurement of
// feature i under condition j.
type Matrix struct {
	Features   []string    `json:"features"`
	Conditions []string    `json:"conditions"`
	Values     [][]float64 `json:"values"`
}

// Shape returns (rows, cols) = (#features, #conditions).
func (m *Matrix) Shape() (int, int) {
	return len(m.Features), len(m.Conditions)
}

// Validate checks the matrix contract: consistent dimensions, unique
// non-empty identifiers, and finite entries. The first violation found is
// returned; callers are expected to fail fast on any error.
func (m *Matrix) Validate() error {
	if len(m.Features) == 0 {
		return core.NewValidationError("features", "matrix has no features")
	}
	if len(m.Conditions) == 0 {
		return core.NewValidationError("conditions", "matrix has no conditions")
	}
	if len(m.Values) != len(m.Features) {
		return core.NewValidationError("values",
			fmt.Sprintf("%d rows for %d features", len(m.Values), len(m.Features)))
	}

	seen := make(map[string]struct{}, len(m.Features))
	for _, f := range m.Features {
		if strings.TrimSpace(f) == "" {
			return core.NewValidationError("features", "empty feature id")
		}
		if _, dup := seen[f]; dup {
			return core.NewValidationError("features", fmt.Sprintf("duplicate feature %q", f))
		}
		seen[f] = struct{}{}
	}

	seen = make(map[string]struct{}, len(m.Conditions))
	for _, c := range m.Conditions {
		if strings.TrimSpace(c) == "" {
			return core.NewValidationError("conditions", "empty condition id")
		}
		if _, dup := seen[c]; dup {
			return core.NewValidationError("conditions", fmt.Sprintf("duplicate condition %q", c))
		}
		seen[c] = struct{}{}
	}

	for i, row := range m.Values {
		if len(row) != len(m.Conditions) {
			return core.NewValidationError("values",
				fmt.Sprintf("feature %q has %d values for %d conditions", m.Features[i], len(row), len(m.Conditions)))
		}
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return core.NewValidationError("values",
					fmt.Sprintf("non-finite value at feature %q condition %q", m.Features[i], m.Conditions[j]))
			}
		}
	}
	return nil
}

// Fingerprint returns a deterministic content hash of the matrix.
func (m *Matrix) Fingerprint() core.MatrixHash {
	var b strings.Builder
	b.WriteString("features:")
	b.WriteString(strings.Join(m.Features, ","))
	b.WriteString("|conditions:")
	b.WriteString(strings.Join(m.Conditions, ","))
	b.WriteString("|values:")
	for _, row := range m.Values {
		for _, v := range row {
			b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
			b.WriteByte(';')
		}
	}
	return core.NewMatrixHash([]byte(b.String()))
}
