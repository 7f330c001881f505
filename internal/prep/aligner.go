package prep

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"regact/domain/omics"
)

// Aligned is the prepared, immutable view every scoring method consumes: the
// measurement matrix as a dense features x conditions block and the network
// as a dense sources x features weight matrix on the same feature axis.
// Sources are in ascending order; absent edges are zero. Nothing downstream
// may mutate it, so one Aligned can be shared across concurrent methods.
type Aligned struct {
	Features   []string
	Conditions []string
	Sources    []string

	// Mat is features x conditions, in the input matrix's row order.
	Mat *mat.Dense
	// Weights is sources x features, zero-filled outside network edges.
	Weights *mat.Dense

	// TargetCounts[i] is the number of distinct matrix-present targets of
	// Sources[i], counted on network edges (a weight-0 edge still counts).
	TargetCounts []int
	// Nonzero[i] lists the feature indices where Sources[i] has a nonzero
	// weight, ascending.
	Nonzero [][]int
}

// MatrixAligner builds the Aligned view from a validated matrix and a
// canonical, size-filtered network.
type MatrixAligner struct{}

// Align never fails on unknown targets; edges pointing outside the matrix are
// simply not represented in the weight matrix.
func (MatrixAligner) Align(m *omics.Matrix, net *omics.Network) *Aligned {
	rows, cols := m.Shape()

	values := make([]float64, 0, rows*cols)
	for _, row := range m.Values {
		values = append(values, row...)
	}

	featIdx := make(map[string]int, rows)
	for i, f := range m.Features {
		featIdx[f] = i
	}

	sources := net.Sources()
	srcIdx := make(map[string]int, len(sources))
	for i, s := range sources {
		srcIdx[s] = i
	}

	// The pipeline only reaches alignment with a validated matrix and a
	// filtered network, so both axes are non-empty here.
	weights := mat.NewDense(len(sources), rows, nil)
	for _, e := range net.Edges {
		fi, ok := featIdx[e.Target]
		if !ok {
			continue
		}
		weights.Set(srcIdx[e.Source], fi, e.Weight)
	}

	counts := coverage(net, m.Features)
	targetCounts := make([]int, len(sources))
	nonzero := make([][]int, len(sources))
	for i, s := range sources {
		targetCounts[i] = counts[s]
		for f := 0; f < rows; f++ {
			if weights.At(i, f) != 0 {
				nonzero[i] = append(nonzero[i], f)
			}
		}
	}

	return &Aligned{
		Features:     append([]string(nil), m.Features...),
		Conditions:   append([]string(nil), m.Conditions...),
		Sources:      sources,
		Mat:          mat.NewDense(rows, cols, values),
		Weights:      weights,
		TargetCounts: targetCounts,
		Nonzero:      nonzero,
	}
}

// CenteredMat returns a copy of the measurement block with each feature row
// shifted to zero mean across conditions. With ignoreMissing set, NaN cells
// are left out of the mean and preserved in place.
func (a *Aligned) CenteredMat(ignoreMissing bool) *mat.Dense {
	rows, cols := a.Mat.Dims()
	out := mat.DenseCopyOf(a.Mat)
	for i := 0; i < rows; i++ {
		sum, n := 0.0, 0
		for j := 0; j < cols; j++ {
			v := a.Mat.At(i, j)
			if ignoreMissing && math.IsNaN(v) {
				continue
			}
			sum += v
			n++
		}
		if n == 0 {
			continue
		}
		mean := sum / float64(n)
		for j := 0; j < cols; j++ {
			v := a.Mat.At(i, j)
			if ignoreMissing && math.IsNaN(v) {
				continue
			}
			out.Set(i, j, v-mean)
		}
	}
	return out
}

// ConditionColumn copies condition j's values across all features.
func (a *Aligned) ConditionColumn(j int) []float64 {
	col := make([]float64, len(a.Features))
	mat.Col(col, j, a.Mat)
	return col
}
