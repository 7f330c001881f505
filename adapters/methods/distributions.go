package methods

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// studentTPValue returns the two-sided p-value of a t-statistic with df
// degrees of freedom. Degenerate inputs yield NaN rather than panicking.
func studentTPValue(t, df float64) float64 {
	if math.IsNaN(t) || df <= 0 {
		return math.NaN()
	}
	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	return 2 * (1 - tDist.CDF(math.Abs(t)))
}

// normalPValue returns the two-sided p-value of a standard-normal score.
func normalPValue(z float64) float64 {
	if math.IsNaN(z) {
		return math.NaN()
	}
	return 2 * (1 - distuv.UnitNormal.CDF(math.Abs(z)))
}

// nanGrid allocates an all-NaN rows x cols grid.
func nanGrid(rows, cols int) [][]float64 {
	g := make([][]float64, rows)
	for i := range g {
		row := make([]float64, cols)
		for j := range row {
			row[j] = math.NaN()
		}
		g[i] = row
	}
	return g
}
