package methods

import (
	"math"

	"regact/domain/omics"
)

// lcg is a tiny deterministic generator for test fixtures, so fixture noise
// never depends on the global rand state.
type lcg struct {
	state uint64
}

func newLCG(seed uint64) *lcg {
	return &lcg{state: seed}
}

func (l *lcg) uniform() float64 {
	l.state = l.state*6364136223846793005 + 1442695040888963407
	return float64(l.state>>11) / float64(1<<53)
}

// norm draws a standard normal via Box-Muller.
func (l *lcg) norm() float64 {
	u1 := l.uniform()
	for u1 == 0 {
		u1 = l.uniform()
	}
	u2 := l.uniform()
	return math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
}

// approxEqual treats two NaNs as equal and otherwise compares within tol.
func approxEqual(a, b, tol float64) bool {
	if math.IsNaN(a) && math.IsNaN(b) {
		return true
	}
	return math.Abs(a-b) <= tol
}

// networkTable builds the conventional annotation table from parallel edge
// slices.
func networkTable(sources, targets []string, weights []float64) *omics.Table {
	cols := []omics.Column{
		{Name: "source", Strings: sources},
		{Name: "target", Strings: targets},
	}
	if weights != nil {
		cols = append(cols, omics.Column{Name: "weight", Numbers: weights})
	}
	tbl, err := omics.NewTable(cols...)
	if err != nil {
		panic(err)
	}
	return tbl
}
