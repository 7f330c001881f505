// Package profiling computes compact distribution summaries for score
// vectors and generated datasets. Summaries feed run reports and demo
// output; they are descriptive only and never influence scoring.
package profiling

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"
)

// Summary captures the distribution shape of one numeric series.
type Summary struct {
	Count    int     `json:"count"`
	Mean     float64 `json:"mean"`
	StdDev   float64 `json:"std_dev"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Median   float64 `json:"median"`
	Q25      float64 `json:"q25"`
	Q75      float64 `json:"q75"`
	Skewness float64 `json:"skewness"`
	Outliers int     `json:"outliers"`
}

// Summarize computes summary statistics over data. Non-finite entries are
// dropped first; an input with no finite values is an error.
func Summarize(data []float64) (Summary, error) {
	finite := make([]float64, 0, len(data))
	for _, v := range data {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			finite = append(finite, v)
		}
	}
	if len(finite) == 0 {
		return Summary{}, fmt.Errorf("no finite values to summarize")
	}

	summary := Summary{Count: len(finite)}

	mean, err := stats.Mean(finite)
	if err != nil {
		return summary, err
	}

	stdDev, err := stats.StandardDeviation(finite)
	if err != nil {
		return summary, err
	}

	min, err := stats.Min(finite)
	if err != nil {
		return summary, err
	}

	max, err := stats.Max(finite)
	if err != nil {
		return summary, err
	}

	median, err := stats.Median(finite)
	if err != nil {
		return summary, err
	}

	// Quartiles for IQR-based outlier counting.
	q25, err := stats.Percentile(finite, 25)
	if err != nil {
		return summary, err
	}

	q75, err := stats.Percentile(finite, 75)
	if err != nil {
		return summary, err
	}

	summary.Mean = mean
	summary.StdDev = stdDev
	summary.Min = min
	summary.Max = max
	summary.Median = median
	summary.Q25 = q25
	summary.Q75 = q75
	summary.Skewness = skewness(finite, mean, stdDev)
	summary.Outliers = countOutliers(finite, q25, q75)

	return summary, nil
}

// skewness computes the adjusted Fisher-Pearson coefficient of skewness.
func skewness(data []float64, mean, stdDev float64) float64 {
	if len(data) < 3 || stdDev == 0 {
		return 0
	}

	n := float64(len(data))
	sumCubed := 0.0
	for _, x := range data {
		d := (x - mean) / stdDev
		sumCubed += d * d * d
	}

	// Bias correction for sample skewness.
	return sumCubed / n * math.Sqrt(n*(n-1)) / (n - 2)
}

// countOutliers counts points outside 1.5 IQR of the quartiles.
func countOutliers(data []float64, q25, q75 float64) int {
	iqr := q75 - q25
	lower := q25 - 1.5*iqr
	upper := q75 + 1.5*iqr

	count := 0
	for _, x := range data {
		if x < lower || x > upper {
			count++
		}
	}
	return count
}
