// Package toydata generates small synthetic benchmark inputs: a measurement
// matrix with one planted active regulator and the network that explains it.
// Generation is fully driven by the supplied random stream, so one seed
// always yields the same dataset.
package toydata

import (
	"fmt"
	"math/rand"

	"regact/domain/omics"
)

// Config configures the toy dataset generator
type Config struct {
	Features            int     `json:"features"`
	Conditions          int     `json:"conditions"`
	Regulators          int     `json:"regulators"`
	TargetsPerRegulator int     `json:"targets_per_regulator"`
	Signal              float64 `json:"signal"`
	Noise               float64 `json:"noise"`
	Seed                int64   `json:"seed"`
}

// DefaultConfig returns sensible defaults for a quick demo run
func DefaultConfig() Config {
	return Config{
		Features:            200,
		Conditions:          4,
		Regulators:          8,
		TargetsPerRegulator: 15,
		Signal:              3.0,
		Noise:               1.0,
		Seed:                42,
	}
}

// Validate checks that the configuration is generatable.
func (c Config) Validate() error {
	if c.Features < 1 || c.Conditions < 1 || c.Regulators < 1 {
		return fmt.Errorf("features, conditions and regulators must be positive")
	}
	if c.TargetsPerRegulator < 1 {
		return fmt.Errorf("targets per regulator must be positive")
	}
	if c.Regulators*c.TargetsPerRegulator > c.Features {
		return fmt.Errorf("%d regulators x %d targets need more than %d features",
			c.Regulators, c.TargetsPerRegulator, c.Features)
	}
	if c.Noise <= 0 {
		return fmt.Errorf("noise must be positive")
	}
	return nil
}

// Dataset is one generated benchmark input.
type Dataset struct {
	Matrix  *omics.Matrix
	Network *omics.Table
	// ActiveRegulator is the planted signal carrier: its targets move with
	// its weights in every condition, everything else is noise.
	ActiveRegulator string
}

// Generator generates toy datasets from a deterministic stream
type Generator struct {
	config Config
	rng    *rand.Rand
}

// NewGenerator creates a toy data generator. The stream should come from the
// RNG adapter so runs stay replayable end to end.
func NewGenerator(config Config, stream *rand.Rand) *Generator {
	return &Generator{config: config, rng: stream}
}

// Generate builds the matrix and network.
func (g *Generator) Generate() (*Dataset, error) {
	if err := g.config.Validate(); err != nil {
		return nil, err
	}

	features := make([]string, g.config.Features)
	for i := range features {
		features[i] = fmt.Sprintf("gene_%04d", i+1)
	}
	conditions := make([]string, g.config.Conditions)
	for j := range conditions {
		conditions[j] = fmt.Sprintf("cond_%02d", j+1)
	}
	regulators := make([]string, g.config.Regulators)
	for r := range regulators {
		regulators[r] = fmt.Sprintf("tf_%02d", r+1)
	}

	// Disjoint target blocks keep the planted signal from leaking between
	// regulators: one feature permutation, sliced per regulator.
	order := g.rng.Perm(g.config.Features)
	type edge struct {
		source string
		target int
		weight float64
	}
	var edges []edge
	for r, reg := range regulators {
		block := order[r*g.config.TargetsPerRegulator : (r+1)*g.config.TargetsPerRegulator]
		for _, fi := range block {
			weight := 0.5 + g.rng.Float64() // magnitude 0.5-1.5
			if g.rng.Float64() < 0.5 {
				weight = -weight
			}
			edges = append(edges, edge{source: reg, target: fi, weight: weight})
		}
	}

	// Noise everywhere, then the planted regulator's targets move with their
	// weights in every condition.
	values := make([][]float64, g.config.Features)
	for i := range values {
		row := make([]float64, g.config.Conditions)
		for j := range row {
			row[j] = g.rng.NormFloat64() * g.config.Noise
		}
		values[i] = row
	}
	active := regulators[0]
	for _, e := range edges {
		if e.source != active {
			continue
		}
		for j := 0; j < g.config.Conditions; j++ {
			values[e.target][j] += g.config.Signal * e.weight
		}
	}

	sources := make([]string, len(edges))
	targets := make([]string, len(edges))
	weights := make([]float64, len(edges))
	for i, e := range edges {
		sources[i] = e.source
		targets[i] = features[e.target]
		weights[i] = e.weight
	}
	network, err := omics.NewTable(
		omics.Column{Name: "source", Strings: sources},
		omics.Column{Name: "target", Strings: targets},
		omics.Column{Name: "weight", Numbers: weights},
	)
	if err != nil {
		return nil, err
	}

	matrix := &omics.Matrix{
		Features:   features,
		Conditions: conditions,
		Values:     values,
	}
	if err := matrix.Validate(); err != nil {
		return nil, err
	}

	return &Dataset{
		Matrix:          matrix,
		Network:         network,
		ActiveRegulator: active,
	}, nil
}
