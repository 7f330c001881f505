package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"regact/adapters/methods"
	"regact/adapters/rng"
	"regact/app"
	"regact/domain/omics"
	"regact/domain/score"
	"regact/internal/toydata"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "regact",
		Short: "Regulator activity scoring from omics matrices and prior networks",
	}

	rootCmd.AddCommand(
		newDemoCmd(),
		newScoreCmd(),
		newMethodsCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newDemoCmd() *cobra.Command {
	cfg := toydata.DefaultConfig()
	var methodNames []string
	var times, minSize int
	var consensus bool
	var outputFile string

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Generate a toy dataset with one planted regulator and score it",
		Long: `Generate a synthetic matrix with one planted active regulator, score it
with the selected methods, and show whether the planted signal is recovered.

Example: regact demo --seed 42 --methods ulm,wsum --consensus`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo(cmd.Context(), cfg, methodNames, times, minSize, consensus, outputFile)
		},
	}

	cmd.Flags().IntVar(&cfg.Features, "features", cfg.Features, "Number of features (matrix rows)")
	cmd.Flags().IntVar(&cfg.Conditions, "conditions", cfg.Conditions, "Number of conditions (matrix columns)")
	cmd.Flags().IntVar(&cfg.Regulators, "regulators", cfg.Regulators, "Number of regulators in the network")
	cmd.Flags().IntVar(&cfg.TargetsPerRegulator, "targets", cfg.TargetsPerRegulator, "Targets per regulator")
	cmd.Flags().Float64Var(&cfg.Signal, "signal", cfg.Signal, "Planted signal strength")
	cmd.Flags().Float64Var(&cfg.Noise, "noise", cfg.Noise, "Background noise standard deviation")
	cmd.Flags().Int64Var(&cfg.Seed, "seed", cfg.Seed, "Random seed for deterministic generation and scoring")
	cmd.Flags().StringSliceVar(&methodNames, "methods", nil, "Methods to run (default: ulm,mlm,wsum)")
	cmd.Flags().IntVar(&times, "times", 200, "Permutation count for null-model methods")
	cmd.Flags().IntVar(&minSize, "min-size", 5, "Minimum covered targets per regulator")
	cmd.Flags().BoolVar(&consensus, "consensus", false, "Add a consensus score over the selected methods")
	cmd.Flags().StringVar(&outputFile, "output", "", "Write the full result JSON to this file")

	return cmd
}

func runDemo(ctx context.Context, cfg toydata.Config, methodNames []string, times, minSize int, consensus bool, outputFile string) error {
	fmt.Printf("🧬 Generating toy dataset (seed %d)...\n", cfg.Seed)

	stream, err := rng.New().SeededStream(ctx, "toydata", cfg.Seed)
	if err != nil {
		return fmt.Errorf("failed to open random stream: %w", err)
	}
	dataset, err := toydata.NewGenerator(cfg, stream).Generate()
	if err != nil {
		return fmt.Errorf("failed to generate dataset: %w", err)
	}

	profile, err := toydata.Describe(dataset)
	if err != nil {
		return fmt.Errorf("failed to profile dataset: %w", err)
	}
	fmt.Printf("   %d features x %d conditions, %d regulators, %d edges\n",
		profile.Features, profile.Conditions, profile.Regulators, profile.Edges)
	fmt.Printf("   cells: mean %.3f, sd %.3f | weights: mean %.3f, sd %.3f\n",
		profile.Cells.Mean, profile.Cells.StdDev, profile.Weights.Mean, profile.Weights.StdDev)
	fmt.Printf("   planted active regulator: %s\n\n", dataset.ActiveRegulator)

	opts := methods.DefaultOptions()
	opts.Seed = cfg.Seed
	opts.Times = times
	opts.MinSize = minSize

	service := app.NewRunService(nil, "cli")
	result, err := service.Decouple(ctx, app.DecoupleRequest{
		Matrix:    dataset.Matrix,
		Network:   dataset.Network,
		Methods:   methodNames,
		Options:   opts,
		Consensus: consensus,
	})
	if err != nil {
		return fmt.Errorf("scoring failed: %w", err)
	}

	fmt.Printf("📊 SCORING RESULTS\n")
	fmt.Printf("Run: %s (%dms)\n", result.RunID, result.RuntimeMs)
	fmt.Printf("Methods: %s\n", strings.Join(result.Manifest.Methods, ", "))
	fmt.Printf("Result hash: %s\n", result.ResultHash)

	condition := dataset.Matrix.Conditions[0]
	for _, method := range result.Manifest.Methods {
		printTopScores(result.Results, methods.PreferredStatistic(method), condition, dataset.ActiveRegulator)
	}
	if consensus {
		printTopScores(result.Results, score.StatConsensus, condition, dataset.ActiveRegulator)
	}

	recovered := true
	for _, method := range result.Manifest.Methods {
		if topSource(result.Results, methods.PreferredStatistic(method), condition) != dataset.ActiveRegulator {
			recovered = false
		}
	}
	if recovered {
		fmt.Printf("\n✅ Planted regulator recovered by every method\n")
	} else {
		fmt.Printf("\n⚠️  Some methods did not rank the planted regulator first\n")
	}

	if outputFile != "" {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
		if err := os.WriteFile(outputFile, data, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", outputFile, err)
		}
		fmt.Printf("💾 Full result saved to %s\n", outputFile)
	}

	return nil
}

func newScoreCmd() *cobra.Command {
	var methodNames []string
	var times, minSize int
	var seed int64
	var consensus, center bool
	var outputFile string

	cmd := &cobra.Command{
		Use:   "score [matrix.json] [network.json]",
		Short: "Score a measurement matrix against a prior-knowledge network",
		Long: `Score a matrix against a network, both given as JSON files.

The matrix file holds {"features": [...], "conditions": [...], "values": [[...]]}.
The network file holds an array of {"source", "target", "weight", "likelihood"}
records; weight and likelihood default to 1 when omitted.

Example: regact score matrix.json network.json --methods ulm,wsum --seed 42`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScore(cmd.Context(), args[0], args[1], methodNames, times, minSize, seed, consensus, center, outputFile)
		},
	}

	cmd.Flags().StringSliceVar(&methodNames, "methods", nil, "Methods to run (default: ulm,mlm,wsum)")
	cmd.Flags().IntVar(&times, "times", 1000, "Permutation count for null-model methods")
	cmd.Flags().IntVar(&minSize, "min-size", 5, "Minimum covered targets per regulator")
	cmd.Flags().Int64Var(&seed, "seed", 42, "Random seed for deterministic scoring")
	cmd.Flags().BoolVar(&consensus, "consensus", false, "Add a consensus score over the selected methods")
	cmd.Flags().BoolVar(&center, "center", false, "Center each feature across conditions before scoring")
	cmd.Flags().StringVar(&outputFile, "output", "", "Write the full result JSON to this file")

	return cmd
}

// edgeFile is one network record on disk. Weight and likelihood default to 1
// when omitted.
type edgeFile struct {
	Source     string   `json:"source"`
	Target     string   `json:"target"`
	Weight     *float64 `json:"weight"`
	Likelihood *float64 `json:"likelihood"`
}

func loadMatrix(path string) (*omics.Matrix, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read matrix file: %w", err)
	}
	var matrix omics.Matrix
	if err := json.Unmarshal(data, &matrix); err != nil {
		return nil, fmt.Errorf("failed to parse matrix file: %w", err)
	}
	return &matrix, nil
}

func loadNetwork(path string) (*omics.Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read network file: %w", err)
	}
	var records []edgeFile
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse network file: %w", err)
	}

	edges := make([]omics.Edge, len(records))
	for i, rec := range records {
		edges[i] = omics.Edge{Source: rec.Source, Target: rec.Target, Weight: 1, Likelihood: 1}
		if rec.Weight != nil {
			edges[i].Weight = *rec.Weight
		}
		if rec.Likelihood != nil {
			edges[i].Likelihood = *rec.Likelihood
		}
	}
	return omics.TableFromEdges(edges), nil
}

func runScore(ctx context.Context, matrixPath, networkPath string, methodNames []string, times, minSize int, seed int64, consensus, center bool, outputFile string) error {
	matrix, err := loadMatrix(matrixPath)
	if err != nil {
		return err
	}
	network, err := loadNetwork(networkPath)
	if err != nil {
		return err
	}

	opts := methods.DefaultOptions()
	opts.Seed = seed
	opts.Times = times
	opts.MinSize = minSize
	opts.Center = center

	service := app.NewRunService(nil, "cli")
	result, err := service.Decouple(ctx, app.DecoupleRequest{
		Matrix:    matrix,
		Network:   network,
		Methods:   methodNames,
		Options:   opts,
		Consensus: consensus,
	})
	if err != nil {
		return fmt.Errorf("scoring failed: %w", err)
	}

	fmt.Printf("📊 SCORING RESULTS\n")
	fmt.Printf("Run: %s (%dms)\n", result.RunID, result.RuntimeMs)
	fmt.Printf("Inputs: %d features x %d conditions, %d regulators\n",
		result.Manifest.Features, result.Manifest.Conditions, result.Manifest.Sources)
	fmt.Printf("Result hash: %s\n", result.ResultHash)

	condition := matrix.Conditions[0]
	for _, statistic := range result.Results.Statistics() {
		printTopScores(result.Results, statistic, condition, "")
	}

	if outputFile != "" {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
		if err := os.WriteFile(outputFile, data, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", outputFile, err)
		}
		fmt.Printf("\n💾 Full result saved to %s\n", outputFile)
	}

	return nil
}

func newMethodsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "methods",
		Short: "List the available scoring methods",
		RunE: func(cmd *cobra.Command, args []string) error {
			defaults := make(map[string]bool, len(methods.DefaultSet))
			for _, name := range methods.DefaultSet {
				defaults[name] = true
			}

			fmt.Printf("Available methods (* = default set):\n\n")
			for _, m := range methods.All() {
				marker := " "
				if defaults[m.Name()] {
					marker = "*"
				}
				fmt.Printf("%s %-6s %s\n", marker, m.Name(), m.Description())
			}
			return nil
		},
	}
}

// printTopScores lists the strongest scores of one statistic group under one
// condition, marking the planted regulator when known.
func printTopScores(results score.Table, statistic, condition, planted string) {
	group := results.Filter(statistic)
	ranked := make(score.Table, 0, len(group))
	for _, rec := range group {
		if rec.Condition == condition && !math.IsNaN(rec.Score) {
			ranked = append(ranked, rec)
		}
	}
	if len(ranked) == 0 {
		return
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return math.Abs(ranked[i].Score) > math.Abs(ranked[j].Score)
	})
	if len(ranked) > 5 {
		ranked = ranked[:5]
	}

	fmt.Printf("\n## %s (%s)\n", statistic, condition)
	for i, rec := range ranked {
		marker := ""
		if planted != "" && rec.Source == planted {
			marker = "  ⭐"
		}
		fmt.Printf("%2d. %-10s %8.3f  p=%.3g%s\n", i+1, rec.Source, rec.Score, rec.PValue, marker)
	}
}

// topSource returns the regulator with the largest score magnitude in one
// statistic group and condition.
func topSource(results score.Table, statistic, condition string) string {
	best, bestAbs := "", -1.0
	for _, rec := range results.Filter(statistic) {
		if rec.Condition != condition || math.IsNaN(rec.Score) {
			continue
		}
		if abs := math.Abs(rec.Score); abs > bestAbs {
			best, bestAbs = rec.Source, abs
		}
	}
	return best
}
