package httpapi

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"regact/domain/analysis"
	"regact/domain/score"
	"regact/internal/profiling"
)

// reportTopN caps the ranked score listing per statistic group.
const reportTopN = 5

// BuildReport renders a run as markdown: the determinism tuple, then per
// statistic a distribution profile and the strongest scores.
func BuildReport(manifest *analysis.RunManifest, results score.Table) []byte {
	var b strings.Builder

	fmt.Fprintf(&b, "# Run %s\n\n", manifest.RunID)
	fmt.Fprintf(&b, "- **Methods:** %s\n", strings.Join(manifest.Methods, ", "))
	fmt.Fprintf(&b, "- **Inputs:** %d features x %d conditions, %d regulators\n",
		manifest.Features, manifest.Conditions, manifest.Sources)
	fmt.Fprintf(&b, "- **Parameters:** seed %d, %d permutations, min size %d\n",
		manifest.Seed, manifest.Times, manifest.MinSize)
	fmt.Fprintf(&b, "- **Fingerprint:** `%s`\n", manifest.Fingerprint.Fingerprint)
	fmt.Fprintf(&b, "- **Created:** %s\n\n", manifest.CreatedAt)

	for _, statistic := range results.Statistics() {
		group := results.Filter(statistic)
		fmt.Fprintf(&b, "## %s\n\n", statistic)

		scores := make([]float64, len(group))
		for i, rec := range group {
			scores[i] = rec.Score
		}
		summary, err := profiling.Summarize(scores)
		if err != nil {
			b.WriteString("No finite scores in this group.\n\n")
			continue
		}
		fmt.Fprintf(&b, "%d scores, mean %.4f, sd %.4f, range [%.4f, %.4f]\n\n",
			summary.Count, summary.Mean, summary.StdDev, summary.Min, summary.Max)

		b.WriteString("| source | condition | score | p-value |\n")
		b.WriteString("|---|---|---:|---:|\n")
		for _, rec := range topByMagnitude(group, reportTopN) {
			fmt.Fprintf(&b, "| %s | %s | %.4f | %.3g |\n",
				rec.Source, rec.Condition, rec.Score, rec.PValue)
		}
		b.WriteString("\n")
	}

	return []byte(b.String())
}

// topByMagnitude returns the n records with the largest absolute score,
// skipping NaN cells.
func topByMagnitude(group score.Table, n int) score.Table {
	ranked := make(score.Table, 0, len(group))
	for _, rec := range group {
		if !math.IsNaN(rec.Score) {
			ranked = append(ranked, rec)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return math.Abs(ranked[i].Score) > math.Abs(ranked[j].Score)
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// RenderHTML converts a markdown report into a complete HTML page.
func RenderHTML(md []byte) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	doc := p.Parse(md)

	renderer := html.NewRenderer(html.RendererOptions{
		Title: "Run report",
		Flags: html.CommonFlags | html.CompletePage,
	})
	return markdown.Render(doc, renderer)
}
