package analysis

import (
	"sort"

	"github.com/arcgraph/arcgraph/pkg/graph"
	"github.com/arcgraph/arcgraph/pkg/models"
)

// ElementMetrics pairs an element with its graph metrics for reporting.
type ElementMetrics struct {
	Element models.Element `json:"element" toon:"element"`
	Metrics graph.Metrics  `json:"metrics" toon:"metrics"`
}

// NodeMetrics rebuilds the graph from a result and computes per-element
// coupling, instability, and impact.
func NodeMetrics(result *models.AnalysisResult) map[string]graph.Metrics {
	g := graph.Build(result.Elements, result.Relationships)
	return g.NodeMetrics()
}

// TopImpact returns the n internal elements with the widest blast radius,
// highest impact first, ties broken by element id.
func TopImpact(result *models.AnalysisResult, n int) []ElementMetrics {
	metrics := NodeMetrics(result)

	var ranked []ElementMetrics
	for _, el := range result.Elements {
		if el.External() {
			continue
		}
		ranked = append(ranked, ElementMetrics{Element: el, Metrics: metrics[el.ID]})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Metrics.Impact != ranked[j].Metrics.Impact {
			return ranked[i].Metrics.Impact > ranked[j].Metrics.Impact
		}
		return ranked[i].Element.ID < ranked[j].Element.ID
	})
	if n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
