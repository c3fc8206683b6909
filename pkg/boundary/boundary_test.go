package boundary

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcgraph/arcgraph/pkg/config"
	"github.com/arcgraph/arcgraph/pkg/graph"
	"github.com/arcgraph/arcgraph/pkg/models"
)

func newDetector(t *testing.T, mutate func(*config.Config)) *Detector {
	t.Helper()
	cfg := config.DefaultConfig()
	if mutate != nil {
		mutate(cfg)
	}
	d, err := New(cfg)
	require.NoError(t, err)
	return d
}

func node(id, module string) models.Element {
	return models.Element{ID: id, Name: id, Module: module, Kind: models.KindClass}
}

func external(id string) models.Element {
	return models.Element{ID: id, Name: id, Kind: models.KindImport, Metadata: map[string]string{"external": "true"}}
}

func rel(source, target string, strength float64) models.Relationship {
	return models.Relationship{
		ID:       fmt.Sprintf("%s->%s", source, target),
		SourceID: source,
		TargetID: target,
		Kind:     models.RelUses,
		Strength: strength,
	}
}

// fiveClique wires 5 nodes with all 10 forward pairs plus one edge to and one
// edge from an external stub.
func fiveClique() *graph.Graph {
	elements := []models.Element{
		node("n1", "orders"), node("n2", "orders"), node("n3", "orders"),
		node("n4", "orders"), node("n5", "orders"),
		external("ext1"), external("ext2"),
	}
	var rels []models.Relationship
	ids := []string{"n1", "n2", "n3", "n4", "n5"}
	for i := range ids {
		for j := i + 1; j < len(ids); j++ {
			rels = append(rels, rel(ids[i], ids[j], 1.0))
		}
	}
	rels = append(rels, rel("n1", "ext1", 0.3), rel("ext2", "n2", 0.3))
	return graph.Build(elements, rels)
}

func TestDetectScoresCluster(t *testing.T) {
	d := newDetector(t, nil)
	g := fiveClique()

	boundaries := d.Detect(g, nil)
	require.Len(t, boundaries, 1)

	b := boundaries[0]
	assert.Equal(t, "orders", b.Name)
	assert.Len(t, b.Elements, 5)
	assert.NotContains(t, b.Elements, "ext1")
	assert.NotContains(t, b.Elements, "ext2")

	// 10 internal edges over 5*(5-1) ordered pairs.
	assert.InDelta(t, 0.5, b.Cohesion, 1e-9)
	// 2 crossing edges out of 12 touching.
	assert.InDelta(t, 2.0/12.0, b.Coupling, 1e-9)
	assert.Greater(t, b.Complexity, 0.0)
	assert.NotEmpty(t, b.ID)
}

func TestDetectDeterministic(t *testing.T) {
	d := newDetector(t, nil)
	g := fiveClique()

	first := d.Detect(g, nil)
	second := d.Detect(g, nil)
	assert.Equal(t, first, second)
}

func TestDetectResidualFoldsSmallClusters(t *testing.T) {
	d := newDetector(t, func(cfg *config.Config) {
		cfg.Boundary.MinClusterSize = 10
	})
	g := fiveClique()

	boundaries := d.Detect(g, nil)
	require.Len(t, boundaries, 1)
	assert.Equal(t, residualName, boundaries[0].Name)
	assert.Equal(t, models.BoundaryUtility, boundaries[0].Type)
	assert.Len(t, boundaries[0].Elements, 5)
}

func TestDetectResidualRespectsMaxSize(t *testing.T) {
	d := newDetector(t, func(cfg *config.Config) {
		cfg.Boundary.MinClusterSize = 3
		cfg.Boundary.MaxClusterSize = 4
	})

	// Ten disconnected pairs, each below the minimum, fold into a residual
	// of 20 members that must still split at the maximum.
	var elements []models.Element
	var rels []models.Relationship
	for i := 0; i < 10; i++ {
		a := fmt.Sprintf("p%02da", i)
		b := fmt.Sprintf("p%02db", i)
		elements = append(elements, node(a, "pairs"), node(b, "pairs"))
		rels = append(rels, rel(a, b, 1.0))
	}
	g := graph.Build(elements, rels)

	boundaries := d.Detect(g, nil)
	require.Len(t, boundaries, 5)

	total := 0
	for _, b := range boundaries {
		assert.LessOrEqual(t, len(b.Elements), 4)
		assert.Equal(t, models.BoundaryUtility, b.Type)
		assert.Contains(t, b.Name, residualName)
		total += len(b.Elements)
	}
	assert.Equal(t, 20, total)
}

func TestDetectSplitsOversizedClusters(t *testing.T) {
	d := newDetector(t, func(cfg *config.Config) {
		cfg.Boundary.MinClusterSize = 1
		cfg.Boundary.MaxClusterSize = 2
	})
	g := fiveClique()

	boundaries := d.Detect(g, nil)
	require.Len(t, boundaries, 3)

	total := 0
	for _, b := range boundaries {
		assert.LessOrEqual(t, len(b.Elements), 2)
		total += len(b.Elements)
	}
	assert.Equal(t, 5, total)
}

func TestDetectClassifiesByRules(t *testing.T) {
	d := newDetector(t, nil)

	elements := []models.Element{
		{ID: "c1", Name: "OrderController", Module: "api", Kind: models.KindClass},
		{ID: "c2", Name: "UserController", Module: "api", Kind: models.KindClass},
		{ID: "c3", Name: "AuthHandler", Module: "api", Kind: models.KindClass},
	}
	rels := []models.Relationship{
		rel("c1", "c2", 1.0), rel("c2", "c3", 1.0), rel("c1", "c3", 1.0),
	}
	g := graph.Build(elements, rels)

	boundaries := d.Detect(g, nil)
	require.Len(t, boundaries, 1)
	assert.Equal(t, models.BoundaryAPI, boundaries[0].Type)
}

func TestDetectCycleMembersRaiseComplexity(t *testing.T) {
	d := newDetector(t, nil)
	g := fiveClique()

	plain := d.Detect(g, nil)
	cycled := d.Detect(g, [][]string{{"n1", "n2"}})

	require.Len(t, plain, 1)
	require.Len(t, cycled, 1)
	assert.Greater(t, cycled[0].Complexity, plain[0].Complexity)
}

func TestDetectLinksDependencies(t *testing.T) {
	d := newDetector(t, func(cfg *config.Config) {
		cfg.Boundary.MinClusterSize = 2
	})

	// Two triangles with a single weak cross edge.
	elements := []models.Element{
		node("a1", "alpha"), node("a2", "alpha"), node("a3", "alpha"),
		node("b1", "beta"), node("b2", "beta"), node("b3", "beta"),
	}
	rels := []models.Relationship{
		rel("a1", "a2", 1.0), rel("a2", "a3", 1.0), rel("a3", "a1", 1.0),
		rel("b1", "b2", 1.0), rel("b2", "b3", 1.0), rel("b3", "b1", 1.0),
		rel("a1", "b1", 0.1),
	}
	g := graph.Build(elements, rels)

	boundaries := d.Detect(g, nil)
	require.Len(t, boundaries, 2)

	byName := make(map[string]models.ServiceBoundary)
	for _, b := range boundaries {
		byName[b.Name] = b
	}
	alpha, ok := byName["alpha"]
	require.True(t, ok)
	beta, ok := byName["beta"]
	require.True(t, ok)

	assert.Equal(t, []string{beta.ID}, alpha.Dependencies)
	assert.Empty(t, beta.Dependencies)
}

func TestDetectEmptyGraph(t *testing.T) {
	d := newDetector(t, nil)
	assert.Nil(t, d.Detect(graph.Build(nil, nil), nil))
}

func TestDetectAllExternal(t *testing.T) {
	d := newDetector(t, nil)
	g := graph.Build([]models.Element{external("e1"), external("e2")}, nil)
	assert.Nil(t, d.Detect(g, nil))
}
