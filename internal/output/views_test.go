package output

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcgraph/arcgraph/pkg/models"
)

func sampleResult() *models.AnalysisResult {
	return &models.AnalysisResult{
		Version: 3,
		Root:    "/repo",
		Elements: []models.Element{
			{ID: "e1", Name: "Store", Kind: models.KindStruct, Module: "store", Language: "go"},
			{ID: "e2", Name: "Get", Kind: models.KindMethod, Module: "store", Language: "go"},
		},
		Relationships: []models.Relationship{
			{ID: "r1", SourceID: "e1", TargetID: "e2", Kind: models.RelContains, Strength: 1.0},
		},
		LanguageStats: map[string]int{"go": 2, "python": 1},
		CycleGroups:   [][]string{{"e1", "e2"}},
		Summary: models.GraphSummary{
			TotalNodes: 2,
			TotalEdges: 1,
			Density:    0.5,
			MaxDepth:   2,
			CycleCount: 1,
		},
		Diagnostics: []models.Diagnostic{
			{Kind: models.DiagParse, Path: "bad.py", Message: "syntax errors"},
		},
	}
}

func TestSummaryRenderText(t *testing.T) {
	var sb strings.Builder
	s := &Summary{Result: sampleResult(), Elapsed: 1500 * time.Millisecond}
	require.NoError(t, s.RenderText(&sb, false))

	out := sb.String()
	assert.Contains(t, out, "Architecture Analysis")
	assert.Contains(t, out, "Root: /repo")
	assert.Contains(t, out, "Elements: 2, Relationships: 1")
	assert.Contains(t, out, "Boundaries: 0, Cycles: 1")
	assert.Contains(t, out, "go: 2 elements")
	assert.Contains(t, out, "python: 1 elements")
	assert.Contains(t, out, "[parse] bad.py: syntax errors")
	assert.Contains(t, out, "Completed in 1.5s")

	// language listing is sorted
	assert.Less(t, strings.Index(out, "go:"), strings.Index(out, "python:"))
}

func TestSummaryRenderTextOmitsEmptySections(t *testing.T) {
	var sb strings.Builder
	s := &Summary{Result: &models.AnalysisResult{Root: "/repo"}}
	require.NoError(t, s.RenderText(&sb, false))

	out := sb.String()
	assert.NotContains(t, out, "Languages:")
	assert.NotContains(t, out, "Diagnostics")
	assert.NotContains(t, out, "Completed in")
}

func TestSummaryRenderMarkdown(t *testing.T) {
	var sb strings.Builder
	s := &Summary{Result: sampleResult()}
	require.NoError(t, s.RenderMarkdown(&sb))

	out := sb.String()
	assert.Contains(t, out, "# Architecture Analysis")
	assert.Contains(t, out, "- **Elements**: 2")
	assert.Contains(t, out, "## Languages")
	assert.Contains(t, out, "## Diagnostics")
	assert.Contains(t, out, "`parse` bad.py: syntax errors")
}

func TestSummaryRenderData(t *testing.T) {
	r := sampleResult()
	s := &Summary{Result: r}
	assert.Same(t, r, s.RenderData())
}

func TestCycleListRenderText(t *testing.T) {
	var sb strings.Builder
	c := &CycleList{Result: sampleResult()}
	require.NoError(t, c.RenderText(&sb, false))

	out := sb.String()
	assert.Contains(t, out, "Dependency cycles (1):")
	assert.Contains(t, out, "1. store.Store -> store.Get")
}

func TestCycleListRenderTextNoCycles(t *testing.T) {
	var sb strings.Builder
	c := &CycleList{Result: &models.AnalysisResult{}}
	require.NoError(t, c.RenderText(&sb, false))

	assert.Contains(t, sb.String(), "No dependency cycles found")
}

func TestCycleListUnknownIDFallsBack(t *testing.T) {
	var sb strings.Builder
	c := &CycleList{Result: &models.AnalysisResult{CycleGroups: [][]string{{"ghost"}}}}
	require.NoError(t, c.RenderText(&sb, false))

	assert.Contains(t, sb.String(), "1. ghost")
}

func TestCycleListRenderMarkdown(t *testing.T) {
	var sb strings.Builder
	c := &CycleList{Result: sampleResult()}
	require.NoError(t, c.RenderMarkdown(&sb))

	out := sb.String()
	assert.Contains(t, out, "## Dependency Cycles")
	assert.Contains(t, out, "1. store.Store -> store.Get")
}

func TestCycleListRenderData(t *testing.T) {
	r := sampleResult()
	c := &CycleList{Result: r}
	groups, ok := c.RenderData().([][]string)
	require.True(t, ok)
	assert.Equal(t, r.CycleGroups, groups)
}
