package analysis

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcgraph/arcgraph/internal/testutil"
	"github.com/arcgraph/arcgraph/pkg/config"
	"github.com/arcgraph/arcgraph/pkg/models"
)

func sampleTree(t *testing.T) string {
	t.Helper()
	root := testutil.TempDir(t)
	testutil.CreateFileTree(t, root, map[string]string{
		"store/store.go": testutil.GoSample,
		"app/tasks.py":   testutil.PySample,
		"src/worker.ts":  testutil.JSSample,
	})
	return root
}

func newAnalyzer(t *testing.T, mutate func(*config.Config)) *Analyzer {
	t.Helper()
	cfg := config.DefaultConfig()
	if mutate != nil {
		mutate(cfg)
	}
	a, err := New(cfg)
	require.NoError(t, err)
	return a
}

func elementIDs(result *models.AnalysisResult) []string {
	ids := make([]string, len(result.Elements))
	for i, el := range result.Elements {
		ids[i] = el.ID
	}
	return ids
}

func relationshipIDs(result *models.AnalysisResult) []string {
	ids := make([]string, len(result.Relationships))
	for i, rel := range result.Relationships {
		ids[i] = rel.ID
	}
	sort.Strings(ids)
	return ids
}

func TestNewValidatesConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Boundary.MinClusterSize = 0

	_, err := New(cfg)
	require.Error(t, err)
}

func TestRunFull(t *testing.T) {
	root := sampleTree(t)
	a := newAnalyzer(t, nil)

	result, err := a.RunFull(context.Background(), root, nil)
	require.NoError(t, err)

	assert.Equal(t, uint64(1), result.Version)
	assert.Equal(t, root, result.Root)
	assert.NotEmpty(t, result.Elements)
	assert.NotEmpty(t, result.Relationships)
	assert.Len(t, result.FileDigests, 3)

	assert.Positive(t, result.LanguageStats["go"])
	assert.Positive(t, result.LanguageStats["python"])
	assert.Positive(t, result.LanguageStats["typescript"])

	assert.Equal(t, len(result.Elements), result.Summary.TotalNodes)

	// Extraction succeeded everywhere, so no file-level diagnostics.
	for _, d := range result.Diagnostics {
		assert.NotEqual(t, models.DiagFileAccess, d.Kind)
		assert.NotEqual(t, models.DiagParse, d.Kind)
	}

	assert.Same(t, result, a.Current())
}

func TestRunFullDeterministic(t *testing.T) {
	root := sampleTree(t)

	r1, err := newAnalyzer(t, nil).RunFull(context.Background(), root, nil)
	require.NoError(t, err)
	r2, err := newAnalyzer(t, nil).RunFull(context.Background(), root, nil)
	require.NoError(t, err)

	assert.Equal(t, elementIDs(r1), elementIDs(r2))
	assert.Equal(t, relationshipIDs(r1), relationshipIDs(r2))
	assert.Equal(t, r1.Boundaries, r2.Boundaries)
	assert.Equal(t, r1.Summary, r2.Summary)
}

func TestRunFullVersionIncrements(t *testing.T) {
	root := sampleTree(t)
	a := newAnalyzer(t, nil)

	r1, err := a.RunFull(context.Background(), root, nil)
	require.NoError(t, err)
	r2, err := a.RunFull(context.Background(), root, nil)
	require.NoError(t, err)

	assert.Equal(t, uint64(1), r1.Version)
	assert.Equal(t, uint64(2), r2.Version)
}

func TestRunFullCancelled(t *testing.T) {
	root := sampleTree(t)
	a := newAnalyzer(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.RunFull(ctx, root, nil)
	require.Error(t, err)
	assert.Nil(t, a.Current())
}

func TestRunFullSkipsOversizeFiles(t *testing.T) {
	root := sampleTree(t)
	a := newAnalyzer(t, func(cfg *config.Config) {
		cfg.Analysis.MaxFileSize = 10
	})

	result, err := a.RunFull(context.Background(), root, nil)
	require.NoError(t, err)

	skipped := 0
	for _, d := range result.Diagnostics {
		if d.Kind == models.DiagSkipped {
			skipped++
		}
	}
	assert.Equal(t, 3, skipped)
	assert.Empty(t, result.Elements)
}

func TestRunFullReportsProgress(t *testing.T) {
	root := sampleTree(t)
	a := newAnalyzer(t, nil)

	ticks := 0
	_, err := a.RunFull(context.Background(), root, func() { ticks++ })
	require.NoError(t, err)
	assert.Equal(t, 3, ticks)
}

func TestRunIncrementalFirstRunFallsBack(t *testing.T) {
	root := sampleTree(t)
	a := newAnalyzer(t, nil)

	result, diff, err := a.RunIncremental(context.Background(), root, nil)
	require.NoError(t, err)
	require.NotNil(t, diff)

	assert.Equal(t, uint64(1), result.Version)
	assert.Len(t, diff.AddedElements, len(result.Elements))
	assert.Empty(t, diff.RemovedElements)
}

func TestRunIncrementalNoChanges(t *testing.T) {
	root := sampleTree(t)
	a := newAnalyzer(t, nil)

	full, err := a.RunFull(context.Background(), root, nil)
	require.NoError(t, err)

	incr, diff, err := a.RunIncremental(context.Background(), root, nil)
	require.NoError(t, err)

	assert.True(t, diff.Empty(), "diff should be empty: %+v", diff)
	assert.Equal(t, elementIDs(full), elementIDs(incr))
	assert.Equal(t, relationshipIDs(full), relationshipIDs(incr))
	assert.Equal(t, full.Version+1, incr.Version)
}

func TestRunIncrementalAfterChange(t *testing.T) {
	root := sampleTree(t)
	a := newAnalyzer(t, nil)

	_, err := a.RunFull(context.Background(), root, nil)
	require.NoError(t, err)

	// Append a function to the Go file.
	path := filepath.Join(root, "store", "store.go")
	content := testutil.ReadFile(t, path) + "\nfunc Reset() {}\n"
	testutil.WriteFile(t, path, content)

	incr, diff, err := a.RunIncremental(context.Background(), root, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, diff.AddedElements)

	// The incremental result matches a fresh full run over the same tree.
	fresh, err := newAnalyzer(t, nil).RunFull(context.Background(), root, nil)
	require.NoError(t, err)
	assert.Equal(t, elementIDs(fresh), elementIDs(incr))
	assert.Equal(t, relationshipIDs(fresh), relationshipIDs(incr))
	assert.Equal(t, fresh.Boundaries, incr.Boundaries)
}

func TestRunIncrementalKeepsDiagnosticsOfUntouchedFiles(t *testing.T) {
	root := testutil.TempDir(t)
	testutil.CreateFileTree(t, root, map[string]string{
		"store/store.go": testutil.GoSample,
		"app/bad.py":     "def broken(:\n",
	})
	a := newAnalyzer(t, nil)

	full, err := a.RunFull(context.Background(), root, nil)
	require.NoError(t, err)
	require.Len(t, parseDiagnostics(full), 1)

	// Touch only the healthy file; the malformed one stays as it was.
	path := filepath.Join(root, "store", "store.go")
	content := testutil.ReadFile(t, path) + "\nfunc Reset() {}\n"
	testutil.WriteFile(t, path, content)

	incr, _, err := a.RunIncremental(context.Background(), root, nil)
	require.NoError(t, err)

	parses := parseDiagnostics(incr)
	require.Len(t, parses, 1)
	assert.Equal(t, filepath.Join(root, "app", "bad.py"), parses[0].Path)

	fresh, err := newAnalyzer(t, nil).RunFull(context.Background(), root, nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, fresh.Diagnostics, incr.Diagnostics)
}

func parseDiagnostics(result *models.AnalysisResult) []models.Diagnostic {
	var out []models.Diagnostic
	for _, d := range result.Diagnostics {
		if d.Kind == models.DiagParse {
			out = append(out, d)
		}
	}
	return out
}

func TestRunIncrementalRemovedFile(t *testing.T) {
	root := sampleTree(t)
	a := newAnalyzer(t, nil)

	full, err := a.RunFull(context.Background(), root, nil)
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(root, "app", "tasks.py")))

	incr, diff, err := a.RunIncremental(context.Background(), root, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, diff.RemovedElements)
	assert.Less(t, len(incr.Elements), len(full.Elements))
	assert.Zero(t, incr.LanguageStats["python"])
	assert.NotContains(t, incr.FileDigests, filepath.Join(root, "app", "tasks.py"))
}

func TestRunIncrementalOnlyExtractsChanged(t *testing.T) {
	root := sampleTree(t)
	a := newAnalyzer(t, nil)

	_, err := a.RunFull(context.Background(), root, nil)
	require.NoError(t, err)

	path := filepath.Join(root, "src", "worker.ts")
	testutil.WriteFile(t, path, testutil.JSSample+"\nexport function retry() { return schedule(); }\n")

	ticks := 0
	_, _, err = a.RunIncremental(context.Background(), root, func() { ticks++ })
	require.NoError(t, err)
	assert.Equal(t, 1, ticks, "only the changed file should be re-extracted")
}
