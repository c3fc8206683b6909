// Package analysis orchestrates the pipeline: scan, extract, resolve, build
// the graph, and detect boundaries. Runs produce immutable versioned
// results; an incremental run reuses everything a change cannot have
// affected.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/arcgraph/arcgraph/internal/fileproc"
	"github.com/arcgraph/arcgraph/internal/scanner"
	"github.com/arcgraph/arcgraph/pkg/boundary"
	"github.com/arcgraph/arcgraph/pkg/config"
	"github.com/arcgraph/arcgraph/pkg/extract"
	"github.com/arcgraph/arcgraph/pkg/graph"
	"github.com/arcgraph/arcgraph/pkg/models"
	"github.com/arcgraph/arcgraph/pkg/parser"
	"github.com/arcgraph/arcgraph/pkg/resolve"
)

// Analyzer runs analysis over one source tree. Safe for concurrent readers:
// the current result is replaced wholesale under the mutex, never mutated.
type Analyzer struct {
	cfg      *config.Config
	scanner  *scanner.Scanner
	detector *boundary.Detector

	mu      sync.Mutex
	version uint64
	current *models.AnalysisResult
}

// New creates an analyzer for the given configuration.
func New(cfg *config.Config) (*Analyzer, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	detector, err := boundary.New(cfg)
	if err != nil {
		return nil, err
	}
	return &Analyzer{
		cfg:      cfg,
		scanner:  scanner.New(cfg),
		detector: detector,
	}, nil
}

// Current returns the latest result, or nil before the first run.
func (a *Analyzer) Current() *models.AnalysisResult {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current
}

// RunFull analyzes the whole tree from scratch. Cancellation is honored
// while files are still being extracted; once resolution starts the run
// completes. Per-file failures become diagnostics, not errors.
func (a *Analyzer) RunFull(ctx context.Context, root string, onProgress func()) (*models.AnalysisResult, error) {
	files, err := a.scanner.Scan(root)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", root, err)
	}

	var diags []models.Diagnostic
	files, oversize := scanner.FilterBySize(files, a.cfg.Analysis.MaxFileSize)
	for _, path := range oversize {
		diags = append(diags, models.Diagnostic{
			Kind:    models.DiagSkipped,
			Path:    path,
			Message: fmt.Sprintf("exceeds max file size %d", a.cfg.Analysis.MaxFileSize),
		})
	}

	results, extractDiags, err := a.extract(ctx, files, onProgress)
	if err != nil {
		return nil, err
	}
	diags = append(diags, extractDiags...)

	result := a.assemble(root, results, nil, diags)

	a.mu.Lock()
	a.version++
	result.Version = a.version
	a.current = result
	a.mu.Unlock()
	return result, nil
}

// RunIncremental re-analyzes only what changed since the previous result.
// Falls back to a full run when no previous result exists. The returned
// result is equivalent to a fresh full run over the same tree.
func (a *Analyzer) RunIncremental(ctx context.Context, root string, onProgress func()) (*models.AnalysisResult, *models.AnalysisDiff, error) {
	a.mu.Lock()
	prev := a.current
	a.mu.Unlock()

	if prev == nil {
		result, err := a.RunFull(ctx, root, onProgress)
		if err != nil {
			return nil, nil, err
		}
		diff := Diff(&models.AnalysisResult{}, result)
		return result, diff, nil
	}

	files, err := a.scanner.Scan(root)
	if err != nil {
		return nil, nil, fmt.Errorf("scanning %s: %w", root, err)
	}

	var diags []models.Diagnostic
	files, oversize := scanner.FilterBySize(files, a.cfg.Analysis.MaxFileSize)
	for _, path := range oversize {
		diags = append(diags, models.Diagnostic{
			Kind:    models.DiagSkipped,
			Path:    path,
			Message: fmt.Sprintf("exceeds max file size %d", a.cfg.Analysis.MaxFileSize),
		})
	}

	changed, removed, err := a.changedFiles(ctx, prev, files)
	if err != nil {
		return nil, nil, err
	}

	results, extractDiags, err := a.extract(ctx, changed, onProgress)
	if err != nil {
		return nil, nil, err
	}
	diags = append(diags, extractDiags...)

	// Keep prior elements from untouched files. External stubs are
	// regenerated during reassembly.
	touched := make(map[string]bool, len(changed)+len(removed))
	for _, p := range changed {
		touched[p] = true
	}
	for _, p := range removed {
		touched[p] = true
	}
	var kept []models.Element
	for _, el := range prev.Elements {
		if !el.External() && !touched[el.File] {
			kept = append(kept, el)
		}
	}

	// Per-file diagnostics of untouched files survive the run. Everything
	// else is regenerated: oversize and unreadable files are re-diagnosed
	// above, graph and boundary warnings during reassembly.
	for _, d := range prev.Diagnostics {
		if d.Path == "" || touched[d.Path] {
			continue
		}
		if d.Kind == models.DiagParse || d.Kind == models.DiagUnsupported {
			diags = append(diags, d)
		}
	}

	result := a.assemble(root, results, kept, diags)

	a.mu.Lock()
	a.version++
	result.Version = a.version
	a.current = result
	a.mu.Unlock()

	return result, Diff(prev, result), nil
}

// changedFiles digests the scanned files and compares against the previous
// run. Returns the files to re-extract and the files that disappeared.
func (a *Analyzer) changedFiles(ctx context.Context, prev *models.AnalysisResult, files []string) (changed, removed []string, err error) {
	type digested struct {
		path   string
		digest string
	}
	digests, errs := fileproc.ForEachFile(ctx, files, a.cfg.Analysis.Workers, func(path string) (digested, error) {
		content, err := os.ReadFile(path)
		if err != nil {
			return digested{}, err
		}
		return digested{path: path, digest: extract.Digest(content)}, nil
	})
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	_ = errs // unreadable files are re-extracted below and diagnosed there

	seen := make(map[string]bool, len(files))
	for _, d := range digests {
		seen[d.path] = true
		if prev.FileDigests[d.path] != d.digest {
			changed = append(changed, d.path)
		}
	}
	for _, f := range files {
		if !seen[f] {
			changed = append(changed, f)
		}
	}
	for path := range prev.FileDigests {
		if !contains(files, path) {
			removed = append(removed, path)
		}
	}
	sort.Strings(changed)
	sort.Strings(removed)
	return changed, removed, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// extract runs the parallel extraction stage under the configured wall-clock
// budget. Budget exhaustion marks the remaining files skipped; caller
// cancellation aborts the run.
func (a *Analyzer) extract(ctx context.Context, files []string, onProgress func()) ([]extract.FileResult, []models.Diagnostic, error) {
	runCtx := ctx
	var cancel context.CancelFunc
	if a.cfg.Analysis.BudgetSeconds > 0 {
		runCtx, cancel = context.WithTimeout(ctx, time.Duration(a.cfg.Analysis.BudgetSeconds)*time.Second)
		defer cancel()
	}

	overrides := a.cfg.ExtensionMap()
	newExtractor := func() *extract.Extractor {
		if len(overrides) == 0 {
			return extract.New()
		}
		merged := parser.DefaultExtensions()
		for ext, lang := range overrides {
			merged[ext] = lang
		}
		return extract.New(extract.WithExtensions(merged))
	}

	results, errs := fileproc.MapFiles(runCtx, files, a.cfg.Analysis.Workers, newExtractor,
		func(ex *extract.Extractor, path string) (extract.FileResult, error) {
			content, err := os.ReadFile(path)
			if err != nil {
				return extract.FileResult{}, err
			}
			return ex.ExtractFile(path, content), nil
		}, onProgress)

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	var diags []models.Diagnostic
	if errs != nil {
		for _, pe := range errs.Errors {
			if errors.Is(pe.Err, context.DeadlineExceeded) {
				diags = append(diags, models.Diagnostic{
					Kind:    models.DiagSkipped,
					Path:    pe.Path,
					Message: "extraction budget exhausted",
				})
				continue
			}
			diags = append(diags, models.Diagnostic{
				Kind:    models.DiagFileAccess,
				Path:    pe.Path,
				Message: pe.Err.Error(),
			})
		}
	}
	return results, diags, nil
}

// assemble merges extraction output with kept elements and derives the
// graph-level views. Resolution always runs over the complete internal
// element set so incremental and full runs converge on the same edges.
func (a *Analyzer) assemble(root string, results []extract.FileResult, kept []models.Element, diags []models.Diagnostic) *models.AnalysisResult {
	sort.Slice(results, func(i, j int) bool { return results[i].Path < results[j].Path })

	elements := append([]models.Element(nil), kept...)
	digestsByFile := make(map[string]string)
	langStats := make(map[string]int)

	for _, el := range kept {
		if el.Language != "" {
			langStats[el.Language]++
		}
	}
	for _, fr := range results {
		elements = append(elements, fr.Elements...)
		diags = append(diags, fr.Diagnostics...)
		if fr.Digest != "" {
			digestsByFile[fr.Path] = fr.Digest
		}
		for _, el := range fr.Elements {
			if el.Language != "" {
				langStats[el.Language]++
			}
		}
	}
	sort.Slice(elements, func(i, j int) bool { return elements[i].ID < elements[j].ID })

	resolver := resolve.New(elements)
	resolution := resolver.ResolveAll()

	all := append(append([]models.Element(nil), elements...), resolution.Externals...)
	g := graph.Build(all, resolution.Relationships)
	diags = append(diags, g.Diagnostics()...)

	cycles := g.Cycles()
	boundaries := a.detector.Detect(g, cycles)
	diags = append(diags, a.antiPatterns(boundaries, cycles)...)

	// Digests of unchanged files carry over from the kept elements' run.
	prevDigests := map[string]string{}
	if cur := a.Current(); cur != nil {
		prevDigests = cur.FileDigests
	}
	fileDigests := make(map[string]string, len(digestsByFile))
	for _, el := range kept {
		if d, ok := prevDigests[el.File]; ok {
			fileDigests[el.File] = d
		}
	}
	for path, d := range digestsByFile {
		fileDigests[path] = d
	}

	return &models.AnalysisResult{
		Root:          root,
		Elements:      all,
		Relationships: g.Relationships(),
		Boundaries:    boundaries,
		CycleGroups:   cycles,
		LanguageStats: langStats,
		FileDigests:   fileDigests,
		Summary:       g.Summary(cycles),
		Diagnostics:   diags,
	}
}

// antiPatterns emits warnings for boundaries coupled beyond the configured
// threshold and for dependency cycles.
func (a *Analyzer) antiPatterns(boundaries []models.ServiceBoundary, cycles [][]string) []models.Diagnostic {
	var diags []models.Diagnostic
	warn := a.cfg.Boundary.CouplingWarn
	if warn > 0 {
		for _, b := range boundaries {
			if b.Coupling >= warn {
				diags = append(diags, models.Diagnostic{
					Kind:    models.DiagHighCoupling,
					Message: fmt.Sprintf("boundary %s coupling %.2f exceeds threshold %.2f", b.Name, b.Coupling, warn),
				})
			}
		}
	}
	for _, group := range cycles {
		diags = append(diags, models.Diagnostic{
			Kind:    models.DiagCycle,
			Message: fmt.Sprintf("dependency cycle across %d elements: %s", len(group), strings.Join(group, ", ")),
		})
	}
	return diags
}
