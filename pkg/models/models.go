// Package models defines the canonical data model shared by the analysis
// pipeline: elements, relationships, service boundaries, and the versioned
// result that aggregates them.
package models

// ElementKind classifies a named code construct.
type ElementKind string

const (
	KindModule    ElementKind = "module"
	KindPackage   ElementKind = "package"
	KindNamespace ElementKind = "namespace"
	KindClass     ElementKind = "class"
	KindInterface ElementKind = "interface"
	KindEnum      ElementKind = "enum"
	KindStruct    ElementKind = "struct"
	KindFunction  ElementKind = "function"
	KindMethod    ElementKind = "method"
	KindVariable  ElementKind = "variable"
	KindImport    ElementKind = "import"
)

// String returns the string representation.
func (k ElementKind) String() string {
	return string(k)
}

// RefKind tags a raw reference with how it was observed in source.
type RefKind string

const (
	RefImport    RefKind = "import"
	RefBase      RefKind = "base"
	RefInterface RefKind = "interface"
	RefCall      RefKind = "call"
	RefUse       RefKind = "use"
)

// Reference is an unresolved symbolic reference recorded by an extractor.
// Name is the raw string as it appears in source (possibly qualified).
type Reference struct {
	Kind RefKind `json:"kind" toon:"kind"`
	Name string  `json:"name" toon:"name"`
}

// Element is the canonical record of one named code construct.
// Elements are immutable once produced by an extractor pass.
type Element struct {
	ID         string            `json:"id" toon:"id"`
	Name       string            `json:"name" toon:"name"`
	Kind       ElementKind       `json:"kind" toon:"kind"`
	Language   string            `json:"language" toon:"language"`
	File       string            `json:"file,omitempty" toon:"file,omitempty"`
	StartLine  uint32            `json:"start_line,omitempty" toon:"start_line,omitempty"`
	EndLine    uint32            `json:"end_line,omitempty" toon:"end_line,omitempty"`
	Module     string            `json:"module,omitempty" toon:"module,omitempty"`
	Visibility string            `json:"visibility,omitempty" toon:"visibility,omitempty"`
	Modifiers  []string          `json:"modifiers,omitempty" toon:"modifiers,omitempty"`
	ParentID   string            `json:"parent_id,omitempty" toon:"parent_id,omitempty"`
	References []Reference       `json:"references,omitempty" toon:"references,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty" toon:"metadata,omitempty"`
}

// QualifiedName returns "module.name", or just the name when the element has
// no enclosing module.
func (e Element) QualifiedName() string {
	if e.Module == "" {
		return e.Name
	}
	return e.Module + "." + e.Name
}

// External reports whether the element is a synthetic stub for a symbol that
// could not be resolved within the analyzed tree.
func (e Element) External() bool {
	return e.Metadata["external"] == "true"
}

// RelationshipKind classifies a directed edge between two elements.
type RelationshipKind string

const (
	RelInherits   RelationshipKind = "inherits"
	RelImplements RelationshipKind = "implements"
	RelDependsOn  RelationshipKind = "depends_on"
	RelImports    RelationshipKind = "imports"
	RelCalls      RelationshipKind = "calls"
	RelUses       RelationshipKind = "uses"
	RelContains   RelationshipKind = "contains"
	RelAssociates RelationshipKind = "associates"
	RelComposes   RelationshipKind = "composes"
	RelAggregates RelationshipKind = "aggregates"
)

// String returns the string representation.
func (k RelationshipKind) String() string {
	return string(k)
}

// Relationship is a typed, weighted, directed edge between two elements.
// Strength is in [0,1]. Bidirectional relationships are materialized as two
// opposite directed edges of equal strength when the graph is built.
type Relationship struct {
	ID            string            `json:"id" toon:"id"`
	SourceID      string            `json:"source_id" toon:"source_id"`
	TargetID      string            `json:"target_id" toon:"target_id"`
	Kind          RelationshipKind  `json:"kind" toon:"kind"`
	Strength      float64           `json:"strength" toon:"strength"`
	Bidirectional bool              `json:"bidirectional,omitempty" toon:"bidirectional,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty" toon:"metadata,omitempty"`
}

// Ambiguous reports whether this relationship was one of several equally
// ranked resolution candidates.
func (r Relationship) Ambiguous() bool {
	return r.Metadata["ambiguous"] == "true"
}

// BoundaryType classifies a detected service boundary.
type BoundaryType string

const (
	BoundaryAPI            BoundaryType = "api"
	BoundaryData           BoundaryType = "data"
	BoundaryBusiness       BoundaryType = "business"
	BoundaryInfrastructure BoundaryType = "infrastructure"
	BoundaryUtility        BoundaryType = "utility"
)

// String returns the string representation.
func (t BoundaryType) String() string {
	return string(t)
}

// BoundaryTypePriority orders boundary types for deterministic tie-breaking:
// lower index wins.
var BoundaryTypePriority = []BoundaryType{
	BoundaryAPI,
	BoundaryData,
	BoundaryBusiness,
	BoundaryInfrastructure,
	BoundaryUtility,
}

// ServiceBoundary is a cluster of elements treated as one logical unit.
// Elements and Dependencies are sorted id sets.
type ServiceBoundary struct {
	ID           string       `json:"id" toon:"id"`
	Name         string       `json:"name" toon:"name"`
	Type         BoundaryType `json:"type" toon:"type"`
	Elements     []string     `json:"elements" toon:"elements"`
	Dependencies []string     `json:"dependencies,omitempty" toon:"dependencies,omitempty"`
	Cohesion     float64      `json:"cohesion" toon:"cohesion"`
	Coupling     float64      `json:"coupling" toon:"coupling"`
	Complexity   float64      `json:"complexity" toon:"complexity"`
}

// DiagnosticKind names the failure class a diagnostic reports.
type DiagnosticKind string

const (
	DiagFileAccess     DiagnosticKind = "file_access"
	DiagParse          DiagnosticKind = "parse"
	DiagUnsupported    DiagnosticKind = "unsupported_language"
	DiagSkipped        DiagnosticKind = "skipped"
	DiagGraphIntegrity DiagnosticKind = "graph_integrity"
	DiagHighCoupling   DiagnosticKind = "high_coupling"
	DiagCycle          DiagnosticKind = "circular_dependency"
)

// Diagnostic records a per-file or per-edge problem that was isolated
// rather than aborting the run.
type Diagnostic struct {
	Kind    DiagnosticKind `json:"kind" toon:"kind"`
	Path    string         `json:"path,omitempty" toon:"path,omitempty"`
	Message string         `json:"message" toon:"message"`
}

// GraphSummary carries aggregate graph metrics on the result.
type GraphSummary struct {
	TotalNodes int     `json:"total_nodes" toon:"total_nodes"`
	TotalEdges int     `json:"total_edges" toon:"total_edges"`
	Density    float64 `json:"density" toon:"density"`
	MaxDepth   int     `json:"max_depth" toon:"max_depth"`
	CycleCount int     `json:"cycle_count" toon:"cycle_count"`
}

// AnalysisResult aggregates one analysis run. Results are immutable: a new
// run (full or incremental) supersedes the previous result with a higher
// version, it never mutates it.
type AnalysisResult struct {
	Version       uint64            `json:"version" toon:"version"`
	Root          string            `json:"root,omitempty" toon:"root,omitempty"`
	Elements      []Element         `json:"elements" toon:"elements"`
	Relationships []Relationship    `json:"relationships" toon:"relationships"`
	Boundaries    []ServiceBoundary `json:"boundaries,omitempty" toon:"boundaries,omitempty"`
	CycleGroups   [][]string        `json:"cycle_groups,omitempty" toon:"cycle_groups,omitempty"`
	LanguageStats map[string]int    `json:"language_stats,omitempty" toon:"language_stats,omitempty"`
	FileDigests   map[string]string `json:"file_digests,omitempty" toon:"file_digests,omitempty"`
	Summary       GraphSummary      `json:"summary" toon:"summary"`
	Diagnostics   []Diagnostic      `json:"diagnostics,omitempty" toon:"diagnostics,omitempty"`
}

// ElementByID returns the element with the given id, or false.
func (r *AnalysisResult) ElementByID(id string) (Element, bool) {
	for _, e := range r.Elements {
		if e.ID == id {
			return e, true
		}
	}
	return Element{}, false
}

// RelationshipsFor returns all relationships touching the given element id.
func (r *AnalysisResult) RelationshipsFor(id string) []Relationship {
	var rels []Relationship
	for _, rel := range r.Relationships {
		if rel.SourceID == id || rel.TargetID == id {
			rels = append(rels, rel)
		}
	}
	return rels
}

// ElementsByKind returns all elements of the given kind.
func (r *AnalysisResult) ElementsByKind(kind ElementKind) []Element {
	var out []Element
	for _, e := range r.Elements {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// BoundaryByName returns the boundary with the given name, or false.
func (r *AnalysisResult) BoundaryByName(name string) (ServiceBoundary, bool) {
	for _, b := range r.Boundaries {
		if b.Name == name {
			return b, true
		}
	}
	return ServiceBoundary{}, false
}

// Label is an externally supplied annotation for one element. The engine
// merges labels into element metadata without touching core-owned fields.
type Label struct {
	Label       string  `json:"label" toon:"label"`
	Category    string  `json:"category,omitempty" toon:"category,omitempty"`
	Confidence  float64 `json:"confidence,omitempty" toon:"confidence,omitempty"`
	Description string  `json:"description,omitempty" toon:"description,omitempty"`
}

// AnalysisDiff describes what changed between two results.
type AnalysisDiff struct {
	FromVersion          uint64   `json:"from_version" toon:"from_version"`
	ToVersion            uint64   `json:"to_version" toon:"to_version"`
	AddedElements        []string `json:"added_elements,omitempty" toon:"added_elements,omitempty"`
	RemovedElements      []string `json:"removed_elements,omitempty" toon:"removed_elements,omitempty"`
	ChangedElements      []string `json:"changed_elements,omitempty" toon:"changed_elements,omitempty"`
	AddedRelationships   []string `json:"added_relationships,omitempty" toon:"added_relationships,omitempty"`
	RemovedRelationships []string `json:"removed_relationships,omitempty" toon:"removed_relationships,omitempty"`
}

// Empty reports whether the diff carries no changes.
func (d AnalysisDiff) Empty() bool {
	return len(d.AddedElements) == 0 &&
		len(d.RemovedElements) == 0 &&
		len(d.ChangedElements) == 0 &&
		len(d.AddedRelationships) == 0 &&
		len(d.RemovedRelationships) == 0
}
