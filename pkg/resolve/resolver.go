// Package resolve links raw symbolic references recorded by extraction into
// typed relationships between elements. Resolution is rank-based: an exact
// qualified-name match beats a same-module name match, which beats a bare
// last-segment match. Ties at the winning rank are kept as ambiguous edges
// with the confidence split across candidates.
package resolve

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/arcgraph/arcgraph/pkg/extract"
	"github.com/arcgraph/arcgraph/pkg/models"
)

// Resolution confidence per match rank.
const (
	StrengthExact      = 1.0
	StrengthSameModule = 0.8
	StrengthLastName   = 0.5
	StrengthExternal   = 0.3
)

// Resolution is the output of one resolver pass: the derived relationships
// plus synthetic stub elements for symbols that resolved outside the tree.
type Resolution struct {
	Relationships []models.Relationship
	Externals     []models.Element
}

// Resolver holds the symbol tables for one element set. Build it once per
// run; the tables are read-only after New.
type Resolver struct {
	elements    []models.Element
	indexByID   map[string]int
	byQualified map[string][]int
	byName      map[string][]int
}

// New indexes the given elements. Synthetic external stubs from a previous
// pass must not be included.
func New(elements []models.Element) *Resolver {
	r := &Resolver{
		elements:    elements,
		indexByID:   make(map[string]int, len(elements)),
		byQualified: make(map[string][]int),
		byName:      make(map[string][]int),
	}
	for i, el := range elements {
		r.indexByID[el.ID] = i
		r.byQualified[el.QualifiedName()] = append(r.byQualified[el.QualifiedName()], i)
		r.byName[el.Name] = append(r.byName[el.Name], i)
	}
	return r
}

// ResolveAll resolves every indexed element's references and derives the
// containment edges from parent links.
func (r *Resolver) ResolveAll() Resolution {
	ids := make(map[string]bool, len(r.elements))
	for _, el := range r.elements {
		ids[el.ID] = true
	}
	return r.ResolveFor(ids)
}

// ResolveFor resolves references for the elements whose ids appear in
// sourceIDs. Containment edges are derived for the same subset. Incremental
// runs use this to re-resolve only the elements a change can affect.
func (r *Resolver) ResolveFor(sourceIDs map[string]bool) Resolution {
	var res Resolution
	seen := make(map[string]bool)
	externals := make(map[string]models.Element)

	for _, el := range r.elements {
		if !sourceIDs[el.ID] {
			continue
		}
		if el.ParentID != "" {
			r.emit(&res, seen, models.Relationship{
				SourceID: el.ParentID,
				TargetID: el.ID,
				Kind:     models.RelContains,
				Strength: 1.0,
			})
		}
		for _, ref := range el.References {
			r.resolveRef(&res, seen, externals, el, ref)
		}
	}

	for _, ext := range externals {
		res.Externals = append(res.Externals, ext)
	}
	sort.Slice(res.Externals, func(i, j int) bool {
		return res.Externals[i].ID < res.Externals[j].ID
	})
	sort.Slice(res.Relationships, func(i, j int) bool {
		a, b := res.Relationships[i], res.Relationships[j]
		if a.SourceID != b.SourceID {
			return a.SourceID < b.SourceID
		}
		if a.TargetID != b.TargetID {
			return a.TargetID < b.TargetID
		}
		return a.Kind < b.Kind
	})
	return res
}

// resolveRef ranks candidates for one reference and emits the winning edges.
func (r *Resolver) resolveRef(res *Resolution, seen map[string]bool, externals map[string]models.Element, el models.Element, ref models.Reference) {
	kind := relationshipKind(ref.Kind)
	name := ref.Name

	candidates, strength := r.candidates(el, name)
	if len(candidates) == 0 {
		if !stubWorthy(ref.Kind) {
			return
		}
		ext := externalStub(name)
		externals[ext.ID] = ext
		r.emit(res, seen, models.Relationship{
			SourceID: el.ID,
			TargetID: ext.ID,
			Kind:     kind,
			Strength: StrengthExternal,
		})
		return
	}

	split := strength / float64(len(candidates))
	for _, ci := range candidates {
		target := r.elements[ci]
		if target.ID == el.ID {
			continue
		}
		rel := models.Relationship{
			SourceID: el.ID,
			TargetID: target.ID,
			Kind:     kind,
			Strength: split,
		}
		if len(candidates) > 1 {
			rel.Metadata = map[string]string{
				"ambiguous":  "true",
				"candidates": strconv.Itoa(len(candidates)),
			}
		}
		r.emit(res, seen, rel)
	}
}

// candidates returns the best-ranked candidate indices for a referenced name
// together with the rank's base confidence.
func (r *Resolver) candidates(from models.Element, name string) ([]int, float64) {
	if m := r.byQualified[name]; len(m) > 0 {
		return m, StrengthExact
	}

	if m := r.byName[name]; len(m) > 0 {
		var sameModule []int
		for _, i := range m {
			if r.elements[i].Module == from.Module {
				sameModule = append(sameModule, i)
			}
		}
		if len(sameModule) > 0 {
			return sameModule, StrengthSameModule
		}
	}

	last := name
	if i := strings.LastIndexAny(name, "./:"); i >= 0 {
		last = name[i+1:]
	}
	if m := r.byName[last]; len(m) > 0 {
		return m, StrengthLastName
	}
	return nil, 0
}

func (r *Resolver) emit(res *Resolution, seen map[string]bool, rel models.Relationship) {
	if rel.SourceID == rel.TargetID {
		return
	}
	rel.ID = RelationshipID(rel.SourceID, rel.TargetID, rel.Kind)
	if seen[rel.ID] {
		return
	}
	seen[rel.ID] = true
	res.Relationships = append(res.Relationships, rel)
}

// RelationshipID derives a stable relationship id from its endpoints and
// kind.
func RelationshipID(sourceID, targetID string, kind models.RelationshipKind) string {
	h := xxhash.New()
	fmt.Fprintf(h, "%s|%s|%s", sourceID, targetID, kind)
	return fmt.Sprintf("%016x", h.Sum64())
}

// externalStub builds the synthetic element standing in for a symbol defined
// outside the analyzed tree.
func externalStub(name string) models.Element {
	return models.Element{
		ID:       extract.ExternalID(name),
		Name:     name,
		Kind:     models.KindImport,
		Language: "external",
		Metadata: map[string]string{"external": "true"},
	}
}

// stubWorthy reports whether an unresolved reference of this kind should
// materialize an external stub. Unresolved calls and uses are dropped: most
// are builtins or locals and would flood the graph with noise.
func stubWorthy(kind models.RefKind) bool {
	switch kind {
	case models.RefImport, models.RefBase, models.RefInterface:
		return true
	}
	return false
}

func relationshipKind(kind models.RefKind) models.RelationshipKind {
	switch kind {
	case models.RefImport:
		return models.RelImports
	case models.RefBase:
		return models.RelInherits
	case models.RefInterface:
		return models.RelImplements
	case models.RefCall:
		return models.RelCalls
	default:
		return models.RelUses
	}
}
