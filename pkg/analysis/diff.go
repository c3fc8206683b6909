package analysis

import (
	"sort"

	"github.com/arcgraph/arcgraph/pkg/models"
)

// Diff compares two results by element and relationship id. An element with
// a surviving id counts as changed when any of its recorded fields moved.
func Diff(prev, cur *models.AnalysisResult) *models.AnalysisDiff {
	diff := &models.AnalysisDiff{
		FromVersion: prev.Version,
		ToVersion:   cur.Version,
	}

	prevEls := make(map[string]models.Element, len(prev.Elements))
	for _, el := range prev.Elements {
		prevEls[el.ID] = el
	}
	curEls := make(map[string]models.Element, len(cur.Elements))
	for _, el := range cur.Elements {
		curEls[el.ID] = el
	}

	for id, el := range curEls {
		old, ok := prevEls[id]
		if !ok {
			diff.AddedElements = append(diff.AddedElements, id)
			continue
		}
		if elementChanged(old, el) {
			diff.ChangedElements = append(diff.ChangedElements, id)
		}
	}
	for id := range prevEls {
		if _, ok := curEls[id]; !ok {
			diff.RemovedElements = append(diff.RemovedElements, id)
		}
	}

	prevRels := make(map[string]bool, len(prev.Relationships))
	for _, rel := range prev.Relationships {
		prevRels[rel.ID] = true
	}
	curRels := make(map[string]bool, len(cur.Relationships))
	for _, rel := range cur.Relationships {
		curRels[rel.ID] = true
	}
	for id := range curRels {
		if !prevRels[id] {
			diff.AddedRelationships = append(diff.AddedRelationships, id)
		}
	}
	for id := range prevRels {
		if !curRels[id] {
			diff.RemovedRelationships = append(diff.RemovedRelationships, id)
		}
	}

	sort.Strings(diff.AddedElements)
	sort.Strings(diff.RemovedElements)
	sort.Strings(diff.ChangedElements)
	sort.Strings(diff.AddedRelationships)
	sort.Strings(diff.RemovedRelationships)
	return diff
}

func elementChanged(a, b models.Element) bool {
	if a.Name != b.Name || a.Kind != b.Kind || a.EndLine != b.EndLine ||
		a.Visibility != b.Visibility || a.ParentID != b.ParentID ||
		len(a.References) != len(b.References) {
		return true
	}
	for i := range a.References {
		if a.References[i] != b.References[i] {
			return true
		}
	}
	return false
}
