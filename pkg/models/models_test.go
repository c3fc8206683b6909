package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testResult() *AnalysisResult {
	return &AnalysisResult{
		Elements: []Element{
			{ID: "e1", Name: "Store", Kind: KindStruct, Module: "store"},
			{ID: "e2", Name: "Get", Kind: KindMethod, Module: "store"},
			{ID: "e3", Name: "helper", Kind: KindFunction},
			{ID: "x1", Name: "net/http", Kind: KindImport, Metadata: map[string]string{"external": "true"}},
		},
		Relationships: []Relationship{
			{ID: "r1", SourceID: "e1", TargetID: "e2", Kind: RelContains, Strength: 1.0},
			{ID: "r2", SourceID: "e2", TargetID: "e3", Kind: RelCalls, Strength: 0.8},
			{ID: "r3", SourceID: "e3", TargetID: "x1", Kind: RelImports, Strength: 0.3},
		},
		Boundaries: []ServiceBoundary{
			{ID: "b1", Name: "store", Type: BoundaryData, Elements: []string{"e1", "e2"}},
		},
	}
}

func TestQualifiedName(t *testing.T) {
	assert.Equal(t, "store.Get", Element{Name: "Get", Module: "store"}.QualifiedName())
	assert.Equal(t, "helper", Element{Name: "helper"}.QualifiedName())
}

func TestExternal(t *testing.T) {
	assert.False(t, Element{}.External())
	assert.True(t, Element{Metadata: map[string]string{"external": "true"}}.External())
}

func TestAmbiguous(t *testing.T) {
	assert.False(t, Relationship{}.Ambiguous())
	assert.True(t, Relationship{Metadata: map[string]string{"ambiguous": "true"}}.Ambiguous())
}

func TestElementByID(t *testing.T) {
	r := testResult()

	el, ok := r.ElementByID("e2")
	assert.True(t, ok)
	assert.Equal(t, "Get", el.Name)

	_, ok = r.ElementByID("missing")
	assert.False(t, ok)
}

func TestRelationshipsFor(t *testing.T) {
	r := testResult()

	rels := r.RelationshipsFor("e2")
	assert.Len(t, rels, 2)

	assert.Empty(t, r.RelationshipsFor("missing"))
}

func TestElementsByKind(t *testing.T) {
	r := testResult()

	methods := r.ElementsByKind(KindMethod)
	assert.Len(t, methods, 1)
	assert.Equal(t, "Get", methods[0].Name)

	assert.Empty(t, r.ElementsByKind(KindEnum))
}

func TestBoundaryByName(t *testing.T) {
	r := testResult()

	b, ok := r.BoundaryByName("store")
	assert.True(t, ok)
	assert.Equal(t, BoundaryData, b.Type)

	_, ok = r.BoundaryByName("missing")
	assert.False(t, ok)
}
