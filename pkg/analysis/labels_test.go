package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcgraph/arcgraph/pkg/models"
)

func TestApplyLabels(t *testing.T) {
	res := result(1, []models.Element{
		{ID: "a", Name: "Handler", Metadata: map[string]string{"receiver": "T"}},
		{ID: "b", Name: "Repo"},
	}, nil)

	labeled, unknown := ApplyLabels(res, map[string][]models.Label{
		"a": {{Label: "entrypoint", Category: "api", Confidence: 0.9, Description: "handles requests"}},
	})

	require.Empty(t, unknown)
	require.NotSame(t, res, labeled)

	el := labeled.Elements[0]
	assert.Equal(t, "entrypoint", el.Metadata["label.0"])
	assert.Equal(t, "api", el.Metadata["label.0.category"])
	assert.Equal(t, "0.90", el.Metadata["label.0.confidence"])
	assert.Equal(t, "handles requests", el.Metadata["label.0.description"])

	// Core-owned metadata survives.
	assert.Equal(t, "T", el.Metadata["receiver"])

	// The input result is untouched.
	assert.NotContains(t, res.Elements[0].Metadata, "label.0")
}

func TestApplyLabelsMultiple(t *testing.T) {
	res := result(1, []models.Element{{ID: "a"}}, nil)

	labeled, _ := ApplyLabels(res, map[string][]models.Label{
		"a": {{Label: "first"}, {Label: "second"}},
	})

	assert.Equal(t, "first", labeled.Elements[0].Metadata["label.0"])
	assert.Equal(t, "second", labeled.Elements[0].Metadata["label.1"])
}

func TestApplyLabelsUnknownIDs(t *testing.T) {
	res := result(1, []models.Element{{ID: "a"}}, nil)

	labeled, unknown := ApplyLabels(res, map[string][]models.Label{
		"ghost": {{Label: "x"}},
		"a":     {{Label: "y"}},
		"phantom": {{
			Label: "z",
		}},
	})

	assert.Equal(t, []string{"ghost", "phantom"}, unknown)
	assert.Equal(t, "y", labeled.Elements[0].Metadata["label.0"])
}

func TestApplyLabelsNoLabels(t *testing.T) {
	res := result(1, []models.Element{{ID: "a"}}, nil)

	labeled, unknown := ApplyLabels(res, nil)
	assert.Same(t, res, labeled)
	assert.Empty(t, unknown)
}
