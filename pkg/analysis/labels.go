package analysis

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/arcgraph/arcgraph/pkg/models"
)

// ApplyLabels merges externally supplied labels into element metadata and
// returns a new result. The input result is never mutated; elements that
// receive labels are copied first. Labels for unknown element ids are
// reported back.
func ApplyLabels(result *models.AnalysisResult, labels map[string][]models.Label) (*models.AnalysisResult, []string) {
	if len(labels) == 0 {
		return result, nil
	}

	out := *result
	out.Elements = append([]models.Element(nil), result.Elements...)

	applied := make(map[string]bool, len(labels))
	for i, el := range out.Elements {
		els, ok := labels[el.ID]
		if !ok {
			continue
		}
		applied[el.ID] = true

		meta := make(map[string]string, len(el.Metadata)+len(els)*2)
		for k, v := range el.Metadata {
			meta[k] = v
		}
		for j, l := range els {
			key := fmt.Sprintf("label.%d", j)
			meta[key] = l.Label
			if l.Category != "" {
				meta[key+".category"] = l.Category
			}
			if l.Confidence > 0 {
				meta[key+".confidence"] = strconv.FormatFloat(l.Confidence, 'f', 2, 64)
			}
			if l.Description != "" {
				meta[key+".description"] = l.Description
			}
		}
		out.Elements[i].Metadata = meta
	}

	var unknown []string
	for id := range labels {
		if !applied[id] {
			unknown = append(unknown, id)
		}
	}
	sort.Strings(unknown)
	return &out, unknown
}
