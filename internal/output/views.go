package output

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/arcgraph/arcgraph/pkg/models"
)

// Summary renders the headline view of one analysis run: totals, per-language
// element counts, diagnostics, and elapsed wall time. JSON and TOON formats
// serialize the full result instead.
type Summary struct {
	Result  *models.AnalysisResult
	Elapsed time.Duration
}

func (s *Summary) RenderData() any {
	return s.Result
}

func (s *Summary) RenderText(w io.Writer, colored bool) error {
	r := s.Result
	if colored {
		color.New(color.Bold, color.FgCyan).Fprintln(w, "Architecture Analysis")
	} else {
		fmt.Fprintln(w, "Architecture Analysis")
	}
	fmt.Fprintf(w, "  Root: %s\n", r.Root)
	fmt.Fprintf(w, "  Elements: %d, Relationships: %d\n", len(r.Elements), len(r.Relationships))
	fmt.Fprintf(w, "  Boundaries: %d, Cycles: %d\n", len(r.Boundaries), r.Summary.CycleCount)
	fmt.Fprintf(w, "  Graph density: %.4f, max depth: %d\n", r.Summary.Density, r.Summary.MaxDepth)

	if len(r.LanguageStats) > 0 {
		fmt.Fprintln(w, "\nLanguages:")
		for _, lang := range sortedKeys(r.LanguageStats) {
			fmt.Fprintf(w, "  %s: %d elements\n", lang, r.LanguageStats[lang])
		}
	}

	if len(r.Diagnostics) > 0 {
		fmt.Fprintln(w)
		header := fmt.Sprintf("Diagnostics (%d):", len(r.Diagnostics))
		if colored {
			color.New(color.FgYellow).Fprintln(w, header)
		} else {
			fmt.Fprintln(w, header)
		}
		for _, d := range r.Diagnostics {
			fmt.Fprintf(w, "  [%s] %s\n", d.Kind, diagnosticLine(d))
		}
	}

	if s.Elapsed > 0 {
		fmt.Fprintf(w, "\nCompleted in %s\n", s.Elapsed.Round(time.Millisecond))
	}
	return nil
}

func (s *Summary) RenderMarkdown(w io.Writer) error {
	r := s.Result
	fmt.Fprintln(w, "# Architecture Analysis")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "- **Root**: %s\n", r.Root)
	fmt.Fprintf(w, "- **Elements**: %d\n", len(r.Elements))
	fmt.Fprintf(w, "- **Relationships**: %d\n", len(r.Relationships))
	fmt.Fprintf(w, "- **Boundaries**: %d\n", len(r.Boundaries))
	fmt.Fprintf(w, "- **Cycles**: %d\n", r.Summary.CycleCount)
	fmt.Fprintf(w, "- **Graph density**: %.4f, max depth %d\n", r.Summary.Density, r.Summary.MaxDepth)

	if len(r.LanguageStats) > 0 {
		fmt.Fprintln(w, "\n## Languages")
		fmt.Fprintln(w)
		for _, lang := range sortedKeys(r.LanguageStats) {
			fmt.Fprintf(w, "- %s: %d elements\n", lang, r.LanguageStats[lang])
		}
	}

	if len(r.Diagnostics) > 0 {
		fmt.Fprintln(w, "\n## Diagnostics")
		fmt.Fprintln(w)
		for _, d := range r.Diagnostics {
			fmt.Fprintf(w, "- `%s` %s\n", d.Kind, diagnosticLine(d))
		}
	}
	fmt.Fprintln(w)
	return nil
}

// CycleList renders circular dependency groups as qualified-name chains.
type CycleList struct {
	Result *models.AnalysisResult
}

func (c *CycleList) RenderData() any {
	return c.Result.CycleGroups
}

func (c *CycleList) RenderText(w io.Writer, colored bool) error {
	groups := c.Result.CycleGroups
	if len(groups) == 0 {
		if colored {
			color.New(color.FgGreen).Fprintln(w, "No dependency cycles found")
		} else {
			fmt.Fprintln(w, "No dependency cycles found")
		}
		return nil
	}

	header := fmt.Sprintf("Dependency cycles (%d):", len(groups))
	if colored {
		color.New(color.FgYellow).Fprintln(w, header)
	} else {
		fmt.Fprintln(w, header)
	}
	for i, group := range groups {
		fmt.Fprintf(w, "  %d. %s\n", i+1, strings.Join(c.names(group), " -> "))
	}
	return nil
}

func (c *CycleList) RenderMarkdown(w io.Writer) error {
	groups := c.Result.CycleGroups
	fmt.Fprintln(w, "## Dependency Cycles")
	fmt.Fprintln(w)
	if len(groups) == 0 {
		fmt.Fprintln(w, "No dependency cycles found.")
		fmt.Fprintln(w)
		return nil
	}
	for i, group := range groups {
		fmt.Fprintf(w, "%d. %s\n", i+1, strings.Join(c.names(group), " -> "))
	}
	fmt.Fprintln(w)
	return nil
}

func (c *CycleList) names(group []string) []string {
	names := make([]string, 0, len(group))
	for _, id := range group {
		if el, ok := c.Result.ElementByID(id); ok {
			names = append(names, el.QualifiedName())
		} else {
			names = append(names, id)
		}
	}
	return names
}

func diagnosticLine(d models.Diagnostic) string {
	if d.Path != "" {
		return d.Path + ": " + d.Message
	}
	return d.Message
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
