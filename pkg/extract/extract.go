// Package extract turns source files into canonical elements with raw,
// unresolved references. One extractor pass per file; the output is never a
// resolved graph.
package extract

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/cespare/xxhash/v2"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/zeebo/blake3"

	"github.com/arcgraph/arcgraph/pkg/models"
	"github.com/arcgraph/arcgraph/pkg/parser"
)

// FileResult is the outcome of extracting one file. Elements are ordered as
// encountered in source. Diagnostics record recoverable problems; a file
// that fails entirely still yields a result with diagnostics.
type FileResult struct {
	Path        string
	Language    parser.Language
	Digest      string
	Elements    []models.Element
	Diagnostics []models.Diagnostic
}

// Extractor extracts elements from source files. Not safe for concurrent
// use; create one per worker (see internal/fileproc).
type Extractor struct {
	parser *parser.Parser
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithExtensions overrides the extension->language map.
func WithExtensions(exts map[string]parser.Language) Option {
	return func(e *Extractor) {
		e.parser = parser.New(parser.WithExtensions(exts))
	}
}

// New creates an extractor.
func New(opts ...Option) *Extractor {
	e := &Extractor{parser: parser.New()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Close releases parser resources.
func (e *Extractor) Close() {
	e.parser.Close()
}

// Detect returns the language the extractor would use for path.
func (e *Extractor) Detect(path string) parser.Language {
	return e.parser.Detect(path)
}

// ExtractFile extracts elements from one file's content. Unsupported
// extensions yield an empty result with a diagnostic, not an error.
// Malformed syntax degrades to the largest recoverable structural unit.
func (e *Extractor) ExtractFile(path string, content []byte) FileResult {
	res := FileResult{
		Path:   path,
		Digest: Digest(content),
	}

	lang := e.parser.Detect(path)
	if lang == parser.LangUnknown {
		res.Diagnostics = append(res.Diagnostics, models.Diagnostic{
			Kind:    models.DiagUnsupported,
			Path:    path,
			Message: fmt.Sprintf("no extractor for extension %q", filepath.Ext(path)),
		})
		return res
	}
	res.Language = lang

	parsed, err := e.parser.Parse(content, lang, path)
	if err != nil {
		res.Diagnostics = append(res.Diagnostics, models.Diagnostic{
			Kind:    models.DiagParse,
			Path:    path,
			Message: err.Error(),
		})
		return res
	}
	if parsed.HasErrors() {
		res.Diagnostics = append(res.Diagnostics, models.Diagnostic{
			Kind:    models.DiagParse,
			Path:    path,
			Message: "syntax errors; extracted recoverable structure only",
		})
	}

	fc := &fileContext{
		path:   path,
		lang:   lang,
		source: parsed.Source,
	}

	switch lang {
	case parser.LangGo:
		extractGo(fc, parsed)
	case parser.LangPython:
		extractPython(fc, parsed)
	case parser.LangJavaScript, parser.LangTypeScript, parser.LangTSX:
		extractJS(fc, parsed)
	case parser.LangRuby:
		extractRuby(fc, parsed)
	case parser.LangJava:
		extractJava(fc, parsed)
	case parser.LangRust:
		extractRust(fc, parsed)
	}

	res.Elements = fc.elements
	return res
}

// fileContext accumulates elements while walking one file's tree.
type fileContext struct {
	path     string
	lang     parser.Language
	source   []byte
	module   string
	elements []models.Element
}

// add records an element and returns its index for later reference
// attachment.
func (fc *fileContext) add(el models.Element) int {
	fc.elements = append(fc.elements, el)
	return len(fc.elements) - 1
}

// ref appends a raw reference to the element at index i.
func (fc *fileContext) ref(i int, kind models.RefKind, name string) {
	if name == "" || i < 0 {
		return
	}
	fc.elements[i].References = append(fc.elements[i].References, models.Reference{
		Kind: kind,
		Name: name,
	})
}

// newElement builds an element spanning the given node. The id is a stable
// digest of (path, kind, qualified name, start line), so repeated runs over
// an unchanged tree produce identical ids.
func (fc *fileContext) newElement(kind models.ElementKind, name string, node *sitter.Node, parentID string) models.Element {
	var start, end uint32
	if node != nil {
		start = node.StartPoint().Row + 1
		end = node.EndPoint().Row + 1
	}
	qualified := name
	if fc.module != "" {
		qualified = fc.module + "." + name
	}
	return models.Element{
		ID:        ElementID(fc.path, kind, qualified, start),
		Name:      name,
		Kind:      kind,
		Language:  string(fc.lang),
		File:      fc.path,
		StartLine: start,
		EndLine:   end,
		Module:    fc.module,
		ParentID:  parentID,
	}
}

// ElementID derives a stable element id from its identity fields.
func ElementID(path string, kind models.ElementKind, qualifiedName string, line uint32) string {
	h := xxhash.New()
	fmt.Fprintf(h, "%s|%s|%s|%d", path, kind, qualifiedName, line)
	return fmt.Sprintf("%016x", h.Sum64())
}

// ExternalID derives the stable id of a synthetic external stub element.
func ExternalID(name string) string {
	return fmt.Sprintf("ext-%016x", xxhash.Sum64String(name))
}

// Digest returns the blake3 content digest used for change detection.
func Digest(content []byte) string {
	sum := blake3.Sum256(content)
	return fmt.Sprintf("%x", sum[:])
}

// moduleFromPath derives a module name from the file path stem.
func moduleFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// visibilityFromName applies the uppercase-initial convention used by Go and
// mirrored loosely elsewhere: underscore prefix means private in Python.
func visibilityFromName(name string) string {
	if name == "" {
		return ""
	}
	if strings.HasPrefix(name, "_") {
		return "private"
	}
	if name[0] >= 'A' && name[0] <= 'Z' {
		return "public"
	}
	return ""
}

// callTargets collects call-expression targets within a node subtree.
// Dotted targets keep their qualifier; the resolver decides how to use it.
func callTargets(body *sitter.Node, source []byte, callTypes []string, fieldNames []string) []string {
	if body == nil {
		return nil
	}

	var calls []string
	seen := make(map[string]bool)
	parser.Walk(body, source, func(node *sitter.Node, src []byte) bool {
		nodeType := node.Type()
		for _, ct := range callTypes {
			if nodeType != ct {
				continue
			}
			for _, field := range fieldNames {
				if fn := node.ChildByFieldName(field); fn != nil {
					name := parser.GetNodeText(fn, src)
					if name != "" && !seen[name] {
						seen[name] = true
						calls = append(calls, name)
					}
					break
				}
			}
		}
		return true
	})
	return calls
}

// stripQuotes removes surrounding string delimiters from an import path.
func stripQuotes(s string) string {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') || (first == '`' && last == '`') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
