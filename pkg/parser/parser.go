// Package parser wraps tree-sitter for multi-language parsing.
package parser

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/ruby"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// Language represents a supported programming language.
type Language string

const (
	LangGo         Language = "go"
	LangPython     Language = "python"
	LangJavaScript Language = "javascript"
	LangTypeScript Language = "typescript"
	LangTSX        Language = "tsx"
	LangRuby       Language = "ruby"
	LangJava       Language = "java"
	LangRust       Language = "rust"
	LangUnknown    Language = "unknown"
)

// DefaultExtensions maps file extensions to languages. A config-supplied map
// may extend or override these associations.
func DefaultExtensions() map[string]Language {
	return map[string]Language{
		".go":   LangGo,
		".py":   LangPython,
		".pyw":  LangPython,
		".pyi":  LangPython,
		".js":   LangJavaScript,
		".mjs":  LangJavaScript,
		".cjs":  LangJavaScript,
		".jsx":  LangTSX,
		".ts":   LangTypeScript,
		".tsx":  LangTSX,
		".rb":   LangRuby,
		".java": LangJava,
		".rs":   LangRust,
	}
}

// Valid reports whether lang names a language this build can parse.
func (l Language) Valid() bool {
	_, err := GetTreeSitterLanguage(l)
	return err == nil
}

// Parser wraps a tree-sitter parser. Not safe for concurrent use; create one
// parser per worker.
type Parser struct {
	parser     *sitter.Parser
	extensions map[string]Language
}

// ParseResult contains the parsed tree and its inputs.
type ParseResult struct {
	Tree     *sitter.Tree
	Language Language
	Source   []byte
	Path     string
}

// HasErrors reports whether the tree contains syntax errors. Extraction
// still proceeds over the recoverable parts.
func (r *ParseResult) HasErrors() bool {
	root := r.Tree.RootNode()
	return root == nil || root.HasError()
}

// Option configures a Parser.
type Option func(*Parser)

// WithExtensions overrides or extends the extension->language map.
func WithExtensions(exts map[string]Language) Option {
	return func(p *Parser) {
		for ext, lang := range exts {
			p.extensions[ext] = lang
		}
	}
}

// New creates a new parser instance.
func New(opts ...Option) *Parser {
	p := &Parser{
		parser:     sitter.NewParser(),
		extensions: DefaultExtensions(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Detect determines the language for a file path using the parser's
// extension map.
func (p *Parser) Detect(path string) Language {
	ext := strings.ToLower(filepath.Ext(path))
	if lang, ok := p.extensions[ext]; ok {
		return lang
	}
	return LangUnknown
}

// DetectLanguage determines the language from a file path using the default
// extension map.
func DetectLanguage(path string) Language {
	ext := strings.ToLower(filepath.Ext(path))
	if lang, ok := DefaultExtensions()[ext]; ok {
		return lang
	}
	return LangUnknown
}

// Parse parses source code with a specified language.
func (p *Parser) Parse(source []byte, lang Language, path string) (*ParseResult, error) {
	tsLang, err := GetTreeSitterLanguage(lang)
	if err != nil {
		return nil, err
	}

	p.parser.SetLanguage(tsLang)
	tree, err := p.parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return &ParseResult{
		Tree:     tree,
		Language: lang,
		Source:   source,
		Path:     path,
	}, nil
}

// GetTreeSitterLanguage returns the tree-sitter grammar for a Language.
func GetTreeSitterLanguage(lang Language) (*sitter.Language, error) {
	switch lang {
	case LangGo:
		return golang.GetLanguage(), nil
	case LangPython:
		return python.GetLanguage(), nil
	case LangJavaScript:
		return javascript.GetLanguage(), nil
	case LangTypeScript:
		return typescript.GetLanguage(), nil
	case LangTSX:
		return tsx.GetLanguage(), nil
	case LangRuby:
		return ruby.GetLanguage(), nil
	case LangJava:
		return java.GetLanguage(), nil
	case LangRust:
		return rust.GetLanguage(), nil
	default:
		return nil, fmt.Errorf("unsupported language: %s", lang)
	}
}

// Close releases parser resources.
func (p *Parser) Close() {
	p.parser.Close()
}

// NodeVisitor is a function that visits AST nodes. Returning false stops
// descent into the node's children.
type NodeVisitor func(node *sitter.Node, source []byte) bool

// Walk traverses the AST calling visitor for each node.
func Walk(node *sitter.Node, source []byte, visitor NodeVisitor) {
	if node == nil {
		return
	}

	if !visitor(node, source) {
		return
	}

	for i := range int(node.ChildCount()) {
		Walk(node.Child(i), source, visitor)
	}
}

// FindNodesByType returns all nodes of a specific type.
func FindNodesByType(root *sitter.Node, source []byte, nodeType string) []*sitter.Node {
	var results []*sitter.Node
	Walk(root, source, func(node *sitter.Node, _ []byte) bool {
		if node.Type() == nodeType {
			results = append(results, node)
		}
		return true
	})
	return results
}

// GetNodeText extracts the source text for a node.
// Returns empty string if node is nil or byte offsets are out of bounds.
func GetNodeText(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	start := node.StartByte()
	end := node.EndByte()
	if start > end || end > uint32(len(source)) {
		return ""
	}
	return string(source[start:end])
}
