package extract

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/arcgraph/arcgraph/pkg/models"
	"github.com/arcgraph/arcgraph/pkg/parser"
)

var jsCallTypes = []string{"call_expression"}

// extractJS walks a JavaScript, TypeScript, or TSX file. Modules are files;
// classes carry extends/implements references; arrow functions bound to
// top-level declarations count as functions.
func extractJS(fc *fileContext, result *parser.ParseResult) {
	root := result.Tree.RootNode()
	fc.module = moduleFromPath(fc.path)

	modIdx := fc.add(fc.newElement(models.KindModule, fc.module, root, ""))
	modID := fc.elements[modIdx].ID

	jsWalk(fc, root, modIdx, modID)
}

func jsWalk(fc *fileContext, scope *sitter.Node, modIdx int, parentID string) {
	parser.Walk(scope, fc.source, func(node *sitter.Node, src []byte) bool {
		switch node.Type() {
		case "import_statement":
			if srcNode := node.ChildByFieldName("source"); srcNode != nil {
				fc.ref(modIdx, models.RefImport, stripQuotes(parser.GetNodeText(srcNode, src)))
			}
			return false

		case "class_declaration", "class":
			jsExtractClass(fc, node, modIdx, parentID)
			return false

		case "function_declaration", "generator_function_declaration":
			jsExtractFunction(fc, node, parentID, models.KindFunction)
			return false

		case "lexical_declaration", "variable_declaration":
			for i := range int(node.ChildCount()) {
				decl := node.Child(i)
				if decl.Type() != "variable_declarator" {
					continue
				}
				nameNode := decl.ChildByFieldName("name")
				value := decl.ChildByFieldName("value")
				if nameNode == nil {
					continue
				}
				name := parser.GetNodeText(nameNode, src)
				if value != nil && (value.Type() == "arrow_function" || value.Type() == "function_expression" || value.Type() == "function") {
					el := fc.newElement(models.KindFunction, name, decl, parentID)
					idx := fc.add(el)
					for _, call := range callTargets(value, src, jsCallTypes, []string{"function"}) {
						fc.ref(idx, models.RefCall, call)
					}
				} else {
					fc.add(fc.newElement(models.KindVariable, name, decl, parentID))
				}
			}
			return false

		case "interface_declaration":
			if nameNode := node.ChildByFieldName("name"); nameNode != nil {
				name := parser.GetNodeText(nameNode, src)
				idx := fc.add(fc.newElement(models.KindInterface, name, node, parentID))
				for _, base := range jsHeritageNames(node, src, "extends_type_clause") {
					fc.ref(idx, models.RefBase, base)
				}
			}
			return false

		case "enum_declaration":
			if nameNode := node.ChildByFieldName("name"); nameNode != nil {
				fc.add(fc.newElement(models.KindEnum, parser.GetNodeText(nameNode, src), node, parentID))
			}
			return false
		}
		return true
	})
}

func jsExtractClass(fc *fileContext, node *sitter.Node, modIdx int, parentID string) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := parser.GetNodeText(nameNode, fc.source)

	el := fc.newElement(models.KindClass, name, node, parentID)
	idx := fc.add(el)
	classID := fc.elements[idx].ID

	// extends / implements live under the class_heritage child.
	for i := range int(node.ChildCount()) {
		child := node.Child(i)
		if child.Type() != "class_heritage" && child.Type() != "extends_clause" {
			continue
		}
		for _, base := range jsHeritageNames(child, fc.source, "extends_clause") {
			fc.ref(idx, models.RefBase, base)
		}
		for _, iface := range jsHeritageNames(child, fc.source, "implements_clause") {
			fc.ref(idx, models.RefInterface, iface)
		}
		if child.Type() == "extends_clause" {
			// Plain JS grammar: the expression children are the bases.
			for j := range int(child.ChildCount()) {
				sub := child.Child(j)
				if sub.Type() == "identifier" || sub.Type() == "member_expression" {
					fc.ref(idx, models.RefBase, parser.GetNodeText(sub, fc.source))
				}
			}
		}
	}

	if body := node.ChildByFieldName("body"); body != nil {
		for i := range int(body.ChildCount()) {
			member := body.Child(i)
			if member.Type() == "method_definition" {
				jsExtractMethod(fc, member, classID)
			}
		}
	}
}

// jsHeritageNames collects type identifiers under a named clause child.
func jsHeritageNames(node *sitter.Node, src []byte, clauseType string) []string {
	var names []string
	for i := range int(node.ChildCount()) {
		clause := node.Child(i)
		if clause.Type() != clauseType {
			continue
		}
		for j := range int(clause.ChildCount()) {
			sub := clause.Child(j)
			switch sub.Type() {
			case "identifier", "type_identifier", "member_expression", "nested_type_identifier", "generic_type":
				names = append(names, parser.GetNodeText(sub, src))
			}
		}
	}
	return names
}

func jsExtractMethod(fc *fileContext, node *sitter.Node, classID string) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := parser.GetNodeText(nameNode, fc.source)

	el := fc.newElement(models.KindMethod, name, node, classID)
	idx := fc.add(el)
	for _, call := range callTargets(node.ChildByFieldName("body"), fc.source, jsCallTypes, []string{"function"}) {
		fc.ref(idx, models.RefCall, call)
	}
}

func jsExtractFunction(fc *fileContext, node *sitter.Node, parentID string, kind models.ElementKind) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := parser.GetNodeText(nameNode, fc.source)

	el := fc.newElement(kind, name, node, parentID)
	idx := fc.add(el)
	for _, call := range callTargets(node.ChildByFieldName("body"), fc.source, jsCallTypes, []string{"function"}) {
		fc.ref(idx, models.RefCall, call)
	}
}
