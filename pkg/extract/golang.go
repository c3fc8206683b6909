package extract

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/arcgraph/arcgraph/pkg/models"
	"github.com/arcgraph/arcgraph/pkg/parser"
)

var goCallTypes = []string{"call_expression"}

// extractGo walks a Go file: one package element, then type, function,
// method, and top-level variable declarations.
func extractGo(fc *fileContext, result *parser.ParseResult) {
	root := result.Tree.RootNode()

	pkgName := moduleFromPath(fc.path)
	if clauses := parser.FindNodesByType(root, fc.source, "package_clause"); len(clauses) > 0 {
		if nameNode := clauses[0].ChildByFieldName("name"); nameNode != nil {
			pkgName = parser.GetNodeText(nameNode, fc.source)
		} else {
			// Older grammars expose the identifier as a plain child.
			for i := range int(clauses[0].ChildCount()) {
				child := clauses[0].Child(i)
				if child.Type() == "package_identifier" {
					pkgName = parser.GetNodeText(child, fc.source)
					break
				}
			}
		}
	}
	fc.module = pkgName

	pkgIdx := fc.add(fc.newElement(models.KindPackage, pkgName, root, ""))
	pkgID := fc.elements[pkgIdx].ID

	parser.Walk(root, fc.source, func(node *sitter.Node, src []byte) bool {
		switch node.Type() {
		case "import_spec":
			if pathNode := node.ChildByFieldName("path"); pathNode != nil {
				fc.ref(pkgIdx, models.RefImport, stripQuotes(parser.GetNodeText(pathNode, src)))
			}
			return false

		case "type_declaration":
			for i := range int(node.ChildCount()) {
				spec := node.Child(i)
				if spec.Type() == "type_spec" {
					extractGoTypeSpec(fc, spec, src, pkgID)
				}
			}
			return false

		case "function_declaration":
			extractGoFunc(fc, node, src, pkgID, models.KindFunction)
			return false

		case "method_declaration":
			extractGoFunc(fc, node, src, pkgID, models.KindMethod)
			return false

		case "var_declaration", "const_declaration":
			// Top-level only; locals are inside function bodies which the
			// function cases never descend into.
			for i := range int(node.ChildCount()) {
				spec := node.Child(i)
				if spec.Type() != "var_spec" && spec.Type() != "const_spec" {
					continue
				}
				if nameNode := spec.ChildByFieldName("name"); nameNode != nil {
					name := parser.GetNodeText(nameNode, src)
					el := fc.newElement(models.KindVariable, name, spec, pkgID)
					el.Visibility = visibilityFromName(name)
					fc.add(el)
				}
			}
			return false
		}
		return true
	})
}

func extractGoTypeSpec(fc *fileContext, spec *sitter.Node, src []byte, pkgID string) {
	nameNode := spec.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := parser.GetNodeText(nameNode, src)

	kind := models.KindStruct
	var embedded []string
	if typeNode := spec.ChildByFieldName("type"); typeNode != nil {
		switch typeNode.Type() {
		case "interface_type":
			kind = models.KindInterface
			embedded = goEmbeddedTypes(typeNode, src, "type_identifier", "qualified_type")
		case "struct_type":
			kind = models.KindStruct
		default:
			// Type aliases and named non-struct types.
			kind = models.KindStruct
		}
	}

	el := fc.newElement(kind, name, spec, pkgID)
	el.Visibility = visibilityFromName(name)
	idx := fc.add(el)
	for _, emb := range embedded {
		fc.ref(idx, models.RefInterface, emb)
	}
}

// goEmbeddedTypes returns directly embedded type names inside an interface
// body (interface embedding is the closest thing Go has to inheritance).
func goEmbeddedTypes(typeNode *sitter.Node, src []byte, nodeTypes ...string) []string {
	var names []string
	for i := range int(typeNode.ChildCount()) {
		child := typeNode.Child(i)
		for _, nt := range nodeTypes {
			if child.Type() == nt {
				names = append(names, parser.GetNodeText(child, src))
			}
		}
	}
	return names
}

func extractGoFunc(fc *fileContext, node *sitter.Node, src []byte, pkgID string, kind models.ElementKind) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := parser.GetNodeText(nameNode, src)

	parentID := pkgID
	el := fc.newElement(kind, name, node, parentID)
	el.Visibility = visibilityFromName(name)

	if kind == models.KindMethod {
		if recv := node.ChildByFieldName("receiver"); recv != nil {
			el.Metadata = map[string]string{"receiver": receiverType(recv, src)}
		}
	}

	idx := fc.add(el)
	for _, call := range callTargets(node.ChildByFieldName("body"), src, goCallTypes, []string{"function"}) {
		fc.ref(idx, models.RefCall, call)
	}
}

// receiverType extracts the bare receiver type name, dropping the pointer
// star and parameter name.
func receiverType(recv *sitter.Node, src []byte) string {
	var name string
	parser.Walk(recv, src, func(n *sitter.Node, s []byte) bool {
		if n.Type() == "type_identifier" {
			name = parser.GetNodeText(n, s)
			return false
		}
		return true
	})
	return name
}
