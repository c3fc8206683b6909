package extract

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/arcgraph/arcgraph/pkg/models"
	"github.com/arcgraph/arcgraph/pkg/parser"
)

var rustCallTypes = []string{"call_expression"}

// extractRust walks a Rust file. use declarations attach to the file module,
// impl blocks bind their functions as methods of the implemented type, and
// trait impls add interface references.
func extractRust(fc *fileContext, result *parser.ParseResult) {
	root := result.Tree.RootNode()
	fc.module = moduleFromPath(fc.path)

	modIdx := fc.add(fc.newElement(models.KindModule, fc.module, root, ""))
	modID := fc.elements[modIdx].ID

	rustWalkScope(fc, root, modIdx, modID)
}

func rustWalkScope(fc *fileContext, scope *sitter.Node, modIdx int, parentID string) {
	parser.Walk(scope, fc.source, func(node *sitter.Node, src []byte) bool {
		switch node.Type() {
		case "use_declaration":
			if arg := node.ChildByFieldName("argument"); arg != nil {
				fc.ref(modIdx, models.RefImport, parser.GetNodeText(arg, src))
			}
			return false

		case "mod_item":
			nameNode := node.ChildByFieldName("name")
			if nameNode == nil {
				return false
			}
			idx := fc.add(fc.newElement(models.KindNamespace, parser.GetNodeText(nameNode, src), node, parentID))
			if body := node.ChildByFieldName("body"); body != nil {
				rustWalkScope(fc, body, modIdx, fc.elements[idx].ID)
			}
			return false

		case "struct_item":
			rustExtractNamed(fc, node, parentID, models.KindStruct)
			return false

		case "enum_item":
			rustExtractNamed(fc, node, parentID, models.KindEnum)
			return false

		case "trait_item":
			rustExtractNamed(fc, node, parentID, models.KindInterface)
			return false

		case "impl_item":
			rustExtractImpl(fc, node, parentID)
			return false

		case "function_item":
			rustExtractFunction(fc, node, parentID, models.KindFunction)
			return false

		case "static_item", "const_item":
			if nameNode := node.ChildByFieldName("name"); nameNode != nil {
				fc.add(fc.newElement(models.KindVariable, parser.GetNodeText(nameNode, src), node, parentID))
			}
			return false
		}
		return true
	})
}

func rustExtractNamed(fc *fileContext, node *sitter.Node, parentID string, kind models.ElementKind) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := parser.GetNodeText(nameNode, fc.source)

	el := fc.newElement(kind, name, node, parentID)
	el.Visibility = rustVisibility(node, fc.source)
	fc.add(el)
}

// rustExtractImpl attaches impl functions to the implemented type. The type
// element may live in another file, so methods reference it by name and the
// trait, when present, becomes an interface reference on the impl target.
func rustExtractImpl(fc *fileContext, node *sitter.Node, parentID string) {
	typeNode := node.ChildByFieldName("type")
	if typeNode == nil {
		return
	}
	typeName := rustTypeName(typeNode, fc.source)

	typeIdx := -1
	for i := range fc.elements {
		if fc.elements[i].Name == typeName && fc.elements[i].Kind != models.KindMethod {
			typeIdx = i
			break
		}
	}

	if trait := node.ChildByFieldName("trait"); trait != nil && typeIdx >= 0 {
		fc.ref(typeIdx, models.RefInterface, rustTypeName(trait, fc.source))
	}

	body := node.ChildByFieldName("body")
	if body == nil {
		return
	}
	methodParent := parentID
	if typeIdx >= 0 {
		methodParent = fc.elements[typeIdx].ID
	}
	for i := range int(body.ChildCount()) {
		member := body.Child(i)
		if member.Type() == "function_item" {
			idx := rustExtractFunction(fc, member, methodParent, models.KindMethod)
			if idx >= 0 {
				fc.elements[idx].Metadata = map[string]string{"receiver": typeName}
			}
		}
	}
}

func rustExtractFunction(fc *fileContext, node *sitter.Node, parentID string, kind models.ElementKind) int {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return -1
	}
	name := parser.GetNodeText(nameNode, fc.source)

	el := fc.newElement(kind, name, node, parentID)
	el.Visibility = rustVisibility(node, fc.source)
	idx := fc.add(el)

	for _, call := range callTargets(node.ChildByFieldName("body"), fc.source, rustCallTypes, []string{"function"}) {
		fc.ref(idx, models.RefCall, call)
	}
	return idx
}

// rustTypeName strips generic arguments from a type node.
func rustTypeName(node *sitter.Node, src []byte) string {
	if node.Type() == "generic_type" {
		if inner := node.ChildByFieldName("type"); inner != nil {
			return parser.GetNodeText(inner, src)
		}
	}
	return parser.GetNodeText(node, src)
}

func rustVisibility(node *sitter.Node, src []byte) string {
	for i := range int(node.ChildCount()) {
		if node.Child(i).Type() == "visibility_modifier" {
			return "public"
		}
	}
	return "private"
}
