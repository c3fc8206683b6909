package extract

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/arcgraph/arcgraph/pkg/models"
	"github.com/arcgraph/arcgraph/pkg/parser"
)

var pyCallTypes = []string{"call"}

// extractPython walks a Python file: a module element for the file, classes
// with their base references, functions and methods, and imports.
func extractPython(fc *fileContext, result *parser.ParseResult) {
	root := result.Tree.RootNode()
	fc.module = moduleFromPath(fc.path)

	modIdx := fc.add(fc.newElement(models.KindModule, fc.module, root, ""))
	modID := fc.elements[modIdx].ID

	pyWalkScope(fc, root, modIdx, modID, "")
}

// pyWalkScope walks one nesting scope. classID is non-empty inside a class
// body, which turns nested functions into methods.
func pyWalkScope(fc *fileContext, scope *sitter.Node, modIdx int, parentID, classID string) {
	for i := range int(scope.ChildCount()) {
		node := scope.Child(i)
		switch node.Type() {
		case "import_statement":
			for j := range int(node.ChildCount()) {
				child := node.Child(j)
				switch child.Type() {
				case "dotted_name":
					fc.ref(modIdx, models.RefImport, parser.GetNodeText(child, fc.source))
				case "aliased_import":
					if nameNode := child.ChildByFieldName("name"); nameNode != nil {
						fc.ref(modIdx, models.RefImport, parser.GetNodeText(nameNode, fc.source))
					}
				}
			}

		case "import_from_statement":
			if modNode := node.ChildByFieldName("module_name"); modNode != nil {
				fc.ref(modIdx, models.RefImport, parser.GetNodeText(modNode, fc.source))
			}

		case "class_definition":
			pyExtractClass(fc, node, modIdx, parentID)

		case "function_definition":
			pyExtractFunction(fc, node, modIdx, parentID, classID)

		case "decorated_definition":
			if def := node.ChildByFieldName("definition"); def != nil {
				switch def.Type() {
				case "class_definition":
					pyExtractClass(fc, def, modIdx, parentID)
				case "function_definition":
					pyExtractFunction(fc, def, modIdx, parentID, classID)
				}
			}

		default:
			// Recurse through wrapper statements (if __name__ guards and
			// the like) without changing scope.
			if node.ChildCount() > 0 && node.Type() != "block" {
				pyWalkScope(fc, node, modIdx, parentID, classID)
			}
		}
	}
}

func pyExtractClass(fc *fileContext, node *sitter.Node, modIdx int, parentID string) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := parser.GetNodeText(nameNode, fc.source)

	el := fc.newElement(models.KindClass, name, node, parentID)
	el.Visibility = visibilityFromName(name)
	idx := fc.add(el)
	classID := fc.elements[idx].ID

	if bases := node.ChildByFieldName("superclasses"); bases != nil {
		for i := range int(bases.ChildCount()) {
			base := bases.Child(i)
			switch base.Type() {
			case "identifier", "attribute":
				fc.ref(idx, models.RefBase, parser.GetNodeText(base, fc.source))
			}
		}
	}

	if body := node.ChildByFieldName("body"); body != nil {
		pyWalkScope(fc, body, modIdx, classID, classID)
	}
}

func pyExtractFunction(fc *fileContext, node *sitter.Node, modIdx int, parentID, classID string) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := parser.GetNodeText(nameNode, fc.source)

	kind := models.KindFunction
	if classID != "" {
		kind = models.KindMethod
	}
	el := fc.newElement(kind, name, node, parentID)
	el.Visibility = visibilityFromName(name)

	idx := fc.add(el)
	for _, call := range callTargets(node.ChildByFieldName("body"), fc.source, pyCallTypes, []string{"function"}) {
		fc.ref(idx, models.RefCall, call)
	}
}
