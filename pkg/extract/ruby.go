package extract

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/arcgraph/arcgraph/pkg/models"
	"github.com/arcgraph/arcgraph/pkg/parser"
)

var rubyCallTypes = []string{"call"}

// extractRuby walks a Ruby file. Classes and modules nest; require and
// require_relative become import references on the file-level module,
// include/extend become interface references on the enclosing class.
func extractRuby(fc *fileContext, result *parser.ParseResult) {
	root := result.Tree.RootNode()
	fc.module = moduleFromPath(fc.path)

	modIdx := fc.add(fc.newElement(models.KindModule, fc.module, root, ""))
	modID := fc.elements[modIdx].ID

	rubyWalkScope(fc, root, modIdx, modID, -1)
}

// rubyWalkScope recurses through a body node. classIdx is the element index
// of the enclosing class, or -1 at file or module scope.
func rubyWalkScope(fc *fileContext, scope *sitter.Node, modIdx int, parentID string, classIdx int) {
	parser.Walk(scope, fc.source, func(node *sitter.Node, src []byte) bool {
		switch node.Type() {
		case "class":
			rubyExtractClass(fc, node, modIdx, parentID)
			return false

		case "module":
			nameNode := node.ChildByFieldName("name")
			if nameNode == nil {
				return false
			}
			name := parser.GetNodeText(nameNode, src)
			idx := fc.add(fc.newElement(models.KindNamespace, name, node, parentID))
			if body := node.ChildByFieldName("body"); body != nil {
				rubyWalkScope(fc, body, modIdx, fc.elements[idx].ID, -1)
			}
			return false

		case "method", "singleton_method":
			kind := models.KindFunction
			pid := parentID
			if classIdx >= 0 {
				kind = models.KindMethod
				pid = fc.elements[classIdx].ID
			}
			rubyExtractMethod(fc, node, pid, kind)
			return false

		case "call":
			method := node.ChildByFieldName("method")
			if method == nil {
				return true
			}
			switch parser.GetNodeText(method, src) {
			case "require", "require_relative":
				if arg := rubyFirstArgument(node, src); arg != "" {
					fc.ref(modIdx, models.RefImport, arg)
				}
				return false
			case "include", "extend", "prepend":
				if classIdx >= 0 {
					if arg := rubyFirstArgument(node, src); arg != "" {
						fc.ref(classIdx, models.RefInterface, arg)
					}
				}
				return false
			}
			return true
		}
		return true
	})
}

func rubyExtractClass(fc *fileContext, node *sitter.Node, modIdx int, parentID string) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := parser.GetNodeText(nameNode, fc.source)

	idx := fc.add(fc.newElement(models.KindClass, name, node, parentID))

	if super := node.ChildByFieldName("superclass"); super != nil {
		for i := range int(super.ChildCount()) {
			child := super.Child(i)
			if child.Type() == "constant" || child.Type() == "scope_resolution" {
				fc.ref(idx, models.RefBase, parser.GetNodeText(child, fc.source))
			}
		}
	}

	if body := node.ChildByFieldName("body"); body != nil {
		rubyWalkScope(fc, body, modIdx, fc.elements[idx].ID, idx)
	}
}

func rubyExtractMethod(fc *fileContext, node *sitter.Node, parentID string, kind models.ElementKind) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := parser.GetNodeText(nameNode, fc.source)

	idx := fc.add(fc.newElement(kind, name, node, parentID))
	if body := node.ChildByFieldName("body"); body != nil {
		for _, call := range callTargets(body, fc.source, rubyCallTypes, []string{"method"}) {
			fc.ref(idx, models.RefCall, call)
		}
		// Constants used inside the body are potential class usages.
		parser.Walk(body, fc.source, func(n *sitter.Node, src []byte) bool {
			if n.Type() == "constant" {
				fc.ref(idx, models.RefUse, parser.GetNodeText(n, src))
				return false
			}
			return true
		})
	}
}

// rubyFirstArgument returns the text of the first string or constant argument
// of a call node, with string quotes stripped.
func rubyFirstArgument(node *sitter.Node, src []byte) string {
	args := node.ChildByFieldName("arguments")
	if args == nil {
		return ""
	}
	for i := range int(args.ChildCount()) {
		arg := args.Child(i)
		switch arg.Type() {
		case "string":
			return stripQuotes(parser.GetNodeText(arg, src))
		case "constant", "scope_resolution":
			return parser.GetNodeText(arg, src)
		}
	}
	return ""
}
