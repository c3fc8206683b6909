package extract

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/arcgraph/arcgraph/pkg/models"
	"github.com/arcgraph/arcgraph/pkg/parser"
)

var javaCallTypes = []string{"method_invocation", "object_creation_expression"}

// extractJava walks a Java file. The package declaration names the module,
// imports attach to the package element, and type declarations carry their
// extends/implements references.
func extractJava(fc *fileContext, result *parser.ParseResult) {
	root := result.Tree.RootNode()
	fc.module = moduleFromPath(fc.path)

	pkgName := fc.module
	for i := range int(root.ChildCount()) {
		child := root.Child(i)
		if child.Type() == "package_declaration" {
			for j := range int(child.ChildCount()) {
				sub := child.Child(j)
				if sub.Type() == "scoped_identifier" || sub.Type() == "identifier" {
					pkgName = parser.GetNodeText(sub, fc.source)
				}
			}
		}
	}
	fc.module = pkgName

	pkgIdx := fc.add(fc.newElement(models.KindPackage, pkgName, root, ""))
	pkgID := fc.elements[pkgIdx].ID

	for i := range int(root.ChildCount()) {
		child := root.Child(i)
		switch child.Type() {
		case "import_declaration":
			for j := range int(child.ChildCount()) {
				sub := child.Child(j)
				if sub.Type() == "scoped_identifier" || sub.Type() == "identifier" {
					fc.ref(pkgIdx, models.RefImport, parser.GetNodeText(sub, fc.source))
				}
			}
		case "class_declaration":
			javaExtractType(fc, child, pkgID, models.KindClass)
		case "interface_declaration":
			javaExtractType(fc, child, pkgID, models.KindInterface)
		case "enum_declaration":
			javaExtractType(fc, child, pkgID, models.KindEnum)
		}
	}
}

func javaExtractType(fc *fileContext, node *sitter.Node, parentID string, kind models.ElementKind) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := parser.GetNodeText(nameNode, fc.source)

	el := fc.newElement(kind, name, node, parentID)
	el.Modifiers = javaModifiers(node, fc.source)
	el.Visibility = javaVisibility(el.Modifiers)
	idx := fc.add(el)
	typeID := fc.elements[idx].ID

	if super := node.ChildByFieldName("superclass"); super != nil {
		for _, base := range javaTypeNames(super, fc.source) {
			fc.ref(idx, models.RefBase, base)
		}
	}
	if ifaces := node.ChildByFieldName("interfaces"); ifaces != nil {
		for _, iface := range javaTypeNames(ifaces, fc.source) {
			fc.ref(idx, models.RefInterface, iface)
		}
	}
	// Interfaces extend other interfaces through extends_interfaces.
	for i := range int(node.ChildCount()) {
		child := node.Child(i)
		if child.Type() == "extends_interfaces" {
			for _, base := range javaTypeNames(child, fc.source) {
				fc.ref(idx, models.RefBase, base)
			}
		}
	}

	body := node.ChildByFieldName("body")
	if body == nil {
		return
	}
	for i := range int(body.ChildCount()) {
		member := body.Child(i)
		switch member.Type() {
		case "method_declaration", "constructor_declaration":
			javaExtractMethod(fc, member, typeID)
		case "field_declaration":
			javaExtractField(fc, member, typeID)
		case "class_declaration":
			javaExtractType(fc, member, typeID, models.KindClass)
		case "interface_declaration":
			javaExtractType(fc, member, typeID, models.KindInterface)
		case "enum_declaration":
			javaExtractType(fc, member, typeID, models.KindEnum)
		}
	}
}

func javaExtractMethod(fc *fileContext, node *sitter.Node, typeID string) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := parser.GetNodeText(nameNode, fc.source)

	el := fc.newElement(models.KindMethod, name, node, typeID)
	el.Modifiers = javaModifiers(node, fc.source)
	el.Visibility = javaVisibility(el.Modifiers)
	idx := fc.add(el)

	for _, call := range callTargets(node.ChildByFieldName("body"), fc.source, javaCallTypes, []string{"name", "type"}) {
		fc.ref(idx, models.RefCall, call)
	}
}

func javaExtractField(fc *fileContext, node *sitter.Node, typeID string) {
	mods := javaModifiers(node, fc.source)
	for i := range int(node.ChildCount()) {
		child := node.Child(i)
		if child.Type() != "variable_declarator" {
			continue
		}
		nameNode := child.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}
		el := fc.newElement(models.KindVariable, parser.GetNodeText(nameNode, fc.source), child, typeID)
		el.Modifiers = mods
		el.Visibility = javaVisibility(mods)
		fc.add(el)
	}
	if fieldType := node.ChildByFieldName("type"); fieldType != nil {
		if names := javaTypeNames(fieldType, fc.source); len(names) > 0 {
			// Field types associate the enclosing type with the field's type.
			for idx := range fc.elements {
				if fc.elements[idx].ID == typeID {
					for _, n := range names {
						fc.ref(idx, models.RefUse, n)
					}
					break
				}
			}
		}
	}
}

// javaTypeNames collects type identifiers under a clause node. Generic types
// report their outer identifier only.
func javaTypeNames(node *sitter.Node, src []byte) []string {
	var names []string
	switch node.Type() {
	case "type_identifier", "scoped_type_identifier":
		return []string{parser.GetNodeText(node, src)}
	case "generic_type":
		if inner := node.Child(0); inner != nil {
			return []string{parser.GetNodeText(inner, src)}
		}
		return nil
	}
	for i := range int(node.ChildCount()) {
		names = append(names, javaTypeNames(node.Child(i), src)...)
	}
	return names
}

func javaModifiers(node *sitter.Node, src []byte) []string {
	for i := range int(node.ChildCount()) {
		child := node.Child(i)
		if child.Type() != "modifiers" {
			continue
		}
		var mods []string
		for j := range int(child.ChildCount()) {
			mods = append(mods, parser.GetNodeText(child.Child(j), src))
		}
		return mods
	}
	return nil
}

func javaVisibility(mods []string) string {
	for _, m := range mods {
		switch m {
		case "public", "private", "protected":
			return m
		}
	}
	return ""
}
