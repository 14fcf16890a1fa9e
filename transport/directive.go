package transport

import "github.com/vektah/gqlparser/v2/ast"

// RestDirective is the directive name that routes a document to the REST transport.
const RestDirective = "rest"

// HasRestDirective reports whether any directive in doc is named RestDirective.
//
// The scan covers operations, their variable definitions, every selection
// and every fragment definition, whether or not the fragment is spread.
// The result is computed fresh on every call.
func HasRestDirective(doc *ast.QueryDocument) bool {
	if doc == nil {
		return false
	}
	for _, op := range doc.Operations {
		if hasDirective(op.Directives) {
			return true
		}
		for _, v := range op.VariableDefinitions {
			if hasDirective(v.Directives) {
				return true
			}
		}
		if selectionHasDirective(op.SelectionSet) {
			return true
		}
	}
	for _, frag := range doc.Fragments {
		if hasDirective(frag.Directives) {
			return true
		}
		for _, v := range frag.VariableDefinition {
			if hasDirective(v.Directives) {
				return true
			}
		}
		if selectionHasDirective(frag.SelectionSet) {
			return true
		}
	}
	return false
}

func selectionHasDirective(sel ast.SelectionSet) bool {
	for _, s := range sel {
		switch node := s.(type) {
		case *ast.Field:
			if hasDirective(node.Directives) || selectionHasDirective(node.SelectionSet) {
				return true
			}
		case *ast.InlineFragment:
			if hasDirective(node.Directives) || selectionHasDirective(node.SelectionSet) {
				return true
			}
		case *ast.FragmentSpread:
			if hasDirective(node.Directives) {
				return true
			}
		}
	}
	return false
}

func hasDirective(list ast.DirectiveList) bool {
	for _, d := range list {
		if d != nil && d.Name == RestDirective {
			return true
		}
	}
	return false
}
