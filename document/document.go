// Package document holds helpers over parsed query documents shared by the
// transports and the cache: parsing, printing, operation lookup, argument
// resolution and field collection.
package document

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/formatter"
	"github.com/vektah/gqlparser/v2/parser"
)

// ErrNoOperation is returned when a document has no operation matching the requested name.
var ErrNoOperation = errors.New("document: operation not found")

// Parse parses query text into a document. No schema validation is performed.
func Parse(query string) (*ast.QueryDocument, error) {
	doc, err := parser.ParseQuery(&ast.Source{Name: "query", Input: query})
	if err != nil {
		return nil, fmt.Errorf("document: parse: %w", err)
	}
	return doc, nil
}

// Print renders doc back to query text.
func Print(doc *ast.QueryDocument) string {
	var buf bytes.Buffer
	formatter.NewFormatter(&buf).FormatQueryDocument(doc)
	return buf.String()
}

// Operation returns the operation called name, or the only operation when name is empty.
func Operation(doc *ast.QueryDocument, name string) (*ast.OperationDefinition, error) {
	if doc == nil {
		return nil, ErrNoOperation
	}
	if name == "" && len(doc.Operations) > 0 {
		return doc.Operations[0], nil
	}
	if op := doc.Operations.ForName(name); op != nil {
		return op, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrNoOperation, name)
}

// ArgumentValues resolves an argument list against vars. Arguments whose
// value cannot be resolved are left out.
func ArgumentValues(args ast.ArgumentList, vars map[string]any) map[string]any {
	if len(args) == 0 {
		return nil
	}
	out := make(map[string]any, len(args))
	for _, arg := range args {
		if arg == nil || arg.Value == nil {
			continue
		}
		if arg.Value.Kind == ast.Variable {
			if v, ok := vars[arg.Value.Raw]; ok {
				out[arg.Name] = v
			}
			continue
		}
		v, err := arg.Value.Value(vars)
		if err != nil {
			continue
		}
		out[arg.Name] = v
	}
	return out
}

// ResponseKey is the key a field's value appears under in a result.
func ResponseKey(f *ast.Field) string {
	if f.Alias != "" {
		return f.Alias
	}
	return f.Name
}

// CollectFields flattens sel into its fields, expanding fragment spreads and
// inline fragments and honoring @skip and @include. Fragments with a type
// condition apply only when typename is empty or matches it.
//
// Fields sharing a response key are merged into one field whose selection set
// is the concatenation of theirs, in first-seen order. The document itself is
// not modified.
func CollectFields(sel ast.SelectionSet, fragments ast.FragmentDefinitionList, typename string, vars map[string]any) []*ast.Field {
	var all []*ast.Field
	visited := make(map[string]bool)
	collect(sel, fragments, typename, vars, visited, &all)
	return mergeFields(all)
}

func mergeFields(fields []*ast.Field) []*ast.Field {
	out := make([]*ast.Field, 0, len(fields))
	index := make(map[string]int, len(fields))
	copied := make(map[int]bool)
	for _, f := range fields {
		key := ResponseKey(f)
		i, seen := index[key]
		if !seen {
			index[key] = len(out)
			out = append(out, f)
			continue
		}
		if len(f.SelectionSet) == 0 {
			continue
		}
		if !copied[i] {
			merged := *out[i]
			merged.SelectionSet = append(ast.SelectionSet(nil), out[i].SelectionSet...)
			out[i] = &merged
			copied[i] = true
		}
		out[i].SelectionSet = append(out[i].SelectionSet, f.SelectionSet...)
	}
	return out
}

func collect(sel ast.SelectionSet, fragments ast.FragmentDefinitionList, typename string, vars map[string]any, visited map[string]bool, out *[]*ast.Field) {
	for _, s := range sel {
		switch node := s.(type) {
		case *ast.Field:
			if included(node.Directives, vars) {
				*out = append(*out, node)
			}
		case *ast.InlineFragment:
			if !included(node.Directives, vars) || !applies(node.TypeCondition, typename) {
				continue
			}
			collect(node.SelectionSet, fragments, typename, vars, visited, out)
		case *ast.FragmentSpread:
			if visited[node.Name] || !included(node.Directives, vars) {
				continue
			}
			def := fragments.ForName(node.Name)
			if def == nil || !applies(def.TypeCondition, typename) {
				continue
			}
			visited[node.Name] = true
			collect(def.SelectionSet, fragments, typename, vars, visited, out)
		}
	}
}

func applies(condition, typename string) bool {
	return condition == "" || typename == "" || condition == typename
}

func included(directives ast.DirectiveList, vars map[string]any) bool {
	if d := directives.ForName("skip"); d != nil && boolArg(d, vars) {
		return false
	}
	if d := directives.ForName("include"); d != nil && !boolArg(d, vars) {
		return false
	}
	return true
}

func boolArg(d *ast.Directive, vars map[string]any) bool {
	v, _ := ArgumentValues(d.Arguments, vars)["if"].(bool)
	return v
}
