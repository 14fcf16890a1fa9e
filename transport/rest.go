package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/huykn/gqlcache/document"
)

// TypeDirective names the directive that sets __typename on nested REST objects.
const TypeDirective = "type"

// ErrMissingPath is returned when a @rest directive has no path argument.
var ErrMissingPath = errors.New("transport: @rest directive requires a path")

var placeholder = regexp.MustCompile(`\{args\.([_A-Za-z][_0-9A-Za-z]*)\}`)

// RESTTransport resolves root fields annotated with
// @rest(path: "/users/{args.id}", method: "GET", type: "User") against a
// REST endpoint and shapes each JSON body to the field's selection set.
//
// Root fields without @rest resolve to null. Non-GET requests send the
// field's "input" argument as the JSON body.
type RESTTransport struct {
	Endpoint string
	Client   *http.Client
	Header   HeaderFunc
}

// NewRESTTransport creates a REST transport rooted at endpoint.
func NewRESTTransport(endpoint string, client *http.Client, header HeaderFunc) *RESTTransport {
	return &RESTTransport{Endpoint: strings.TrimRight(endpoint, "/"), Client: client, Header: header}
}

// Execute runs one HTTP call per @rest root field, in document order.
func (t *RESTTransport) Execute(ctx context.Context, req *Request) (*Response, error) {
	if t.Endpoint == "" {
		return nil, ErrNoEndpoint
	}

	doc, err := ensureDocument(req)
	if err != nil {
		return nil, err
	}
	op, err := document.Operation(doc, req.OperationName)
	if err != nil {
		return nil, err
	}

	rootType := rootTypename(op.Operation)
	data := make(map[string]any)
	for _, field := range document.CollectFields(op.SelectionSet, doc.Fragments, rootType, req.Variables) {
		key := document.ResponseKey(field)
		if field.Name == "__typename" {
			data[key] = rootType
			continue
		}

		rest := field.Directives.ForName(RestDirective)
		if rest == nil {
			data[key] = nil
			continue
		}

		value, err := t.resolve(ctx, doc, field, rest, req.Variables)
		if err != nil {
			return nil, err
		}
		data[key] = value
	}

	return &Response{Data: data, StatusCode: http.StatusOK}, nil
}

func (t *RESTTransport) resolve(ctx context.Context, doc *ast.QueryDocument, field *ast.Field, rest *ast.Directive, vars map[string]any) (any, error) {
	opts := document.ArgumentValues(rest.Arguments, vars)
	path, _ := opts["path"].(string)
	if path == "" {
		return nil, fmt.Errorf("%w: field %q", ErrMissingPath, field.Name)
	}
	method, _ := opts["method"].(string)
	if method == "" {
		method = http.MethodGet
	}
	method = strings.ToUpper(method)
	typename, _ := opts["type"].(string)

	args := document.ArgumentValues(field.Arguments, vars)
	target := t.Endpoint + expandPath(path, args)

	var body io.Reader
	if input, ok := args["input"]; ok && method != http.MethodGet && method != http.MethodDelete {
		payload, err := json.Marshal(input)
		if err != nil {
			return nil, fmt.Errorf("transport: encode input for %q: %w", field.Name, err)
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if t.Header != nil {
		t.Header(ctx, httpReq.Header)
	}

	resp, err := httpClient(t.Client).Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{Status: resp.StatusCode, Body: raw}
	}
	if len(bytes.TrimSpace(raw)) == 0 || resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	if !gjson.ValidBytes(raw) {
		return nil, &MalformedResponseError{Status: resp.StatusCode, Err: errors.New("invalid JSON")}
	}

	return project(gjson.ParseBytes(raw), field.SelectionSet, doc.Fragments, typename, vars), nil
}

// expandPath substitutes {args.name} placeholders with escaped argument
// values. Unknown placeholders expand to the empty string.
func expandPath(path string, args map[string]any) string {
	return placeholder.ReplaceAllStringFunc(path, func(m string) string {
		name := placeholder.FindStringSubmatch(m)[1]
		v, ok := args[name]
		if !ok || v == nil {
			return ""
		}
		return url.PathEscape(fmt.Sprint(v))
	})
}

// project keeps only the selected fields of r, recursing into objects and
// arrays, and stamps __typename on objects whose type is known.
func project(r gjson.Result, sel ast.SelectionSet, fragments ast.FragmentDefinitionList, typename string, vars map[string]any) any {
	if !r.Exists() || r.Type == gjson.Null {
		return nil
	}
	if r.IsArray() {
		out := make([]any, 0)
		r.ForEach(func(_, item gjson.Result) bool {
			out = append(out, project(item, sel, fragments, typename, vars))
			return true
		})
		return out
	}
	if !r.IsObject() || len(sel) == 0 {
		return r.Value()
	}

	if typename == "" {
		typename = r.Get("__typename").String()
	}
	obj := make(map[string]any)
	if typename != "" {
		obj["__typename"] = typename
	}
	for _, field := range document.CollectFields(sel, fragments, typename, vars) {
		key := document.ResponseKey(field)
		if field.Name == "__typename" {
			if typename != "" {
				obj[key] = typename
			}
			continue
		}
		childType := ""
		if d := field.Directives.ForName(TypeDirective); d != nil {
			childType, _ = document.ArgumentValues(d.Arguments, vars)["name"].(string)
		}
		obj[key] = project(r.Get(field.Name), field.SelectionSet, fragments, childType, vars)
	}
	return obj
}

func rootTypename(op ast.Operation) string {
	switch op {
	case ast.Mutation:
		return "Mutation"
	case ast.Subscription:
		return "Subscription"
	default:
		return "Query"
	}
}
