package transport

import (
	"context"
	"errors"

	"github.com/vektah/gqlparser/v2/ast"

	"github.com/huykn/gqlcache/document"
)

// ErrNoRESTTransport is returned when a document needs the REST transport and none is configured.
var ErrNoRESTTransport = errors.New("transport: document uses @rest but no REST transport is configured")

// Route names the transport a document is sent through.
type Route int

const (
	// RouteGraphQL is the primary query transport.
	RouteGraphQL Route = iota
	// RouteREST is the REST-style sub-transport.
	RouteREST
)

func (r Route) String() string {
	if r == RouteREST {
		return "rest"
	}
	return "graphql"
}

// RouteOf returns RouteREST when doc carries the @rest directive anywhere.
func RouteOf(doc *ast.QueryDocument) Route {
	if HasRestDirective(doc) {
		return RouteREST
	}
	return RouteGraphQL
}

// Router sends each request to the primary transport or the REST transport.
type Router struct {
	primary Transport
	rest    Transport
}

// NewRouter creates a router. rest may be nil when no document uses @rest.
func NewRouter(primary, rest Transport) *Router {
	return &Router{primary: primary, rest: rest}
}

// Select returns the transport for doc and the route it was chosen by.
func (r *Router) Select(doc *ast.QueryDocument) (Transport, Route, error) {
	route := RouteOf(doc)
	if route == RouteREST {
		if r.rest == nil {
			return nil, route, ErrNoRESTTransport
		}
		return r.rest, route, nil
	}
	if r.primary == nil {
		return nil, route, ErrNoEndpoint
	}
	return r.primary, route, nil
}

// Execute parses req when needed, selects a transport and runs it.
func (r *Router) Execute(ctx context.Context, req *Request) (*Response, error) {
	resp, _, err := r.ExecuteRoute(ctx, req)
	return resp, err
}

// ExecuteRoute is Execute that also reports the route taken.
func (r *Router) ExecuteRoute(ctx context.Context, req *Request) (*Response, Route, error) {
	doc, err := ensureDocument(req)
	if err != nil {
		return nil, RouteGraphQL, err
	}
	t, route, err := r.Select(doc)
	if err != nil {
		return nil, route, err
	}
	resp, err := t.Execute(ctx, req)
	return resp, route, err
}

// ensureDocument parses req.Query into req.Document when it is not set yet.
func ensureDocument(req *Request) (*ast.QueryDocument, error) {
	if req.Document != nil {
		return req.Document, nil
	}
	doc, err := document.Parse(req.Query)
	if err != nil {
		return nil, err
	}
	req.Document = doc
	return doc, nil
}
