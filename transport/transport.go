// Package transport executes requests against the GraphQL endpoint or a
// REST-style endpoint and decides which one a document needs.
package transport

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
)

// Request is one outgoing operation.
type Request struct {
	// Query is the document text. Printed from Document when empty.
	Query string
	// OperationName selects the operation when the document has several.
	OperationName string
	// Variables are bound to the operation's variable definitions.
	Variables map[string]any
	// Document is the parsed form of Query. Parsed from Query when nil.
	Document *ast.QueryDocument
}

// Response is the decoded result of a request.
type Response struct {
	Data       map[string]any
	Errors     GraphQLErrors
	StatusCode int
}

// Transport executes a request.
type Transport interface {
	Execute(ctx context.Context, req *Request) (*Response, error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, req *Request) (*Response, error)

// Execute calls f.
func (f TransportFunc) Execute(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// HeaderFunc sets request headers, typically authorization.
type HeaderFunc func(ctx context.Context, h http.Header)

// HTTPError is returned for non-2xx responses.
type HTTPError struct {
	Status int
	Body   []byte
}

func (e *HTTPError) Error() string {
	body := strings.TrimSpace(string(e.Body))
	if len(body) > 200 {
		body = body[:200]
	}
	if body == "" {
		return fmt.Sprintf("unexpected status %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("unexpected status %d %s: %s", e.Status, http.StatusText(e.Status), body)
}

// StatusCode returns the HTTP status.
func (e *HTTPError) StatusCode() int {
	return e.Status
}

// MalformedResponseError is returned when a 2xx body cannot be decoded.
type MalformedResponseError struct {
	Status int
	Err    error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed response (status %d): %v", e.Status, e.Err)
}

// StatusCode returns the HTTP status.
func (e *MalformedResponseError) StatusCode() int {
	return e.Status
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// GraphQLError is one entry of a response's errors list.
type GraphQLError struct {
	Message    string         `json:"message"`
	Path       []any          `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

// GraphQLErrors is reported by the server alongside or instead of data.
type GraphQLErrors []GraphQLError

func (e GraphQLErrors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, ge := range e {
		if ge.Message != "" {
			msgs = append(msgs, ge.Message)
		}
	}
	return strings.Join(msgs, "; ")
}

// ErrorCode returns the first extensions.code in the list.
func (e GraphQLErrors) ErrorCode() string {
	for _, ge := range e {
		if code, ok := ge.Extensions["code"].(string); ok && code != "" {
			return code
		}
	}
	return ""
}
