package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/huykn/gqlcache/document"
)

// ErrNoEndpoint is returned when a transport has no endpoint configured.
var ErrNoEndpoint = errors.New("transport: endpoint not configured")

// maxBodySize bounds how much of a response body is read.
const maxBodySize = 32 << 20

// HTTPTransport posts requests to a GraphQL endpoint.
type HTTPTransport struct {
	Endpoint string
	Client   *http.Client
	Header   HeaderFunc
}

// NewHTTPTransport creates a GraphQL transport for endpoint. A nil client uses http.DefaultClient.
func NewHTTPTransport(endpoint string, client *http.Client, header HeaderFunc) *HTTPTransport {
	return &HTTPTransport{Endpoint: endpoint, Client: client, Header: header}
}

type graphQLBody struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
}

type graphQLResult struct {
	Data   map[string]any `json:"data"`
	Errors GraphQLErrors  `json:"errors"`
}

// Execute sends req and decodes the result. Server-reported errors are
// returned in Response.Errors, not as the error value.
func (t *HTTPTransport) Execute(ctx context.Context, req *Request) (*Response, error) {
	if t.Endpoint == "" {
		return nil, ErrNoEndpoint
	}

	query := req.Query
	if query == "" && req.Document != nil {
		query = document.Print(req.Document)
	}

	payload, err := json.Marshal(graphQLBody{
		Query:         query,
		OperationName: req.OperationName,
		Variables:     req.Variables,
	})
	if err != nil {
		return nil, fmt.Errorf("transport: encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if t.Header != nil {
		t.Header(ctx, httpReq.Header)
	}

	resp, err := httpClient(t.Client).Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{Status: resp.StatusCode, Body: body}
	}

	var result graphQLResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, &MalformedResponseError{Status: resp.StatusCode, Err: err}
	}

	return &Response{
		Data:       result.Data,
		Errors:     result.Errors,
		StatusCode: resp.StatusCode,
	}, nil
}

func httpClient(c *http.Client) *http.Client {
	if c == nil {
		return http.DefaultClient
	}
	return c
}
