// Package control drives a networked camera over its HTTP command
// surface. Every command is a single GET request answered with a status
// code and, for queries, a small JSON body. Commands are never retried
// here; callers own that decision.
package control

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const defaultCommandTimeout = 3 * time.Second

// Endpoint identifies one camera's control surface. It is a value type
// fixed at client construction; there is no shared mutable endpoint.
type Endpoint struct {
	Host string
	Port int
}

func (e Endpoint) Validate() error {
	if strings.TrimSpace(e.Host) == "" {
		return fmt.Errorf("%w: empty host", ErrInvalidEndpoint)
	}
	if e.Port <= 0 || e.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrInvalidEndpoint, e.Port)
	}
	return nil
}

func (e Endpoint) String() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

// Client issues commands against one camera endpoint.
type Client struct {
	endpoint Endpoint
	httpc    *http.Client
	timeout  time.Duration
}

func NewClient(endpoint Endpoint, timeout time.Duration) (*Client, error) {
	if err := endpoint.Validate(); err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = defaultCommandTimeout
	}
	return &Client{
		endpoint: endpoint,
		httpc:    &http.Client{},
		timeout:  timeout,
	}, nil
}

func (c *Client) Endpoint() Endpoint { return c.endpoint }

// Result is the raw outcome of one command.
type Result struct {
	Status int
	Body   []byte
}

func (c *Client) invoke(ctx context.Context, path string, query url.Values) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	target := url.URL{
		Scheme:   "http",
		Host:     c.endpoint.String(),
		Path:     path,
		RawQuery: query.Encode(),
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return Result{}, &CommandError{Path: path, Err: err}
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return Result{}, &CommandError{Path: path, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Result{}, &CommandError{Path: path, Err: err}
	}

	res := Result{Status: resp.StatusCode, Body: body}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return res, &CommandError{Path: path, Status: resp.StatusCode}
	}
	return res, nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	res, err := c.invoke(ctx, path, query)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(res.Body, out); err != nil {
		return &CommandError{Path: path, Err: fmt.Errorf("decode body: %w", err)}
	}
	return nil
}
