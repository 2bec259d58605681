// Package remote is the HTTP client for the back-office API. It implements
// the domain-side interfaces (checkout gateway, product and customer
// repositories, report service); all persistence lives behind it.
package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// apiPrefix is where the back office mounts its versioned API.
const apiPrefix = "/api/v1"

// Config holds client settings.
type Config struct {
	// BaseURL is the back-office server root, without the API prefix.
	BaseURL string
	// Token is attached as a bearer token on every request.
	Token string
	// Timeout bounds each request; defaults to 30s.
	Timeout time.Duration
}

// Client talks to the back-office API.
type Client struct {
	base  *url.URL
	token string
	http  *http.Client
}

// NewClient validates the configuration and returns a ready client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("back-office base URL is required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, errors.Wrap(err, "parse base URL")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		base:  base,
		token: cfg.Token,
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}, nil
}

// APIError is a non-2xx response from the back office.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backoffice: status %d", e.StatusCode)
	}
	return fmt.Sprintf("backoffice: status %d: %s", e.StatusCode, e.Message)
}

// Ping checks back-office reachability via its health endpoint.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base.JoinPath("/health").String(), nil)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "health request")
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return &APIError{StatusCode: resp.StatusCode}
	}
	return nil
}

// call performs one API request and returns the response body. Non-2xx
// responses become *APIError with the back office's detail message.
func (c *Client) call(ctx context.Context, method, path string, query url.Values, body []byte, header http.Header) ([]byte, error) {
	u := c.base.JoinPath(apiPrefix, path)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), rd)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read response")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    errorDetail(data),
		}
	}
	return data, nil
}

// errorDetail extracts the "detail" field from an error body, if any.
func errorDetail(data []byte) string {
	var detail string
	d := jx.DecodeBytes(data)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		if key == "detail" && d.Next() == jx.String {
			v, err := d.Str()
			if err != nil {
				return err
			}
			detail = v
			return nil
		}
		return d.Skip()
	}); err != nil {
		return ""
	}
	return detail
}
