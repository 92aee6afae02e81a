package graphql

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jamesprial/issue-mcp/internal/config"
)

const defaultTimeout = 30 * time.Second

// HTTPClient is a concrete implementation of the Client interface that sends
// GraphQL requests over HTTP using the standard library net/http package.
type HTTPClient struct {
	httpClient *http.Client
	graphqlURL string
	apiKey     string
	alerter    Alerter
	logger     *slog.Logger
}

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithAlerter sets the Alerter that Fetch reports failures to.
func WithAlerter(a Alerter) Option {
	return func(c *HTTPClient) { c.alerter = a }
}

// WithLogger sets the logger used for request-level debug output.
func WithLogger(l *slog.Logger) Option {
	return func(c *HTTPClient) { c.logger = l }
}

// WithHTTPClient replaces the underlying *http.Client. The configured
// timeout is not applied to a caller-supplied client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) { c.httpClient = hc }
}

// NewHTTPClient constructs an HTTPClient from the provided GraphQLConfig.
// It returns an error if cfg.URL is empty. When cfg.Timeout is zero or
// negative, a default timeout of 30 seconds is used. Without WithAlerter,
// alerts go to the client's logger.
func NewHTTPClient(cfg config.GraphQLConfig, opts ...Option) (*HTTPClient, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("graphql: URL is required")
	}

	timeout := time.Duration(cfg.Timeout) * time.Second
	if cfg.Timeout <= 0 {
		timeout = defaultTimeout
	}

	c := &HTTPClient{
		httpClient: &http.Client{Timeout: timeout},
		graphqlURL: normalizeURL(cfg.URL),
		apiKey:     cfg.APIKey,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.alerter == nil {
		c.alerter = LogAlerter(c.logger)
	}
	return c, nil
}

// normalizeURL trims any trailing slash from rawURL and appends /graphql if
// the path does not already end with that suffix.
func normalizeURL(rawURL string) string {
	u := strings.TrimRight(rawURL, "/")
	if !strings.HasSuffix(u, "/graphql") {
		u += "/graphql"
	}
	return u
}

// Do posts query and variables to the configured endpoint and returns the
// date-revived "data" payload of the response.
//
// The returned error is either a *ResponseError built from the first entry
// of the response's errors list, in which case data is still returned, or a
// *TransportError when the request could not be sent or the body was not
// JSON, in which case data is nil. HTTP status codes are not inspected:
// servers report validation failures with a 4xx status and a normal
// envelope.
func (c *HTTPClient) Do(ctx context.Context, query string, variables map[string]any) (any, error) {
	bodyBytes, err := json.Marshal(Request{
		Query:     query,
		Variables: encodeVariables(variables),
	})
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.graphqlURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Err: unwrapURLError(err)}
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	c.logger.Debug("graphql response",
		"url", c.graphqlURL,
		"status", resp.StatusCode,
		"bytes", len(raw),
		"duration", time.Since(start),
	)

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, &TransportError{Err: err}
	}

	return ReviveDates(env.Data), classify(env.Errors)
}

// Fetch calls Do and hands any error's text to the client's Alerter. It
// never returns an error: callers treat a nil result as "no usable data".
func (c *HTTPClient) Fetch(ctx context.Context, query string, variables map[string]any) any {
	return FetchWith(ctx, c, c.alerter, query, variables)
}

// FetchWith is Fetch for an arbitrary Client and Alerter. A nil alerter
// drops alerts.
func FetchWith(ctx context.Context, client Client, alerter Alerter, query string, variables map[string]any) any {
	data, err := client.Do(ctx, query, variables)
	if err != nil && alerter != nil {
		alerter.Alert(err.Error())
	}
	return data
}

// unwrapURLError strips the method and URL that net/http prefixes onto
// transport errors so the alert carries only the underlying cause.
func unwrapURLError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		return urlErr.Err
	}
	return err
}
