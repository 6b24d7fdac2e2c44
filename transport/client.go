// Package transport sends composed documents to the indexing service over
// HTTP and decodes the answers. Failures fall in two categories kept apart by
// the error values: the indexer rejecting a query (RemoteError) and the
// request not completing (ErrTransport). A query matching nothing is not an
// error.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequestIDHeader carries the per-request id.
const RequestIDHeader = "X-Request-ID"

// maxResponseSize bounds how much of a response body is read.
const maxResponseSize = 16 << 20

// Client executes documents against an indexer endpoint. It is safe for
// concurrent use.
type Client struct {
	endpoint   string
	httpClient *http.Client
	cache      Cache
	cacheTTL   time.Duration
	logger     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient = &http.Client{Timeout: d} }
}

// WithCache enables response caching.
func WithCache(cache Cache, ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = cache
		c.cacheTTL = ttl
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a client for the GraphQL endpoint.
func NewClient(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type request struct {
	Query string `json:"query"`
}

type response struct {
	Data   json.RawMessage `json:"data"`
	Errors []GraphQLError  `json:"errors"`
}

// Do posts doc and decodes the data member of the response into out, which
// may be nil.
func (c *Client) Do(ctx context.Context, doc string, out any) error {
	key := CacheKey(doc)
	if data, ok := c.cacheGet(ctx, key); ok {
		RequestsTotal.WithLabelValues(outcomeCacheHit).Inc()
		return decodeData(data, out)
	}

	start := time.Now()
	data, err := c.roundTrip(ctx, doc)
	outcome := outcomeOK
	switch {
	case IsRemoteRejection(err):
		outcome = outcomeRemote
	case err != nil:
		outcome = outcomeTransport
	}
	elapsed := time.Since(start)
	RequestsTotal.WithLabelValues(outcome).Inc()
	RequestDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())

	if err != nil {
		c.logger.Warn("Indexer request failed",
			zap.String("outcome", outcome),
			zap.Duration("elapsed", elapsed),
			zap.Error(err))
		return err
	}
	c.logger.Debug("Indexer request completed", zap.Duration("elapsed", elapsed))

	c.cacheSet(ctx, key, data)
	return decodeData(data, out)
}

func (c *Client) roundTrip(ctx context.Context, doc string) (json.RawMessage, error) {
	body, err := json.Marshal(request{Query: doc})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to encode request: %w", ErrTransport, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %w", ErrTransport, err)
	}
	requestID := uuid.New().String()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: request %s failed: %w", ErrTransport, requestID, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %w", ErrTransport, err)
	}

	var decoded response
	decodeErr := json.Unmarshal(raw, &decoded)
	if decodeErr == nil && len(decoded.Errors) > 0 {
		return nil, &RemoteError{StatusCode: resp.StatusCode, Errors: decoded.Errors}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, transportError("unexpected status %d", resp.StatusCode)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("%w: invalid response body: %w", ErrTransport, decodeErr)
	}
	return decoded.Data, nil
}

func (c *Client) cacheGet(ctx context.Context, key string) (json.RawMessage, bool) {
	if c.cache == nil {
		return nil, false
	}
	data, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		CacheErrorsTotal.WithLabelValues("get").Inc()
		c.logger.Warn("Cache read failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return data, ok
}

func (c *Client) cacheSet(ctx context.Context, key string, data json.RawMessage) {
	if c.cache == nil || len(data) == 0 {
		return
	}
	if err := c.cache.Set(ctx, key, data, c.cacheTTL); err != nil {
		CacheErrorsTotal.WithLabelValues("set").Inc()
		c.logger.Warn("Cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func decodeData(data json.RawMessage, out any) error {
	if out == nil || len(data) == 0 || string(data) == "null" {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: failed to decode data: %w", ErrTransport, err)
	}
	return nil
}
