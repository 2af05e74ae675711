package rpc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/roach88/schemarepl/internal/diag"
	"github.com/roach88/schemarepl/internal/ir"
)

// DefaultConnectTimeout bounds establishing the TCP connection.
const DefaultConnectTimeout = time.Second

// DefaultCallTimeout bounds a whole round trip, including the server's
// computation.
const DefaultCallTimeout = 30 * time.Second

// maxReplyBytes caps how much of a reply body is read.
const maxReplyBytes = 4 << 20

// Client is the session's call channel.
//
// One keep-alive HTTP client is created eagerly; the first TCP connection is
// made lazily on the first Call and reused afterwards. Close releases idle
// connections.
//
// Thread-safety: Call may be used from multiple goroutines, but the session
// driver keeps at most one call outstanding.
type Client struct {
	endpoint       Endpoint
	schema         *ir.Schema
	schemaHash     string
	httpClient     *http.Client
	transport      *http.Transport
	ids            IDGenerator
	metrics        *Metrics
	logger         *slog.Logger
	connectTimeout time.Duration
	callTimeout    time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithConnectTimeout overrides DefaultConnectTimeout.
func WithConnectTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.connectTimeout = d
	}
}

// WithCallTimeout overrides DefaultCallTimeout.
func WithCallTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.callTimeout = d
	}
}

// WithIDGenerator sets the request id source. Default: UUIDv7Generator.
func WithIDGenerator(g IDGenerator) ClientOption {
	return func(c *Client) {
		c.ids = g
	}
}

// WithMetrics records every call on m.
func WithMetrics(m *Metrics) ClientOption {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithLogger sets the logger used for per-call debug records.
func WithLogger(l *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = l
	}
}

// NewClient creates a call channel for endpoint. The host is validated here,
// so an unusable address fails the session before any query is read.
func NewClient(endpoint Endpoint, schema *ir.Schema, opts ...ClientOption) (*Client, error) {
	if err := ValidateHost(endpoint.Host); err != nil {
		return nil, err
	}
	hash, err := ir.SchemaHash(schema)
	if err != nil {
		return nil, fmt.Errorf("new client: %w", err)
	}

	c := &Client{
		endpoint:       endpoint,
		schema:         schema,
		schemaHash:     hash,
		ids:            UUIDv7Generator{},
		logger:         slog.Default(),
		connectTimeout: DefaultConnectTimeout,
		callTimeout:    DefaultCallTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}

	dialer := &net.Dialer{Timeout: c.connectTimeout, KeepAlive: 30 * time.Second}
	c.transport = &http.Transport{
		DialContext:         dialer.DialContext,
		MaxIdleConns:        1,
		MaxIdleConnsPerHost: 1,
		IdleConnTimeout:     90 * time.Second,
	}
	c.httpClient = &http.Client{Transport: c.transport, Timeout: c.callTimeout}
	return c, nil
}

// Endpoint returns the configured endpoint.
func (c *Client) Endpoint() Endpoint {
	return c.endpoint
}

// SchemaHash returns the hash sent in X-Schema-Hash.
func (c *Client) SchemaHash() string {
	return c.schemaHash
}

// Call performs one round trip and returns the decoded return value together
// with the request id that was sent.
//
// Errors are *diag.Error with CodeServerError or CodeConnectionError; neither
// is session-fatal.
func (c *Client) Call(ctx context.Context, req ir.CallRequest) (ir.Value, string, error) {
	if req.Function == nil {
		return nil, "", errors.New("rpc call: request has no function")
	}
	body, err := ir.EncodeRequest(req)
	if err != nil {
		return nil, "", fmt.Errorf("rpc call: %w", err)
	}

	requestID := c.ids.Generate()
	fn := req.Function.Name
	start := time.Now()

	value, outcome, err := c.roundTrip(ctx, req.Function, requestID, body)
	elapsed := time.Since(start)
	c.metrics.observe(fn, outcome, elapsed.Seconds())

	c.logger.Debug("rpc call",
		"function", fn,
		"request_id", requestID,
		"outcome", outcome,
		"duration", elapsed,
	)
	return value, requestID, err
}

func (c *Client) roundTrip(ctx context.Context, fn *ir.FunctionDecl, requestID string, body []byte) (ir.Value, string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint.URL(), bytes.NewReader(body))
	if err != nil {
		return nil, OutcomeConnectionError, diag.Wrap(diag.CodeConnectionError, err,
			"connection error: %v", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Request-Id", requestID)
	httpReq.Header.Set("X-Schema-Hash", c.schemaHash)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, OutcomeConnectionError, diag.Wrap(diag.CodeConnectionError, err,
			"connection error: rpc response was not received from %s", c.endpoint.URL())
	}
	defer resp.Body.Close()

	reply, err := io.ReadAll(io.LimitReader(resp.Body, maxReplyBytes))
	if err != nil {
		return nil, OutcomeConnectionError, diag.Wrap(diag.CodeConnectionError, err,
			"connection error: reading reply: %v", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		value, err := ir.DecodeReply(reply, fn.Return, c.schema)
		if err != nil {
			return nil, OutcomeDecodeError, diag.Wrap(diag.CodeServerError, err,
				"malformed server reply for '%s': %v", fn.Name, err)
		}
		return value, OutcomeOK, nil

	case http.StatusBadRequest:
		msg := strings.TrimSpace(string(reply))
		if msg == "" {
			msg = "server error"
		}
		return nil, OutcomeServerError, diag.New(diag.CodeServerError, "%s", msg)

	default:
		return nil, OutcomeServerError, diag.New(diag.CodeServerError,
			"unexpected server answer (code %d)", resp.StatusCode)
	}
}

// Close releases idle connections. The client must not be used afterwards.
func (c *Client) Close() {
	c.transport.CloseIdleConnections()
}
