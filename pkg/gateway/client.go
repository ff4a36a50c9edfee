package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"motonomad-hq/gateway/pkg/telemetry/logging"
)

// maxLoggedBody caps how much of an unexpected body is written to logs.
const maxLoggedBody = 500

// Client issues chat completion requests to the gateway. It is safe for
// concurrent use; all calls share one pacer.
type Client struct {
	// config is the immutable configuration, with defaults applied
	config Config

	// http is the configured transport with identification headers and timeout
	http *http.Client

	// stream shares the transport settings of http but bounds only the wait
	// for response headers, so long streams are not cut off.
	stream *http.Client

	// headers are attached to every request issued through http
	headers http.Header

	logger  *slog.Logger
	clock   Clock
	pacer   *pacer
	metrics Metrics
	usage   UsageSink

	// consecutiveErrors counts retryable failures since the last success.
	consecutiveErrors atomic.Int64
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Its Timeout is
// overwritten with the configured timeout. Streams use a copy without the
// overall timeout; the header wait is bounded only when the transport is an
// *http.Transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger sets the logger used by the client.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics sets the metrics hook.
func WithMetrics(m Metrics) Option {
	return func(c *Client) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithUsageSink sets where per-call usage records are written.
func WithUsageSink(sink UsageSink) Option {
	return func(c *Client) {
		c.usage = sink
	}
}

// WithClock replaces the clock used for pacing and backoff.
func WithClock(clock Clock) Option {
	return func(c *Client) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// New creates a gateway client. It only fails on structurally invalid
// configuration; a missing API key or proxy URL is reported on each call
// instead, so applications start even when AI features are misconfigured.
func New(cfg Config, opts ...Option) (*Client, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	c := &Client{
		config:  cfg,
		http:    &http.Client{Transport: newTransport(cfg)},
		logger:  slog.Default().With("component", "gateway"),
		clock:   realClock{},
		metrics: nopMetrics{},
	}

	for _, opt := range opts {
		opt(c)
	}

	c.logger = logging.WithContextFields(c.logger)
	c.http.Timeout = cfg.Timeout
	c.stream = streamingClient(c.http, cfg.Timeout)
	c.pacer = newPacer(cfg.MaxConcurrentRequests, cfg.MinRequestDelay, c.clock)
	c.headers = c.buildHeaders()

	switch cfg.Mode {
	case ModeProxy:
		c.logger.Info("gateway client configured",
			"mode", cfg.modeLabel(),
			"proxy_url", cfg.ProxyURL,
		)
	default:
		if !cfg.HasAPIKey() {
			c.logger.Warn("gateway api key is not configured, AI features will not work",
				"hint", "set gateway.api_key or MOTONOMAD_GATEWAY_API_KEY",
			)
		}
		c.logger.Info("gateway client configured",
			"mode", cfg.modeLabel(),
			"base_url", cfg.BaseURL,
		)
	}

	return c, nil
}

// Config returns the client's configuration with defaults applied.
func (c *Client) Config() Config {
	return c.config
}

// ConsecutiveErrors returns the number of retryable failures observed since
// the last successful attempt.
func (c *Client) ConsecutiveErrors() int64 {
	return c.consecutiveErrors.Load()
}

// Close releases idle connections held by the client.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	c.stream.CloseIdleConnections()
	return nil
}

// newTransport returns a pooled transport sized for the configured concurrency.
func newTransport(cfg Config) *http.Transport {
	return &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: cfg.MaxConcurrentRequests,
		IdleConnTimeout:     90 * time.Second,
		ForceAttemptHTTP2:   true,
	}
}

// streamingClient derives the client used for SSE exchanges from base.
// http.Client.Timeout covers reading the body and would cap the total stream
// duration, so only ResponseHeaderTimeout is set.
func streamingClient(base *http.Client, headerTimeout time.Duration) *http.Client {
	rt := base.Transport
	if rt == nil {
		rt = http.DefaultTransport
	}
	if t, ok := rt.(*http.Transport); ok {
		t = t.Clone()
		t.ResponseHeaderTimeout = headerTimeout
		rt = t
	}
	return &http.Client{
		Transport:     rt,
		CheckRedirect: base.CheckRedirect,
		Jar:           base.Jar,
	}
}

// buildHeaders returns the headers attached to every request for the active mode.
func (c *Client) buildHeaders() http.Header {
	h := make(http.Header)
	h.Set("Content-Type", "application/json")
	h.Set("HTTP-Referer", c.config.HTTPReferer)
	h.Set("X-Title", c.config.AppTitle)

	switch c.config.Mode {
	case ModeProxy:
		if c.config.ProxyToken != "" {
			h.Set("Authorization", "Bearer "+c.config.ProxyToken)
		}
	default:
		if c.config.HasAPIKey() {
			h.Set("Authorization", "Bearer "+c.config.APIKey)
		}
	}
	return h
}

// SendCompletion sends a chat completion request and returns the complete
// response. Server errors and transport failures are retried with
// exponential backoff; every other failure is returned immediately.
func (c *Client) SendCompletion(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	if err := c.config.checkUsable(); err != nil {
		return nil, err
	}
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}

	ctx, logger := c.requestScope(ctx)
	start := c.clock.Now()

	resp, err := c.sendCompletion(ctx, logger, req)

	latency := c.clock.Now().Sub(start)
	c.finish(ctx, logger, req.Model, resp, err, latency)
	return resp, err
}

func (c *Client) sendCompletion(ctx context.Context, logger *slog.Logger, req *CompletionRequest) (*CompletionResponse, error) {
	if err := c.admit(ctx); err != nil {
		logger.InfoContext(ctx, "request cancelled while waiting for admission")
		return nil, err
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, &GatewayError{Message: "failed to marshal request", Cause: err}
	}

	return retry(ctx, c, logger, req.Model, func(ctx context.Context) (*CompletionResponse, error) {
		logger.InfoContext(ctx, "sending chat completion request",
			"model", req.Model,
			"mode", c.config.modeLabel(),
		)
		return c.doCompletion(ctx, logger, body)
	})
}

// doCompletion performs a single HTTP exchange. Status classification happens
// here so that only retryable kinds reach the retry loop as retryable.
func (c *Client) doCompletion(ctx context.Context, logger *slog.Logger, body []byte) (*CompletionResponse, error) {
	httpResp, err := c.post(ctx, c.http, c.config.completionsURL(), body)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, c.classifyResponse(ctx, logger, httpResp)
	}

	contentType := httpResp.Header.Get("Content-Type")
	logger.DebugContext(ctx, "response received", "content_type", contentType)

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, c.transportError(ctx, err)
	}

	if contentType != "" && !isJSONContentType(contentType) {
		preview := truncate(string(raw), maxLoggedBody)
		logger.ErrorContext(ctx, "received non-json response", "content_type", contentType, "body", preview)
		return nil, &ResponseValidationError{
			Message:        fmt.Sprintf("received non-json response (content-type: %s); this usually indicates an authentication or configuration error", contentType),
			ActualResponse: preview,
		}
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, &ResponseValidationError{Message: "received null response from api"}
	}

	var resp CompletionResponse
	if err := json.Unmarshal(trimmed, &resp); err != nil {
		return nil, &ResponseValidationError{
			Message:        "failed to decode completion response",
			ActualResponse: truncate(string(trimmed), maxLoggedBody),
			Cause:          err,
		}
	}

	return &resp, nil
}

// post issues a POST with the client's headers through hc.
func (c *Client) post(ctx context.Context, hc *http.Client, url string, body []byte) (*http.Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &GatewayError{Message: "failed to create request", Cause: err}
	}
	c.applyHeaders(httpReq)

	httpResp, err := hc.Do(httpReq)
	if err != nil {
		return nil, c.transportError(ctx, err)
	}
	return httpResp, nil
}

func (c *Client) applyHeaders(req *http.Request) {
	for key, values := range c.headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
}

// admit waits for a pacing permit.
func (c *Client) admit(ctx context.Context) error {
	waited, err := c.pacer.Wait(ctx)
	if err != nil {
		return err
	}
	if waited > 0 {
		c.metrics.ObservePacingWait(waited)
	}
	return nil
}

// transportError converts an HTTP client failure. Caller cancellation is
// returned as the context error so that it is never retried.
func (c *Client) transportError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	var netErr net.Error
	timeout := errors.As(err, &netErr) && netErr.Timeout()
	return &TransportError{Timeout: timeout, Cause: err}
}

// requestScope tags the context with a request id, reusing one already
// present. The client logger adds it to records logged with that context.
func (c *Client) requestScope(ctx context.Context) (context.Context, *slog.Logger) {
	if logging.GetRequestID(ctx) == "" {
		ctx = logging.WithRequestID(ctx, uuid.NewString())
	}
	return ctx, c.logger
}

// finish records metrics and usage for a completed call.
func (c *Client) finish(ctx context.Context, logger *slog.Logger, model string, resp *CompletionResponse, err error, latency time.Duration) {
	rec := UsageRecord{
		RequestID: logging.GetRequestID(ctx),
		Model:     model,
		Mode:      c.config.Mode,
		Latency:   latency,
		Outcome:   OutcomeSuccess,
		CreatedAt: c.clock.Now(),
	}

	if err != nil {
		kind := KindOf(err)
		rec.Outcome = OutcomeError
		rec.ErrorKind = kind
		c.metrics.ObserveError(model, kind)

		if kind == KindCanceled {
			logger.InfoContext(ctx, "request cancelled by caller")
		} else {
			logger.ErrorContext(ctx, "chat completion failed", "error_kind", kind.String(), "error", err)
		}
	} else {
		rec.ResponseID = resp.ID
		if resp.Model != "" {
			rec.Model = resp.Model
		}
		if resp.Usage != nil {
			rec.Usage = *resp.Usage
			c.metrics.ObserveTokens(model, *resp.Usage)
		}
		logger.InfoContext(ctx, "received chat completion",
			"response_id", resp.ID,
			"total_tokens", rec.Usage.TotalTokens,
			"latency", latency,
		)
	}

	c.metrics.ObserveRequest(model, rec.Outcome, latency)

	if c.usage != nil {
		// The caller's cancellation must not drop the usage record.
		if uerr := c.usage.RecordUsage(context.WithoutCancel(ctx), rec); uerr != nil {
			logger.WarnContext(ctx, "failed to record usage", "error", uerr)
		}
	}
}

func isJSONContentType(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.Contains(contentType, "application/json")
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
