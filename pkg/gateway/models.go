package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
)

// GetAvailableModels lists the models offered by the active gateway. A
// response without a data field yields an empty, non-nil slice.
func (c *Client) GetAvailableModels(ctx context.Context) ([]ModelInfo, error) {
	ctx, logger := c.requestScope(ctx)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.modelsURL(), nil)
	if err != nil {
		return nil, &GatewayError{Message: "failed to create request", Cause: err}
	}
	c.applyHeaders(httpReq)
	httpReq.Header.Del("Content-Type")

	logger.InfoContext(ctx, "fetching available models", "mode", c.config.modeLabel())

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, c.transportError(ctx, err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, c.classifyResponse(ctx, logger, httpResp)
	}

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, c.transportError(ctx, err)
	}

	var list modelsResponse
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, &GatewayError{
			Message: "failed to decode models response",
			Body:    truncate(string(raw), maxLoggedBody),
			Cause:   err,
		}
	}

	if list.Data == nil {
		list.Data = []ModelInfo{}
	}

	logger.InfoContext(ctx, "retrieved available models", "count", len(list.Data))
	return list.Data, nil
}

// ValidateAPIKey probes the provider with a minimal completion using key. It
// never returns an error: any failure, including an empty key, reports false.
// The probe uses its own transport, so it bypasses pacing, retries, the
// connection pool and the client's credentials.
func (c *Client) ValidateAPIKey(ctx context.Context, key string) bool {
	key = strings.TrimSpace(key)
	if key == "" {
		return false
	}

	probe := CompletionRequest{
		Model:     c.config.ProbeModel,
		Messages:  []Message{UserMessage("test")},
		MaxTokens: Ptr(1),
	}
	body, err := json.Marshal(probe)
	if err != nil {
		return false
	}

	url := strings.TrimRight(c.config.BaseURL, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return false
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+key)
	httpReq.Header.Set("HTTP-Referer", c.config.HTTPReferer)
	httpReq.Header.Set("X-Title", c.config.AppTitle)

	transport := newTransport(c.config)
	defer transport.CloseIdleConnections()
	probeClient := &http.Client{
		Timeout:   c.config.ProbeTimeout,
		Transport: transport,
	}

	httpResp, err := probeClient.Do(httpReq)
	if err != nil {
		c.logger.WarnContext(ctx, "api key probe failed", "error", err)
		return false
	}
	defer httpResp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(httpResp.Body, maxErrorBody))

	valid := httpResp.StatusCode >= 200 && httpResp.StatusCode < 300
	c.logger.InfoContext(ctx, "api key probe finished", "status", httpResp.StatusCode, "valid", valid)
	return valid
}
