// Package client provides the upstream HTTP client for the Hugging Face
// Inference API.
package client

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"hf-dev-proxy/internal/config"
	"hf-dev-proxy/internal/metrics"
	"hf-dev-proxy/internal/model"
)

// InferenceClient sends requests to the upstream Hugging Face Inference API.
type InferenceClient struct {
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// NewInferenceClient creates an InferenceClient with connection pooling and a
// bounded overall timeout. The metrics parameter is optional; pass nil to
// disable upstream metrics recording.
func NewInferenceClient(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) *InferenceClient {
	transport := &http.Transport{
		MaxIdleConns:        cfg.Upstream.IdleConnections,
		MaxIdleConnsPerHost: cfg.Upstream.IdleConnections,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}

	return &InferenceClient{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   time.Duration(cfg.Upstream.TimeoutSeconds) * time.Second,
		},
		logger:  logger.With("component", "inference_client"),
		metrics: m,
	}
}

// Post sends the body to the given inference endpoint and returns the raw
// response. The caller is responsible for closing the response body. The
// provided context controls the lifetime of the upstream request: when it is
// canceled (e.g. the browser disconnects), the upstream call is canceled too.
//
// The modelName is used only as a metrics label; the target URL is already
// resolved by the caller.
func (c *InferenceClient) Post(ctx context.Context, modelName, url string, header http.Header, body io.Reader) (*model.ProxyResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, fmt.Errorf("build upstream request: %w", err)
	}
	req.Header = header

	c.logger.Debug("upstream request",
		"model", modelName,
		"url", url,
	)

	start := time.Now()
	resp, err := c.httpClient.Do(req) //nolint:bodyclose // body ownership transfers to caller via ProxyResponse
	duration := time.Since(start).Seconds()

	if c.metrics != nil {
		c.metrics.UpstreamDuration.WithLabelValues(modelName).Observe(duration)
	}

	if err != nil {
		return nil, fmt.Errorf("upstream request: %w", err)
	}

	if c.metrics != nil {
		c.metrics.UpstreamResponses.WithLabelValues(modelName, strconv.Itoa(resp.StatusCode)).Inc()
	}

	return &model.ProxyResponse{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       resp.Body,
	}, nil
}
