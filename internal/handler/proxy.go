package handler

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"regexp"

	"github.com/labstack/echo/v4"

	"hf-dev-proxy/internal/model"
	"hf-dev-proxy/internal/service"
)

// relayChunkSize is the buffer size used when streaming the upstream body
// back to the caller.
const relayChunkSize = 8 * 1024

// tokenPattern matches Hugging Face tokens that could leak through error
// messages.
var tokenPattern = regexp.MustCompile(`hf_[A-Za-z0-9]{8,}`)

// maxDiscardedErrorBody bounds how much of an upstream error body is drained
// before the connection is released back to the pool.
const maxDiscardedErrorBody = 64 * 1024

// ProxyHandler forwards inference requests to the Hugging Face API.
type ProxyHandler struct {
	service *service.ProxyService
	logger  *slog.Logger
}

// NewProxyHandler creates a ProxyHandler.
func NewProxyHandler(svc *service.ProxyService, logger *slog.Logger) *ProxyHandler {
	return &ProxyHandler{
		service: svc,
		logger:  logger.With("component", "proxy_handler"),
	}
}

// Handle proxies a POST /api/hf/:model request upstream and streams the
// response back. The model segment is resolved against the fixed route
// table; requests with a missing or unknown model are rejected with 400
// before any upstream call.
func (h *ProxyHandler) Handle(c echo.Context) error {
	req := c.Request()

	name := c.Param("model")
	if name == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Invalid API path",
		})
	}

	// Read exactly the declared Content-Length; a missing or chunked length
	// is treated as an empty body rather than blocking on the stream.
	length := req.ContentLength
	if length < 0 {
		length = 0
	}
	body, err := io.ReadAll(io.LimitReader(req.Body, length))
	if err != nil {
		return h.proxyError(c, err)
	}

	pr := &model.ProxyRequest{
		Ctx:   req.Context(),
		Model: name,
		Body:  bytes.NewReader(body),
	}

	resp, err := h.service.Forward(pr)
	if err != nil {
		return h.mapError(c, err)
	}
	defer func() { _ = resp.Body.Close() }()

	// The Python-era upstream contract: any error status becomes a small
	// structured JSON body instead of a verbatim relay.
	if resp.StatusCode >= http.StatusBadRequest {
		return h.upstreamError(c, resp)
	}

	for key, vals := range resp.Header {
		for _, v := range vals {
			c.Response().Header().Add(key, v)
		}
	}

	c.Response().WriteHeader(resp.StatusCode)

	// Stream the upstream body through in fixed-size chunks, byte for byte.
	// If the copy fails mid-stream the status line is already on the wire,
	// so the caller sees a truncated body; all we can do is log it.
	buf := make([]byte, relayChunkSize)
	if _, err := io.CopyBuffer(c.Response(), resp.Body, buf); err != nil {
		h.logger.Error("streaming response body",
			"err", sanitizeError(err),
			"model", name,
		)
	}

	return nil
}

// upstreamError converts an upstream error status into the structured JSON
// error envelope. The upstream's own error body is discarded.
func (h *ProxyHandler) upstreamError(c echo.Context, resp *model.ProxyResponse) error {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDiscardedErrorBody))

	h.logger.Warn("upstream error status",
		"status", resp.StatusCode,
		"path", c.Request().URL.Path,
	)

	return c.JSON(resp.StatusCode, model.ErrorResponse{
		Error:  "Hugging Face API error: " + http.StatusText(resp.StatusCode),
		Status: resp.StatusCode,
	})
}

func (h *ProxyHandler) mapError(c echo.Context, err error) error {
	var unknown *service.UnknownModelError
	if errors.As(err, &unknown) {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Unknown model: " + unknown.Model,
		})
	}

	return h.proxyError(c, err)
}

// proxyError answers any transport-level or unexpected failure with 500 and
// a "Proxy error: " message. Failures never propagate past the handler.
func (h *ProxyHandler) proxyError(c echo.Context, err error) error {
	msg := sanitizeError(err)

	h.logger.Error("proxy error",
		"err", msg,
		"path", c.Request().URL.Path,
	)

	return c.JSON(http.StatusInternalServerError, map[string]string{
		"error": "Proxy error: " + msg,
	})
}

// sanitizeError redacts anything token-shaped from error text before it
// reaches logs or response bodies.
func sanitizeError(err error) string {
	return tokenPattern.ReplaceAllString(err.Error(), "hf_[REDACTED]")
}
