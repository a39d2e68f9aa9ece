// Package service implements the core proxy forwarding logic.
package service

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sort"

	"hf-dev-proxy/internal/client"
	"hf-dev-proxy/internal/config"
	"hf-dev-proxy/internal/model"
)

// defaultModelRoutes maps logical model names to their Hugging Face
// inference endpoints. The table is fixed for the process lifetime; adding a
// model means adding a line here.
var defaultModelRoutes = map[string]string{
	"shap-e":           "https://api-inference.huggingface.co/models/openai/shap-e",
	"point-e":          "https://api-inference.huggingface.co/models/openai/point-e",
	"stable-diffusion": "https://api-inference.huggingface.co/models/stabilityai/stable-diffusion-2",
}

// allowedUpstreamHosts restricts which hosts the proxy will forward to.
var allowedUpstreamHosts = map[string]bool{
	"api-inference.huggingface.co": true,
}

// strippedResponseHeaders are transport-layer headers of the upstream hop
// that must not reach the downstream caller. Everything else is relayed.
var strippedResponseHeaders = map[string]bool{
	"Connection":        true,
	"Transfer-Encoding": true,
}

const userAgent = "hf-dev-proxy/1.0"

// UnknownModelError reports a model name that is not in the route table.
type UnknownModelError struct {
	Model string
}

func (e *UnknownModelError) Error() string {
	return fmt.Sprintf("unknown model %q", e.Model)
}

// ProxyService resolves model names and forwards inference requests upstream.
type ProxyService struct {
	client *client.InferenceClient
	cfg    *config.Config
	logger *slog.Logger
	routes map[string]string
}

// NewProxyService creates a ProxyService over the built-in model route table.
func NewProxyService(c *client.InferenceClient, cfg *config.Config, logger *slog.Logger) (*ProxyService, error) {
	for name, endpoint := range defaultModelRoutes {
		u, err := url.Parse(endpoint)
		if err != nil {
			return nil, fmt.Errorf("parse endpoint for model %q: %w", name, err)
		}
		if u.Scheme != "https" {
			return nil, fmt.Errorf("endpoint for model %q must use HTTPS; got %q", name, endpoint)
		}
		if !allowedUpstreamHosts[u.Hostname()] {
			return nil, fmt.Errorf("endpoint host %q for model %q is not in the allowlist", u.Hostname(), name)
		}
	}

	return &ProxyService{
		client: c,
		cfg:    cfg,
		logger: logger.With("component", "proxy_service"),
		routes: defaultModelRoutes,
	}, nil
}

// NewProxyServiceForTest creates a ProxyService with a caller-supplied route
// table and no host allowlist validation. This is intended only for tests
// that use httptest servers on localhost.
func NewProxyServiceForTest(c *client.InferenceClient, cfg *config.Config, logger *slog.Logger, routes map[string]string) *ProxyService {
	return &ProxyService{
		client: c,
		cfg:    cfg,
		logger: logger.With("component", "proxy_service"),
		routes: routes,
	}
}

// Models returns the logical model names in the route table, sorted.
func (s *ProxyService) Models() []string {
	names := make([]string, 0, len(s.routes))
	for name := range s.routes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Forward resolves the model, sends the request body upstream with the
// bearer credential injected, and returns the upstream response with
// transport-layer headers stripped. The caller is responsible for closing
// the response body. An *UnknownModelError is returned without any upstream
// call when the model is not in the route table.
func (s *ProxyService) Forward(pr *model.ProxyRequest) (*model.ProxyResponse, error) {
	endpoint, ok := s.routes[pr.Model]
	if !ok {
		return nil, &UnknownModelError{Model: pr.Model}
	}

	s.logger.Debug("forwarding request", "model", pr.Model)

	resp, err := s.client.Post(pr.Ctx, pr.Model, endpoint, s.upstreamHeaders(), pr.Body)
	if err != nil {
		return nil, fmt.Errorf("forward to upstream: %w", err)
	}

	resp.Header = filterResponseHeaders(resp.Header)
	return resp, nil
}

// upstreamHeaders builds the fixed header set sent with every upstream call.
// Client headers are never forwarded; the upstream contract is JSON in,
// bearer-authenticated.
func (s *ProxyService) upstreamHeaders() http.Header {
	h := make(http.Header)
	h.Set("Content-Type", "application/json")
	h.Set("Authorization", "Bearer "+s.cfg.HuggingFace.Token)
	h.Set("User-Agent", userAgent)
	return h
}

// filterResponseHeaders copies every upstream response header except the
// transport-layer ones of the upstream hop.
func filterResponseHeaders(src http.Header) http.Header {
	dst := make(http.Header)
	for key, vals := range src {
		if strippedResponseHeaders[http.CanonicalHeaderKey(key)] {
			continue
		}
		dst[key] = vals
	}
	return dst
}
