package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"hf-dev-proxy/internal/client"
	"hf-dev-proxy/internal/config"
	"hf-dev-proxy/internal/service"
)

func newTestHealthHandler(t *testing.T, cfg *config.Config) *HealthHandler {
	t.Helper()
	logger := discardLogger()
	c := client.NewInferenceClient(cfg, logger, nil)
	svc, err := service.NewProxyService(c, cfg, logger)
	if err != nil {
		t.Fatalf("NewProxyService: %v", err)
	}
	return NewHealthHandler(cfg, svc, "1.2.3")
}

func TestHealthz(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := newTestHealthHandler(t, testConfig())
	if err := h.Healthz(c); err != nil {
		t.Fatalf("Healthz() error = %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status = %q, want %q", body["status"], "ok")
	}
}

func TestStatus(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/proxy/status", http.NoBody)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	cfg := testConfig()
	cfg.Static = config.StaticConfig{Root: "."}
	h := newTestHealthHandler(t, cfg)
	if err := h.Status(c); err != nil {
		t.Fatalf("Status() error = %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var body struct {
		Status     string   `json:"status"`
		Version    string   `json:"version"`
		StaticRoot string   `json:"static_root"`
		Models     []string `json:"models"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.Status != "ok" {
		t.Errorf("body.status = %q, want %q", body.Status, "ok")
	}
	if body.Version != "1.2.3" {
		t.Errorf("body.version = %q, want %q", body.Version, "1.2.3")
	}
	if body.StaticRoot != "." {
		t.Errorf("body.static_root = %q, want %q", body.StaticRoot, ".")
	}
	want := []string{"point-e", "shap-e", "stable-diffusion"}
	if len(body.Models) != len(want) {
		t.Fatalf("body.models = %v, want %v", body.Models, want)
	}
	for i := range want {
		if body.Models[i] != want[i] {
			t.Errorf("body.models[%d] = %q, want %q", i, body.Models[i], want[i])
		}
	}
}
