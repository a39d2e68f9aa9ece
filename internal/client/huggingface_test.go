package client

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"hf-dev-proxy/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Upstream: config.UpstreamConfig{
			TimeoutSeconds:  10,
			IdleConnections: 10,
		},
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestInferenceClient_Post(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %q, want POST", r.Method)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer hf_testtoken" {
			t.Errorf("Authorization = %q, want bearer token", got)
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != `{"inputs":"a chair"}` {
			t.Errorf("body = %q, want forwarded payload", string(body))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	c := NewInferenceClient(testConfig(), discardLogger(), nil)

	header := make(http.Header)
	header.Set("Authorization", "Bearer hf_testtoken")
	resp, err := c.Post(context.Background(), "shap-e", srv.URL, header, strings.NewReader(`{"inputs":"a chair"}`))
	if err != nil {
		t.Fatalf("Post() error = %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(body) != `{"status":"ok"}` {
		t.Errorf("body = %q, want %q", string(body), `{"status":"ok"}`)
	}
}

func TestInferenceClient_Post_Unreachable(t *testing.T) {
	c := NewInferenceClient(testConfig(), discardLogger(), nil)

	_, err := c.Post(context.Background(), "shap-e", "http://127.0.0.1:1/nonexistent", http.Header{}, http.NoBody)
	if err == nil {
		t.Fatal("Post() expected error for unreachable host, got nil")
	}
}

func TestInferenceClient_Post_CanceledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Simulate a slow upstream; the request should be canceled before this completes.
		time.Sleep(5 * time.Second)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewInferenceClient(testConfig(), discardLogger(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // cancel immediately

	_, err := c.Post(ctx, "shap-e", srv.URL, http.Header{}, http.NoBody)
	if err == nil {
		t.Fatal("Post() expected error for canceled context, got nil")
	}
}

func TestInferenceClient_Post_ErrorStatusIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewInferenceClient(testConfig(), discardLogger(), nil)

	resp, err := c.Post(context.Background(), "shap-e", srv.URL, http.Header{}, http.NoBody)
	if err != nil {
		t.Fatalf("Post() error = %v; an upstream error status is a response, not a failure", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("StatusCode = %d, want %d", resp.StatusCode, http.StatusServiceUnavailable)
	}
}
