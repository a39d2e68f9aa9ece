// Package model defines shared types for the proxy.
package model

import (
	"context"
	"io"
	"net/http"
)

// ProxyRequest represents a client inference request to be forwarded upstream.
type ProxyRequest struct {
	Ctx   context.Context
	Model string
	Body  io.Reader
}

// ProxyResponse represents the upstream response to be streamed back.
type ProxyResponse struct {
	StatusCode int
	Header     http.Header
	Body       io.ReadCloser
}

// ErrorResponse is the JSON body sent when the upstream answers with an
// error status.
type ErrorResponse struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}
