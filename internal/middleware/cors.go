// Package middleware provides Echo middleware for CORS, logging, metrics,
// and header hygiene.
package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// CORS header values sent on every response. Always wildcard: the server is
// a local dev tool and origin reflection would buy nothing.
const (
	corsAllowOrigin  = "*"
	corsAllowMethods = "GET, POST, OPTIONS"
	corsAllowHeaders = "Content-Type, Authorization"
)

// CORS returns an Echo middleware that sets permissive CORS headers on every
// response, including errors from later middleware and handlers. OPTIONS
// requests are answered immediately with 200 and an empty body; no further
// dispatch happens for preflights.
func CORS() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			h.Set(echo.HeaderAccessControlAllowOrigin, corsAllowOrigin)
			h.Set(echo.HeaderAccessControlAllowMethods, corsAllowMethods)
			h.Set(echo.HeaderAccessControlAllowHeaders, corsAllowHeaders)

			if c.Request().Method == http.MethodOptions {
				return c.NoContent(http.StatusOK)
			}

			return next(c)
		}
	}
}
