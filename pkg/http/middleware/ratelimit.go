package middleware

import (
	"github.com/labstack/echo/v4"
)

// Allower decides whether key may proceed.
type Allower interface {
	Allow(key string) bool
}

// RateLimit hands requests to reject once the client IP runs out of tokens.
// Requests to the skip paths are never limited.
func RateLimit(limiter Allower, reject echo.HandlerFunc, skip ...string) echo.MiddlewareFunc {
	skipped := make(map[string]struct{}, len(skip))
	for _, p := range skip {
		skipped[p] = struct{}{}
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := skipped[c.Request().URL.Path]; ok {
				return next(c)
			}
			if !limiter.Allow(c.RealIP()) {
				return reject(c)
			}
			return next(c)
		}
	}
}
