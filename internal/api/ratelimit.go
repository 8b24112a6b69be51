package api

import (
	"net"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

// rateLimitAuth throttles an operation per client IP using the server's auth
// limiter. Returns 429 Too Many Requests when the bucket is empty.
func (s *Server) rateLimitAuth(ctx huma.Context, next func(huma.Context)) {
	key := clientIP(ctx)
	if !s.authRateLimiter.Allow(key) {
		s.logger.Warn("Rate limit exceeded",
			"ip", key,
			"operation", ctx.Operation().OperationID,
		)
		_ = huma.WriteErr(s.api, ctx, http.StatusTooManyRequests, "Too many requests. Please try again later.")
		return
	}
	next(ctx)
}

// clientIP extracts the client IP for rate limiting.
// Checks X-Forwarded-For and X-Real-IP before falling back to the remote address.
func clientIP(ctx huma.Context) string {
	if xff := ctx.Header("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}

	if xri := ctx.Header("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	addr := ctx.RemoteAddr()
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
