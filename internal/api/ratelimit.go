package api

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// rateLimitRefresh is a huma middleware limiting refresh calls per client IP.
// chi's RealIP middleware has already resolved forwarded addresses, so the
// remote address is the best available key.
func (s *Server) rateLimitRefresh(ctx huma.Context, next func(huma.Context)) {
	key := stripPort(ctx.RemoteAddr())

	if !s.limiter.Allow(key) {
		s.logger.Warn("refresh rate limit exceeded", "ip", key)
		_ = huma.WriteErr(s.api, ctx, http.StatusTooManyRequests,
			"Too many refresh requests. Please try again later.")
		return
	}

	next(ctx)
}

// stripPort drops the :port suffix from a host:port remote address.
func stripPort(addr string) string {
	for i := len(addr) - 1; i >= 0; i-- {
		if addr[i] == ':' {
			return addr[:i]
		}
	}
	return addr
}
