package middleware

import (
	"context"
	"errors"

	"golang.org/x/time/rate"

	"erlnode/gen"
)

// RateLimitMiddleware rejects calls beyond a token-bucket budget. The
// rejection surfaces on the caller side as an exit with this reason.
func RateLimitMiddleware(r float64, burst int) Middleware {
	limiter := rate.NewLimiter(rate.Limit(r), burst)
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, call *gen.IncomingCall) (any, error) {
			if !limiter.Allow() {
				return nil, errors.New("rate limit exceeded")
			}
			return next(ctx, call)
		}
	}
}
