package middleware

import (
	"context"
	"log"
	"time"

	"erlnode/gen"
)

func LoggingMiddleware() Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, call *gen.IncomingCall) (any, error) {
			start := time.Now()
			result, err := next(ctx, call)
			// Log the call target and how long the handler took; failures get
			// their own line since they turn into exit replies.
			duration := time.Since(start)
			log.Printf("Call: %s:%s/%d, Duration: %s", call.ModName(), call.FunName(), len(call.Args()), duration)
			if err != nil {
				log.Printf("Error: %s", err)
			}
			return result, err
		}
	}
}
