package middleware

import (
	"context"

	"erlnode/gen"
)

// HandlerFunc runs one decoded call and produces its result. A non-nil error
// becomes an abnormal-termination reply on the caller side.
type HandlerFunc func(ctx context.Context, call *gen.IncomingCall) (any, error)

type Middleware func(next HandlerFunc) HandlerFunc

// Chain combines several middlewares into one, outermost first:
// Chain(A, B, C)(h) runs A around B around C around h.
func Chain(middlewares ...Middleware) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		for i := len(middlewares) - 1; i >= 0; i-- {
			next = middlewares[i](next)
		}
		return next
	}
}
