package middleware

import (
	"context"
	"errors"
	"testing"
	"time"

	"erlnode/gen"
	"erlnode/term"
)

func testCall() *gen.IncomingCall {
	return &gen.IncomingCall{
		ReplyContext: gen.ReplyContext{NodeName: "svc@local"},
		Mod:          term.Atom("kv"),
		Fun:          term.Atom("get"),
		CallArgs:     []any{"k"},
	}
}

// Plain handler: echoes the first argument back
func echoHandler(ctx context.Context, call *gen.IncomingCall) (any, error) {
	return call.Args()[0], nil
}

// Slow handler: sleeps 200ms
func slowHandler(ctx context.Context, call *gen.IncomingCall) (any, error) {
	time.Sleep(200 * time.Millisecond)
	return term.Atom("ok"), nil
}

func TestLogging(t *testing.T) {
	handler := LoggingMiddleware()(echoHandler)

	result, err := handler(context.Background(), testCall())
	if err != nil {
		t.Fatalf("expect no error, got %v", err)
	}
	if result != any("k") {
		t.Fatalf("expect result 'k', got %v", result)
	}
}

func TestLoggingPassesError(t *testing.T) {
	failing := func(ctx context.Context, call *gen.IncomingCall) (any, error) {
		return nil, errors.New("boom")
	}
	handler := LoggingMiddleware()(failing)

	if _, err := handler(context.Background(), testCall()); err == nil {
		t.Fatal("handler error must pass through the logging middleware")
	}
}

func TestTimeoutPass(t *testing.T) {
	// 500ms budget, fast handler — goes through
	handler := TimeoutMiddleware(500 * time.Millisecond)(echoHandler)

	if _, err := handler(context.Background(), testCall()); err != nil {
		t.Fatalf("expect no error, got %v", err)
	}
}

func TestTimeoutExceeded(t *testing.T) {
	// 50ms budget, handler needs 200ms — times out
	handler := TimeoutMiddleware(50 * time.Millisecond)(slowHandler)

	_, err := handler(context.Background(), testCall())
	if err == nil || err.Error() != "call timed out" {
		t.Fatalf("expect timeout error, got %v", err)
	}
}

func TestRateLimit(t *testing.T) {
	// rate=1/s, burst=2 → first 2 pass immediately, 3rd is rejected
	handler := RateLimitMiddleware(1, 2)(echoHandler)

	for i := 0; i < 2; i++ {
		if _, err := handler(context.Background(), testCall()); err != nil {
			t.Fatalf("call %d should pass, got error: %v", i, err)
		}
	}

	_, err := handler(context.Background(), testCall())
	if err == nil || err.Error() != "rate limit exceeded" {
		t.Fatalf("call 3 should be rate limited, got: %v", err)
	}
}

func TestChain(t *testing.T) {
	// Logging + Timeout combined: the call passes through both layers
	chained := Chain(LoggingMiddleware(), TimeoutMiddleware(500*time.Millisecond))
	handler := chained(echoHandler)

	result, err := handler(context.Background(), testCall())
	if err != nil {
		t.Fatalf("expect no error, got %v", err)
	}
	if result != any("k") {
		t.Fatalf("expect result 'k', got %v", result)
	}
}

func TestChainOrder(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next HandlerFunc) HandlerFunc {
			return func(ctx context.Context, call *gen.IncomingCall) (any, error) {
				order = append(order, name)
				return next(ctx, call)
			}
		}
	}

	handler := Chain(mark("outer"), mark("inner"))(echoHandler)
	if _, err := handler(context.Background(), testCall()); err != nil {
		t.Fatal(err)
	}
	if len(order) != 2 || order[0] != "outer" || order[1] != "inner" {
		t.Fatalf("middlewares ran out of order: %v", order)
	}
}
