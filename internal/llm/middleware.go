package llm

import (
	"context"
	"encoding/json"
	"log"
	"time"
)

// Middleware decorates a Client to inject cross-cutting concerns
// (rate limiting, retries, logging).
type Middleware func(Client) Client

// Wrap applies middlewares in left-to-right order.
// Example: Wrap(inner, A, B) => A(B(inner))
func Wrap(inner Client, mws ...Middleware) Client {
	out := inner
	for i := len(mws) - 1; i >= 0; i-- {
		out = mws[i](out)
	}
	return out
}

// -------- Rate limiting --------

// RateLimit limits request rate using the token-bucket rpsLimiter.
// If rps <= 0, the limiter is effectively disabled.
func RateLimit(rps float64, burst int) Middleware {
	return func(next Client) Client {
		return &rateLimited{next: next, rl: newRPSLimiter(rps, burst)}
	}
}

type rateLimited struct {
	next Client
	rl   *rpsLimiter
}

func (c *rateLimited) Name() string { return c.next.Name() }
func (c *rateLimited) Close() error {
	c.rl.Stop()
	return c.next.Close()
}

func (c *rateLimited) GenerateJSON(ctx context.Context, prompt string, input any) (json.RawMessage, error) {
	if err := c.rl.Acquire(ctx); err != nil {
		return nil, err
	}
	return c.next.GenerateJSON(ctx, prompt, input)
}

func (c *rateLimited) GenerateText(ctx context.Context, prompt string) (string, error) {
	if err := c.rl.Acquire(ctx); err != nil {
		return "", err
	}
	return c.next.GenerateText(ctx, prompt)
}

// -------- Retry with exponential backoff --------

// Retry retries a failed call up to maxAttempts with exponential backoff
// starting at baseDelay. If the context is canceled, it stops immediately.
func Retry(maxAttempts int, baseDelay time.Duration) Middleware {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if baseDelay <= 0 {
		baseDelay = 300 * time.Millisecond
	}
	return func(next Client) Client {
		return &retrying{next: next, max: maxAttempts, base: baseDelay}
	}
}

type retrying struct {
	next Client
	max  int
	base time.Duration
}

func (r *retrying) Name() string { return r.next.Name() }
func (r *retrying) Close() error { return r.next.Close() }

func (r *retrying) GenerateJSON(ctx context.Context, prompt string, input any) (json.RawMessage, error) {
	var out json.RawMessage
	err := r.do(ctx, func() error {
		var err error
		out, err = r.next.GenerateJSON(ctx, prompt, input)
		return err
	})
	return out, err
}

func (r *retrying) GenerateText(ctx context.Context, prompt string) (string, error) {
	var out string
	err := r.do(ctx, func() error {
		var err error
		out, err = r.next.GenerateText(ctx, prompt)
		return err
	})
	return out, err
}

func (r *retrying) do(ctx context.Context, call func() error) error {
	var last error
	for i := 0; i < r.max; i++ {
		if err := call(); err == nil {
			return nil
		} else {
			last = err
		}
		// Stop immediately if the context is canceled.
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		time.Sleep(r.base * time.Duration(1<<i))
	}
	return last
}

// -------- Logging --------

// WithLogging logs request size and errors. Provide a custom logger or nil
// to use log.Default().
func WithLogging(logger *log.Logger) Middleware {
	if logger == nil {
		logger = log.Default()
	}
	return func(next Client) Client {
		return &logging{next: next, log: logger}
	}
}

type logging struct {
	next Client
	log  *log.Logger
}

func (l *logging) Name() string { return l.next.Name() }
func (l *logging) Close() error { return l.next.Close() }

func (l *logging) GenerateJSON(ctx context.Context, prompt string, input any) (json.RawMessage, error) {
	in, _ := json.Marshal(input)
	l.log.Printf("LLM request (%s): %d bytes", PhaseFrom(ctx), len(prompt)+len(in))
	raw, err := l.next.GenerateJSON(ctx, prompt, input)
	if err != nil {
		l.log.Printf("LLM error (%s): %v", PhaseFrom(ctx), err)
	}
	return raw, err
}

func (l *logging) GenerateText(ctx context.Context, prompt string) (string, error) {
	l.log.Printf("LLM request (%s): %d bytes", PhaseFrom(ctx), len(prompt))
	out, err := l.next.GenerateText(ctx, prompt)
	if err != nil {
		l.log.Printf("LLM error (%s): %v", PhaseFrom(ctx), err)
	}
	return out, err
}
