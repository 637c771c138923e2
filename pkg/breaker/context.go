package breaker

import "context"

type contextKey string

const breakerKey contextKey = "breaker"

// ToContext stores a breaker in the context
func ToContext(ctx context.Context, b *Breaker) context.Context {
	return context.WithValue(ctx, breakerKey, b)
}

// FromContext returns the breaker in ctx. Without one, a fresh closed breaker that
// never trips is returned so callers never need a nil check.
func FromContext(ctx context.Context) *Breaker {
	if b, ok := ctx.Value(breakerKey).(*Breaker); ok && b != nil {
		return b
	}
	return New(0, nil)
}
