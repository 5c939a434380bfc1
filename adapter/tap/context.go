package tap

import "context"

type interceptedKey struct{}

// WithIntercepted marks ctx as already carrying an intercepted request.
// Requests with this mark are passed through by every Tap.
func WithIntercepted(ctx context.Context) context.Context {
	return context.WithValue(ctx, interceptedKey{}, true)
}

// IsIntercepted reports whether ctx was marked by WithIntercepted.
func IsIntercepted(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	v, _ := ctx.Value(interceptedKey{}).(bool)
	return v
}
