package apiclient

import "context"

type ctxKey string

const bearerKey ctxKey = "nb.bearer"

// WithBearer makes requests issued with ctx use token instead of the stored one.
func WithBearer(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, bearerKey, token)
}

// Anonymous makes requests issued with ctx carry no Authorization header.
func Anonymous(ctx context.Context) context.Context { return WithBearer(ctx, "") }

func bearerFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(bearerKey)
	if v == nil {
		return "", false
	}
	tok, ok := v.(string)
	return tok, ok
}
