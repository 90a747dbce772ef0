package instrument

import "context"

type correlationIDKey struct{}

// SetCorrelationID returns a child context carrying the correlation id.
func SetCorrelationID(ctx context.Context, cID string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, cID)
}

// GetCorrelationID returns the correlation id carried by ctx, or "" when the
// context has none.
func GetCorrelationID(ctx context.Context) string {
	cID, ok := ctx.Value(correlationIDKey{}).(string)
	if !ok {
		return ""
	}
	return cID
}
