package transaction

import (
	"context"
)

type contextKey struct{}

// FromContext returns the transaction ctx carries
func FromContext(ctx context.Context) (*Transaction, bool) {
	tx, ok := ctx.Value(contextKey{}).(*Transaction)
	return tx, ok
}

// WithContext returns a copy of ctx carrying tx
func WithContext(ctx context.Context, tx *Transaction) context.Context {
	return context.WithValue(ctx, contextKey{}, tx)
}
