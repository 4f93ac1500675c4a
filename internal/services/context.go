package services

import "context"

type contextKey string

const itemIDKey contextKey = "item_id"

// WithItemID annotates the context with the download being processed so log
// and error paths deeper in the stack can recover it.
func WithItemID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, itemIDKey, id)
}

// ItemID extracts the download identifier if present.
func ItemID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(itemIDKey).(int64)
	return id, ok
}
