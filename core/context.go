package core

import "context"

// Context keys for run options
type contextKey string

const runIDKey contextKey = "runID"

// withRunID stores the tracked run ID in the context
func withRunID(ctx context.Context, runID int64) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// getRunID returns the tracked run ID from context
func getRunID(ctx context.Context) (int64, bool) {
	val := ctx.Value(runIDKey)
	if val == nil {
		return 0, false
	}
	id, ok := val.(int64)
	return id, ok && id > 0
}
