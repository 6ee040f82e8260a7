package core

import "context"

// Context keys for run options
type contextKey string

const (
	quietKey     contextKey = "quiet"
	batchNameKey contextKey = "batchName"
)

// WithQuiet marks the run as quiet: no progress lines and no console narrative.
// The CI verdict is still printed.
func WithQuiet(ctx context.Context) context.Context {
	return context.WithValue(ctx, quietKey, true)
}

// isQuiet returns whether console output other than the verdict should be suppressed
func isQuiet(ctx context.Context) bool {
	val := ctx.Value(quietKey)
	if val == nil {
		return false // default: print progress and narrative
	}
	quiet, ok := val.(bool)
	return ok && quiet
}

// WithBatchName overrides the batch name recorded in the report.
func WithBatchName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, batchNameKey, name)
}

// batchNameFrom returns the batch name override, or fallback when none is set
func batchNameFrom(ctx context.Context, fallback string) string {
	name, ok := ctx.Value(batchNameKey).(string)
	if !ok || name == "" {
		return fallback
	}
	return name
}
