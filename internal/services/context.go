package services

import "context"

type contextKey string

const (
	jobIDKey     contextKey = "job_id"
	submitterKey contextKey = "submitter"
)

// WithJobID annotates context with the job identifier.
func WithJobID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, jobIDKey, id)
}

// JobIDFromContext extracts the job identifier if present.
func JobIDFromContext(ctx context.Context) (int64, bool) {
	v := ctx.Value(jobIDKey)
	if v == nil {
		return 0, false
	}
	switch val := v.(type) {
	case int64:
		return val, true
	case int:
		return int64(val), true
	default:
		return 0, false
	}
}

// WithSubmitter annotates context with the submitter chat identifier.
func WithSubmitter(ctx context.Context, chatID int64) context.Context {
	return context.WithValue(ctx, submitterKey, chatID)
}

// SubmitterFromContext extracts the submitter chat identifier if present.
func SubmitterFromContext(ctx context.Context) (int64, bool) {
	if v, ok := ctx.Value(submitterKey).(int64); ok {
		return v, true
	}
	return 0, false
}
