package internal

import "context"

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	TurnIDKey contextKey = "turn_id"
)

// GetTurnID retrieves the conversation turn ID from context
func GetTurnID(ctx context.Context) string {
	if id, ok := ctx.Value(TurnIDKey).(string); ok {
		return id
	}
	return ""
}

// WithTurnID adds a conversation turn ID to the context
func WithTurnID(ctx context.Context, turnID string) context.Context {
	return context.WithValue(ctx, TurnIDKey, turnID)
}
