package userctx

import "context"

// Context key type
type contextKey string

const userIDKey contextKey = "user_id"
const userEmailKey contextKey = "user_email"

// SetUserID adds the authenticated user's subject ID to the context
func SetUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

// GetUserID retrieves the authenticated user's subject ID from the context.
// Returns "" when no user is present.
func GetUserID(ctx context.Context) string {
	if id, ok := ctx.Value(userIDKey).(string); ok {
		return id
	}
	return ""
}

// SetUserEmail adds the user's email to the context
func SetUserEmail(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, userEmailKey, email)
}

// GetUserEmail retrieves the user's email from the context
func GetUserEmail(ctx context.Context) string {
	if email, ok := ctx.Value(userEmailKey).(string); ok {
		return email
	}
	return ""
}
