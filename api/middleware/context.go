package middleware

import "context"

type contextKey string

const (
	ctxSubject contextKey = "actor_subject"
	ctxRole    contextKey = "actor_role"
)

func SubjectFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxSubject).(string); ok {
		return v
	}
	return ""
}

func RoleFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(string); ok {
		return v
	}
	return ""
}

// WithActor injects the authenticated subject and role into the context.
func WithActor(ctx context.Context, subject, role string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxSubject, subject)
	return context.WithValue(ctx, ctxRole, role)
}
