package session

import "context"

type contextKey struct{}

// WithSession returns a copy of ctx carrying sess
func WithSession(ctx context.Context, sess *UserSession) context.Context {
	return context.WithValue(ctx, contextKey{}, sess)
}

// FromContext returns the session stored by WithSession
func FromContext(ctx context.Context) (*UserSession, bool) {
	sess, ok := ctx.Value(contextKey{}).(*UserSession)
	return sess, ok && sess != nil
}
