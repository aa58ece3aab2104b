// ABOUTME: Request-context propagation for an authorized session
// ABOUTME: Guards attach the session so handlers receive it explicitly

package session

import "context"

type sessionContextKey struct{}

// WithSession returns a new context carrying sess.
func WithSession(ctx context.Context, sess Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// FromContext returns the session attached by WithSession.
func FromContext(ctx context.Context) (Session, bool) {
	sess, ok := ctx.Value(sessionContextKey{}).(Session)
	return sess, ok
}
