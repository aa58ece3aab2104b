// ABOUTME: HTTP middleware re-checking permissions on privileged backend handlers
// ABOUTME: Verifies the session token and resolves the role's permission set server-side

package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/2389/dashboard-gateway/internal/metrics"
	"github.com/2389/dashboard-gateway/internal/permission"
	"github.com/2389/dashboard-gateway/internal/session"
)

// PermissionResolver looks up the permissions currently granted to a role.
type PermissionResolver interface {
	PermissionSet(ctx context.Context, role session.Role) (*permission.Set, error)
}

// claimsContextKey is the key type for storing Claims in context.Context.
type claimsContextKey struct{}

// WithClaims returns a new context carrying verified claims.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey{}, claims)
}

// ClaimsFromContext returns the verified claims, or nil if none are attached.
func ClaimsFromContext(ctx context.Context) *Claims {
	claims, _ := ctx.Value(claimsContextKey{}).(*Claims)
	return claims
}

// Authenticate verifies the session on r. The token must be valid and must
// have been issued for the role the client presents.
func Authenticate(r *http.Request, reader session.Reader, verifier TokenVerifier) (*Claims, bool) {
	sess, ok := reader.Read(r)
	if !ok {
		return nil, false
	}
	claims, err := verifier.Verify(sess.Token)
	if err != nil {
		return nil, false
	}
	if claims.Role != sess.Role {
		return nil, false
	}
	return claims, true
}

// RequireSession creates an HTTP middleware that rejects requests without a
// verified session and attaches the claims for the handler.
func RequireSession(reader session.Reader, verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := Authenticate(r, reader, verifier)
			if !ok {
				writeError(w, http.StatusUnauthorized, "not authenticated")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// RequirePermission creates an HTTP middleware that lets a request through
// only if the verified session's role currently holds code. The permission
// set is resolved server-side on every request.
func RequirePermission(reader session.Reader, verifier TokenVerifier, resolver PermissionResolver, code permission.Code, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "auth")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := Authenticate(r, reader, verifier)
			if !ok {
				writeError(w, http.StatusUnauthorized, "not authenticated")
				return
			}

			set, err := resolver.PermissionSet(r.Context(), claims.Role)
			if err != nil {
				// An unresolvable set is treated as empty.
				logger.Error("resolving permissions", "role", claims.Role, "error", err)
				set = nil
			}

			if !permission.Has(set, code) {
				logger.Info("permission denied", "user_id", claims.Subject, "role", claims.Role, "code", code)
				metrics.RecordPermissionDenial(string(code))
				writeError(w, http.StatusForbidden, "permission denied")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
