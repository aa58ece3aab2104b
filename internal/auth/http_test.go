// ABOUTME: Tests for backend session and permission middleware
// ABOUTME: Covers verified sessions, role/token binding, and fail-closed permission checks

package auth

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/dashboard-gateway/internal/permission"
	"github.com/2389/dashboard-gateway/internal/session"
)

type fakeResolver struct {
	sets  map[session.Role]*permission.Set
	err   error
	calls int
}

func (f *fakeResolver) PermissionSet(ctx context.Context, role session.Role) (*permission.Set, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.sets[role], nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sessionRequest(token string, role session.Role) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/documents", nil)
	req.AddCookie(&http.Cookie{Name: session.DefaultTokenCookie, Value: token})
	req.AddCookie(&http.Cookie{Name: session.DefaultRoleCookie, Value: string(role)})
	return req
}

func okHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequirePermission_Granted(t *testing.T) {
	issuer := newTestIssuer(t)
	sessions := session.NewStore(session.Options{})
	resolver := &fakeResolver{sets: map[session.Role]*permission.Set{
		session.RoleTravelAgency: permission.NewSet(permission.DocumentCreate, permission.DocumentRead),
	}}

	token, err := issuer.Issue("user-1", session.RoleTravelAgency)
	require.NoError(t, err)

	var gotClaims *Claims
	handler := RequirePermission(sessions, issuer, resolver, permission.DocumentCreate, discardLogger())(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotClaims = ClaimsFromContext(r.Context())
		}),
	)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, sessionRequest(token, session.RoleTravelAgency))

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, gotClaims)
	assert.Equal(t, "user-1", gotClaims.Subject)
	assert.Equal(t, 1, resolver.calls)
}

func TestRequirePermission_NotGranted(t *testing.T) {
	issuer := newTestIssuer(t)
	sessions := session.NewStore(session.Options{})
	resolver := &fakeResolver{sets: map[session.Role]*permission.Set{
		session.RoleTravelAgency: permission.NewSet(permission.DocumentCreate, permission.DocumentRead),
	}}
	token, _ := issuer.Issue("user-1", session.RoleTravelAgency)

	var called bool
	handler := RequirePermission(sessions, issuer, resolver, permission.DocumentDelete, discardLogger())(okHandler(&called))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, sessionRequest(token, session.RoleTravelAgency))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, called)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "permission denied", body["error"])
}

func TestRequireSession_ErrorIsJSON(t *testing.T) {
	issuer := newTestIssuer(t)
	sessions := session.NewStore(session.Options{})

	var called bool
	handler := RequireSession(sessions, issuer)(okHandler(&called))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/me", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, called)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "not authenticated", body["error"])
}

func TestRequirePermission_ResolverErrorFailsClosed(t *testing.T) {
	issuer := newTestIssuer(t)
	sessions := session.NewStore(session.Options{})
	resolver := &fakeResolver{err: errors.New("db down")}
	token, _ := issuer.Issue("user-1", session.RoleAirline)

	var called bool
	handler := RequirePermission(sessions, issuer, resolver, permission.DocumentRead, discardLogger())(okHandler(&called))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, sessionRequest(token, session.RoleAirline))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, called)
}

func TestRequirePermission_UnloadedRoleFailsClosed(t *testing.T) {
	issuer := newTestIssuer(t)
	sessions := session.NewStore(session.Options{})
	resolver := &fakeResolver{sets: map[session.Role]*permission.Set{}}
	token, _ := issuer.Issue("user-1", session.RolePartnership)

	var called bool
	handler := RequirePermission(sessions, issuer, resolver, permission.ReportRead, discardLogger())(okHandler(&called))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, sessionRequest(token, session.RolePartnership))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, called)
}

func TestRequirePermission_RoleCookieMustMatchToken(t *testing.T) {
	issuer := newTestIssuer(t)
	sessions := session.NewStore(session.Options{})
	resolver := &fakeResolver{sets: map[session.Role]*permission.Set{
		session.RoleAirline: permission.NewSet(permission.DocumentDelete),
	}}

	// Token issued for TravelAgent, client edits the role cookie to Airline.
	token, _ := issuer.Issue("user-1", session.RoleTravelAgent)

	var called bool
	handler := RequirePermission(sessions, issuer, resolver, permission.DocumentDelete, discardLogger())(okHandler(&called))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, sessionRequest(token, session.RoleAirline))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, called)
	assert.Zero(t, resolver.calls)
}

func TestRequirePermission_NoSession(t *testing.T) {
	issuer := newTestIssuer(t)
	sessions := session.NewStore(session.Options{})
	resolver := &fakeResolver{}

	var called bool
	handler := RequirePermission(sessions, issuer, resolver, permission.DocumentRead, discardLogger())(okHandler(&called))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/documents", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"not authenticated"}`, rec.Body.String())
	assert.False(t, called)
}

func TestRequirePermission_ForgedToken(t *testing.T) {
	issuer := newTestIssuer(t)
	sessions := session.NewStore(session.Options{})
	resolver := &fakeResolver{sets: map[session.Role]*permission.Set{
		session.RoleAirline: permission.NewSet(permission.DocumentRead),
	}}

	var called bool
	handler := RequirePermission(sessions, issuer, resolver, permission.DocumentRead, discardLogger())(okHandler(&called))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, sessionRequest("not-a-jwt", session.RoleAirline))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, called)
}

func TestRequireSession(t *testing.T) {
	issuer := newTestIssuer(t)
	sessions := session.NewStore(session.Options{})
	token, _ := issuer.Issue("user-9", session.RoleTravelAgent)

	var got *Claims
	handler := RequireSession(sessions, issuer)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = ClaimsFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, sessionRequest(token, session.RoleTravelAgent))
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, got)
	assert.Equal(t, "user-9", got.Subject)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestClaimsFromContext_Missing(t *testing.T) {
	assert.Nil(t, ClaimsFromContext(context.Background()))
}
