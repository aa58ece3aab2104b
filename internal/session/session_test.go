// ABOUTME: Tests for the cookie-backed session store
// ABOUTME: Covers create/clear attributes, read semantics, and a browser round trip

package session

import (
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requestWithCookies(cookies ...*http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/dashboard/agency/", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return req
}

func TestStore_Create_SetsBothCookies(t *testing.T) {
	st := NewStore(Options{Secure: true})
	rec := httptest.NewRecorder()

	require.NoError(t, st.Create(rec, "abc", RoleTravelAgency))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 2)

	byName := map[string]*http.Cookie{}
	for _, c := range cookies {
		byName[c.Name] = c
	}
	assert.Equal(t, "abc", byName[DefaultTokenCookie].Value)
	assert.Equal(t, "TravelAgency", byName[DefaultRoleCookie].Value)

	for _, c := range cookies {
		assert.True(t, c.HttpOnly, "%s should be HttpOnly", c.Name)
		assert.True(t, c.Secure, "%s should be Secure", c.Name)
		assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
		assert.Equal(t, "/", c.Path)
		assert.Zero(t, c.MaxAge, "no expiry unless configured")
		assert.True(t, c.Expires.IsZero())
	}
}

func TestStore_Create_MaxAge(t *testing.T) {
	st := NewStore(Options{MaxAge: 2 * time.Hour})
	rec := httptest.NewRecorder()

	require.NoError(t, st.Create(rec, "abc", RoleAirline))

	for _, c := range rec.Result().Cookies() {
		assert.Equal(t, 7200, c.MaxAge)
	}
}

func TestStore_Create_SubSecondMaxAgeRoundsUp(t *testing.T) {
	st := NewStore(Options{MaxAge: 1500 * time.Millisecond})
	rec := httptest.NewRecorder()

	require.NoError(t, st.Create(rec, "abc", RoleAirline))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 2)
	for _, c := range cookies {
		assert.Equal(t, 2, c.MaxAge)
	}

	st = NewStore(Options{MaxAge: time.Millisecond})
	rec = httptest.NewRecorder()
	require.NoError(t, st.Create(rec, "abc", RoleAirline))
	for _, c := range rec.Result().Cookies() {
		assert.Equal(t, 1, c.MaxAge, "a configured lifetime must never become a browser-session cookie")
	}
}

func TestStore_Create_RejectsIncompleteSession(t *testing.T) {
	tests := []struct {
		name  string
		token string
		role  Role
	}{
		{"missing token", "", RoleAirline},
		{"missing role", "abc", ""},
		{"unknown role", "abc", Role("Admin")},
		{"wrong case role", "abc", Role("airline")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := NewStore(Options{})
			rec := httptest.NewRecorder()

			err := st.Create(rec, tt.token, tt.role)
			require.ErrorIs(t, err, ErrIncompleteSession)
			assert.Empty(t, rec.Result().Cookies(), "no cookie may be written")
		})
	}
}

func TestStore_Clear_MatchesCreateAttributes(t *testing.T) {
	for _, secure := range []bool{false, true} {
		st := NewStore(Options{Secure: secure, TokenCookie: "tok", RoleCookie: "role"})

		created := httptest.NewRecorder()
		require.NoError(t, st.Create(created, "abc", RoleTravelAgent))
		cleared := httptest.NewRecorder()
		st.Clear(cleared)

		createdCookies := created.Result().Cookies()
		clearedCookies := cleared.Result().Cookies()
		require.Len(t, clearedCookies, 2)

		for i, c := range clearedCookies {
			orig := createdCookies[i]
			assert.Equal(t, orig.Name, c.Name)
			assert.Empty(t, c.Value)
			assert.Equal(t, -1, c.MaxAge)
			assert.Equal(t, orig.Path, c.Path)
			assert.Equal(t, orig.HttpOnly, c.HttpOnly)
			assert.Equal(t, orig.Secure, c.Secure)
			assert.Equal(t, orig.SameSite, c.SameSite)
			assert.Equal(t, orig.Domain, c.Domain)
		}
	}
}

func TestStore_Clear_Idempotent(t *testing.T) {
	st := NewStore(Options{Secure: true})

	once := httptest.NewRecorder()
	st.Clear(once)

	twice := httptest.NewRecorder()
	st.Clear(twice)
	st.Clear(twice)

	onceHeaders := once.Header().Values("Set-Cookie")
	twiceHeaders := twice.Header().Values("Set-Cookie")
	require.Len(t, twiceHeaders, 4)
	assert.Equal(t, onceHeaders, twiceHeaders[:2])
	assert.Equal(t, onceHeaders, twiceHeaders[2:])
}

func TestStore_Read(t *testing.T) {
	st := NewStore(Options{})
	token := &http.Cookie{Name: DefaultTokenCookie, Value: "abc"}
	role := &http.Cookie{Name: DefaultRoleCookie, Value: "Airline"}

	tests := []struct {
		name    string
		req     *http.Request
		wantOK  bool
		wantSes Session
	}{
		{"both present", requestWithCookies(token, role), true, Session{Token: "abc", Role: RoleAirline}},
		{"no cookies", requestWithCookies(), false, Session{}},
		{"token only", requestWithCookies(token), false, Session{}},
		{"role only", requestWithCookies(role), false, Session{}},
		{"empty token", requestWithCookies(&http.Cookie{Name: DefaultTokenCookie, Value: ""}, role), false, Session{}},
		{"empty role", requestWithCookies(token, &http.Cookie{Name: DefaultRoleCookie, Value: ""}), false, Session{}},
		{"unknown role surfaced", requestWithCookies(token, &http.Cookie{Name: DefaultRoleCookie, Value: "Pilot"}), true, Session{Token: "abc", Role: Role("Pilot")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := st.Read(tt.req)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantSes, got)
		})
	}
}

func TestStore_Read_DoesNotMutateRequest(t *testing.T) {
	st := NewStore(Options{})
	req := requestWithCookies(
		&http.Cookie{Name: DefaultTokenCookie, Value: "abc"},
		&http.Cookie{Name: DefaultRoleCookie, Value: "Airline"},
	)
	before := req.Header.Clone()

	st.Read(req)
	st.Read(req)

	assert.Equal(t, before, req.Header)
}

// TestStore_BrowserRoundTrip drives a real cookie jar through login and
// logout to check that a cleared session is never read back.
func TestStore_BrowserRoundTrip(t *testing.T) {
	st := NewStore(Options{})

	var lastRead bool
	mux := http.NewServeMux()
	mux.HandleFunc("POST /login", func(w http.ResponseWriter, r *http.Request) {
		if err := st.Create(w, "abc", RolePartnership); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
	})
	mux.HandleFunc("POST /logout", func(w http.ResponseWriter, r *http.Request) {
		st.Clear(w)
	})
	mux.HandleFunc("GET /whoami", func(w http.ResponseWriter, r *http.Request) {
		_, lastRead = st.Read(r)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{Jar: jar}

	do := func(method, path string) {
		req, err := http.NewRequest(method, srv.URL+path, nil)
		require.NoError(t, err)
		resp, err := client.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
	}

	do(http.MethodPost, "/login")
	do(http.MethodGet, "/whoami")
	assert.True(t, lastRead, "session should be readable after login")

	do(http.MethodPost, "/logout")
	do(http.MethodGet, "/whoami")
	assert.False(t, lastRead, "session must be absent after logout")

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	assert.Empty(t, jar.Cookies(u))

	do(http.MethodPost, "/logout")
	do(http.MethodGet, "/whoami")
	assert.False(t, lastRead, "second logout keeps the session absent")
}
