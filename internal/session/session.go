// ABOUTME: Cookie-backed session store for dashboard logins
// ABOUTME: Create/Clear write the two session cookies, Read recovers them from a request

package session

import (
	"errors"
	"net/http"
	"time"
)

const (
	// DefaultTokenCookie is the cookie holding the identity token.
	DefaultTokenCookie = "dashboard_token"

	// DefaultRoleCookie is the cookie holding the role name.
	DefaultRoleCookie = "dashboard_role"
)

// ErrIncompleteSession is returned by Create when the token or role is missing
// or the role is not recognised. No cookie is written in that case.
var ErrIncompleteSession = errors.New("session requires a token and a valid role")

// Session is the identity a client presented on a request.
type Session struct {
	Token string
	Role  Role
}

// Options configures the session cookies.
type Options struct {
	// TokenCookie and RoleCookie override the cookie names.
	TokenCookie string
	RoleCookie  string

	// Secure restricts the cookies to HTTPS. Must be true in production.
	Secure bool

	// MaxAge bounds the cookie lifetime. Zero means a browser-session cookie.
	MaxAge time.Duration
}

// Reader recovers a session from an incoming request.
type Reader interface {
	Read(r *http.Request) (Session, bool)
}

// Store writes and reads the session cookies. It keeps no state beyond its
// options and is safe for concurrent use.
type Store struct {
	opts Options
}

// NewStore returns a Store with defaults applied to opts.
func NewStore(opts Options) *Store {
	if opts.TokenCookie == "" {
		opts.TokenCookie = DefaultTokenCookie
	}
	if opts.RoleCookie == "" {
		opts.RoleCookie = DefaultRoleCookie
	}
	return &Store{opts: opts}
}

// Options returns the effective options.
func (s *Store) Options() Options {
	return s.opts
}

// Create attaches token and role to the client as two cookies. It trusts the
// caller to have authenticated the token.
func (s *Store) Create(w http.ResponseWriter, token string, role Role) error {
	if token == "" || !role.Valid() {
		return ErrIncompleteSession
	}

	tokenCookie := s.cookie(s.opts.TokenCookie, token)
	roleCookie := s.cookie(s.opts.RoleCookie, string(role))
	if s.opts.MaxAge > 0 {
		// Round up so a sub-second MaxAge never becomes a browser-session cookie.
		seconds := int((s.opts.MaxAge + time.Second - 1) / time.Second)
		tokenCookie.MaxAge = seconds
		roleCookie.MaxAge = seconds
	}

	http.SetCookie(w, tokenCookie)
	http.SetCookie(w, roleCookie)
	return nil
}

// Clear revokes the session by overwriting both cookies with an empty,
// expired value. Calling it more than once has the same effect as once.
func (s *Store) Clear(w http.ResponseWriter) {
	for _, name := range []string{s.opts.TokenCookie, s.opts.RoleCookie} {
		c := s.cookie(name, "")
		c.MaxAge = -1
		c.Expires = time.Unix(0, 0)
		http.SetCookie(w, c)
	}
}

// Read returns the session carried by r. ok is false unless both cookies are
// present and non-empty.
func (s *Store) Read(r *http.Request) (Session, bool) {
	token, err := r.Cookie(s.opts.TokenCookie)
	if err != nil || token.Value == "" {
		return Session{}, false
	}
	role, err := r.Cookie(s.opts.RoleCookie)
	if err != nil || role.Value == "" {
		return Session{}, false
	}
	return Session{Token: token.Value, Role: Role(role.Value)}, true
}

// cookie is the single template for every session cookie, so Create and
// Clear always agree on attributes.
func (s *Store) cookie(name, value string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}
