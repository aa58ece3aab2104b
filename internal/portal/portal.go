// ABOUTME: HTTP handlers for dashboard login, logout, identity, and section entry points
// ABOUTME: Calls into the session store at login/logout and the role guard on every section request

package portal

import (
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/2389/dashboard-gateway/internal/auth"
	"github.com/2389/dashboard-gateway/internal/guard"
	"github.com/2389/dashboard-gateway/internal/metrics"
	"github.com/2389/dashboard-gateway/internal/permission"
	"github.com/2389/dashboard-gateway/internal/session"
	"github.com/2389/dashboard-gateway/internal/store"
)

// dummyHash keeps the timing of unknown-user logins close to real ones.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// maxLoginBody bounds the login request body.
const maxLoginBody = 1 << 12

// Issuer issues and verifies identity tokens.
type Issuer interface {
	auth.TokenVerifier
	Issue(userID string, role session.Role) (string, error)
}

// Portal handles the login flow and section routes.
type Portal struct {
	users       store.UserStore
	permissions auth.PermissionResolver
	sessions    *session.Store
	issuer      Issuer
	guard       *guard.Guard
	logger      *slog.Logger
}

// New creates a Portal.
func New(users store.UserStore, permissions auth.PermissionResolver, sessions *session.Store, issuer Issuer, g *guard.Guard, logger *slog.Logger) *Portal {
	if logger == nil {
		logger = slog.Default()
	}
	return &Portal{
		users:       users,
		permissions: permissions,
		sessions:    sessions,
		issuer:      issuer,
		guard:       g,
		logger:      logger.With("component", "portal"),
	}
}

// RegisterRoutes adds the portal routes to mux.
func (p *Portal) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /auth/login", p.handleLogin)
	mux.HandleFunc("POST /auth/logout", p.handleLogout)
	mux.Handle("GET /api/me", auth.RequireSession(p.sessions, p.issuer)(http.HandlerFunc(p.handleMe)))
	mux.Handle("GET /api/permissions/{code}", auth.RequireSession(p.sessions, p.issuer)(http.HandlerFunc(p.handleCheck)))
	mux.Handle("GET /api/roles/{role}/permissions",
		auth.RequirePermission(p.sessions, p.issuer, p.permissions, permission.AgentManage, p.logger)(http.HandlerFunc(p.handleRolePermissions)))

	for _, section := range p.guard.Sections() {
		mux.HandleFunc("GET "+section.EntryPath, func(w http.ResponseWriter, r *http.Request) {
			p.handleEntry(w, r, section)
		})
		mux.Handle("GET "+section.EntryPath+"/", p.guard.Require(section.Role)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p.handleSection(w, r, section)
		})))
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Role     session.Role `json:"role"`
	Redirect string       `json:"redirect"`
}

// handleLogin authenticates a user and creates the session
func (p *Portal) handleLogin(w http.ResponseWriter, r *http.Request) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "application/json" {
		writeError(w, http.StatusUnsupportedMediaType, "content type must be application/json")
		return
	}

	var req loginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxLoginBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password required")
		return
	}

	user, err := p.users.GetUserByUsername(r.Context(), req.Username)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(req.Password))
			p.rejectLogin(w, req.Username, "unknown user")
			return
		}
		p.logger.Error("failed to get user", "error", err)
		writeError(w, http.StatusInternalServerError, "an error occurred")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		p.rejectLogin(w, req.Username, "bad password")
		return
	}

	token, err := p.issuer.Issue(user.ID, user.Role)
	if err != nil {
		p.logger.Error("failed to issue token", "user_id", user.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "an error occurred")
		return
	}

	if err := p.sessions.Create(w, token, user.Role); err != nil {
		p.logger.Error("failed to create session", "user_id", user.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "an error occurred")
		return
	}

	metrics.RecordLogin(true)
	p.logger.Info("login successful", "user_id", user.ID, "username", user.Username, "role", user.Role)

	resp := loginResponse{Role: user.Role, Redirect: guard.FallbackRedirect}
	if section, ok := p.guard.Section(user.Role); ok {
		resp.Redirect = section.EntryPath + "/"
	}
	writeJSON(w, http.StatusOK, resp)
}

func (p *Portal) rejectLogin(w http.ResponseWriter, username, reason string) {
	metrics.RecordLogin(false)
	p.logger.Info("login rejected", "username", username, "reason", reason)
	writeError(w, http.StatusUnauthorized, "invalid username or password")
}

// handleLogout clears the session cookies. It succeeds with or without a session.
func (p *Portal) handleLogout(w http.ResponseWriter, r *http.Request) {
	if sess, ok := p.sessions.Read(r); ok {
		p.logger.Info("logout", "role", sess.Role)
	}
	p.sessions.Clear(w)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type meResponse struct {
	UserID      string            `json:"user_id"`
	Username    string            `json:"username"`
	DisplayName string            `json:"display_name,omitempty"`
	Role        session.Role      `json:"role"`
	Permissions []permission.Code `json:"permissions"`
}

// handleMe returns the verified identity and the role's permission snapshot
func (p *Portal) handleMe(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	user, err := p.users.GetUser(r.Context(), claims.Subject)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}
		p.logger.Error("failed to get user", "user_id", claims.Subject, "error", err)
		writeError(w, http.StatusInternalServerError, "an error occurred")
		return
	}

	set, err := p.permissions.PermissionSet(r.Context(), claims.Role)
	if err != nil {
		p.logger.Error("resolving permissions", "role", claims.Role, "error", err)
		writeError(w, http.StatusInternalServerError, "an error occurred")
		return
	}

	writeJSON(w, http.StatusOK, meResponse{
		UserID:      user.ID,
		Username:    user.Username,
		DisplayName: user.DisplayName,
		Role:        claims.Role,
		Permissions: set.Codes(),
	})
}

type checkResponse struct {
	Code    permission.Code `json:"code"`
	Granted bool            `json:"granted"`
}

// handleCheck answers whether the caller's role currently holds one code.
// Lookup failures answer false.
func (p *Portal) handleCheck(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	code := permission.Code(r.PathValue("code"))
	set, err := p.permissions.PermissionSet(r.Context(), claims.Role)
	if err != nil {
		p.logger.Error("resolving permissions", "role", claims.Role, "error", err)
		set = nil
	}

	writeJSON(w, http.StatusOK, checkResponse{Code: code, Granted: permission.Has(set, code)})
}

type rolePermissionsResponse struct {
	Role        session.Role      `json:"role"`
	Permissions []permission.Code `json:"permissions"`
}

// handleRolePermissions lists the codes granted to any role. Requires agent.manage.
func (p *Portal) handleRolePermissions(w http.ResponseWriter, r *http.Request) {
	role, err := session.ParseRole(r.PathValue("role"))
	if err != nil {
		writeError(w, http.StatusNotFound, "unknown role")
		return
	}

	set, err := p.permissions.PermissionSet(r.Context(), role)
	if err != nil {
		p.logger.Error("resolving permissions", "role", role, "error", err)
		writeError(w, http.StatusInternalServerError, "an error occurred")
		return
	}

	writeJSON(w, http.StatusOK, rolePermissionsResponse{Role: role, Permissions: set.Codes()})
}

type sectionResponse struct {
	Section string       `json:"section"`
	Role    session.Role `json:"role"`
	Login   string       `json:"login,omitempty"`
	Path    string       `json:"path,omitempty"`
}

// handleEntry serves the public entry point of a section
func (p *Portal) handleEntry(w http.ResponseWriter, r *http.Request, section guard.Section) {
	writeJSON(w, http.StatusOK, sectionResponse{
		Section: section.Name,
		Role:    section.Role,
		Login:   "/auth/login",
	})
}

// handleSection serves guarded section content. Only reached after the guard allowed the request.
func (p *Portal) handleSection(w http.ResponseWriter, r *http.Request, section guard.Section) {
	sess, _ := session.FromContext(r.Context())
	writeJSON(w, http.StatusOK, sectionResponse{
		Section: section.Name,
		Role:    sess.Role,
		Path:    r.URL.Path,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
