// ABOUTME: Role guard deciding whether a request may enter a dashboard section
// ABOUTME: Denied requests are redirected to the section's entry path before any handler runs

package guard

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/2389/dashboard-gateway/internal/metrics"
	"github.com/2389/dashboard-gateway/internal/session"
)

// FallbackRedirect is used when a guard is asked for a role that has no
// configured section.
const FallbackRedirect = "/"

// Outcome is the result of a guard check.
type Outcome int

const (
	Denied Outcome = iota
	Allowed
)

func (o Outcome) String() string {
	if o == Allowed {
		return "allowed"
	}
	return "denied"
}

// Decision is the result of Authorize. Redirect is set only when Denied.
type Decision struct {
	Outcome  Outcome
	Redirect string
	Session  session.Session
}

// Allowed reports whether the decision lets the request through.
func (d Decision) Allowed() bool {
	return d.Outcome == Allowed
}

// Section is one protected area of the dashboard.
type Section struct {
	Name      string
	Role      session.Role
	EntryPath string
}

// DefaultSections returns the built-in dashboard sections.
func DefaultSections() []Section {
	return []Section{
		{Name: "agency", Role: session.RoleTravelAgency, EntryPath: "/dashboard/agency"},
		{Name: "agent", Role: session.RoleTravelAgent, EntryPath: "/dashboard/agent"},
		{Name: "airline", Role: session.RoleAirline, EntryPath: "/dashboard/airline"},
		{Name: "partnership", Role: session.RolePartnership, EntryPath: "/dashboard/partnership"},
	}
}

// Section configuration errors.
var (
	ErrInvalidSection   = errors.New("invalid section")
	ErrDuplicateSection = errors.New("duplicate section")
)

// ValidateEntryPath checks that p can serve as a section entry route: absolute,
// already clean, not the root, and free of route wildcards.
func ValidateEntryPath(p string) error {
	if !strings.HasPrefix(p, "/") {
		return fmt.Errorf("entry path %q must start with /", p)
	}
	if p == "/" {
		return fmt.Errorf("entry path cannot be /")
	}
	if path.Clean(p) != p {
		return fmt.Errorf("entry path %q must be clean, without a trailing slash", p)
	}
	if strings.ContainsAny(p, "{} \t") {
		return fmt.Errorf("entry path %q contains braces or whitespace", p)
	}
	return nil
}

// Guard authorizes requests against per-role sections. It holds only
// configuration and is safe for concurrent use.
type Guard struct {
	reader   session.Reader
	sections map[session.Role]Section
	logger   *slog.Logger
}

// New builds a Guard. Every section needs a name, a valid role and a clean
// absolute entry path, and no two sections may share a role or an entry path.
func New(reader session.Reader, sections []Section, logger *slog.Logger) (*Guard, error) {
	if logger == nil {
		logger = slog.Default()
	}

	byRole := make(map[session.Role]Section, len(sections))
	byPath := make(map[string]string, len(sections))
	for _, s := range sections {
		if s.Name == "" {
			return nil, fmt.Errorf("%w: name is required", ErrInvalidSection)
		}
		if !s.Role.Valid() {
			return nil, fmt.Errorf("%w: section %q has unknown role %q", ErrInvalidSection, s.Name, s.Role)
		}
		if err := ValidateEntryPath(s.EntryPath); err != nil {
			return nil, fmt.Errorf("%w: section %q: %v", ErrInvalidSection, s.Name, err)
		}
		if prev, ok := byRole[s.Role]; ok {
			return nil, fmt.Errorf("%w: role %q used by %q and %q", ErrDuplicateSection, s.Role, prev.Name, s.Name)
		}
		if prev, ok := byPath[s.EntryPath]; ok {
			return nil, fmt.Errorf("%w: entry path %q used by %q and %q", ErrDuplicateSection, s.EntryPath, prev, s.Name)
		}
		byRole[s.Role] = s
		byPath[s.EntryPath] = s.Name
	}

	return &Guard{
		reader:   reader,
		sections: byRole,
		logger:   logger.With("component", "guard"),
	}, nil
}

// Section returns the section configured for role.
func (g *Guard) Section(role session.Role) (Section, bool) {
	s, ok := g.sections[role]
	return s, ok
}

// Sections returns all configured sections in ValidRoles order.
func (g *Guard) Sections() []Section {
	out := make([]Section, 0, len(g.sections))
	for _, role := range session.ValidRoles {
		if s, ok := g.sections[role]; ok {
			out = append(out, s)
		}
	}
	return out
}

// Authorize decides whether r may enter the section serving required.
func (g *Guard) Authorize(r *http.Request, required session.Role) Decision {
	section, ok := g.sections[required]
	if !ok {
		g.logger.Error("no section configured for role", "role", required, "path", r.URL.Path)
		metrics.RecordGuardDecision("unknown", false)
		return Decision{Outcome: Denied, Redirect: FallbackRedirect}
	}

	sess, ok := g.reader.Read(r)
	if !ok {
		g.logger.Debug("denied: no session", "section", section.Name, "path", r.URL.Path)
		metrics.RecordGuardDecision(section.Name, false)
		return Decision{Outcome: Denied, Redirect: section.EntryPath}
	}

	if sess.Role != required {
		g.logger.Debug("denied: role mismatch",
			"section", section.Name,
			"required", required,
			"role", sess.Role,
			"path", r.URL.Path,
		)
		metrics.RecordGuardDecision(section.Name, false)
		return Decision{Outcome: Denied, Redirect: section.EntryPath}
	}

	metrics.RecordGuardDecision(section.Name, true)
	return Decision{Outcome: Allowed, Session: sess}
}

// Require returns middleware that only calls next when Authorize allows the
// request. Denied requests get a 303 redirect and next never runs.
func (g *Guard) Require(required session.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := g.Authorize(r, required)
			if !d.Allowed() {
				http.Redirect(w, r, d.Redirect, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r.WithContext(session.WithSession(r.Context(), d.Session)))
		})
	}
}
