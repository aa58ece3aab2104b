// ABOUTME: Gateway wires the dashboard server: store, tokens, sessions, guard, and portal
// ABOUTME: Owns the HTTP server lifecycle with graceful shutdown

package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"slices"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/2389/dashboard-gateway/internal/auth"
	"github.com/2389/dashboard-gateway/internal/config"
	"github.com/2389/dashboard-gateway/internal/guard"
	"github.com/2389/dashboard-gateway/internal/metrics"
	"github.com/2389/dashboard-gateway/internal/portal"
	"github.com/2389/dashboard-gateway/internal/session"
	"github.com/2389/dashboard-gateway/internal/store"
)

// Gateway is the dashboard HTTP server and the components it owns.
type Gateway struct {
	config     *config.Config
	store      *store.SQLiteStore
	sessions   *session.Store
	issuer     *auth.Issuer
	guard      *guard.Guard
	handler    http.Handler
	httpServer *http.Server
	logger     *slog.Logger
}

// SectionsFromConfig converts configured sections into guard sections.
func SectionsFromConfig(cfgSections []config.SectionConfig) ([]guard.Section, error) {
	sections := make([]guard.Section, 0, len(cfgSections))
	for _, s := range cfgSections {
		role, err := session.ParseRole(s.Role)
		if err != nil {
			return nil, fmt.Errorf("section %q: %w", s.Name, err)
		}
		sections = append(sections, guard.Section{
			Name:      s.Name,
			Role:      role,
			EntryPath: s.EntryPath,
		})
	}
	return sections, nil
}

// New creates a Gateway from cfg. The returned Gateway owns the store and
// must be shut down to release it.
func New(cfg *config.Config, logger *slog.Logger) (*Gateway, error) {
	if logger == nil {
		logger = slog.Default()
	}

	sqlStore, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("creating store: %w", err)
	}

	gw, err := newGateway(cfg, sqlStore, logger)
	if err != nil {
		sqlStore.Close()
		return nil, err
	}
	return gw, nil
}

func newGateway(cfg *config.Config, sqlStore *store.SQLiteStore, logger *slog.Logger) (*Gateway, error) {
	issuer, err := auth.NewIssuer([]byte(cfg.Auth.JWTSecret), cfg.Auth.Issuer, cfg.Auth.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("creating token issuer: %w", err)
	}

	sessions := session.NewStore(session.Options{
		TokenCookie: cfg.Session.TokenCookie,
		RoleCookie:  cfg.Session.RoleCookie,
		Secure:      cfg.Session.Secure,
		MaxAge:      cfg.Session.MaxAge,
	})

	sections, err := SectionsFromConfig(cfg.Sections)
	if err != nil {
		return nil, fmt.Errorf("loading sections: %w", err)
	}
	g, err := guard.New(sessions, sections, logger)
	if err != nil {
		return nil, fmt.Errorf("creating guard: %w", err)
	}
	if err := checkRouteCollisions(cfg, sections); err != nil {
		return nil, err
	}

	gw := &Gateway{
		config:   cfg,
		store:    sqlStore,
		sessions: sessions,
		issuer:   issuer,
		guard:    g,
		logger:   logger.With("component", "gateway"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", gw.handleHealth)
	mux.HandleFunc("GET /health/ready", gw.handleReady)

	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		if err := metrics.Register(reg); err != nil {
			return nil, fmt.Errorf("registering metrics: %w", err)
		}
		mux.Handle("GET "+cfg.Metrics.Path, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	}

	portal.New(sqlStore, sqlStore, sessions, issuer, g, logger).RegisterRoutes(mux)

	gw.handler = mux
	gw.httpServer = &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	for _, s := range g.Sections() {
		gw.logger.Debug("section registered", "section", s.Name, "role", s.Role, "entry", s.EntryPath)
	}

	return gw, nil
}

// checkRouteCollisions reports section entry paths that would take a route
// the gateway registers itself. http.ServeMux panics on such conflicts.
func checkRouteCollisions(cfg *config.Config, sections []guard.Section) error {
	owned := slices.Clone(config.ReservedPaths)
	if cfg.Metrics.Enabled {
		owned = append(owned, cfg.Metrics.Path)
	}
	for _, s := range sections {
		for _, p := range owned {
			if p == s.EntryPath || p == s.EntryPath+"/" {
				return fmt.Errorf("%w: section %q entry path %q collides with %q", guard.ErrDuplicateSection, s.Name, s.EntryPath, p)
			}
		}
	}
	return nil
}

// Handler returns the root HTTP handler.
func (g *Gateway) Handler() http.Handler {
	return g.handler
}

// Run starts the HTTP server and blocks until the context is canceled.
// Returns nil on graceful shutdown (context canceled), or an error if the server fails.
func (g *Gateway) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", g.config.Server.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listening on HTTP address: %w", err)
	}
	return g.Serve(ctx, ln)
}

// Serve runs the HTTP server on ln until ctx is canceled.
func (g *Gateway) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		g.logger.Info("HTTP server listening",
			"addr", ln.Addr().String(),
			"environment", g.config.Server.Environment,
			"secure_cookies", g.config.Session.Secure,
		)
		if err := g.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	var serverErr error
	select {
	case <-ctx.Done():
		g.logger.Info("context canceled, initiating shutdown")
	case serverErr = <-errCh:
		g.logger.Error("server error", "error", serverErr)
	}

	shutdownErr := g.gracefulShutdown()
	if serverErr != nil {
		return serverErr
	}
	return shutdownErr
}

// gracefulShutdown performs shutdown with a fresh context and timeout.
// Uses context.Background() since the original context is already canceled.
func (g *Gateway) gracefulShutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return g.Shutdown(ctx)
}

// Shutdown stops the HTTP server and closes the store.
func (g *Gateway) Shutdown(ctx context.Context) error {
	g.logger.Info("shutting down gateway")

	var errs []error
	if err := g.httpServer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("HTTP shutdown: %w", err))
	}
	if err := g.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("store close: %w", err))
	}
	return errors.Join(errs...)
}

// handleHealth returns 200 OK if the server is alive.
func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleReady returns 200 OK if the database is reachable.
func (g *Gateway) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := g.store.Ping(); err != nil {
		g.logger.Warn("readiness check failed", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("database unavailable"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
