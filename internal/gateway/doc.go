// Package gateway orchestrates the dashboard-gateway server components.
//
// # Overview
//
// The Gateway owns the SQLite store, the identity token issuer, the session
// store, the role guard and the portal routes, and runs them behind one
// net/http server.
//
//	gw, err := gateway.New(cfg, logger)
//	err = gw.Run(ctx) // blocks until ctx is canceled, then shuts down
//
// # HTTP Routes
//
//   - GET /health - Liveness check
//   - GET /health/ready - Readiness check (database ping)
//   - GET {metrics.path} - Prometheus metrics, when enabled
//   - portal routes: /auth/login, /auth/logout, /api/me, and each section's
//     entry point and guarded subtree
//
// # Lifecycle
//
// Run listens on server.http_addr. When the context is canceled the server
// is shut down with a fresh 5 second deadline and the store is closed.
package gateway
