// Package store provides persistent storage for dashboard-gateway using SQLite.
//
// # Architecture
//
// SQLiteStore implements two narrow interfaces:
//
//   - UserStore: dashboard users with a bcrypt password hash and one role
//   - PermissionStore: the role to permission-code catalog
//
// The portal takes a UserStore and the CLI lists users and permissions through
// these interfaces, which keeps handler tests free of a database.
//
// # Permission Catalog
//
// Each row of role_permissions grants one code to one role:
//
//	err := s.GrantPermission(ctx, session.RoleAirline, permission.DocumentRead)
//	set, err := s.PermissionSet(ctx, session.RoleAirline)
//
// Grant and Revoke are idempotent. PermissionSet returns an immutable
// snapshot; later grants do not change a set that was already handed out.
//
// # Database
//
// modernc.org/sqlite (pure Go, no cgo). WAL mode and foreign keys are enabled
// when the store is opened; the schema is created on first use. Timestamps are
// stored as RFC3339 text in UTC.
package store
