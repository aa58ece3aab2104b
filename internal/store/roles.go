// ABOUTME: Role permission catalog store methods
// ABOUTME: Grants permission codes to roles and resolves immutable permission sets

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/2389/dashboard-gateway/internal/permission"
	"github.com/2389/dashboard-gateway/internal/session"
)

// GrantPermission grants code to role. This operation is idempotent - granting
// an existing permission succeeds silently.
func (s *SQLiteStore) GrantPermission(ctx context.Context, role session.Role, code permission.Code) error {
	if !role.Valid() {
		return fmt.Errorf("granting %q: %w", code, session.ErrUnknownRole)
	}

	query := `
		INSERT OR IGNORE INTO role_permissions (role, code, created_at)
		VALUES (?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		string(role),
		string(code),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("granting permission: %w", err)
	}

	s.logger.Debug("granted permission", "role", role, "code", code)
	return nil
}

// RevokePermission removes code from role. This operation is idempotent -
// revoking a permission that was never granted succeeds silently.
func (s *SQLiteStore) RevokePermission(ctx context.Context, role session.Role, code permission.Code) error {
	query := `DELETE FROM role_permissions WHERE role = ? AND code = ?`

	_, err := s.db.ExecContext(ctx, query, string(role), string(code))
	if err != nil {
		return fmt.Errorf("revoking permission: %w", err)
	}

	s.logger.Debug("revoked permission", "role", role, "code", code)
	return nil
}

// ListPermissions returns the codes granted to role in sorted order. Returns
// an empty slice if the role has none.
func (s *SQLiteStore) ListPermissions(ctx context.Context, role session.Role) ([]permission.Code, error) {
	query := `
		SELECT code FROM role_permissions
		WHERE role = ?
		ORDER BY code
	`

	rows, err := s.db.QueryContext(ctx, query, string(role))
	if err != nil {
		return nil, fmt.Errorf("listing permissions: %w", err)
	}
	defer rows.Close()

	codes := []permission.Code{}
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("scanning permission: %w", err)
		}
		codes = append(codes, permission.Code(code))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating permissions: %w", err)
	}

	return codes, nil
}

// PermissionSet resolves the current permission snapshot for role.
func (s *SQLiteStore) PermissionSet(ctx context.Context, role session.Role) (*permission.Set, error) {
	codes, err := s.ListPermissions(ctx, role)
	if err != nil {
		return nil, err
	}
	return permission.NewSet(codes...), nil
}
