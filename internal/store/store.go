// ABOUTME: Store entity types and interfaces for users and role permissions
// ABOUTME: SQLiteStore implements all interfaces; consumers depend on the narrow ones

package store

import (
	"context"
	"errors"
	"time"

	"github.com/2389/dashboard-gateway/internal/permission"
	"github.com/2389/dashboard-gateway/internal/session"
)

// ErrUserNotFound is returned when a user doesn't exist.
var ErrUserNotFound = errors.New("user not found")

// ErrUsernameExists is returned when trying to create a user with an existing username.
var ErrUsernameExists = errors.New("username already exists")

// User is a dashboard account.
type User struct {
	ID           string
	Username     string
	PasswordHash string // bcrypt hash
	DisplayName  string
	Role         session.Role
	CreatedAt    time.Time
}

// UserStore persists dashboard users.
type UserStore interface {
	CreateUser(ctx context.Context, user *User) error
	GetUser(ctx context.Context, id string) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	ListUsers(ctx context.Context) ([]*User, error)
}

// PermissionStore persists the permission codes granted to each role.
type PermissionStore interface {
	GrantPermission(ctx context.Context, role session.Role, code permission.Code) error
	RevokePermission(ctx context.Context, role session.Role, code permission.Code) error
	ListPermissions(ctx context.Context, role session.Role) ([]permission.Code, error)
	PermissionSet(ctx context.Context, role session.Role) (*permission.Set, error)
}

var (
	_ UserStore       = (*SQLiteStore)(nil)
	_ PermissionStore = (*SQLiteStore)(nil)
)
