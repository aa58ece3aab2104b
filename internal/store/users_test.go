// ABOUTME: Tests for dashboard user store operations
// ABOUTME: Covers create, lookup by ID and username, uniqueness, and role validation

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/dashboard-gateway/internal/session"
)

func TestUserStore_CreateAndGet(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	user := &User{
		ID:           "user-1",
		Username:     "alice",
		PasswordHash: "$2a$10$hash",
		DisplayName:  "Alice",
		Role:         session.RoleAirline,
		CreatedAt:    created,
	}
	require.NoError(t, store.CreateUser(ctx, user))

	got, err := store.GetUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, "$2a$10$hash", got.PasswordHash)
	assert.Equal(t, "Alice", got.DisplayName)
	assert.Equal(t, session.RoleAirline, got.Role)
	assert.True(t, created.Equal(got.CreatedAt))

	byName, err := store.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "user-1", byName.ID)
}

func TestUserStore_NotFound(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	_, err := store.GetUser(ctx, "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = store.GetUserByUsername(ctx, "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserStore_DuplicateUsername(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateUser(ctx, &User{ID: "u1", Username: "bob", PasswordHash: "x", Role: session.RoleTravelAgent}))

	err := store.CreateUser(ctx, &User{ID: "u2", Username: "bob", PasswordHash: "y", Role: session.RoleAirline})
	assert.ErrorIs(t, err, ErrUsernameExists)
}

func TestUserStore_RejectsUnknownRole(t *testing.T) {
	store := setupTestStore(t)

	err := store.CreateUser(context.Background(), &User{ID: "u1", Username: "eve", PasswordHash: "x", Role: "Admin"})
	assert.ErrorIs(t, err, session.ErrUnknownRole)
}

func TestUserStore_List(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	users, err := store.ListUsers(ctx)
	require.NoError(t, err)
	assert.NotNil(t, users)
	assert.Empty(t, users)

	require.NoError(t, store.CreateUser(ctx, &User{ID: "u2", Username: "zed", PasswordHash: "x", Role: session.RolePartnership}))
	require.NoError(t, store.CreateUser(ctx, &User{ID: "u1", Username: "amy", PasswordHash: "x", Role: session.RoleTravelAgency}))

	users, err = store.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "amy", users[0].Username)
	assert.Equal(t, "zed", users[1].Username)
}
