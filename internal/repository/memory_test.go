package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/presenter-booking/internal/model"
)

func seedMemory(t *testing.T) (*Memory, uint64) {
	t.Helper()
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Roles.Create(ctx, &model.Role{Code: "CLW", Label: "Clown", PriceCents: 15000}))
	require.NoError(t, m.Presenters.Create(ctx, &model.Presenter{Code: "P001", Name: "Jean", RoleCode: "CLW"}))
	require.NoError(t, m.Numbers.Create(ctx, &model.Number{
		Code: "N1", Title: "Show", DurationMinutes: 30, PresenterCode: "P001",
		ShowDateTime: time.Now().Add(24 * time.Hour),
	}))
	u := &model.User{Email: "ada@example.com", FirstName: "Ada", LastName: "Lovelace"}
	require.NoError(t, m.Users.Create(ctx, u, "secret1", 4))
	return m, u.ID
}

func TestMemoryUserDeleteRemovesDependents(t *testing.T) {
	ctx := context.Background()
	m, id := seedMemory(t)
	require.NoError(t, m.Registrations.Create(ctx, &model.Registration{UserID: id, NumberCode: "N1", RegisteredAt: time.Now()}))
	require.NoError(t, m.Tokens.StoreRefresh(ctx, id, "hash-1", time.Now().Add(time.Hour), false))

	other := &model.User{Email: "bob@example.com", FirstName: "Bob", LastName: "Builder"}
	require.NoError(t, m.Users.Create(ctx, other, "secret1", 4))
	require.NoError(t, m.Registrations.Create(ctx, &model.Registration{UserID: other.ID, NumberCode: "N1", RegisteredAt: time.Now()}))
	require.NoError(t, m.Tokens.StoreRefresh(ctx, other.ID, "hash-2", time.Now().Add(time.Hour), true))

	require.NoError(t, m.Users.Delete(ctx, id))

	_, err := m.Users.GetByID(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 1, m.Registrations.Len())
	_, err = m.Registrations.Find(ctx, id, "N1")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = m.Tokens.ValidateRefresh(ctx, "hash-1")
	assert.ErrorIs(t, err, ErrNotFound)

	tok, err := m.Tokens.ValidateRefresh(ctx, "hash-2")
	require.NoError(t, err)
	assert.Equal(t, other.ID, tok.UserID)
	assert.True(t, tok.Persistent)

	assert.ErrorIs(t, m.Users.Delete(ctx, id), ErrNotFound)
}

func TestMemoryRevokeByHashLandsOnce(t *testing.T) {
	ctx := context.Background()
	m, id := seedMemory(t)
	require.NoError(t, m.Tokens.StoreRefresh(ctx, id, "hash-1", time.Now().Add(time.Hour), false))

	require.NoError(t, m.Tokens.RevokeByHash(ctx, "hash-1"))
	assert.ErrorIs(t, m.Tokens.RevokeByHash(ctx, "hash-1"), ErrNotFound)
	assert.ErrorIs(t, m.Tokens.RevokeByHash(ctx, "unknown"), ErrNotFound)
	_, err := m.Tokens.ValidateRefresh(ctx, "hash-1")
	assert.ErrorIs(t, err, ErrNotFound)
}
