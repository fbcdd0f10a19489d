package users

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/catalogauth/internal/common"
	"github.com/dmitrijs2005/catalogauth/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	u, err := repo.Create(ctx, &models.User{UserName: "bob", PasswordHash: []byte("h"), Roles: []string{models.RoleBuyer}})
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)

	_, err = repo.Create(ctx, &models.User{UserName: "bob"})
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)

	got, err := repo.GetUserByLogin(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	got.Roles[0] = "ADMIN"
	again, err := repo.GetUserByLogin(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, []string{models.RoleBuyer}, again.Roles)

	_, err = repo.GetUserByLogin(ctx, "nobody")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}
