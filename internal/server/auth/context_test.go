package auth

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/catalogauth/internal/server/models"
	"github.com/stretchr/testify/assert"
)

func TestPrincipalContext(t *testing.T) {
	_, ok := PrincipalFromContext(context.Background())
	assert.False(t, ok)

	p := models.NewPrincipal("bob", "u-2", []string{models.RoleSeller})
	ctx := WithPrincipal(context.Background(), p)

	got, ok := PrincipalFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "bob", got.Subject())
	assert.True(t, got.HasRole(models.RoleSeller))
}
