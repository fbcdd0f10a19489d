// Package users stores account records: username, bcrypt hash and the
// roles granted to the account.
package users

import (
	"context"

	"github.com/dmitrijs2005/catalogauth/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)
}
