package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/catalogauth/internal/dbx"
	"github.com/dmitrijs2005/catalogauth/internal/server/repositories/revokedtokens"
	"github.com/dmitrijs2005/catalogauth/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RevokedTokens(db dbx.DBTX) revokedtokens.Repository
}
