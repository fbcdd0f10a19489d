package authctl

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/catalogauth/internal/logging"
	"github.com/dmitrijs2005/catalogauth/internal/server"
	"github.com/dmitrijs2005/catalogauth/internal/server/config"
	"github.com/dmitrijs2005/catalogauth/internal/server/repositories/revokedtokens"
	"github.com/dmitrijs2005/catalogauth/internal/server/repositories/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fixture struct {
	app     *App
	out     *bytes.Buffer
	users   *users.MemoryRepository
	revoked *revokedtokens.MemoryRepository
	opened  int
	cfg     *config.Config
}

func newFixture(t *testing.T, input string) *fixture {
	t.Helper()

	f := &fixture{
		out:     &bytes.Buffer{},
		users:   users.NewMemoryRepository(),
		revoked: revokedtokens.NewMemoryRepository(),
	}

	f.app = NewApp(strings.NewReader(input), f.out)
	f.app.loadConfig = func(args []string) (*config.Config, error) {
		c := &config.Config{}
		c.LoadDefaults()
		c.DatabaseDSN = "postgres://test"
		c.RevocationBackend = config.BackendMemory
		c.BcryptCost = bcrypt.MinCost
		for _, a := range args {
			if a == "-nodb" {
				c.DatabaseDSN = ""
			}
		}
		f.cfg = c
		return c, nil
	}
	f.app.openStores = func(ctx context.Context, c *config.Config, l logging.Logger) (*server.Stores, error) {
		f.opened++
		return &server.Stores{Users: f.users, Revoked: f.revoked}, nil
	}
	f.app.newLogger = func(string) logging.Logger { return logging.Nop{} }
	return f
}

func TestRun_Usage(t *testing.T) {
	f := newFixture(t, "")

	err := f.app.Run(context.Background(), nil)
	assert.ErrorIs(t, err, ErrUsage)
	assert.Contains(t, f.out.String(), "Usage: authctl")

	f.out.Reset()
	err = f.app.Run(context.Background(), []string{"frobnicate"})
	assert.ErrorIs(t, err, ErrUsage)
	assert.Contains(t, f.out.String(), "Unknown command: frobnicate")

	f.out.Reset()
	require.NoError(t, f.app.Run(context.Background(), []string{"help"}))
	assert.Contains(t, f.out.String(), "useradd")
}

func TestUserAdd_WithFlags(t *testing.T) {
	stubPasswords(t, "pw", "pw")
	f := newFixture(t, "")
	ctx := context.Background()

	err := f.app.Run(ctx, []string{"useradd", "-name", "sam", "-roles", "seller, buyer"})
	require.NoError(t, err)
	assert.Contains(t, f.out.String(), "User sam created")

	u, err := f.users.GetUserByLogin(ctx, "sam")
	require.NoError(t, err)
	assert.Equal(t, []string{"SELLER", "BUYER"}, u.Roles)
	assert.NoError(t, bcrypt.CompareHashAndPassword(u.PasswordHash, []byte("pw")))
}

func TestUserAdd_PromptsForName(t *testing.T) {
	stubPasswords(t, "pw", "pw")
	f := newFixture(t, "bob\n")
	ctx := context.Background()

	require.NoError(t, f.app.Run(ctx, []string{"useradd", "-roles=BUYER"}))

	u, err := f.users.GetUserByLogin(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, []string{"BUYER"}, u.Roles)
}

func TestUserAdd_Scripted(t *testing.T) {
	stubNoTerminal(t)
	f := newFixture(t, "carol\npw\npw\n")
	ctx := context.Background()

	require.NoError(t, f.app.Run(ctx, []string{"useradd", "-roles", "BUYER"}))

	u, err := f.users.GetUserByLogin(ctx, "carol")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword(u.PasswordHash, []byte("pw")))
}

func TestUserAdd_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("no database", func(t *testing.T) {
		f := newFixture(t, "")
		err := f.app.Run(ctx, []string{"useradd", "-name", "bob", "-nodb"})
		assert.Error(t, err)
		assert.Zero(t, f.opened)
	})

	t.Run("password mismatch", func(t *testing.T) {
		stubPasswords(t, "pw", "other")
		f := newFixture(t, "")
		err := f.app.Run(ctx, []string{"useradd", "-name", "bob"})
		assert.ErrorIs(t, err, errPasswordMismatch)
	})

	t.Run("duplicate", func(t *testing.T) {
		stubPasswords(t, "pw", "pw", "pw", "pw")
		f := newFixture(t, "")
		require.NoError(t, f.app.Run(ctx, []string{"useradd", "-name", "bob"}))
		assert.Error(t, f.app.Run(ctx, []string{"useradd", "-name", "bob"}))
	})

	t.Run("open fails", func(t *testing.T) {
		f := newFixture(t, "")
		f.app.openStores = func(context.Context, *config.Config, logging.Logger) (*server.Stores, error) {
			return nil, errors.New("connection refused")
		}
		assert.Error(t, f.app.Run(ctx, []string{"useradd", "-name", "bob"}))
	})
}

func TestMigrate(t *testing.T) {
	f := newFixture(t, "")
	require.NoError(t, f.app.Run(context.Background(), []string{"migrate"}))
	assert.Equal(t, 1, f.opened)
	assert.Contains(t, f.out.String(), "Migrations applied")

	assert.Error(t, f.app.Run(context.Background(), []string{"migrate", "-nodb"}))
}

func TestSweep(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()

	past := time.Now().Add(-time.Hour)
	require.NoError(t, f.revoked.Revoke(ctx, "old-token", past))
	require.NoError(t, f.revoked.Revoke(ctx, "live-token", time.Now().Add(time.Hour)))

	require.NoError(t, f.app.Run(ctx, []string{"sweep", "-nodb"}))
	assert.Contains(t, f.out.String(), "Removed 1 expired revocation records")
	for tok, want := range map[string]bool{"old-token": false, "live-token": true} {
		revoked, err := f.revoked.IsRevoked(ctx, tok)
		require.NoError(t, err)
		assert.Equal(t, want, revoked, tok)
	}
}
