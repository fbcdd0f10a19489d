// Package server initializes and runs the auth server: it opens the stores,
// wires the token codec and services, and runs the HTTP and gRPC listeners
// plus the revocation sweep until a termination signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/catalogauth/internal/logging"
	"github.com/dmitrijs2005/catalogauth/internal/server/access"
	"github.com/dmitrijs2005/catalogauth/internal/server/auth"
	"github.com/dmitrijs2005/catalogauth/internal/server/config"
	"github.com/dmitrijs2005/catalogauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/catalogauth/internal/server/repositories/revokedtokens"
	"github.com/dmitrijs2005/catalogauth/internal/server/repositories/users"
	"github.com/dmitrijs2005/catalogauth/internal/server/services"

	gs "github.com/dmitrijs2005/catalogauth/internal/server/grpc"
	hs "github.com/dmitrijs2005/catalogauth/internal/server/http"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	closers []io.Closer

	authService *services.AuthService
	sweeper     *services.Sweeper
}

// Stores is what NewStores opens for a configuration.
type Stores struct {
	DB      *sql.DB
	Users   users.Repository
	Revoked revokedtokens.Repository
	Closers []io.Closer
}

// Close releases everything in reverse opening order.
func (s *Stores) Close() error {
	var first error
	for i := len(s.Closers) - 1; i >= 0; i-- {
		if err := s.Closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// NewStores opens the user and revocation stores selected by c and, when a
// database is configured, applies the migrations.
func NewStores(ctx context.Context, c *config.Config, logger logging.Logger) (*Stores, error) {
	s := &Stores{}
	m := repomanager.NewPostgresRepositoryManager()

	if c.DatabaseDSN != "" {
		db, err := repomanager.OpenPostgres(ctx, c.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}
		s.DB = db
		s.Closers = append(s.Closers, db)

		if err := m.RunMigrations(ctx, db); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
		s.Users = m.Users(db)
	} else {
		logger.Warn(ctx, "no database configured, users are kept in memory")
		s.Users = users.NewMemoryRepository()
	}

	switch c.RevocationBackend {
	case config.BackendPostgres:
		s.Revoked = m.RevokedTokens(s.DB)
	case config.BackendRedis:
		r, err := revokedtokens.NewRedisRepository(ctx, c.RedisURL, "")
		if err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("redis init error: %w", err)
		}
		s.Revoked = r
		s.Closers = append(s.Closers, r)
	case config.BackendMemory:
		s.Revoked = revokedtokens.NewMemoryRepository()
	default:
		_ = s.Close()
		return nil, fmt.Errorf("unknown revocation backend %q", c.RevocationBackend)
	}

	if c.RevocationCache {
		cached, err := revokedtokens.NewCachedRepository(s.Revoked, revokedtokens.DefaultCacheConfig)
		if err != nil {
			_ = s.Close()
			return nil, err
		}
		s.Revoked = cached
		s.Closers = append(s.Closers, cached)
	}

	return s, nil
}

// NewAuthService builds the codec and the service over opened stores.
func NewAuthService(c *config.Config, s *Stores, logger logging.Logger) (*services.AuthService, error) {
	codec, err := auth.NewCodec(c.SecretKey, c.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("token codec: %w", err)
	}
	return services.NewAuthService(s.Users, s.Revoked, codec, c.BcryptCost, logger)
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger := logging.New(os.Stdout, c.LogLevel)

	stores, err := NewStores(ctx, c, logger)
	if err != nil {
		return nil, err
	}

	as, err := NewAuthService(c, stores, logger)
	if err != nil {
		_ = stores.Close()
		return nil, err
	}

	return &App{
		config:      c,
		logger:      logger,
		closers:     stores.Closers,
		authService: as,
		sweeper:     services.NewSweeper(stores.Revoked, logger.With("module", "sweeper")),
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	router := hs.NewRouter(app.authService, hs.Options{
		Logger:   app.logger,
		BasePath: app.config.BasePath,
		Policy:   access.DefaultPolicy(app.config.BasePath),

		AllowedOrigins: app.config.CORSAllowedOrigins,
	})

	s := hs.NewServer(app.config.HTTPAddr, router, app.logger)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.GRPCAddr, app.logger, app.authService, gs.Options{})

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startSweeper(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.sweeper.Run(ctx, app.config.SweepSchedule); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "revocation_backend", app.config.RevocationBackend)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	for _, start := range []func(context.Context, context.CancelFunc){
		app.startHTTPServer,
		app.startGRPCServer,
		app.startSweeper,
	} {
		start := start
		wg.Add(1)
		go func() {
			defer wg.Done()
			start(ctx, cancelFunc)
		}()
	}

	wg.Wait()

	app.close(ctx)
	app.logger.Info(ctx, "App stopped")
}

func (app *App) close(ctx context.Context) {
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i].Close(); err != nil {
			app.logger.Error(ctx, "close", "error", err)
		}
	}
}
