// Package server assembles the authentication backend: configuration,
// database, repositories, services, and the HTTP surface, with graceful
// shutdown on OS signals.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/couchwatch/auth-backend/internal/logging"
	"github.com/couchwatch/auth-backend/internal/randx"
	"github.com/couchwatch/auth-backend/internal/server/auth"
	"github.com/couchwatch/auth-backend/internal/server/config"
	"github.com/couchwatch/auth-backend/internal/server/email"
	httpx "github.com/couchwatch/auth-backend/internal/server/http"
	"github.com/couchwatch/auth-backend/internal/server/repositories/repomanager"
	"github.com/couchwatch/auth-backend/internal/server/services"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	server *httpx.Server
}

func NewApp(cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	repos := repomanager.NewPostgresRepositoryManager()
	rand := randx.New()

	minter, err := auth.NewMinter([]byte(cfg.SecretKey), cfg.AccessTokenValidityDuration, cfg.ClaimPolicy)
	if err != nil {
		return nil, fmt.Errorf("minter init error: %w", err)
	}

	usersRepo := repos.Users(db)
	tokensRepo := repos.RefreshTokens(db)

	tokens := services.NewRefreshTokenService(tokensRepo, rand, cfg.RefreshTokenValidityDuration)
	sessions := services.NewSessionService(usersRepo, services.NewUsernameAssigner(usersRepo, rand), tokens, minter)

	accounts := services.NewAccountService(
		db,
		repos,
		sessions,
		tokens,
		email.NewLogMailer(logger),
		rand,
		logger,
		cfg.RecoveryTokenValidityDuration,
	)

	subscriptions := services.NewSubscriptionService(db, repos, logger)

	srv := httpx.NewServer(cfg.EndpointAddr, httpx.NewHandler(accounts, subscriptions, logger), minter, logger)

	app := &App{config: cfg, logger: logger, db: db, server: srv}

	ctx := context.Background()
	if err := repos.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	return app, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.server.Run(ctx); err != nil {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "closing database", "error", err.Error())
	}
}
