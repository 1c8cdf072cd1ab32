// Package server initializes and runs the identity server. It wires the
// configuration, database, services, and HTTP surface together, starts
// the periodic expired-artifact sweep, and handles graceful shutdown.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/cesarsm24/ondra-gps-25-26-gb03-usuarios-sub000/internal/cryptox"
	"github.com/cesarsm24/ondra-gps-25-26-gb03-usuarios-sub000/internal/logging"
	"github.com/cesarsm24/ondra-gps-25-26-gb03-usuarios-sub000/internal/server/auth"
	"github.com/cesarsm24/ondra-gps-25-26-gb03-usuarios-sub000/internal/server/avatars"
	"github.com/cesarsm24/ondra-gps-25-26-gb03-usuarios-sub000/internal/server/config"
	"github.com/cesarsm24/ondra-gps-25-26-gb03-usuarios-sub000/internal/server/httpapi"
	"github.com/cesarsm24/ondra-gps-25-26-gb03-usuarios-sub000/internal/server/mailer"
	"github.com/cesarsm24/ondra-gps-25-26-gb03-usuarios-sub000/internal/server/repositories/repomanager"
	"github.com/cesarsm24/ondra-gps-25-26-gb03-usuarios-sub000/internal/server/services"
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	sessions *services.SessionService
	httpSrv  *httpapi.Server
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	// the cipher guards payment data at rest: refuse to start without a secret
	cipher, err := cryptox.NewFieldCipher(cfg.FieldCipherSecret)
	if err != nil {
		return nil, fmt.Errorf("field cipher init error: %w", err)
	}

	db, err := repomanager.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("db migration error: %w", err)
	}

	verifier := auth.NewFederatedVerifier(
		cfg.FederatedIssuer, cfg.FederatedAudience, cfg.FederatedJWKSURL, cfg.FederatedVerifyTimeout)

	sessions := services.NewSessionService(db, rm, cfg, logger)
	accounts := services.NewAccountService(
		db, rm, sessions, verifier, mailer.NewLogMailer(logger), avatars.NewCache(cfg), cfg, logger)
	payments := services.NewPaymentService(db, rm, cipher)

	return &App{
		config:   cfg,
		logger:   logger,
		sessions: sessions,
		httpSrv:  httpapi.NewServer(accounts, payments, cfg, logger),
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startSweeper(ctx context.Context) {
	interval := app.config.SweepInterval
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			app.sessions.Sweep(ctx)
		}
	}
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
		app.startSweeper(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.httpSrv.Run(ctx); err != nil {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}()

	wg.Wait()
}
