package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/agentdesk/agentdesk/internal/auth/email"
	httpapi "github.com/agentdesk/agentdesk/internal/auth/http"
	"github.com/agentdesk/agentdesk/internal/auth/service"
	"github.com/agentdesk/agentdesk/internal/auth/store"
	"github.com/agentdesk/agentdesk/internal/auth/store/drivers/sqlite"
	"github.com/agentdesk/agentdesk/pkg/cryptox"
	"github.com/agentdesk/agentdesk/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the auth service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db     store.Store
	sender email.Sender

	authService         *service.AuthService
	sessionService      *service.SessionService
	twoFactorService    *service.TwoFactorService
	resetService        *service.PasswordResetService
	userAdminService    *service.UserAdminService
	housekeepingService *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "agentdesk-auth",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	// Set pepper path for password hashing
	cryptox.SetPepperPath(app.cfg.PepperFile)

	if err := app.initDatabase(); err != nil {
		return nil, err
	}
	if err := app.initEmail(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("auth service starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down auth service...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

// initDatabase initializes the database and applies migrations.
func (app *Application) initDatabase() error {
	host := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(host)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

// initEmail selects the outbound email transport. Without an SMTP host all
// dispatch fails with an explicit error rather than silently dropping mail.
func (app *Application) initEmail() error {
	if app.cfg.SMTPHost == "" {
		app.logger.Warn("SMTP_HOST not set; outbound email disabled")
		app.sender = email.NewDisabledSender("SMTP_HOST not configured")
		return nil
	}

	sender, err := email.NewSMTPSender(
		app.cfg.SMTPHost,
		app.cfg.SMTPPort,
		app.cfg.SMTPUsername,
		app.cfg.SMTPPassword,
		app.cfg.SMTPFrom,
		app.cfg.SMTPFromName,
		app.cfg.ResetBaseURL,
		app.cfg.SMTPUseTLS,
	)
	if err != nil {
		return fmt.Errorf("failed to initialize SMTP sender: %w", err)
	}
	app.sender = sender

	app.logger.Info("SMTP sender initialized", "host", app.cfg.SMTPHost, "port", app.cfg.SMTPPort)
	return nil
}

// initServices initializes all business logic services.
func (app *Application) initServices() {
	app.authService = &service.AuthService{Store: app.db}
	app.sessionService = &service.SessionService{
		Store: app.db,
		TTL:   app.cfg.SessionTTL,
	}
	app.twoFactorService = &service.TwoFactorService{
		Store:  app.db,
		Sender: app.sender,
	}
	app.resetService = &service.PasswordResetService{
		Store:  app.db,
		Sender: app.sender,
	}
	app.userAdminService = &service.UserAdminService{Store: app.db}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

// initHTTP initializes the HTTP router and server.
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		BuildVersion,
		app.cfg.IsProd(),  // secure cookies
		!app.cfg.IsProd(), // debug reset tokens
		app.db,
		app.logger,
	)

	router.AuthService = app.authService
	router.SessionService = app.sessionService
	router.TwoFactorService = app.twoFactorService
	router.ResetService = app.resetService
	router.UserAdminService = app.userAdminService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
