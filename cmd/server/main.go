// Command agrimon-server starts the agriculture monitoring REST API.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/orusagri/agrimon/internal/config"
	"github.com/orusagri/agrimon/internal/migrate"
	"github.com/orusagri/agrimon/internal/repository/postgres"
	httpserver "github.com/orusagri/agrimon/internal/server/http"
	"github.com/orusagri/agrimon/internal/service"
	"github.com/orusagri/agrimon/internal/token"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// main parses configuration, runs migrations, and starts the HTTP server.
func main() {
	cfg, err := config.FromFlags()
	if err != nil {
		// logger is not up yet
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(2)
	}

	var logger *zap.Logger
	if cfg.Dev {
		logger, _ = zap.NewDevelopment()
	} else {
		logger, _ = zap.NewProduction()
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", cfg.Addr),
	)

	// Context with OS signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := migrate.Up(ctx, cfg.DSN); err != nil {
		logger.Fatal("migrate up", zap.Error(err))
	}

	// DB pool
	db, err := postgres.New(ctx, cfg.DSN)
	if err != nil {
		logger.Fatal("postgres.New", zap.Error(err))
	}
	defer db.Close()

	// Repositories
	userRepo := postgres.NewUserRepo(db)
	cropRepo := postgres.NewCropRepo(db)
	sensorRepo := postgres.NewSensorRepo(db)
	readingRepo := postgres.NewReadingRepo(db)

	// Token issuer/verifier
	issuer, err := token.NewIssuer([]byte(cfg.JWTSecret), cfg.TokenTTL)
	if err != nil {
		logger.Fatal("token.NewIssuer", zap.Error(err))
	}

	// Services
	authSvc := service.NewAuthService(userRepo, issuer)
	userSvc := service.NewUserService(userRepo)
	cropSvc := service.NewCropService(cropRepo)
	sensorSvc := service.NewSensorService(sensorRepo, readingRepo, cropRepo)

	srv := httpserver.New(httpserver.Options{
		Log:        logger,
		Auth:       authSvc,
		Users:      userSvc,
		Crops:      cropSvc,
		Sensors:    sensorSvc,
		Verifier:   issuer,
		Accounts:   userRepo,
		CORSOrigin: cfg.CORSOrigin,
		Dev:        cfg.Dev,
	})

	httpSrv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.Addr))
		errCh <- httpSrv.ListenAndServe()
	}()

	// Wait for stop
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", zap.Error(err))
		}
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}

	logger.Info("shutdown complete")
}
