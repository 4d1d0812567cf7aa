// Package main provides the entry point for the Impacto link tracking service.
//
//	@title			Impacto API
//	@version		1.0.0
//	@description	Link shortening and click analytics for creators and agencies.
//
//	@contact.name	Impacto Support
//	@contact.email	suporte@impacto.app
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host		localhost:8080
//	@BasePath	/
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT Authorization header. Format: "Bearer {token}"
package main

import (
	"context"
	lg "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"impacto-backend/internal/auth"
	"impacto-backend/internal/config"
	"impacto-backend/internal/database"
	httpHandler "impacto-backend/internal/handler/http"
	"impacto-backend/internal/repository/postgres"
	"impacto-backend/internal/service"
	"impacto-backend/pkg/geoip"
	"impacto-backend/pkg/logger"

	"go.uber.org/zap"

	_ "impacto-backend/docs" // Import swagger docs
)

func main() {
	cfg := config.MustLoad()
	log := logger.New(cfg.Env)
	defer func() {
		if err := log.Sync(); err != nil {
			lg.Printf("ERROR: failed to sync zap logger: %v\n", err)
		}
	}()

	log.Info("starting impacto backend", zap.String("env", cfg.Env))

	db, err := database.NewConnection(&cfg.Database, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := database.Close(db, log); err != nil {
			log.Error("failed to close database connection", zap.Error(err))
		}
	}()

	if cfg.Database.AutoMigrate {
		log.Info("running database migrations (auto_migrate: true)")
		if err := database.AutoMigrate(db, log); err != nil {
			log.Fatal("failed to run database migrations", zap.Error(err))
		}
	} else {
		log.Info("skipping database migrations (auto_migrate: false)")
	}

	storage := postgres.New(db, log)
	shortener := service.NewShortener(storage, &cfg.ShortCode)
	analytics := service.NewAnalytics(storage)
	reports := service.NewReports(storage)

	var geoResolver geoip.Resolver = geoip.Disabled{}
	if cfg.GeoIP.Endpoint != "" {
		log.Info("enabling geoip lookups", zap.String("endpoint", cfg.GeoIP.Endpoint))
		geoResolver = geoip.NewHTTPResolver(cfg.GeoIP.Endpoint)
	}

	jwtService := auth.NewJWTService(&auth.JWTConfig{
		SecretKey:      []byte(cfg.Auth.JWTSecret),
		AccessTokenTTL: cfg.Auth.AccessTokenTTL,
		Issuer:         cfg.Auth.Issuer,
	})
	passwordService := auth.NewPasswordService()

	server := httpHandler.NewServer(
		db,
		storage,
		shortener,
		analytics,
		reports,
		geoResolver,
		jwtService,
		passwordService,
		log,
		cfg.HTTPServer.BaseURL,
		cfg.HTTPServer.CORSOrigin,
	)

	httpServer := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      server.SetupRoutes(),
		ReadTimeout:  cfg.HTTPServer.ReadTimeout,
		WriteTimeout: cfg.HTTPServer.WriteTimeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	log.Info("starting HTTP server", zap.String("address", cfg.HTTPServer.Address))

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down impacto backend...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to shutdown HTTP server", zap.Error(err))
	} else {
		log.Info("HTTP server stopped")
	}
}
