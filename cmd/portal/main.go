// Command portal serves the accounting portal REST API.
//
//	@title						Accounting Portal API
//	@version					1.0
//	@description				Messaging and document exchange between organizations, their accountants and portal administrators.
//	@BasePath					/
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/contaportal/portal/internal/api"
	"github.com/contaportal/portal/internal/api/handler"
	"github.com/contaportal/portal/internal/core/service"
	mongodb "github.com/contaportal/portal/internal/infrastructure/db/mongo"
	redisdb "github.com/contaportal/portal/internal/infrastructure/db/redis"
	"github.com/contaportal/portal/internal/pkg/config"
	"github.com/contaportal/portal/pkg/logger"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.Env == "development",
		Service: "portal",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		AppName:  "portal",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongo unavailable")
	}
	defer func() { _ = store.Close(5 * time.Second) }()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis unavailable")
	}
	defer rdb.Close()

	// --- Repositories ---
	users := mongodb.NewAuthRepository(store.DB)
	messages := mongodb.NewMessageRepository(store.DB)
	documents, err := mongodb.NewDocumentRepository(store.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("gridfs bucket")
	}
	alerts := mongodb.NewAlertRepository(store.DB)
	if err := store.EnsureIndexes(ctx, users, messages, documents, alerts); err != nil {
		log.Fatal().Err(err).Msg("ensure indexes")
	}
	revocations := redisdb.NewRevocationList(rdb)

	// --- Services ---
	authService := service.NewAuthService(users, revocations, cfg.JWTSecret, cfg.TokenTTL)
	messageService := service.NewMessageService(users, messages, logger.Component("messages"))
	documentService := service.NewDocumentService(users, documents, cfg.MaxUploadBytes, logger.Component("documents"))
	alertService := service.NewAlertService(users, alerts, logger.Component("alerts"))

	if cfg.Bootstrap.AdminEmail != "" && cfg.Bootstrap.AdminPassword != "" {
		created, err := authService.EnsureAdmin(ctx, cfg.Bootstrap.AdminEmail, cfg.Bootstrap.AdminPassword)
		if err != nil {
			log.Fatal().Err(err).Msg("bootstrap admin")
		}
		if created {
			log.Info().Str("email", cfg.Bootstrap.AdminEmail).Msg("bootstrap admin created")
		}
	}

	e := api.NewRouter(api.Deps{
		Auth:        authService,
		Messages:    messageService,
		Documents:   documentService,
		Alerts:      alertService,
		Revocations: revocations,
		Readiness: map[string]handler.PingFunc{
			"mongo": store.Ping,
			"redis": func(ctx context.Context) error { return redisdb.Ping(ctx, rdb, 2*time.Second) },
		},
		JWTSecret:      cfg.JWTSecret,
		MaxUploadBytes: cfg.MaxUploadBytes,
		Log:            logger.Component("http"),
	})

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("portal api listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
