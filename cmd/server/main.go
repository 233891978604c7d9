// Command server runs the contact intake API.
//
// Bootstrap order: environment (.env) → config → logging → tracing →
// storage → session store → notifier → router → HTTP server with graceful
// shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/bagooon/chatease-intake/internal/config"
	httpapi "github.com/bagooon/chatease-intake/internal/http"
	"github.com/bagooon/chatease-intake/internal/notify"
	"github.com/bagooon/chatease-intake/internal/observability"
	"github.com/bagooon/chatease-intake/internal/repo"
	"github.com/bagooon/chatease-intake/internal/session"
	"github.com/bagooon/chatease-intake/internal/sysutil"
)

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	_ = godotenv.Load()

	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	gin.SetMode(cfg.GinMode)

	ctx := context.Background()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("database open failed")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrations failed")
	}

	var sessions session.Store
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			log.Fatal().Err(err).Str("addr", cfg.RedisAddr).Msg("redis connection failed")
		}
		defer client.Close()
		sessions = session.NewRedisStore(client, cfg.SessionTTL)
		log.Info().Str("addr", cfg.RedisAddr).Msg("using redis session store")
	} else {
		sessions = session.NewMemoryStore(cfg.SessionTTL)
		log.Info().Msg("using in-memory session store")
	}

	if cfg.FormTokenSecret == "" {
		// Tokens from before a restart will not verify with a generated
		// secret; set FORM_TOKEN_SECRET in production.
		cfg.FormTokenSecret = uuid.NewString()
		log.Warn().Msg("FORM_TOKEN_SECRET not set, generated an ephemeral secret")
	}

	var notifier notify.Notifier = notify.LogNotifier{}
	if cfg.SMTP.Addr != "" {
		notifier = &notify.SMTPNotifier{
			Addr: cfg.SMTP.Addr,
			From: sysutil.FirstNonEmpty(cfg.SMTP.From, "noreply@localhost"),
		}
		log.Info().Str("addr", cfg.SMTP.Addr).Msg("using smtp notifier")
	}

	r := gin.New()
	httpapi.RegisterRoutes(r, db, sessions, notifier, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
	if err := shutdownOTel(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("otel shutdown failed")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
