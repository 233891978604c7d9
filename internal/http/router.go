// Package httpapi wires the HTTP transport (Gin) to the intake services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// compression, CORS, security headers, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/bagooon/chatease-intake/internal/captcha"
	"github.com/bagooon/chatease-intake/internal/chatease"
	"github.com/bagooon/chatease-intake/internal/config"
	"github.com/bagooon/chatease-intake/internal/domain"
	"github.com/bagooon/chatease-intake/internal/http/handlers"
	"github.com/bagooon/chatease-intake/internal/http/middleware"
	"github.com/bagooon/chatease-intake/internal/notify"
	"github.com/bagooon/chatease-intake/internal/repo"
	"github.com/bagooon/chatease-intake/internal/security"
	"github.com/bagooon/chatease-intake/internal/services"
	"github.com/bagooon/chatease-intake/internal/session"
)

// configStoreShim adapts the repository free functions to the
// services.ConfigStore interface. This keeps services decoupled from the
// concrete repo package while reusing the existing functions.
type configStoreShim struct {
	db *gorm.DB
}

// GetGlobal proxies repo.GetSetting.
func (s configStoreShim) GetGlobal(ctx context.Context, name string) (string, error) {
	return repo.GetSetting(ctx, s.db, name)
}

// GetForm proxies repo.GetForm.
func (s configStoreShim) GetForm(ctx context.Context, id uint) (*domain.FormDefinition, error) {
	return repo.GetForm(ctx, s.db, id)
}

// dynamicCaptcha reads the reCAPTCHA keys from settings on every check, so
// a key saved through the admin API takes effect without a restart. It
// keeps the pass-through semantics of an unconfigured verifier.
type dynamicCaptcha struct {
	db *gorm.DB
}

func (d dynamicCaptcha) Verify(ctx context.Context, token, remoteIP string) (bool, error) {
	siteKey, err := repo.GetSetting(ctx, d.db, repo.SettingRecaptchaSiteKey)
	if err != nil {
		return false, err
	}
	secret, err := repo.GetSetting(ctx, d.db, repo.SettingRecaptchaSecret)
	if err != nil {
		return false, err
	}
	return captcha.NewRecaptchaVerifier(siteKey, secret).Verify(ctx, token, remoteIP)
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine: observability (tracing, metrics), rate limiting, CORS and security
// headers, health and metrics endpoints, the visitor flow API under the
// configured base path, and the admin API.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Gzip compression
//  7. Metrics
//  8. Rate limiter (per visitor/IP)
//  9. CORS and Security headers
func RegisterRoutes(r *gin.Engine, db *gorm.DB, sessions session.Store, notifier notify.Notifier, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB); the flow payloads are small text
	r.Use(limitBody(1 << 20))

	// 6) Compress responses
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// 7) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 8) Token-bucket rate limiter per visitor/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByVisitorOrIP())
	r.Use(rl.Handler())

	// 9) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, found := allowed[origin]; found {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:  cfg.CORS.AllowedOrigins,
			AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
			ExposeHeaders: []string{"X-Request-ID", "Content-Length"},
			// The visitor cookie must travel cross-origin for embedded forms.
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// API docs
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← repo/db/session store
	configStore := configStoreShim{db: db}
	credentials := &services.CredentialResolver{Config: configStore}
	settings := &services.SettingsResolver{Config: configStore, AdminEmail: cfg.AdminEmail}

	newClient := func(apiToken, workspaceSlug string) (services.BoardAPI, error) {
		var opts []chatease.Option
		if cfg.ChatEaseBaseURL != "" {
			opts = append(opts, chatease.WithBaseURL(cfg.ChatEaseBaseURL))
		}
		return chatease.New(apiToken, workspaceSlug, opts...)
	}

	flow := &services.SubmissionService{
		DB:          db,
		Sessions:    sessions,
		Credentials: credentials,
		Settings:    settings,
		Captcha:     dynamicCaptcha{db: db},
		Notifier:    notifier,
		NewClient:   newClient,
	}

	formH := &handlers.FormHandler{
		Flow:        flow,
		Config:      configStore,
		Settings:    settings,
		Credentials: credentials,
		Tokens:      security.NewTokenIssuer(cfg.FormTokenSecret, cfg.FormTokenTTL),
		CaptchaSiteKey: func(ctx context.Context) string {
			key, _ := repo.GetSetting(ctx, db, repo.SettingRecaptchaSiteKey)
			return key
		},
	}
	adminH := &handlers.AdminHandler{
		DB:        db,
		Workspace: &services.WorkspaceValidator{NewClient: newClient},
	}

	// Public visitor flow
	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		api.GET("/forms/:id", formH.GetForm)
		api.POST("/forms/:id/confirm", formH.Confirm)
		api.POST("/forms/:id/submit", formH.Submit)
		api.POST("/forms/:id/back", formH.Back)
	}

	// Operator API
	admin := api.Group("/admin")
	{
		admin.GET("/settings", adminH.GetSettings)
		admin.PUT("/settings", adminH.PutSettings)
		admin.GET("/forms", adminH.ListForms)
		admin.POST("/forms", adminH.CreateForm)
		admin.GET("/forms/:id", adminH.GetFormDefinition)
		admin.PUT("/forms/:id", adminH.UpdateForm)
		admin.DELETE("/forms/:id", adminH.DeleteForm)
		admin.GET("/forms/:id/submissions", adminH.ListSubmissions)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
