package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/prperemyshlev/outreach-service/internal/config"
	"github.com/prperemyshlev/outreach-service/internal/handler"
	"github.com/prperemyshlev/outreach-service/pkg/observability"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	infra  Infrastructure
	config *config.Config
	router *gin.Engine
	server *http.Server
}

type handlers struct {
	auth     *handler.AuthHandler
	profile  *handler.ProfileHandler
	mail     *handler.MailHandler
	outreach *handler.OutreachHandler
	search   *handler.SearchHandler
	health   *HealthChecker
	mcp      http.Handler
}

func NewApp(ctx context.Context, infra Infrastructure, cfg *config.Config) (*App, error) {
	services, err := NewServices(ctx, infra, cfg)
	if err != nil {
		return nil, err
	}

	h := handlers{
		auth:     handler.NewAuthHandler(services.Auth),
		profile:  handler.NewProfileHandler(services.Profiles, cfg.PDF.MaxUploadMB<<20),
		mail:     handler.NewMailHandler(services.Mail),
		outreach: handler.NewOutreachHandler(services.Outreach),
		search:   handler.NewSearchHandler(services.Search, services.Connections),
		health:   NewHealthChecker(infra),
	}

	if cfg.MCP.APIKey != "" {
		mcpServer, err := services.MCPServer(infra.Logger())
		if err != nil {
			return nil, fmt.Errorf("failed to create MCP server: %w", err)
		}
		h.mcp = mcpServer.Handler()
	} else {
		infra.Logger().Info("MCP_API_KEY is not set, /mcp is disabled")
	}

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(handler.RequestIDMiddleware())
	router.Use(handler.LoggerMiddleware(infra.Logger()))
	router.Use(handler.CORSMiddleware(cfg.CORS.AllowedOrigins, cfg.CORS.AllowedMethods, cfg.CORS.AllowedHeaders))

	setupRoutes(router, cfg, h, services, infra)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout.Duration,
		WriteTimeout: cfg.Server.WriteTimeout.Duration,
	}

	return &App{
		infra:  infra,
		config: cfg,
		router: router,
		server: srv,
	}, nil
}

func (a *App) Router() *gin.Engine {
	return a.router
}

func setupRoutes(router *gin.Engine, cfg *config.Config, h handlers, services *Services, infra Infrastructure) {
	router.GET("/metrics", observability.PrometheusHandler(infra.MetricsHandler()))
	router.GET("/health", h.health.Handler)

	limit := cfg.Security.RateLimitRequests
	window := cfg.Security.RateLimitWindow.Duration
	logger := infra.Logger()
	perIP := handler.RateLimitMiddleware(services.Limiter, limit, window, handler.IPBasedKey, logger)
	perUser := handler.RateLimitMiddleware(services.Limiter, limit, window, handler.UserBasedKey, logger)

	if h.mcp != nil {
		mcpRoute := gin.WrapH(h.mcp)
		guard := handler.APIKeyMiddleware(cfg.MCP.APIKey)
		router.GET("/mcp", guard, mcpRoute)
		router.POST("/mcp", guard, mcpRoute)
		router.DELETE("/mcp", guard, mcpRoute)
	}

	api := router.Group("/api/v1")
	{
		auth := api.Group("/auth")
		{
			auth.GET("/google/login", perIP, h.auth.Login)
			auth.GET("/google/callback", perIP, h.auth.Callback)
			auth.GET("/status", handler.AuthMiddleware(services.Auth), h.auth.Status)
		}

		protected := api.Group("", handler.AuthMiddleware(services.Auth))
		{
			protected.GET("/profile", h.profile.Get)
			protected.PUT("/profile", h.profile.Save)
			protected.POST("/profile/resume", perUser, h.profile.UploadResume)

			protected.POST("/mail/send", perUser, h.mail.Send)
			protected.GET("/mail/conversation", h.mail.Conversation)

			protected.POST("/outreach", perUser, h.outreach.Run)
			protected.GET("/outreach/history", h.outreach.History)

			protected.POST("/search/web", perUser, h.search.Web)
			protected.POST("/search/people", perUser, h.search.People)
			protected.POST("/connections", perUser, h.search.Connect)
		}
	}
}

func (a *App) Run(ctx context.Context) error {
	errChan := make(chan error, 1)

	go func() {
		a.infra.Logger().Info("Application starting",
			zap.String("host", a.config.Server.Host),
			zap.String("port", a.config.Server.Port),
			zap.String("storage", a.config.Storage.Driver),
		)

		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.infra.Logger().Error("Server error", zap.Error(err))
			errChan <- err
		}
	}()

	var serverErr error
	select {
	case err := <-errChan:
		a.infra.Logger().Error("Application failed to start", zap.Error(err))
		serverErr = err
	case <-ctx.Done():
		a.infra.Logger().Info("Application stopped by context")
	}

	if err := a.Shutdown(); err != nil {
		a.infra.Logger().Error("Shutdown error", zap.Error(err))
		if serverErr != nil {
			return errors.Join(serverErr, err)
		}
		return err
	}

	return serverErr
}

func (a *App) Shutdown() error {
	a.infra.Logger().Info("Application shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// stop accepting requests before the stores go away
	serverErr := a.server.Shutdown(ctx)
	infraErr := a.infra.Shutdown(ctx)

	if err := errors.Join(serverErr, infraErr); err != nil {
		a.infra.Logger().Error("Shutdown failed", zap.Error(err))
		return err
	}

	a.infra.Logger().Info("Application exited successfully")
	return nil
}
