package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/statboard/internal/config"
	"github.com/prperemyshlev/statboard/internal/domain"
	"github.com/prperemyshlev/statboard/internal/handler"
	"github.com/prperemyshlev/statboard/internal/oauth"
	"github.com/prperemyshlev/statboard/internal/repository"
	"github.com/prperemyshlev/statboard/internal/service"
	"github.com/prperemyshlev/statboard/internal/utils"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	infra   Infrastructure
	config  *config.Config
	router  *gin.Engine
	server  *http.Server
	sweeper *service.TokenSweeper
}

// handlers groups everything the router needs
type handlers struct {
	auth      *handler.AuthHandler
	users     *handler.UserHandler
	products  *handler.ProductHandler
	stats     *handler.StatisticHandler
	files     *handler.FileHandler
	health    *HealthChecker
	providers []domain.Provider
}

func NewApp(infra Infrastructure, cfg *config.Config) (*App, error) {
	logger := infra.Logger()
	repos := repository.NewRepositories(infra.Postgres())
	uploadsPath := cfg.Server.GlobalPrefix + "/uploads"

	jwtManager := utils.NewJWTManager(
		cfg.JWT.Secret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessTokenExpiry.Duration,
		cfg.JWT.RefreshTokenExpiry.Duration,
	)

	responseCache := service.NewRedisResponseCache(infra.Redis())
	rateLimiter := service.NewRateLimiter(infra.Redis())
	sessions := service.NewSessionService(repos.Token, repos.User, jwtManager, logger)
	authService := service.NewAuthService(
		repos.User,
		sessions,
		jwtManager,
		logger,
		cfg.Security.BCryptCost,
		defaultRoles(cfg.OAuth.DefaultRoles),
	)
	userService := service.NewUserService(repos.User, infra.Files(), uploadsPath, cfg.Security.BCryptCost, logger)
	productService := service.NewProductService(repos.Product)
	statService := service.NewStatisticService(repos.Statistic)
	fileService := service.NewFileService(
		infra.Files(),
		repos.User,
		uploadsPath,
		cfg.Files.MaxSizeBytes(),
		cfg.Files.FetchTimeout.Duration,
		logger,
	)

	sweeper, err := service.NewTokenSweeper(repos.Token, cfg.Cleanup.Schedule, logger)
	if err != nil {
		return nil, err
	}

	registry := oauth.NewRegistry(cfg.OAuth, &http.Client{Timeout: cfg.OAuth.Timeout.Duration})

	h := handlers{
		auth:      handler.NewAuthHandler(authService, registry, cfg.OAuth.Timeout.Duration, cfg.IsProduction()),
		users:     handler.NewUserHandler(userService),
		products:  handler.NewProductHandler(productService),
		stats:     handler.NewStatisticHandler(statService),
		files:     handler.NewFileHandler(fileService, cfg.Server.PublicURL),
		health:    NewHealthChecker(infra),
		providers: []domain.Provider{domain.ProviderGoogle, domain.ProviderGitHub, domain.ProviderYandex},
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	if err := router.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		return nil, fmt.Errorf("invalid trusted proxies: %w", err)
	}
	router.Use(gin.CustomRecovery(handler.RecoveryHandler(logger)))
	router.Use(otelgin.Middleware(serviceName))
	router.Use(handler.LoggerMiddleware(logger, "/health", "/metrics"))
	router.Use(handler.CORSMiddleware(cfg.CORS.AllowedOrigins, cfg.CORS.AllowedMethods, cfg.CORS.AllowedHeaders))
	router.Use(handler.ErrorMiddleware(fileService, logger))

	setupRoutes(router, cfg, h, middlewares{
		auth:      handler.AuthMiddleware(authService),
		admin:     handler.RoleMiddleware(domain.RoleAdmin),
		access:    handler.AccessMiddleware(),
		cache:     handler.CacheMiddleware(responseCache, cfg.Cache.TTL.Duration, logger),
		noCache:   handler.NoCacheMiddleware(responseCache, logger),
		rateLimit: handler.RateLimitMiddleware(rateLimiter, cfg.Security.RateLimitRequests, cfg.Security.RateLimitWindow.Duration, handler.RouteAndIPKey, logger),
	}, infra.MetricsHandler())

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout.Duration,
		WriteTimeout: cfg.Server.WriteTimeout.Duration,
	}

	return &App{
		infra:   infra,
		config:  cfg,
		router:  router,
		server:  srv,
		sweeper: sweeper,
	}, nil
}

func (a *App) Router() *gin.Engine {
	return a.router
}

func defaultRoles(values []string) []domain.Role {
	roles := make([]domain.Role, 0, len(values))
	for _, v := range values {
		roles = append(roles, domain.Role(v))
	}
	return roles
}

func (a *App) Run(ctx context.Context) error {
	errChan := make(chan error, 1)

	a.sweeper.Start()

	go func() {
		a.infra.Logger().Info("Application starting",
			zap.String("host", a.config.Server.Host),
			zap.String("port", a.config.Server.Port),
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

	// Stop accepting work before the connections it needs go away
	err := errors.Join(a.server.Shutdown(ctx), a.sweeper.Stop(ctx))
	err = errors.Join(err, a.infra.Shutdown(ctx))
	if err != nil {
		a.infra.Logger().Error("Shutdown failed", zap.Error(err))
		return err
	}

	a.infra.Logger().Info("Application exited successfully")
	return nil
}
