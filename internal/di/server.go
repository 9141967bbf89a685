package di

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/jrjohn/arcana-account-adaptor/internal/config"
	httpctrl "github.com/jrjohn/arcana-account-adaptor/internal/controller/http"
	"github.com/jrjohn/arcana-account-adaptor/internal/middleware"
	"github.com/jrjohn/arcana-account-adaptor/internal/observability"
)

// HTTPServerModule provides HTTP server dependencies
var HTTPServerModule = fx.Module("http_server",
	fx.Provide(provideGinEngine),
	fx.Provide(provideHTTPServer),
	fx.Invoke(registerHTTPRoutes),
	fx.Invoke(startHTTPServer),
)

func provideGinEngine(
	cfg *config.AppConfig,
	server *config.ServerConfig,
	tracing *observability.TracingConfig,
	mp *observability.MetricsProvider,
	logger *zap.Logger,
) *gin.Engine {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger))
	router.Use(middleware.CORS(server.CORS))
	router.Use(observability.TracingMiddleware(tracing.ServiceName))
	router.Use(observability.MetricsMiddleware(mp))

	return router
}

func provideHTTPServer(cfg *config.ServerConfig, router *gin.Engine) *http.Server {
	return &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}

// Controllers is a struct that holds all HTTP controllers for fx to inject
type Controllers struct {
	fx.In

	Account *httpctrl.AccountController
	Health  *httpctrl.HealthController
}

func registerHTTPRoutes(
	router *gin.Engine,
	controllers Controllers,
	metrics *observability.MetricsConfig,
	mp *observability.MetricsProvider,
) {
	controllers.Health.RegisterRoutes(router)
	if metrics.Enabled {
		router.GET(metrics.PrometheusPath, gin.WrapH(mp.Handler()))
	}

	api := router.Group("/api/v1")
	controllers.Account.RegisterRoutes(api)
}

func startHTTPServer(lc fx.Lifecycle, server *http.Server, cfg *config.ServerConfig, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", server.Addr)
			if err != nil {
				return err
			}
			logger.Info("Starting HTTP server", zap.String("address", ln.Addr().String()))
			go func() {
				if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("HTTP server error", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Stopping HTTP server")
			if cfg.ShutdownTimeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, cfg.ShutdownTimeout)
				defer cancel()
			}
			return server.Shutdown(ctx)
		},
	})
}
