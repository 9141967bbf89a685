package di

import (
	"go.uber.org/fx"

	"github.com/jrjohn/arcana-account-adaptor/internal/config"
	"github.com/jrjohn/arcana-account-adaptor/internal/observability"
	"github.com/jrjohn/arcana-account-adaptor/pkg/adaptor/options"
	"github.com/jrjohn/arcana-account-adaptor/pkg/logger"
)

// ConfigModule provides configuration dependencies
var ConfigModule = fx.Module("config",
	fx.Provide(
		config.Load,
		provideAppConfig,
		provideServerConfig,
		provideLogConfig,
		provideAdaptorOptions,
		provideSchemaConfig,
		provideMetricsConfig,
		provideTracingConfig,
	),
)

func provideAppConfig(cfg *config.Config) *config.AppConfig {
	return &cfg.App
}

func provideServerConfig(cfg *config.Config) *config.ServerConfig {
	return &cfg.Server
}

func provideLogConfig(cfg *config.Config) logger.Config {
	return cfg.Log
}

func provideAdaptorOptions(cfg *config.Config) options.Options {
	return cfg.Adaptor
}

func provideSchemaConfig(cfg *config.Config) *config.SchemaConfig {
	return &cfg.Schema
}

func provideMetricsConfig(cfg *config.Config) *observability.MetricsConfig {
	return &cfg.Metrics
}

func provideTracingConfig(cfg *config.Config) *observability.TracingConfig {
	return &cfg.Tracing
}
