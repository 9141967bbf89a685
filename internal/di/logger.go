package di

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/jrjohn/arcana-account-adaptor/internal/config"
	"github.com/jrjohn/arcana-account-adaptor/pkg/logger"
)

// LoggerModule provides logging dependencies
var LoggerModule = fx.Module("logger",
	fx.Provide(provideLogger),
)

func provideLogger(cfg logger.Config, app *config.AppConfig) (*zap.Logger, error) {
	if app.Debug {
		cfg.Development = true
	}
	if cfg.Name == "" {
		cfg.Name = app.Name
	}
	return logger.New(cfg)
}
