package di

import (
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/jrjohn/arcana-account-adaptor/internal/config"
)

// AppModule aggregates all application modules
var AppModule = fx.Options(
	ConfigModule,
	LoggerModule,
	ObservabilityModule,
	DatabaseModule,
	AdaptorModule,
	ControllerModule,
	HTTPServerModule,
)

// EventLogger routes fx lifecycle events through zap
func EventLogger(logger *zap.Logger) fxevent.Logger {
	return &fxevent.ZapLogger{Logger: logger.Named("fx")}
}

// PrintBanner prints the application startup banner
func PrintBanner(cfg *config.Config, logger *zap.Logger) {
	logger.Info("===========================================")
	logger.Info("        Arcana Account Adaptor             ")
	logger.Info("===========================================")
	logger.Info("Application Info",
		zap.String("name", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)
	logger.Info("Account Store",
		zap.String("database", cfg.Adaptor.Driver.Database),
		zap.String("collection", cfg.Adaptor.Driver.Collection),
		zap.Bool("profile_mode", cfg.Adaptor.ProfileMode == nil || *cfg.Adaptor.ProfileMode),
	)
	logger.Info("===========================================")
}
