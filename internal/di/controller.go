package di

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	httpctrl "github.com/jrjohn/arcana-account-adaptor/internal/controller/http"
	"github.com/jrjohn/arcana-account-adaptor/internal/observability"
	"github.com/jrjohn/arcana-account-adaptor/pkg/adaptor"
)

// ControllerModule provides HTTP controller dependencies
var ControllerModule = fx.Module("controller",
	fx.Provide(
		provideAccountController,
		provideHealthController,
	),
)

func provideAccountController(
	accounts *adaptor.Adaptor,
	mp *observability.MetricsProvider,
	logger *zap.Logger,
) *httpctrl.AccountController {
	return httpctrl.NewAccountController(accounts, mp, logger)
}

func provideHealthController(accounts *adaptor.Adaptor) *httpctrl.HealthController {
	return httpctrl.NewHealthController(accounts)
}
