package main

import (
	"go.uber.org/fx"

	"github.com/jrjohn/arcana-account-adaptor/internal/di"
)

func main() {
	app := fx.New(
		// Load all application modules via DI
		di.AppModule,

		// Print startup banner
		fx.Invoke(di.PrintBanner),

		// Configure fx logger to use zap
		fx.WithLogger(di.EventLogger),
	)

	app.Run()
}
