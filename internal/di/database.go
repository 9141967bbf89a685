package di

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/jrjohn/arcana-account-adaptor/internal/observability"
	"github.com/jrjohn/arcana-account-adaptor/pkg/adaptor/store"
	mongostore "github.com/jrjohn/arcana-account-adaptor/pkg/store/mongo"
)

// DatabaseModule provides the MongoDB-backed account store. The connection
// itself is opened by the adaptor lifecycle.
var DatabaseModule = fx.Module("database",
	fx.Provide(provideStore),
)

func provideStore(mp *observability.MetricsProvider, logger *zap.Logger) store.Store {
	return mongostore.New(
		mongostore.WithLogger(logger),
		mongostore.WithRecorder(mp),
	)
}
