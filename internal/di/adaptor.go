package di

import (
	"context"
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/jrjohn/arcana-account-adaptor/internal/config"
	"github.com/jrjohn/arcana-account-adaptor/internal/observability"
	"github.com/jrjohn/arcana-account-adaptor/pkg/adaptor"
	"github.com/jrjohn/arcana-account-adaptor/pkg/adaptor/options"
	"github.com/jrjohn/arcana-account-adaptor/pkg/adaptor/schema"
	"github.com/jrjohn/arcana-account-adaptor/pkg/adaptor/store"
)

// AdaptorModule provides the account facade and ties its connection to the app lifecycle
var AdaptorModule = fx.Module("adaptor",
	fx.Provide(
		provideSchema,
		provideAdaptor,
	),
	fx.Invoke(registerAdaptorLifecycle),
)

// provideSchema declares the host's account schema. In profile mode the username
// and email live under the profile sub-document; in flat mode only email is
// declared and the adaptor adds the username.
func provideSchema(raw options.Options, cfg *config.SchemaConfig) (*schema.Schema, error) {
	resolved, err := options.Resolve(raw)
	if err != nil {
		return nil, err
	}
	return BuildSchema(resolved, cfg.ProfileFields), nil
}

// BuildSchema returns the host schema for resolved options plus the extra profile fields.
func BuildSchema(cfg *options.Config, profileFields []string) *schema.Schema {
	if !cfg.ProfileMode() {
		s := schema.New(schema.Decl{Path: cfg.FieldName(options.FieldEmail), Type: schema.String, Trim: true})
		for _, name := range profileFields {
			s.Add(schema.Decl{Path: name, Type: schema.Mixed})
		}
		return s
	}

	s := schema.New(
		schema.Decl{Path: cfg.ProfileField(), Type: schema.Document},
		schema.Decl{Path: cfg.Path(options.FieldUsername), Type: schema.String, Trim: true, Unique: cfg.UsernameUnique()},
		schema.Decl{Path: cfg.Path(options.FieldEmail), Type: schema.String, Trim: true},
	)
	for _, name := range profileFields {
		s.Add(schema.Decl{Path: cfg.ProfilePath(name), Type: schema.Mixed})
	}
	return s
}

func provideAdaptor(
	st store.Store,
	s *schema.Schema,
	raw options.Options,
	tp *observability.TracingProvider,
	logger *zap.Logger,
) (*adaptor.Adaptor, error) {
	return adaptor.Attach(st, s, raw,
		adaptor.WithLogger(logger),
		adaptor.WithTracer(tp.Tracer()),
	)
}

func registerAdaptorLifecycle(lc fx.Lifecycle, a *adaptor.Adaptor, mp *observability.MetricsProvider, logger *zap.Logger) error {
	if err := mp.ObserveStoreState(a.State); err != nil {
		return fmt.Errorf("failed to register store state gauge: %w", err)
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("Connecting account store",
				zap.String("database", a.Config().Driver().Database),
				zap.String("collection", a.Config().Driver().Collection),
			)
			if err := a.Connect(ctx); err != nil {
				return fmt.Errorf("failed to connect account store: %w", err)
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Disconnecting account store")
			return a.Disconnect(ctx)
		},
	})
	return nil
}
