// Package adaptor binds a configurable user-account abstraction onto a document store.
//
// Attach resolves the raw options, augments the host's schema with the fields the
// adaptor needs and returns an Adaptor whose methods implement the account
// operations. Lookups that find nothing return a nil document and a nil error.
package adaptor

import (
	"context"
	"sort"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/jrjohn/arcana-account-adaptor/pkg/adaptor/document"
	"github.com/jrjohn/arcana-account-adaptor/pkg/adaptor/options"
	"github.com/jrjohn/arcana-account-adaptor/pkg/adaptor/schema"
	"github.com/jrjohn/arcana-account-adaptor/pkg/adaptor/store"
	apperrors "github.com/jrjohn/arcana-account-adaptor/pkg/errors"
	"github.com/jrjohn/arcana-account-adaptor/pkg/logger"
)

const tracerName = "github.com/jrjohn/arcana-account-adaptor/pkg/adaptor"

// Adaptor exposes the account operations over a store and a resolved configuration.
// It is safe for concurrent use; the documents it returns are not.
type Adaptor struct {
	cfg    *options.Config
	schema *schema.Schema
	store  store.Store
	logger *zap.Logger
	tracer trace.Tracer
}

// Option configures an Adaptor.
type Option func(*Adaptor)

// WithLogger sets the adaptor logger.
func WithLogger(l *zap.Logger) Option {
	return func(a *Adaptor) {
		a.logger = logger.ForComponent(l, "adaptor")
	}
}

// WithTracer sets the tracer used for operation spans.
func WithTracer(t trace.Tracer) Option {
	return func(a *Adaptor) {
		if t != nil {
			a.tracer = t
		}
	}
}

// Attach resolves raw, augments s in place and returns the operations facade.
// Configuration errors are returned before s is touched.
func Attach(st store.Store, s *schema.Schema, raw options.Options, opts ...Option) (*Adaptor, error) {
	cfg, err := options.Resolve(raw)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, apperrors.ErrNotConnected.WithMessage("store is required")
	}
	if err := schema.Apply(s, cfg); err != nil {
		return nil, err
	}

	a := &Adaptor{
		cfg:    cfg,
		schema: s,
		store:  st,
		logger: zap.NewNop(),
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Config returns the resolved configuration.
func (a *Adaptor) Config() *options.Config { return a.cfg }

// Schema returns the augmented schema.
func (a *Adaptor) Schema() *schema.Schema { return a.schema }

// State returns the store connection state.
func (a *Adaptor) State() store.State { return a.store.State() }

// Connect opens the store connection and ensures the schema's unique indexes.
func (a *Adaptor) Connect(ctx context.Context) (err error) {
	ctx, span := a.start(ctx, "Connect")
	defer finish(span, &err)

	if err = a.store.Connect(ctx, a.cfg.ConnectionURI(), a.cfg.Driver()); err != nil {
		return err
	}
	return a.store.EnsureIndexes(ctx, a.schema.Indexes())
}

// Disconnect closes the store connection.
func (a *Adaptor) Disconnect(ctx context.Context) error {
	return a.store.Disconnect(ctx)
}

// FindByID loads an account by its hex identifier.
func (a *Adaptor) FindByID(ctx context.Context, id string) (doc *document.Document, err error) {
	ctx, span := a.start(ctx, "FindByID", attribute.String("account.id", id))
	defer finish(span, &err)

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInvalidID)
	}
	return a.store.FindByID(ctx, oid)
}

// FindByUsername loads the account whose identity field equals username,
// normalized the way writes normalize it (trim, lower-case when configured).
func (a *Adaptor) FindByUsername(ctx context.Context, username string) (doc *document.Document, err error) {
	ctx, span := a.start(ctx, "FindByUsername")
	defer finish(span, &err)

	path := a.cfg.Path(options.FieldUsername)
	return a.store.FindOne(ctx, map[string]any{path: a.cast(path, username)})
}

// FindByEmail loads the account whose email field equals email, normalized like writes.
func (a *Adaptor) FindByEmail(ctx context.Context, email string) (doc *document.Document, err error) {
	ctx, span := a.start(ctx, "FindByEmail")
	defer finish(span, &err)

	path := a.cfg.Path(options.FieldEmail)
	return a.store.FindOne(ctx, map[string]any{path: a.cast(path, email)})
}

// Create persists a new account from props. Keys declared at the top level are
// stored there; in profile mode keys declared under the profile are nested, and a
// profile map value is merged key by key. Undeclared keys are dropped.
func (a *Adaptor) Create(ctx context.Context, props map[string]any) (doc *document.Document, err error) {
	ctx, span := a.start(ctx, "Create")
	defer finish(span, &err)

	doc = document.New(bson.M{})
	profile := a.cfg.ProfileField()

	for _, k := range sortedKeys(props) {
		v := props[k]
		if k == profile && a.cfg.ProfileMode() {
			if sub, ok := document.AsMap(v); ok {
				for _, pk := range sortedKeys(sub) {
					a.setProfileField(doc, pk, sub[pk])
				}
				continue
			}
		}
		switch {
		case a.schema.Has(k) && !strings.HasPrefix(k, profile+"."):
			doc.Set(k, a.cast(k, v))
		case a.cfg.ProfileMode():
			a.setProfileField(doc, k, v)
		default:
			a.logger.Debug("Dropping undeclared property", zap.String("property", k))
		}
	}
	a.schema.ApplyDefaults(doc)

	if err = a.store.Insert(ctx, doc); err != nil {
		return nil, err
	}
	a.logger.Debug("Account created", zap.String("id", doc.ID().Hex()))
	return doc, nil
}

func (a *Adaptor) setProfileField(doc *document.Document, key string, v any) bool {
	path := a.cfg.ProfilePath(key)
	if !a.schema.Has(path) {
		a.logger.Debug("Dropping undeclared profile property", zap.String("property", key))
		return false
	}
	doc.Set(path, a.cast(path, v))
	return true
}

// cast applies the schema modifiers of path, and lower-cases the identity field
// when usernames are stored lower-cased.
func (a *Adaptor) cast(path string, v any) any {
	v = a.schema.Cast(path, v)
	if path == a.cfg.Path(options.FieldUsername) && a.cfg.UsernameLowerCase() {
		if s, ok := v.(string); ok {
			return strings.ToLower(s)
		}
	}
	return v
}

// Update maps each logical field to its stored path, applies all changes and
// saves once. Empty changes return doc unchanged without a write.
func (a *Adaptor) Update(ctx context.Context, doc *document.Document, changes map[options.Field]any) (_ *document.Document, err error) {
	if len(changes) == 0 {
		return doc, nil
	}
	ctx, span := a.start(ctx, "Update")
	defer finish(span, &err)

	if doc == nil {
		return nil, apperrors.ErrNotFound
	}
	for f := range changes {
		if !f.Valid() {
			return nil, apperrors.ErrUnknownField.WithDetail("%s", f)
		}
	}

	// The profile sub-document goes first so nested identity changes land inside it.
	if v, ok := changes[options.FieldProfile]; ok {
		path := a.cfg.Path(options.FieldProfile)
		doc.Set(path, a.cast(path, v))
	}
	for _, f := range options.Fields() {
		v, ok := changes[f]
		if !ok || f == options.FieldProfile {
			continue
		}
		path := a.cfg.Path(f)
		doc.Set(path, a.cast(path, v))
	}

	if err = a.store.Save(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// EditProfile sets fields declared under the profile sub-document and saves once.
// Undeclared keys are dropped; if nothing remains no write happens.
func (a *Adaptor) EditProfile(ctx context.Context, doc *document.Document, changes map[string]any) (_ *document.Document, err error) {
	if !a.cfg.ProfileMode() {
		return nil, apperrors.ErrProfileDisabled
	}
	if len(changes) == 0 {
		return doc, nil
	}
	ctx, span := a.start(ctx, "EditProfile")
	defer finish(span, &err)

	if doc == nil {
		return nil, apperrors.ErrNotFound
	}

	changed := false
	for _, k := range sortedKeys(changes) {
		if a.setProfileField(doc, k, changes[k]) {
			changed = true
		}
	}
	if !changed {
		return doc, nil
	}

	if err = a.store.Save(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (a *Adaptor) start(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs, attribute.String("account.operation", op))
	return a.tracer.Start(ctx, "account."+op, trace.WithAttributes(attrs...))
}

func finish(span trace.Span, errp *error) {
	if err := *errp; err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
