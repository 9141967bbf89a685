// Package mongo provides the MongoDB implementation of the account store.
package mongo

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/event"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/jrjohn/arcana-account-adaptor/pkg/adaptor/document"
	adaptoropts "github.com/jrjohn/arcana-account-adaptor/pkg/adaptor/options"
	"github.com/jrjohn/arcana-account-adaptor/pkg/adaptor/schema"
	"github.com/jrjohn/arcana-account-adaptor/pkg/adaptor/store"
	apperrors "github.com/jrjohn/arcana-account-adaptor/pkg/errors"
	"github.com/jrjohn/arcana-account-adaptor/pkg/logger"
)

// Store implements store.Store on a single MongoDB collection.
type Store struct {
	logger   *zap.Logger
	recorder store.Recorder

	state atomic.Int32

	mu         sync.RWMutex
	client     *mongo.Client
	collection *mongo.Collection
}

var _ store.Store = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for connection lifecycle events.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		s.logger = logger.ForComponent(l, "mongo")
	}
}

// WithRecorder sets the operation metrics recorder.
func WithRecorder(r store.Recorder) Option {
	return func(s *Store) {
		if r != nil {
			s.recorder = r
		}
	}
}

// New creates an unconnected store.
func New(opts ...Option) *Store {
	s := &Store{
		logger:   zap.NewNop(),
		recorder: store.NopRecorder,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewWithCollection creates a store that is already ready on coll.
// The caller owns the client behind coll; Disconnect will not close it.
func NewWithCollection(coll *mongo.Collection, opts ...Option) *Store {
	s := New(opts...)
	s.collection = coll
	s.state.Store(int32(store.StateReady))
	return s
}

// State returns the current lifecycle state.
func (s *Store) State() store.State {
	return store.State(s.state.Load())
}

func (s *Store) setState(st store.State) {
	s.state.Store(int32(st))
}

// Connect opens a client on uri and pings the primary. It is a no-op once ready.
func (s *Store) Connect(ctx context.Context, uri string, opts adaptoropts.DriverOptions) (err error) {
	if s.State() == store.StateReady {
		return nil
	}
	defer s.observe(ctx, store.OpConnect, time.Now(), &err)

	s.setState(store.StateConnecting)
	s.logger.Info("Try connecting to mongodb",
		zap.String("database", opts.Database),
		zap.String("collection", opts.Collection),
	)

	client, err := mongo.Connect(ctx, s.clientOptions(uri, opts))
	if err != nil {
		s.setState(store.StateError)
		s.logger.Error("Error connecting to mongodb", zap.Error(err))
		return err
	}

	if err = client.Ping(ctx, readpref.Primary()); err != nil {
		s.setState(store.StateError)
		s.logger.Error("Error connecting to mongodb", zap.Error(err))
		_ = client.Disconnect(context.Background())
		return err
	}

	s.mu.Lock()
	s.client = client
	s.collection = client.Database(opts.Database).Collection(opts.Collection)
	s.mu.Unlock()

	s.setState(store.StateReady)
	s.logger.Info("Connected to mongodb")
	return nil
}

func (s *Store) clientOptions(uri string, opts adaptoropts.DriverOptions) *options.ClientOptions {
	co := options.Client().
		ApplyURI(uri).
		SetServerMonitor(s.serverMonitor())
	if opts.AppName != "" {
		co.SetAppName(opts.AppName)
	}
	if opts.MaxPoolSize > 0 {
		co.SetMaxPoolSize(opts.MaxPoolSize)
	}
	if opts.ConnectTimeout > 0 {
		co.SetConnectTimeout(opts.ConnectTimeout)
	}
	if opts.ServerSelectionTimeout > 0 {
		co.SetServerSelectionTimeout(opts.ServerSelectionTimeout)
	}
	return co
}

// serverMonitor logs heartbeat failures once ready. They are not escalated.
func (s *Store) serverMonitor() *event.ServerMonitor {
	return &event.ServerMonitor{
		ServerHeartbeatFailed: func(e *event.ServerHeartbeatFailedEvent) {
			if s.State() != store.StateReady {
				return
			}
			s.logger.Error("MongoDB error",
				zap.String("connection_id", e.ConnectionID),
				zap.Error(e.Failure),
			)
		},
	}
}

// Disconnect closes the client opened by Connect.
func (s *Store) Disconnect(ctx context.Context) error {
	s.mu.Lock()
	client := s.client
	s.client = nil
	s.collection = nil
	s.mu.Unlock()

	s.setState(store.StateUninitialized)
	if client == nil {
		return nil
	}
	s.logger.Info("Closing MongoDB connection")
	return client.Disconnect(ctx)
}

func (s *Store) getCollection() (*mongo.Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.collection == nil {
		return nil, apperrors.ErrNotConnected
	}
	return s.collection, nil
}

// EnsureIndexes creates one ascending index per entry.
func (s *Store) EnsureIndexes(ctx context.Context, indexes []schema.Index) (err error) {
	if len(indexes) == 0 {
		return nil
	}
	defer s.observe(ctx, store.OpEnsureIndexes, time.Now(), &err)

	coll, err := s.getCollection()
	if err != nil {
		return err
	}

	models := make([]mongo.IndexModel, 0, len(indexes))
	for _, idx := range indexes {
		models = append(models, mongo.IndexModel{
			Keys:    bson.D{{Key: idx.Path, Value: 1}},
			Options: options.Index().SetUnique(idx.Unique),
		})
	}
	if _, err = coll.Indexes().CreateMany(ctx, models); err != nil {
		s.logger.Error("Failed to create account indexes", zap.Error(err))
		return err
	}
	return nil
}

// FindByID loads a document by _id.
func (s *Store) FindByID(ctx context.Context, id primitive.ObjectID) (doc *document.Document, err error) {
	defer s.observe(ctx, store.OpFindByID, time.Now(), &err)
	return s.findOneByFilter(ctx, bson.M{document.IDKey: id})
}

// FindOne loads the first document matching an equality filter.
func (s *Store) FindOne(ctx context.Context, filter map[string]any) (doc *document.Document, err error) {
	defer s.observe(ctx, store.OpFindOne, time.Now(), &err)
	return s.findOneByFilter(ctx, bson.M(filter))
}

func (s *Store) findOneByFilter(ctx context.Context, filter bson.M) (*document.Document, error) {
	coll, err := s.getCollection()
	if err != nil {
		return nil, err
	}

	var fields bson.M
	err = coll.FindOne(ctx, filter).Decode(&fields)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return document.FromStore(fields), nil
}

// Insert inserts doc, assigning an ObjectID and a zero version when absent.
func (s *Store) Insert(ctx context.Context, doc *document.Document) (err error) {
	defer s.observe(ctx, store.OpInsert, time.Now(), &err)

	coll, err := s.getCollection()
	if err != nil {
		return err
	}

	if doc.ID().IsZero() {
		doc.SetID(primitive.NewObjectID())
	}
	raw := doc.Raw()
	if _, ok := raw[document.VersionKey]; !ok {
		raw[document.VersionKey] = int32(0)
	}

	if _, err = coll.InsertOne(ctx, raw); err != nil {
		return err
	}
	doc.MarkPersisted()
	return nil
}

// Save writes the modified paths of doc with $set. New documents are inserted.
func (s *Store) Save(ctx context.Context, doc *document.Document) (err error) {
	if doc.IsNew() {
		return s.Insert(ctx, doc)
	}
	if !doc.IsModified() {
		return nil
	}
	defer s.observe(ctx, store.OpSave, time.Now(), &err)

	coll, err := s.getCollection()
	if err != nil {
		return err
	}

	filter := bson.M{document.IDKey: doc.ID()}
	update := bson.M{"$set": doc.Modified()}
	res, err := coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperrors.ErrNotFound.WithDetail("no account with id %s", doc.ID().Hex())
	}
	doc.MarkPersisted()
	return nil
}

func (s *Store) observe(ctx context.Context, op string, start time.Time, errp *error) {
	s.recorder.RecordDBOperation(ctx, op, *errp == nil, time.Since(start))
}
