package mocks

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/jrjohn/arcana-account-adaptor/pkg/adaptor/document"
	"github.com/jrjohn/arcana-account-adaptor/pkg/adaptor/options"
	"github.com/jrjohn/arcana-account-adaptor/pkg/adaptor/schema"
	"github.com/jrjohn/arcana-account-adaptor/pkg/adaptor/store"
	apperrors "github.com/jrjohn/arcana-account-adaptor/pkg/errors"
)

// duplicateKey builds the write exception the driver reports for a unique index violation.
func duplicateKey(path string) error {
	return mongo.WriteException{WriteErrors: mongo.WriteErrors{{
		Code:    11000,
		Message: fmt.Sprintf("E11000 duplicate key error dup key: %s", path),
	}}}
}

// MockStore is an in-memory implementation of store.Store
type MockStore struct {
	mu      sync.RWMutex
	docs    map[primitive.ObjectID]bson.M
	order   []primitive.ObjectID
	unique  []string
	state   store.State
	indexes []schema.Index

	// Recorded calls
	ConnectURI  string
	ConnectOpts options.DriverOptions
	Filters     []map[string]any
	Inserts     int
	Saves       int
	SavedPaths  [][]string

	// Error injection
	ConnectErr       error
	EnsureIndexesErr error
	FindByIDErr      error
	FindOneErr       error
	InsertErr        error
	SaveErr          error
}

var _ store.Store = (*MockStore)(nil)

func NewMockStore() *MockStore {
	return &MockStore{
		docs: make(map[primitive.ObjectID]bson.M),
	}
}

func (s *MockStore) Connect(ctx context.Context, uri string, opts options.DriverOptions) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ConnectURI = uri
	s.ConnectOpts = opts
	if s.ConnectErr != nil {
		s.state = store.StateError
		return s.ConnectErr
	}
	s.state = store.StateReady
	return nil
}

func (s *MockStore) Disconnect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = store.StateUninitialized
	return nil
}

func (s *MockStore) State() store.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *MockStore) EnsureIndexes(ctx context.Context, indexes []schema.Index) error {
	if s.EnsureIndexesErr != nil {
		return s.EnsureIndexesErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.indexes = append(s.indexes, indexes...)
	for _, idx := range indexes {
		if idx.Unique {
			s.unique = append(s.unique, idx.Path)
		}
	}
	return nil
}

// Indexes returns the indexes passed to EnsureIndexes.
func (s *MockStore) Indexes() []schema.Index {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]schema.Index(nil), s.indexes...)
}

func (s *MockStore) FindByID(ctx context.Context, id primitive.ObjectID) (*document.Document, error) {
	if s.FindByIDErr != nil {
		return nil, s.FindByIDErr
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if fields, ok := s.docs[id]; ok {
		return document.FromStore(bson.M(document.Copy(fields))), nil
	}
	return nil, nil
}

func (s *MockStore) FindOne(ctx context.Context, filter map[string]any) (*document.Document, error) {
	s.mu.Lock()
	s.Filters = append(s.Filters, filter)
	s.mu.Unlock()

	if s.FindOneErr != nil {
		return nil, s.FindOneErr
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range s.order {
		if matches(s.docs[id], filter) {
			return document.FromStore(bson.M(document.Copy(s.docs[id]))), nil
		}
	}
	return nil, nil
}

func matches(fields bson.M, filter map[string]any) bool {
	for path, want := range filter {
		got, ok := document.Lookup(fields, path)
		if !ok || !reflect.DeepEqual(got, want) {
			return false
		}
	}
	return true
}

func (s *MockStore) Insert(ctx context.Context, doc *document.Document) error {
	if s.InsertErr != nil {
		return s.InsertErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if doc.ID().IsZero() {
		doc.SetID(primitive.NewObjectID())
	}
	raw := doc.Raw()
	if _, ok := raw[document.VersionKey]; !ok {
		raw[document.VersionKey] = int32(0)
	}
	if err := s.checkUnique(doc.ID(), raw); err != nil {
		return err
	}

	s.docs[doc.ID()] = bson.M(document.Copy(raw))
	s.order = append(s.order, doc.ID())
	s.Inserts++
	doc.MarkPersisted()
	return nil
}

func (s *MockStore) Save(ctx context.Context, doc *document.Document) error {
	if doc.IsNew() {
		return s.Insert(ctx, doc)
	}
	if !doc.IsModified() {
		return nil
	}
	if s.SaveErr != nil {
		return s.SaveErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	paths := doc.ModifiedPaths()
	if err := conflictingPaths(paths); err != nil {
		return err
	}
	s.SavedPaths = append(s.SavedPaths, paths)

	stored, ok := s.docs[doc.ID()]
	if !ok {
		return apperrors.ErrNotFound
	}
	updated := document.FromStore(bson.M(document.Copy(stored)))
	for path, v := range doc.Modified() {
		updated.Set(path, v)
	}
	if err := s.checkUnique(doc.ID(), updated.Raw()); err != nil {
		return err
	}

	s.docs[doc.ID()] = updated.Raw()
	s.Saves++
	doc.MarkPersisted()
	return nil
}

// conflictingPaths rejects a $set that names both a path and one of its
// descendants, as the server does. paths must be sorted.
func conflictingPaths(paths []string) error {
	for i := 1; i < len(paths); i++ {
		for _, prev := range paths[:i] {
			if strings.HasPrefix(paths[i], prev+".") {
				return mongo.WriteException{WriteErrors: mongo.WriteErrors{{
					Code:    40,
					Message: fmt.Sprintf("Updating the path '%s' would create a conflict at '%s'", paths[i], prev),
				}}}
			}
		}
	}
	return nil
}

func (s *MockStore) checkUnique(id primitive.ObjectID, fields bson.M) error {
	for _, path := range s.unique {
		v, ok := document.Lookup(fields, path)
		if !ok {
			continue
		}
		for otherID, other := range s.docs {
			if otherID == id {
				continue
			}
			if ov, ok := document.Lookup(other, path); ok && reflect.DeepEqual(ov, v) {
				return duplicateKey(path)
			}
		}
	}
	return nil
}

// Count returns the number of stored documents.
func (s *MockStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// Stored returns a copy of the stored fields for id.
func (s *MockStore) Stored(id primitive.ObjectID) (bson.M, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fields, ok := s.docs[id]
	if !ok {
		return nil, false
	}
	return bson.M(document.Copy(fields)), true
}

// Writes returns the number of inserts and saves performed.
func (s *MockStore) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Inserts + s.Saves
}
