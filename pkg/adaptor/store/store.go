// Package store defines the document-store capability the adaptor is built on.
// Implementations own connection lifecycle, persistence and identity generation.
package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/jrjohn/arcana-account-adaptor/pkg/adaptor/document"
	"github.com/jrjohn/arcana-account-adaptor/pkg/adaptor/options"
	"github.com/jrjohn/arcana-account-adaptor/pkg/adaptor/schema"
)

// State is the connection lifecycle state of a store.
type State int32

const (
	StateUninitialized State = iota
	StateConnecting
	StateReady
	StateError
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateConnecting:
		return "connecting"
	case StateReady:
		return "ready"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Store is the capability required by the account facade.
type Store interface {
	// Connect opens the connection and returns once it is ready.
	Connect(ctx context.Context, uri string, opts options.DriverOptions) error

	// Disconnect closes the connection.
	Disconnect(ctx context.Context) error

	// State returns the current lifecycle state.
	State() State

	// EnsureIndexes creates the given indexes if they do not exist.
	EnsureIndexes(ctx context.Context, indexes []schema.Index) error

	// FindByID loads a document by primary identifier.
	// Returns nil, nil if the document is not found.
	FindByID(ctx context.Context, id primitive.ObjectID) (*document.Document, error)

	// FindOne loads the first document whose dotted paths equal the filter values.
	// Returns nil, nil if no document matches.
	FindOne(ctx context.Context, filter map[string]any) (*document.Document, error)

	// Insert persists a new document, assigning its identifier if unset.
	Insert(ctx context.Context, doc *document.Document) error

	// Save persists the modified paths of an existing document.
	Save(ctx context.Context, doc *document.Document) error
}

// Recorder receives store operation metrics.
type Recorder interface {
	RecordDBOperation(ctx context.Context, operation string, success bool, duration time.Duration)
}

// Operation names reported to a Recorder.
const (
	OpConnect       = "connect"
	OpEnsureIndexes = "ensure_indexes"
	OpFindByID      = "find_by_id"
	OpFindOne       = "find_one"
	OpInsert        = "insert"
	OpSave          = "save"
)

type nopRecorder struct{}

func (nopRecorder) RecordDBOperation(context.Context, string, bool, time.Duration) {}

// NopRecorder discards all metrics.
var NopRecorder Recorder = nopRecorder{}
