// Package document defines the account handle returned by stores.
// A Document wraps the raw BSON fields of one account and tracks which
// dotted paths were modified since it was loaded or last saved.
// A Document is not safe for concurrent mutation.
package document

import (
	"sort"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	// IDKey is the primary identifier key.
	IDKey = "_id"
	// VersionKey is the version metadata key, excluded from projections.
	VersionKey = "__v"
)

// Document is a handle on one stored account.
type Document struct {
	fields   bson.M
	modified map[string]struct{}
	isNew    bool
}

// New wraps fields as a document that has not been persisted yet.
func New(fields bson.M) *Document {
	if fields == nil {
		fields = bson.M{}
	}
	return &Document{fields: fields, modified: map[string]struct{}{}, isNew: true}
}

// FromStore wraps fields loaded from a store.
func FromStore(fields bson.M) *Document {
	d := New(fields)
	d.isNew = false
	return d
}

// IsNew reports whether the document has never been inserted.
func (d *Document) IsNew() bool { return d.isNew }

// MarkPersisted records a successful insert or save.
func (d *Document) MarkPersisted() {
	d.isNew = false
	d.modified = map[string]struct{}{}
}

// ID returns the primary identifier, or the zero ObjectID if none is set.
func (d *Document) ID() primitive.ObjectID {
	id, _ := d.fields[IDKey].(primitive.ObjectID)
	return id
}

// SetID sets the primary identifier without marking it modified.
func (d *Document) SetID(id primitive.ObjectID) {
	d.fields[IDKey] = id
}

// Get returns the value at a dotted path.
func (d *Document) Get(path string) (any, bool) {
	return Lookup(d.fields, path)
}

// Set stores v at a dotted path, creating intermediate sub-documents, and marks it modified.
// The modified set never holds both a path and one of its descendants: setting a path
// replaces any modified descendants, and setting below a modified ancestor leaves only
// the ancestor recorded.
func (d *Document) Set(path string, v any) {
	parts := strings.Split(path, ".")
	cur := map[string]any(d.fields)
	for _, p := range parts[:len(parts)-1] {
		next, ok := AsMap(cur[p])
		if !ok {
			next = bson.M{}
		}
		cur[p] = next
		cur = next
	}
	cur[parts[len(parts)-1]] = v
	d.markModified(path)
}

func (d *Document) markModified(path string) {
	for i := strings.IndexByte(path, '.'); i >= 0; i = nextDot(path, i) {
		if _, ok := d.modified[path[:i]]; ok {
			return
		}
	}
	prefix := path + "."
	for p := range d.modified {
		if strings.HasPrefix(p, prefix) {
			delete(d.modified, p)
		}
	}
	d.modified[path] = struct{}{}
}

func nextDot(path string, i int) int {
	j := strings.IndexByte(path[i+1:], '.')
	if j < 0 {
		return -1
	}
	return i + 1 + j
}

// Modified returns the modified paths and their current values.
func (d *Document) Modified() bson.M {
	out := bson.M{}
	for path := range d.modified {
		v, _ := d.Get(path)
		out[path] = v
	}
	return out
}

// ModifiedPaths returns the modified paths, sorted.
func (d *Document) ModifiedPaths() []string {
	paths := make([]string, 0, len(d.modified))
	for p := range d.modified {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// IsModified reports whether any path changed since load or save.
func (d *Document) IsModified() bool {
	return len(d.modified) > 0
}

// Fields returns a deep copy of the stored fields.
func (d *Document) Fields() bson.M {
	return bson.M(Copy(d.fields))
}

// Raw returns the underlying fields without copying. Callers must not retain it.
func (d *Document) Raw() bson.M {
	return d.fields
}

// Lookup resolves a dotted path inside m.
func Lookup(m map[string]any, path string) (any, bool) {
	parts := strings.Split(path, ".")
	var cur any = m
	for _, p := range parts {
		sub, ok := AsMap(cur)
		if !ok {
			return nil, false
		}
		cur, ok = sub[p]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// AsMap views a decoded sub-document as a map. bson.D is converted; maps are returned as-is.
func AsMap(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case primitive.M:
		return t, true
	case map[string]any:
		return t, true
	case primitive.D:
		m := make(map[string]any, len(t))
		for _, e := range t {
			m[e.Key] = e.Value
		}
		return m, true
	default:
		return nil, false
	}
}

// Copy deep-copies a document into plain maps and slices.
func Copy(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	if sub, ok := AsMap(v); ok {
		return Copy(sub)
	}
	switch t := v.(type) {
	case primitive.A:
		return copySlice(t)
	case []any:
		return copySlice(t)
	default:
		return v
	}
}

func copySlice(in []any) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = copyValue(v)
	}
	return out
}
