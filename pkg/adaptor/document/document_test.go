package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestDocument_New(t *testing.T) {
	doc := New(nil)
	assert.True(t, doc.IsNew())
	assert.False(t, doc.IsModified())
	assert.True(t, doc.ID().IsZero())

	loaded := FromStore(bson.M{"username": "alice"})
	assert.False(t, loaded.IsNew())
}

func TestDocument_ID(t *testing.T) {
	doc := New(bson.M{})
	id := primitive.NewObjectID()
	doc.SetID(id)

	assert.Equal(t, id, doc.ID())
	assert.False(t, doc.IsModified())
}

func TestDocument_GetSet(t *testing.T) {
	t.Run("top level", func(t *testing.T) {
		doc := FromStore(bson.M{"hash": "h1"})
		doc.Set("hash", "h2")

		v, ok := doc.Get("hash")
		require.True(t, ok)
		assert.Equal(t, "h2", v)
		assert.Equal(t, []string{"hash"}, doc.ModifiedPaths())
	})

	t.Run("nested creates sub-document", func(t *testing.T) {
		doc := FromStore(bson.M{})
		doc.Set("profile.username", "bob")

		v, ok := doc.Get("profile.username")
		require.True(t, ok)
		assert.Equal(t, "bob", v)
		assert.Equal(t, bson.M{"profile.username": "bob"}, doc.Modified())
	})

	t.Run("nested keeps siblings", func(t *testing.T) {
		doc := FromStore(bson.M{"profile": bson.M{"username": "bob", "email": "b@x.com"}})
		doc.Set("profile.email", "bob@x.com")

		username, _ := doc.Get("profile.username")
		email, _ := doc.Get("profile.email")
		assert.Equal(t, "bob", username)
		assert.Equal(t, "bob@x.com", email)
	})

	t.Run("nested through bson.D", func(t *testing.T) {
		doc := FromStore(bson.M{"profile": bson.D{{Key: "username", Value: "carol"}}})

		v, ok := doc.Get("profile.username")
		require.True(t, ok)
		assert.Equal(t, "carol", v)
	})

	t.Run("missing path", func(t *testing.T) {
		doc := FromStore(bson.M{"hash": "h"})
		_, ok := doc.Get("profile.username")
		assert.False(t, ok)
		_, ok = doc.Get("hash.inner")
		assert.False(t, ok)
	})
}

func TestDocument_MarkPersisted(t *testing.T) {
	doc := New(bson.M{})
	doc.Set("salt", "s")
	require.True(t, doc.IsModified())

	doc.MarkPersisted()
	assert.False(t, doc.IsNew())
	assert.False(t, doc.IsModified())
	assert.Empty(t, doc.Modified())
}

func TestDocument_FieldsIsDeepCopy(t *testing.T) {
	doc := FromStore(bson.M{
		"profile": bson.M{"username": "dave"},
		"tags":    bson.A{"a", bson.M{"k": "v"}},
	})

	fields := doc.Fields()
	profile := fields["profile"].(map[string]any)
	profile["username"] = "mallory"

	v, _ := doc.Get("profile.username")
	assert.Equal(t, "dave", v)
	assert.IsType(t, []any{}, fields["tags"])
}

func TestAsMap(t *testing.T) {
	m, ok := AsMap(bson.M{"a": 1})
	assert.True(t, ok)
	assert.Equal(t, 1, m["a"])

	m, ok = AsMap(map[string]any{"b": 2})
	assert.True(t, ok)
	assert.Equal(t, 2, m["b"])

	m, ok = AsMap(bson.D{{Key: "c", Value: 3}})
	assert.True(t, ok)
	assert.Equal(t, 3, m["c"])

	_, ok = AsMap("scalar")
	assert.False(t, ok)
}

func TestDocument_SetOverlappingPaths(t *testing.T) {
	tests := []struct {
		name  string
		sets  []string
		paths []string
	}{
		{"parent after child", []string{"profile.username", "profile.email", "profile"}, []string{"profile"}},
		{"child after parent", []string{"profile", "profile.username"}, []string{"profile"}},
		{"grandchild after parent", []string{"profile", "profile.address.city"}, []string{"profile"}},
		{"siblings", []string{"profile.username", "profile.email"}, []string{"profile.email", "profile.username"}},
		{"shared prefix is not an ancestor", []string{"profile", "profileExtra"}, []string{"profile", "profileExtra"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := FromStore(bson.M{})
			for _, p := range tt.sets {
				if p == "profile" {
					d.Set(p, bson.M{"username": "alice"})
					continue
				}
				d.Set(p, "v")
			}
			assert.Equal(t, tt.paths, d.ModifiedPaths())
		})
	}
}

func TestDocument_SetChildOfModifiedParentKeepsValue(t *testing.T) {
	d := FromStore(bson.M{})
	d.Set("profile", bson.M{"username": "alice", "email": "a@x.io"})
	d.Set("profile.username", "carl")

	mod := d.Modified()
	require.Len(t, mod, 1)
	profile, ok := AsMap(mod["profile"])
	require.True(t, ok)
	assert.Equal(t, "carl", profile["username"])
	assert.Equal(t, "a@x.io", profile["email"])
}
