package adaptor

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/jrjohn/arcana-account-adaptor/pkg/adaptor/document"
	"github.com/jrjohn/arcana-account-adaptor/pkg/adaptor/options"
)

// IDField is the key under which Serialize exposes the account identifier.
const IDField = "id"

// Serialize projects doc into a plain map. The internal identifier and version
// keys are replaced by IDField, and the remaining top-level keys pass through the
// configured include/exclude filter. IDField is always present.
func (a *Adaptor) Serialize(doc *document.Document) map[string]any {
	if doc == nil {
		return nil
	}
	out := map[string]any{IDField: doc.ID().Hex()}
	filter := a.cfg.Fields()
	for k, v := range document.Copy(doc.Raw()) {
		if k == document.IDKey || k == document.VersionKey {
			continue
		}
		if filter.Allows(k) {
			out[k] = v
		}
	}
	return out
}

// GetProfile projects the profile sub-document through the profile filter.
// It returns an empty map when doc has no profile.
func (a *Adaptor) GetProfile(doc *document.Document) map[string]any {
	out := map[string]any{}
	if doc == nil {
		return out
	}
	v, ok := doc.Get(a.cfg.ProfileField())
	if !ok {
		return out
	}
	sub, ok := document.AsMap(v)
	if !ok {
		return out
	}
	filter := a.cfg.ProfileFields()
	for k, v := range document.Copy(sub) {
		if filter.Allows(k) {
			out[k] = v
		}
	}
	return out
}

// Get returns the raw value stored for a logical field.
func (a *Adaptor) Get(doc *document.Document, f options.Field) (any, bool) {
	if doc == nil || !f.Valid() {
		return nil, false
	}
	return doc.Get(a.cfg.Path(f))
}

// GetID returns the hex identifier of doc.
func (a *Adaptor) GetID(doc *document.Document) string {
	if doc == nil {
		return ""
	}
	return doc.ID().Hex()
}

func (a *Adaptor) GetUsername(doc *document.Document) string {
	return a.getString(doc, options.FieldUsername)
}

func (a *Adaptor) GetEmail(doc *document.Document) string {
	return a.getString(doc, options.FieldEmail)
}

func (a *Adaptor) GetHash(doc *document.Document) string {
	return a.getString(doc, options.FieldHash)
}

func (a *Adaptor) GetSalt(doc *document.Document) string {
	return a.getString(doc, options.FieldSalt)
}

func (a *Adaptor) GetResetPasswordHash(doc *document.Document) string {
	return a.getString(doc, options.FieldResetPasswordHash)
}

func (a *Adaptor) GetLastLogin(doc *document.Document) int64 {
	return a.getInt64(doc, options.FieldLastLogin)
}

func (a *Adaptor) GetLastLogout(doc *document.Document) int64 {
	return a.getInt64(doc, options.FieldLastLogout)
}

func (a *Adaptor) GetLoginAttempts(doc *document.Document) int64 {
	return a.getInt64(doc, options.FieldLoginAttempts)
}

// GetLoginAttemptLockTime returns the lock expiry in epoch milliseconds, or 0 if unset.
func (a *Adaptor) GetLoginAttemptLockTime(doc *document.Document) int64 {
	return a.getInt64(doc, options.FieldLoginAttemptLockTime)
}

func (a *Adaptor) GetResetPasswordExpiration(doc *document.Document) int64 {
	return a.getInt64(doc, options.FieldResetPasswordExpiration)
}

func (a *Adaptor) getString(doc *document.Document, f options.Field) string {
	v, _ := a.Get(doc, f)
	s, _ := v.(string)
	return s
}

func (a *Adaptor) getInt64(doc *document.Document, f options.Field) int64 {
	v, _ := a.Get(doc, f)
	return toInt64(v)
}

// toInt64 normalizes the numeric encodings a store may decode into.
// Times are reported in epoch milliseconds.
func toInt64(v any) int64 {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case int64:
		return n
	case float64:
		return int64(n)
	case float32:
		return int64(n)
	case primitive.DateTime:
		return int64(n)
	case time.Time:
		return n.UnixMilli()
	default:
		return 0
	}
}
