// Package schema holds the host-owned account schema definition and the
// augmenter that adds the fields the adaptor needs.
package schema

import (
	"sort"
	"strings"

	"github.com/jrjohn/arcana-account-adaptor/pkg/adaptor/document"
)

// Type is the declared type of a path.
type Type string

const (
	String   Type = "string"
	Number   Type = "number"
	Boolean  Type = "boolean"
	Date     Type = "date"
	Document Type = "document"
	Mixed    Type = "mixed"
)

// Decl declares one path. Nested paths are dotted ("profile.username").
type Decl struct {
	Path      string
	Type      Type
	Trim      bool
	Unique    bool
	Lowercase bool
	Required  bool
	Default   any
}

// Index is a single-path index the store should maintain.
type Index struct {
	Path   string
	Unique bool
}

// Schema is an explicit set of path declarations. The zero value is not usable; call New.
type Schema struct {
	decls map[string]Decl
}

// New creates a schema from the given declarations. Later duplicates are ignored.
func New(decls ...Decl) *Schema {
	s := &Schema{decls: map[string]Decl{}}
	s.Add(decls...)
	return s
}

// Add declares paths that are not already declared and returns how many were added.
// Declaring a nested path implicitly declares its parent sub-documents.
func (s *Schema) Add(decls ...Decl) int {
	added := 0
	for _, d := range decls {
		if d.Path == "" {
			continue
		}
		if d.Type == "" {
			d.Type = Mixed
		}
		for _, parent := range parents(d.Path) {
			if _, ok := s.decls[parent]; !ok {
				s.decls[parent] = Decl{Path: parent, Type: Document}
			}
		}
		if _, ok := s.decls[d.Path]; ok {
			continue
		}
		s.decls[d.Path] = d
		added++
	}
	return added
}

func parents(path string) []string {
	parts := strings.Split(path, ".")
	out := make([]string, 0, len(parts)-1)
	for i := 1; i < len(parts); i++ {
		out = append(out, strings.Join(parts[:i], "."))
	}
	return out
}

// Path returns the declaration of a path.
func (s *Schema) Path(path string) (Decl, bool) {
	d, ok := s.decls[path]
	return d, ok
}

// Has reports whether path is declared.
func (s *Schema) Has(path string) bool {
	_, ok := s.decls[path]
	return ok
}

// IsDocument reports whether path is declared as a sub-document.
func (s *Schema) IsDocument(path string) bool {
	d, ok := s.decls[path]
	return ok && d.Type == Document
}

// Paths returns every declared path, sorted.
func (s *Schema) Paths() []string {
	out := make([]string, 0, len(s.decls))
	for p := range s.decls {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Clone returns an independent copy.
func (s *Schema) Clone() *Schema {
	c := &Schema{decls: make(map[string]Decl, len(s.decls))}
	for k, v := range s.decls {
		c.decls[k] = v
	}
	return c
}

// Cast applies the string modifiers declared for path to v.
func (s *Schema) Cast(path string, v any) any {
	d, ok := s.decls[path]
	if !ok || d.Type != String {
		return v
	}
	str, ok := v.(string)
	if !ok {
		return v
	}
	if d.Trim {
		str = strings.TrimSpace(str)
	}
	if d.Lowercase {
		str = strings.ToLower(str)
	}
	return str
}

// ApplyDefaults sets the declared default of every path absent from doc.
func (s *Schema) ApplyDefaults(doc *document.Document) {
	for _, p := range s.Paths() {
		d := s.decls[p]
		if d.Default == nil {
			continue
		}
		if _, ok := doc.Get(p); !ok {
			doc.Set(p, d.Default)
		}
	}
}

// Indexes returns the unique indexes implied by the declarations, sorted by path.
func (s *Schema) Indexes() []Index {
	var out []Index
	for _, p := range s.Paths() {
		if s.decls[p].Unique {
			out = append(out, Index{Path: p, Unique: true})
		}
	}
	return out
}
