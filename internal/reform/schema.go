package reform

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	pkgerrors "github.com/hydroreg/water-licensing-backend/internal/pkg/errors"
)

//go:embed schemas
var schemaFS embed.FS

// Registry holds the bundled WR22 JSON Schemas by name ("/wr22/2.1") plus
// the static type fragments the water://types resolver serves.
type Registry struct {
	schemas map[string]map[string]any
	types   map[string]map[string]any
}

// NewRegistry loads the embedded schema set. Because the form generator
// flattens nested objects, property names must be unique across each whole
// schema tree; a collision is rejected here, at load time, rather than
// surfacing as silently clobbered form values.
func NewRegistry() (*Registry, error) {
	r := &Registry{
		schemas: map[string]map[string]any{},
		types:   map[string]map[string]any{},
	}
	err := fs.WalkDir(schemaFS, "schemas", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".json") {
			return err
		}
		raw, err := schemaFS.ReadFile(path)
		if err != nil {
			return err
		}
		var doc map[string]any
		if err := json.Unmarshal(raw, &doc); err != nil {
			return fmt.Errorf("schema %s: %w", path, err)
		}
		rel := strings.TrimPrefix(strings.TrimSuffix(path, ".json"), "schemas")
		if strings.HasPrefix(rel, "/types/") {
			r.types[strings.TrimPrefix(rel, "/types/")] = doc
			return nil
		}
		if err := checkUniquePropertyNames(doc); err != nil {
			return fmt.Errorf("schema %s: %w", rel, err)
		}
		r.schemas[rel] = doc
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Get returns the named WR22 schema. A miss is a programming or data
// integrity fault: data items only ever reference bundled schema names.
func (r *Registry) Get(name string) (map[string]any, error) {
	doc, ok := r.schemas[name]
	if !ok {
		return nil, fmt.Errorf("schema %q: %w", name, pkgerrors.ErrNotFound)
	}
	return doc, nil
}

// TypeFragment returns a static fragment for the water://types resolver.
func (r *Registry) TypeFragment(ref string) (map[string]any, error) {
	doc, ok := r.types[ref]
	if !ok {
		return nil, fmt.Errorf("type fragment %q: %w", ref, pkgerrors.ErrNotFound)
	}
	return doc, nil
}

// Names lists the registered WR22 schema names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.schemas))
	for name := range r.schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func checkUniquePropertyNames(doc map[string]any) error {
	seen := map[string]struct{}{}
	return walkPropertyNames(doc, seen)
}

func walkPropertyNames(doc map[string]any, seen map[string]struct{}) error {
	props, ok := doc["properties"].(map[string]any)
	if !ok {
		return nil
	}
	for name, raw := range props {
		child, _ := raw.(map[string]any)
		if child != nil {
			if _, nested := child["properties"]; nested {
				// container objects are flattened away; only leaves occupy a name
				if err := walkPropertyNames(child, seen); err != nil {
					return err
				}
				continue
			}
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("property %q: %w", name, pkgerrors.ErrSchemaConflict)
		}
		seen[name] = struct{}{}
	}
	return nil
}
