package reform

import (
	"errors"
	"reflect"
	"testing"

	pkgerrors "github.com/hydroreg/water-licensing-backend/internal/pkg/errors"
)

func TestNewRegistry_LoadsBundledSchemas(t *testing.T) {
	r, err := NewRegistry()
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	want := []string{"/wr22/2.1", "/wr22/2.3", "/wr22/2.5"}
	if !reflect.DeepEqual(r.Names(), want) {
		t.Fatalf("unexpected schema names: %v", r.Names())
	}
}

func TestRegistry_GetMiss(t *testing.T) {
	r, err := NewRegistry()
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	if _, err := r.Get("/wr22/9.9"); !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound got %v", err)
	}
	doc, err := r.Get("/wr22/2.1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if doc["title"] != "Daily abstraction limit" {
		t.Fatalf("wrong schema: %v", doc["title"])
	}
}

func TestRegistry_TypeFragments(t *testing.T) {
	r, err := NewRegistry()
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	frag, err := r.TypeFragment("units")
	if err != nil {
		t.Fatalf("type fragment: %v", err)
	}
	if frag["type"] != "string" {
		t.Fatalf("unexpected fragment: %v", frag)
	}
	if _, err := r.TypeFragment("nope"); !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound got %v", err)
	}
}

func TestCheckUniquePropertyNames(t *testing.T) {
	ok := map[string]any{
		"properties": map[string]any{
			"a": map[string]any{"type": "string"},
			"nested": map[string]any{
				"properties": map[string]any{
					"b": map[string]any{"type": "string"},
				},
			},
		},
	}
	if err := checkUniquePropertyNames(ok); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// "a" appears both at the top level and inside a flattened container
	dup := map[string]any{
		"properties": map[string]any{
			"a": map[string]any{"type": "string"},
			"nested": map[string]any{
				"properties": map[string]any{
					"a": map[string]any{"type": "number"},
				},
			},
		},
	}
	if err := checkUniquePropertyNames(dup); !errors.Is(err, pkgerrors.ErrSchemaConflict) {
		t.Fatalf("expected ErrSchemaConflict got %v", err)
	}
}
