package reform

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hydroreg/water-licensing-backend/internal/clients/water"
	pkgerrors "github.com/hydroreg/water-licensing-backend/internal/pkg/errors"
	"github.com/hydroreg/water-licensing-backend/internal/pkg/logger"
)

// fakeWaterServer serves the minimum surface the resolver touches.
func fakeWaterServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/picklists/gauging_stations", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(water.Picklist{ID: "pl1", Name: "Gauging stations", IDRequired: true})
	})
	mux.HandleFunc("/picklists/gauging_stations/items", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]water.PicklistItem{
			{ID: "gs1", Value: "Ribble at Samlesbury"},
			{ID: "gs2", Value: "Lune at Caton"},
		})
	})
	mux.HandleFunc("/licences/01-234/conditions", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]water.Option{{ID: "c1", Value: "AGG: aggregate limit"}})
	})
	mux.HandleFunc("/licences/01-234/points", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]water.Option{{ID: "p1", Value: "Borehole A"}})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestResolver(t *testing.T) *Resolver {
	t.Helper()
	registry, err := NewRegistry()
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	srv := fakeWaterServer(t)
	return NewResolver(registry, water.NewClientWithBase(logger.NewNop(), srv.URL))
}

func TestDereference_TypesHost(t *testing.T) {
	r := newTestResolver(t)
	doc := map[string]any{
		"properties": map[string]any{
			"quantity_unit": map[string]any{
				"$ref":  "water://types/units.json",
				"label": "Unit",
			},
		},
	}
	out, err := r.Dereference(context.Background(), doc, "01-234")
	if err != nil {
		t.Fatalf("dereference: %v", err)
	}
	prop := out["properties"].(map[string]any)["quantity_unit"].(map[string]any)
	if _, still := prop["$ref"]; still {
		t.Fatalf("$ref must be replaced: %v", prop)
	}
	if prop["type"] != "string" {
		t.Fatalf("fragment not inlined: %v", prop)
	}
	// sibling annotations survive resolution
	if prop["label"] != "Unit" {
		t.Fatalf("sibling label lost: %v", prop)
	}
	if len(prop["enum"].([]any)) == 0 {
		t.Fatalf("enum lost: %v", prop)
	}
}

func TestDereference_PicklistsHost(t *testing.T) {
	r := newTestResolver(t)
	doc := map[string]any{
		"properties": map[string]any{
			"gauging_station": map[string]any{
				"$ref": "water://picklists/gauging_stations.json",
			},
		},
	}
	out, err := r.Dereference(context.Background(), doc, "01-234")
	if err != nil {
		t.Fatalf("dereference: %v", err)
	}
	prop := out["properties"].(map[string]any)["gauging_station"].(map[string]any)
	if prop["type"] != "object" {
		t.Fatalf("id_required picklist must resolve to object enum: %v", prop)
	}
	enum := prop["enum"].([]any)
	if len(enum) != 2 {
		t.Fatalf("expected 2 entries got %v", enum)
	}
}

func TestDereference_LicencesHost(t *testing.T) {
	r := newTestResolver(t)
	doc := map[string]any{
		"properties": map[string]any{
			"nald_condition": map[string]any{"$ref": "water://licences/conditions.json"},
			"nald_point":     map[string]any{"$ref": "water://licences/points.json"},
		},
	}
	out, err := r.Dereference(context.Background(), doc, "01-234")
	if err != nil {
		t.Fatalf("dereference: %v", err)
	}
	props := out["properties"].(map[string]any)
	cond := props["nald_condition"].(map[string]any)["enum"].([]any)
	if len(cond) != 1 || cond[0].(map[string]any)["id"] != "c1" {
		t.Fatalf("unexpected conditions enum: %v", cond)
	}
	point := props["nald_point"].(map[string]any)["enum"].([]any)
	if point[0].(map[string]any)["value"] != "Borehole A" {
		t.Fatalf("unexpected points enum: %v", point)
	}
}

func TestDereference_UnknownHostFails(t *testing.T) {
	r := newTestResolver(t)
	doc := map[string]any{
		"properties": map[string]any{
			"x": map[string]any{"$ref": "water://crm/contacts.json"},
		},
	}
	if _, err := r.Dereference(context.Background(), doc, "01-234"); !errors.Is(err, pkgerrors.ErrUnknownResolver) {
		t.Fatalf("expected ErrUnknownResolver got %v", err)
	}
}

func TestDereference_UnknownLicenceCollectionFails(t *testing.T) {
	r := newTestResolver(t)
	doc := map[string]any{"$ref": "water://licences/versions.json"}
	if _, err := r.Dereference(context.Background(), doc, "01-234"); !errors.Is(err, pkgerrors.ErrUnknownResolver) {
		t.Fatalf("expected ErrUnknownResolver got %v", err)
	}
}

func TestDereference_DoesNotMutateSource(t *testing.T) {
	r := newTestResolver(t)
	doc := map[string]any{
		"properties": map[string]any{
			"quantity_unit": map[string]any{"$ref": "water://types/units.json"},
		},
	}
	if _, err := r.Dereference(context.Background(), doc, "01-234"); err != nil {
		t.Fatalf("dereference: %v", err)
	}
	prop := doc["properties"].(map[string]any)["quantity_unit"].(map[string]any)
	if _, ok := prop["$ref"]; !ok {
		t.Fatalf("source document was mutated")
	}
}
