package reform

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/hydroreg/water-licensing-backend/internal/clients/water"
	pkgerrors "github.com/hydroreg/water-licensing-backend/internal/pkg/errors"
	"github.com/hydroreg/water-licensing-backend/internal/pkg/logger"
	"github.com/hydroreg/water-licensing-backend/internal/repos"
)

func loaderTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	err = db.Exec(`CREATE TABLE ar_licence (
		id text PRIMARY KEY,
		licence_ref text NOT NULL UNIQUE,
		licence_regime_id integer NOT NULL DEFAULT 1,
		licence_type_id integer NOT NULL DEFAULT 10,
		licence_data_value text,
		metadata text,
		version integer NOT NULL DEFAULT 0,
		created_at datetime,
		updated_at datetime,
		deleted_at datetime
	)`).Error
	if err != nil {
		t.Fatalf("create table: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Exec(`DROP TABLE ar_licence`).Error
	})
	return db
}

func newTestLoader(t *testing.T) *Loader {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/licences/01-234", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(water.Licence{
			ID:         "lic-1",
			LicenceRef: "01-234",
			RegimeID:   1,
			TypeID:     8,
			Data: map[string]any{
				"holder": "Acme Farms",
				"points": []any{
					map[string]any{"id": "p1", "name": "Borehole A"},
				},
			},
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	repo := repos.NewARLicenceRepo(loaderTestDB(t), logger.NewNop())
	return NewLoader(repo, water.NewClientWithBase(logger.NewNop(), srv.URL), logger.NewNop())
}

func TestLoader_LoadCreatesRecordOnFirstTouch(t *testing.T) {
	l := newTestLoader(t)
	ctx := context.Background()

	record, state, err := l.Load(ctx, "01-234")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if record.LicenceRef != "01-234" || record.Version != 0 {
		t.Fatalf("unexpected record: %+v", record)
	}
	if state.Status != StatusInProgress {
		t.Fatalf("fresh record must start in progress, got %q", state.Status)
	}
	if state.Licence.Base["holder"] != "Acme Farms" {
		t.Fatalf("base licence data not projected: %v", state.Licence.Base)
	}
	if len(state.Licence.Points) != 1 || state.Licence.Points[0]["id"] != "p1" {
		t.Fatalf("points not projected: %v", state.Licence.Points)
	}

	// the second load finds the same record
	again, _, err := l.Load(ctx, "01-234")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if again.ID != record.ID {
		t.Fatalf("second load created a second record")
	}
}

func TestLoader_PersistAndReplay(t *testing.T) {
	l := newTestLoader(t)
	ctx := context.Background()

	record, _, err := l.Load(ctx, "01-234")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	add := NewAddData("/wr22/2.1", testUser)
	state, err := l.PersistActions(ctx, record, add, NewEditData(map[string]any{"max_daily_quantity": 120.0}, testUser, add.Payload.ID))
	if err != nil {
		t.Fatalf("persist: %v", err)
	}
	if len(state.ARData) != 1 || state.ARData[0].Content["max_daily_quantity"] != 120.0 {
		t.Fatalf("state not updated: %+v", state.ARData)
	}
	if record.Version != 1 {
		t.Fatalf("version not bumped in memory: %d", record.Version)
	}

	// a fresh load replays the persisted log to the same state
	_, replayed, err := l.Load(ctx, "01-234")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(replayed.ARData) != 1 || replayed.ARData[0].ID != add.Payload.ID {
		t.Fatalf("replayed state differs: %+v", replayed.ARData)
	}
	if replayed.LastEdit == nil || replayed.LastEdit.User != testUser {
		t.Fatalf("last edit summary lost: %+v", replayed.LastEdit)
	}
}

func TestLoader_StaleRecordLosesTheWrite(t *testing.T) {
	l := newTestLoader(t)
	ctx := context.Background()

	first, _, err := l.Load(ctx, "01-234")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	second, _, err := l.Load(ctx, "01-234")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	set, _ := NewSetStatus(StatusInReview, "", testUser)
	if _, err := l.PersistActions(ctx, first, set); err != nil {
		t.Fatalf("first persist: %v", err)
	}
	set2, _ := NewSetStatus(StatusApproved, "", testUser)
	if _, err := l.PersistActions(ctx, second, set2); !errors.Is(err, pkgerrors.ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict got %v", err)
	}

	_, state, err := l.Load(ctx, "01-234")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if state.Status != StatusInReview {
		t.Fatalf("losing write must not apply, status=%q", state.Status)
	}
}
