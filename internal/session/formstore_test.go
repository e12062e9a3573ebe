package session

import (
	"context"
	"testing"
	"time"

	"github.com/hydroreg/water-licensing-backend/internal/forms"
)

func TestFormStore_SaveConsumeOnce(t *testing.T) {
	ctx := context.Background()
	fs := NewFormStore(NewMemoryStore(time.Minute))

	form, err := forms.New("/licence/status", "POST", forms.TextField("notes", "Notes"))
	if err != nil {
		t.Fatalf("build form: %v", err)
	}
	form.IsSubmitted = true
	form.Errors = []forms.Error{{Name: "notes", Message: "bad"}}

	token, err := fs.Save(ctx, form)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if token == "" {
		t.Fatalf("expected a token")
	}

	got, ok, err := fs.Consume(ctx, token)
	if err != nil || !ok {
		t.Fatalf("consume: ok=%v err=%v", ok, err)
	}
	if !got.IsSubmitted || len(got.Errors) != 1 || got.Errors[0].Message != "bad" {
		t.Fatalf("form did not round-trip: %+v", got)
	}

	// a second consume misses: refreshing the redirect target cannot replay
	if _, ok, err := fs.Consume(ctx, token); err != nil || ok {
		t.Fatalf("expected miss on second consume, ok=%v err=%v", ok, err)
	}
}

func TestFormStore_UnknownTokenMisses(t *testing.T) {
	fs := NewFormStore(NewMemoryStore(time.Minute))
	if _, ok, err := fs.Consume(context.Background(), "nope"); err != nil || ok {
		t.Fatalf("expected miss, ok=%v err=%v", ok, err)
	}
	if _, ok, _ := fs.Consume(context.Background(), ""); ok {
		t.Fatalf("empty token must miss")
	}
}

func TestMemoryStore_TTLExpiry(t *testing.T) {
	store := NewMemoryStore(10 * time.Millisecond)
	ctx := context.Background()
	if err := store.Set(ctx, "k", "v"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "k"); !ok {
		t.Fatalf("expected hit before expiry")
	}
	time.Sleep(20 * time.Millisecond)
	if _, ok, _ := store.Get(ctx, "k"); ok {
		t.Fatalf("expected miss after expiry")
	}
}

func TestKey(t *testing.T) {
	if got := Key("company-contact", "c1", "u1"); got != "company-contact.c1.u1" {
		t.Fatalf("unexpected key: %q", got)
	}
}
