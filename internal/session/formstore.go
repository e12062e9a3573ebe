package session

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/hydroreg/water-licensing-backend/internal/forms"
)

// FormStore implements the post-redirect-get cycle: a failed POST saves the
// validated-with-errors form under a one-time token and redirects to
// GET ?form=<token>; the GET handler consumes the slot and renders that form
// instead of a freshly built one. A second consume with the same token
// misses and callers fall back to the default form, so refreshing the page
// cannot resubmit.
type FormStore struct {
	store Store
}

// FormQueryParam is the query-string parameter carrying the one-time token.
const FormQueryParam = "form"

func NewFormStore(store Store) *FormStore {
	return &FormStore{store: store}
}

func formKey(token string) string {
	return Key("form", token)
}

// Save serializes the form under a fresh token. Tokens are random UUIDs;
// collision is not retried.
func (fs *FormStore) Save(ctx context.Context, form forms.Form) (string, error) {
	raw, err := json.Marshal(form)
	if err != nil {
		return "", fmt.Errorf("marshal session form: %w", err)
	}
	token := uuid.New().String()
	if err := fs.store.Set(ctx, formKey(token), string(raw)); err != nil {
		return "", err
	}
	return token, nil
}

// Consume fetches and clears the slot. ok is false when the token has
// already been consumed, expired or never existed.
func (fs *FormStore) Consume(ctx context.Context, token string) (forms.Form, bool, error) {
	if token == "" {
		return forms.Form{}, false, nil
	}
	raw, ok, err := fs.store.Get(ctx, formKey(token))
	if err != nil || !ok {
		return forms.Form{}, false, err
	}
	if err := fs.store.Clear(ctx, formKey(token)); err != nil {
		return forms.Form{}, false, err
	}
	var form forms.Form
	if err := json.Unmarshal([]byte(raw), &form); err != nil {
		return forms.Form{}, false, fmt.Errorf("unmarshal session form: %w", err)
	}
	return form, true, nil
}
