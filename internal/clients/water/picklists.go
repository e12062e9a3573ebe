package water

import (
	"context"
	"net/http"
	"net/url"
)

// Picklist is the definition of a backend-hosted list of selectable values.
// IDRequired controls whether choices keep their {id, value} shape or
// collapse to bare strings.
type Picklist struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	IDRequired bool   `json:"id_required"`
}

// PicklistItem is one selectable value. ID keeps whatever JSON type the
// backend uses (numbers stay numbers).
type PicklistItem struct {
	ID    any    `json:"id,omitempty"`
	Value string `json:"value"`
}

type PicklistsAPI struct {
	c *Client
}

func (a *PicklistsAPI) Get(ctx context.Context, ref string) (*Picklist, error) {
	var out Picklist
	path := "/picklists/" + url.PathEscape(ref)
	if err := a.c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *PicklistsAPI) Items(ctx context.Context, ref string) ([]PicklistItem, error) {
	var out []PicklistItem
	path := "/picklists/" + url.PathEscape(ref) + "/items"
	if err := a.c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
