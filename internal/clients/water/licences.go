package water

import (
	"context"
	"net/http"
	"net/url"
)

// Licence is the base licence record as served by the water service. Data
// carries the full NALD-style nested structure (purposes, points,
// conditions, versions, parties, addresses).
type Licence struct {
	ID         string         `json:"id"`
	LicenceRef string         `json:"licence_ref"`
	RegimeID   int            `json:"licence_regime_id"`
	TypeID     int            `json:"licence_type_id"`
	Data       map[string]any `json:"data"`
}

// Option is one selectable licence sub-entity (condition or point) offered
// to the dynamic form generator.
type Option struct {
	ID    string `json:"id"`
	Value string `json:"value"`
}

type LicencesAPI struct {
	c *Client
}

func (a *LicencesAPI) Get(ctx context.Context, licenceRef string) (*Licence, error) {
	var out Licence
	path := "/licences/" + url.PathEscape(licenceRef)
	if err := a.c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *LicencesAPI) Conditions(ctx context.Context, licenceRef string) ([]Option, error) {
	var out []Option
	path := "/licences/" + url.PathEscape(licenceRef) + "/conditions"
	if err := a.c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *LicencesAPI) Points(ctx context.Context, licenceRef string) ([]Option, error) {
	var out []Option
	path := "/licences/" + url.PathEscape(licenceRef) + "/points"
	if err := a.c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
