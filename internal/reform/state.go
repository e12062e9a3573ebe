package reform

import (
	"fmt"

	pkgerrors "github.com/hydroreg/water-licensing-backend/internal/pkg/errors"
)

// Entity is one sub-record of the base licence (purpose, point, condition,
// version, party or address), keyed by its "id" value.
type Entity map[string]any

// Licence is the editable projection of the base licence data.
type Licence struct {
	Base       map[string]any `json:"base"`
	Purposes   []Entity       `json:"purposes"`
	Points     []Entity       `json:"points"`
	Conditions []Entity       `json:"conditions"`
	Versions   []Entity       `json:"versions"`
	Parties    []Entity       `json:"parties"`
	Addresses  []Entity       `json:"addresses"`
}

// DataItem is one user-entered WR22 condition instance. Content is built up
// by successive EDIT_DATA diffs.
type DataItem struct {
	ID      string         `json:"id"`
	Schema  string         `json:"schema"`
	Content map[string]any `json:"content"`
}

type LastEdit struct {
	User      User  `json:"user"`
	Timestamp int64 `json:"timestamp"`
}

// State is the materialized view of a licence's action log. It is never
// persisted as-is; it is recomputed by Reduce on every load.
type State struct {
	Licence  Licence    `json:"licence"`
	Status   string     `json:"status"`
	Notes    *string    `json:"notes,omitempty"`
	LastEdit *LastEdit  `json:"lastEdit,omitempty"`
	ARData   []DataItem `json:"arData"`
}

// InitialState seeds the fold with the base licence data and the default
// review status.
func InitialState(licence Licence) State {
	return State{
		Licence: licence,
		Status:  StatusInProgress,
		ARData:  []DataItem{},
	}
}

// FindDataItem locates a WR22 data item by id. A miss is a data-integrity
// fault (the id came from an ADD_DATA action), so it fails loudly.
func FindDataItem(state State, id string) (DataItem, error) {
	for _, item := range state.ARData {
		if item.ID == id {
			return item, nil
		}
	}
	return DataItem{}, fmt.Errorf("data item %q: %w", id, pkgerrors.ErrNotFound)
}

func (l Licence) clone() Licence {
	return Licence{
		Base:       cloneMap(l.Base),
		Purposes:   cloneEntities(l.Purposes),
		Points:     cloneEntities(l.Points),
		Conditions: cloneEntities(l.Conditions),
		Versions:   cloneEntities(l.Versions),
		Parties:    cloneEntities(l.Parties),
		Addresses:  cloneEntities(l.Addresses),
	}
}

func (s State) clone() State {
	out := s
	out.Licence = s.Licence.clone()
	out.ARData = make([]DataItem, len(s.ARData))
	for i, item := range s.ARData {
		out.ARData[i] = DataItem{ID: item.ID, Schema: item.Schema, Content: cloneMap(item.Content)}
	}
	if s.LastEdit != nil {
		le := *s.LastEdit
		out.LastEdit = &le
	}
	if s.Notes != nil {
		n := *s.Notes
		out.Notes = &n
	}
	return out
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if nested, ok := v.(map[string]any); ok {
			out[k] = cloneMap(nested)
			continue
		}
		out[k] = v
	}
	return out
}

func cloneEntities(es []Entity) []Entity {
	out := make([]Entity, len(es))
	for i, e := range es {
		out[i] = cloneMap(e)
	}
	return out
}
