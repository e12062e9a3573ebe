// Package reform implements the abstraction-reform action log: every edit to
// a licence's WR22 condition data is captured as an immutable, timestamped,
// user-attributed action, and the current view is recomputed by replaying
// the ordered log through a pure reducer.
package reform

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/hydroreg/water-licensing-backend/internal/pkg/errors"
)

type ActionType string

const (
	ActionEditPurpose   ActionType = "EDIT_PURPOSE"
	ActionEditLicence   ActionType = "EDIT_LICENCE"
	ActionEditPoint     ActionType = "EDIT_POINT"
	ActionEditCondition ActionType = "EDIT_CONDITION"
	ActionSetStatus     ActionType = "SET_STATUS"
	ActionEditVersion   ActionType = "EDIT_VERSION"
	ActionEditParty     ActionType = "EDIT_PARTY"
	ActionEditAddress   ActionType = "EDIT_ADDRESS"
	ActionAddData       ActionType = "ADD_DATA"
	ActionEditData      ActionType = "EDIT_DATA"
	ActionDeleteData    ActionType = "DELETE_DATA"
)

// Review status vocabulary.
const (
	StatusInProgress = "in-progress"
	StatusInReview   = "in-review"
	StatusApproved   = "approved"
)

func validStatus(status string) bool {
	switch status {
	case StatusInProgress, StatusInReview, StatusApproved:
		return true
	}
	return false
}

// User is the acting principal recorded on every action; only id and email
// are kept, never the full auth principal.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Payload carries the per-type action data. Data holds only the diff of
// changed fields, keeping the persisted log small.
type Payload struct {
	ID        string         `json:"id,omitempty"`
	Schema    string         `json:"schema,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
	Status    string         `json:"status,omitempty"`
	Notes     *string        `json:"notes,omitempty"`
	User      User           `json:"user"`
	Timestamp int64          `json:"timestamp"`
}

// Action is one immutable entry of the per-licence log. Actions are only
// ever built by the New* creators below.
type Action struct {
	Type    ActionType `json:"type"`
	Payload Payload    `json:"payload"`
}

func stamp(user User) Payload {
	return Payload{User: user, Timestamp: time.Now().UnixMilli()}
}

func NewEditLicence(data map[string]any, user User) Action {
	p := stamp(user)
	p.Data = data
	return Action{Type: ActionEditLicence, Payload: p}
}

func NewEditPurpose(data map[string]any, user User, purposeID string) Action {
	p := stamp(user)
	p.ID = purposeID
	p.Data = data
	return Action{Type: ActionEditPurpose, Payload: p}
}

func NewEditPoint(data map[string]any, user User, pointID string) Action {
	p := stamp(user)
	p.ID = pointID
	p.Data = data
	return Action{Type: ActionEditPoint, Payload: p}
}

func NewEditCondition(data map[string]any, user User, conditionID string) Action {
	p := stamp(user)
	p.ID = conditionID
	p.Data = data
	return Action{Type: ActionEditCondition, Payload: p}
}

func NewEditVersion(data map[string]any, user User, versionID string) Action {
	p := stamp(user)
	p.ID = versionID
	p.Data = data
	return Action{Type: ActionEditVersion, Payload: p}
}

func NewEditParty(data map[string]any, user User, partyID string) Action {
	p := stamp(user)
	p.ID = partyID
	p.Data = data
	return Action{Type: ActionEditParty, Payload: p}
}

func NewEditAddress(data map[string]any, user User, addressID string) Action {
	p := stamp(user)
	p.ID = addressID
	p.Data = data
	return Action{Type: ActionEditAddress, Payload: p}
}

// NewAddData opens a new WR22 data item against the named schema. The fresh
// random id is how later EDIT_DATA / DELETE_DATA actions address the item.
func NewAddData(schema string, user User) Action {
	p := stamp(user)
	p.ID = uuid.New().String()
	p.Schema = schema
	return Action{Type: ActionAddData, Payload: p}
}

func NewEditData(data map[string]any, user User, id string) Action {
	p := stamp(user)
	p.ID = id
	p.Data = data
	return Action{Type: ActionEditData, Payload: p}
}

func NewDeleteData(user User, id string) Action {
	p := stamp(user)
	p.ID = id
	return Action{Type: ActionDeleteData, Payload: p}
}

// NewSetStatus records a review-state transition. Unknown statuses are a
// programming fault; whitespace-only notes normalize to null.
func NewSetStatus(status, notes string, user User) (Action, error) {
	if !validStatus(status) {
		return Action{}, fmt.Errorf("status %q: %w", status, pkgerrors.ErrUnknownStatus)
	}
	p := stamp(user)
	p.Status = status
	if trimmed := strings.TrimSpace(notes); trimmed != "" {
		p.Notes = &trimmed
	}
	return Action{Type: ActionSetStatus, Payload: p}, nil
}

// Diff returns the keys of next whose values differ from prev, so EDIT
// actions persist only what actually changed.
func Diff(prev, next map[string]any) map[string]any {
	out := map[string]any{}
	for k, v := range next {
		if pv, ok := prev[k]; !ok || fmt.Sprintf("%v", pv) != fmt.Sprintf("%v", v) {
			out[k] = v
		}
	}
	return out
}
