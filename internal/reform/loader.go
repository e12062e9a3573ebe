package reform

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/datatypes"

	"github.com/hydroreg/water-licensing-backend/internal/clients/water"
	pkgerrors "github.com/hydroreg/water-licensing-backend/internal/pkg/errors"
	"github.com/hydroreg/water-licensing-backend/internal/pkg/logger"
	"github.com/hydroreg/water-licensing-backend/internal/repos"
	"github.com/hydroreg/water-licensing-backend/internal/types"
)

// LicenceDataValue is the JSON persisted inside the AR licence record: the
// ordered action log plus the derived {status, lastEdit} summary kept
// alongside it for listing screens.
type LicenceDataValue struct {
	Actions  []Action  `json:"actions"`
	Status   string    `json:"status,omitempty"`
	LastEdit *LastEdit `json:"lastEdit,omitempty"`
}

// Loader fetches or lazily creates the per-licence action-log record and
// replays it through the reducer on every read. The final state is never
// persisted; only the log is authoritative.
type Loader struct {
	repo  repos.ARLicenceRepo
	water *water.Client
	log   *logger.Logger
}

func NewLoader(repo repos.ARLicenceRepo, waterClient *water.Client, baseLog *logger.Logger) *Loader {
	return &Loader{repo: repo, water: waterClient, log: baseLog.With("service", "ReformLoader")}
}

// Load returns the AR record for a licence plus its current final state,
// creating an empty record on first touch.
func (l *Loader) Load(ctx context.Context, licenceRef string) (*types.ARLicence, State, error) {
	licence, err := l.water.Licences.Get(ctx, licenceRef)
	if err != nil {
		return nil, State{}, err
	}

	record, err := l.repo.GetByRef(ctx, nil, licenceRef)
	if errors.Is(err, pkgerrors.ErrNotFound) {
		record, err = l.createRecord(ctx, licence)
	}
	if err != nil {
		return nil, State{}, err
	}

	value, err := decodeDataValue(record.LicenceDataValue)
	if err != nil {
		return nil, State{}, err
	}

	state := Reduce(InitialState(LicenceFromData(licence.Data)), value.Actions)
	return record, state, nil
}

// PersistActions appends new actions to the log, recomputes the full final
// state by replaying the whole updated log from scratch, and writes the log
// plus the fresh summary back under the record's optimistic version check.
func (l *Loader) PersistActions(ctx context.Context, record *types.ARLicence, actions ...Action) (State, error) {
	licence, err := l.water.Licences.Get(ctx, record.LicenceRef)
	if err != nil {
		return State{}, err
	}

	value, err := decodeDataValue(record.LicenceDataValue)
	if err != nil {
		return State{}, err
	}
	value.Actions = append(value.Actions, actions...)

	state := Reduce(InitialState(LicenceFromData(licence.Data)), value.Actions)
	value.Status = state.Status
	value.LastEdit = state.LastEdit

	raw, err := json.Marshal(value)
	if err != nil {
		return State{}, fmt.Errorf("marshal licence data value: %w", err)
	}
	if err := l.repo.UpdateData(ctx, nil, record.ID, datatypes.JSON(raw), record.Version); err != nil {
		return State{}, err
	}
	record.LicenceDataValue = datatypes.JSON(raw)
	record.Version++

	l.log.Info("Persisted reform actions",
		"licence_ref", record.LicenceRef,
		"appended", len(actions),
		"log_length", len(value.Actions),
		"status", value.Status,
	)
	return state, nil
}

func (l *Loader) createRecord(ctx context.Context, licence *water.Licence) (*types.ARLicence, error) {
	value := LicenceDataValue{Actions: []Action{}, Status: StatusInProgress}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("marshal licence data value: %w", err)
	}
	metadata, err := json.Marshal(map[string]any{"licence_id": licence.ID})
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}
	record := &types.ARLicence{
		LicenceRef:       licence.LicenceRef,
		RegimeID:         licence.RegimeID,
		TypeID:           licence.TypeID,
		LicenceDataValue: datatypes.JSON(raw),
		Metadata:         datatypes.JSON(metadata),
	}
	return l.repo.Create(ctx, nil, record)
}

func decodeDataValue(raw datatypes.JSON) (LicenceDataValue, error) {
	value := LicenceDataValue{Actions: []Action{}}
	if len(raw) == 0 {
		return value, nil
	}
	if err := json.Unmarshal(raw, &value); err != nil {
		return LicenceDataValue{}, fmt.Errorf("decode licence data value: %w", err)
	}
	if value.Actions == nil {
		value.Actions = []Action{}
	}
	return value, nil
}

// LicenceFromData splits the water service's nested licence payload into
// the editable projection: known sub-entity lists by name, everything else
// into the base map.
func LicenceFromData(data map[string]any) Licence {
	lic := Licence{Base: map[string]any{}}
	lists := map[string]*[]Entity{
		"purposes":   &lic.Purposes,
		"points":     &lic.Points,
		"conditions": &lic.Conditions,
		"versions":   &lic.Versions,
		"parties":    &lic.Parties,
		"addresses":  &lic.Addresses,
	}
	for k, v := range data {
		target, isList := lists[k]
		if !isList {
			lic.Base[k] = v
			continue
		}
		raw, ok := v.([]any)
		if !ok {
			continue
		}
		entities := make([]Entity, 0, len(raw))
		for _, item := range raw {
			if m, ok := item.(map[string]any); ok {
				entities = append(entities, Entity(m))
			}
		}
		*target = entities
	}
	return lic
}
