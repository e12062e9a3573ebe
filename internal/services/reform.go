package services

import (
	"context"
	"fmt"

	"github.com/hydroreg/water-licensing-backend/internal/forms"
	"github.com/hydroreg/water-licensing-backend/internal/pkg/logger"
	"github.com/hydroreg/water-licensing-backend/internal/reform"
	"github.com/hydroreg/water-licensing-backend/internal/types"
)

// ReformService orchestrates the abstraction-reform flows: load and replay
// the action log, build dynamic forms from WR22 schemas, append actions.
type ReformService interface {
	GetState(ctx context.Context, licenceRef string) (*types.ARLicence, reform.State, error)
	SchemaNames() []string

	StatusForm(action, csrfToken string) (forms.Form, error)
	SetStatus(ctx context.Context, licenceRef, status, notes string, user reform.User) (reform.State, error)

	AddDataForm(ctx context.Context, licenceRef, schemaName, action, csrfToken string) (forms.Form, error)
	SubmitAddData(ctx context.Context, licenceRef, schemaName string, content map[string]any, user reform.User) (reform.State, error)

	EditDataForm(ctx context.Context, licenceRef, itemID, action, csrfToken string) (forms.Form, error)
	SubmitEditData(ctx context.Context, licenceRef, itemID string, content map[string]any, user reform.User) (reform.State, error)

	DeleteData(ctx context.Context, licenceRef, itemID string, user reform.User) (reform.State, error)
}

type reformService struct {
	log      *logger.Logger
	loader   *reform.Loader
	registry *reform.Registry
	resolver *reform.Resolver
}

func NewReformService(baseLog *logger.Logger, loader *reform.Loader, registry *reform.Registry, resolver *reform.Resolver) ReformService {
	return &reformService{
		log:      baseLog.With("service", "ReformService"),
		loader:   loader,
		registry: registry,
		resolver: resolver,
	}
}

func (s *reformService) GetState(ctx context.Context, licenceRef string) (*types.ARLicence, reform.State, error) {
	return s.loader.Load(ctx, licenceRef)
}

func (s *reformService) SchemaNames() []string {
	return s.registry.Names()
}

func (s *reformService) StatusForm(action, csrfToken string) (forms.Form, error) {
	statusField := forms.RadioField("status", "Review status", []forms.Choice{
		{Value: reform.StatusInProgress, Label: "In progress"},
		{Value: reform.StatusInReview, Label: "In review"},
		{Value: reform.StatusApproved, Label: "Approved"},
	})
	statusField = forms.Required(statusField, "Select a status")
	return forms.New(action, "POST",
		statusField,
		forms.TextField("notes", "Notes"),
		forms.CSRFField(csrfToken),
	)
}

func (s *reformService) SetStatus(ctx context.Context, licenceRef, status, notes string, user reform.User) (reform.State, error) {
	record, _, err := s.loader.Load(ctx, licenceRef)
	if err != nil {
		return reform.State{}, err
	}
	action, err := reform.NewSetStatus(status, notes, user)
	if err != nil {
		return reform.State{}, err
	}
	return s.loader.PersistActions(ctx, record, action)
}

func (s *reformService) AddDataForm(ctx context.Context, licenceRef, schemaName, action, csrfToken string) (forms.Form, error) {
	doc, err := s.registry.Get(schemaName)
	if err != nil {
		return forms.Form{}, err
	}
	resolved, err := s.resolver.Dereference(ctx, doc, licenceRef)
	if err != nil {
		return forms.Form{}, err
	}
	return reform.GenerateForm(action, resolved, csrfToken)
}

// SubmitAddData records the ADD_DATA / EDIT_DATA pair for a freshly entered
// WR22 data item: the add opens the item under a new id, the edit carries
// the entered content.
func (s *reformService) SubmitAddData(ctx context.Context, licenceRef, schemaName string, content map[string]any, user reform.User) (reform.State, error) {
	if _, err := s.registry.Get(schemaName); err != nil {
		return reform.State{}, err
	}
	record, _, err := s.loader.Load(ctx, licenceRef)
	if err != nil {
		return reform.State{}, err
	}
	add := reform.NewAddData(schemaName, user)
	edit := reform.NewEditData(content, user, add.Payload.ID)
	return s.loader.PersistActions(ctx, record, add, edit)
}

func (s *reformService) EditDataForm(ctx context.Context, licenceRef, itemID, action, csrfToken string) (forms.Form, error) {
	_, state, err := s.loader.Load(ctx, licenceRef)
	if err != nil {
		return forms.Form{}, err
	}
	item, err := reform.FindDataItem(state, itemID)
	if err != nil {
		return forms.Form{}, err
	}
	form, err := s.AddDataForm(ctx, licenceRef, item.Schema, action, csrfToken)
	if err != nil {
		return forms.Form{}, err
	}
	return form.SetValues(item.Content), nil
}

// SubmitEditData stores only the diff of changed fields against the item's
// current content; an unchanged submission appends nothing.
func (s *reformService) SubmitEditData(ctx context.Context, licenceRef, itemID string, content map[string]any, user reform.User) (reform.State, error) {
	record, state, err := s.loader.Load(ctx, licenceRef)
	if err != nil {
		return reform.State{}, err
	}
	item, err := reform.FindDataItem(state, itemID)
	if err != nil {
		return reform.State{}, err
	}
	diff := reform.Diff(item.Content, content)
	if len(diff) == 0 {
		s.log.Debug("Edit submission with no changes", "licence_ref", licenceRef, "item_id", itemID)
		return state, nil
	}
	return s.loader.PersistActions(ctx, record, reform.NewEditData(diff, user, itemID))
}

func (s *reformService) DeleteData(ctx context.Context, licenceRef, itemID string, user reform.User) (reform.State, error) {
	record, state, err := s.loader.Load(ctx, licenceRef)
	if err != nil {
		return reform.State{}, err
	}
	if _, err := reform.FindDataItem(state, itemID); err != nil {
		return reform.State{}, fmt.Errorf("delete: %w", err)
	}
	return s.loader.PersistActions(ctx, record, reform.NewDeleteData(user, itemID))
}
