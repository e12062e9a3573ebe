package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hydroreg/water-licensing-backend/internal/clients/water"
	"github.com/hydroreg/water-licensing-backend/internal/forms"
	"github.com/hydroreg/water-licensing-backend/internal/pkg/logger"
	"github.com/hydroreg/water-licensing-backend/internal/session"
)

// ContactEntryService drives the company-contact data-entry flow: the form
// draft lives in the session until the final submit creates the contact on
// the water service and clears the draft.
type ContactEntryService interface {
	Form(action, csrfToken string) (forms.Form, error)
	SaveDraft(ctx context.Context, companyID, userID string, contact water.Contact) error
	GetDraft(ctx context.Context, companyID, userID string) (water.Contact, bool, error)
	Submit(ctx context.Context, companyID, userID string, data map[string]any) (*water.Contact, error)
}

type contactEntryService struct {
	log   *logger.Logger
	water *water.Client
	store session.Store
}

func NewContactEntryService(baseLog *logger.Logger, waterClient *water.Client, store session.Store) ContactEntryService {
	return &contactEntryService{
		log:   baseLog.With("service", "ContactEntryService"),
		water: waterClient,
		store: store,
	}
}

func draftKey(companyID, userID string) string {
	return session.Key("company-contact", companyID, userID)
}

func (s *contactEntryService) Form(action, csrfToken string) (forms.Form, error) {
	return forms.New(action, "POST",
		forms.Required(forms.TextField("first_name", "First name"), "Enter a first name"),
		forms.Required(forms.TextField("last_name", "Last name"), "Enter a last name"),
		forms.WithPattern(
			forms.TextField("email", "Email address"),
			`^[^@\s]+@[^@\s]+$`,
			"Enter a valid email address",
		),
		forms.TextField("job_title", "Job title"),
		forms.TextField("phone", "Phone number"),
		forms.CSRFField(csrfToken),
	)
}

func (s *contactEntryService) SaveDraft(ctx context.Context, companyID, userID string, contact water.Contact) error {
	raw, err := json.Marshal(contact)
	if err != nil {
		return fmt.Errorf("marshal contact draft: %w", err)
	}
	return s.store.Set(ctx, draftKey(companyID, userID), string(raw))
}

func (s *contactEntryService) GetDraft(ctx context.Context, companyID, userID string) (water.Contact, bool, error) {
	raw, ok, err := s.store.Get(ctx, draftKey(companyID, userID))
	if err != nil || !ok {
		return water.Contact{}, false, err
	}
	var contact water.Contact
	if err := json.Unmarshal([]byte(raw), &contact); err != nil {
		return water.Contact{}, false, fmt.Errorf("unmarshal contact draft: %w", err)
	}
	return contact, true, nil
}

func (s *contactEntryService) Submit(ctx context.Context, companyID, userID string, data map[string]any) (*water.Contact, error) {
	if _, err := s.water.Companies.Get(ctx, companyID); err != nil {
		return nil, err
	}
	contact := water.Contact{
		CompanyID: companyID,
		FirstName: stringValue(data["first_name"]),
		LastName:  stringValue(data["last_name"]),
		Email:     stringValue(data["email"]),
		JobTitle:  stringValue(data["job_title"]),
		Phone:     stringValue(data["phone"]),
	}
	created, err := s.water.Contacts.Create(ctx, contact)
	if err != nil {
		return nil, err
	}
	if err := s.store.Clear(ctx, draftKey(companyID, userID)); err != nil {
		s.log.Warn("Failed to clear contact draft", "company_id", companyID, "error", err)
	}
	return created, nil
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}
