package water

import (
	"context"
	"net/http"
	"net/url"
)

type Company struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

type Contact struct {
	ID        string `json:"id,omitempty"`
	CompanyID string `json:"company_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email,omitempty"`
	JobTitle  string `json:"job_title,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

type InvoiceAccount struct {
	ID            string `json:"id,omitempty"`
	CompanyID     string `json:"company_id"`
	AccountNumber string `json:"account_number"`
	Address       string `json:"address,omitempty"`
}

type CompaniesAPI struct {
	c *Client
}

func (a *CompaniesAPI) Get(ctx context.Context, companyID string) (*Company, error) {
	var out Company
	path := "/companies/" + url.PathEscape(companyID)
	if err := a.c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *CompaniesAPI) Contacts(ctx context.Context, companyID string) ([]Contact, error) {
	var out []Contact
	path := "/companies/" + url.PathEscape(companyID) + "/contacts"
	if err := a.c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type ContactsAPI struct {
	c *Client
}

func (a *ContactsAPI) Create(ctx context.Context, contact Contact) (*Contact, error) {
	var out Contact
	if err := a.c.doJSON(ctx, http.MethodPost, "/contacts", contact, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type InvoiceAccountsAPI struct {
	c *Client
}

func (a *InvoiceAccountsAPI) Get(ctx context.Context, id string) (*InvoiceAccount, error) {
	var out InvoiceAccount
	path := "/invoice-accounts/" + url.PathEscape(id)
	if err := a.c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *InvoiceAccountsAPI) Create(ctx context.Context, account InvoiceAccount) (*InvoiceAccount, error) {
	var out InvoiceAccount
	if err := a.c.doJSON(ctx, http.MethodPost, "/invoice-accounts", account, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
