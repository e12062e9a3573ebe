// Package water is the thin JSON client for the backing water service. The
// backend is treated as an opaque CRUD API: each call returns decoded data
// or a wrapped error, with no retries and no failure classification.
package water

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hydroreg/water-licensing-backend/internal/pkg/logger"
	"github.com/hydroreg/water-licensing-backend/internal/utils"
)

const maxErrorBodyBytes = 1024

type Client struct {
	log     *logger.Logger
	baseURL string
	http    *http.Client

	Licences        *LicencesAPI
	Picklists       *PicklistsAPI
	Companies       *CompaniesAPI
	Contacts        *ContactsAPI
	InvoiceAccounts *InvoiceAccountsAPI
}

func NewClient(log *logger.Logger) (*Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	baseURL := strings.TrimSpace(utils.GetEnv("WATER_SERVICE_URL", "", log))
	if baseURL == "" {
		return nil, fmt.Errorf("missing WATER_SERVICE_URL")
	}
	timeoutSeconds := utils.GetEnvAsInt("WATER_SERVICE_TIMEOUT", 10, log)

	c := &Client{
		log:     log.With("service", "WaterClient"),
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout: time.Duration(timeoutSeconds) * time.Second,
		},
	}
	c.Licences = &LicencesAPI{c: c}
	c.Picklists = &PicklistsAPI{c: c}
	c.Companies = &CompaniesAPI{c: c}
	c.Contacts = &ContactsAPI{c: c}
	c.InvoiceAccounts = &InvoiceAccountsAPI{c: c}
	return c, nil
}

// NewClientWithBase is used by tests to point the client at an httptest
// server.
func NewClientWithBase(log *logger.Logger, baseURL string) *Client {
	c := &Client{
		log:     log.With("service", "WaterClient"),
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	c.Licences = &LicencesAPI{c: c}
	c.Picklists = &PicklistsAPI{c: c}
	c.Companies = &CompaniesAPI{c: c}
	c.Contacts = &ContactsAPI{c: c}
	c.InvoiceAccounts = &InvoiceAccountsAPI{c: c}
	return c
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("water %s %s: marshal body: %w", method, path, err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("water %s %s: %w", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("water %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return fmt.Errorf("water %s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("water %s %s: decode response: %w", method, path, err)
	}
	return nil
}
