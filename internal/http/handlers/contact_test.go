package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hydroreg/water-licensing-backend/internal/clients/water"
	"github.com/hydroreg/water-licensing-backend/internal/forms"
	"github.com/hydroreg/water-licensing-backend/internal/http/middleware"
	"github.com/hydroreg/water-licensing-backend/internal/pkg/ctxutil"
	"github.com/hydroreg/water-licensing-backend/internal/pkg/logger"
	"github.com/hydroreg/water-licensing-backend/internal/services"
	"github.com/hydroreg/water-licensing-backend/internal/session"
)

type contactTestEnv struct {
	router    *gin.Engine
	store     session.Store
	principal *ctxutil.Principal
}

func newContactTestEnv(t *testing.T) contactTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := logger.NewNop()

	mux := http.NewServeMux()
	mux.HandleFunc("/companies/co-1", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(water.Company{ID: "co-1", Name: "Acme Farms", Type: "organisation"})
	})
	mux.HandleFunc("/contacts", func(w http.ResponseWriter, r *http.Request) {
		var in water.Contact
		_ = json.NewDecoder(r.Body).Decode(&in)
		in.ID = "ct-1"
		json.NewEncoder(w).Encode(in)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	store := session.NewMemoryStore(time.Minute)
	formStore := session.NewFormStore(store)
	waterClient := water.NewClientWithBase(log, srv.URL)
	contactService := services.NewContactEntryService(log, waterClient, store)
	handler := NewContactHandler(log, contactService, formStore)

	principal := &ctxutil.Principal{UserID: uuid.New(), Email: "reviewer@example.gov.uk"}
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Request = c.Request.WithContext(ctxutil.WithPrincipal(c.Request.Context(), principal))
		c.Next()
	})
	router.Use(middleware.NewCSRFMiddleware(log, store).Protect())
	router.GET("/admin/company/:companyId/contacts/new", handler.GetForm)
	router.POST("/admin/company/:companyId/contacts/new", handler.PostForm)

	return contactTestEnv{router: router, store: store, principal: principal}
}

func (e contactTestEnv) csrfToken(t *testing.T) string {
	t.Helper()
	// the first GET issues the per-user token
	e.router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/admin/company/co-1/contacts/new", nil))
	token, ok, err := e.store.Get(context.Background(), session.Key("csrf", e.principal.UserID.String()))
	require.NoError(t, err)
	require.True(t, ok)
	return token
}

func (e contactTestEnv) getForm(t *testing.T, path string) forms.Form {
	t.Helper()
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var body struct {
		Form forms.Form `json:"form"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Form
}

func (e contactTestEnv) post(t *testing.T, path string, values url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestContactFlow_GetRendersFreshForm(t *testing.T) {
	env := newContactTestEnv(t)
	form := env.getForm(t, "/admin/company/co-1/contacts/new")

	assert.False(t, form.IsSubmitted)
	require.NotNil(t, form.Field("first_name"))
	require.NotNil(t, form.Field(forms.CSRFFieldName))
	assert.NotEmpty(t, form.Field(forms.CSRFFieldName).Value)
}

func TestContactFlow_InvalidPostRedirectsAndConsumesOnce(t *testing.T) {
	env := newContactTestEnv(t)
	token := env.csrfToken(t)

	// missing last_name fails validation
	w := env.post(t, "/admin/company/co-1/contacts/new", url.Values{
		"csrf_token": {token},
		"first_name": {"Ada"},
	})
	require.Equal(t, http.StatusSeeOther, w.Code, w.Body.String())
	location := w.Header().Get("Location")
	require.Contains(t, location, session.FormQueryParam+"=")

	// the redirect target renders the submitted form with its errors
	form := env.getForm(t, location)
	assert.True(t, form.IsSubmitted)
	assert.False(t, form.IsValid)
	assert.NotEmpty(t, form.Field("last_name").Errors)
	assert.Equal(t, "Ada", form.Field("first_name").Value)

	// refreshing the same URL falls back to a fresh form prefilled from the
	// saved draft
	again := env.getForm(t, location)
	assert.False(t, again.IsSubmitted)
	assert.Equal(t, "Ada", again.Field("first_name").Value)
}

func TestContactFlow_ValidPostCreatesContact(t *testing.T) {
	env := newContactTestEnv(t)
	token := env.csrfToken(t)

	w := env.post(t, "/admin/company/co-1/contacts/new", url.Values{
		"csrf_token": {token},
		"first_name": {"Ada"},
		"last_name":  {"Lovelace"},
		"email":      {"ada@example.com"},
	})
	require.Equal(t, http.StatusSeeOther, w.Code, w.Body.String())
	assert.Equal(t, "/admin/company/co-1/contacts/ct-1", w.Header().Get("Location"))

	// the draft is cleared after a successful submit
	_, ok, err := env.store.Get(context.Background(),
		session.Key("company-contact", "co-1", env.principal.UserID.String()))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestContactFlow_PostWithoutCSRFTokenRejected(t *testing.T) {
	env := newContactTestEnv(t)
	env.csrfToken(t)

	w := env.post(t, "/admin/company/co-1/contacts/new", url.Values{
		"first_name": {"Ada"},
		"last_name":  {"Lovelace"},
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}
