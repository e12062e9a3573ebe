package handlers

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/hydroreg/water-licensing-backend/internal/clients/water"
	"github.com/hydroreg/water-licensing-backend/internal/forms"
	"github.com/hydroreg/water-licensing-backend/internal/http/middleware"
	"github.com/hydroreg/water-licensing-backend/internal/http/response"
	"github.com/hydroreg/water-licensing-backend/internal/pkg/ctxutil"
	"github.com/hydroreg/water-licensing-backend/internal/pkg/logger"
	"github.com/hydroreg/water-licensing-backend/internal/services"
	"github.com/hydroreg/water-licensing-backend/internal/session"
)

// ContactHandler serves the company-contact entry flow. The in-flight draft
// is kept in the session per company+user so a returning visit prefills the
// form.
type ContactHandler struct {
	log       *logger.Logger
	contacts  services.ContactEntryService
	formStore *session.FormStore
}

func NewContactHandler(log *logger.Logger, contactService services.ContactEntryService, formStore *session.FormStore) *ContactHandler {
	return &ContactHandler{
		log:       log.With("handler", "ContactHandler"),
		contacts:  contactService,
		formStore: formStore,
	}
}

func (h *ContactHandler) GetForm(c *gin.Context) {
	if token := c.Query(session.FormQueryParam); token != "" {
		form, ok, err := h.formStore.Consume(c.Request.Context(), token)
		if err != nil {
			h.log.Warn("Failed to consume session form", "error", err)
		} else if ok {
			response.RespondOK(c, gin.H{"form": form})
			return
		}
	}
	principal := ctxutil.GetPrincipal(c.Request.Context())
	if principal == nil {
		response.RespondError(c, http.StatusForbidden, "forbidden", nil)
		return
	}
	companyID := c.Param("companyId")
	form, err := h.contacts.Form(c.Request.URL.Path, middleware.CSRFToken(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	draft, ok, err := h.contacts.GetDraft(c.Request.Context(), companyID, principal.UserID.String())
	if err != nil {
		h.log.Warn("Failed to load contact draft", "company_id", companyID, "error", err)
	} else if ok {
		form = form.SetValues(map[string]any{
			"first_name": draft.FirstName,
			"last_name":  draft.LastName,
			"email":      draft.Email,
			"job_title":  draft.JobTitle,
			"phone":      draft.Phone,
		})
	}
	response.RespondOK(c, gin.H{"form": form})
}

func (h *ContactHandler) PostForm(c *gin.Context) {
	principal := ctxutil.GetPrincipal(c.Request.Context())
	if principal == nil {
		response.RespondError(c, http.StatusForbidden, "forbidden", nil)
		return
	}
	companyID := c.Param("companyId")
	template, err := h.contacts.Form(c.Request.URL.Path, middleware.CSRFToken(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	form, err := forms.HandleRequest(template, forms.RequestFrom(c.Request))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	values := formValues(form)
	userID := principal.UserID.String()

	// Even an invalid submission is worth a draft: the user keeps what they
	// typed across the redirect and any later visit.
	draft := water.Contact{
		CompanyID: companyID,
		FirstName: stringField(values, "first_name"),
		LastName:  stringField(values, "last_name"),
		Email:     stringField(values, "email"),
		JobTitle:  stringField(values, "job_title"),
		Phone:     stringField(values, "phone"),
	}
	if err := h.contacts.SaveDraft(c.Request.Context(), companyID, userID, draft); err != nil {
		h.log.Warn("Failed to save contact draft", "company_id", companyID, "error", err)
	}

	if !form.IsValid {
		token, err := h.formStore.Save(c.Request.Context(), form)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		c.Redirect(http.StatusSeeOther, c.Request.URL.Path+"?"+session.FormQueryParam+"="+token)
		return
	}

	created, err := h.contacts.Submit(c.Request.Context(), companyID, userID, values)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/admin/company/"+url.PathEscape(companyID)+"/contacts/"+url.PathEscape(created.ID))
}

func stringField(values map[string]any, name string) string {
	s, _ := values[name].(string)
	return s
}
