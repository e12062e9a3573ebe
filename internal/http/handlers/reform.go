package handlers

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/hydroreg/water-licensing-backend/internal/forms"
	"github.com/hydroreg/water-licensing-backend/internal/http/middleware"
	"github.com/hydroreg/water-licensing-backend/internal/http/response"
	"github.com/hydroreg/water-licensing-backend/internal/pkg/logger"
	"github.com/hydroreg/water-licensing-backend/internal/services"
	"github.com/hydroreg/water-licensing-backend/internal/session"
)

// ReformHandler serves the abstraction-reform screens: licence state, the
// review-status form, and the dynamic WR22 data-item forms. Failed POSTs
// follow post-redirect-get: the validated form is parked under a one-time
// token and the redirect target renders it.
type ReformHandler struct {
	log       *logger.Logger
	reform    services.ReformService
	formStore *session.FormStore
}

func NewReformHandler(log *logger.Logger, reformService services.ReformService, formStore *session.FormStore) *ReformHandler {
	return &ReformHandler{
		log:       log.With("handler", "ReformHandler"),
		reform:    reformService,
		formStore: formStore,
	}
}

// consumeSessionForm renders a parked form when the request carries a live
// token; a consumed or unknown token falls through to the default form.
func (h *ReformHandler) consumeSessionForm(c *gin.Context) (forms.Form, bool) {
	token := c.Query(session.FormQueryParam)
	if token == "" {
		return forms.Form{}, false
	}
	form, ok, err := h.formStore.Consume(c.Request.Context(), token)
	if err != nil {
		h.log.Warn("Failed to consume session form", "error", err)
		return forms.Form{}, false
	}
	return form, ok
}

// redirectWithForm implements the failure half of post-redirect-get.
func (h *ReformHandler) redirectWithForm(c *gin.Context, form forms.Form) {
	token, err := h.formStore.Save(c.Request.Context(), form)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, c.Request.URL.Path+"?"+session.FormQueryParam+"="+token)
}

func (h *ReformHandler) GetLicence(c *gin.Context) {
	licenceRef := c.Param("ref")
	record, state, err := h.reform.GetState(c.Request.Context(), licenceRef)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{
		"licence_ref": record.LicenceRef,
		"status":      state.Status,
		"last_edit":   state.LastEdit,
		"data":        state.ARData,
		"schemas":     h.reform.SchemaNames(),
	})
}

func (h *ReformHandler) GetStatusForm(c *gin.Context) {
	if form, ok := h.consumeSessionForm(c); ok {
		response.RespondOK(c, gin.H{"form": form})
		return
	}
	form, err := h.reform.StatusForm(c.Request.URL.Path, middleware.CSRFToken(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"form": form})
}

func (h *ReformHandler) PostStatus(c *gin.Context) {
	user, ok := principalUser(c)
	if !ok {
		response.RespondError(c, http.StatusForbidden, "forbidden", nil)
		return
	}
	template, err := h.reform.StatusForm(c.Request.URL.Path, middleware.CSRFToken(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	form, err := forms.HandleRequest(template, forms.RequestFrom(c.Request))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if !form.IsValid {
		h.redirectWithForm(c, form)
		return
	}

	values := formValues(form)
	licenceRef := c.Param("ref")
	notes, _ := values["notes"].(string)
	status, _ := values["status"].(string)
	if _, err := h.reform.SetStatus(c.Request.Context(), licenceRef, status, notes, user); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, licencePath(licenceRef))
}

func (h *ReformHandler) GetAddDataForm(c *gin.Context) {
	if form, ok := h.consumeSessionForm(c); ok {
		response.RespondOK(c, gin.H{"form": form})
		return
	}
	form, err := h.reform.AddDataForm(
		c.Request.Context(),
		c.Param("ref"),
		schemaName(c.Param("schema")),
		c.Request.URL.Path,
		middleware.CSRFToken(c),
	)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"form": form})
}

func (h *ReformHandler) PostAddData(c *gin.Context) {
	user, ok := principalUser(c)
	if !ok {
		response.RespondError(c, http.StatusForbidden, "forbidden", nil)
		return
	}
	licenceRef := c.Param("ref")
	schema := schemaName(c.Param("schema"))
	template, err := h.reform.AddDataForm(c.Request.Context(), licenceRef, schema, c.Request.URL.Path, middleware.CSRFToken(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	form, err := forms.HandleRequest(template, forms.RequestFrom(c.Request))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if !form.IsValid {
		h.redirectWithForm(c, form)
		return
	}
	if _, err := h.reform.SubmitAddData(c.Request.Context(), licenceRef, schema, formValues(form), user); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, licencePath(licenceRef))
}

func (h *ReformHandler) GetEditDataForm(c *gin.Context) {
	if form, ok := h.consumeSessionForm(c); ok {
		response.RespondOK(c, gin.H{"form": form})
		return
	}
	form, err := h.reform.EditDataForm(
		c.Request.Context(),
		c.Param("ref"),
		c.Param("id"),
		c.Request.URL.Path,
		middleware.CSRFToken(c),
	)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"form": form})
}

func (h *ReformHandler) PostEditData(c *gin.Context) {
	user, ok := principalUser(c)
	if !ok {
		response.RespondError(c, http.StatusForbidden, "forbidden", nil)
		return
	}
	licenceRef := c.Param("ref")
	itemID := c.Param("id")
	template, err := h.reform.EditDataForm(c.Request.Context(), licenceRef, itemID, c.Request.URL.Path, middleware.CSRFToken(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	form, err := forms.HandleRequest(template, forms.RequestFrom(c.Request))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if !form.IsValid {
		h.redirectWithForm(c, form)
		return
	}
	if _, err := h.reform.SubmitEditData(c.Request.Context(), licenceRef, itemID, formValues(form), user); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, licencePath(licenceRef))
}

func (h *ReformHandler) PostDeleteData(c *gin.Context) {
	user, ok := principalUser(c)
	if !ok {
		response.RespondError(c, http.StatusForbidden, "forbidden", nil)
		return
	}
	licenceRef := c.Param("ref")
	if _, err := h.reform.DeleteData(c.Request.Context(), licenceRef, c.Param("id"), user); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, licencePath(licenceRef))
}

func licencePath(licenceRef string) string {
	return "/admin/abstraction-reform/licence/" + url.PathEscape(licenceRef)
}

// schemaName maps the route parameter ("2.1") onto the registry name
// ("/wr22/2.1").
func schemaName(param string) string {
	return "/wr22/" + param
}
