package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hydroreg/water-licensing-backend/internal/forms"
	"github.com/hydroreg/water-licensing-backend/internal/http/response"
	"github.com/hydroreg/water-licensing-backend/internal/pkg/ctxutil"
	pkgerrors "github.com/hydroreg/water-licensing-backend/internal/pkg/errors"
	"github.com/hydroreg/water-licensing-backend/internal/reform"
)

// principalUser narrows the authenticated principal to the id+email pair
// recorded on actions.
func principalUser(c *gin.Context) (reform.User, bool) {
	p := ctxutil.GetPrincipal(c.Request.Context())
	if p == nil {
		return reform.User{}, false
	}
	return reform.User{ID: p.UserID.String(), Email: p.Email}, true
}

// formValues extracts the mapped field values of a validated form, dropping
// the csrf token and empty fields.
func formValues(form forms.Form) map[string]any {
	out := map[string]any{}
	for _, fld := range form.Fields {
		if fld.Name == "" || fld.Name == forms.CSRFFieldName || fld.Value == nil {
			continue
		}
		out[fld.Name] = fld.Value
	}
	return out
}

// respondServiceError maps domain errors onto the response envelope.
// Not-found lookups signal data-integrity faults and intentionally surface
// as server errors, not user-recoverable ones.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, pkgerrors.ErrVersionConflict):
		response.RespondError(c, http.StatusConflict, "version_conflict", err)
	case errors.Is(err, pkgerrors.ErrUnknownStatus), errors.Is(err, pkgerrors.ErrInvalidArgument):
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
	default:
		response.RespondError(c, http.StatusInternalServerError, "internal_error", err)
	}
}
