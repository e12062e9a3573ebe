package forms

import (
	"net/http"
	"net/url"
	"strings"
)

// Request carries the two candidate payload sources for a submission. The
// form's method decides which one feeds the mappers.
type Request struct {
	Body  url.Values
	Query url.Values
}

// RequestFrom extracts the payload sources from an already-parsed request.
func RequestFrom(r *http.Request) Request {
	return Request{Body: r.PostForm, Query: r.URL.Query()}
}

// ImportData runs every field's mapper import over the payload, producing
// the flat internal representation keyed by field name.
func ImportData(form Form, payload url.Values) (map[string]any, error) {
	data := map[string]any{}
	for _, fld := range form.Fields {
		if fld.Name == "" {
			continue
		}
		mapper, err := MapperFor(fld.Options.Mapper)
		if err != nil {
			return nil, err
		}
		data[fld.Name] = mapper.Import(fld.Name, payload, fld)
	}
	return data, nil
}

// HandleRequest applies one submission to a form template: import the
// payload through the field mappers, validate, attach errors, re-populate
// values. The template is never mutated and the result is always a full,
// renderable form, valid or not.
func HandleRequest(template Form, req Request) (Form, error) {
	form := template.Clone()
	form.IsSubmitted = true

	payload := req.Query
	if strings.EqualFold(form.Method, http.MethodPost) {
		payload = req.Body
	}

	data, err := ImportData(form, payload)
	if err != nil {
		return form, err
	}

	errs, err := Validate(form, data)
	if err != nil {
		return form, err
	}

	byName := map[string][]Error{}
	for _, e := range errs {
		byName[e.Name] = append(byName[e.Name], e)
	}
	for i := range form.Fields {
		fld := &form.Fields[i]
		fld.Errors = append([]Error{}, byName[fld.Name]...)
		mapper, err := MapperFor(fld.Options.Mapper)
		if err != nil {
			return form, err
		}
		if fld.Name != "" {
			fld.Value = mapper.PostValidate(data[fld.Name])
		}
	}

	form.Errors = errs
	if form.Errors == nil {
		form.Errors = []Error{}
	}
	form.IsValid = len(errs) == 0
	return form, nil
}
