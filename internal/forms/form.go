package forms

import (
	"fmt"

	pkgerrors "github.com/hydroreg/water-licensing-backend/internal/pkg/errors"
)

// Error is one user-facing validation failure, attached both to the owning
// field and to the form as a whole.
type Error struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

// Choice is one selectable option for radio/dropdown/checkbox widgets. ID is
// set when the upstream picklist carries ids; Value is what travels on the
// wire, Label is what the user sees.
type Choice struct {
	ID    string `json:"id,omitempty"`
	Value string `json:"value"`
	Label string `json:"label"`
}

type Options struct {
	Widget        string            `json:"widget"`
	Label         string            `json:"label,omitempty"`
	Hint          string            `json:"hint,omitempty"`
	Mapper        string            `json:"mapper,omitempty"`
	Choices       []Choice          `json:"choices,omitempty"`
	Required      bool              `json:"required,omitempty"`
	Pattern       string            `json:"pattern,omitempty"`
	ErrorMessages map[string]string `json:"errorMessages,omitempty"`
}

type Field struct {
	Name    string  `json:"name"`
	Value   any     `json:"value,omitempty"`
	Options Options `json:"options"`
	Errors  []Error `json:"errors,omitempty"`
}

// Form is a plain-data description of one HTML form. Instances built by the
// per-route form builders act as templates: HandleRequest never mutates the
// template, it returns a populated copy.
type Form struct {
	Action      string  `json:"action"`
	Method      string  `json:"method"`
	Fields      []Field `json:"fields"`
	Errors      []Error `json:"errors"`
	IsValid     bool    `json:"isValid"`
	IsSubmitted bool    `json:"isSubmitted"`
}

// New builds a form template. Field names must be unique within a form,
// otherwise value round-tripping through the payload is ambiguous.
func New(action, method string, fields ...Field) (Form, error) {
	seen := map[string]struct{}{}
	for _, f := range fields {
		if f.Name == "" {
			continue
		}
		if _, ok := seen[f.Name]; ok {
			return Form{}, fmt.Errorf("form %s: duplicate field %q: %w", action, f.Name, pkgerrors.ErrInvalidArgument)
		}
		seen[f.Name] = struct{}{}
	}
	return Form{
		Action: action,
		Method: method,
		Fields: fields,
		Errors: []Error{},
	}, nil
}

// Clone returns a deep copy. Field values are scalars, string slices or
// small maps produced by the mappers; anything else is copied by reference.
func (f Form) Clone() Form {
	out := f
	out.Fields = make([]Field, len(f.Fields))
	for i, fld := range f.Fields {
		out.Fields[i] = fld.clone()
	}
	out.Errors = append([]Error{}, f.Errors...)
	return out
}

func (fld Field) clone() Field {
	out := fld
	out.Errors = append([]Error{}, fld.Errors...)
	out.Options.Choices = append([]Choice{}, fld.Options.Choices...)
	if fld.Options.ErrorMessages != nil {
		msgs := make(map[string]string, len(fld.Options.ErrorMessages))
		for k, v := range fld.Options.ErrorMessages {
			msgs[k] = v
		}
		out.Options.ErrorMessages = msgs
	}
	switch v := fld.Value.(type) {
	case []string:
		out.Value = append([]string{}, v...)
	case map[string]any:
		m := make(map[string]any, len(v))
		for k, val := range v {
			m[k] = val
		}
		out.Value = m
	}
	return out
}

// SetValues returns a copy with the named field values replaced; unknown
// names are ignored.
func (f Form) SetValues(values map[string]any) Form {
	out := f.Clone()
	for i := range out.Fields {
		if v, ok := values[out.Fields[i].Name]; ok {
			out.Fields[i].Value = v
		}
	}
	return out
}

// Field returns the named field, or nil when absent.
func (f *Form) Field(name string) *Field {
	for i := range f.Fields {
		if f.Fields[i].Name == name {
			return &f.Fields[i]
		}
	}
	return nil
}
