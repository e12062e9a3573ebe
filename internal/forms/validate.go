package forms

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Validator-facing error codes; Options.ErrorMessages is keyed by these.
const (
	CodeRequired = "required"
	CodePattern  = "pattern"
	CodeEnum     = "enum"
	CodeType     = "type"
)

// BuildSchema derives a JSON Schema document from the field definitions.
// The required keyword is handled separately (see Validate) so every error
// can be attributed to a single field.
func BuildSchema(form Form) (map[string]any, error) {
	props := map[string]any{}
	for _, fld := range form.Fields {
		if fld.Name == "" || fld.Options.Widget == WidgetParagraph {
			continue
		}
		prop, err := fieldSchema(fld)
		if err != nil {
			return nil, err
		}
		props[fld.Name] = prop
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
	}, nil
}

func fieldSchema(fld Field) (map[string]any, error) {
	mapper := fld.Options.Mapper
	if mapper == "" {
		mapper = MapperDefault
	}
	switch mapper {
	case MapperBoolean:
		return map[string]any{"type": "boolean"}, nil
	case MapperNumber:
		return map[string]any{"type": "number"}, nil
	case MapperArray:
		items := map[string]any{"type": "string"}
		if enum := choiceEnum(fld); enum != nil {
			items["enum"] = enum
		}
		return map[string]any{"type": "array", "items": items}, nil
	case MapperObject:
		// the id is matched against the choice list at import time
		return map[string]any{"type": "object"}, nil
	case MapperDate:
		return map[string]any{"type": "string", "pattern": `^[0-9]{4}-[0-9]{2}-[0-9]{2}$`}, nil
	case MapperDayOfYear:
		return map[string]any{"type": "string", "pattern": `^[0-9]{2}-[0-9]{2}$`}, nil
	case MapperDefault:
		prop := map[string]any{"type": "string"}
		if fld.Options.Pattern != "" {
			prop["pattern"] = fld.Options.Pattern
		}
		if enum := choiceEnum(fld); enum != nil {
			prop["enum"] = enum
		}
		return prop, nil
	default:
		_, err := MapperFor(mapper)
		return nil, err
	}
}

func choiceEnum(fld Field) []any {
	if len(fld.Options.Choices) == 0 {
		return nil
	}
	enum := make([]any, 0, len(fld.Options.Choices))
	for _, c := range fld.Options.Choices {
		if c.ID != "" {
			// object-shaped choices validate via the object mapper instead
			return nil
		}
		enum = append(enum, c.Value)
	}
	return enum
}

// Validate checks the imported flat payload against the form's derived
// schema and returns the normalized error list. Custom per-field messages
// take precedence over validator defaults.
func Validate(form Form, data map[string]any) ([]Error, error) {
	var errs []Error

	for _, fld := range form.Fields {
		if !fld.Options.Required || fld.Name == "" {
			continue
		}
		if v, ok := data[fld.Name]; !ok || v == nil {
			errs = append(errs, Error{Name: fld.Name, Message: message(fld, CodeRequired, "Enter a value")})
		}
	}

	doc, err := BuildSchema(form)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal form schema: %w", err)
	}
	schema, err := jsonschema.CompileString("form.json", string(raw))
	if err != nil {
		return nil, fmt.Errorf("compile form schema: %w", err)
	}

	present := map[string]any{}
	for k, v := range data {
		if v != nil {
			present[k] = v
		}
	}
	if verr := schema.Validate(present); verr != nil {
		ve, ok := verr.(*jsonschema.ValidationError)
		if !ok {
			return nil, fmt.Errorf("validate form payload: %w", verr)
		}
		for _, leaf := range leaves(ve) {
			name := instanceField(leaf.InstanceLocation)
			code := keywordCode(leaf.KeywordLocation)
			fld := form.Field(name)
			msg := leaf.Message
			if fld != nil {
				msg = message(*fld, code, leaf.Message)
			}
			errs = append(errs, Error{Name: name, Message: msg})
		}
	}
	return errs, nil
}

func message(fld Field, code, fallback string) string {
	if m, ok := fld.Options.ErrorMessages[code]; ok {
		return m
	}
	return fallback
}

func leaves(ve *jsonschema.ValidationError) []*jsonschema.ValidationError {
	if len(ve.Causes) == 0 {
		return []*jsonschema.ValidationError{ve}
	}
	var out []*jsonschema.ValidationError
	for _, c := range ve.Causes {
		out = append(out, leaves(c)...)
	}
	return out
}

// instanceField extracts the owning field name from an instance pointer
// such as /abstraction_count or /purposes/0.
func instanceField(loc string) string {
	loc = strings.TrimPrefix(loc, "/")
	if i := strings.IndexByte(loc, '/'); i >= 0 {
		return loc[:i]
	}
	return loc
}

func keywordCode(loc string) string {
	if i := strings.LastIndexByte(loc, '/'); i >= 0 {
		return loc[i+1:]
	}
	return loc
}
