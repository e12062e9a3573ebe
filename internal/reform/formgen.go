package reform

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/hydroreg/water-licensing-backend/internal/forms"
)

// Enum fields with more than this many choices render as a dropdown instead
// of radios.
const dropdownThreshold = 5

// GenerateForm synthesizes a form definition from a dereferenced WR22
// schema: one field per leaf scalar property, widget chosen by type and
// enum-size heuristics. Nested objects are flattened, so their child fields
// are hoisted to the top level; the registry rejects name collisions at
// load time. Property order is not significant in JSON, fields render in
// name order.
func GenerateForm(action string, doc map[string]any, csrfToken string) (forms.Form, error) {
	fields, err := collectFields(doc)
	if err != nil {
		return forms.Form{}, err
	}
	fields = append(fields, forms.CSRFField(csrfToken))
	return forms.New(action, http.MethodPost, fields...)
}

func collectFields(doc map[string]any) ([]forms.Field, error) {
	props, _ := doc["properties"].(map[string]any)
	required := requiredSet(doc)

	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)

	var fields []forms.Field
	for _, name := range names {
		prop, ok := props[name].(map[string]any)
		if !ok {
			continue
		}
		if _, nested := prop["properties"]; nested {
			children, err := collectFields(prop)
			if err != nil {
				return nil, err
			}
			fields = append(fields, children...)
			continue
		}
		fld, err := fieldFromProp(name, prop, required[name])
		if err != nil {
			return nil, err
		}
		fields = append(fields, fld)
	}
	return fields, nil
}

func requiredSet(doc map[string]any) map[string]bool {
	out := map[string]bool{}
	raw, _ := doc["required"].([]any)
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out[s] = true
		}
	}
	return out
}

func fieldFromProp(name string, prop map[string]any, required bool) (forms.Field, error) {
	label := labelFor(name, prop)

	var fld forms.Field
	fieldType, _ := prop["fieldType"].(string)
	typ, _ := prop["type"].(string)

	switch {
	case fieldType == "date":
		fld = forms.DateField(name, label)
	case fieldType == "dayOfYear":
		fld = forms.DayOfYearField(name, label)
	case fieldType != "":
		return forms.Field{}, fmt.Errorf("property %q: unsupported fieldType %q", name, fieldType)
	case typ == "boolean":
		fld = forms.RadioField(name, label, []forms.Choice{
			{Value: "true", Label: "Yes"},
			{Value: "false", Label: "No"},
		})
		fld.Options.Mapper = forms.MapperBoolean
	case hasEnum(prop):
		fld = enumField(name, label, prop)
	case typ == "number":
		fld = forms.TextField(name, label)
		fld.Options.Mapper = forms.MapperNumber
	default:
		fld = forms.TextField(name, label)
		if pattern, ok := prop["pattern"].(string); ok {
			fld.Options.Pattern = pattern
		}
	}

	if required {
		fld = forms.Required(fld, "")
	}
	return fld, nil
}

func hasEnum(prop map[string]any) bool {
	_, ok := prop["enum"].([]any)
	return ok
}

func enumField(name, label string, prop map[string]any) forms.Field {
	raw, _ := prop["enum"].([]any)
	objectShaped := false
	choices := make([]forms.Choice, 0, len(raw))
	for _, item := range raw {
		if m, ok := item.(map[string]any); ok {
			objectShaped = true
			choices = append(choices, forms.Choice{
				ID:    fmt.Sprintf("%v", m["id"]),
				Value: fmt.Sprintf("%v", m["value"]),
				Label: fmt.Sprintf("%v", m["value"]),
			})
			continue
		}
		v := fmt.Sprintf("%v", item)
		choices = append(choices, forms.Choice{Value: v, Label: v})
	}

	defaultEmpty, _ := prop["defaultEmpty"].(bool)
	var fld forms.Field
	if len(choices) > dropdownThreshold {
		if defaultEmpty {
			choices = append([]forms.Choice{{}}, choices...)
		}
		fld = forms.DropdownField(name, label, choices)
	} else {
		fld = forms.RadioField(name, label, choices)
	}
	if objectShaped {
		fld.Options.Mapper = forms.MapperObject
	}
	return fld
}

func labelFor(name string, prop map[string]any) string {
	if label, ok := prop["label"].(string); ok && label != "" {
		return label
	}
	words := strings.ReplaceAll(name, "_", " ")
	if words == "" {
		return words
	}
	return strings.ToUpper(words[:1]) + words[1:]
}
