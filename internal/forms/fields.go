package forms

// Widget identifiers. The view layer switches on these; the engine only uses
// them to pick a default mapper and validation shape.
const (
	WidgetText      = "text"
	WidgetDate      = "date"
	WidgetDayOfYear = "dayOfYear"
	WidgetRadio     = "radio"
	WidgetDropdown  = "dropdown"
	WidgetCheckbox  = "checkbox"
	WidgetHidden    = "hidden"
	WidgetParagraph = "paragraph"
)

// CSRFFieldName is the hidden token field present on every rendered form.
const CSRFFieldName = "csrf_token"

func TextField(name, label string) Field {
	return Field{Name: name, Options: Options{Widget: WidgetText, Label: label, Mapper: MapperDefault}}
}

func DateField(name, label string) Field {
	return Field{Name: name, Options: Options{Widget: WidgetDate, Label: label, Mapper: MapperDate}}
}

func DayOfYearField(name, label string) Field {
	return Field{Name: name, Options: Options{Widget: WidgetDayOfYear, Label: label, Mapper: MapperDayOfYear}}
}

func RadioField(name, label string, choices []Choice) Field {
	return Field{Name: name, Options: Options{Widget: WidgetRadio, Label: label, Mapper: MapperDefault, Choices: choices}}
}

func DropdownField(name, label string, choices []Choice) Field {
	return Field{Name: name, Options: Options{Widget: WidgetDropdown, Label: label, Mapper: MapperDefault, Choices: choices}}
}

func CheckboxField(name, label string, choices []Choice) Field {
	return Field{Name: name, Options: Options{Widget: WidgetCheckbox, Label: label, Mapper: MapperArray, Choices: choices}}
}

func HiddenField(name string, value any) Field {
	return Field{Name: name, Value: value, Options: Options{Widget: WidgetHidden, Mapper: MapperDefault}}
}

func CSRFField(token string) Field {
	f := HiddenField(CSRFFieldName, token)
	f.Options.Required = true
	return f
}

// ParagraphField renders static text between inputs; it never maps a value.
func ParagraphField(text string) Field {
	return Field{Options: Options{Widget: WidgetParagraph, Label: text}}
}

// Required marks the field mandatory, with msg used for the missing-value
// error (validator default when empty).
func Required(f Field, msg string) Field {
	f.Options.Required = true
	if msg != "" {
		f = WithErrorMessage(f, "required", msg)
	}
	return f
}

func WithErrorMessage(f Field, code, msg string) Field {
	if f.Options.ErrorMessages == nil {
		f.Options.ErrorMessages = map[string]string{}
	}
	f.Options.ErrorMessages[code] = msg
	return f
}

func WithMapper(f Field, mapper string) Field {
	f.Options.Mapper = mapper
	return f
}

func WithPattern(f Field, pattern, msg string) Field {
	f.Options.Pattern = pattern
	if msg != "" {
		f = WithErrorMessage(f, "pattern", msg)
	}
	return f
}
