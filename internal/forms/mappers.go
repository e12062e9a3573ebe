package forms

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	pkgerrors "github.com/hydroreg/water-licensing-backend/internal/pkg/errors"
)

// Mapper names accepted in Options.Mapper.
const (
	MapperDefault   = "default"
	MapperBoolean   = "boolean"
	MapperNumber    = "number"
	MapperArray     = "array"
	MapperObject    = "object"
	MapperDate      = "date"
	MapperDayOfYear = "dayOfYear"
)

// InvalidPrefix flags raw input that could not be assembled into a value.
// The sentinel fails pattern validation so the form redisplays the input
// with an error instead of the request blowing up.
const InvalidPrefix = "invalid "

// Mapper converts between the URL-encoded wire payload and the internal
// field value. Import must be total over any payload: missing keys yield
// nil, malformed input yields a value that fails validation, never an error.
type Mapper interface {
	Import(name string, payload url.Values, field Field) any
	Export(name string, value any) url.Values
	PostValidate(value any) any
}

// MapperFor resolves a mapper name. Unknown names are a programming fault
// in the form definition, reported loudly.
func MapperFor(name string) (Mapper, error) {
	switch name {
	case MapperDefault, "":
		return defaultMapper{}, nil
	case MapperBoolean:
		return booleanMapper{}, nil
	case MapperNumber:
		return numberMapper{}, nil
	case MapperArray:
		return arrayMapper{}, nil
	case MapperObject:
		return objectMapper{}, nil
	case MapperDate:
		return dateMapper{}, nil
	case MapperDayOfYear:
		return dayOfYearMapper{}, nil
	default:
		return nil, fmt.Errorf("mapper %q: %w", name, pkgerrors.ErrInvalidArgument)
	}
}

type defaultMapper struct{}

func (defaultMapper) Import(name string, payload url.Values, _ Field) any {
	if !payload.Has(name) {
		return nil
	}
	return payload.Get(name)
}

func (defaultMapper) Export(name string, value any) url.Values {
	if value == nil {
		return url.Values{}
	}
	return url.Values{name: {fmt.Sprintf("%v", value)}}
}

func (defaultMapper) PostValidate(value any) any { return value }

type booleanMapper struct{}

func (booleanMapper) Import(name string, payload url.Values, _ Field) any {
	switch payload.Get(name) {
	case "true":
		return true
	case "false":
		return false
	}
	return nil
}

func (booleanMapper) Export(name string, value any) url.Values {
	b, ok := value.(bool)
	if !ok {
		return url.Values{}
	}
	return url.Values{name: {strconv.FormatBool(b)}}
}

func (booleanMapper) PostValidate(value any) any { return value }

type numberMapper struct{}

func (numberMapper) Import(name string, payload url.Values, _ Field) any {
	raw := strings.TrimSpace(payload.Get(name))
	if raw == "" {
		return nil
	}
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		// let validation reject it while the form keeps the raw input
		return raw
	}
	return n
}

func (numberMapper) Export(name string, value any) url.Values {
	if value == nil {
		return url.Values{}
	}
	return url.Values{name: {fmt.Sprintf("%v", value)}}
}

func (numberMapper) PostValidate(value any) any { return value }

type arrayMapper struct{}

func (arrayMapper) Import(name string, payload url.Values, _ Field) any {
	if !payload.Has(name) {
		return []string{}
	}
	return append([]string{}, payload[name]...)
}

func (arrayMapper) Export(name string, value any) url.Values {
	vs, ok := value.([]string)
	if !ok {
		return url.Values{}
	}
	return url.Values{name: vs}
}

func (arrayMapper) PostValidate(value any) any { return value }

// objectMapper round-trips {id, value} choices: the wire carries the id, the
// internal value is the whole choice. An unmatched id imports as nil so the
// required check reports it instead of a panic downstream.
type objectMapper struct{}

func (objectMapper) Import(name string, payload url.Values, field Field) any {
	id := payload.Get(name)
	if id == "" {
		return nil
	}
	for _, c := range field.Options.Choices {
		if c.ID == id {
			return map[string]any{"id": c.ID, "value": c.Value}
		}
	}
	return nil
}

func (objectMapper) Export(name string, value any) url.Values {
	m, ok := value.(map[string]any)
	if !ok {
		return url.Values{}
	}
	id, _ := m["id"].(string)
	if id == "" {
		return url.Values{}
	}
	return url.Values{name: {id}}
}

func (objectMapper) PostValidate(value any) any { return value }

// dateMapper assembles YYYY-MM-DD from the -day/-month/-year payload keys.
type dateMapper struct{}

func (dateMapper) Import(name string, payload url.Values, _ Field) any {
	day := strings.TrimSpace(payload.Get(name + "-day"))
	month := strings.TrimSpace(payload.Get(name + "-month"))
	year := strings.TrimSpace(payload.Get(name + "-year"))
	if day == "" && month == "" && year == "" {
		return nil
	}
	d, errD := strconv.Atoi(day)
	m, errM := strconv.Atoi(month)
	y, errY := strconv.Atoi(year)
	if errD != nil || errM != nil || errY != nil {
		return InvalidPrefix + day + "/" + month + "/" + year
	}
	y = correctCentury(y)
	return fmt.Sprintf("%04d-%02d-%02d", y, m, d)
}

func (dateMapper) Export(name string, value any) url.Values {
	s, ok := value.(string)
	if !ok {
		return url.Values{}
	}
	parts := strings.SplitN(s, "-", 3)
	if len(parts) != 3 {
		return url.Values{}
	}
	return url.Values{
		name + "-day":   {parts[2]},
		name + "-month": {parts[1]},
		name + "-year":  {parts[0]},
	}
}

// PostValidate normalizes a validator-coerced time.Time back to the
// canonical string form before storage.
func (dateMapper) PostValidate(value any) any {
	if t, ok := value.(time.Time); ok {
		return t.Format("2006-01-02")
	}
	return value
}

// correctCentury resolves 2-digit years against the current century; a
// resolved year in the future rolls back a century.
func correctCentury(y int) int {
	if y >= 100 {
		return y
	}
	now := time.Now().Year()
	y += now - now%100
	if y > now {
		y -= 100
	}
	return y
}

// dayOfYearMapper keeps only a recurring month/day (charging-period style
// dates). The year is deliberately dropped once day/month validity is
// checked; impossible combinations such as 30 February are flagged with the
// sentinel prefix rather than rejected with an exception.
type dayOfYearMapper struct{}

func (dayOfYearMapper) Import(name string, payload url.Values, _ Field) any {
	day := strings.TrimSpace(payload.Get(name + "-day"))
	month := strings.TrimSpace(payload.Get(name + "-month"))
	if day == "" && month == "" {
		return nil
	}
	d, errD := strconv.Atoi(day)
	m, errM := strconv.Atoi(month)
	if errD != nil || errM != nil || !validDayMonth(d, m) {
		return InvalidPrefix + day + "/" + month
	}
	return fmt.Sprintf("%02d-%02d", m, d)
}

func (dayOfYearMapper) Export(name string, value any) url.Values {
	s, ok := value.(string)
	if !ok {
		return url.Values{}
	}
	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 {
		return url.Values{}
	}
	return url.Values{
		name + "-day":   {parts[1]},
		name + "-month": {parts[0]},
	}
}

func (dayOfYearMapper) PostValidate(value any) any { return value }

// validDayMonth checks the combination in a leap year so 29 February passes.
func validDayMonth(d, m int) bool {
	if m < 1 || m > 12 || d < 1 || d > 31 {
		return false
	}
	t := time.Date(2000, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	return int(t.Month()) == m && t.Day() == d
}
