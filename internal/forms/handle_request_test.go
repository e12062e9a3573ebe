package forms

import (
	"net/url"
	"testing"
)

func testForm(t *testing.T) Form {
	t.Helper()
	form, err := New("/licence/status", "POST",
		Required(TextField("status", "Status"), "Select a status"),
		TextField("notes", "Notes"),
		DateField("effective_date", "Effective date"),
	)
	if err != nil {
		t.Fatalf("build form: %v", err)
	}
	return form
}

func TestHandleRequest_ValidSubmission(t *testing.T) {
	template := testForm(t)
	form, err := HandleRequest(template, Request{Body: url.Values{
		"status":               {"approved"},
		"notes":                {"looks fine"},
		"effective_date-day":   {"2"},
		"effective_date-month": {"3"},
		"effective_date-year":  {"2020"},
	}})
	if err != nil {
		t.Fatalf("handle request: %v", err)
	}
	if !form.IsSubmitted || !form.IsValid {
		t.Fatalf("expected submitted valid form, got submitted=%v valid=%v", form.IsSubmitted, form.IsValid)
	}
	if form.Field("status").Value != "approved" {
		t.Fatalf("status not repopulated: %v", form.Field("status").Value)
	}
	if form.Field("effective_date").Value != "2020-03-02" {
		t.Fatalf("date not assembled: %v", form.Field("effective_date").Value)
	}
}

func TestHandleRequest_InvalidSubmissionKeepsFormRenderable(t *testing.T) {
	template := testForm(t)
	form, err := HandleRequest(template, Request{Body: url.Values{
		"notes": {"no status chosen"},
	}})
	if err != nil {
		t.Fatalf("handle request: %v", err)
	}
	if form.IsValid {
		t.Fatalf("expected invalid form")
	}
	if !form.IsSubmitted {
		t.Fatalf("expected submitted flag")
	}
	if len(form.Errors) == 0 {
		t.Fatalf("expected form-level errors")
	}
	statusErrs := form.Field("status").Errors
	if len(statusErrs) != 1 || statusErrs[0].Message != "Select a status" {
		t.Fatalf("expected custom required message on status, got %v", statusErrs)
	}
	// the rest of the input survives for redisplay
	if form.Field("notes").Value != "no status chosen" {
		t.Fatalf("notes lost: %v", form.Field("notes").Value)
	}
}

func TestHandleRequest_NeverMutatesTemplate(t *testing.T) {
	template := testForm(t)
	if _, err := HandleRequest(template, Request{Body: url.Values{"status": {"x"}}}); err != nil {
		t.Fatalf("handle request: %v", err)
	}
	if template.IsSubmitted || template.IsValid {
		t.Fatalf("template flags mutated")
	}
	for _, fld := range template.Fields {
		if fld.Value != nil {
			t.Fatalf("template field %q gained a value: %v", fld.Name, fld.Value)
		}
		if len(fld.Errors) != 0 {
			t.Fatalf("template field %q gained errors", fld.Name)
		}
	}
}

func TestHandleRequest_GETReadsQueryNotBody(t *testing.T) {
	form, err := New("/search", "GET", TextField("q", "Query"))
	if err != nil {
		t.Fatalf("build form: %v", err)
	}
	out, err := HandleRequest(form, Request{
		Body:  url.Values{"q": {"from-body"}},
		Query: url.Values{"q": {"from-query"}},
	})
	if err != nil {
		t.Fatalf("handle request: %v", err)
	}
	if out.Field("q").Value != "from-query" {
		t.Fatalf("GET form read the wrong payload source: %v", out.Field("q").Value)
	}
}

func TestNew_RejectsDuplicateFieldNames(t *testing.T) {
	if _, err := New("/x", "POST", TextField("a", ""), TextField("a", "")); err == nil {
		t.Fatalf("expected duplicate-name error")
	}
}

func TestSetValues_ReturnsIndependentCopy(t *testing.T) {
	template := testForm(t)
	filled := template.SetValues(map[string]any{"notes": "draft"})
	if filled.Field("notes").Value != "draft" {
		t.Fatalf("value not set")
	}
	if template.Field("notes").Value != nil {
		t.Fatalf("SetValues mutated the receiver")
	}
}
