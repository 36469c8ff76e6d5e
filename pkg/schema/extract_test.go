package schema

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"formautofill/models"
)

func parseDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("failed to parse test HTML: %v", err)
	}
	return doc
}

func TestExtractFormIDs(t *testing.T) {
	tests := []struct {
		name    string
		html    string
		wantIDs []string
	}{
		{
			name:    "explicit id",
			html:    `<form id="signup"><input name="a"></form>`,
			wantIDs: []string{"signup"},
		},
		{
			name:    "synthesized ids",
			html:    `<form><input name="a"></form><form><input name="b"></form>`,
			wantIDs: []string{"form-1", "form-2"},
		},
		{
			name:    "virtual form without form tag",
			html:    `<div><input name="a"><select name="b"></select></div>`,
			wantIDs: []string{"virtual-form-1"},
		},
		{
			name:    "no controls at all",
			html:    `<div><p>nothing here</p></div>`,
			wantIDs: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schemas := Extract(parseDoc(t, tt.html))
			if len(schemas) != len(tt.wantIDs) {
				t.Fatalf("got %d schemas, want %d", len(schemas), len(tt.wantIDs))
			}
			for i, want := range tt.wantIDs {
				if schemas[i].FormID != want {
					t.Errorf("schema %d formId = %q, want %q", i, schemas[i].FormID, want)
				}
			}
		})
	}
}

func TestExtractFieldTypes(t *testing.T) {
	tests := []struct {
		name string
		html string
		want models.FieldType
	}{
		{"email input", `<form><input type="email" name="f"></form>`, models.FieldTypeEmail},
		{"tel input", `<form><input type="tel" name="f"></form>`, models.FieldTypeTel},
		{"password input", `<form><input type="password" name="f"></form>`, models.FieldTypePassword},
		{"date input", `<form><input type="date" name="f"></form>`, models.FieldTypeDate},
		{"datetime-local input", `<form><input type="datetime-local" name="f"></form>`, models.FieldTypeDatetimeLocal},
		{"select tag", `<form><select name="f"></select></form>`, models.FieldTypeSelect},
		{"textarea tag", `<form><textarea name="f"></textarea></form>`, models.FieldTypeTextarea},
		{"hidden input", `<form><input type="hidden" name="f"></form>`, models.FieldTypeHidden},
		{"typeless input defaults to text", `<form><input name="f"></form>`, models.FieldTypeText},
		{"unknown type defaults to text", `<form><input type="range" name="f"></form>`, models.FieldTypeText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schemas := Extract(parseDoc(t, tt.html))
			if len(schemas) != 1 || len(schemas[0].Fields) != 1 {
				t.Fatalf("expected one form with one field, got %+v", schemas)
			}
			if got := schemas[0].Fields[0].Type; got != tt.want {
				t.Errorf("type = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractFieldDetails(t *testing.T) {
	html := `
	<form id="contact" action="/send" method="POST">
	  <fieldset>
	    <label for="email1">Work email</label>
	    <input type="email" id="email1" name="email" placeholder="you@company.com"
	           required maxlength="120" pattern=".+@.+" aria-label="email address">
	  </fieldset>
	</form>`

	schemas := Extract(parseDoc(t, html))
	if len(schemas) != 1 {
		t.Fatalf("expected one schema, got %d", len(schemas))
	}
	s := schemas[0]
	if s.Action != "/send" || s.Method != "post" {
		t.Errorf("action/method = %q/%q, want /send/post", s.Action, s.Method)
	}
	if len(s.Fields) != 1 {
		t.Fatalf("expected one field, got %d", len(s.Fields))
	}

	f := s.Fields[0]
	if f.ID != "email1" {
		t.Errorf("id = %q, want email1", f.ID)
	}
	if f.Name != "email" {
		t.Errorf("name = %q, want email", f.Name)
	}
	if f.LabelText != "Work email" {
		t.Errorf("labelText = %q, want Work email", f.LabelText)
	}
	if f.Placeholder != "you@company.com" {
		t.Errorf("placeholder = %q", f.Placeholder)
	}
	if f.AriaLabel != "email address" {
		t.Errorf("ariaLabel = %q", f.AriaLabel)
	}
	if !f.Required {
		t.Error("required = false, want true")
	}
	if f.MaxLength != 120 {
		t.Errorf("maxlength = %d, want 120", f.MaxLength)
	}
	if f.Pattern != ".+@.+" {
		t.Errorf("pattern = %q", f.Pattern)
	}
	if f.Selector != "#email1" {
		t.Errorf("selector = %q, want #email1", f.Selector)
	}
	if len(f.ContextTexts) == 0 || !strings.Contains(f.ContextTexts[0], "Work email") {
		t.Errorf("contextTexts = %v, want fieldset text", f.ContextTexts)
	}
}

func TestExtractIDFallbacks(t *testing.T) {
	tests := []struct {
		name         string
		html         string
		wantID       string
		wantSelector string
	}{
		{
			name:         "name fallback",
			html:         `<form><input name="city"></form>`,
			wantID:       "city",
			wantSelector: `input[name="city"]`,
		},
		{
			name:         "tag fallback",
			html:         `<form><textarea></textarea></form>`,
			wantID:       "textarea",
			wantSelector: "textarea",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schemas := Extract(parseDoc(t, tt.html))
			f := schemas[0].Fields[0]
			if f.ID != tt.wantID {
				t.Errorf("id = %q, want %q", f.ID, tt.wantID)
			}
			if f.Selector != tt.wantSelector {
				t.Errorf("selector = %q, want %q", f.Selector, tt.wantSelector)
			}
		})
	}
}

func TestExtractContextTruncation(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"ascii", strings.Repeat("lorem ipsum ", 60)},
		{"japanese", strings.Repeat("お名前を入力してください。", 60)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			html := `<form><fieldset><p>` + tt.text + `</p><input name="f"></fieldset></form>`
			schemas := Extract(parseDoc(t, html))
			f := schemas[0].Fields[0]
			if len(f.ContextTexts) != 1 {
				t.Fatalf("contextTexts = %v, want one snippet", f.ContextTexts)
			}
			snippet := f.ContextTexts[0]
			if got := utf8.RuneCountInString(snippet); got != 300 {
				t.Errorf("context snippet = %d characters, want 300", got)
			}
			if !utf8.ValidString(snippet) {
				t.Error("context snippet is not valid UTF-8")
			}
		})
	}
}

func TestExtractAriaProxySubstitution(t *testing.T) {
	html := `
	<form id="f">
	  <div class="checkbox-row">
	    <input type="checkbox" name="agree" class="sr-only">
	    <button id="agree-proxy" role="checkbox" aria-checked="false"></button>
	  </div>
	</form>`

	schemas := Extract(parseDoc(t, html))
	f := schemas[0].Fields[0]
	if f.ID != "agree-proxy" {
		t.Errorf("id = %q, want agree-proxy", f.ID)
	}
	if f.Selector != "#agree-proxy" {
		t.Errorf("selector = %q, want #agree-proxy", f.Selector)
	}
	if f.Type != models.FieldTypeCheckbox {
		t.Errorf("type = %q, want checkbox", f.Type)
	}
}

func TestExtractVisibleCheckboxKeepsOwnID(t *testing.T) {
	html := `
	<form id="f">
	  <div>
	    <input type="checkbox" id="agree" name="agree">
	    <button id="other" role="checkbox"></button>
	  </div>
	</form>`

	schemas := Extract(parseDoc(t, html))
	f := schemas[0].Fields[0]
	if f.ID != "agree" {
		t.Errorf("id = %q, want agree (control is not hidden)", f.ID)
	}
}
