// Package schema extracts a structural description of every input-capable
// control on a page. The result is independent of field meaning; meanings are
// assigned later by the planner.
package schema

import (
	"bufio"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"formautofill/models"
)

const (
	controlSelector   = "input, textarea, select"
	containerSelector = "fieldset, .form-group, form"
	contextTextLimit  = 300
)

// Extract enumerates all <form> elements in the document and builds one
// FormSchema per form. When the page has no <form> element at all, every
// matching control directly under the document is collected into a single
// virtual form. Extraction never fails; a page with zero controls yields an
// empty slice and the caller performs no inference request.
func Extract(doc *goquery.Document) []models.FormSchema {
	var forms []models.FormSchema

	doc.Find("form").Each(func(i int, f *goquery.Selection) {
		formID, _ := f.Attr("id")
		if formID == "" {
			formID = "form-" + strconv.Itoa(len(forms)+1)
		}
		action, _ := f.Attr("action")
		method, _ := f.Attr("method")

		var fields []models.FieldDescriptor
		f.Find(controlSelector).Each(func(j int, el *goquery.Selection) {
			fields = append(fields, extractField(doc, el))
		})

		forms = append(forms, models.FormSchema{
			FormID: formID,
			Action: action,
			Method: strings.ToLower(method),
			Fields: fields,
		})
	})

	if len(forms) == 0 {
		var fields []models.FieldDescriptor
		doc.Find(controlSelector).Each(func(j int, el *goquery.Selection) {
			fields = append(fields, extractField(doc, el))
		})
		if len(fields) > 0 {
			forms = append(forms, models.FormSchema{
				FormID: models.VirtualFormID,
				Fields: fields,
			})
		}
	}

	return forms
}

// extractField derives a FieldDescriptor from a single control. Controls that
// cannot be classified default to type "text"; nothing here returns an error.
func extractField(doc *goquery.Document, el *goquery.Selection) models.FieldDescriptor {
	id, _ := el.Attr("id")
	name, _ := el.Attr("name")
	placeholder, _ := el.Attr("placeholder")
	ariaLabel, _ := el.Attr("aria-label")
	role, _ := el.Attr("role")
	pattern, _ := el.Attr("pattern")

	var labelText string
	if id != "" {
		labelText = normalizeText(doc.Find(`label[for="` + escapeAttr(id) + `"]`).Text())
	}

	maxLength := 0
	if raw, ok := el.Attr("maxlength"); ok {
		if n, err := strconv.Atoi(raw); err == nil {
			maxLength = n
		}
	}

	fieldType := inferType(el)
	selector := CSSPath(el)
	fieldID := id
	if fieldID == "" {
		fieldID = name
	}
	if fieldID == "" {
		fieldID = selector
	}

	// Component libraries often hide the real checkbox/select and delegate
	// interaction to a sibling carrying an ARIA role. Fill operations must
	// target that sibling to trigger the host application's own state
	// updates, so its id replaces the field's identifier.
	if proxyID, ok := ariaProxyID(el, fieldType); ok {
		fieldID = proxyID
		selector = "#" + proxyID
	}

	var contextTexts []string
	container := el.Closest(containerSelector)
	if container.Length() == 0 {
		container = el.Parent()
	}
	if container.Length() > 0 {
		if text := normalizeText(container.Text()); text != "" {
			contextTexts = append(contextTexts, truncate(text, contextTextLimit))
		}
	}

	return models.FieldDescriptor{
		ID:           fieldID,
		Name:         name,
		LabelText:    labelText,
		Placeholder:  placeholder,
		AriaLabel:    ariaLabel,
		Role:         role,
		Type:         fieldType,
		Required:     hasAttr(el, "required"),
		MaxLength:    maxLength,
		Pattern:      pattern,
		Selector:     selector,
		ContextTexts: contextTexts,
	}
}

// inferType maps the native type attribute to the closed FieldType set, with
// tag-based overrides for select and textarea.
func inferType(el *goquery.Selection) models.FieldType {
	switch goquery.NodeName(el) {
	case "select":
		return models.FieldTypeSelect
	case "textarea":
		return models.FieldTypeTextarea
	}

	t, _ := el.Attr("type")
	switch strings.ToLower(t) {
	case "radio":
		return models.FieldTypeRadio
	case "checkbox":
		return models.FieldTypeCheckbox
	case "password":
		return models.FieldTypePassword
	case "email":
		return models.FieldTypeEmail
	case "tel":
		return models.FieldTypeTel
	case "number":
		return models.FieldTypeNumber
	case "date":
		return models.FieldTypeDate
	case "datetime-local":
		return models.FieldTypeDatetimeLocal
	case "url":
		return models.FieldTypeURL
	case "hidden":
		return models.FieldTypeHidden
	default:
		return models.FieldTypeText
	}
}

// ariaProxyID looks for a visible sibling proxy of a hidden native control:
// role="checkbox" for checkboxes, role="combobox" for selects, within the
// nearest layout container. Returns the proxy's id when present.
func ariaProxyID(el *goquery.Selection, fieldType models.FieldType) (string, bool) {
	var roleSel string
	switch fieldType {
	case models.FieldTypeCheckbox:
		roleSel = `[role="checkbox"]`
	case models.FieldTypeSelect:
		roleSel = `[role="combobox"]`
	default:
		return "", false
	}

	if !isVisuallyHidden(el) {
		return "", false
	}

	container := el.Parent()
	if container.Length() == 0 {
		return "", false
	}
	proxy := container.Find(roleSel).First()
	if proxy.Length() == 0 {
		return "", false
	}
	id, ok := proxy.Attr("id")
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

// isVisuallyHidden approximates the checks a browser would make for controls
// rendered invisible by a component library.
func isVisuallyHidden(el *goquery.Selection) bool {
	if hasAttr(el, "hidden") {
		return true
	}
	if v, _ := el.Attr("aria-hidden"); v == "true" {
		return true
	}
	if style, ok := el.Attr("style"); ok {
		compact := strings.ReplaceAll(strings.ToLower(style), " ", "")
		if strings.Contains(compact, "display:none") || strings.Contains(compact, "visibility:hidden") {
			return true
		}
	}
	if class, ok := el.Attr("class"); ok {
		for _, c := range strings.Fields(class) {
			if c == "sr-only" || c == "visually-hidden" || c == "hidden" {
				return true
			}
		}
	}
	return false
}

// CSSPath builds a selector guaranteed to resolve back to this element within
// the same render: id-based, else name-based, else bare tag.
func CSSPath(el *goquery.Selection) string {
	tag := goquery.NodeName(el)
	if id, ok := el.Attr("id"); ok && id != "" {
		if isPlainIdent(id) {
			return "#" + id
		}
		return tag + `[id="` + escapeAttr(id) + `"]`
	}
	if name, ok := el.Attr("name"); ok && name != "" {
		return tag + `[name="` + escapeAttr(name) + `"]`
	}
	return tag
}

func hasAttr(el *goquery.Selection, name string) bool {
	_, ok := el.Attr(name)
	return ok
}

func isPlainIdent(s string) bool {
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return s != ""
}

func escapeAttr(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}

// normalizeText collapses whitespace runs to single spaces.
func normalizeText(input string) string {
	var b strings.Builder
	b.Grow(len(input))
	scanner := bufio.NewScanner(strings.NewReader(input))
	for scanner.Scan() {
		for _, word := range strings.Fields(scanner.Text()) {
			b.WriteString(word)
			b.WriteString(" ")
		}
	}
	return strings.TrimSpace(b.String())
}

// truncate cuts to at most limit characters, never splitting a rune.
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
