// Package models defines the shared data structures of the autofill pipeline:
// extracted form schemas, fill plans, domain mappings, and runtime settings.
package models

// FieldType is the closed set of control types the extractor emits.
// Anything it cannot classify degrades to FieldTypeText.
type FieldType string

const (
	FieldTypeText          FieldType = "text"
	FieldTypeEmail         FieldType = "email"
	FieldTypeTel           FieldType = "tel"
	FieldTypePassword      FieldType = "password"
	FieldTypeNumber        FieldType = "number"
	FieldTypeDate          FieldType = "date"
	FieldTypeDatetimeLocal FieldType = "datetime-local"
	FieldTypeURL           FieldType = "url"
	FieldTypeTextarea      FieldType = "textarea"
	FieldTypeSelect        FieldType = "select"
	FieldTypeRadio         FieldType = "radio"
	FieldTypeCheckbox      FieldType = "checkbox"
	FieldTypeHidden        FieldType = "hidden"
)

// FieldDescriptor describes one input-capable control on a page.
type FieldDescriptor struct {
	// ID prefers the DOM id, falls back to name, then a synthesized CSS path.
	ID          string    `json:"id" yaml:"id"`
	Name        string    `json:"name,omitempty" yaml:"name,omitempty"`
	LabelText   string    `json:"labelText,omitempty" yaml:"labelText,omitempty"`
	Placeholder string    `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	AriaLabel   string    `json:"ariaLabel,omitempty" yaml:"ariaLabel,omitempty"`
	Role        string    `json:"role,omitempty" yaml:"role,omitempty"`
	Type        FieldType `json:"type" yaml:"type"`
	Required    bool      `json:"required" yaml:"required"`
	MaxLength   int       `json:"maxlength,omitempty" yaml:"maxlength,omitempty"`
	Pattern     string    `json:"pattern,omitempty" yaml:"pattern,omitempty"`

	// Selector re-resolves to the same element within the same render of the
	// page. It is recomputed on every extraction, never cached across
	// page mutations.
	Selector string `json:"selector" yaml:"selector"`

	// ContextTexts holds nearby plain-text snippets from the nearest semantic
	// container, each truncated to 300 characters.
	ContextTexts []string `json:"contextTexts" yaml:"contextTexts"`
}

// FormSchema is one logical form. A page without a <form> element yields a
// single virtual form holding every control under the document.
type FormSchema struct {
	FormID string            `json:"formId" yaml:"formId"`
	Action string            `json:"action,omitempty" yaml:"action,omitempty"`
	Method string            `json:"method,omitempty" yaml:"method,omitempty"`
	Fields []FieldDescriptor `json:"fields" yaml:"fields"`
}

// VirtualFormID names the synthetic schema used when no <form> tag exists.
const VirtualFormID = "virtual-form-1"
