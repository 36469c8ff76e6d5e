package models

import (
	"encoding/json"
	"fmt"
)

// Meaning is the semantic classification assigned to a field.
type Meaning string

const (
	MeaningFullName        Meaning = "full_name"
	MeaningFamilyName      Meaning = "family_name"
	MeaningGivenName       Meaning = "given_name"
	MeaningEmail           Meaning = "email"
	MeaningTel             Meaning = "tel"
	MeaningCompany         Meaning = "company"
	MeaningDepartment      Meaning = "department"
	MeaningTitle           Meaning = "title"
	MeaningPostalCode      Meaning = "postal_code"
	MeaningAddressRegion   Meaning = "address_region"
	MeaningAddressLocality Meaning = "address_locality"
	MeaningAddressStreet   Meaning = "address_street"
	MeaningAddressBuilding Meaning = "address_building"
	MeaningURL             Meaning = "url"
	MeaningNote            Meaning = "note"
	MeaningUsername        Meaning = "username"
	MeaningPassword        Meaning = "password"
	MeaningPasswordConfirm Meaning = "password_confirm"
	MeaningCardNumber      Meaning = "card_number"
	MeaningCardHolder      Meaning = "card_holder"
	MeaningCardExp         Meaning = "card_exp"
	MeaningCardCVV         Meaning = "card_cvv"
	MeaningUnknown         Meaning = "unknown"
)

// FieldValue is a fill value that is either a string or a boolean on the
// wire, matching the provider contract (value: string | boolean).
type FieldValue struct {
	Str    string
	Bool   bool
	IsBool bool
}

// StringValue wraps a string fill value.
func StringValue(s string) FieldValue { return FieldValue{Str: s} }

// BoolValue wraps a boolean fill value.
func BoolValue(b bool) FieldValue { return FieldValue{Bool: b, IsBool: true} }

// String renders the value the way the applier compares it: booleans as
// "true"/"false", strings as-is.
func (v FieldValue) String() string {
	if v.IsBool {
		if v.Bool {
			return "true"
		}
		return "false"
	}
	return v.Str
}

func (v FieldValue) MarshalJSON() ([]byte, error) {
	if v.IsBool {
		return json.Marshal(v.Bool)
	}
	return json.Marshal(v.Str)
}

func (v *FieldValue) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*v = BoolValue(b)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*v = StringValue(s)
		return nil
	}
	return fmt.Errorf("value must be a string or a boolean, got %s", string(data))
}

func (v FieldValue) MarshalYAML() (interface{}, error) {
	if v.IsBool {
		return v.Bool, nil
	}
	return v.Str, nil
}

// FillItem is one proposed assignment from a plan to a concrete field.
type FillItem struct {
	// FieldID echoes a FieldDescriptor identifier, preferably its selector.
	FieldID    string     `json:"fieldId" yaml:"fieldId"`
	Meaning    Meaning    `json:"meaning" yaml:"meaning"`
	Value      FieldValue `json:"value" yaml:"value"`
	Confidence float64    `json:"confidence" yaml:"confidence"`

	// RequiresConfirmation and Sensitive items are never applied
	// automatically. Password and payment-card fields must carry both.
	RequiresConfirmation bool `json:"requiresConfirmation" yaml:"requiresConfirmation"`
	Sensitive            bool `json:"sensitive" yaml:"sensitive"`
}

// FillPlan is the set of proposed assignments for one form, plus provenance
// notes such as "source=openai" or "reason=openaiError".
type FillPlan struct {
	FormID string     `json:"formId" yaml:"formId"`
	Items  []FillItem `json:"items" yaml:"items"`
	Notes  []string   `json:"notes,omitempty" yaml:"notes,omitempty"`
}
