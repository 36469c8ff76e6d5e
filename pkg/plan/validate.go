// Package plan guards the trust boundary between the inference provider and
// the rest of the pipeline. Untrusted JSON becomes a typed FillPlan here or
// nowhere; a plan that failed validation must never reach the applier.
package plan

import (
	"encoding/json"
	"fmt"

	"formautofill/models"
)

// Validate structurally verifies that a decoded JSON value conforms to the
// FillPlan contract and converts it. Errors name the offending path.
func Validate(v interface{}) (models.FillPlan, error) {
	obj, ok := v.(map[string]interface{})
	if !ok {
		return models.FillPlan{}, fmt.Errorf("plan must be a JSON object, got %T", v)
	}

	formID, ok := obj["formId"].(string)
	if !ok {
		return models.FillPlan{}, fmt.Errorf("plan.formId must be a string")
	}

	rawItems, ok := obj["items"].([]interface{})
	if !ok {
		return models.FillPlan{}, fmt.Errorf("plan.items must be an array")
	}

	items := make([]models.FillItem, 0, len(rawItems))
	for i, raw := range rawItems {
		item, err := validateItem(raw)
		if err != nil {
			return models.FillPlan{}, fmt.Errorf("plan.items[%d]: %w", i, err)
		}
		items = append(items, item)
	}

	var notes []string
	if rawNotes, present := obj["notes"]; present && rawNotes != nil {
		arr, ok := rawNotes.([]interface{})
		if !ok {
			return models.FillPlan{}, fmt.Errorf("plan.notes must be an array of strings")
		}
		for i, n := range arr {
			s, ok := n.(string)
			if !ok {
				return models.FillPlan{}, fmt.Errorf("plan.notes[%d] must be a string", i)
			}
			notes = append(notes, s)
		}
	}

	return models.FillPlan{FormID: formID, Items: items, Notes: notes}, nil
}

func validateItem(v interface{}) (models.FillItem, error) {
	obj, ok := v.(map[string]interface{})
	if !ok {
		return models.FillItem{}, fmt.Errorf("must be an object, got %T", v)
	}

	fieldID, ok := obj["fieldId"].(string)
	if !ok {
		return models.FillItem{}, fmt.Errorf("fieldId must be a string")
	}
	meaning, ok := obj["meaning"].(string)
	if !ok {
		return models.FillItem{}, fmt.Errorf("meaning must be a string")
	}

	var value models.FieldValue
	switch val := obj["value"].(type) {
	case string:
		value = models.StringValue(val)
	case bool:
		value = models.BoolValue(val)
	default:
		return models.FillItem{}, fmt.Errorf("value must be a string or a boolean, got %T", obj["value"])
	}

	confidence, ok := obj["confidence"].(float64)
	if !ok {
		return models.FillItem{}, fmt.Errorf("confidence must be a number")
	}
	if confidence < 0 || confidence > 1 {
		return models.FillItem{}, fmt.Errorf("confidence %v out of range [0,1]", confidence)
	}

	requiresConfirmation, ok := obj["requiresConfirmation"].(bool)
	if !ok {
		return models.FillItem{}, fmt.Errorf("requiresConfirmation must be a boolean")
	}
	sensitive, ok := obj["sensitive"].(bool)
	if !ok {
		return models.FillItem{}, fmt.Errorf("sensitive must be a boolean")
	}

	return models.FillItem{
		FieldID:              fieldID,
		Meaning:              models.Meaning(meaning),
		Value:                value,
		Confidence:           confidence,
		RequiresConfirmation: requiresConfirmation,
		Sensitive:            sensitive,
	}, nil
}

// ValidateBytes decodes raw JSON and validates it as a FillPlan.
func ValidateBytes(data []byte) (models.FillPlan, error) {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return models.FillPlan{}, fmt.Errorf("plan is not valid JSON: %w", err)
	}
	return Validate(v)
}
