// Package placeholder produces deterministic, network-free fill plans. It is
// the safety net behind the inference path: a pure function that never fails.
package placeholder

import (
	"time"

	"formautofill/models"
)

// SelectSentinel signals "let the applier pick the first non-empty option".
const SelectSentinel = ""

// BuildPlan maps a schema to safe, non-committal values. Password, hidden,
// radio and checkbox fields are left untouched: they are either sensitive or
// too risky to guess blindly. Every emitted item carries confidence 0.5,
// meaning "unknown", and no safety flags.
func BuildPlan(s models.FormSchema) models.FillPlan {
	return buildPlanAt(s, time.Now())
}

func buildPlanAt(s models.FormSchema, now time.Time) models.FillPlan {
	items := []models.FillItem{}
	for _, f := range s.Fields {
		value, ok := valueFor(f.Type, now)
		if !ok {
			continue
		}
		items = append(items, models.FillItem{
			FieldID:              f.ID,
			Meaning:              models.MeaningUnknown,
			Value:                models.StringValue(value),
			Confidence:           0.5,
			RequiresConfirmation: false,
			Sensitive:            false,
		})
	}
	return models.FillPlan{FormID: s.FormID, Items: items}
}

func valueFor(t models.FieldType, now time.Time) (string, bool) {
	switch t {
	case models.FieldTypeEmail:
		return "example@example.com", true
	case models.FieldTypeTel:
		return "09012345678", true
	case models.FieldTypeNumber:
		return "1", true
	case models.FieldTypeURL:
		return "https://example.com", true
	case models.FieldTypeDate:
		return now.Format("2006-01-02"), true
	case models.FieldTypeDatetimeLocal:
		return now.Format("2006-01-02T15:04"), true
	case models.FieldTypeSelect:
		return SelectSentinel, true
	case models.FieldTypeText, models.FieldTypeTextarea:
		return "DEMO", true
	default:
		// password, hidden, radio, checkbox
		return "", false
	}
}
