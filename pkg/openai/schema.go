package openai

// fillPlanResponseFormat builds the strict json_schema response format: the
// provider must answer with an object shaped exactly as a FillPlan.
func fillPlanResponseFormat() map[string]interface{} {
	itemSchema := map[string]interface{}{
		"type":     "object",
		"required": []string{"fieldId", "meaning", "value", "confidence", "requiresConfirmation", "sensitive"},
		"properties": map[string]interface{}{
			"fieldId": map[string]interface{}{"type": "string"},
			"meaning": map[string]interface{}{"type": "string"},
			"value": map[string]interface{}{
				"oneOf": []interface{}{
					map[string]interface{}{"type": "string"},
					map[string]interface{}{"type": "boolean"},
				},
			},
			"confidence": map[string]interface{}{
				"type":    "number",
				"minimum": 0,
				"maximum": 1,
			},
			"requiresConfirmation": map[string]interface{}{"type": "boolean"},
			"sensitive":            map[string]interface{}{"type": "boolean"},
		},
		"additionalProperties": false,
	}

	planSchema := map[string]interface{}{
		"type":     "object",
		"required": []string{"formId", "items"},
		"properties": map[string]interface{}{
			"formId": map[string]interface{}{"type": "string"},
			"items": map[string]interface{}{
				"type":  "array",
				"items": itemSchema,
			},
			"notes": map[string]interface{}{
				"type":  "array",
				"items": map[string]interface{}{"type": "string"},
			},
		},
		"additionalProperties": false,
	}

	return map[string]interface{}{
		"type": "json_schema",
		"json_schema": map[string]interface{}{
			"name":   "fill_plan",
			"strict": true,
			"schema": planSchema,
		},
	}
}

// relaxedResponseFormat is the fallback when a provider rejects strict
// schemas: plain JSON mode, still subject to plan validation.
func relaxedResponseFormat() map[string]interface{} {
	return map[string]interface{}{"type": "json_object"}
}
