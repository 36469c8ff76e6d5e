package openai

import (
	"encoding/json"
	"strings"

	"formautofill/models"
)

// systemPrompt states the persona, the output-shape constraint, the
// sensitive-field policy, and how hints and locale are to be used.
const systemPrompt = `You are a form-filling automation agent.
Respond only with JSON conforming to the given schema. Output no prose.
Sensitive fields (password, card_*) must have sensitive: true and always requiresConfirmation: true.
When a known domain-mapping rule covers a selector, prefer its meaning over your own inference.
Infer each field's meaning from its label and surrounding context, and state your confidence in [0,1].
Output only these keys: { formId: string, items: { fieldId, meaning, value, confidence, requiresConfirmation, sensitive }[], notes?: string[] }`

// userPayload is the request body the model sees. Hints and profile are
// explicit nulls when absent so the model never guesses at missing keys.
type userPayload struct {
	Locale  string                `json:"locale"`
	Schema  models.FormSchema     `json:"schema"`
	Hints   *models.DomainMapping `json:"hints"`
	Profile *models.UserProfile   `json:"profile"`
}

func buildMessages(req PlanRequest) ([]chatMessage, error) {
	payload := userPayload{
		Locale:  req.Locale,
		Schema:  req.Schema,
		Hints:   req.Mapping,
		Profile: req.Profile,
	}
	user, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return []chatMessage{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: strings.TrimSpace(string(user))},
	}, nil
}
