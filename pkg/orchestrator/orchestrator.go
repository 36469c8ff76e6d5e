// Package orchestrator decides, per request, whether a fill plan comes from
// the inference provider or the deterministic placeholder planner, and stamps
// every outgoing plan with provenance notes. This is the only place that
// writes provenance; diagnosing field-filling regressions starts from these
// notes.
package orchestrator

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"formautofill/models"
	"formautofill/pkg/openai"
	"formautofill/pkg/placeholder"
)

// InferenceClient is the provider surface the orchestrator composes with the
// retry controller. *openai.Client satisfies it.
type InferenceClient interface {
	CreatePlan(ctx context.Context, req openai.PlanRequest) (models.FillPlan, error)
	Model() string
}

// Orchestrator owns the plan-or-fallback decision per invocation.
type Orchestrator struct {
	Settings models.AppSettings
	Client   InferenceClient
	Retry    openai.RetryPolicy
	Logger   *slog.Logger
}

// Request is one plan invocation for a single form schema.
type Request struct {
	Schema  models.FormSchema
	Mapping *models.DomainMapping
	Profile *models.UserProfile

	// Locale overrides the settings locale when non-empty (e.g. detected
	// from the page language).
	Locale string
}

// New wires an orchestrator from settings. The inference client is only
// constructed when credentials exist; without them every plan comes from the
// placeholder planner.
func New(settings models.AppSettings, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	o := &Orchestrator{
		Settings: settings,
		Logger:   logger,
		Retry: openai.RetryPolicy{
			Attempts:     settings.OpenAI.Retries,
			InitialDelay: settings.OpenAI.InitialDelay(),
			MaxDelay:     settings.OpenAI.MaxDelay(),
		},
	}
	if settings.OpenAI.APIKey != "" && settings.OpenAI.Model != "" {
		o.Client = openai.NewClient(openai.Config{
			APIKey:      settings.OpenAI.APIKey,
			BaseURL:     settings.OpenAI.BaseURL,
			Model:       settings.OpenAI.Model,
			Temperature: settings.OpenAI.Temperature,
			Timeout:     settings.OpenAI.Timeout(),
		}, logger)
	}
	return o
}

// MakePlan is terminal in a single FillPlan: it never fails. Inference
// errors, after bounded retries, degrade to the placeholder plan with the
// reason recorded in the notes.
func (o *Orchestrator) MakePlan(ctx context.Context, req Request) models.FillPlan {
	if !o.Settings.OpenAI.Enabled {
		p := placeholder.BuildPlan(req.Schema)
		p.Notes = append(p.Notes, "source=placeholder", "reason=openaiDisabled")
		return p
	}
	if o.Client == nil || o.Settings.OpenAI.APIKey == "" || o.Settings.OpenAI.Model == "" {
		p := placeholder.BuildPlan(req.Schema)
		p.Notes = append(p.Notes, "source=placeholder", "reason=missingCredentials")
		return p
	}

	locale := req.Locale
	if locale == "" {
		locale = o.Settings.Locale
	}

	planReq := openai.PlanRequest{
		Schema:    req.Schema,
		Mapping:   req.Mapping,
		Locale:    locale,
		RequestID: uuid.NewString(),
	}
	if req.Profile != nil {
		planReq.Profile = req.Profile.Allowed(o.Settings.Privacy.AllowedProfileFields)
	}

	p, err := o.Retry.Do(ctx, o.Logger, func(ctx context.Context) (models.FillPlan, error) {
		return o.Client.CreatePlan(ctx, planReq)
	})
	if err != nil {
		o.Logger.Warn("inference failed, falling back to placeholder plan",
			"request_id", planReq.RequestID,
			"form_id", req.Schema.FormID,
			"error", err)
		fallback := placeholder.BuildPlan(req.Schema)
		fallback.Notes = append(fallback.Notes, "source=placeholder", "reason=openaiError")
		return fallback
	}

	p.Notes = append(p.Notes, "source=openai", "model="+o.Client.Model())
	return p
}
