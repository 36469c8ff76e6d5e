package orchestrator

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"formautofill/models"
	"formautofill/pkg/openai"
)

type fakeClient struct {
	plan  models.FillPlan
	err   error
	calls int

	lastReq openai.PlanRequest
}

func (f *fakeClient) CreatePlan(ctx context.Context, req openai.PlanRequest) (models.FillPlan, error) {
	f.calls++
	f.lastReq = req
	return f.plan, f.err
}

func (f *fakeClient) Model() string { return "fake-model" }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func emailSchema() models.FormSchema {
	return models.FormSchema{
		FormID: "f1",
		Fields: []models.FieldDescriptor{{ID: "email1", Type: models.FieldTypeEmail}},
	}
}

func hasNotes(t *testing.T, p models.FillPlan, want ...string) {
	t.Helper()
	seen := map[string]bool{}
	for _, n := range p.Notes {
		seen[n] = true
	}
	for _, w := range want {
		if !seen[w] {
			t.Errorf("notes %v missing %q", p.Notes, w)
		}
	}
}

func TestMakePlanDisabled(t *testing.T) {
	settings := models.DefaultSettings()
	settings.OpenAI.Enabled = false

	client := &fakeClient{}
	o := &Orchestrator{Settings: settings, Client: client, Logger: quietLogger()}

	p := o.MakePlan(context.Background(), Request{Schema: emailSchema()})
	hasNotes(t, p, "source=placeholder", "reason=openaiDisabled")
	if len(p.Items) != 1 || p.Items[0].Value.String() != "example@example.com" {
		t.Errorf("expected placeholder email item, got %+v", p.Items)
	}
	if client.calls != 0 {
		t.Errorf("client called %d times while disabled, want 0", client.calls)
	}
}

func TestMakePlanMissingCredentials(t *testing.T) {
	settings := models.DefaultSettings()
	settings.OpenAI.Enabled = true

	o := New(settings, quietLogger())
	if o.Client != nil {
		t.Fatal("client constructed without credentials")
	}

	p := o.MakePlan(context.Background(), Request{Schema: emailSchema()})
	hasNotes(t, p, "source=placeholder", "reason=missingCredentials")
}

func TestMakePlanInferenceSuccess(t *testing.T) {
	settings := models.DefaultSettings()
	settings.OpenAI.Enabled = true
	settings.OpenAI.APIKey = "sk-test"
	settings.OpenAI.Model = "fake-model"
	settings.Locale = "ja-JP"

	client := &fakeClient{plan: models.FillPlan{
		FormID: "f1",
		Items: []models.FillItem{{
			FieldID:    "email1",
			Meaning:    models.MeaningEmail,
			Value:      models.StringValue("taro@example.co.jp"),
			Confidence: 0.92,
		}},
	}}
	o := &Orchestrator{
		Settings: settings,
		Client:   client,
		Retry:    openai.RetryPolicy{Attempts: 1},
		Logger:   quietLogger(),
	}

	p := o.MakePlan(context.Background(), Request{Schema: emailSchema()})
	hasNotes(t, p, "source=openai", "model=fake-model")
	if len(p.Items) != 1 || p.Items[0].Value.String() != "taro@example.co.jp" {
		t.Errorf("inference plan not passed through: %+v", p.Items)
	}
	if client.lastReq.RequestID == "" {
		t.Error("request id not assigned")
	}
	if client.lastReq.Locale != "ja-JP" {
		t.Errorf("locale = %q, want ja-JP from settings", client.lastReq.Locale)
	}
}

func TestMakePlanRequestLocaleOverridesSettings(t *testing.T) {
	settings := models.DefaultSettings()
	settings.OpenAI.Enabled = true
	settings.OpenAI.APIKey = "sk-test"
	settings.OpenAI.Model = "fake-model"
	settings.Locale = "ja-JP"

	client := &fakeClient{plan: models.FillPlan{FormID: "f1"}}
	o := &Orchestrator{
		Settings: settings,
		Client:   client,
		Retry:    openai.RetryPolicy{Attempts: 1},
		Logger:   quietLogger(),
	}

	o.MakePlan(context.Background(), Request{Schema: emailSchema(), Locale: "en-US"})
	if client.lastReq.Locale != "en-US" {
		t.Errorf("locale = %q, want en-US override", client.lastReq.Locale)
	}
}

func TestMakePlanFallsBackOnError(t *testing.T) {
	settings := models.DefaultSettings()
	settings.OpenAI.Enabled = true
	settings.OpenAI.APIKey = "sk-test"
	settings.OpenAI.Model = "fake-model"

	client := &fakeClient{err: fmt.Errorf("provider down")}
	o := &Orchestrator{
		Settings: settings,
		Client:   client,
		Retry:    openai.RetryPolicy{Attempts: 3, InitialDelay: time.Microsecond},
		Logger:   quietLogger(),
	}

	p := o.MakePlan(context.Background(), Request{Schema: emailSchema()})
	hasNotes(t, p, "source=placeholder", "reason=openaiError")
	if client.calls != 3 {
		t.Errorf("client called %d times, want 3 retry attempts", client.calls)
	}
	if len(p.Items) != 1 || p.Items[0].Confidence != 0.5 {
		t.Errorf("expected placeholder items, got %+v", p.Items)
	}
}

func TestMakePlanFiltersProfile(t *testing.T) {
	settings := models.DefaultSettings()
	settings.OpenAI.Enabled = true
	settings.OpenAI.APIKey = "sk-test"
	settings.OpenAI.Model = "fake-model"
	settings.Privacy.AllowedProfileFields = []string{"person"}

	client := &fakeClient{plan: models.FillPlan{FormID: "f1"}}
	o := &Orchestrator{
		Settings: settings,
		Client:   client,
		Retry:    openai.RetryPolicy{Attempts: 1},
		Logger:   quietLogger(),
	}

	profile := &models.UserProfile{
		Person:  &models.PersonProfile{Email: "taro@example.co.jp"},
		Company: &models.CompanyProfile{Name: "Example KK"},
	}
	o.MakePlan(context.Background(), Request{Schema: emailSchema(), Profile: profile})

	sent := client.lastReq.Profile
	if sent == nil || sent.Person == nil {
		t.Fatal("person section missing from filtered profile")
	}
	if sent.Company != nil {
		t.Error("company section leaked through privacy filter")
	}
}
