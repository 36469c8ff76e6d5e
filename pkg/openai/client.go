// Package openai talks to an OpenAI-compatible structured-output completion
// endpoint and turns responses into validated fill plans.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"formautofill/models"
	"formautofill/pkg/plan"
)

// Config carries everything needed to reach the provider.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	Timeout     time.Duration
}

// Client is a thin chat/completions client. It never returns an unvalidated
// plan: every response passes through the plan validator.
type Client struct {
	apiKey      string
	baseURL     string
	model       string
	temperature float64
	httpClient  *http.Client
	logger      *slog.Logger
}

// PlanRequest describes one inference invocation.
type PlanRequest struct {
	Schema  models.FormSchema
	Mapping *models.DomainMapping
	Profile *models.UserProfile
	Locale  string

	// RequestID correlates log lines across retries.
	RequestID string
}

// NewClient builds a client from provider config. A nil logger is replaced
// with the default slog logger.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &Client{
		apiKey:      cfg.APIKey,
		baseURL:     baseURL,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		httpClient:  &http.Client{Timeout: timeout},
		logger:      logger,
	}
}

// Model returns the configured model identifier.
func (c *Client) Model() string { return c.model }

// CreatePlan requests a fill plan for the schema. The first request uses the
// strict json_schema response mode; if the provider rejects the request
// specifically because of schema strictness, one relaxed json_object request
// follows. Any other failure propagates to the retry controller.
func (c *Client) CreatePlan(ctx context.Context, req PlanRequest) (models.FillPlan, error) {
	if c.apiKey == "" {
		return models.FillPlan{}, fmt.Errorf("API key not configured")
	}

	// Centralized timeout handling: apply the client timeout when the caller
	// supplied no deadline.
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.httpClient.Timeout)
		defer cancel()
	}

	messages, err := buildMessages(req)
	if err != nil {
		return models.FillPlan{}, fmt.Errorf("failed to build request: %w", err)
	}

	started := time.Now()
	c.logger.Info("openai request start",
		"request_id", req.RequestID,
		"model", c.model,
		"schema_fields", len(req.Schema.Fields),
		"locale", req.Locale)

	body, err := c.complete(ctx, chatRequest{
		Model:          c.model,
		Messages:       messages,
		Temperature:    c.temperature,
		ResponseFormat: fillPlanResponseFormat(),
	})
	if err != nil {
		if !isSchemaRejection(err) {
			return models.FillPlan{}, err
		}
		c.logger.Warn("openai rejected strict schema, retrying with json_object",
			"request_id", req.RequestID, "error", err)
		body, err = c.complete(ctx, chatRequest{
			Model:          c.model,
			Messages:       messages,
			Temperature:    c.temperature,
			ResponseFormat: relaxedResponseFormat(),
		})
		if err != nil {
			return models.FillPlan{}, err
		}
	}

	p, err := plan.FromCompletion(body)
	if err != nil {
		return models.FillPlan{}, fmt.Errorf("invalid fill plan from provider: %w", err)
	}

	c.logger.Info("openai request done",
		"request_id", req.RequestID,
		"elapsed_ms", time.Since(started).Milliseconds(),
		"items", len(p.Items))
	return p, nil
}

// statusError distinguishes schema-strictness rejections from everything
// else without string-matching at the call site.
type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("API request failed with status %d: %s", e.status, e.body)
}

func isSchemaRejection(err error) bool {
	se, ok := err.(*statusError)
	if !ok || se.status != http.StatusBadRequest {
		return false
	}
	return strings.Contains(se.body, "response_format") || strings.Contains(se.body, "json_schema")
}

func (c *Client) complete(ctx context.Context, reqBody chatRequest) ([]byte, error) {
	data, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &statusError{status: resp.StatusCode, body: strings.TrimSpace(string(body))}
	}
	return body, nil
}
