package models

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// OpenAISettings configures the inference provider. Enabled defaults to
// false: without an explicit opt-in the pipeline only ever produces
// placeholder plans.
type OpenAISettings struct {
	Enabled     bool    `yaml:"enabled"`
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`

	// TimeoutSeconds bounds a single inference attempt. Structured-output
	// completions can be slow, so the default is generous. Tunable, not a
	// contract.
	TimeoutSeconds int `yaml:"timeout_seconds"`

	Retries        int `yaml:"retries"`
	InitialDelayMs int `yaml:"initial_delay_ms"`
	MaxDelayMs     int `yaml:"max_delay_ms"`
}

// PrivacySettings limits what the inference request may carry.
type PrivacySettings struct {
	// AllowedProfileFields names the profile sections ("person", "company",
	// "address") permitted in outbound requests. Empty means none.
	AllowedProfileFields []string `yaml:"allowed_profile_fields"`
}

// AppSettings is the single persisted settings object.
type AppSettings struct {
	// Locale is sent with every inference request. The literal "auto" (or
	// empty) defers to language detection over the page text.
	Locale  string          `yaml:"locale"`
	OpenAI  OpenAISettings  `yaml:"openai"`
	Privacy PrivacySettings `yaml:"privacy"`
	Profile *UserProfile    `yaml:"profile"`
}

// DefaultSettings mirrors the shipped defaults: inference off, ja-JP locale,
// retry at 4 attempts from 500ms up to 16s.
func DefaultSettings() AppSettings {
	return AppSettings{
		Locale: "ja-JP",
		OpenAI: OpenAISettings{
			Enabled:        false,
			BaseURL:        "https://api.openai.com/v1",
			TimeoutSeconds: 60,
			Retries:        4,
			InitialDelayMs: 500,
			MaxDelayMs:     16000,
		},
	}
}

// LoadSettings reads the YAML settings file, overlaying defaults. A missing
// file is not an error; the defaults are returned. OPENAI_API_KEY fills the
// API key when the file leaves it empty.
func LoadSettings(path string) (AppSettings, error) {
	s := DefaultSettings()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			s.applyEnv()
			return s, nil
		}
		return s, fmt.Errorf("failed to read settings file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &s); err != nil {
		return DefaultSettings(), fmt.Errorf("failed to parse settings file %s: %w", path, err)
	}

	if s.Locale == "" {
		s.Locale = DefaultSettings().Locale
	}
	if s.OpenAI.BaseURL == "" {
		s.OpenAI.BaseURL = DefaultSettings().OpenAI.BaseURL
	}
	if s.OpenAI.TimeoutSeconds <= 0 {
		s.OpenAI.TimeoutSeconds = DefaultSettings().OpenAI.TimeoutSeconds
	}
	if s.OpenAI.Retries <= 0 {
		s.OpenAI.Retries = DefaultSettings().OpenAI.Retries
	}
	if s.OpenAI.InitialDelayMs <= 0 {
		s.OpenAI.InitialDelayMs = DefaultSettings().OpenAI.InitialDelayMs
	}
	if s.OpenAI.MaxDelayMs <= 0 {
		s.OpenAI.MaxDelayMs = DefaultSettings().OpenAI.MaxDelayMs
	}
	s.applyEnv()
	return s, nil
}

func (s *AppSettings) applyEnv() {
	if s.OpenAI.APIKey == "" {
		s.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	}
}

// Timeout returns the per-attempt inference deadline.
func (s *OpenAISettings) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// InitialDelay returns the first backoff delay.
func (s *OpenAISettings) InitialDelay() time.Duration {
	return time.Duration(s.InitialDelayMs) * time.Millisecond
}

// MaxDelay returns the backoff cap.
func (s *OpenAISettings) MaxDelay() time.Duration {
	return time.Duration(s.MaxDelayMs) * time.Millisecond
}
