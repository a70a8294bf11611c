// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// BackendConfig holds settings for the generation backend client.
type BackendConfig struct {
	// BaseURL is the backend root URL (e.g. "http://localhost:11434").
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url" validate:"required,url"`

	// Model is the model identifier sent with every generation request.
	Model string `json:"model" yaml:"model" mapstructure:"model" validate:"required"`

	// ConnectTimeout bounds connection establishment. The stream itself is
	// bounded only by the caller's context.
	ConnectTimeout time.Duration `json:"connect_timeout" yaml:"connect_timeout" mapstructure:"connect_timeout" validate:"gte=0"`

	// RequestsPerSecond limits how often new generation requests are opened.
	// Zero means unlimited.
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second" mapstructure:"requests_per_second" validate:"gte=0"`

	// MaxRetries is the number of caller-side retries on backend failures
	// (default 0, no retries).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries" validate:"gte=0,lte=10"`

	// RetryBaseDelay is the first backoff delay; it doubles per attempt.
	RetryBaseDelay time.Duration `json:"retry_base_delay" yaml:"retry_base_delay" mapstructure:"retry_base_delay" validate:"gte=0"`
}

// FailurePolicy selects what a run does when one question's stages fail.
type FailurePolicy string

const (
	// FailureAbort fails the whole run with the first error.
	FailureAbort FailurePolicy = "abort"

	// FailureContinue records an error placeholder and keeps going.
	FailureContinue FailurePolicy = "continue"
)

// PipelineConfig holds settings for the orchestrator.
type PipelineConfig struct {
	// MaxContextLength is the truncation length in characters (default 2000).
	MaxContextLength int `json:"max_context_length" yaml:"max_context_length" mapstructure:"max_context_length" validate:"gt=0"`

	// MaxQuestions is the default number of questions requested (default 5).
	MaxQuestions int `json:"max_questions" yaml:"max_questions" mapstructure:"max_questions" validate:"gt=0"`

	// Concurrency bounds how many questions are processed at once (default 2).
	Concurrency int `json:"concurrency" yaml:"concurrency" mapstructure:"concurrency" validate:"gte=1,lte=64"`

	// StageTimeout bounds each stage call. Zero means no per-stage timeout.
	StageTimeout time.Duration `json:"stage_timeout" yaml:"stage_timeout" mapstructure:"stage_timeout" validate:"gte=0"`

	// FailurePolicy is abort (default) or continue.
	FailurePolicy FailurePolicy `json:"failure_policy" yaml:"failure_policy" mapstructure:"failure_policy" validate:"oneof=abort continue"`
}

// ExtractionBackend identifies the text extraction tool.
type ExtractionBackend string

const (
	ExtractMarkitdown ExtractionBackend = "markitdown"
	ExtractPlainText  ExtractionBackend = "plaintext"
)

// ExtractionConfig holds settings for turning documents into plain text.
type ExtractionConfig struct {
	// Backend selects markitdown (container) or plaintext.
	Backend ExtractionBackend `json:"backend" yaml:"backend" mapstructure:"backend" validate:"oneof=markitdown plaintext"`

	// Image is the markitdown container image.
	Image string `json:"image" yaml:"image" mapstructure:"image"`
}

// ServerConfig holds settings for the HTTP surface.
type ServerConfig struct {
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr" validate:"required"`

	// MaxUploadBytes limits the size of an uploaded document.
	MaxUploadBytes int64 `json:"max_upload_bytes" yaml:"max_upload_bytes" mapstructure:"max_upload_bytes" validate:"gt=0"`

	// RequestTimeout bounds a whole request. Zero means none.
	RequestTimeout time.Duration `json:"request_timeout" yaml:"request_timeout" mapstructure:"request_timeout" validate:"gte=0"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `json:"level" yaml:"level" mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `json:"format" yaml:"format" mapstructure:"format" validate:"oneof=console json"`
}

// Config groups every section of the configuration file.
type Config struct {
	Backend    BackendConfig    `json:"backend" yaml:"backend" mapstructure:"backend"`
	Pipeline   PipelineConfig   `json:"pipeline" yaml:"pipeline" mapstructure:"pipeline"`
	Extraction ExtractionConfig `json:"extraction" yaml:"extraction" mapstructure:"extraction"`
	Server     ServerConfig     `json:"server" yaml:"server" mapstructure:"server"`
	Log        LogConfig        `json:"log" yaml:"log" mapstructure:"log"`
}
