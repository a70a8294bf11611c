// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package config

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/cot-engine/pkg/types"
)

func newViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	BindEnv(v)
	return v
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(newViper())
	require.NoError(t, err)
	assert.Equal(t, Defaults, cfg)
	assert.NoError(t, Validate(Defaults))
}

func TestLoad_File(t *testing.T) {
	v := newViper()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader(`
backend:
  base_url: http://gpu-box:11434
  model: mistral
  max_retries: 2
pipeline:
  concurrency: 4
  stage_timeout: 90s
  failure_policy: continue
extraction:
  backend: plaintext
`)))

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "http://gpu-box:11434", cfg.Backend.BaseURL)
	assert.Equal(t, "mistral", cfg.Backend.Model)
	assert.Equal(t, 2, cfg.Backend.MaxRetries)
	assert.Equal(t, 4, cfg.Pipeline.Concurrency)
	assert.Equal(t, 90*time.Second, cfg.Pipeline.StageTimeout)
	assert.Equal(t, types.FailureContinue, cfg.Pipeline.FailurePolicy)
	assert.Equal(t, types.ExtractPlainText, cfg.Extraction.Backend)
	// Untouched keys keep their defaults.
	assert.Equal(t, 2000, cfg.Pipeline.MaxContextLength)
	assert.Equal(t, ":8000", cfg.Server.Addr)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("COT_ENGINE_BACKEND_MODEL", "llama3")
	t.Setenv("COT_ENGINE_PIPELINE_MAX_CONTEXT_LENGTH", "500")
	t.Setenv("COT_ENGINE_LOG_LEVEL", "debug")

	cfg, err := Load(newViper())
	require.NoError(t, err)
	assert.Equal(t, "llama3", cfg.Backend.Model)
	assert.Equal(t, 500, cfg.Pipeline.MaxContextLength)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*types.Config)
		wantKey string
	}{
		{"bad url", func(c *types.Config) { c.Backend.BaseURL = "not a url" }, "backend.base_url"},
		{"empty model", func(c *types.Config) { c.Backend.Model = "" }, "backend.model"},
		{"zero concurrency", func(c *types.Config) { c.Pipeline.Concurrency = 0 }, "pipeline.concurrency"},
		{"unknown policy", func(c *types.Config) { c.Pipeline.FailurePolicy = "retry" }, "pipeline.failure_policy"},
		{"negative timeout", func(c *types.Config) { c.Pipeline.StageTimeout = -time.Second }, "pipeline.stage_timeout"},
		{"unknown extractor", func(c *types.Config) { c.Extraction.Backend = "grobid" }, "extraction.backend"},
		{"bad log level", func(c *types.Config) { c.Log.Level = "trace" }, "log.level"},
		{"too many retries", func(c *types.Config) { c.Backend.MaxRetries = 50 }, "backend.max_retries"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults
			tt.mutate(&cfg)
			err := Validate(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantKey)
		})
	}
}

func TestValidate_ReportsAllViolations(t *testing.T) {
	cfg := Defaults
	cfg.Backend.Model = ""
	cfg.Server.Addr = ""

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backend.model")
	assert.Contains(t, err.Error(), "server.addr")
}
