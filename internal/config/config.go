// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package config loads types.Config from viper and validates it.
package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/pdiddy/cot-engine/pkg/types"
)

// EnvPrefix is the prefix of environment overrides, e.g.
// COT_ENGINE_BACKEND_BASE_URL for backend.base_url.
const EnvPrefix = "COT_ENGINE"

// Defaults is the configuration used when nothing overrides a key.
var Defaults = types.Config{
	Backend: types.BackendConfig{
		BaseURL:        "http://localhost:11434",
		Model:          "llama2:13b-chat",
		ConnectTimeout: 10 * time.Second,
		RetryBaseDelay: time.Second,
	},
	Pipeline: types.PipelineConfig{
		MaxContextLength: 2000,
		MaxQuestions:     5,
		Concurrency:      2,
		FailurePolicy:    types.FailureAbort,
	},
	Extraction: types.ExtractionConfig{
		Backend: types.ExtractMarkitdown,
		Image:   "markitdown:latest",
	},
	Server: types.ServerConfig{
		Addr:           ":8000",
		MaxUploadBytes: 32 << 20,
	},
	Log: types.LogConfig{
		Level:  "info",
		Format: "console",
	},
}

// SetDefaults registers every key of Defaults on v, so that environment
// variables resolve for keys absent from the config file.
func SetDefaults(v *viper.Viper) {
	d := Defaults
	v.SetDefault("backend.base_url", d.Backend.BaseURL)
	v.SetDefault("backend.model", d.Backend.Model)
	v.SetDefault("backend.connect_timeout", d.Backend.ConnectTimeout)
	v.SetDefault("backend.requests_per_second", d.Backend.RequestsPerSecond)
	v.SetDefault("backend.max_retries", d.Backend.MaxRetries)
	v.SetDefault("backend.retry_base_delay", d.Backend.RetryBaseDelay)

	v.SetDefault("pipeline.max_context_length", d.Pipeline.MaxContextLength)
	v.SetDefault("pipeline.max_questions", d.Pipeline.MaxQuestions)
	v.SetDefault("pipeline.concurrency", d.Pipeline.Concurrency)
	v.SetDefault("pipeline.stage_timeout", d.Pipeline.StageTimeout)
	v.SetDefault("pipeline.failure_policy", string(d.Pipeline.FailurePolicy))

	v.SetDefault("extraction.backend", string(d.Extraction.Backend))
	v.SetDefault("extraction.image", d.Extraction.Image)

	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.max_upload_bytes", d.Server.MaxUploadBytes)
	v.SetDefault("server.request_timeout", d.Server.RequestTimeout)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// BindEnv makes v read COT_ENGINE_* environment variables.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load unmarshals v into a Config and validates it.
func Load(v *viper.Viper) (types.Config, error) {
	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return types.Config{}, err
	}
	return cfg, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their config key rather than the Go field name.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}

// Validate checks cfg against the constraints on its fields. All violations
// are reported in one error, each naming the config key.
func Validate(cfg types.Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validating config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		key := fe.Namespace()
		if _, rest, ok := strings.Cut(key, "."); ok {
			key = rest
		}
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s=%s (got %v)", key, fe.Tag(), fe.Param(), fe.Value()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s (got %v)", key, fe.Tag(), fe.Value()))
		}
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}
