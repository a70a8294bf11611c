// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the cot-engine CLI.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/cot-engine/internal/config"
	"github.com/pdiddy/cot-engine/internal/generate"
	"github.com/pdiddy/cot-engine/internal/logging"
	"github.com/pdiddy/cot-engine/internal/retry"
	"github.com/pdiddy/cot-engine/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// cfg is the merged configuration, loaded before any subcommand runs.
	cfg types.Config
	log *zap.SugaredLogger
)

// rootCmd is the base command for the cot-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "cot-engine",
	Short: "Question generation with chain-of-thought answers over a local model",
	Long: `cot-engine reads a document, asks a locally hosted model for questions
about it, and answers each question in three stages: chain-of-thought
reasoning, a reflection that reviews that reasoning, and a final answer
drawn from the reflection.

The model is served by an Ollama-compatible backend. Use "process" for a
single document, "serve" to expose the pipeline over HTTP, and "models" to
list what the backend has installed.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := bindFlags(cmd.Flags()); err != nil {
			return err
		}
		c, err := config.Load(viper.GetViper())
		if err != nil {
			return err
		}
		l, err := logging.New(c.Log)
		if err != nil {
			return err
		}
		cfg, log = c, l
		if used := viper.ConfigFileUsed(); used != "" {
			log.Debugw("using config file", "path", used)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./cot-engine.yaml or ~/.config/cot-engine/cot-engine.yaml)")
	pf.String("backend-url", "", "generation backend URL (default http://localhost:11434)")
	pf.String("model", "", "model identifier (default llama2:13b-chat)")
	pf.String("log-level", "", "log level: debug, info, warn or error")
	pf.String("log-format", "", "log format: console or json")
}

// flagKeys maps command-line flags to the config keys they override. Flags
// are bound when a command runs, so subcommands may share a flag name.
var flagKeys = map[string]string{
	"backend-url":    "backend.base_url",
	"model":          "backend.model",
	"log-level":      "log.level",
	"log-format":     "log.format",
	"max-questions":  "pipeline.max_questions",
	"concurrency":    "pipeline.concurrency",
	"max-context":    "pipeline.max_context_length",
	"stage-timeout":  "pipeline.stage_timeout",
	"failure-policy": "pipeline.failure_policy",
	"addr":           "server.addr",
	"extractor":      "extraction.backend",
}

// bindFlags lets every explicitly set flag of the running command override
// its config key.
func bindFlags(fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := viper.BindPFlag(key, f); err != nil {
			return fmt.Errorf("binding flag --%s: %w", name, err)
		}
	}
	return nil
}

func initConfig() {
	config.SetDefaults(viper.GetViper())

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("cot-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "cot-engine"))
		}
	}

	config.BindEnv(viper.GetViper())

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			fmt.Fprintln(os.Stderr, "Error reading config file:", err)
			os.Exit(1)
		}
	}
}

// newGenerator builds the backend client and wraps it in the configured
// retry policy.
func newGenerator() (*generate.Client, retry.Generator) {
	client := generate.NewClient(cfg.Backend, generate.WithLogger(log))
	return client, retry.Wrap(client, cfg.Backend.MaxRetries, cfg.Backend.RetryBaseDelay, log)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
