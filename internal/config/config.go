// Package config loads and validates process configuration. Configuration
// is read once at startup into a Config value and passed by reference;
// nothing reads the environment after Load returns.
package config

import (
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/akahusync/akahusync/pkg/errors"
)

// Defaults.
const (
	DefaultMappingFile = "akahu_budget_mapping.json"
	DefaultListenAddr  = ":5000"
)

// AkahuConfig holds the aggregator credentials. Akahu is always required:
// it is the source of truth for every run.
type AkahuConfig struct {
	BaseURL   string
	UserToken string
	AppToken  string
}

// ActualConfig holds the Actual Budget target settings.
type ActualConfig struct {
	Enabled   bool
	ServerURL string
	Password  string
	SyncID    string
}

// YNABConfig holds the YNAB target settings.
type YNABConfig struct {
	Enabled     bool
	BaseURL     string
	BearerToken string
	BudgetID    string
}

// GeminiConfig holds the optional disambiguation assistant settings. An
// empty APIKey disables the assistant.
type GeminiConfig struct {
	APIKey string
	Model  string
}

// Config is the validated process configuration.
type Config struct {
	Akahu  AkahuConfig
	Actual ActualConfig
	YNAB   YNABConfig
	Gemini GeminiConfig

	// MappingFile is the path of the persisted mapping document.
	MappingFile string
	// RulesFile is the optional matcher rules YAML.
	RulesFile string
	// ListenAddr is the serve-mode bind address.
	ListenAddr string
}

// Load reads configuration from a .env file (if present) and the
// environment, then validates it. Validation failures are fatal: the
// process must not run with partial credentials.
func Load() (*Config, error) {
	// Missing .env is fine; the environment may carry everything.
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("AKAHU_ENDPOINT", "")
	v.SetDefault("YNAB_ENDPOINT", "")
	v.SetDefault("RUN_SYNC_TO_AB", false)
	v.SetDefault("RUN_SYNC_TO_YNAB", false)
	v.SetDefault("GEMINI_MODEL", "")
	v.SetDefault("MAPPING_FILE", DefaultMappingFile)
	v.SetDefault("MATCH_RULES_FILE", "")
	v.SetDefault("LISTEN_ADDR", DefaultListenAddr)

	cfg := &Config{
		Akahu: AkahuConfig{
			BaseURL:   v.GetString("AKAHU_ENDPOINT"),
			UserToken: v.GetString("AKAHU_USER_TOKEN"),
			AppToken:  v.GetString("AKAHU_APP_TOKEN"),
		},
		Actual: ActualConfig{
			Enabled:   v.GetBool("RUN_SYNC_TO_AB"),
			ServerURL: v.GetString("ACTUAL_SERVER_URL"),
			Password:  v.GetString("ACTUAL_PASSWORD"),
			SyncID:    v.GetString("ACTUAL_SYNC_ID"),
		},
		YNAB: YNABConfig{
			Enabled:     v.GetBool("RUN_SYNC_TO_YNAB"),
			BaseURL:     v.GetString("YNAB_ENDPOINT"),
			BearerToken: v.GetString("YNAB_BEARER_TOKEN"),
			BudgetID:    v.GetString("YNAB_BUDGET_ID"),
		},
		Gemini: GeminiConfig{
			APIKey: v.GetString("GEMINI_API_KEY"),
			Model:  v.GetString("GEMINI_MODEL"),
		},
		MappingFile: v.GetString("MAPPING_FILE"),
		RulesFile:   v.GetString("MATCH_RULES_FILE"),
		ListenAddr:  v.GetString("LISTEN_ADDR"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration is complete enough to run.
func (c *Config) Validate() error {
	if c.Akahu.UserToken == "" {
		return errors.NewConfigError("akahu", "AKAHU_USER_TOKEN is required", nil)
	}
	if c.Akahu.AppToken == "" {
		return errors.NewConfigError("akahu", "AKAHU_APP_TOKEN is required", nil)
	}

	if !c.Actual.Enabled && !c.YNAB.Enabled {
		return errors.NewConfigError("targets",
			"at least one of RUN_SYNC_TO_AB or RUN_SYNC_TO_YNAB must be true", nil)
	}

	if c.Actual.Enabled {
		switch {
		case c.Actual.ServerURL == "":
			return errors.NewConfigError("actual", "ACTUAL_SERVER_URL is required when RUN_SYNC_TO_AB is true", nil)
		case c.Actual.Password == "":
			return errors.NewConfigError("actual", "ACTUAL_PASSWORD is required when RUN_SYNC_TO_AB is true", nil)
		case c.Actual.SyncID == "":
			return errors.NewConfigError("actual", "ACTUAL_SYNC_ID is required when RUN_SYNC_TO_AB is true", nil)
		}
	}

	if c.YNAB.Enabled {
		switch {
		case c.YNAB.BearerToken == "":
			return errors.NewConfigError("ynab", "YNAB_BEARER_TOKEN is required when RUN_SYNC_TO_YNAB is true", nil)
		case c.YNAB.BudgetID == "":
			return errors.NewConfigError("ynab", "YNAB_BUDGET_ID is required when RUN_SYNC_TO_YNAB is true", nil)
		}
	}

	if c.MappingFile == "" {
		return errors.NewConfigError("store", "MAPPING_FILE must not be empty", nil)
	}

	return nil
}

// AIEnabled reports whether the disambiguation assistant is configured.
func (c *Config) AIEnabled() bool {
	return c.Gemini.APIKey != ""
}
