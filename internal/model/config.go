package model

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// LLMConfig holds settings for the completion client. The defaults mirror
// the reference deployment: deterministic decoding, no output cap, no
// request timeout, two automatic retries.
type LLMConfig struct {
	// BaseURL is the root of the OpenAI-compatible completions API.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// Model is the model identifier sent with every request.
	Model string `mapstructure:"model" yaml:"model"`

	// MaxRetries is how many times a transient failure is retried
	// before the call is surfaced as failed.
	MaxRetries int `mapstructure:"max_retries" yaml:"max_retries"`
}

// IMAPConfig holds optional live-mailbox ingestion settings. When Host is
// empty, IMAP ingestion is disabled and the inbox is seeded only from the
// JSON file.
type IMAPConfig struct {
	Host     string `mapstructure:"host" yaml:"host"`
	Port     string `mapstructure:"port" yaml:"port"`
	Username string `mapstructure:"username" yaml:"username"`
	TLS      bool   `mapstructure:"tls" yaml:"tls"`

	// FetchLimit caps how many recent messages a single fetch ingests.
	FetchLimit int `mapstructure:"fetch_limit" yaml:"fetch_limit"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme string `mapstructure:"theme" yaml:"theme"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	// DBPath is the SQLite database location.
	DBPath string `mapstructure:"db_path" yaml:"db_path"`

	// InboxPath is the JSON seed file loaded by the ingest action.
	InboxPath string `mapstructure:"inbox_path" yaml:"inbox_path"`

	LLM     LLMConfig     `mapstructure:"llm" yaml:"llm"`
	IMAP    IMAPConfig    `mapstructure:"imap" yaml:"imap"`
	Display DisplayConfig `mapstructure:"display" yaml:"display"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/email-agent/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "email-agent", "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		DBPath:    "email_agent.db",
		InboxPath: "inbox.json",
		LLM: LLMConfig{
			BaseURL:    "https://api.groq.com/openai/v1",
			Model:      "llama-3.3-70b-versatile",
			MaxRetries: 2,
		},
		IMAP: IMAPConfig{
			Port:       "993",
			TLS:        true,
			FetchLimit: 100,
		},
		Display: DisplayConfig{
			Theme: "default",
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("db_path", "email_agent.db")
	v.SetDefault("inbox_path", "inbox.json")
	v.SetDefault("llm.base_url", "https://api.groq.com/openai/v1")
	v.SetDefault("llm.model", "llama-3.3-70b-versatile")
	v.SetDefault("llm.max_retries", 2)
	v.SetDefault("imap.port", "993")
	v.SetDefault("imap.tls", true)
	v.SetDefault("imap.fetch_limit", 100)
	v.SetDefault("display.theme", "default")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaultAppConfig(), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaultAppConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("db_path", cfg.DBPath)
	v.Set("inbox_path", cfg.InboxPath)
	v.Set("llm", cfg.LLM)
	v.Set("imap", cfg.IMAP)
	v.Set("display", cfg.Display)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
