// Package config loads studyguide configuration from TOML with environment
// overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds all studyguide configuration.
type Config struct {
	// Listen is the HTTP listen address (e.g., ":3001").
	Listen string `toml:"listen"`

	// DBPath is the SQLite history database. Empty keeps history in memory.
	DBPath string `toml:"db_path"`

	Debug       bool     `toml:"debug"`
	CORSOrigins []string `toml:"cors_origins"`

	LLM    LLMConfig    `toml:"llm"`
	Limits LimitsConfig `toml:"limits"`
}

type LLMConfig struct {
	Provider       string  `toml:"provider"` // openai | gemini
	Model          string  `toml:"model"`
	BaseURL        string  `toml:"base_url"`
	APIKeyEnv      string  `toml:"api_key_env"`
	Temperature    float64 `toml:"temperature"`
	MaxTokens      int     `toml:"max_tokens"`
	TimeoutSeconds int     `toml:"timeout_seconds"`

	// APIKey is resolved from APIKeyEnv at load time, never read from the file.
	APIKey string `toml:"-"`
}

type LimitsConfig struct {
	MaxNoteChars int `toml:"max_note_chars"`
	MaxUploadMB  int `toml:"max_upload_mb"`
}

// DefaultConfig returns config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Listen:      ":3001",
		CORSOrigins: []string{"*"},
		LLM: LLMConfig{
			Provider:       "openai",
			Model:          "gpt-4o-mini",
			BaseURL:        "https://api.openai.com/v1",
			APIKeyEnv:      "OPENAI_API_KEY",
			Temperature:    0.7,
			MaxTokens:      2000,
			TimeoutSeconds: 120,
		},
		Limits: LimitsConfig{
			MaxNoteChars: 10000,
			MaxUploadMB:  10,
		},
	}
}

// Load reads config from path, or from the standard locations when path is
// empty, falling back to defaults. Environment overrides are applied last.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	} else {
		for _, p := range configPaths() {
			if _, err := os.Stat(p); err == nil {
				if _, err := toml.DecodeFile(p, &cfg); err != nil {
					return cfg, fmt.Errorf("parse config %s: %w", p, err)
				}
				break
			}
		}
	}

	applyEnv(&cfg)
	cfg.DBPath = expandHome(cfg.DBPath)

	return cfg, cfg.Validate()
}

// Validate rejects configurations that cannot serve requests.
func (c Config) Validate() error {
	switch strings.ToLower(c.LLM.Provider) {
	case "openai", "gemini":
	default:
		return fmt.Errorf("unknown llm provider %q (want openai or gemini)", c.LLM.Provider)
	}
	if c.Limits.MaxUploadMB <= 0 {
		return fmt.Errorf("limits.max_upload_mb must be positive")
	}
	if c.Limits.MaxNoteChars <= 0 {
		return fmt.Errorf("limits.max_note_chars must be positive")
	}
	return nil
}

// MaxUploadBytes is the upload limit in bytes.
func (c Config) MaxUploadBytes() int64 {
	return int64(c.Limits.MaxUploadMB) << 20
}

// Timeout is the upstream completion timeout.
func (c LLMConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func applyEnv(cfg *Config) {
	if port := os.Getenv("PORT"); port != "" {
		cfg.Listen = ":" + strings.TrimPrefix(port, ":")
	}
	if db := os.Getenv("STUDYGUIDE_DB"); db != "" {
		cfg.DBPath = db
	}
	if cfg.LLM.APIKeyEnv != "" {
		cfg.LLM.APIKey = os.Getenv(cfg.LLM.APIKeyEnv)
	}
}

func configPaths() []string {
	var paths []string

	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		paths = append(paths, filepath.Join(xdg, "studyguide", "config.toml"))
	}

	home, _ := os.UserHomeDir()
	if home != "" {
		paths = append(paths, filepath.Join(home, ".config", "studyguide", "config.toml"))
	}

	return paths
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
