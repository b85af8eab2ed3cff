package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/m-mizutani/goerr/v2"

	"github.com/lazypower/recollect/internal/errutil"
)

// Session storage limits. Summaries and file lists are truncated before they
// are persisted, so a single session never exceeds MaxSessionBytes.
const (
	MaxSummaryChars   = 2000
	MaxFilesChanged   = 20
	MaxProjectChars   = 256
	MaxFilePathBytes  = 4096
	SessionRowBytes   = 64
	DefaultSessionCap = 200 << 20 // 200 MiB
)

// MaxSessionBytes is the largest size a single truncated session can occupy.
const MaxSessionBytes = SessionRowBytes + MaxSummaryChars*4 + MaxFilesChanged*MaxFilePathBytes + MaxProjectChars*4

// Config holds all recollect configuration.
type Config struct {
	Database    DatabaseConfig   `toml:"database"`
	Server      ServerConfig     `toml:"server"`
	LLM         LLMConfig        `toml:"llm"`
	Sessions    SessionsConfig   `toml:"sessions"`
	Transcripts TranscriptConfig `toml:"transcripts"`
	Decay       DecayConfig      `toml:"decay"`
	Log         LogConfig        `toml:"log"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type ServerConfig struct {
	Bind string `toml:"bind"`
	Port int    `toml:"port"`
}

type LLMConfig struct {
	Provider       string `toml:"provider"` // "google", "anthropic", "ollama", "claude-cli"
	Model          string `toml:"model"`
	AnthropicKey   string `toml:"anthropic_key"`
	GoogleKey      string `toml:"google_key"`
	OllamaURL      string `toml:"ollama_url"`
	OllamaModel    string `toml:"ollama_model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

type SessionsConfig struct {
	CapBytes int64 `toml:"cap_bytes"`
}

type TranscriptConfig struct {
	Dir string `toml:"dir"`
}

type DecayConfig struct {
	IntervalHours int `toml:"interval_hours"` // serve mode only; 0 disables
}

type LogConfig struct {
	Level string `toml:"level"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Database: DatabaseConfig{
			Path: "", // resolved at runtime via DefaultDBPath()
		},
		Server: ServerConfig{
			Bind: "127.0.0.1",
			Port: 37778,
		},
		LLM: LLMConfig{
			Provider:       "google",
			Model:          "", // per-provider default, see llm.NewClient
			OllamaURL:      "http://localhost:11434",
			OllamaModel:    "llama3.2",
			TimeoutSeconds: 600,
		},
		Sessions: SessionsConfig{
			CapBytes: DefaultSessionCap,
		},
		Decay: DecayConfig{
			IntervalHours: 24,
		},
		Log: LogConfig{
			Level: "warn",
		},
	}
}

// Dir returns the recollect home directory: ~/.recollect
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".recollect"), nil
}

// DefaultPath returns the default config file path: ~/.recollect/config.toml
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// DefaultDBPath returns the default database path: ~/.recollect/memory.db
func DefaultDBPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "memory.db"), nil
}

// DefaultTranscriptDir returns where Claude Code keeps session transcripts.
func DefaultTranscriptDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".claude", "projects"), nil
}

// Load reads the TOML file at path over the defaults, applies environment
// overrides and validates the result. A missing file is not an error unless
// it was named explicitly.
func Load(path string, explicit bool) (Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			if !errors.Is(err, os.ErrNotExist) || explicit {
				return cfg, errutil.Validation("read config", goerr.V("path", path), goerr.V("error", err.Error()))
			}
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if p := os.Getenv("RECOLLECT_DB"); p != "" {
		c.Database.Path = p
	}
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" && c.LLM.AnthropicKey == "" {
		c.LLM.AnthropicKey = key
	}
	if key := os.Getenv("GOOGLE_API_KEY"); key != "" && c.LLM.GoogleKey == "" {
		c.LLM.GoogleKey = key
	}
}

var validProviders = map[string]bool{
	"google":     true,
	"anthropic":  true,
	"ollama":     true,
	"claude-cli": true,
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if !validProviders[c.LLM.Provider] {
		return errutil.Validation("config: unknown llm provider", goerr.V("provider", c.LLM.Provider))
	}
	if c.LLM.TimeoutSeconds <= 0 {
		return errutil.Validation("config: llm timeout_seconds must be positive", goerr.V("timeout_seconds", c.LLM.TimeoutSeconds))
	}
	if c.Sessions.CapBytes < MaxSessionBytes {
		return errutil.Validation("config: sessions cap_bytes is below the size of a single session",
			goerr.V("cap_bytes", c.Sessions.CapBytes), goerr.V("min", MaxSessionBytes))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errutil.Validation("config: server port out of range", goerr.V("port", c.Server.Port))
	}
	if c.Decay.IntervalHours < 0 {
		return errutil.Validation("config: decay interval_hours must not be negative", goerr.V("interval_hours", c.Decay.IntervalHours))
	}
	return nil
}

// ListenAddr returns the bind:port address string.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Bind, c.Server.Port)
}

// Timeout returns the fixed timeout applied to a single LLM call.
func (c LLMConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}
