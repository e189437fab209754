// Package config provides centralized configuration management using Viper.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// ErrNoModel is returned by Validate when no chat model is configured.
var ErrNoModel = errors.New("no model configured")

// Config holds all configuration values for deskr.
type Config struct {
	Model          string  `mapstructure:"model" yaml:"model"`
	APIBase        string  `mapstructure:"api_base" yaml:"api_base"`
	APIKey         string  `mapstructure:"api_key" yaml:"api_key,omitempty"`
	SummaryModel   string  `mapstructure:"summary_model" yaml:"summary_model,omitempty"`
	SummaryAPIBase string  `mapstructure:"summary_api_base" yaml:"summary_api_base,omitempty"`
	Desktop        string  `mapstructure:"desktop" yaml:"desktop"`
	DataDir        string  `mapstructure:"data_dir" yaml:"data_dir"`
	LogLevel       string  `mapstructure:"log_level" yaml:"log_level"`
	LogFile        string  `mapstructure:"log_file" yaml:"log_file"`
	MaxTokens      int     `mapstructure:"max_tokens" yaml:"max_tokens"`
	Temperature    float64 `mapstructure:"temperature" yaml:"temperature"`
	MaxToolRounds  int     `mapstructure:"max_tool_rounds" yaml:"max_tool_rounds"`
	HistoryTokens  int     `mapstructure:"history_tokens" yaml:"history_tokens"`
	SummaryCache   int     `mapstructure:"summary_cache_size" yaml:"summary_cache_size"`
	Watch          bool    `mapstructure:"watch" yaml:"watch"`

	Consent   ConsentConfig   `mapstructure:"consent" yaml:"consent"`
	Cleanup   CleanupConfig   `mapstructure:"cleanup" yaml:"cleanup"`
	VCS       VCSConfig       `mapstructure:"vcs" yaml:"vcs"`
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`
	Serve     ServeConfig     `mapstructure:"serve" yaml:"serve"`
}

// ConsentConfig controls which actions ask the user first.
type ConsentConfig struct {
	GateMoveAll bool `mapstructure:"gate_move_all" yaml:"gate_move_all"`
}

// CleanupConfig controls empty-folder deletion.
type CleanupConfig struct {
	FixedPoint bool `mapstructure:"fixed_point" yaml:"fixed_point"`
}

// VCSConfig selects how backup and restore talk to version control.
type VCSConfig struct {
	Backend         string   `mapstructure:"backend" yaml:"backend"` // shell or gogit
	RestoreCommands []string `mapstructure:"restore_commands" yaml:"restore_commands"`
	BackupCommands  []string `mapstructure:"backup_commands" yaml:"backup_commands"`
	AuthorName      string   `mapstructure:"author_name" yaml:"author_name"`
	AuthorEmail     string   `mapstructure:"author_email" yaml:"author_email"`
}

// TelemetryConfig enables OTLP trace export when an endpoint is set.
type TelemetryConfig struct {
	OTLPEndpoint string  `mapstructure:"otlp_endpoint" yaml:"otlp_endpoint"`
	SampleRate   float64 `mapstructure:"sample_rate" yaml:"sample_rate"`
}

// ServeConfig configures `deskr serve`.
type ServeConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// Default returns the configuration used when no file or env var overrides it.
func Default() *Config {
	return &Config{
		APIBase:       "https://api.openai.com/v1",
		Desktop:       DefaultDesktop(),
		DataDir:       DefaultDataDir(),
		LogLevel:      "info",
		MaxTokens:     4000,
		Temperature:   0.7,
		MaxToolRounds: 16,
		SummaryCache:  128,
		Watch:         true,
		Consent:       ConsentConfig{GateMoveAll: true},
		VCS: VCSConfig{
			Backend:         "shell",
			RestoreCommands: []string{"git reset --hard", "git clean -f -d"},
			BackupCommands:  []string{"git add .", "git commit -m 'backup'"},
			AuthorName:      "deskr",
			AuthorEmail:     "deskr@localhost",
		},
		Telemetry: TelemetryConfig{SampleRate: 1.0},
		Serve:     ServeConfig{Addr: "127.0.0.1:0"},
	}
}

// keys lists every config key so each one gets a default and a DESKR_* binding.
var keys = []string{
	"model", "api_base", "api_key", "summary_model", "summary_api_base",
	"desktop", "data_dir", "log_level", "log_file",
	"max_tokens", "temperature", "max_tool_rounds", "history_tokens", "summary_cache_size", "watch",
	"consent.gate_move_all", "cleanup.fixed_point",
	"vcs.backend", "vcs.restore_commands", "vcs.backup_commands", "vcs.author_name", "vcs.author_email",
	"telemetry.otlp_endpoint", "telemetry.sample_rate",
	"serve.addr",
}

// Load loads configuration with full precedence:
// CLI flags > ENV vars > project config > XDG global config > defaults
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigName("deskr")

	d := Default()
	v.SetDefault("model", d.Model)
	v.SetDefault("api_base", d.APIBase)
	v.SetDefault("api_key", "")
	v.SetDefault("summary_model", "")
	v.SetDefault("summary_api_base", "")
	v.SetDefault("desktop", d.Desktop)
	v.SetDefault("data_dir", d.DataDir)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_file", "")
	v.SetDefault("max_tokens", d.MaxTokens)
	v.SetDefault("temperature", d.Temperature)
	v.SetDefault("max_tool_rounds", d.MaxToolRounds)
	v.SetDefault("history_tokens", d.HistoryTokens)
	v.SetDefault("summary_cache_size", d.SummaryCache)
	v.SetDefault("watch", d.Watch)
	v.SetDefault("consent.gate_move_all", d.Consent.GateMoveAll)
	v.SetDefault("cleanup.fixed_point", d.Cleanup.FixedPoint)
	v.SetDefault("vcs.backend", d.VCS.Backend)
	v.SetDefault("vcs.restore_commands", d.VCS.RestoreCommands)
	v.SetDefault("vcs.backup_commands", d.VCS.BackupCommands)
	v.SetDefault("vcs.author_name", d.VCS.AuthorName)
	v.SetDefault("vcs.author_email", d.VCS.AuthorEmail)
	v.SetDefault("telemetry.otlp_endpoint", "")
	v.SetDefault("telemetry.sample_rate", d.Telemetry.SampleRate)
	v.SetDefault("serve.addr", d.Serve.Addr)

	// DESKR_VCS_BACKEND maps to vcs.backend
	v.SetEnvPrefix("DESKR")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	for _, key := range keys {
		env := "DESKR_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("binding %s env: %w", key, err)
		}
	}
	// OPENAI_API_KEY is honoured when nothing more specific is set.
	if err := v.BindEnv("api_key", "DESKR_API_KEY", "OPENAI_API_KEY"); err != nil {
		return nil, fmt.Errorf("binding api_key env: %w", err)
	}

	globalPath := GlobalPath()
	if fileExists(globalPath) {
		v.SetConfigFile(globalPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading global config: %w", err)
		}
	}

	projectPath := ProjectPath()
	if fileExists(projectPath) {
		v.SetConfigFile(projectPath)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("merging project config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Desktop = expandHome(cfg.Desktop)
	cfg.DataDir = expandHome(cfg.DataDir)
	return &cfg, nil
}

// Validate checks the values a chat session cannot run without.
func (c *Config) Validate() error {
	if c.Model == "" {
		return ErrNoModel
	}
	if c.APIBase == "" {
		return errors.New("api_base is empty")
	}
	if _, err := c.DesktopRoot(); err != nil {
		return err
	}
	switch c.VCS.Backend {
	case "shell", "gogit":
	default:
		return fmt.Errorf("unknown vcs backend %q (want shell or gogit)", c.VCS.Backend)
	}
	return nil
}

// DesktopRoot returns the absolute desktop path, checking that it is a directory.
func (c *Config) DesktopRoot() (string, error) {
	if c.Desktop == "" {
		return "", errors.New("desktop path is empty")
	}
	abs, err := filepath.Abs(expandHome(c.Desktop))
	if err != nil {
		return "", fmt.Errorf("resolving desktop path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("desktop %s: %w", abs, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("desktop %s is not a directory", abs)
	}
	return abs, nil
}

// Exists returns true if any config file exists (global or project).
func Exists() bool {
	return fileExists(GlobalPath()) || fileExists(ProjectPath())
}

// GlobalPath returns ~/.config/deskr/deskr.yml or $XDG_CONFIG_HOME/deskr/deskr.yml.
func GlobalPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "deskr", "deskr.yml")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "deskr", "deskr.yml")
}

// ProjectPath returns the project-local config path.
func ProjectPath() string {
	return "deskr.yml"
}

// DefaultDesktop is ~/Desktop.
func DefaultDesktop() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, "Desktop")
}

// DefaultDataDir is $XDG_DATA_HOME/deskr, falling back to ~/.local/share/deskr.
func DefaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "deskr")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "deskr")
}

// WriteGlobal writes the config to the XDG global location.
func WriteGlobal(cfg *Config) error {
	return write(GlobalPath(), cfg)
}

// WriteProject writes the config to the project-local location.
func WriteProject(cfg *Config) error {
	return write(ProjectPath(), cfg)
}

func write(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	// May hold an API key.
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
