package appconfig

import (
	"os"
	"path/filepath"
	"time"

	"pkt.systems/inkwell/schema"
)

// Config is the top-level application configuration.
type Config struct {
	ConfigVersion int              `mapstructure:"config_version" yaml:"config_version"`
	StateDir      string           `mapstructure:"state_dir" yaml:"state_dir"`
	Completion    CompletionConfig `mapstructure:"completion" yaml:"completion"`
	Editor        EditorConfig     `mapstructure:"editor" yaml:"editor"`
	HTTP          HTTPConfig       `mapstructure:"http" yaml:"http"`
	Secrets       SecretsConfig    `mapstructure:"secrets" yaml:"secrets"`
}

// CurrentConfigVersion marks the supported config version.
const CurrentConfigVersion = 1

// CompletionConfig configures the chat-completions client and its pricing.
type CompletionConfig struct {
	BaseURL               string  `mapstructure:"base_url" yaml:"base_url"`
	Model                 string  `mapstructure:"model" yaml:"model"`
	Temperature           float64 `mapstructure:"temperature" yaml:"temperature"`
	MaxTokens             int     `mapstructure:"max_tokens" yaml:"max_tokens"`
	PriceInputPerMillion  float64 `mapstructure:"price_input_per_million" yaml:"price_input_per_million"`
	PriceOutputPerMillion float64 `mapstructure:"price_output_per_million" yaml:"price_output_per_million"`
	TimeoutSeconds        int     `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
}

// Timeout returns the request timeout.
func (c CompletionConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// EditorConfig controls persistence and scroll timing.
type EditorConfig struct {
	SaveDebounceMS          int `mapstructure:"save_debounce_ms" yaml:"save_debounce_ms"`
	AutosaveIntervalSeconds int `mapstructure:"autosave_interval_seconds" yaml:"autosave_interval_seconds"`
	ScrollFrameMS           int `mapstructure:"scroll_frame_ms" yaml:"scroll_frame_ms"`
}

// HTTPConfig configures the local HTTP server.
type HTTPConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// SecretsConfig controls sealing of the API credential at rest.
type SecretsConfig struct {
	Enabled      bool   `mapstructure:"enabled" yaml:"enabled"`
	KeyStorePath string `mapstructure:"key_store_path" yaml:"key_store_path"`
}

// SessionConfig maps the config onto session timing.
func (c Config) SessionConfig() (schema.SessionConfig, error) {
	return schema.NormalizeSessionConfig(schema.SessionConfig{
		StateDir:         c.StateDir,
		SaveDebounce:     time.Duration(c.Editor.SaveDebounceMS) * time.Millisecond,
		AutosaveInterval: time.Duration(c.Editor.AutosaveIntervalSeconds) * time.Second,
		ScrollFrame:      time.Duration(c.Editor.ScrollFrameMS) * time.Millisecond,
	})
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, err
	}
	return Config{
		ConfigVersion: CurrentConfigVersion,
		StateDir:      filepath.Join(home, ".inkwell", "state"),
		Completion: CompletionConfig{
			BaseURL:               "https://api.openai.com/v1",
			Model:                 "gpt-4o-mini",
			Temperature:           0.7,
			MaxTokens:             2048,
			PriceInputPerMillion:  0.15,
			PriceOutputPerMillion: 0.60,
			TimeoutSeconds:        60,
		},
		Editor: EditorConfig{
			SaveDebounceMS:          int(schema.DefaultSaveDebounce / time.Millisecond),
			AutosaveIntervalSeconds: int(schema.DefaultAutosaveInterval / time.Second),
			ScrollFrameMS:           int(schema.DefaultScrollFrame / time.Millisecond),
		},
		HTTP: HTTPConfig{
			Addr: "127.0.0.1:27490",
		},
		Secrets: SecretsConfig{
			Enabled:      true,
			KeyStorePath: filepath.Join(home, ".inkwell", "state", "keys.pb"),
		},
	}, nil
}

// DefaultConfigPath returns the standard config path.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".inkwell", "config.yaml"), nil
}
