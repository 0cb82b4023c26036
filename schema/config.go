package schema

import (
	"os"
	"path/filepath"
	"time"
)

// SessionConfig defines timing and storage defaults for the editing session.
type SessionConfig struct {
	StateDir         string
	SaveDebounce     time.Duration
	AutosaveInterval time.Duration
	ScrollFrame      time.Duration
}

const (
	// DefaultSaveDebounce is the quiet period before an edit burst is persisted.
	DefaultSaveDebounce = 2 * time.Second
	// DefaultAutosaveInterval is the periodic fallback write interval.
	DefaultAutosaveInterval = 30 * time.Second
	// DefaultScrollFrame is the idle tick after which scroll suppression clears.
	DefaultScrollFrame = 16 * time.Millisecond
)

// NormalizeSessionConfig applies defaults.
func NormalizeSessionConfig(cfg SessionConfig) (SessionConfig, error) {
	if cfg.StateDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return SessionConfig{}, err
		}
		cfg.StateDir = filepath.Join(home, ".inkwell", "state")
	}
	if cfg.SaveDebounce <= 0 {
		cfg.SaveDebounce = DefaultSaveDebounce
	}
	if cfg.AutosaveInterval <= 0 {
		cfg.AutosaveInterval = DefaultAutosaveInterval
	}
	if cfg.ScrollFrame <= 0 {
		cfg.ScrollFrame = DefaultScrollFrame
	}
	return cfg, nil
}
