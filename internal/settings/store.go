// Package settings persists the settings singleton.
package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"pkt.systems/inkwell/internal/persist"
	"pkt.systems/inkwell/internal/secrets"
	"pkt.systems/inkwell/schema"
	"pkt.systems/pslog"
)

// Key is the storage key of the settings document.
const Key = "inkwell_settings"

// CredentialEnvVars override the stored credential, first non-empty wins.
var CredentialEnvVars = []string{"INKWELL_API_KEY", "OPENAI_API_KEY"}

// Sealer protects the credential at rest.
type Sealer interface {
	Seal(plain string) (string, error)
	Open(sealed string) (string, error)
}

// Options configures a Store.
type Options struct {
	Logger pslog.Logger
	// Sealer, when set, encrypts the credential before it is written.
	Sealer Sealer
	// LookupEnv overrides os.LookupEnv.
	LookupEnv func(string) (string, bool)
}

// Store reads and writes settings. Reads merge stored values over defaults
// and never fail.
type Store struct {
	kv        persist.KV
	log       pslog.Logger
	sealer    Sealer
	lookupEnv func(string) (string, bool)
	mu        sync.Mutex
}

// NewStore wraps kv.
func NewStore(kv persist.KV, opts Options) *Store {
	lookup := opts.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	return &Store{kv: kv, log: opts.Logger, sealer: opts.Sealer, lookupEnv: lookup}
}

// Get returns the stored settings merged over the defaults.
func (s *Store) Get() schema.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	settings := schema.DefaultSettings()
	data, ok, err := s.kv.Get(Key)
	if err != nil {
		s.warn("settings load failed", "err", err)
		return schema.DefaultSettings()
	}
	if !ok || len(data) == 0 {
		return settings
	}
	if err := json.Unmarshal(data, &settings); err != nil {
		s.warn("settings decode failed", "err", err)
		return schema.DefaultSettings()
	}
	if settings.FontSize <= 0 {
		settings.FontSize = schema.DefaultFontSize
	}
	settings.APIKey = s.openCredential(settings.APIKey)
	return settings
}

// Set writes settings, sealing the credential when a sealer is configured.
func (s *Store) Set(settings schema.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	settings.APIKey = strings.TrimSpace(settings.APIKey)
	if settings.FontSize <= 0 {
		settings.FontSize = schema.DefaultFontSize
	}
	if s.sealer != nil && settings.APIKey != "" {
		sealed, err := s.sealer.Seal(settings.APIKey)
		if err != nil {
			s.warn("settings seal failed", "err", err)
			return fmt.Errorf("seal credential: %w", err)
		}
		settings.APIKey = sealed
	}
	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := s.kv.Set(Key, data); err != nil {
		s.warn("settings save failed", "err", err)
		return fmt.Errorf("save settings: %w", err)
	}
	if s.log != nil {
		s.log.Debug("settings save ok", "auto_save", settings.AutoSave, "font_size", settings.FontSize, "sealed", secrets.IsSealed(settings.APIKey))
	}
	return nil
}

// Credential returns the API credential: the environment override when set,
// otherwise the stored key.
func (s *Store) Credential(context.Context) string {
	if key, source := s.EnvCredential(); source != "" {
		return key
	}
	return s.Get().APIKey
}

// EnvCredential returns the environment override and the variable it came from.
func (s *Store) EnvCredential() (string, string) {
	for _, name := range CredentialEnvVars {
		if value, ok := s.lookupEnv(name); ok && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value), name
		}
	}
	return "", ""
}

func (s *Store) openCredential(stored string) string {
	if !secrets.IsSealed(stored) {
		return stored
	}
	if s.sealer == nil {
		s.warn("settings credential sealed but no key store configured")
		return ""
	}
	plain, err := s.sealer.Open(stored)
	if err != nil {
		s.warn("settings credential open failed", "err", err)
		return ""
	}
	return plain
}

func (s *Store) warn(msg string, kv ...any) {
	if s.log != nil {
		s.log.Warn(msg, kv...)
	}
}
