package inkwell

import (
	"context"
	"fmt"

	"pkt.systems/inkwell/core"
	"pkt.systems/inkwell/internal/appconfig"
	"pkt.systems/inkwell/internal/completion"
	"pkt.systems/inkwell/internal/markdown"
	"pkt.systems/inkwell/internal/persist"
	"pkt.systems/inkwell/internal/projects"
	"pkt.systems/inkwell/internal/secrets"
	"pkt.systems/inkwell/internal/settings"
	"pkt.systems/inkwell/internal/usage"
	"pkt.systems/inkwell/schema"
	"pkt.systems/pslog"
)

// Stack holds the stores and clients built from an application config.
type Stack struct {
	Session  schema.SessionConfig
	Store    *persist.Store
	Projects *projects.Store
	Settings *settings.Store
	Ledger   *usage.Ledger
	Client   *completion.Client
	Renderer *markdown.Renderer
}

// NewStack opens the state directory and wires stores, credential sealing and
// the completion client.
func NewStack(cfg appconfig.Config, logger pslog.Logger) (*Stack, error) {
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	sessionCfg, err := cfg.SessionConfig()
	if err != nil {
		return nil, err
	}
	store, err := persist.NewStoreWithLogger(sessionCfg.StateDir, logger)
	if err != nil {
		return nil, fmt.Errorf("open state dir: %w", err)
	}
	settingsOpts := settings.Options{Logger: logger}
	if cfg.Secrets.Enabled {
		sealer, err := secrets.NewSealerWithLogger(cfg.Secrets.KeyStorePath, logger)
		if err != nil {
			return nil, fmt.Errorf("open key store: %w", err)
		}
		settingsOpts.Sealer = sealer
	}
	settingsStore := settings.NewStore(store, settingsOpts)
	ledger := usage.NewLedger(usage.Pricing{
		InputPerMillion:  cfg.Completion.PriceInputPerMillion,
		OutputPerMillion: cfg.Completion.PriceOutputPerMillion,
	})
	client := completion.NewClient(completion.Config{
		BaseURL:     cfg.Completion.BaseURL,
		Model:       schema.ModelID(cfg.Completion.Model),
		Temperature: cfg.Completion.Temperature,
		MaxTokens:   cfg.Completion.MaxTokens,
		Timeout:     cfg.Completion.Timeout(),
	}, settingsStore, ledger, completion.WithLogger(logger))
	logger.Debug("stack build ok", "state_dir", sessionCfg.StateDir, "sealed", cfg.Secrets.Enabled, "model", cfg.Completion.Model)
	return &Stack{
		Session:  sessionCfg,
		Store:    store,
		Projects: projects.NewStore(store, projects.Options{Logger: logger}),
		Settings: settingsStore,
		Ledger:   ledger,
		Client:   client,
		Renderer: markdown.NewWithLogger(logger),
	}, nil
}

// SessionDeps returns session dependencies backed by the stack.
func (s *Stack) SessionDeps(logger pslog.Logger) core.SessionDeps {
	return core.SessionDeps{
		Projects:  s.Projects,
		Settings:  s.Settings,
		Completer: s.Client,
		Ledger:    s.Ledger,
		Renderer:  s.Renderer,
		Logger:    logger,
	}
}
