package inkwell

import (
	"context"
	"errors"
	"sync"

	"pkt.systems/inkwell/core"
	"pkt.systems/inkwell/httpapi"
	"pkt.systems/inkwell/internal/eventbus"
	"pkt.systems/inkwell/schema"
	"pkt.systems/pslog"
)

// Server composes the document session and its HTTP surface.
type Server interface {
	Start(ctx context.Context) error
	Wait() error
	Stop(ctx context.Context) error
}

// ServerConfig configures the compositor.
type ServerConfig struct {
	Session    schema.SessionConfig
	HTTP       httpapi.Config
	HubHistory int
}

// ServerDeps captures dependencies required to build the server.
type ServerDeps struct {
	SessionDeps core.SessionDeps
}

// ServerOption toggles compositor components.
type ServerOption func(*serverOptions)

type serverOptions struct {
	enableHTTP bool
}

// WithHTTP enables the HTTP API.
func WithHTTP() ServerOption {
	return func(o *serverOptions) { o.enableHTTP = true }
}

// Composite is the server returned by New. It exposes the session and the
// in-process event bus for embedding callers.
type Composite struct {
	cfg     ServerConfig
	options serverOptions
	session *core.Session
	bus     *eventbus.Bus
	httpSrv *httpapi.Server
	logger  pslog.Logger

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	errCh   chan error
	started bool
}

// New constructs a composable inkwell server.
func New(cfg ServerConfig, deps ServerDeps, opts ...ServerOption) (*Composite, error) {
	options := serverOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	normalized, err := schema.NormalizeSessionConfig(cfg.Session)
	if err != nil {
		return nil, err
	}
	cfg.Session = normalized
	if cfg.HubHistory <= 0 {
		cfg.HubHistory = cfg.HTTP.HistorySize
	}

	sessionDeps := deps.SessionDeps
	bus := eventbus.New(sessionDeps.Logger)
	var hub *httpapi.Hub
	if options.enableHTTP {
		hub = httpapi.NewHub(cfg.HubHistory, sessionDeps.Logger)
	}
	sinks := make([]core.EventSink, 0, 3)
	if sessionDeps.EventSink != nil {
		sinks = append(sinks, sessionDeps.EventSink)
	}
	if hub != nil {
		sinks = append(sinks, hub)
	}
	sinks = append(sinks, bus)
	if len(sinks) == 1 {
		sessionDeps.EventSink = sinks[0]
	} else {
		sessionDeps.EventSink = eventFanout{sinks: sinks}
	}

	session, err := core.NewSession(cfg.Session, sessionDeps)
	if err != nil {
		return nil, err
	}
	var httpSrv *httpapi.Server
	if options.enableHTTP {
		httpSrv = httpapi.NewServer(cfg.HTTP, session, hub)
	}
	return &Composite{
		cfg:     cfg,
		options: options,
		session: session,
		bus:     bus,
		httpSrv: httpSrv,
	}, nil
}

// Session returns the document session.
func (s *Composite) Session() *core.Session {
	return s.session
}

// Events returns the in-process document event bus.
func (s *Composite) Events() *eventbus.Bus {
	return s.bus
}

// Start opens the session and starts enabled listeners.
func (s *Composite) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		pslog.Ctx(ctx).Warn("server start rejected", "reason", "already started")
		return errors.New("server already started")
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.errCh = make(chan error, 1)
	s.started = true
	s.logger = pslog.Ctx(s.ctx)
	s.mu.Unlock()

	log := s.logger
	state, err := s.session.Open(s.ctx)
	if err != nil {
		s.cancel()
		return err
	}
	log.Info(
		"server start",
		"http", s.options.enableHTTP,
		"http_addr", s.cfg.HTTP.Addr,
		"state_dir", s.cfg.Session.StateDir,
		"project", state.ProjectID,
	)
	if s.options.enableHTTP && s.httpSrv != nil {
		go func() {
			if err := httpapi.ListenAndServe(s.ctx, s.cfg.HTTP.Addr, s.httpSrv.Handler()); err != nil {
				log.Error("http server failed", "err", err)
				s.errCh <- err
			}
		}()
	}
	return nil
}

// Wait blocks until the server context ends or a listener fails.
func (s *Composite) Wait() error {
	s.mu.Lock()
	ctx := s.ctx
	errCh := s.errCh
	started := s.started
	s.mu.Unlock()
	if !started {
		return errors.New("server not started")
	}

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		if err != nil {
			pslog.Ctx(ctx).Error("server stopped", "err", err)
			_ = s.Stop(context.Background())
			return err
		}
		return nil
	}
}

// Stop flushes the session and cancels listeners.
func (s *Composite) Stop(ctx context.Context) error {
	s.mu.Lock()
	cancel := s.cancel
	started := s.started
	log := s.logger
	s.mu.Unlock()
	if !started {
		return nil
	}
	if log == nil {
		log = pslog.Ctx(context.Background())
	}
	log.Info("server stop requested")
	if err := s.session.Close(context.Background()); err != nil {
		log.Warn("server session close failed", "err", err)
	} else {
		log.Info("server session close ok")
	}
	if cancel != nil {
		cancel()
	}
	if ctx == nil {
		log.Info("server stop completed")
		return nil
	}
	select {
	case <-ctx.Done():
		log.Warn("server stop timed out", "err", ctx.Err())
		return ctx.Err()
	case <-s.ctx.Done():
		log.Info("server stopped")
		return nil
	}
}
