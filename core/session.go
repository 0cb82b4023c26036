package core

import (
	"context"
	"errors"
	"sync"

	"pkt.systems/inkwell/internal/editor"
	"pkt.systems/inkwell/internal/logx"
	"pkt.systems/inkwell/internal/markdown"
	"pkt.systems/inkwell/internal/projects"
	"pkt.systems/inkwell/internal/schedule"
	"pkt.systems/inkwell/internal/scrollsync"
	"pkt.systems/inkwell/schema"
	"pkt.systems/pslog"
)

const (
	// StarterContent seeds the project created on first open.
	StarterContent = "# My Project\n\nDescribe your project here...\n"
	// NewProjectContent seeds projects created with NewProject.
	NewProjectContent = "# New Project\n\nStart writing here...\n"
)

// Session owns the active buffer and orchestrates rendering, persistence,
// completions and scroll sync. All buffer access is serialized by one mutex;
// completion requests run without it.
type Session struct {
	cfg       schema.SessionConfig
	projects  ProjectStore
	settings  SettingsStore
	completer Completer
	ledger    UsageSource
	renderer  Renderer
	sink      EventSink
	clock     schedule.Clock
	logger    pslog.Logger

	saver    *schedule.Debouncer
	autosave *schedule.Periodic

	mu          sync.Mutex
	open        bool
	buf         *editor.Buffer
	unsubscribe func()
	project     schema.ProjectID
	name        schema.ProjectName
	view        schema.View
	dirty       bool
	prefs       schema.Settings

	scroll      *scrollsync.Synchronizer
	editorPane  *scrollsync.Geometry
	previewPane *scrollsync.Geometry
}

// NewSession constructs a session. Call Open before using it.
func NewSession(cfg schema.SessionConfig, deps SessionDeps) (*Session, error) {
	if deps.Projects == nil {
		return nil, errors.New("missing project store")
	}
	if deps.Settings == nil {
		return nil, errors.New("missing settings store")
	}
	cfg, err := schema.NormalizeSessionConfig(cfg)
	if err != nil {
		return nil, err
	}
	if deps.Renderer == nil {
		deps.Renderer = markdown.NewWithLogger(deps.Logger)
	}
	if deps.Clock == nil {
		deps.Clock = schedule.RealClock()
	}
	logger := deps.Logger
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	s := &Session{
		cfg:         cfg,
		projects:    deps.Projects,
		settings:    deps.Settings,
		completer:   deps.Completer,
		ledger:      deps.Ledger,
		renderer:    deps.Renderer,
		sink:        deps.EventSink,
		clock:       deps.Clock,
		logger:      logger,
		prefs:       schema.DefaultSettings(),
		editorPane:  &scrollsync.Geometry{},
		previewPane: &scrollsync.Geometry{},
	}
	s.saver = schedule.NewDebouncer(deps.Clock, cfg.SaveDebounce, s.debouncedSave)
	s.autosave = schedule.NewPeriodic(deps.Clock, cfg.AutosaveInterval, s.autoSave)
	s.scroll = scrollsync.New(s.editorPane, s.previewPane, deps.Clock, cfg.ScrollFrame)
	return s, nil
}

// Open loads the last active project, falling back to the first stored
// project or a new starter project, and starts auto-save when enabled.
// Opening an open session returns its state.
func (s *Session) Open(ctx context.Context) (schema.DocumentState, error) {
	if ctx == nil {
		return schema.DocumentState{}, errors.New("missing context")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.open {
		return s.stateLocked(), nil
	}
	s.prefs = s.settings.Get()

	var project schema.Project
	found := false
	if id := s.projects.ActiveID(); id != "" {
		project, found = s.projects.Get(id)
	}
	if !found {
		if list := s.projects.List(); len(list) > 0 {
			project, found = list[0], true
		}
	}
	if !found {
		project = s.createLocked(projects.DefaultName, StarterContent)
	}
	s.open = true
	s.attachLocked(project)
	if s.prefs.AutoSave {
		s.autosave.Start()
	}
	logx.WithProject(ctx, s.project).Info("session open ok", "name", s.name, "autosave", s.prefs.AutoSave)
	s.publishLocked(schema.DocumentProject, true)
	return s.stateLocked(), nil
}

// State returns the current document state.
func (s *Session) State() schema.DocumentState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

// Save persists the active buffer immediately, superseding a pending
// debounced write.
func (s *Session) Save(ctx context.Context) (schema.DocumentState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return schema.DocumentState{}, schema.ErrSessionClosed
	}
	s.saver.Cancel()
	s.persistLocked(true)
	logx.WithProject(ctx, s.project).Debug("session save ok")
	return s.stateLocked(), nil
}

// Close flushes pending edits and stops background tasks.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return nil
	}
	s.flushLocked()
	s.autosave.Stop()
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
	s.open = false
	logx.WithProject(ctx, s.project).Info("session close ok")
	return nil
}

// Settings returns the settings in effect.
func (s *Session) Settings() schema.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prefs
}

// ApplySettings persists settings and restarts auto-save accordingly.
func (s *Session) ApplySettings(ctx context.Context, settings schema.Settings) (schema.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if settings.FontSize <= 0 {
		settings.FontSize = schema.DefaultFontSize
	}
	s.flushLocked()
	if err := s.settings.Set(settings); err != nil {
		logx.Ctx(ctx).Warn("settings save failed", "err", err)
		return s.prefs, err
	}
	s.prefs = s.settings.Get()
	s.autosave.Stop()
	if s.open && s.prefs.AutoSave {
		s.autosave.Start()
	}
	logx.Ctx(ctx).Info("settings save ok", "autosave", s.prefs.AutoSave, "font_size", s.prefs.FontSize)
	if s.open {
		s.publishLocked(schema.DocumentChanged, true)
	}
	return s.prefs, nil
}

func (s *Session) attachLocked(project schema.Project) {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	s.buf = editor.New(project.Content)
	s.unsubscribe = s.buf.OnChange(s.onChange)
	s.project = project.ID
	s.name = project.Name
	s.view = s.renderer.Render(project.Content)
	s.dirty = false
	s.projects.SetActiveID(project.ID)
}

// onChange runs inside buffer operations, which hold s.mu.
func (s *Session) onChange(snap editor.Snapshot) {
	s.view = s.renderer.Render(snap.Text)
	s.dirty = true
	s.saver.Trigger()
	s.publishLocked(schema.DocumentChanged, true)
}

func (s *Session) debouncedSave() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return
	}
	s.persistLocked(false)
}

func (s *Session) autoSave() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open || !s.prefs.AutoSave || !s.dirty {
		return
	}
	s.persistLocked(false)
}

// flushLocked writes pending edits and drops the debounced write.
func (s *Session) flushLocked() {
	s.saver.Cancel()
	s.persistLocked(false)
}

func (s *Session) persistLocked(force bool) {
	if s.project == "" || s.buf == nil {
		return
	}
	if !s.dirty && !force {
		return
	}
	content := s.buf.Text()
	if _, ok := s.projects.Update(s.project, schema.ProjectPatch{Content: &content}); !ok {
		s.logger.Warn("project save failed", "project", s.project, "err", schema.ErrProjectNotFound)
		return
	}
	s.dirty = false
	s.logger.Debug("project save ok", "project", s.project, "chars", s.view.Chars)
	s.publishLocked(schema.DocumentSaved, false)
}

func (s *Session) stateLocked() schema.DocumentState {
	state := schema.DocumentState{
		ProjectID:   s.project,
		ProjectName: s.name,
		View:        s.view,
		SaveStatus:  schema.SaveStatusSaved,
		FontSize:    s.prefs.FontSize,
	}
	if s.buf != nil {
		state.Text = s.buf.Text()
		state.Selection = s.buf.Selection()
	}
	if s.dirty {
		state.SaveStatus = schema.SaveStatusUnsaved
	}
	return state
}

func (s *Session) publishLocked(kind schema.DocumentEventType, withState bool) {
	if s.sink == nil {
		return
	}
	event := schema.DocumentEvent{
		Type:      kind,
		ProjectID: s.project,
		Timestamp: s.clock.Now(),
	}
	if withState {
		state := s.stateLocked()
		event.State = &state
	}
	s.sink.OnDocumentEvent(event)
}
