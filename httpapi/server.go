package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"pkt.systems/inkwell/core"
	"pkt.systems/inkwell/internal/logx"
	"pkt.systems/inkwell/internal/markdown"
	"pkt.systems/inkwell/internal/prompts"
	"pkt.systems/inkwell/internal/scrollsync"
	"pkt.systems/inkwell/schema"
)

// Session is the document session served over HTTP.
type Session interface {
	State() schema.DocumentState
	Edit(ctx context.Context, req core.EditRequest) (schema.DocumentState, error)
	Save(ctx context.Context) (schema.DocumentState, error)
	Projects() []core.ProjectSummary
	NewProject(ctx context.Context, name schema.ProjectName) (schema.DocumentState, error)
	LoadProject(ctx context.Context, id schema.ProjectID) (schema.DocumentState, error)
	RenameProject(ctx context.Context, id schema.ProjectID, name schema.ProjectName) (schema.DocumentState, error)
	DeleteProject(ctx context.Context, id schema.ProjectID) (schema.DocumentState, error)
	Actions() []prompts.Action
	AIAvailable(ctx context.Context) bool
	RunAction(ctx context.Context, id schema.ActionID, input string) (schema.Completion, error)
	InsertCompletion(ctx context.Context, text string) (schema.DocumentState, error)
	Usage() schema.Usage
	Settings() schema.Settings
	ApplySettings(ctx context.Context, settings schema.Settings) (schema.Settings, error)
	Export() core.ExportFile
	Import(ctx context.Context, filename, content string) (schema.DocumentState, error)
	Scroll(source scrollsync.Side, editor, preview scrollsync.Geometry) (core.ScrollResult, error)
}

// Server serves the HTTP API.
type Server struct {
	cfg      Config
	session  Session
	hub      *Hub
	renderer core.Renderer
}

// NewServer constructs an HTTP server. A nil hub disables /api/stream.
func NewServer(cfg Config, session Session, hub *Hub) *Server {
	if cfg.MaxImportBytes <= 0 {
		cfg.MaxImportBytes = defaultMaxImportBytes
	}
	return &Server{
		cfg:      cfg,
		session:  session,
		hub:      hub,
		renderer: markdown.New(),
	}
}

// Handler returns an http.Handler for the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/assets/highlight.css", s.handleHighlightCSS)

	mux.HandleFunc("/api/document", s.handleDocument)
	mux.HandleFunc("/api/edit", s.handleEdit)
	mux.HandleFunc("/api/save", s.handleSave)
	mux.HandleFunc("/api/projects", s.handleProjects)
	mux.HandleFunc("/api/projects/activate", s.handleActivate)
	mux.HandleFunc("/api/projects/rename", s.handleRename)
	mux.HandleFunc("/api/projects/delete", s.handleDelete)
	mux.HandleFunc("/api/export", s.handleExport)
	mux.HandleFunc("/api/import", s.handleImport)
	mux.HandleFunc("/api/actions", s.handleActions)
	mux.HandleFunc("/api/ai", s.handleAI)
	mux.HandleFunc("/api/ai/insert", s.handleAIInsert)
	mux.HandleFunc("/api/usage", s.handleUsage)
	mux.HandleFunc("/api/settings", s.handleSettings)
	mux.HandleFunc("/api/scroll", s.handleScroll)
	mux.HandleFunc("/api/render", s.handleRender)
	mux.HandleFunc("/api/stream", s.handleStream)

	return withRequestLogging(mux)
}

func (s *Server) handleHighlightCSS(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	css, err := markdown.HighlightCSS()
	if err != nil {
		logx.Ctx(r.Context()).Warn("http highlight css failed", "err", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = io.WriteString(w, css)
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.session.State())
}

func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req core.EditRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	state, err := s.session.Edit(r.Context(), req)
	s.respondState(w, r, "edit", state, err)
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	state, err := s.session.Save(r.Context())
	s.respondState(w, r, "save", state, err)
}

func (s *Server) handleProjects(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{"projects": s.session.Projects()})
	case http.MethodPost:
		var payload struct {
			Name string `json:"name"`
		}
		if err := decodeOptionalJSON(r.Body, &payload); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		state, err := s.session.NewProject(r.Context(), schema.ProjectName(payload.Name))
		s.respondState(w, r, "project create", state, err)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

type projectPayload struct {
	ID   schema.ProjectID   `json:"id"`
	Name schema.ProjectName `json:"name,omitempty"`
}

func (s *Server) decodeProject(w http.ResponseWriter, r *http.Request) (projectPayload, bool) {
	var payload projectPayload
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return payload, false
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return payload, false
	}
	if strings.TrimSpace(string(payload.ID)) == "" {
		writeError(w, http.StatusBadRequest, errors.New("missing project id"))
		return payload, false
	}
	return payload, true
}

func (s *Server) handleActivate(w http.ResponseWriter, r *http.Request) {
	payload, ok := s.decodeProject(w, r)
	if !ok {
		return
	}
	state, err := s.session.LoadProject(r.Context(), payload.ID)
	s.respondState(w, r, "project load", state, err)
}

func (s *Server) handleRename(w http.ResponseWriter, r *http.Request) {
	payload, ok := s.decodeProject(w, r)
	if !ok {
		return
	}
	state, err := s.session.RenameProject(r.Context(), payload.ID, payload.Name)
	s.respondState(w, r, "project rename", state, err)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	payload, ok := s.decodeProject(w, r)
	if !ok {
		return
	}
	state, err := s.session.DeleteProject(r.Context(), payload.ID)
	s.respondState(w, r, "project delete", state, err)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	file := s.session.Export()
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": file.Name}))
	_, _ = io.WriteString(w, file.Content)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		writeError(w, http.StatusBadRequest, errors.New("missing file name"))
		return
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, s.cfg.MaxImportBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if int64(len(data)) > s.cfg.MaxImportBytes {
		writeError(w, http.StatusRequestEntityTooLarge, fmt.Errorf("file exceeds %d bytes", s.cfg.MaxImportBytes))
		return
	}
	state, err := s.session.Import(r.Context(), name, string(data))
	s.respondState(w, r, "import", state, err)
}

type actionPayload struct {
	ID          schema.ActionID `json:"id"`
	Title       string          `json:"title"`
	Label       string          `json:"label"`
	Placeholder string          `json:"placeholder"`
}

func (s *Server) handleActions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	actions := s.session.Actions()
	out := make([]actionPayload, 0, len(actions))
	for _, action := range actions {
		out = append(out, actionPayload{
			ID:          action.ID,
			Title:       action.Title,
			Label:       action.Label,
			Placeholder: action.Placeholder,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"actions":   out,
		"available": s.session.AIAvailable(r.Context()),
	})
}

func (s *Server) handleAI(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var payload struct {
		Action schema.ActionID `json:"action"`
		Input  string          `json:"input"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	log := logx.WithAction(logx.Ctx(r.Context()), payload.Action)
	result, err := s.session.RunAction(r.Context(), payload.Action, payload.Input)
	if err != nil {
		log.Warn("http ai failed", "err", err)
		writeError(w, statusForError(err), err)
		return
	}
	log.Info("http ai ok", "tokens", result.Usage.TotalTokens)
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleAIInsert(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var payload struct {
		Text string `json:"text"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	state, err := s.session.InsertCompletion(r.Context(), payload.Text)
	s.respondState(w, r, "ai insert", state, err)
}

func (s *Server) handleUsage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.session.Usage())
}

type settingsView struct {
	APIKey    string `json:"apiKey"`
	APIKeySet bool   `json:"apiKeySet"`
	AutoSave  bool   `json:"autoSave"`
	FontSize  int    `json:"fontSize"`
}

func viewSettings(settings schema.Settings) settingsView {
	return settingsView{
		APIKey:    MaskCredential(settings.APIKey),
		APIKeySet: settings.APIKey != "",
		AutoSave:  settings.AutoSave,
		FontSize:  settings.FontSize,
	}
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, viewSettings(s.session.Settings()))
	case http.MethodPost:
		var payload struct {
			APIKey   *string `json:"apiKey"`
			AutoSave *bool   `json:"autoSave"`
			FontSize *int    `json:"fontSize"`
		}
		if err := decodeJSON(r.Body, &payload); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		next := s.session.Settings()
		if payload.APIKey != nil {
			next.APIKey = strings.TrimSpace(*payload.APIKey)
		}
		if payload.AutoSave != nil {
			next.AutoSave = *payload.AutoSave
		}
		if payload.FontSize != nil {
			next.FontSize = *payload.FontSize
		}
		applied, err := s.session.ApplySettings(r.Context(), next)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, viewSettings(applied))
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleScroll(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var payload struct {
		Source  scrollsync.Side     `json:"source"`
		Editor  scrollsync.Geometry `json:"editor"`
		Preview scrollsync.Geometry `json:"preview"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	result, err := s.session.Scroll(payload.Source, payload.Editor, payload.Preview)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var payload struct {
		Text string `json:"text"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, s.renderer.Render(payload.Text))
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.hub == nil {
		writeError(w, http.StatusNotFound, errors.New("stream disabled"))
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, errors.New("stream unsupported"))
		return
	}
	log := logx.Ctx(r.Context())

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	lastID := parseUint(r.Header.Get("Last-Event-ID"))

	ch, unsubscribe := s.hub.Subscribe()
	defer unsubscribe()

	state := s.session.State()
	_ = writeSSEvent(w, StreamEvent{
		Type:      "snapshot",
		ProjectID: state.ProjectID,
		State:     &state,
		Timestamp: time.Now(),
	})
	replayCount := 0
	if lastID > 0 {
		replay := s.hub.Replay(lastID)
		replayCount = len(replay)
		for _, event := range replay {
			_ = writeSSEvent(w, event)
		}
	}
	flusher.Flush()

	notify := r.Context().Done()
	log.Info("http stream opened", "last_id", lastID, "replay", replayCount)
	for {
		select {
		case <-notify:
			log.Info("http stream closed")
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			if event.Seq <= lastID {
				continue
			}
			_ = writeSSEvent(w, event)
			flusher.Flush()
		}
	}
}

func (s *Server) respondState(w http.ResponseWriter, r *http.Request, op string, state schema.DocumentState, err error) {
	if err != nil {
		logx.WithProject(r.Context(), state.ProjectID).Debug("http "+op+" failed", "err", err)
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// statusForError maps session and completion errors to HTTP status codes.
func statusForError(err error) int {
	var serviceErr *schema.ServiceError
	switch {
	case errors.Is(err, schema.ErrMissingCredential),
		errors.Is(err, schema.ErrUnknownAction),
		errors.Is(err, schema.ErrEmptyInput),
		errors.Is(err, schema.ErrEmptyName),
		errors.Is(err, schema.ErrUnknownEditOp),
		errors.Is(err, schema.ErrUnknownToolbarAction):
		return http.StatusBadRequest
	case errors.Is(err, schema.ErrInvalidCredential):
		return http.StatusUnauthorized
	case errors.Is(err, schema.ErrAccessDenied):
		return http.StatusForbidden
	case errors.Is(err, schema.ErrProjectNotFound):
		return http.StatusNotFound
	case errors.Is(err, schema.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.As(err, &serviceErr),
		errors.Is(err, schema.ErrServiceError),
		errors.Is(err, schema.ErrTransport),
		errors.Is(err, schema.ErrEmptyResponse):
		return http.StatusBadGateway
	case errors.Is(err, schema.ErrSessionClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// MaskCredential hides all but the ends of an API key.
func MaskCredential(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:3] + "..." + key[len(key)-4:]
}

func decodeJSON(body io.Reader, target any) error {
	decoder := json.NewDecoder(body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

func decodeOptionalJSON(body io.Reader, target any) error {
	if err := decodeJSON(body, target); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	data, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"error": err.Error()})
}

func writeSSEvent(w http.ResponseWriter, event StreamEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if event.Seq > 0 {
		_, _ = fmt.Fprintf(w, "id: %d\n", event.Seq)
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", event.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", strings.TrimSpace(string(data)))
	return nil
}

func parseUint(value string) uint64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0
	}
	return parsed
}
