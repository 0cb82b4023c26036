package httpapi

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"pkt.systems/inkwell/core"
	"pkt.systems/inkwell/internal/persist"
	"pkt.systems/inkwell/internal/projects"
	"pkt.systems/inkwell/internal/schedule"
	"pkt.systems/inkwell/internal/settings"
	"pkt.systems/inkwell/schema"
)

type stubCompleter struct {
	result schema.Completion
	err    error
}

func (s *stubCompleter) Available(context.Context) bool { return true }

func (s *stubCompleter) RunAction(context.Context, schema.ActionID, string) (schema.Completion, error) {
	return s.result, s.err
}

func newTestServer(t *testing.T) (*httptest.Server, *core.Session, *stubCompleter, *Hub) {
	t.Helper()
	kv := persist.NewMemory()
	clock := schedule.NewManualClock(time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC))
	completer := &stubCompleter{}
	hub := NewHub(16, nil)
	session, err := core.NewSession(schema.SessionConfig{StateDir: t.TempDir()}, core.SessionDeps{
		Projects:  projects.NewStore(kv, projects.Options{Now: clock.Now}),
		Settings:  settings.NewStore(kv, settings.Options{LookupEnv: func(string) (string, bool) { return "", false }}),
		Completer: completer,
		EventSink: hub,
		Clock:     clock,
	})
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if _, err := session.Open(context.Background()); err != nil {
		t.Fatalf("open: %v", err)
	}
	srv := httptest.NewServer(NewServer(Config{MaxImportBytes: 64}, session, hub).Handler())
	t.Cleanup(srv.Close)
	return srv, session, completer, hub
}

func doJSON(t *testing.T, method, url, body string, out any) int {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode: %v", err)
		}
	}
	return resp.StatusCode
}

func TestDocumentAndEdit(t *testing.T) {
	srv, _, _, _ := newTestServer(t)
	var state schema.DocumentState
	if status := doJSON(t, http.MethodGet, srv.URL+"/api/document", "", &state); status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if state.Text != core.StarterContent {
		t.Fatalf("unexpected text %q", state.Text)
	}

	body := `{"op":"replace","selection":{"start":0,"end":1000},"text":"hello"}`
	if status := doJSON(t, http.MethodPost, srv.URL+"/api/edit", body, &state); status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if state.Text != "hello" || state.SaveStatus != schema.SaveStatusUnsaved {
		t.Fatalf("unexpected state %+v", state)
	}
	if state.View.Words != 1 || !strings.Contains(state.View.HTML, "hello") {
		t.Fatalf("unexpected view %+v", state.View)
	}
	if status := doJSON(t, http.MethodPost, srv.URL+"/api/save", "", &state); status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if state.SaveStatus != schema.SaveStatusSaved {
		t.Fatalf("expected saved")
	}

	var errBody map[string]string
	if status := doJSON(t, http.MethodPost, srv.URL+"/api/edit", `{"op":"yell"}`, &errBody); status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", status)
	}
	if !strings.Contains(errBody["error"], "unknown edit operation") {
		t.Fatalf("unexpected error body %v", errBody)
	}
	if status := doJSON(t, http.MethodGet, srv.URL+"/api/edit", "", nil); status != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", status)
	}
}

func TestProjectEndpoints(t *testing.T) {
	srv, _, _, _ := newTestServer(t)
	var created schema.DocumentState
	if status := doJSON(t, http.MethodPost, srv.URL+"/api/projects", `{"name":"Second"}`, &created); status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if created.ProjectName != "Second" || created.Text != core.NewProjectContent {
		t.Fatalf("unexpected created state %+v", created)
	}
	var list struct {
		Projects []core.ProjectSummary `json:"projects"`
	}
	doJSON(t, http.MethodGet, srv.URL+"/api/projects", "", &list)
	if len(list.Projects) != 2 || !list.Projects[0].Active {
		t.Fatalf("unexpected project list %+v", list.Projects)
	}
	other := list.Projects[1].ID

	var state schema.DocumentState
	if status := doJSON(t, http.MethodPost, srv.URL+"/api/projects/activate", `{"id":"`+string(other)+`"}`, &state); status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if state.ProjectID != other {
		t.Fatalf("expected activated project")
	}
	if status := doJSON(t, http.MethodPost, srv.URL+"/api/projects/rename", `{"id":"`+string(other)+`","name":"  "}`, nil); status != http.StatusBadRequest {
		t.Fatalf("expected 400 for blank name, got %d", status)
	}
	if status := doJSON(t, http.MethodPost, srv.URL+"/api/projects/rename", `{"id":"`+string(other)+`","name":"Renamed"}`, &state); status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if state.ProjectName != "Renamed" {
		t.Fatalf("expected renamed project, got %q", state.ProjectName)
	}
	if status := doJSON(t, http.MethodPost, srv.URL+"/api/projects/delete", `{"id":"nope"}`, nil); status != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", status)
	}
	if status := doJSON(t, http.MethodPost, srv.URL+"/api/projects/delete", `{"id":""}`, nil); status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", status)
	}
	if status := doJSON(t, http.MethodPost, srv.URL+"/api/projects/delete", `{"id":"`+string(other)+`"}`, &state); status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if state.ProjectID != created.ProjectID {
		t.Fatalf("expected fallback to remaining project")
	}
}

func TestExportImport(t *testing.T) {
	srv, _, _, _ := newTestServer(t)
	resp, err := http.Post(srv.URL+"/api/import?name=My%20Notes.md", "text/markdown", strings.NewReader("# Notes\n"))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/api/export")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	defer resp.Body.Close()
	if got := resp.Header.Get("Content-Disposition"); got != `attachment; filename=My_Notes.md` {
		t.Fatalf("unexpected disposition %q", got)
	}

	big := strings.Repeat("x", 65)
	resp2, err := http.Post(srv.URL+"/api/import?name=big.md", "text/markdown", strings.NewReader(big))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	resp2.Body.Close()
	if resp2.StatusCode != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", resp2.StatusCode)
	}
}

func TestAIErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{schema.ErrMissingCredential, http.StatusBadRequest},
		{schema.ErrInvalidCredential, http.StatusUnauthorized},
		{schema.ErrAccessDenied, http.StatusForbidden},
		{schema.ErrRateLimited, http.StatusTooManyRequests},
		{&schema.ServiceError{Status: 500, Message: "boom"}, http.StatusBadGateway},
		{errors.Join(schema.ErrTransport, errors.New("dial")), http.StatusBadGateway},
		{schema.ErrEmptyResponse, http.StatusBadGateway},
	}
	srv, _, completer, _ := newTestServer(t)
	for _, tc := range cases {
		completer.err = tc.err
		var body map[string]string
		status := doJSON(t, http.MethodPost, srv.URL+"/api/ai", `{"action":"summarize","input":"text"}`, &body)
		if status != tc.want {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.want, status)
		}
		if body["error"] == "" {
			t.Fatalf("%v: expected error message", tc.err)
		}
	}
	completer.err = nil
	if status := doJSON(t, http.MethodPost, srv.URL+"/api/ai", `{"action":"nope","input":"text"}`, nil); status != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown action, got %d", status)
	}
}

func TestAIRunAndInsert(t *testing.T) {
	srv, _, completer, _ := newTestServer(t)
	completer.result = schema.Completion{Text: "generated", Usage: schema.Usage{TotalTokens: 9}}
	var result schema.Completion
	if status := doJSON(t, http.MethodPost, srv.URL+"/api/ai", `{"action":"improve-text","input":"draft"}`, &result); status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if result.Text != "generated" {
		t.Fatalf("unexpected result %+v", result)
	}
	var state schema.DocumentState
	if status := doJSON(t, http.MethodPost, srv.URL+"/api/ai/insert", `{"text":"generated"}`, &state); status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if !strings.HasSuffix(state.Text, "\ngenerated") {
		t.Fatalf("expected inserted text, got %q", state.Text)
	}
	var actions struct {
		Actions   []map[string]any `json:"actions"`
		Available bool             `json:"available"`
	}
	doJSON(t, http.MethodGet, srv.URL+"/api/actions", "", &actions)
	if len(actions.Actions) != 7 || !actions.Available {
		t.Fatalf("unexpected actions %+v", actions)
	}
	if _, ok := actions.Actions[0]["systemPrompt"]; ok {
		t.Fatalf("system prompt must not be exposed")
	}
}

func TestSettingsMasksCredential(t *testing.T) {
	srv, _, _, _ := newTestServer(t)
	var view settingsView
	if status := doJSON(t, http.MethodPost, srv.URL+"/api/settings", `{"apiKey":"sk-test-1234567890","fontSize":18}`, &view); status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if view.APIKey != "sk-...7890" || !view.APIKeySet || view.FontSize != 18 || !view.AutoSave {
		t.Fatalf("unexpected settings view %+v", view)
	}
	doJSON(t, http.MethodGet, srv.URL+"/api/settings", "", &view)
	if view.APIKey != "sk-...7890" {
		t.Fatalf("expected masked key on read, got %q", view.APIKey)
	}
	doJSON(t, http.MethodPost, srv.URL+"/api/settings", `{"autoSave":false}`, &view)
	if view.AutoSave || !view.APIKeySet {
		t.Fatalf("expected partial update to keep the key, got %+v", view)
	}
}

func TestMaskCredential(t *testing.T) {
	cases := map[string]string{
		"":                "",
		"short":           "*****",
		"sk-abcdefghijkl": "sk-...ijkl",
	}
	for in, want := range cases {
		if got := MaskCredential(in); got != want {
			t.Fatalf("MaskCredential(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestScrollAndRender(t *testing.T) {
	srv, _, _, _ := newTestServer(t)
	var result core.ScrollResult
	body := `{"source":"editor","editor":{"scrollTop":50,"scrollHeight":200,"clientHeight":100},"preview":{"scrollTop":0,"scrollHeight":1100,"clientHeight":100}}`
	if status := doJSON(t, http.MethodPost, srv.URL+"/api/scroll", body, &result); status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if !result.Synced || result.Preview.Top != 500 {
		t.Fatalf("unexpected scroll result %+v", result)
	}
	if status := doJSON(t, http.MethodPost, srv.URL+"/api/scroll", `{"source":"left"}`, nil); status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", status)
	}

	var view schema.View
	if status := doJSON(t, http.MethodPost, srv.URL+"/api/render", `{"text":"   "}`, &view); status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if !view.Empty {
		t.Fatalf("expected empty view")
	}
}

func TestHighlightCSS(t *testing.T) {
	srv, _, _, _ := newTestServer(t)
	resp, err := http.Get(srv.URL + "/assets/highlight.css")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK || !strings.HasPrefix(resp.Header.Get("Content-Type"), "text/css") {
		t.Fatalf("unexpected response %d %s", resp.StatusCode, resp.Header.Get("Content-Type"))
	}
}

func TestStreamSendsSnapshotThenEvents(t *testing.T) {
	srv, session, _, _ := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/stream", nil)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	defer resp.Body.Close()
	reader := bufio.NewReader(resp.Body)

	first := readSSEData(t, reader)
	if first.Type != "snapshot" || first.State == nil {
		t.Fatalf("expected snapshot first, got %+v", first)
	}
	if _, err := session.Edit(context.Background(), core.EditRequest{Op: core.EditTab}); err != nil {
		t.Fatalf("edit: %v", err)
	}
	next := readSSEData(t, reader)
	if next.Type != string(schema.DocumentChanged) || next.Seq == 0 {
		t.Fatalf("expected change event, got %+v", next)
	}
}

func readSSEData(t *testing.T, reader *bufio.Reader) StreamEvent {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		line, err := reader.ReadString('\n')
		if err != nil {
			t.Fatalf("read stream: %v", err)
		}
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var event StreamEvent
		if err := json.Unmarshal([]byte(strings.TrimPrefix(strings.TrimSpace(line), "data: ")), &event); err != nil {
			t.Fatalf("decode event: %v", err)
		}
		return event
	}
	t.Fatalf("timed out waiting for event")
	return StreamEvent{}
}

func TestStatusForErrorDefaults(t *testing.T) {
	if got := statusForError(errors.New("odd")); got != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", got)
	}
	if got := statusForError(schema.ErrSessionClosed); got != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", got)
	}
}
