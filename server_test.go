package inkwell

import (
	"context"
	"testing"
	"time"

	"pkt.systems/inkwell/core"
	"pkt.systems/inkwell/internal/appconfig"
	"pkt.systems/inkwell/internal/persist"
	"pkt.systems/inkwell/internal/projects"
	"pkt.systems/inkwell/internal/settings"
	"pkt.systems/inkwell/schema"
)

type recordingSink struct {
	events chan schema.DocumentEvent
}

func (r recordingSink) OnDocumentEvent(event schema.DocumentEvent) {
	select {
	case r.events <- event:
	default:
	}
}

func noEnv(string) (string, bool) { return "", false }

func newTestServer(t *testing.T, sink core.EventSink) *Composite {
	t.Helper()
	kv := persist.NewMemory()
	srv, err := New(ServerConfig{
		Session: schema.SessionConfig{StateDir: t.TempDir(), SaveDebounce: time.Hour},
	}, ServerDeps{SessionDeps: core.SessionDeps{
		Projects:  projects.NewStore(kv, projects.Options{}),
		Settings:  settings.NewStore(kv, settings.Options{LookupEnv: noEnv}),
		EventSink: sink,
	}})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	return srv
}

func TestServerStartOpensSessionAndFansOutEvents(t *testing.T) {
	sink := recordingSink{events: make(chan schema.DocumentEvent, 16)}
	srv := newTestServer(t, sink)
	events, unsubscribe := srv.Events().Subscribe()
	defer unsubscribe()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := srv.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := srv.Start(ctx); err == nil {
		t.Fatalf("expected second start to fail")
	}
	state := srv.Session().State()
	if state.ProjectName != projects.DefaultName {
		t.Fatalf("expected starter project, got %q", state.ProjectName)
	}
	if _, err := srv.Session().Save(ctx); err != nil {
		t.Fatalf("save: %v", err)
	}

	waitFor := func(ch <-chan schema.DocumentEvent, kind schema.DocumentEventType) {
		t.Helper()
		timeout := time.After(2 * time.Second)
		for {
			select {
			case ev := <-ch:
				if ev.Type == kind {
					return
				}
			case <-timeout:
				t.Fatalf("timed out waiting for %s", kind)
			}
		}
	}
	waitFor(events, schema.DocumentSaved)
	waitFor(sink.events, schema.DocumentSaved)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer stopCancel()
	if err := srv.Stop(stopCtx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if err := srv.Wait(); err != nil {
		t.Fatalf("wait: %v", err)
	}
	if _, err := srv.Session().Save(context.Background()); err != schema.ErrSessionClosed {
		t.Fatalf("expected closed session, got %v", err)
	}
}

func TestWaitBeforeStart(t *testing.T) {
	srv := newTestServer(t, nil)
	if err := srv.Wait(); err == nil {
		t.Fatalf("expected wait to fail before start")
	}
	if err := srv.Stop(context.Background()); err != nil {
		t.Fatalf("stop before start: %v", err)
	}
}

func TestNewStackBuildsStores(t *testing.T) {
	cfg, err := appconfig.DefaultConfig()
	if err != nil {
		t.Fatalf("default config: %v", err)
	}
	dir := t.TempDir()
	cfg.StateDir = dir
	cfg.Secrets.Enabled = false
	stack, err := NewStack(cfg, nil)
	if err != nil {
		t.Fatalf("new stack: %v", err)
	}
	if stack.Store.Dir() != dir {
		t.Fatalf("expected state dir %q, got %q", dir, stack.Store.Dir())
	}
	id := stack.Projects.Create("Notes", "# Notes\n")
	if _, ok := stack.Projects.Get(id); !ok {
		t.Fatalf("expected project %q", id)
	}
	deps := stack.SessionDeps(nil)
	if deps.Completer == nil || deps.Ledger == nil || deps.Renderer == nil {
		t.Fatalf("expected completer, ledger and renderer to be wired")
	}
	if got := stack.Ledger.Snapshot(); got.TotalTokens != 0 {
		t.Fatalf("expected empty ledger, got %+v", got)
	}
}
