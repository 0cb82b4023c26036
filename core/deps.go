package core

import (
	"context"

	"pkt.systems/inkwell/internal/schedule"
	"pkt.systems/inkwell/schema"
	"pkt.systems/pslog"
)

// ProjectStore persists projects and the active project id.
type ProjectStore interface {
	List() []schema.Project
	Create(name schema.ProjectName, content string) schema.ProjectID
	Get(id schema.ProjectID) (schema.Project, bool)
	Update(id schema.ProjectID, patch schema.ProjectPatch) (schema.Project, bool)
	Delete(id schema.ProjectID)
	ActiveID() schema.ProjectID
	SetActiveID(id schema.ProjectID)
}

// SettingsStore persists the settings singleton.
type SettingsStore interface {
	Get() schema.Settings
	Set(settings schema.Settings) error
}

// Completer runs prompt actions against a completion service.
type Completer interface {
	Available(ctx context.Context) bool
	RunAction(ctx context.Context, id schema.ActionID, input string) (schema.Completion, error)
}

// UsageSource reports session usage totals.
type UsageSource interface {
	Snapshot() schema.Usage
}

// SessionDeps captures the collaborators of a session. Projects and Settings
// are required.
type SessionDeps struct {
	Projects  ProjectStore
	Settings  SettingsStore
	Completer Completer
	Ledger    UsageSource
	Renderer  Renderer
	EventSink EventSink
	Clock     schedule.Clock
	Logger    pslog.Logger
}
