// Package projects stores named markdown documents and the active project id
// in a key-value store.
package projects

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"pkt.systems/inkwell/internal/persist"
	"pkt.systems/inkwell/schema"
	"pkt.systems/pslog"
)

// Storage keys.
const (
	ProjectsKey = "inkwell_projects"
	ActiveKey   = "inkwell_active_project"

	legacyProjectsKey = "markcraft_projects"
	legacyActiveKey   = "markcraft_active_project"
	legacySettingsKey = "markcraft_settings"
)

// DefaultName is used when a project is created without a name.
const DefaultName schema.ProjectName = "Untitled Project"

// Options configures a Store.
type Options struct {
	Logger pslog.Logger
	// Now overrides the timestamp source.
	Now func() time.Time
}

// Store is a best-effort project store: read failures degrade to empty
// results and write failures are logged, never returned.
type Store struct {
	kv  persist.KV
	log pslog.Logger
	now func() time.Time
	mu  sync.Mutex
}

// NewStore wraps kv and migrates legacy keys once.
func NewStore(kv persist.KV, opts Options) *Store {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	s := &Store{kv: kv, log: opts.Logger, now: now}
	s.migrate()
	return s
}

// migrate copies legacy project data to the current keys when those are
// unset and drops legacy settings so a fresh credential is entered.
func (s *Store) migrate() {
	for _, pair := range [][2]string{{legacyProjectsKey, ProjectsKey}, {legacyActiveKey, ActiveKey}} {
		from, to := pair[0], pair[1]
		old, ok, err := s.kv.Get(from)
		if err != nil || !ok || len(old) == 0 {
			continue
		}
		if _, exists, err := s.kv.Get(to); err != nil || exists {
			continue
		}
		if err := s.kv.Set(to, old); err != nil {
			s.warn("project migration failed", "from", from, "to", to, "err", err)
			continue
		}
		s.debug("project migration ok", "from", from, "to", to)
	}
	if err := s.kv.Delete(legacySettingsKey); err != nil {
		s.warn("legacy settings removal failed", "err", err)
	}
}

// List returns every project, newest first.
func (s *Store) List() []schema.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

// Create adds a project at the front of the list and makes it active.
func (s *Store) Create(name schema.ProjectName, content string) schema.ProjectID {
	if strings.TrimSpace(string(name)) == "" {
		name = DefaultName
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now().UTC()
	project := schema.Project{
		ID:        newID(),
		Name:      name,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	projects := append([]schema.Project{project}, s.loadLocked()...)
	s.saveLocked(projects)
	s.setActiveLocked(project.ID)
	s.debug("project create ok", "project", project.ID, "name", project.Name)
	return project.ID
}

// Get returns the project with id.
func (s *Store) Get(id schema.ProjectID) (schema.Project, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.loadLocked() {
		if p.ID == id {
			return p, true
		}
	}
	return schema.Project{}, false
}

// Update applies patch to the project and refreshes UpdatedAt.
func (s *Store) Update(id schema.ProjectID, patch schema.ProjectPatch) (schema.Project, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	projects := s.loadLocked()
	for i := range projects {
		if projects[i].ID != id {
			continue
		}
		if patch.Name != nil {
			projects[i].Name = *patch.Name
		}
		if patch.Content != nil {
			projects[i].Content = *patch.Content
		}
		projects[i].UpdatedAt = s.now().UTC()
		s.saveLocked(projects)
		return projects[i], true
	}
	return schema.Project{}, false
}

// Delete removes the project and clears the active id when it pointed there.
func (s *Store) Delete(id schema.ProjectID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	projects := s.loadLocked()
	kept := projects[:0]
	for _, p := range projects {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	s.saveLocked(kept)
	if s.activeLocked() == id {
		s.setActiveLocked("")
	}
	s.debug("project delete ok", "project", id)
}

// ActiveID returns the active project id, or "" when none is set.
func (s *Store) ActiveID() schema.ProjectID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeLocked()
}

// SetActiveID records the active project. An empty id clears it.
func (s *Store) SetActiveID(id schema.ProjectID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setActiveLocked(id)
}

func (s *Store) loadLocked() []schema.Project {
	data, ok, err := s.kv.Get(ProjectsKey)
	if err != nil {
		s.warn("project list load failed", "err", err)
		return nil
	}
	if !ok || len(data) == 0 {
		return nil
	}
	var projects []schema.Project
	if err := json.Unmarshal(data, &projects); err != nil {
		s.warn("project list decode failed", "err", err)
		return nil
	}
	return projects
}

func (s *Store) saveLocked(projects []schema.Project) {
	if projects == nil {
		projects = []schema.Project{}
	}
	data, err := json.Marshal(projects)
	if err != nil {
		s.warn("project list encode failed", "err", err)
		return
	}
	if err := s.kv.Set(ProjectsKey, data); err != nil {
		s.warn("project list save failed", "err", err)
	}
}

func (s *Store) activeLocked() schema.ProjectID {
	data, ok, err := s.kv.Get(ActiveKey)
	if err != nil {
		s.warn("active project load failed", "err", err)
		return ""
	}
	if !ok {
		return ""
	}
	var id string
	if err := json.Unmarshal(data, &id); err != nil {
		// Plain ids written by older versions.
		id = strings.TrimSpace(string(data))
	}
	return schema.ProjectID(id)
}

func (s *Store) setActiveLocked(id schema.ProjectID) {
	if id == "" {
		if err := s.kv.Delete(ActiveKey); err != nil {
			s.warn("active project clear failed", "err", err)
		}
		return
	}
	data, err := json.Marshal(string(id))
	if err != nil {
		return
	}
	if err := s.kv.Set(ActiveKey, data); err != nil {
		s.warn("active project save failed", "project", id, "err", err)
	}
}

func (s *Store) warn(msg string, kv ...any) {
	if s.log != nil {
		s.log.Warn(msg, kv...)
	}
}

func (s *Store) debug(msg string, kv ...any) {
	if s.log != nil {
		s.log.Debug(msg, kv...)
	}
}

func newID() schema.ProjectID {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return schema.ProjectID(strings.ReplaceAll(time.Now().UTC().Format("20060102150405.000000000"), ".", ""))
	}
	return schema.ProjectID(hex.EncodeToString(buf[:]))
}
