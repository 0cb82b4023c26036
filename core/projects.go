package core

import (
	"context"
	"strings"
	"time"

	"pkt.systems/inkwell/internal/logx"
	"pkt.systems/inkwell/internal/projects"
	"pkt.systems/inkwell/schema"
)

// ProjectSummary is a project list entry.
type ProjectSummary struct {
	ID        schema.ProjectID   `json:"id"`
	Name      schema.ProjectName `json:"name"`
	Chars     int                `json:"chars"`
	UpdatedAt string             `json:"updatedAt"`
	Updated   string             `json:"updated"`
	Active    bool               `json:"active"`
}

// Projects lists stored projects, newest first.
func (s *Session) Projects() []ProjectSummary {
	s.mu.Lock()
	active := s.project
	s.mu.Unlock()
	now := s.clock.Now()
	list := s.projects.List()
	out := make([]ProjectSummary, 0, len(list))
	for _, p := range list {
		out = append(out, ProjectSummary{
			ID:        p.ID,
			Name:      p.Name,
			Chars:     len([]rune(p.Content)),
			UpdatedAt: p.UpdatedAt.Format(time.RFC3339),
			Updated:   projects.FormatRelative(p.UpdatedAt, now),
			Active:    p.ID == active,
		})
	}
	return out
}

// NewProject flushes the active buffer and switches to a new project.
func (s *Session) NewProject(ctx context.Context, name schema.ProjectName) (schema.DocumentState, error) {
	return s.createProject(ctx, name, NewProjectContent)
}

// LoadProject flushes the active buffer and switches to id.
func (s *Session) LoadProject(ctx context.Context, id schema.ProjectID) (schema.DocumentState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return schema.DocumentState{}, schema.ErrSessionClosed
	}
	s.flushLocked()
	project, ok := s.projects.Get(id)
	if !ok {
		return s.stateLocked(), schema.ErrProjectNotFound
	}
	s.attachLocked(project)
	logx.WithProject(ctx, id).Info("project load ok", "name", project.Name)
	s.publishLocked(schema.DocumentProject, true)
	return s.stateLocked(), nil
}

// RenameProject renames id. The name is trimmed and must not be empty.
func (s *Session) RenameProject(ctx context.Context, id schema.ProjectID, name schema.ProjectName) (schema.DocumentState, error) {
	name = schema.ProjectName(strings.TrimSpace(string(name)))
	if name == "" {
		return s.State(), schema.ErrEmptyName
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return schema.DocumentState{}, schema.ErrSessionClosed
	}
	if _, ok := s.projects.Update(id, schema.ProjectPatch{Name: &name}); !ok {
		return s.stateLocked(), schema.ErrProjectNotFound
	}
	if id == s.project {
		s.name = name
	}
	logx.WithProject(ctx, id).Info("project rename ok", "name", name)
	s.publishLocked(schema.DocumentProject, true)
	return s.stateLocked(), nil
}

// DeleteProject removes id. Deleting the active project loads the first
// remaining project or creates an empty one.
func (s *Session) DeleteProject(ctx context.Context, id schema.ProjectID) (schema.DocumentState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return schema.DocumentState{}, schema.ErrSessionClosed
	}
	if _, ok := s.projects.Get(id); !ok {
		return s.stateLocked(), schema.ErrProjectNotFound
	}
	log := logx.WithProject(ctx, id)
	if id != s.project {
		s.projects.Delete(id)
		log.Info("project delete ok")
		s.publishLocked(schema.DocumentProject, true)
		return s.stateLocked(), nil
	}
	s.saver.Cancel()
	s.dirty = false
	s.projects.Delete(id)
	next, ok := schema.Project{}, false
	if list := s.projects.List(); len(list) > 0 {
		next, ok = list[0], true
	}
	if !ok {
		next = s.createLocked(projects.DefaultName, "")
	}
	s.attachLocked(next)
	log.Info("project delete ok", "next", next.ID)
	s.publishLocked(schema.DocumentProject, true)
	return s.stateLocked(), nil
}

func (s *Session) createProject(ctx context.Context, name schema.ProjectName, content string) (schema.DocumentState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return schema.DocumentState{}, schema.ErrSessionClosed
	}
	s.flushLocked()
	project := s.createLocked(name, content)
	s.attachLocked(project)
	logx.WithProject(ctx, project.ID).Info("project create ok", "name", project.Name)
	s.publishLocked(schema.DocumentProject, true)
	return s.stateLocked(), nil
}

func (s *Session) createLocked(name schema.ProjectName, content string) schema.Project {
	id := s.projects.Create(name, content)
	if project, ok := s.projects.Get(id); ok {
		return project
	}
	if strings.TrimSpace(string(name)) == "" {
		name = projects.DefaultName
	}
	return schema.Project{ID: id, Name: name, Content: content}
}
