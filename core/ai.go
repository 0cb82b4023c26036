package core

import (
	"context"
	"strings"

	"pkt.systems/inkwell/internal/logx"
	"pkt.systems/inkwell/internal/prompts"
	"pkt.systems/inkwell/schema"
)

// Actions returns the prompt catalog in display order.
func (s *Session) Actions() []prompts.Action {
	return prompts.All()
}

// AIAvailable reports whether completions can run.
func (s *Session) AIAvailable(ctx context.Context) bool {
	return s.completer != nil && s.completer.Available(ctx)
}

// RunAction runs a prompt action. A blank input falls back to the current
// selection. The buffer stays editable while the request is in flight.
func (s *Session) RunAction(ctx context.Context, id schema.ActionID, input string) (schema.Completion, error) {
	if _, ok := prompts.Lookup(id); !ok {
		return schema.Completion{}, schema.ErrUnknownAction
	}
	s.mu.Lock()
	project := s.project
	if strings.TrimSpace(input) == "" && s.buf != nil {
		input = s.buf.Selected()
	}
	s.mu.Unlock()
	if strings.TrimSpace(input) == "" {
		return schema.Completion{}, schema.ErrEmptyInput
	}
	if s.completer == nil {
		return schema.Completion{}, schema.ErrMissingCredential
	}
	log := logx.WithProjectAction(ctx, project, id)
	ctx = logx.ContextWithProjectLogger(logx.ContextWithAction(ctx, id), log, project)
	result, err := s.completer.RunAction(ctx, id, input)
	if err != nil {
		log.Warn("session action failed", "err", err)
		return schema.Completion{}, err
	}
	log.Info("session action ok", "tokens", result.Usage.TotalTokens)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sink != nil {
		session := result.Session
		s.sink.OnDocumentEvent(schema.DocumentEvent{
			Type:      schema.DocumentUsage,
			ProjectID: s.project,
			Usage:     &session,
			Timestamp: s.clock.Now(),
		})
	}
	return result, nil
}

// InsertCompletion merges text into the buffer at the cursor as a separate
// paragraph.
func (s *Session) InsertCompletion(ctx context.Context, text string) (schema.DocumentState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return schema.DocumentState{}, schema.ErrSessionClosed
	}
	if strings.TrimSpace(text) == "" {
		return s.stateLocked(), schema.ErrEmptyInput
	}
	s.buf.InsertAtCursor(text)
	logx.WithProject(ctx, s.project).Debug("session insert ok", "chars", len([]rune(text)))
	return s.stateLocked(), nil
}

// Usage returns the session usage totals.
func (s *Session) Usage() schema.Usage {
	if s.ledger == nil {
		return schema.Usage{}
	}
	return s.ledger.Snapshot()
}
