package core

import (
	"fmt"

	"pkt.systems/inkwell/internal/scrollsync"
)

// ScrollResult carries both pane geometries after a scroll event.
type ScrollResult struct {
	Editor  scrollsync.Geometry `json:"editor"`
	Preview scrollsync.Geometry `json:"preview"`
	Synced  bool                `json:"synced"`
}

// Scroll records the reported pane geometries and mirrors the source pane's
// position onto the other pane.
func (s *Session) Scroll(source scrollsync.Side, editor, preview scrollsync.Geometry) (ScrollResult, error) {
	if !source.Valid() {
		return ScrollResult{}, fmt.Errorf("invalid scroll source %q", source)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	*s.editorPane = editor
	*s.previewPane = preview
	synced := s.scroll.OnScroll(source)
	return ScrollResult{
		Editor:  *s.editorPane,
		Preview: *s.previewPane,
		Synced:  synced,
	}, nil
}
