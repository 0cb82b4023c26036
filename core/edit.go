package core

import (
	"context"
	"fmt"

	"pkt.systems/inkwell/internal/editor"
	"pkt.systems/inkwell/internal/logx"
	"pkt.systems/inkwell/schema"
)

// EditOp names a buffer operation.
type EditOp string

const (
	// EditReplace replaces the selection (or Selection when given) with Text.
	EditReplace EditOp = "replace"
	// EditSelect sets the selection.
	EditSelect EditOp = "select"
	// EditWrap wraps the selection in Before and After.
	EditWrap EditOp = "wrap"
	// EditPrefix toggles Prefix on the current line.
	EditPrefix EditOp = "prefix"
	// EditBlock inserts Text as a block.
	EditBlock EditOp = "block"
	// EditTab inserts an indent.
	EditTab EditOp = "tab"
	// EditEnter continues a list or inserts a newline.
	EditEnter EditOp = "enter"
	// EditInsert inserts Text at the cursor as a separated paragraph.
	EditInsert EditOp = "insert"
	// EditToolbar applies a toolbar action.
	EditToolbar EditOp = "toolbar"
)

// EditRequest describes one edit. When Selection is set it is applied
// before the operation runs.
type EditRequest struct {
	Op          EditOp               `json:"op"`
	Selection   *schema.Selection    `json:"selection,omitempty"`
	Text        string               `json:"text,omitempty"`
	Before      string               `json:"before,omitempty"`
	After       string               `json:"after,omitempty"`
	Placeholder string               `json:"placeholder,omitempty"`
	Prefix      string               `json:"prefix,omitempty"`
	Action      editor.ToolbarAction `json:"action,omitempty"`
}

// Edit applies req to the active buffer and returns the resulting state.
func (s *Session) Edit(ctx context.Context, req EditRequest) (schema.DocumentState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return schema.DocumentState{}, schema.ErrSessionClosed
	}
	if req.Selection != nil {
		s.buf.Select(req.Selection.Start, req.Selection.End)
	}
	switch req.Op {
	case EditReplace:
		sel := s.buf.Selection()
		s.buf.Replace(sel.Start, sel.End, req.Text)
	case EditSelect:
	case EditWrap:
		s.buf.WrapSelection(req.Before, req.After, req.Placeholder)
	case EditPrefix:
		s.buf.ToggleLinePrefix(req.Prefix)
	case EditBlock:
		s.buf.InsertBlock(req.Text)
	case EditTab:
		s.buf.HandleTab()
	case EditEnter:
		if _, ok := s.buf.HandleEnter(); !ok {
			s.buf.Newline()
		}
	case EditInsert:
		s.buf.InsertAtCursor(req.Text)
	case EditToolbar:
		if req.Action == editor.ActionSave {
			s.saver.Cancel()
			s.persistLocked(true)
			break
		}
		if _, err := s.buf.ApplyToolbar(req.Action); err != nil {
			logx.WithProject(ctx, s.project).Debug("session edit rejected", "action", req.Action, "err", err)
			return s.stateLocked(), err
		}
	default:
		return s.stateLocked(), fmt.Errorf("%w: %q", schema.ErrUnknownEditOp, req.Op)
	}
	return s.stateLocked(), nil
}
