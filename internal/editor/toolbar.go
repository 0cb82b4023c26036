package editor

import (
	"fmt"
	"strings"

	"pkt.systems/inkwell/schema"
)

// ToolbarAction names a formatting command.
type ToolbarAction string

// Toolbar actions.
const (
	ActionH1            ToolbarAction = "h1"
	ActionH2            ToolbarAction = "h2"
	ActionH3            ToolbarAction = "h3"
	ActionH4            ToolbarAction = "h4"
	ActionH5            ToolbarAction = "h5"
	ActionH6            ToolbarAction = "h6"
	ActionBold          ToolbarAction = "bold"
	ActionItalic        ToolbarAction = "italic"
	ActionStrikethrough ToolbarAction = "strikethrough"
	ActionHighlight     ToolbarAction = "highlight"
	ActionSubscript     ToolbarAction = "subscript"
	ActionSuperscript   ToolbarAction = "superscript"
	ActionCodeInline    ToolbarAction = "code-inline"
	ActionCodeBlock     ToolbarAction = "code-block"
	ActionLink          ToolbarAction = "link"
	ActionImage         ToolbarAction = "image"
	ActionUnordered     ToolbarAction = "ul"
	ActionOrdered       ToolbarAction = "ol"
	ActionChecklist     ToolbarAction = "checklist"
	ActionQuote         ToolbarAction = "quote"
	ActionTable         ToolbarAction = "table"
	ActionRule          ToolbarAction = "hr"
	ActionBadge         ToolbarAction = "badge"
	ActionDetails       ToolbarAction = "details"
	ActionAlertNote     ToolbarAction = "alert-note"
	ActionAlertWarning  ToolbarAction = "alert-warning"
	ActionFootnote      ToolbarAction = "footnote"
	ActionTOC           ToolbarAction = "toc"

	// ActionSave is produced by the save shortcut; it is not a buffer edit.
	ActionSave ToolbarAction = "save"
)

type toolbarKind int

const (
	kindWrap toolbarKind = iota
	kindPrefix
	kindBlock
)

type toolbarEntry struct {
	kind        toolbarKind
	before      string
	after       string
	placeholder string
}

func wrap(before, after, placeholder string) toolbarEntry {
	return toolbarEntry{kind: kindWrap, before: before, after: after, placeholder: placeholder}
}

func prefix(p string) toolbarEntry {
	return toolbarEntry{kind: kindPrefix, before: p}
}

func block(text string) toolbarEntry {
	return toolbarEntry{kind: kindBlock, before: text}
}

var toolbarOrder = []ToolbarAction{
	ActionH1, ActionH2, ActionH3, ActionH4, ActionH5, ActionH6,
	ActionBold, ActionItalic, ActionStrikethrough, ActionHighlight,
	ActionSubscript, ActionSuperscript, ActionCodeInline, ActionCodeBlock,
	ActionLink, ActionImage, ActionUnordered, ActionOrdered, ActionChecklist,
	ActionQuote, ActionTable, ActionRule, ActionBadge, ActionDetails,
	ActionAlertNote, ActionAlertWarning, ActionFootnote, ActionTOC,
}

var toolbar = map[ToolbarAction]toolbarEntry{
	ActionH1:            prefix("# "),
	ActionH2:            prefix("## "),
	ActionH3:            prefix("### "),
	ActionH4:            prefix("#### "),
	ActionH5:            prefix("##### "),
	ActionH6:            prefix("###### "),
	ActionBold:          wrap("**", "**", "bold text"),
	ActionItalic:        wrap("*", "*", "italic text"),
	ActionStrikethrough: wrap("~~", "~~", "strikethrough"),
	ActionHighlight:     wrap("==", "==", "highlighted text"),
	ActionSubscript:     wrap("<sub>", "</sub>", "subscript"),
	ActionSuperscript:   wrap("<sup>", "</sup>", "superscript"),
	ActionCodeInline:    wrap("`", "`", "code"),
	ActionCodeBlock:     block("```javascript\n// your code here\n```"),
	ActionLink:          wrap("[", "](https://)", "link text"),
	ActionImage:         wrap("![", "](https://image-url)", "alt text"),
	ActionUnordered:     prefix("- "),
	ActionOrdered:       prefix("1. "),
	ActionChecklist:     block("- [ ] Task 1\n- [ ] Task 2\n- [ ] Task 3"),
	ActionQuote:         prefix("> "),
	ActionTable: block(strings.Join([]string{
		"| Header 1 | Header 2 | Header 3 |",
		"|----------|----------|----------|",
		"| Cell 1   | Cell 2   | Cell 3   |",
		"| Cell 4   | Cell 5   | Cell 6   |",
	}, "\n")),
	ActionRule:         block("---"),
	ActionBadge:        wrap("![", "](https://img.shields.io/badge/label-message-color)", "Badge"),
	ActionDetails:      block("<details>\n<summary>Click to expand</summary>\n\nHidden content goes here...\n\n</details>"),
	ActionAlertNote:    block("> [!NOTE]\n> Useful information that users should know."),
	ActionAlertWarning: block("> [!WARNING]\n> Critical content demanding immediate attention."),
	ActionFootnote:     wrap("[^", "]", "1"),
	ActionTOC: block(strings.Join([]string{
		"## Table of Contents",
		"",
		"- [Introduction](#introduction)",
		"- [Features](#features)",
		"- [Installation](#installation)",
		"- [Usage](#usage)",
		"- [Contributing](#contributing)",
		"- [License](#license)",
	}, "\n")),
}

// ToolbarActions returns every toolbar action in display order.
func ToolbarActions() []ToolbarAction {
	out := make([]ToolbarAction, len(toolbarOrder))
	copy(out, toolbarOrder)
	return out
}

// ApplyToolbar runs a toolbar action against the buffer.
func (b *Buffer) ApplyToolbar(action ToolbarAction) (Snapshot, error) {
	entry, ok := toolbar[action]
	if !ok {
		return b.Snapshot(), fmt.Errorf("%w: %s", schema.ErrUnknownToolbarAction, action)
	}
	switch entry.kind {
	case kindPrefix:
		return b.ToggleLinePrefix(entry.before), nil
	case kindBlock:
		return b.InsertBlock(entry.before), nil
	default:
		return b.WrapSelection(entry.before, entry.after, entry.placeholder), nil
	}
}

// ShortcutAction maps a Ctrl/Cmd key to its action.
func ShortcutAction(key string) (ToolbarAction, bool) {
	switch strings.ToLower(key) {
	case "b":
		return ActionBold, true
	case "i":
		return ActionItalic, true
	case "k":
		return ActionLink, true
	case "s":
		return ActionSave, true
	case "1":
		return ActionH1, true
	case "2":
		return ActionH2, true
	case "3":
		return ActionH3, true
	default:
		return "", false
	}
}
