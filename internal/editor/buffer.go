// Package editor holds the text buffer and its structural edit operations.
//
// Offsets are rune offsets. Every mutating operation clamps the selection,
// applies its edit and notifies listeners exactly once. A Buffer is not safe
// for concurrent use; callers serialize access.
package editor

import (
	"strings"

	"pkt.systems/inkwell/schema"
)

// Snapshot is the buffer state after an operation.
type Snapshot struct {
	Text      string           `json:"text"`
	Selection schema.Selection `json:"selection"`
}

// Listener receives a snapshot after every change.
type Listener func(Snapshot)

// Buffer is a plain-text document with a selection.
type Buffer struct {
	text      []rune
	sel       schema.Selection
	listeners map[int]Listener
	nextID    int
}

// New returns a buffer holding text with the cursor at the end.
func New(text string) *Buffer {
	b := &Buffer{text: []rune(text)}
	b.sel = schema.Selection{Start: len(b.text), End: len(b.text)}
	return b
}

// OnChange registers fn and returns a function that removes it.
func (b *Buffer) OnChange(fn Listener) func() {
	if fn == nil {
		return func() {}
	}
	if b.listeners == nil {
		b.listeners = make(map[int]Listener)
	}
	id := b.nextID
	b.nextID++
	b.listeners[id] = fn
	return func() {
		delete(b.listeners, id)
	}
}

// Snapshot returns the current state.
func (b *Buffer) Snapshot() Snapshot {
	return Snapshot{Text: string(b.text), Selection: b.sel}
}

// Text returns the buffer text.
func (b *Buffer) Text() string {
	return string(b.text)
}

// Selection returns the current selection.
func (b *Buffer) Selection() schema.Selection {
	return b.sel
}

// Len returns the buffer length in runes.
func (b *Buffer) Len() int {
	return len(b.text)
}

// Selected returns the selected text.
func (b *Buffer) Selected() string {
	b.clamp()
	return string(b.text[b.sel.Start:b.sel.End])
}

// Select sets the selection without notifying listeners.
// Offsets are clamped and ordered.
func (b *Buffer) Select(start, end int) Snapshot {
	b.sel = normalize(start, end, len(b.text))
	return b.Snapshot()
}

// SetText replaces the whole buffer and puts the cursor at the end.
func (b *Buffer) SetText(text string) Snapshot {
	b.text = []rune(text)
	b.sel = schema.Selection{Start: len(b.text), End: len(b.text)}
	return b.changed()
}

// Replace substitutes text for [start, end) and places the cursor after it.
func (b *Buffer) Replace(start, end int, text string) Snapshot {
	r := normalize(start, end, len(b.text))
	pos := b.splice(r.Start, r.End, []rune(text))
	b.sel = schema.Selection{Start: pos, End: pos}
	return b.changed()
}

// WrapSelection replaces the selection with before + (selection or placeholder) + after.
// With an empty selection and a placeholder, the placeholder is selected so it
// can be typed over; otherwise the whole replacement is selected.
func (b *Buffer) WrapSelection(before, after, placeholder string) Snapshot {
	b.clamp()
	start, end := b.sel.Start, b.sel.End
	selected := string(b.text[start:end])
	inner := selected
	if inner == "" {
		inner = placeholder
	}
	replacement := before + inner + after
	pos := b.splice(start, end, []rune(replacement))
	if selected == "" && placeholder != "" {
		from := start + runeLen(before)
		b.sel = schema.Selection{Start: from, End: from + runeLen(placeholder)}
	} else {
		b.sel = schema.Selection{Start: start, End: pos}
	}
	return b.changed()
}

// ToggleLinePrefix strips prefix from the line holding the selection start,
// or prepends it when absent. The cursor ends at the end of that line.
func (b *Buffer) ToggleLinePrefix(prefix string) Snapshot {
	b.clamp()
	lineStart, lineEnd := b.lineBounds(b.sel.Start)
	line := string(b.text[lineStart:lineEnd])
	var updated string
	if strings.HasPrefix(line, prefix) {
		updated = strings.TrimPrefix(line, prefix)
	} else {
		updated = prefix + line
	}
	pos := b.splice(lineStart, lineEnd, []rune(updated))
	b.sel = schema.Selection{Start: pos, End: pos}
	return b.changed()
}

// InsertBlock inserts text plus a trailing newline so that it starts on its
// own paragraph. The selection is replaced and the cursor ends after the block.
func (b *Buffer) InsertBlock(text string) Snapshot {
	b.clamp()
	start, end := b.sel.Start, b.sel.End
	insert := paragraphPrefix(b.text[:start]) + text + "\n"
	pos := b.splice(start, end, []rune(insert))
	b.sel = schema.Selection{Start: pos, End: pos}
	return b.changed()
}

// InsertAtCursor inserts text at the cursor, separated from preceding text by
// a blank line. The selection is replaced.
func (b *Buffer) InsertAtCursor(text string) Snapshot {
	b.clamp()
	start, end := b.sel.Start, b.sel.End
	insert := paragraphPrefix(b.text[:start]) + text
	pos := b.splice(start, end, []rune(insert))
	b.sel = schema.Selection{Start: pos, End: pos}
	return b.changed()
}

// HandleTab inserts two spaces at the selection start.
func (b *Buffer) HandleTab() Snapshot {
	b.clamp()
	start := b.sel.Start
	pos := b.splice(start, start, []rune("  "))
	b.sel = schema.Selection{Start: pos, End: pos}
	return b.changed()
}

// Newline inserts a plain newline, replacing the selection.
func (b *Buffer) Newline() Snapshot {
	b.clamp()
	pos := b.splice(b.sel.Start, b.sel.End, []rune{'\n'})
	b.sel = schema.Selection{Start: pos, End: pos}
	return b.changed()
}

func (b *Buffer) changed() Snapshot {
	snap := b.Snapshot()
	for _, fn := range b.listeners {
		fn(snap)
	}
	return snap
}

// splice replaces [start, end) with insert and returns the offset after it.
func (b *Buffer) splice(start, end int, insert []rune) int {
	out := make([]rune, 0, len(b.text)-(end-start)+len(insert))
	out = append(out, b.text[:start]...)
	out = append(out, insert...)
	out = append(out, b.text[end:]...)
	b.text = out
	return start + len(insert)
}

func (b *Buffer) clamp() {
	b.sel = normalize(b.sel.Start, b.sel.End, len(b.text))
}

// lineBounds returns [start, end) of the line containing pos, newline excluded.
func (b *Buffer) lineBounds(pos int) (int, int) {
	start := pos
	for start > 0 && b.text[start-1] != '\n' {
		start--
	}
	end := pos
	for end < len(b.text) && b.text[end] != '\n' {
		end++
	}
	return start, end
}

// paragraphPrefix returns the newlines that make inserted text start a new
// paragraph. An existing blank line needs none.
func paragraphPrefix(before []rune) string {
	n := len(before)
	switch {
	case n == 0:
		return ""
	case n >= 2 && before[n-1] == '\n' && before[n-2] == '\n':
		return ""
	case before[n-1] == '\n':
		return "\n"
	default:
		return "\n\n"
	}
}

func normalize(start, end, length int) schema.Selection {
	start = clampInt(start, 0, length)
	end = clampInt(end, 0, length)
	if start > end {
		start, end = end, start
	}
	return schema.Selection{Start: start, End: end}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func runeLen(s string) int {
	return len([]rune(s))
}
