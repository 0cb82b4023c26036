package editor

import (
	"math/big"
	"regexp"
	"strings"

	"pkt.systems/inkwell/schema"
)

var (
	checklistItem = regexp.MustCompile(`^(\s*)- \[([ xX])\] `)
	bulletItem    = regexp.MustCompile(`^(\s*)([*+-]) `)
	orderedItem   = regexp.MustCompile(`^(\s*)(\d+)\. `)
)

// HandleEnter continues a list item on Enter. It looks at the current line up
// to the cursor: a checklist, bullet or ordered item gets a new marker on the
// next line, and an item holding only its marker is cleared to end the list.
// When the line is not a list item nothing changes, no listener runs and
// false is returned; the caller then inserts a plain newline.
func (b *Buffer) HandleEnter() (Snapshot, bool) {
	b.clamp()
	start := b.sel.Start
	lineStart, _ := b.lineBounds(start)
	line := string(b.text[lineStart:start])
	trimmed := strings.TrimSpace(line)

	var continuation string
	exit := false
	if m := checklistItem.FindStringSubmatch(line); m != nil {
		switch trimmed {
		case "- [ ]", "- [x]", "- [X]":
			exit = true
		default:
			continuation = "\n" + m[1] + "- [ ] "
		}
	} else if m := bulletItem.FindStringSubmatch(line); m != nil {
		if trimmed == m[2] {
			exit = true
		} else {
			continuation = "\n" + m[1] + m[2] + " "
		}
	} else if m := orderedItem.FindStringSubmatch(line); m != nil {
		if trimmed == m[2]+"." {
			exit = true
		} else {
			continuation = "\n" + m[1] + increment(m[2]) + ". "
		}
	} else {
		return b.Snapshot(), false
	}

	var pos int
	if exit {
		pos = b.splice(lineStart, start, []rune{'\n'})
	} else {
		pos = b.splice(start, start, []rune(continuation))
	}
	b.sel = schema.Selection{Start: pos, End: pos}
	return b.changed(), true
}

func increment(digits string) string {
	n, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return digits
	}
	return n.Add(n, big.NewInt(1)).String()
}
