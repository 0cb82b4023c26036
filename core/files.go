package core

import (
	"context"
	"path"
	"regexp"
	"strings"

	"pkt.systems/inkwell/internal/logx"
	"pkt.systems/inkwell/schema"
)

// ExportFile is a downloadable copy of the active buffer.
type ExportFile struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// ExportName derives the download file name for a project name.
func ExportName(name schema.ProjectName) string {
	if name == "" {
		return "README.md"
	}
	return unsafeFileChars.ReplaceAllString(string(name), "_") + ".md"
}

// ImportName derives a project name from an uploaded file name.
func ImportName(filename string) schema.ProjectName {
	base := path.Base(strings.ReplaceAll(filename, `\`, "/"))
	if base == "." || base == "/" {
		base = ""
	}
	for _, ext := range []string{".md", ".markdown", ".txt"} {
		if strings.HasSuffix(base, ext) {
			base = strings.TrimSuffix(base, ext)
			break
		}
	}
	return schema.ProjectName(base)
}

// Export returns the active buffer as a file.
func (s *Session) Export() ExportFile {
	s.mu.Lock()
	defer s.mu.Unlock()
	file := ExportFile{Name: ExportName(s.name)}
	if s.buf != nil {
		file.Content = s.buf.Text()
	}
	return file
}

// Import creates a project from a file and switches to it.
func (s *Session) Import(ctx context.Context, filename, content string) (schema.DocumentState, error) {
	name := ImportName(filename)
	logx.Ctx(ctx).Debug("session import start", "file", filename, "name", name)
	return s.createProject(ctx, name, content)
}
