package schema

import "time"

// ProjectID identifies a persisted project.
type ProjectID string

// ProjectName is the user-facing name of a project.
type ProjectName string

// ActionID identifies a prompt action in the catalog.
type ActionID string

// ModelID identifies an LLM model.
type ModelID string

// Project is a named, persisted document.
type Project struct {
	ID        ProjectID   `json:"id"`
	Name      ProjectName `json:"name"`
	Content   string      `json:"content"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// ProjectPatch carries the fields of a partial project update. Nil fields are left alone.
type ProjectPatch struct {
	Name    *ProjectName
	Content *string
}

// Settings is the per-installation settings singleton.
type Settings struct {
	APIKey   string `json:"apiKey"`
	AutoSave bool   `json:"autoSave"`
	FontSize int    `json:"fontSize"`
}

// DefaultFontSize is the editor font size used when none is stored.
const DefaultFontSize = 14

// DefaultSettings returns the documented settings defaults.
func DefaultSettings() Settings {
	return Settings{
		APIKey:   "",
		AutoSave: true,
		FontSize: DefaultFontSize,
	}
}

// Selection is a half-open range of rune offsets into a buffer: [Start, End).
type Selection struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Empty reports whether the selection is a collapsed cursor.
func (s Selection) Empty() bool {
	return s.Start == s.End
}

// View is the rendered projection of a buffer.
type View struct {
	HTML  string `json:"html"`
	Words int    `json:"words"`
	Chars int    `json:"chars"`
	Lines int    `json:"lines"`
	Empty bool   `json:"empty"`
}

// SaveStatus reports whether the active buffer matches its project record.
type SaveStatus string

const (
	// SaveStatusSaved means the buffer has been persisted.
	SaveStatusSaved SaveStatus = "saved"
	// SaveStatusUnsaved means edits are pending a write.
	SaveStatusUnsaved SaveStatus = "unsaved"
)

// DocumentState is what a front end needs after every operation.
type DocumentState struct {
	ProjectID   ProjectID   `json:"projectId"`
	ProjectName ProjectName `json:"projectName"`
	Text        string      `json:"text"`
	Selection   Selection   `json:"selection"`
	View        View        `json:"view"`
	SaveStatus  SaveStatus  `json:"saveStatus"`
	FontSize    int         `json:"fontSize"`
}

// Usage captures token counts and derived cost.
type Usage struct {
	InputTokens  int     `json:"inputTokens"`
	OutputTokens int     `json:"outputTokens"`
	TotalTokens  int     `json:"totalTokens"`
	Cost         float64 `json:"cost"`
}

// Completion is the result of a completion request.
type Completion struct {
	Text    string `json:"text"`
	Usage   Usage  `json:"usage"`
	Session Usage  `json:"session"`
}
