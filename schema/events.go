package schema

import "time"

// DocumentEventType identifies a document event.
type DocumentEventType string

const (
	// DocumentChanged is emitted after every buffer mutation.
	DocumentChanged DocumentEventType = "change"
	// DocumentSaved is emitted after the buffer was persisted.
	DocumentSaved DocumentEventType = "saved"
	// DocumentProject is emitted when the active project changes or the project list is modified.
	DocumentProject DocumentEventType = "project"
	// DocumentUsage is emitted after a completion updated the ledger.
	DocumentUsage DocumentEventType = "usage"
)

// DocumentEvent is the change notification fanned out to front ends.
type DocumentEvent struct {
	Type      DocumentEventType `json:"type"`
	ProjectID ProjectID         `json:"projectId,omitempty"`
	State     *DocumentState    `json:"state,omitempty"`
	Usage     *Usage            `json:"usage,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}
