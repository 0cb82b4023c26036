package core

import "pkt.systems/inkwell/schema"

// Renderer derives the preview view from buffer text.
type Renderer interface {
	Render(text string) schema.View
}
