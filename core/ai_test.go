package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"pkt.systems/inkwell/internal/prompts"
	"pkt.systems/inkwell/schema"
)

func TestRunActionUsesSelectionWhenInputBlank(t *testing.T) {
	h := newHarness(t)
	h.open(t)
	h.edit(t, EditRequest{Op: EditReplace, Selection: selection(0, 1000), Text: "hello world"})
	h.edit(t, EditRequest{Op: EditSelect, Selection: selection(6, 11)})
	h.completer.result = schema.Completion{
		Text:    "bonjour",
		Usage:   schema.Usage{InputTokens: 3, OutputTokens: 2, TotalTokens: 5},
		Session: schema.Usage{InputTokens: 3, OutputTokens: 2, TotalTokens: 5},
	}

	result, err := h.session.RunAction(context.Background(), prompts.Translate, "  ")
	if err != nil {
		t.Fatalf("run action: %v", err)
	}
	if result.Text != "bonjour" {
		t.Fatalf("unexpected text %q", result.Text)
	}
	if len(h.completer.inputs) != 1 || h.completer.inputs[0] != "world" {
		t.Fatalf("expected selection as input, got %v", h.completer.inputs)
	}
	if h.sink.count(schema.DocumentUsage) != 1 {
		t.Fatalf("expected a usage event")
	}
}

func TestRunActionErrors(t *testing.T) {
	h := newHarness(t)
	h.open(t)
	if _, err := h.session.RunAction(context.Background(), "dance", "x"); !errors.Is(err, schema.ErrUnknownAction) {
		t.Fatalf("expected ErrUnknownAction, got %v", err)
	}
	h.edit(t, EditRequest{Op: EditSelect, Selection: selection(0, 0)})
	if _, err := h.session.RunAction(context.Background(), prompts.Summarize, ""); !errors.Is(err, schema.ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
	h.completer.err = schema.ErrRateLimited
	if _, err := h.session.RunAction(context.Background(), prompts.Summarize, "text"); !errors.Is(err, schema.ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	if h.completer.calls != 1 {
		t.Fatalf("expected one completion call, got %d", h.completer.calls)
	}
	if state := h.session.State(); state.Text != StarterContent {
		t.Fatalf("expected buffer untouched by failure, got %q", state.Text)
	}
}

func TestBufferEditableDuringCompletion(t *testing.T) {
	h := newHarness(t)
	h.open(t)
	h.completer.block = make(chan struct{})
	h.completer.result = schema.Completion{Text: "done"}

	done := make(chan error, 1)
	go func() {
		_, err := h.session.RunAction(context.Background(), prompts.ImproveText, "draft")
		done <- err
	}()

	editDone := make(chan struct{})
	go func() {
		h.session.Edit(context.Background(), EditRequest{Op: EditTab})
		close(editDone)
	}()
	select {
	case <-editDone:
	case <-time.After(2 * time.Second):
		t.Fatalf("edit blocked by in-flight completion")
	}
	close(h.completer.block)
	if err := <-done; err != nil {
		t.Fatalf("run action: %v", err)
	}
}

func TestInsertCompletionSeparatesParagraph(t *testing.T) {
	h := newHarness(t)
	h.open(t)
	h.edit(t, EditRequest{Op: EditReplace, Selection: selection(0, 1000), Text: "intro"})
	state, err := h.session.InsertCompletion(context.Background(), "generated")
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if state.Text != "intro\n\ngenerated" {
		t.Fatalf("unexpected text %q", state.Text)
	}
	if _, err := h.session.InsertCompletion(context.Background(), " "); !errors.Is(err, schema.ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
}

func TestUsageWithoutLedger(t *testing.T) {
	h := newHarness(t)
	if got := h.session.Usage(); got != (schema.Usage{}) {
		t.Fatalf("expected zero usage, got %+v", got)
	}
	if len(h.session.Actions()) != 7 {
		t.Fatalf("expected seven actions")
	}
}
