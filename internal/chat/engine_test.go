package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/nhle/mailmind/internal/provider"
)

// fakeCompleter records the prompt it received and returns a canned
// answer or error.
type fakeCompleter struct {
	prompt provider.Prompt
	answer string
	err    error
}

func (f *fakeCompleter) Complete(_ context.Context, p provider.Prompt) (string, error) {
	f.prompt = p
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

func TestAnswer_WithoutHistory(t *testing.T) {
	completer := &fakeCompleter{answer: "42 emails"}
	engine := NewEngine(completer)

	answer, err := engine.Answer(context.Background(), "ctx block", "How many emails?", nil)
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if answer != "42 emails" {
		t.Errorf("Answer() = %q, want %q", answer, "42 emails")
	}

	if len(completer.prompt.Messages) != 1 {
		t.Fatalf("prompt has %d messages, want 1", len(completer.prompt.Messages))
	}

	final := completer.prompt.Messages[0]
	if final.Role != provider.RoleUser {
		t.Errorf("final message role = %q, want user", final.Role)
	}
	if !strings.Contains(final.Content, "Context (Retrieved Emails):\nctx block") {
		t.Errorf("final message %q does not carry the context block", final.Content)
	}
	if !strings.Contains(final.Content, "Question: How many emails?") {
		t.Errorf("final message %q does not carry the question", final.Content)
	}

	if strings.Contains(completer.prompt.System, "previous conversation") {
		t.Error("system instruction mentions history without history supplied")
	}
}

func TestAnswer_HistoryOrderingAfterCall(t *testing.T) {
	completer := &fakeCompleter{answer: "A2"}
	engine := NewEngine(completer)

	history := NewHistory()
	history.Add(RoleUser, "Q1")
	history.Add(RoleAssistant, "A1")

	if _, err := engine.Answer(context.Background(), "ctx", "Q2", history); err != nil {
		t.Fatalf("Answer() error = %v", err)
	}

	turns := history.Turns()
	want := []Turn{
		{RoleUser, "Q1"},
		{RoleAssistant, "A1"},
		{RoleUser, "Q2"},
		{RoleAssistant, "A2"},
	}

	if len(turns) != len(want) {
		t.Fatalf("history has %d turns, want %d", len(turns), len(want))
	}
	for i, turn := range turns {
		if turn != want[i] {
			t.Errorf("turn %d = %+v, want %+v", i, turn, want[i])
		}
	}
}

func TestAnswer_PriorTurnsPrecedeQuestionInOrder(t *testing.T) {
	completer := &fakeCompleter{answer: "ok"}
	engine := NewEngine(completer)

	history := NewHistory()
	history.Add(RoleUser, "Q1")
	history.Add(RoleAssistant, "A1")

	if _, err := engine.Answer(context.Background(), "ctx", "Q2", history); err != nil {
		t.Fatalf("Answer() error = %v", err)
	}

	msgs := completer.prompt.Messages
	if len(msgs) != 3 {
		t.Fatalf("prompt has %d messages, want 3", len(msgs))
	}
	if msgs[0].Role != provider.RoleUser || msgs[0].Content != "Q1" {
		t.Errorf("message 0 = %+v, want prior user turn Q1", msgs[0])
	}
	if msgs[1].Role != provider.RoleAssistant || msgs[1].Content != "A1" {
		t.Errorf("message 1 = %+v, want prior assistant turn A1", msgs[1])
	}
	if !strings.Contains(msgs[2].Content, "Question: Q2") {
		t.Errorf("message 2 = %+v, want the final question turn", msgs[2])
	}

	if !strings.Contains(completer.prompt.System, "previous conversation") {
		t.Error("system instruction lacks the follow-up sentence with history supplied")
	}
}

func TestAnswer_FailureWrappedAndHistoryUntouched(t *testing.T) {
	cause := errors.New("completion backend unavailable")
	engine := NewEngine(&fakeCompleter{err: cause})

	history := NewHistory()
	history.Add(RoleUser, "Q1")
	history.Add(RoleAssistant, "A1")

	_, err := engine.Answer(context.Background(), "ctx", "Q2", history)
	if err == nil {
		t.Fatal("expected an error")
	}
	if !IsQueryError(err) {
		t.Errorf("IsQueryError(%v) = false, want true", err)
	}
	if !errors.Is(err, cause) {
		t.Errorf("error %v does not preserve the underlying cause", err)
	}
	if history.Len() != 2 {
		t.Errorf("history has %d turns after failure, want 2", history.Len())
	}
}

func TestHistory_AppendOnlyOrder(t *testing.T) {
	h := NewHistory()
	h.Add(RoleUser, "first")
	h.Add(RoleAssistant, "second")
	h.Add(RoleUser, "third")

	turns := h.Turns()
	if len(turns) != 3 {
		t.Fatalf("Len = %d, want 3", len(turns))
	}
	if turns[0].Content != "first" || turns[1].Content != "second" || turns[2].Content != "third" {
		t.Errorf("turns out of order: %+v", turns)
	}

	// Mutating the returned copy must not affect the history.
	turns[0].Content = "mutated"
	if h.Turns()[0].Content != "first" {
		t.Error("Turns() does not return a copy")
	}
}
