// Package chat answers natural-language questions about indexed email
// using retrieved context, the current question, and optional
// conversational history.
package chat

import (
	"context"
	"errors"
	"fmt"

	"github.com/nhle/mailmind/internal/provider"
)

const systemInstruction = `You are an intelligent email assistant. Answer the user's question based on the provided email context.
Be concise, accurate, and helpful. If the context doesn't contain enough information to answer the question, say so.
When counting or listing emails, be specific and accurate based on the provided context.`

const systemInstructionHistory = systemInstruction + `
You can refer to previous conversation context when answering follow-up questions.`

// QueryError wraps any failure while answering a query. The underlying
// cause is preserved; no retry is attempted.
type QueryError struct {
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("failed to answer email query: %v", e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// IsQueryError reports whether err (or any error in its chain) is a
// QueryError.
func IsQueryError(err error) bool {
	var qErr *QueryError
	return errors.As(err, &qErr)
}

// Engine turns retrieved context plus a question into an answer via
// the completion engine.
type Engine struct {
	completer provider.Completer
}

// NewEngine creates a query engine using the given completion backend.
func NewEngine(completer provider.Completer) *Engine {
	return &Engine{completer: completer}
}

// Answer builds a structured prompt from the retrieved context, the
// question, and any prior turns, and invokes the completion engine.
// The call blocks until the backend responds.
//
// When history is supplied, its turns precede the final question in
// their original order, and on success the new user turn and the
// assistant's answer are appended to it, in that order. On failure
// the history is left untouched.
func (e *Engine) Answer(
	ctx context.Context,
	contextBlock string,
	question string,
	history *History,
) (string, error) {
	prompt := provider.Prompt{System: systemInstruction}
	if history != nil {
		prompt.System = systemInstructionHistory
		for _, t := range history.Turns() {
			prompt.Messages = append(prompt.Messages, provider.Message{
				Role:    string(t.Role),
				Content: t.Content,
			})
		}
	}

	prompt.Messages = append(prompt.Messages, provider.Message{
		Role: provider.RoleUser,
		Content: fmt.Sprintf(
			"Context (Retrieved Emails):\n%s\n\nQuestion: %s\n\nAnswer:",
			contextBlock, question,
		),
	})

	answer, err := e.completer.Complete(ctx, prompt)
	if err != nil {
		return "", &QueryError{Err: err}
	}

	if history != nil {
		history.Add(RoleUser, question)
		history.Add(RoleAssistant, answer)
	}

	return answer, nil
}
