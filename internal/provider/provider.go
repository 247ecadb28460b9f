// Package provider abstracts the embedding and completion engines
// behind a single capability interface with one concrete
// implementation per supported backend. The backend is selected once
// at startup from configuration and injected into the indexing and
// query engines.
package provider

import (
	"context"
	"fmt"

	"github.com/nhle/mailmind/internal/model"
)

// Message roles understood by both backends.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one role-tagged turn of a prompt.
type Message struct {
	Role    string
	Content string
}

// Prompt is a structured multi-turn completion request: a fixed
// system instruction followed by role-tagged messages in order.
type Prompt struct {
	System   string
	Messages []Message
}

// Embedder produces a fixed-dimension vector for a text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Completer produces a single text answer for a structured prompt.
// The call blocks until the backend responds.
type Completer interface {
	Complete(ctx context.Context, p Prompt) (string, error)
}

// Provider combines both capabilities of one backend.
type Provider interface {
	Embedder
	Completer
}

// New selects and configures a provider from the given configuration.
// An unsupported provider name is a configuration error.
func New(cfg model.ProviderConfig) (Provider, error) {
	switch cfg.Name {
	case "ollama":
		return NewOllama(cfg.Ollama, cfg.Temperature), nil
	case "gemini":
		return NewGemini(cfg.Gemini, cfg.Temperature), nil
	default:
		return nil, &model.ConfigError{Problems: []string{fmt.Sprintf(
			`unsupported provider %q: must be "ollama" or "gemini"`, cfg.Name,
		)}}
	}
}
