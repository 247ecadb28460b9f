package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/nhle/mailmind/internal/model"
)

// Ollama talks to a local Ollama server for embeddings and chat
// completions.
type Ollama struct {
	baseURL     string
	llmModel    string
	embedModel  string
	temperature float64
	client      *http.Client
}

// NewOllama creates an Ollama provider from configuration.
func NewOllama(cfg model.OllamaConfig, temperature float64) *Ollama {
	return &Ollama{
		baseURL:     strings.TrimSuffix(cfg.BaseURL, "/"),
		llmModel:    cfg.LLMModel,
		embedModel:  cfg.EmbeddingModel,
		temperature: temperature,
		client:      &http.Client{},
	}
}

type ollamaEmbedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// Embed requests an embedding vector for the given text.
func (o *Ollama) Embed(ctx context.Context, text string) ([]float32, error) {
	var result ollamaEmbedResponse
	err := o.post(ctx, "/api/embeddings", ollamaEmbedRequest{
		Model:  o.embedModel,
		Prompt: text,
	}, &result)
	if err != nil {
		return nil, fmt.Errorf("embedding text: %w", err)
	}

	if len(result.Embedding) == 0 {
		return nil, fmt.Errorf("ollama returned an empty embedding for model %q", o.embedModel)
	}

	return result.Embedding, nil
}

type ollamaChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatRequest struct {
	Model    string              `json:"model"`
	Messages []ollamaChatMessage `json:"messages"`
	Stream   bool                `json:"stream"`
	Options  ollamaChatOptions   `json:"options"`
}

type ollamaChatOptions struct {
	Temperature float64 `json:"temperature"`
}

type ollamaChatResponse struct {
	Message ollamaChatMessage `json:"message"`
}

// Complete sends the prompt as a non-streaming chat request and
// returns the answer text.
func (o *Ollama) Complete(ctx context.Context, p Prompt) (string, error) {
	messages := make([]ollamaChatMessage, 0, len(p.Messages)+1)
	if p.System != "" {
		messages = append(messages, ollamaChatMessage{
			Role:    "system",
			Content: p.System,
		})
	}
	for _, m := range p.Messages {
		messages = append(messages, ollamaChatMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	var result ollamaChatResponse
	err := o.post(ctx, "/api/chat", ollamaChatRequest{
		Model:    o.llmModel,
		Messages: messages,
		Stream:   false,
		Options:  ollamaChatOptions{Temperature: o.temperature},
	}, &result)
	if err != nil {
		return "", fmt.Errorf("completing prompt: %w", err)
	}

	return result.Message.Content, nil
}

// post sends a JSON request to the Ollama API and decodes the JSON
// response into out.
func (o *Ollama) post(ctx context.Context, path string, body, out any) error {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, o.baseURL+path, bytes.NewReader(bodyBytes),
	)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return fmt.Errorf("calling ollama API: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf(
			"ollama API error (%d): %s", resp.StatusCode, string(respBody),
		)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	return nil
}
