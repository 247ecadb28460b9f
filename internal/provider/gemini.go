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

const geminiDefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Gemini talks to the Google Generative Language API for embeddings
// and completions.
type Gemini struct {
	baseURL     string
	apiKey      string
	llmModel    string
	embedModel  string
	temperature float64
	client      *http.Client
}

// NewGemini creates a Gemini provider from configuration.
func NewGemini(cfg model.GeminiConfig, temperature float64) *Gemini {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = geminiDefaultBaseURL
	}

	return &Gemini{
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		apiKey:      cfg.APIKey,
		llmModel:    cfg.LLMModel,
		embedModel:  cfg.EmbeddingModel,
		temperature: temperature,
		client:      &http.Client{},
	}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiEmbedRequest struct {
	Model   string        `json:"model"`
	Content geminiContent `json:"content"`
}

type geminiEmbedResponse struct {
	Embedding struct {
		Values []float32 `json:"values"`
	} `json:"embedding"`
}

// Embed requests an embedding vector for the given text.
func (g *Gemini) Embed(ctx context.Context, text string) ([]float32, error) {
	path := fmt.Sprintf("/models/%s:embedContent", g.embedModel)

	var result geminiEmbedResponse
	err := g.post(ctx, path, geminiEmbedRequest{
		Model:   "models/" + g.embedModel,
		Content: geminiContent{Parts: []geminiPart{{Text: text}}},
	}, &result)
	if err != nil {
		return nil, fmt.Errorf("embedding text: %w", err)
	}

	if len(result.Embedding.Values) == 0 {
		return nil, fmt.Errorf("gemini returned an empty embedding for model %q", g.embedModel)
	}

	return result.Embedding.Values, nil
}

type geminiGenerateRequest struct {
	SystemInstruction *geminiContent         `json:"systemInstruction,omitempty"`
	Contents          []geminiContent        `json:"contents"`
	GenerationConfig  geminiGenerationConfig `json:"generationConfig"`
}

type geminiGenerationConfig struct {
	Temperature float64 `json:"temperature"`
}

type geminiGenerateResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// Complete sends the prompt to generateContent and returns the first
// candidate's text.
func (g *Gemini) Complete(ctx context.Context, p Prompt) (string, error) {
	req := geminiGenerateRequest{
		GenerationConfig: geminiGenerationConfig{Temperature: g.temperature},
	}

	if p.System != "" {
		req.SystemInstruction = &geminiContent{
			Parts: []geminiPart{{Text: p.System}},
		}
	}

	for _, m := range p.Messages {
		role := "user"
		if m.Role == RoleAssistant {
			role = "model"
		}
		req.Contents = append(req.Contents, geminiContent{
			Role:  role,
			Parts: []geminiPart{{Text: m.Content}},
		})
	}

	path := fmt.Sprintf("/models/%s:generateContent", g.llmModel)

	var result geminiGenerateResponse
	if err := g.post(ctx, path, req, &result); err != nil {
		return "", fmt.Errorf("completing prompt: %w", err)
	}

	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini returned no candidates for model %q", g.llmModel)
	}

	var sb strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}

	return sb.String(), nil
}

// post sends a JSON request to the Gemini API and decodes the JSON
// response into out.
func (g *Gemini) post(ctx context.Context, path string, body, out any) error {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	url := g.baseURL + path + "?key=" + g.apiKey

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, url, bytes.NewReader(bodyBytes),
	)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("calling gemini API: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf(
			"gemini API error (%d): %s", resp.StatusCode, string(respBody),
		)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	return nil
}
