package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"MissionReady/internal/config"
	"MissionReady/internal/domain"
	"MissionReady/internal/ports"
)

// OllamaClient implements ports.DrawSynthesizer against OpenAI-compatible
// chat-completion endpoints (Ollama Cloud in the default config).
type OllamaClient struct {
	endpoint     string
	model        string
	apiKey       string
	systemPrompt string
	httpClient   *http.Client
}

var _ ports.DrawSynthesizer = (*OllamaClient)(nil)

// NewOllamaClient builds a client from configuration.
func NewOllamaClient(cfg config.OllamaConfig) *OllamaClient {
	return &OllamaClient{
		endpoint:     cfg.Endpoint,
		model:        cfg.Model,
		apiKey:       cfg.APIKey,
		systemPrompt: cfg.SystemPrompt,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// Synthesize builds a few-shot prompt from retrieved training pairs and asks
// the model for a draw plus its confidence assessment.
func (c *OllamaClient) Synthesize(ctx context.Context, conop domain.ParsedConop, examples []domain.TrainingPair) (domain.SynthesizedDraw, error) {
	if c == nil {
		return domain.SynthesizedDraw{}, fmt.Errorf("ollama client is nil")
	}
	if c.apiKey == "" || c.endpoint == "" || c.model == "" {
		return domain.SynthesizedDraw{}, fmt.Errorf("ollama client misconfigured")
	}

	prompt, err := buildPrompt(conop, examples)
	if err != nil {
		return domain.SynthesizedDraw{}, fmt.Errorf("build prompt: %w", err)
	}

	body, err := json.Marshal(map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "system", "content": safePrompt(c.systemPrompt)},
			{"role": "user", "content": prompt},
		},
	})
	if err != nil {
		return domain.SynthesizedDraw{}, fmt.Errorf("marshal chat payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.SynthesizedDraw{}, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.SynthesizedDraw{}, fmt.Errorf("send chat request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return domain.SynthesizedDraw{}, fmt.Errorf("ollama error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var completion struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return domain.SynthesizedDraw{}, fmt.Errorf("decode completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return domain.SynthesizedDraw{}, fmt.Errorf("completion has no choices")
	}

	return decodeDraw(completion.Choices[0].Message.Content)
}

// decodeDraw parses the model output, which must be the draw JSON carrying a
// top-level ai_assessment block.
func decodeDraw(content string) (domain.SynthesizedDraw, error) {
	var out struct {
		domain.ParsedDraw
		Assessment domain.DrawAssessment `json:"ai_assessment"`
	}
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		return domain.SynthesizedDraw{}, fmt.Errorf("model output was not valid JSON: %w", err)
	}
	return domain.SynthesizedDraw{Draw: out.ParsedDraw, Assessment: out.Assessment}, nil
}

// buildPrompt mirrors the training-pair few-shot layout: retrieved
// CONOP→DRAW examples, then the new conop sections, then the output contract.
func buildPrompt(conop domain.ParsedConop, examples []domain.TrainingPair) (string, error) {
	var b strings.Builder
	b.WriteString("You are a military risk assessment assistant. ")
	b.WriteString("Given training examples of CONOP to DRAW pairs, generate a DRAW for the new CONOP.\n\n")
	b.WriteString("=== TRAINING EXAMPLES ===\n")

	for _, example := range examples {
		b.WriteString("\n---\nCONOP:\n")
		b.Write(example.Conop)
		b.WriteString("\n\nDRAW OUTPUT:\n")
		b.Write(example.Draw)
		b.WriteString("\n")
	}

	sections, err := json.MarshalIndent(conop.Sections, "", "  ")
	if err != nil {
		return "", err
	}
	b.WriteString("\n\n=== NEW CONOP ===\n")
	b.Write(sections)
	b.WriteString("\n\nNow output the complete DRAW JSON.\n")
	b.WriteString("IMPORTANT: You MUST include a top-level field 'ai_assessment' with:\n")
	b.WriteString("1. 'confidence_score' (integer 0-100) indicating your confidence in the risk assessment.\n")
	b.WriteString("2. 'areas_for_review' (list of strings) naming risks that need human verification.\n")
	b.WriteString("3. 'rationale' (string) explaining the flags and the confidence score.\n")
	b.WriteString("Ensure the JSON structure matches the training examples but includes this new field.")

	return b.String(), nil
}

func safePrompt(prompt string) string {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "Respond only with valid JSON."
	}
	return prompt
}
