package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/medinfo/backend/config"
)

// MedicineInfo is the structured content returned by the generation endpoint.
type MedicineInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Advice      string `json:"advice"`
	Warning     string `json:"warning"`
	PubMedLink  string `json:"pubmed_link"`
}

// Validate checks that every required field is present. Partial responses are
// rejected rather than stored.
func (m *MedicineInfo) Validate() error {
	missing := []string{}
	if strings.TrimSpace(m.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(m.Description) == "" {
		missing = append(missing, "description")
	}
	if strings.TrimSpace(m.Advice) == "" {
		missing = append(missing, "advice")
	}
	if strings.TrimSpace(m.Warning) == "" {
		missing = append(missing, "warning")
	}
	if strings.TrimSpace(m.PubMedLink) == "" {
		missing = append(missing, "pubmed_link")
	}
	if len(missing) > 0 {
		return fmt.Errorf("generated content missing required fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

// LLMService calls a local OpenAI-compatible chat completion endpoint
// (LM Studio by default) to synthesize medicine descriptions.
type LLMService struct {
	apiURL string
	model  string
	client *http.Client
}

// NewLLMService creates a new LLMService instance
func NewLLMService(cfg *config.Config) *LLMService {
	return &LLMService{
		apiURL: cfg.LLMURL,
		model:  cfg.LLMModel,
		client: &http.Client{
			// Local models are slow; the per-job context carries the real
			// deadline, this is only a backstop.
			Timeout: cfg.LLMTimeout + 30*time.Second,
		},
	}
}

// Message represents a message in the chat
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request represents a chat completion request
type Request struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

const systemPrompt = "You are a helpful pharmacy assistant. Explain medicines in very simple terms that a 16-year-old can understand. Use short sentences, simple words, and bullet points. Always respond with valid JSON only."

func userPrompt(name string) string {
	return fmt.Sprintf(`You are helping someone who just bought %s from a pharmacy and wants to understand it better.

Write information that a 16-year-old can easily understand. Use simple words, short sentences, and be very clear.

Respond ONLY with this JSON format (no extra text):
{
    "name": "%s",
    "description": "About 50 words (3-4 sentences) explaining: What is this medicine? What conditions does it treat? How does it work in the body?",
    "advice": "• First piece of advice\n• Second piece of advice\n• Third piece of advice",
    "warning": "• First warning\n• Second warning\n• Third warning",
    "pubmed_link": "https://pubmed.ncbi.nlm.nih.gov/?term=%s"
}

Each bullet point should be one clear, short sentence. Focus on the most important practical information.`,
		name, titleCase(name), strings.ReplaceAll(name, " ", "+"))
}

// GenerateMedicineInfo asks the generation endpoint for structured content
// about the named medicine. The context bounds the whole call.
func (s *LLMService) GenerateMedicineInfo(ctx context.Context, name string) (*MedicineInfo, error) {
	reqBody := Request{
		Model: s.model,
		Messages: []Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt(name)},
		},
		Temperature: 0.7,
		MaxTokens:   1000,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("generation API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(result.Choices) == 0 {
		return nil, fmt.Errorf("no response from generation API")
	}

	info, err := parseMedicineJSON(result.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}
	return info, nil
}

// parseMedicineJSON parses the model output, tolerating markdown code fences.
func parseMedicineJSON(content string) (*MedicineInfo, error) {
	cleaned := strings.TrimSpace(content)

	if strings.HasPrefix(cleaned, "```json") {
		cleaned = cleaned[len("```json"):]
	} else if strings.HasPrefix(cleaned, "```") {
		cleaned = cleaned[len("```"):]
	}
	cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")
	cleaned = strings.TrimSpace(cleaned)

	var info MedicineInfo
	if err := json.Unmarshal([]byte(cleaned), &info); err != nil {
		return nil, fmt.Errorf("failed to parse generated content: %w", err)
	}
	if err := info.Validate(); err != nil {
		return nil, err
	}
	return &info, nil
}
