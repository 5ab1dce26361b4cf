package summarize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/felo/mailnotes/internal/summary"
)

const systemPrompt = "You are an assistant that summarizes emails for busy knowledge workers. " +
	"Respond with a compact JSON object containing four fields: " +
	"'summary' (2-3 sentence overview), 'key_points' (concise bullet strings), 'todos' " +
	"(actionable follow-ups without any TODO prefix), and 'context_notes' (assumptions or " +
	"background, may be empty)."

// OpenAIClient calls an OpenAI-compatible chat completions endpoint.
// It performs no retries; retry policy belongs to the caller.
type OpenAIClient struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// OpenAIOptions configures the summarizer client
type OpenAIOptions struct {
	BaseURL string // e.g. https://api.openai.com/v1
	APIKey  string
	Model   string
	Timeout time.Duration
}

// NewOpenAIClient creates a summarizer client for an OpenAI-compatible API
func NewOpenAIClient(opts OpenAIOptions) (*OpenAIClient, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("summarizer requires an API key")
	}
	if opts.BaseURL == "" {
		opts.BaseURL = "https://api.openai.com/v1"
	}
	if opts.Model == "" {
		opts.Model = "gpt-4o-mini"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}

	return &OpenAIClient{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		apiKey:     opts.APIKey,
		model:      opts.Model,
		httpClient: &http.Client{Timeout: opts.Timeout},
	}, nil
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Temperature    float64       `json:"temperature"`
	MaxTokens      int           `json:"max_tokens"`
	ResponseFormat *struct {
		Type string `json:"type"`
	} `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Summarize asks the model for a structured summary of one email. A
// reply that is not valid JSON degrades to an overview-only summary
// instead of failing, so a chatty model cannot block consolidation.
func (c *OpenAIClient) Summarize(ctx context.Context, subject, bodyText string) (summary.Summary, error) {
	if subject == "" {
		subject = "No subject"
	}

	userPrompt := fmt.Sprintf(
		"Summarize the following email for Logseq. Highlight the sender's intent, critical facts, "+
			"explicit or implied requests, and recommended follow-ups. Return JSON only.\n\n"+
			"Subject: %s\n\nBody: %s", subject, bodyText)

	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: 0.2,
		MaxTokens:   400,
		ResponseFormat: &struct {
			Type string `json:"type"`
		}{Type: "json_object"},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return summary.Summary{}, fmt.Errorf("failed to encode summarizer request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return summary.Summary{}, fmt.Errorf("failed to build summarizer request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return summary.Summary{}, fmt.Errorf("summarizer request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return summary.Summary{}, fmt.Errorf("failed to read summarizer response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return summary.Summary{}, fmt.Errorf("summarizer returned status %d: %s",
			resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var chat chatResponse
	if err := json.Unmarshal(data, &chat); err != nil {
		return summary.Summary{}, fmt.Errorf("failed to decode summarizer response: %w", err)
	}
	if chat.Error != nil {
		return summary.Summary{}, fmt.Errorf("summarizer error: %s", chat.Error.Message)
	}
	if len(chat.Choices) == 0 {
		return summary.Summary{}, fmt.Errorf("summarizer returned no choices")
	}

	content := strings.TrimSpace(chat.Choices[0].Message.Content)

	s, err := summary.Parse([]byte(content))
	if err != nil {
		// Not JSON: keep the raw text as the overview
		return summary.FromPayload(map[string]any{"summary": content}), nil
	}
	return s, nil
}
