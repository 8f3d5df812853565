package textgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/set-night/ibisbots/internal/config"
)

const maxResponseBytes = 1 << 20

type OpenRouter struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

func NewOpenRouter(apiKey, model string) *OpenRouter {
	return &OpenRouter{
		apiKey:     apiKey,
		model:      model,
		baseURL:    "https://openrouter.ai/api/v1",
		httpClient: &http.Client{Timeout: config.TextgenTimeout},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature *float64      `json:"temperature,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

const continuePrompt = "You continue stories. Reply with the next few sentences only, " +
	"in the same voice, with no title, preamble or commentary."

func (g *OpenRouter) Generate(ctx context.Context, context string, length int) (string, error) {
	chatReq := chatRequest{
		Model: g.model,
		Messages: []chatMessage{
			{Role: "system", Content: continuePrompt},
			{Role: "user", Content: context},
		},
		MaxTokens: length,
	}
	// Skip temperature for Gemini models
	if !strings.Contains(strings.ToLower(g.model), "gemini") {
		temperature := 0.9
		chatReq.Temperature = &temperature
	}

	var lastErr error
	for attempt := 0; attempt <= maxShrinkCycles; attempt++ {
		if attempt > 0 {
			chatReq.Messages[1].Content = shrink(chatReq.Messages[1].Content)
		}
		text, retry, err := g.chat(ctx, chatReq)
		if err == nil {
			return text, nil
		}
		if !retry {
			return "", err
		}
		lastErr = err
	}
	return "", fmt.Errorf("%w: %v", ErrGeneration, lastErr)
}

// chat reports retry for responses that a shorter prompt may fix.
func (g *OpenRouter) chat(ctx context.Context, chatReq chatRequest) (string, bool, error) {
	payload, err := json.Marshal(chatReq)
	if err != nil {
		return "", false, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", false, fmt.Errorf("chat request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", false, fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", false, fmt.Errorf("rate limited by OpenRouter (429)")
	case resp.StatusCode == http.StatusServiceUnavailable:
		return "", false, fmt.Errorf("OpenRouter service unavailable (503)")
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusRequestEntityTooLarge:
		return "", true, fmt.Errorf("OpenRouter rejected prompt (%d)", resp.StatusCode)
	case resp.StatusCode >= http.StatusMultipleChoices:
		return "", false, fmt.Errorf("OpenRouter status %d", resp.StatusCode)
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", false, fmt.Errorf("parse response: %w", err)
	}
	if chatResp.Error != nil {
		return "", false, fmt.Errorf("OpenRouter error: %s", chatResp.Error.Message)
	}
	if len(chatResp.Choices) == 0 {
		return "", false, fmt.Errorf("%w: empty choices", ErrGeneration)
	}
	return clean(chatResp.Choices[0].Message.Content), false, nil
}
