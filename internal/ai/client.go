package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"mailgenie/internal/model"
	"mailgenie/pkg/circuitbreaker"
	"mailgenie/pkg/metrics"
)

// suggestionTemperature keeps the call near-deterministic.
const suggestionTemperature = 0.3

// Client calls an OpenAI-compatible chat-completions gateway and decodes
// the structured categorization suggestion. Failures are returned to the
// caller, which falls back to deterministic rule matching; there is no
// retry here.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	breaker    *circuitbreaker.CircuitBreaker
	logger     *zap.Logger
}

func NewClient(baseURL, apiKey, modelName string, logger *zap.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   modelName,
		breaker: circuitbreaker.NewCircuitBreaker(circuitbreaker.DefaultConfig()),
		logger:  logger,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	Temperature    float64        `json:"temperature"`
	ResponseFormat responseFormat `json:"response_format"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Suggest performs the structured-output call. The system prompt carries
// the rendered rule set; the user prompt carries the email content.
func (c *Client) Suggest(ctx context.Context, systemPrompt, userPrompt string) (model.Decision, error) {
	var decision model.Decision

	start := time.Now()
	err := c.breaker.Execute(func() error {
		var callErr error
		decision, callErr = c.call(ctx, systemPrompt, userPrompt)
		return callErr
	})
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.RecordSuggestionCallLatency(c.model, status, time.Since(start))

	if err != nil {
		return model.Decision{}, err
	}
	return decision, nil
}

func (c *Client) call(ctx context.Context, systemPrompt, userPrompt string) (model.Decision, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt + "\n\nRespond with a single JSON object with keys: shouldMarkImportant, shouldPinConversation, shouldSkipInbox, shouldMarkReadAndLabel (booleans), suggestedLabels (array of strings), reasoning (string), confidence (number 0-1)."},
			{Role: "user", Content: userPrompt},
		},
		Temperature:    suggestionTemperature,
		ResponseFormat: responseFormat{Type: "json_object"},
	})
	if err != nil {
		return model.Decision{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return model.Decision{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.Decision{}, fmt.Errorf("suggestion call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return model.Decision{}, fmt.Errorf("suggestion call: status %d: %s", resp.StatusCode, snippet)
	}

	var chat chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return model.Decision{}, fmt.Errorf("suggestion decode: %w", err)
	}
	if len(chat.Choices) == 0 {
		return model.Decision{}, fmt.Errorf("suggestion call: empty choices")
	}

	var decision model.Decision
	if err := json.Unmarshal([]byte(chat.Choices[0].Message.Content), &decision); err != nil {
		return model.Decision{}, fmt.Errorf("suggestion payload malformed: %w", err)
	}

	if decision.Confidence < 0 || decision.Confidence > 1 {
		return model.Decision{}, fmt.Errorf("suggestion confidence %v out of range", decision.Confidence)
	}
	if decision.SuggestedLabels == nil {
		decision.SuggestedLabels = []string{}
	}

	return decision, nil
}
