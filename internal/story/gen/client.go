package gen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"taleweaver/internal/domain/story"
)

// Config holds the chat-completion settings for scene generation.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
}

// Client generates story scenes through an OpenAI-compatible chat completion
// endpoint. Responses are requested as JSON objects and parsed into domain
// scenes.
type Client struct {
	cfg    Config
	client *http.Client
	log    *logrus.Entry
}

// NewClient validates credentials and builds the generation client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("generation client: %w", ErrMissingCredentials)
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("generation client: base url is required")
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1000
	}

	return &Client{
		cfg:    cfg,
		client: &http.Client{},
		log:    logrus.WithField("component", "gen"),
	}, nil
}

// OpeningScene generates the first scene of a story.
func (c *Client) OpeningScene(ctx context.Context, params story.Params) (*story.Scene, error) {
	c.log.WithFields(logrus.Fields{
		"genre":     params.Genre,
		"character": params.CharacterName,
	}).Info("generating opening scene")

	content, err := c.complete(ctx, systemPrompt(params.Genre), openingPrompt(params))
	if err != nil {
		return nil, err
	}
	return ParseScene(content)
}

// NextScene continues the story from the full played history and the decision
// taken in the latest scene. The history gives the model everything it needs
// to stay consistent with earlier events.
func (c *Client) NextScene(ctx context.Context, params story.Params, history []story.PlayedScene, decision story.Decision) (*story.Scene, error) {
	c.log.WithFields(logrus.Fields{
		"genre":    params.Genre,
		"scenes":   len(history),
		"decision": decision.Text,
	}).Info("generating next scene")

	content, err := c.complete(ctx, continuationSystemPrompt, continuationPrompt(params, history, decision))
	if err != nil {
		return nil, err
	}
	return ParseScene(content)
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	ResponseFormat *struct {
		Type string `json:"type"`
	} `json:"response_format,omitempty"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// complete runs one chat completion and returns the raw message content.
func (c *Client) complete(ctx context.Context, system, user string) (string, error) {
	reqBody := chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		ResponseFormat: &struct {
			Type string `json:"type"`
		}{Type: "json_object"},
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("gen: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("gen: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("gen: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", ErrRateLimited
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("gen: read response: %w", err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		c.log.WithField("status", resp.StatusCode).Error("generation api returned non-JSON body")
		return "", ErrMalformedResponse
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if parsed.Error != nil && parsed.Error.Type == "insufficient_quota" {
			return "", ErrQuotaExhausted
		}
		apiErr := &APIError{Status: resp.StatusCode}
		if parsed.Error != nil {
			apiErr.Message = parsed.Error.Message
		}
		return "", apiErr
	}

	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", ErrMalformedResponse
	}
	return parsed.Choices[0].Message.Content, nil
}
