// Package mistral implements the Mistral provider client over the
// OpenAI-compatible chat completions endpoint. Every request is made in
// structured-output mode with the flattened per-question schema, whose
// per-field bounds Mistral enforces itself.
package mistral

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"llmgrader/internal/logger"
	"llmgrader/internal/providers"
)

const (
	defaultBaseURL   = "https://api.mistral.ai/v1"
	defaultMaxTokens = 4096

	contentType = "application/json"
)

// Config carries the prompt material and flattened schema shared by all
// requests.
type Config struct {
	SystemPrompt string
	Schema       map[string]any
	BaseURL      string
	MaxTokens    int
	MaxLogLength int
}

// Client is the Mistral provider client.
type Client struct {
	apiKey     string
	baseURL    string
	cfg        Config
	logger     *zap.Logger
	HTTPClient *http.Client
}

// New builds a client for the given API key.
func New(apiKey string, cfg Config, log *zap.Logger) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("mistral api key is required")
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		cfg:        cfg,
		logger:     log,
		HTTPClient: &http.Client{Timeout: 120 * time.Second},
	}, nil
}

func (c *Client) Provider() string {
	return providers.Mistral
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Score sends one evaluation request and returns the raw response text. The
// system instructions are folded into the single user message; Mistral's
// schema mode works without a separate system role here.
func (c *Client) Score(ctx context.Context, prompt, model string) (string, error) {
	body := map[string]any{
		"model":       model,
		"temperature": 0.0,
		"max_tokens":  c.cfg.MaxTokens,
		"response_format": map[string]any{
			"type": "json_schema",
			"json_schema": map[string]any{
				"name":   "evaluation_response",
				"strict": true,
				"schema": c.cfg.Schema,
			},
		},
		"messages": []map[string]string{
			{"role": "user", "content": c.cfg.SystemPrompt + "\n\n" + prompt},
		},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", contentType)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", &providers.TransportError{
			Provider: providers.Mistral,
			Model:    model,
			Kind:     providers.KindOther,
			Err:      err,
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", c.classifyStatus(model, resp)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", &providers.TransportError{
			Provider: providers.Mistral,
			Model:    model,
			Kind:     providers.KindOther,
			Err:      fmt.Errorf("decode response: %w", err),
		}
	}

	if len(parsed.Choices) == 0 {
		return "", &providers.TransportError{
			Provider: providers.Mistral,
			Model:    model,
			Kind:     providers.KindOther,
			Err:      errors.New("empty choices in response"),
		}
	}

	content := parsed.Choices[0].Message.Content
	c.logger.Debug("mistral api call successful",
		zap.String("model", model),
		zap.String("response_preview", logger.TruncateForLog(content, c.cfg.MaxLogLength)),
	)

	return content, nil
}

// classifyStatus maps HTTP failures into the transport taxonomy: 429 is rate
// limiting, the transient 5xx family is overload, everything else is fatal
// for the task.
func (c *Client) classifyStatus(model string, resp *http.Response) error {
	kind := providers.KindOther
	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		kind = providers.KindRateLimited
	case http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		kind = providers.KindOverloaded
	}

	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))

	return &providers.TransportError{
		Provider: providers.Mistral,
		Model:    model,
		Kind:     kind,
		Err:      fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))),
	}
}
