// Package anthropic implements the Claude provider client. A small
// allow-list of models supports schema-constrained structured output; every
// other model receives the textual JSON-format instructions appended to the
// prompt.
package anthropic

import (
	"context"
	"errors"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"

	"llmgrader/internal/logger"
	"llmgrader/internal/providers"
)

const (
	defaultMaxTokens = 8192

	// structuredOutputsBeta enables the structured-output response mode.
	// The schema is injected at the request level until the typed SDK
	// surface catches up with the beta.
	structuredOutputsBeta = "structured-outputs-2025-11-13"
)

// structuredOutputModels are the models called in structured-output mode
// with the relaxed schema (Claude rejects array length constraints).
var structuredOutputModels = map[string]bool{
	"claude-opus-4-1-20250805": true,
}

// Config carries the prompt material and relaxed schema shared by all
// requests.
type Config struct {
	SystemPrompt    string
	JSONInstruction string
	Schema          map[string]any
	MaxTokens       int64
	MaxLogLength    int
}

// Client is the Claude provider client.
type Client struct {
	client sdk.Client
	cfg    Config
	logger *zap.Logger
}

// New builds a client for the given API key.
func New(apiKey string, cfg Config, log *zap.Logger) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("anthropic api key is required")
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Client{
		client: sdk.NewClient(option.WithAPIKey(apiKey)),
		cfg:    cfg,
		logger: log,
	}, nil
}

func (c *Client) Provider() string {
	return providers.Anthropic
}

// Score sends one evaluation request and returns the raw response text.
func (c *Client) Score(ctx context.Context, prompt, model string) (string, error) {
	user := prompt
	var opts []option.RequestOption

	if structuredOutputModels[model] {
		opts = append(opts,
			option.WithHeaderAdd("anthropic-beta", structuredOutputsBeta),
			option.WithJSONSet("output_format", map[string]any{
				"type":   "json_schema",
				"schema": c.cfg.Schema,
			}),
		)
	} else {
		user += c.cfg.JSONInstruction
	}

	resp, err := c.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:       sdk.Model(model),
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: sdk.Float(0),
		System:      []sdk.TextBlockParam{{Text: c.cfg.SystemPrompt}},
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(user)),
		},
	}, opts...)
	if err != nil {
		return "", c.classify(model, err)
	}

	var builder strings.Builder
	for _, block := range resp.Content {
		text := strings.TrimSpace(block.Text)
		if text == "" {
			continue
		}
		if builder.Len() > 0 {
			builder.WriteString("\n")
		}
		builder.WriteString(text)
	}

	output := builder.String()
	if output == "" {
		return "", &providers.TransportError{
			Provider: providers.Anthropic,
			Model:    model,
			Kind:     providers.KindOther,
			Err:      errors.New("empty response content"),
		}
	}

	c.logger.Debug("claude api call successful",
		zap.String("model", model),
		zap.Bool("structured_output", structuredOutputModels[model]),
		zap.String("response_preview", logger.TruncateForLog(output, c.cfg.MaxLogLength)),
	)

	return output, nil
}

// classify maps SDK failures into the transport taxonomy. Claude signals
// overload either with a 529 or an explicit overloaded error body.
func (c *Client) classify(model string, err error) error {
	kind := providers.KindOther

	var apierr *sdk.Error
	if errors.As(err, &apierr) {
		body := strings.ToLower(apierr.RawJSON())
		switch {
		case apierr.StatusCode == 429 || strings.Contains(body, "rate_limit"):
			kind = providers.KindRateLimited
		case apierr.StatusCode >= 500 || strings.Contains(body, "overloaded"):
			kind = providers.KindOverloaded
		}
	}

	return &providers.TransportError{
		Provider: providers.Anthropic,
		Model:    model,
		Kind:     kind,
		Err:      err,
	}
}
