// Package openai implements the OpenAI provider client. Request shaping is
// driven by a per-model capability table, and the underlying SDK client is
// rebuilt when the shared credential set rotates to a backup key.
package openai

import (
	"context"
	"errors"
	"strings"
	"sync"

	sdk "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared"
	"go.uber.org/zap"

	"llmgrader/internal/credentials"
	"llmgrader/internal/logger"
	"llmgrader/internal/providers"
)

const defaultMaxTokens = 4096

// Config carries the prompt material and schema shared by all requests.
type Config struct {
	SystemPrompt    string
	JSONInstruction string
	Schema          map[string]any
	MaxTokens       int64
	MaxLogLength    int
}

// Client is the OpenAI provider client.
type Client struct {
	creds  *credentials.Set
	cfg    Config
	logger *zap.Logger

	mu     sync.Mutex
	client sdk.Client
	keyIdx int
}

// New builds a client bound to the given credential set.
func New(creds *credentials.Set, cfg Config, log *zap.Logger) (*Client, error) {
	if creds == nil {
		return nil, errors.New("openai credential set is required")
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	if log == nil {
		log = zap.NewNop()
	}

	key, index := creds.Current()

	return &Client{
		creds:  creds,
		cfg:    cfg,
		logger: log,
		client: sdk.NewClient(option.WithAPIKey(key)),
		keyIdx: index,
	}, nil
}

func (c *Client) Provider() string {
	return providers.OpenAI
}

// Rotate advances the credential set past the currently active key. It
// returns false once no backup key remains.
func (c *Client) Rotate() bool {
	_, index := c.creds.Current()

	_, next, err := c.creds.Advance(index)
	if err != nil {
		c.logger.Error("all openai api keys exhausted")
		return false
	}

	c.logger.Info("switched to next openai api key", zap.Int("key", next+1))
	return true
}

// api returns the SDK client for the active credential, rebuilding it after
// a rotation.
func (c *Client) api() sdk.Client {
	key, index := c.creds.Current()

	c.mu.Lock()
	defer c.mu.Unlock()

	if index != c.keyIdx {
		c.client = sdk.NewClient(option.WithAPIKey(key))
		c.keyIdx = index
	}

	return c.client
}

// Score sends one evaluation request and returns the raw response text.
func (c *Client) Score(ctx context.Context, prompt, model string) (string, error) {
	params := c.buildParams(prompt, model)

	api := c.api()
	resp, err := api.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", c.classify(model, err)
	}

	if len(resp.Choices) == 0 {
		return "", &providers.TransportError{
			Provider: providers.OpenAI,
			Model:    model,
			Kind:     providers.KindOther,
			Err:      errors.New("empty choices in response"),
		}
	}

	content := resp.Choices[0].Message.Content
	c.logger.Debug("openai api call successful",
		zap.String("model", model),
		zap.String("response_preview", logger.TruncateForLog(content, c.cfg.MaxLogLength)),
	)

	return content, nil
}

// buildParams shapes the request according to the model's capability entry.
func (c *Client) buildParams(prompt, model string) sdk.ChatCompletionNewParams {
	profile := capabilityFor(model)

	user := prompt
	params := sdk.ChatCompletionNewParams{
		Model: shared.ChatModel(model),
	}

	if profile.schema {
		params.ResponseFormat = sdk.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &shared.ResponseFormatJSONSchemaParam{
				JSONSchema: shared.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   "evaluation_response",
					Strict: sdk.Bool(true),
					Schema: c.cfg.Schema,
				},
			},
		}
	} else {
		params.ResponseFormat = sdk.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
		user += c.cfg.JSONInstruction
	}

	if profile.developerRole {
		params.Messages = []sdk.ChatCompletionMessageParamUnion{
			sdk.DeveloperMessage(c.cfg.SystemPrompt),
			sdk.UserMessage(user),
		}
	} else {
		params.Messages = []sdk.ChatCompletionMessageParamUnion{
			sdk.SystemMessage(c.cfg.SystemPrompt),
			sdk.UserMessage(user),
		}
	}

	if profile.temperature {
		params.Temperature = sdk.Float(0)
	}

	switch profile.tokens {
	case tokenParamMax:
		params.MaxTokens = sdk.Int(c.cfg.MaxTokens)
	case tokenParamMaxCompletion:
		params.MaxCompletionTokens = sdk.Int(c.cfg.MaxTokens)
	}

	return params
}

// classify maps SDK failures into the transport taxonomy. Quota and billing
// exhaustion is signaled distinctly so the retry controller can rotate keys.
func (c *Client) classify(model string, err error) error {
	kind := providers.KindOther

	var apierr *sdk.Error
	if errors.As(err, &apierr) {
		message := strings.ToLower(apierr.Code + " " + apierr.Message)
		switch {
		case strings.Contains(message, "insufficient_quota") || strings.Contains(message, "billing_hard_limit_reached"):
			kind = providers.KindQuotaExhausted
		case apierr.StatusCode == 429:
			kind = providers.KindRateLimited
		case apierr.StatusCode >= 500:
			kind = providers.KindOverloaded
		}
	}

	return &providers.TransportError{
		Provider: providers.OpenAI,
		Model:    model,
		Kind:     kind,
		Err:      err,
	}
}
