package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"github.com/sirupsen/logrus"
)

const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderMock      = "mock"

	// Anthropic serves an OpenAI-compatible chat completions endpoint.
	anthropicBaseURL = "https://api.anthropic.com/v1/"
)

// OpenAIClient implements Client over any OpenAI-compatible chat completions
// API using the official SDK.
type OpenAIClient struct {
	model       string
	temperature float64
	maxTokens   int64
	client      openai.Client
}

// NewOpenAIClient validates settings and builds the SDK client once.
func NewOpenAIClient(cfg Settings) (*OpenAIClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%s api key missing", cfg.Provider)
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, errors.New("llm model is required")
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" && cfg.Provider == ProviderAnthropic {
		baseURL = anthropicBaseURL
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}

	return &OpenAIClient{
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		client:      openai.NewClient(opts...),
	}, nil
}

func (o *OpenAIClient) Complete(ctx context.Context, req Request) (string, error) {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)
	if req.System != "" {
		msgs = append(msgs, openai.SystemMessage(req.System))
	}
	for _, m := range req.Messages {
		switch m.Role {
		case RoleAssistant:
			msgs = append(msgs, openai.AssistantMessage(m.Content))
		default:
			msgs = append(msgs, openai.UserMessage(m.Content))
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(o.model),
		Messages:    msgs,
		Temperature: openai.Float(o.temperature),
	}
	if o.maxTokens > 0 {
		params.MaxTokens = openai.Int(o.maxTokens)
	}
	if req.Schema != nil {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &shared.ResponseFormatJSONSchemaParam{
				JSONSchema: shared.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:        req.Schema.Name,
					Description: openai.String(req.Schema.Description),
					Schema:      req.Schema.Definition,
					Strict:      openai.Bool(true),
				},
			},
		}
	}

	logrus.WithFields(logrus.Fields{
		"model":      o.model,
		"messages":   len(msgs),
		"structured": req.Schema != nil,
	}).Debug("requesting chat completion")

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("llm: empty choices")
	}
	content := resp.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("%w (finish_reason=%q)", ErrEmptyCompletion, resp.Choices[0].FinishReason)
	}
	return content, nil
}

// NewClient picks the implementation named by cfg.Provider.
func NewClient(cfg Settings) (Client, error) {
	switch cfg.Provider {
	case ProviderAnthropic, ProviderOpenAI:
		return NewOpenAIClient(cfg)
	case ProviderMock:
		return &MockClient{}, nil
	default:
		return nil, fmt.Errorf("llm provider %q not supported", cfg.Provider)
	}
}
