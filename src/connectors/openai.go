package connectors

import (
	"context"
	"errors"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	logger "github.com/sirupsen/logrus"
)

// Completer produces a natural-language completion for a prompt. Implemented by
// OpenAIClient; faked in tests.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// OpenAIClient wraps the OpenAI chat completion API for the digest loop and the
// chat responder.
type OpenAIClient struct {
	client openai.Client
	model  string
}

// NewOpenAIClient builds a client from env config. Returns ErrNotConfigured
// when no API key is set so callers can degrade to a no-op.
func NewOpenAIClient() (*OpenAIClient, error) {
	config := GetConfig()
	if config.OpenAIKey == "" {
		return nil, ErrNotConfigured
	}

	client := openai.NewClient(
		option.WithAPIKey(config.OpenAIKey),
		option.WithRequestTimeout(config.OpenAITimeout),
	)

	return &OpenAIClient{client: client, model: config.OpenAIModel}, nil
}

// Complete sends a single-turn user prompt and returns the model's reply text.
func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	completion, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		logger.WithError(err).WithField("connector", "OpenAIClient").Error("chat completion failed")
		return "", err
	}
	if len(completion.Choices) == 0 {
		return "", errors.New("openai: completion returned no choices")
	}

	return strings.TrimSpace(completion.Choices[0].Message.Content), nil
}
