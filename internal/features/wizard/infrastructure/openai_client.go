package infrastructure

import (
	"context"
	"fmt"
	"sync"

	"crazy-bakery/backend/internal/features/wizard/domain"
	"crazy-bakery/backend/internal/logger"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIClient enhances decoration texts with a streamed chat completion and
// draws decoration proposals with the image API.
type OpenAIClient struct {
	client *openai.Client
	log    *logger.Logger

	mu       sync.RWMutex
	settings AssistantSettings
}

// NewOpenAIClient creates an OpenAI client; an API key is required.
func NewOpenAIClient(cfg AIConfig, log *logger.Logger) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	return &OpenAIClient{
		client:   openai.NewClientWithConfig(oc),
		log:      log,
		settings: cfg.Settings.withDefaults(),
	}, nil
}

// Configure replaces prompt and model settings for later calls.
func (c *OpenAIClient) Configure(s AssistantSettings) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.settings = s.withDefaults()
}

func (c *OpenAIClient) current() AssistantSettings {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.settings
}

// EnhanceText streams an improved decoration text for idea.
func (c *OpenAIClient) EnhanceText(ctx context.Context, cfg domain.Configuration, idea string) (domain.FragmentStream, error) {
	s := c.current()
	req := openai.ChatCompletionRequest{
		Model:       s.Model,
		Temperature: s.Temperature,
		MaxTokens:   s.MaxTokens,
		Stream:      true,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: BuildDecorationPrompt(s.DecorationRules, cfg, idea)},
			{Role: openai.ChatMessageRoleUser, Content: idea},
		},
	}
	stream, err := c.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		c.log.Error("[OpenAI] CreateChatCompletionStream error: %v", err)
		return nil, fmt.Errorf("failed to start enhancement: %w", err)
	}
	return &chatStream{stream: stream}, nil
}

// GenerateImageProposal draws the configured product.
func (c *OpenAIClient) GenerateImageProposal(ctx context.Context, cfg domain.Configuration) (*domain.ImageProposal, error) {
	s := c.current()
	prompt := BuildImagePrompt(cfg)
	resp, err := c.client.CreateImage(ctx, openai.ImageRequest{
		Prompt:         prompt,
		Model:          s.ImageModel,
		N:              1,
		Size:           openai.CreateImageSize1024x1024,
		ResponseFormat: openai.CreateImageResponseFormatURL,
	})
	if err != nil {
		c.log.Error("[OpenAI] CreateImage error: %v", err)
		return nil, fmt.Errorf("failed to generate image: %w", err)
	}
	if len(resp.Data) == 0 || resp.Data[0].URL == "" {
		return nil, fmt.Errorf("failed to generate image: empty response")
	}
	return &domain.ImageProposal{Prompt: prompt, ImageURL: resp.Data[0].URL}, nil
}

// chatStream yields the non-empty content deltas of a chat stream.
type chatStream struct {
	stream *openai.ChatCompletionStream
}

func (s *chatStream) Recv() (string, error) {
	for {
		resp, err := s.stream.Recv()
		if err != nil {
			return "", err
		}
		if len(resp.Choices) == 0 || resp.Choices[0].Delta.Content == "" {
			continue
		}
		return resp.Choices[0].Delta.Content, nil
	}
}

func (s *chatStream) Close() error {
	s.stream.Close()
	return nil
}
