package infrastructure

import (
	"context"
	"fmt"
	"net/http"

	"crazy-bakery/backend/internal/features/wizard/domain"
	"crazy-bakery/backend/internal/logger"

	openai "github.com/sashabaranov/go-openai"
)

// Image providers.
const (
	ImageProviderOpenAI = "openai"
	ImageProviderBakery = "bakery"
)

// TextEnhancer streams improved decoration texts.
type TextEnhancer interface {
	EnhanceText(ctx context.Context, c domain.Configuration, text string) (domain.FragmentStream, error)
}

// ImageGenerator draws decoration proposals.
type ImageGenerator interface {
	GenerateImageProposal(ctx context.Context, c domain.Configuration) (*domain.ImageProposal, error)
}

// AssistantSettings are the prompt and model parameters of the assistant.
type AssistantSettings struct {
	DecorationRules string  `json:"decoration_rules"`
	Model           string  `json:"model"`
	ImageModel      string  `json:"image_model"`
	Temperature     float32 `json:"temperature"`
	MaxTokens       int     `json:"max_tokens"`
}

func (s AssistantSettings) withDefaults() AssistantSettings {
	if s.DecorationRules == "" {
		s.DecorationRules = DefaultDecorationRules
	}
	if s.Model == "" {
		s.Model = openai.GPT4Turbo
	}
	if s.ImageModel == "" {
		s.ImageModel = openai.CreateImageModelDallE3
	}
	return s
}

// AIConfig holds configuration for the decoration assistant.
type AIConfig struct {
	ImageProvider string            `json:"image_provider"` // "openai" or "bakery"
	APIKey        string            `json:"api_key"`
	BaseURL       string            `json:"base_url,omitempty"`
	BakeryURL     string            `json:"bakery_url,omitempty"`
	Settings      AssistantSettings `json:"settings"`
}

// DecorationAssistant pairs a text enhancer with an image generator.
type DecorationAssistant struct {
	TextEnhancer
	ImageGenerator

	openai *OpenAIClient
}

// NewDecorationAssistant builds the assistant described by cfg. Texts are
// always enhanced through OpenAI; images come from the configured provider.
func NewDecorationAssistant(cfg AIConfig, hc *http.Client, log *logger.Logger) (*DecorationAssistant, error) {
	oc, err := NewOpenAIClient(cfg, log)
	if err != nil {
		return nil, err
	}
	a := &DecorationAssistant{TextEnhancer: oc, openai: oc}
	switch cfg.ImageProvider {
	case "", ImageProviderOpenAI:
		a.ImageGenerator = oc
	case ImageProviderBakery:
		a.ImageGenerator = NewBakeryImageClient(cfg.BakeryURL, hc, log)
	default:
		return nil, fmt.Errorf("unknown image provider %q", cfg.ImageProvider)
	}
	return a, nil
}

// Configure forwards new prompt and model settings.
func (a *DecorationAssistant) Configure(s AssistantSettings) {
	a.openai.Configure(s)
}
