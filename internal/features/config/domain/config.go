package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

// AppConfig represents the application configuration.
type AppConfig struct {
	DecorationRules string        `json:"decoration_rules"`
	ModelParams     ModelParams   `json:"model_params"`
	Pricing         PricingParams `json:"pricing"`
	CupcakeBoxSizes []int         `json:"cupcake_box_sizes" validate:"required,min=1,dive,gt=0"`
	CloseDelayMS    int           `json:"close_delay_ms" validate:"gte=0,lte=60000"`
	// IdleTimeoutMin closes wizards left untouched; 0 disables it.
	IdleTimeoutMin int `json:"idle_timeout_minutes" validate:"gte=0"`
}

// ModelParams defines the parameters for the AI model.
type ModelParams struct {
	Model       string  `json:"model"`
	ImageModel  string  `json:"image_model"`
	Temperature float32 `json:"temperature" validate:"gte=0,lte=2"`
	MaxTokens   int     `json:"max_tokens" validate:"gte=0"`
}

// PricingParams are the pricing rules of the summary step.
type PricingParams struct {
	ShippingCost         decimal.Decimal `json:"shipping_cost"`
	RequireResolvedPrice bool            `json:"require_resolved_price"`
}

// PublicConfig is the part of the configuration the storefront may read.
type PublicConfig struct {
	CupcakeBoxSizes []int           `json:"cupcake_box_sizes"`
	ShippingCost    decimal.Decimal `json:"shipping_cost"`
	Steps           []string        `json:"steps"`
}

// DefaultAppConfig is used when no configuration file exists yet.
func DefaultAppConfig() *AppConfig {
	return &AppConfig{
		ModelParams: ModelParams{Temperature: 0.7, MaxTokens: 400},
		Pricing: PricingParams{
			ShippingCost: decimal.NewFromInt(5000),
		},
		CupcakeBoxSizes: []int{6, 12, 24},
		CloseDelayMS:    200,
		IdleTimeoutMin:  30,
	}
}

// Validate checks field ranges.
func (c *AppConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid app config: %s", strings.Join(fields, ", "))
		}
		return err
	}
	if c.Pricing.ShippingCost.IsNegative() {
		return fmt.Errorf("invalid app config: pricing.shipping_cost must not be negative")
	}
	return nil
}
