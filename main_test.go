package main

import (
	"testing"
	"time"

	config_domain "crazy-bakery/backend/internal/features/config/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestPolicyFromAppConfig(t *testing.T) {
	c := config_domain.DefaultAppConfig()
	c.Pricing.ShippingCost = decimal.NewFromInt(8000)
	c.Pricing.RequireResolvedPrice = true
	c.CupcakeBoxSizes = []int{4}
	c.CloseDelayMS = 50
	c.IdleTimeoutMin = 0

	p := policyFrom(c)
	assert.True(t, p.ShippingCost.Equal(decimal.NewFromInt(8000)))
	assert.True(t, p.RequireResolvedPrice)
	assert.Equal(t, []int{4}, p.CupcakeBoxSizes)
	assert.Equal(t, 50*time.Millisecond, p.CloseDelay)
	assert.Zero(t, p.IdleTimeout)
	assert.Equal(t, 30*time.Minute, policyFrom(config_domain.DefaultAppConfig()).IdleTimeout)

	c.CupcakeBoxSizes = nil
	assert.Equal(t, []int{6, 12, 24}, policyFrom(c).CupcakeBoxSizes)
}

func TestAssistantSettingsFromAppConfig(t *testing.T) {
	c := config_domain.DefaultAppConfig()
	c.DecorationRules = "Reglas."
	c.ModelParams.Model = "gpt-4o"
	s := assistantSettings(c)
	assert.Equal(t, "Reglas.", s.DecorationRules)
	assert.Equal(t, "gpt-4o", s.Model)
	assert.Equal(t, float32(0.7), s.Temperature)
}
