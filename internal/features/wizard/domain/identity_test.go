package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShippingProfileValidate(t *testing.T) {
	p := ShippingProfile{Phone: "3001234567", Address: "Calle 1", Department: "Antioquia", City: "Medellín"}
	require.NoError(t, p.Validate())

	p.City = ""
	err := p.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "city")
}

func TestShippingDepartmentChangeClearsCity(t *testing.T) {
	p := ShippingProfile{Department: "Antioquia", City: "Medellín"}
	assert.Equal(t, "Medellín", p.WithDepartment("Antioquia").City)
	assert.Empty(t, p.WithDepartment("Cundinamarca").City)
}

func TestRegisterProfileValidate(t *testing.T) {
	valid := RegisterProfile{
		Name: "Ana María Pérez", Email: "ana@example.com",
		Password: "secret123", ConfirmPassword: "secret123",
		Phone: "300", Address: "Calle 1", Department: "Antioquia", City: "Medellín",
	}
	tests := []struct {
		name    string
		mutate  func(*RegisterProfile)
		wantErr bool
	}{
		{"valid", func(*RegisterProfile) {}, false},
		{"bad email", func(p *RegisterProfile) { p.Email = "nope" }, true},
		{"short password", func(p *RegisterProfile) { p.Password, p.ConfirmPassword = "short", "short" }, true},
		{"mismatch", func(p *RegisterProfile) { p.ConfirmPassword = "different1" }, true},
		{"missing city", func(p *RegisterProfile) { p.City = "" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.mutate(&p)
			err := p.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrValidation)
				return
			}
			assert.NoError(t, err)
		})
	}

	first, last := valid.SplitName()
	assert.Equal(t, "Ana", first)
	assert.Equal(t, "María Pérez", last)

	first, last = RegisterProfile{Name: "Ana"}.SplitName()
	assert.Equal(t, "Ana", first)
	assert.Equal(t, " ", last)
}

func TestParseRecipeType(t *testing.T) {
	rt, err := ParseRecipeType("torta")
	require.NoError(t, err)
	assert.Equal(t, RecipeCake, rt)

	rt, err = ParseRecipeType("CUPCAKE")
	require.NoError(t, err)
	assert.Equal(t, RecipeCupcake, rt)

	_, err = ParseRecipeType("pie")
	assert.ErrorIs(t, err, ErrUnknownOption)
}

func TestParseStep(t *testing.T) {
	s, ok := ParseStep("sponge")
	assert.True(t, ok)
	assert.Equal(t, StepSponge, s)

	s, ok = ParseStep("7")
	assert.True(t, ok)
	assert.Equal(t, StepSummary, s)

	_, ok = ParseStep("checkout")
	assert.False(t, ok)
}
