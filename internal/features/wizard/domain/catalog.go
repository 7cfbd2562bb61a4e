package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// RecipeType is the root selection of the wizard.
type RecipeType string

const (
	RecipeUnset   RecipeType = ""
	RecipeCake    RecipeType = "CAKE"
	RecipeCupcake RecipeType = "CUPCAKE"
)

// ParseRecipeType accepts the public names and the bakery backend names.
func ParseRecipeType(s string) (RecipeType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "CAKE", "TORTA":
		return RecipeCake, nil
	case "CUPCAKE":
		return RecipeCupcake, nil
	}
	return RecipeUnset, fmt.Errorf("%w: recipe type %q", ErrUnknownOption, s)
}

// Valid reports whether t is one of the known recipe types.
func (t RecipeType) Valid() bool {
	return t == RecipeCake || t == RecipeCupcake
}

// DefaultQuantity is the quantity a fresh selection of t starts with when
// no box sizes are configured. Cupcakes are sold by the box of six.
func (t RecipeType) DefaultQuantity() int {
	if t == RecipeCupcake {
		return 6
	}
	return 1
}

// Category scopes ingredients to the step that offers them.
type Category string

const (
	CategorySponge   Category = "SPONGE"
	CategoryFilling  Category = "FILLING"
	CategoryCoverage Category = "COVERAGE"
)

// Size is a catalog size. Height and Diameter are only meaningful for cakes.
type Size struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Portions int     `json:"portions"`
	Height   float64 `json:"height,omitempty"`
	Diameter float64 `json:"diameter,omitempty"`
}

// Ingredient is a catalog ingredient scoped to (recipe type, size).
type Ingredient struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Composition string          `json:"composition,omitempty"`
	Category    Category        `json:"category"`
	Value       decimal.Decimal `json:"value"`
}

// ImageProposal is a generated decoration image and the prompt behind it.
type ImageProposal struct {
	Prompt   string `json:"prompt"`
	ImageURL string `json:"image_url"`
}

// Option is one entry of a step's choice list as seen by the renderer.
type Option struct {
	ID    int64  `json:"id,omitempty"`
	Value string `json:"value,omitempty"`
	Label string `json:"label"`

	Size       *Size       `json:"size,omitempty"`
	Ingredient *Ingredient `json:"ingredient,omitempty"`
}

// RecipeTypeOptions is the fixed option list of the first step.
func RecipeTypeOptions() []Option {
	return []Option{
		{Value: string(RecipeCake), Label: "Cake"},
		{Value: string(RecipeCupcake), Label: "Cupcake"},
	}
}

// SizeOptions wraps catalog sizes as options.
func SizeOptions(sizes []Size) []Option {
	out := make([]Option, 0, len(sizes))
	for i := range sizes {
		s := sizes[i]
		out = append(out, Option{ID: s.ID, Label: s.Name, Size: &s})
	}
	return out
}

// IngredientOptions wraps catalog ingredients as options.
func IngredientOptions(items []Ingredient) []Option {
	out := make([]Option, 0, len(items))
	for i := range items {
		in := items[i]
		out = append(out, Option{ID: in.ID, Label: in.Name, Ingredient: &in})
	}
	return out
}
