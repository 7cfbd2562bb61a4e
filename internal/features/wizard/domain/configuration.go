package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
)

// Field names a node of the selection dependency chain, in chain order.
type Field int

const (
	FieldRecipeType Field = iota
	FieldSize
	FieldSponge
	FieldFilling
	FieldCoverage
	FieldCustomization
	FieldImageProposal
	// FieldNone marks actions that sit outside the chain (quantity, reset).
	FieldNone Field = -1
)

// String returns the wire name of the field.
func (f Field) String() string {
	switch f {
	case FieldRecipeType:
		return "recipe_type"
	case FieldSize:
		return "size"
	case FieldSponge:
		return "sponge"
	case FieldFilling:
		return "filling"
	case FieldCoverage:
		return "coverage"
	case FieldCustomization:
		return "customization"
	case FieldImageProposal:
		return "image_proposal"
	default:
		return "none"
	}
}

// ParseField maps a wire name to a selectable Field.
func ParseField(s string) (Field, bool) {
	for f := FieldRecipeType; f <= FieldImageProposal; f++ {
		if f.String() == s {
			return f, true
		}
	}
	return FieldNone, false
}

// Configuration is the order being assembled across the wizard steps.
// Values are treated as immutable: Reduce returns a new Configuration and
// never writes through the pointers it holds.
type Configuration struct {
	RecipeType    RecipeType     `json:"recipe_type,omitempty"`
	Size          *Size          `json:"size,omitempty"`
	Sponge        *Ingredient    `json:"sponge,omitempty"`
	Filling       *Ingredient    `json:"filling,omitempty"`
	Coverage      *Ingredient    `json:"coverage,omitempty"`
	Customization string         `json:"customization,omitempty"`
	ImageProposal *ImageProposal `json:"image_proposal,omitempty"`
	Quantity      int            `json:"quantity"`
	OrderID       int64          `json:"order_id,omitempty"`
}

// NewConfiguration returns the empty configuration a wizard opens with.
func NewConfiguration() Configuration {
	return Configuration{Quantity: 1}
}

// IsSet reports whether field f currently holds a value.
func (c Configuration) IsSet(f Field) bool {
	switch f {
	case FieldRecipeType:
		return c.RecipeType.Valid()
	case FieldSize:
		return c.Size != nil
	case FieldSponge:
		return c.Sponge != nil
	case FieldFilling:
		return c.Filling != nil
	case FieldCoverage:
		return c.Coverage != nil
	case FieldCustomization:
		return strings.TrimSpace(c.Customization) != ""
	case FieldImageProposal:
		return c.ImageProposal != nil
	}
	return false
}

// HasOrder reports whether an order was already persisted for this wizard.
func (c Configuration) HasOrder() bool {
	return c.OrderID > 0
}

// Priced reports whether every field the price depends on is present.
func (c Configuration) Priced() bool {
	return c.IsSet(FieldRecipeType) && c.IsSet(FieldSize) && c.IsSet(FieldSponge) &&
		c.IsSet(FieldFilling) && c.IsSet(FieldCoverage) && c.Quantity >= 1
}

// SizeID returns the selected size id or 0.
func (c Configuration) SizeID() int64 {
	if c.Size == nil {
		return 0
	}
	return c.Size.ID
}

// IngredientIDs returns sponge, filling and coverage ids in that order,
// skipping the unset ones.
func (c Configuration) IngredientIDs() []int64 {
	var ids []int64
	for _, in := range []*Ingredient{c.Sponge, c.Filling, c.Coverage} {
		if in != nil {
			ids = append(ids, in.ID)
		}
	}
	return ids
}

// Fingerprint identifies the data a submission would send. Two configurations
// with the same fingerprint produce identical create requests.
func (c Configuration) Fingerprint() string {
	type submitted struct {
		RecipeType RecipeType `json:"t"`
		Size       int64      `json:"s"`
		Parts      []int64    `json:"p"`
		Text       string     `json:"x"`
		Image      string     `json:"i"`
		Quantity   int        `json:"q"`
		OrderID    int64      `json:"o"`
	}
	s := submitted{
		RecipeType: c.RecipeType,
		Size:       c.SizeID(),
		Parts:      c.IngredientIDs(),
		Text:       c.Customization,
		Quantity:   c.Quantity,
		OrderID:    c.OrderID,
	}
	if c.ImageProposal != nil {
		s.Image = c.ImageProposal.ImageURL
	}
	b, _ := json.Marshal(s)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
