package domain

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func full() Configuration {
	c := NewConfiguration()
	c = Reduce(c, SelectRecipeType{Type: RecipeCake})
	c = Reduce(c, SelectSize{Size: Size{ID: 2, Name: "Medium", Portions: 8}})
	c = Reduce(c, SelectSponge{Ingredient: Ingredient{ID: 10, Name: "Vanilla", Category: CategorySponge}})
	c = Reduce(c, SelectFilling{Ingredient: Ingredient{ID: 20, Name: "Strawberry", Category: CategoryFilling}})
	c = Reduce(c, SelectCoverage{Ingredient: Ingredient{ID: 30, Name: "Fondant", Category: CategoryCoverage}})
	c = Reduce(c, SetCustomization{Text: "Happy Birthday"})
	c = Reduce(c, AcceptProposal{Proposal: &ImageProposal{Prompt: "p", ImageURL: "https://img/1.png"}})
	return c
}

func actionFor(f Field, r *rand.Rand) Action {
	id := int64(r.Intn(50) + 1)
	switch f {
	case FieldRecipeType:
		if r.Intn(2) == 0 {
			return SelectRecipeType{Type: RecipeCake}
		}
		return SelectRecipeType{Type: RecipeCupcake}
	case FieldSize:
		return SelectSize{Size: Size{ID: id, Name: "s"}}
	case FieldSponge:
		return SelectSponge{Ingredient: Ingredient{ID: id, Value: decimal.NewFromInt(id)}}
	case FieldFilling:
		return SelectFilling{Ingredient: Ingredient{ID: id}}
	case FieldCoverage:
		return SelectCoverage{Ingredient: Ingredient{ID: id}}
	case FieldCustomization:
		return SetCustomization{Text: "text"}
	default:
		return AcceptProposal{Proposal: &ImageProposal{ImageURL: "u"}}
	}
}

func TestReduceClearsOnlyDownstream(t *testing.T) {
	base := full()
	for f := FieldRecipeType; f <= FieldImageProposal; f++ {
		t.Run(f.String(), func(t *testing.T) {
			next := Reduce(base, actionFor(f, rand.New(rand.NewSource(int64(f)))))
			for g := FieldRecipeType; g <= FieldImageProposal; g++ {
				switch {
				case g < f:
					assert.True(t, next.IsSet(g), "upstream %s must be kept", g)
				case g == f:
					assert.True(t, next.IsSet(g), "%s must be set", g)
				default:
					assert.False(t, next.IsSet(g), "downstream %s must be cleared", g)
				}
			}
		})
	}
}

func TestReduceCascadeHoldsForRandomSequences(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for run := 0; run < 200; run++ {
		c := NewConfiguration()
		for i := 0; i < 25; i++ {
			f := Field(r.Intn(int(FieldImageProposal) + 1))
			before := c
			c = Reduce(c, actionFor(f, r))

			for g := f + 1; g <= FieldImageProposal; g++ {
				require.False(t, c.IsSet(g), "run %d step %d: %s set after writing %s", run, i, g, f)
			}
			assert.Equal(t, before.OrderID, c.OrderID)
			if f > FieldRecipeType {
				assert.Equal(t, before.RecipeType, c.RecipeType)
			}
			if f > FieldSize {
				assert.Equal(t, before.Size, c.Size)
			}
			if f > FieldSponge {
				assert.Equal(t, before.Sponge, c.Sponge)
			}
			if f > FieldFilling {
				assert.Equal(t, before.Filling, c.Filling)
			}
			if f > FieldCoverage {
				assert.Equal(t, before.Coverage, c.Coverage)
			}
			if f > FieldCustomization {
				assert.Equal(t, before.Customization, c.Customization)
			}
		}
	}
}

func TestReselectingSameValueStillCascades(t *testing.T) {
	c := full()
	next := Reduce(c, SelectSize{Size: *c.Size})
	assert.Equal(t, c.Size, next.Size)
	assert.Nil(t, next.Sponge)
	assert.Empty(t, next.Customization)
	assert.Nil(t, next.ImageProposal)
}

func TestQuantityDefaults(t *testing.T) {
	c := NewConfiguration()
	c = Reduce(c, SelectRecipeType{Type: RecipeCupcake})
	assert.Equal(t, 6, c.Quantity)

	c = Reduce(c, SetQuantity{Quantity: 24})
	assert.Equal(t, 24, c.Quantity)

	c = Reduce(c, SelectRecipeType{Type: RecipeCake})
	assert.Equal(t, 1, c.Quantity)

	c = Reduce(c, SetQuantity{Quantity: 3})
	c = Reduce(c, SelectRecipeType{Type: RecipeCake})
	assert.Equal(t, 1, c.Quantity)

	c = Reduce(c, SelectRecipeType{Type: RecipeCupcake, Quantity: 12})
	assert.Equal(t, 12, c.Quantity)
}

func TestSetQuantityDoesNotCascade(t *testing.T) {
	c := full()
	next := Reduce(c, SetQuantity{Quantity: 4})
	assert.Equal(t, 4, next.Quantity)
	assert.NotNil(t, next.ImageProposal)
	assert.Equal(t, "Happy Birthday", next.Customization)
}

func TestUnacceptNullsProposal(t *testing.T) {
	c := full()
	next := Reduce(c, AcceptProposal{Proposal: nil})
	assert.Nil(t, next.ImageProposal)
	assert.Equal(t, "Happy Birthday", next.Customization)
}

func TestResetKeepsOrderID(t *testing.T) {
	c := full()
	c.OrderID = 77
	next := Reduce(c, ResetForNextProduct{})
	assert.Equal(t, int64(77), next.OrderID)
	assert.False(t, next.IsSet(FieldRecipeType))
	assert.Nil(t, next.Size)
	assert.Equal(t, 1, next.Quantity)
}

func TestReduceDoesNotAliasInput(t *testing.T) {
	c := full()
	sponge := c.Sponge
	_ = Reduce(c, SelectSize{Size: Size{ID: 99}})
	assert.Same(t, sponge, c.Sponge)
	assert.Equal(t, int64(2), c.Size.ID)
}

func TestFingerprint(t *testing.T) {
	a := full()
	b := full()
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())

	b = Reduce(b, SetQuantity{Quantity: 2})
	assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())
}

func TestStepComplete(t *testing.T) {
	c := NewConfiguration()
	assert.False(t, StepComplete(StepRecipeType, c, false))

	c = full()
	for s := StepRecipeType; s <= StepCustomization; s++ {
		assert.True(t, StepComplete(s, c, false), s.String())
	}
	assert.False(t, StepComplete(StepIdentity, c, false))
	assert.True(t, StepComplete(StepIdentity, c, true))
	assert.True(t, StepComplete(StepSummary, NewConfiguration(), false))

	c = Reduce(c, AcceptProposal{Proposal: nil})
	assert.False(t, StepComplete(StepCustomization, c, true))

	c = Reduce(c, SetCustomization{Text: "   "})
	assert.False(t, StepComplete(StepCustomization, c, true))
}
