package domain

// Action is a single configuration update. Field reports the chain node the
// action writes, or FieldNone for updates outside the chain.
type Action interface {
	Field() Field
}

// SelectRecipeType sets the root selection and resets quantity to Quantity,
// or to the type's default when Quantity is zero.
type SelectRecipeType struct {
	Type     RecipeType
	Quantity int
}

// SelectSize sets the catalog size.
type SelectSize struct{ Size Size }

// SelectSponge sets the sponge ingredient.
type SelectSponge struct{ Ingredient Ingredient }

// SelectFilling sets the filling ingredient.
type SelectFilling struct{ Ingredient Ingredient }

// SelectCoverage sets the coverage ingredient.
type SelectCoverage struct{ Ingredient Ingredient }

// SetCustomization replaces the decoration description.
type SetCustomization struct{ Text string }

// AcceptProposal writes an accepted proposal, or clears it when Proposal is nil.
type AcceptProposal struct{ Proposal *ImageProposal }

// SetQuantity changes the quantity. It does not cascade.
type SetQuantity struct{ Quantity int }

// ResetForNextProduct empties the configuration but keeps the order id.
type ResetForNextProduct struct{}

func (SelectRecipeType) Field() Field    { return FieldRecipeType }
func (SelectSize) Field() Field          { return FieldSize }
func (SelectSponge) Field() Field        { return FieldSponge }
func (SelectFilling) Field() Field       { return FieldFilling }
func (SelectCoverage) Field() Field      { return FieldCoverage }
func (SetCustomization) Field() Field    { return FieldCustomization }
func (AcceptProposal) Field() Field      { return FieldImageProposal }
func (SetQuantity) Field() Field         { return FieldNone }
func (ResetForNextProduct) Field() Field { return FieldNone }

// Reduce applies a to c and returns the resulting configuration. Writing a
// chain field clears every field strictly after it and leaves the fields
// before it untouched.
func Reduce(c Configuration, a Action) Configuration {
	next := c
	switch act := a.(type) {
	case SelectRecipeType:
		next.RecipeType = act.Type
		next.Quantity = act.Quantity
		if next.Quantity <= 0 {
			next.Quantity = act.Type.DefaultQuantity()
		}
	case SelectSize:
		s := act.Size
		next.Size = &s
	case SelectSponge:
		in := act.Ingredient
		next.Sponge = &in
	case SelectFilling:
		in := act.Ingredient
		next.Filling = &in
	case SelectCoverage:
		in := act.Ingredient
		next.Coverage = &in
	case SetCustomization:
		next.Customization = act.Text
	case AcceptProposal:
		if act.Proposal == nil {
			next.ImageProposal = nil
		} else {
			p := *act.Proposal
			next.ImageProposal = &p
		}
	case SetQuantity:
		next.Quantity = act.Quantity
		return next
	case ResetForNextProduct:
		reset := NewConfiguration()
		reset.OrderID = c.OrderID
		return reset
	default:
		return c
	}
	return clearAfter(next, a.Field())
}

// clearAfter nulls every chain field strictly downstream of f.
func clearAfter(c Configuration, f Field) Configuration {
	if f < FieldSize {
		c.Size = nil
	}
	if f < FieldSponge {
		c.Sponge = nil
	}
	if f < FieldFilling {
		c.Filling = nil
	}
	if f < FieldCoverage {
		c.Coverage = nil
	}
	if f < FieldCustomization {
		c.Customization = ""
	}
	if f < FieldImageProposal {
		c.ImageProposal = nil
	}
	return c
}
