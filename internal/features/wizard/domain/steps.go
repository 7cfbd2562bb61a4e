package domain

// Step is a 0-based wizard step index.
type Step int

const (
	StepRecipeType Step = iota
	StepSize
	StepSponge
	StepFilling
	StepCoverage
	StepCustomization
	StepIdentity
	StepSummary
)

// LastStep is the final step index.
const LastStep = StepSummary

var stepNames = [...]string{
	"recipe_type",
	"size",
	"sponge",
	"filling",
	"coverage",
	"customization",
	"identity",
	"summary",
}

// String returns the wire name of the step.
func (s Step) String() string {
	if s < 0 || int(s) >= len(stepNames) {
		return "unknown"
	}
	return stepNames[s]
}

// ParseStep accepts either a step name or its index.
func ParseStep(v string) (Step, bool) {
	for i, n := range stepNames {
		if n == v {
			return Step(i), true
		}
	}
	if len(v) == 1 && v[0] >= '0' && v[0] <= '7' {
		return Step(v[0] - '0'), true
	}
	return 0, false
}

// StepNames lists every step name in order.
func StepNames() []string {
	out := make([]string, len(stepNames))
	copy(out, stepNames[:])
	return out
}

// Category returns the ingredient category a step offers, if any.
func (s Step) Category() (Category, bool) {
	switch s {
	case StepSponge:
		return CategorySponge, true
	case StepFilling:
		return CategoryFilling, true
	case StepCoverage:
		return CategoryCoverage, true
	}
	return "", false
}

// HasOptions reports whether the step presents a catalog choice list.
func (s Step) HasOptions() bool {
	return s >= StepRecipeType && s <= StepCoverage
}

// StepForField maps a selectable chain field to the step that owns it.
func StepForField(f Field) (Step, bool) {
	switch f {
	case FieldRecipeType:
		return StepRecipeType, true
	case FieldSize:
		return StepSize, true
	case FieldSponge:
		return StepSponge, true
	case FieldFilling:
		return StepFilling, true
	case FieldCoverage:
		return StepCoverage, true
	}
	return 0, false
}

// Phase is the top-level wizard lifecycle.
type Phase string

const (
	PhaseActive  Phase = "active"
	PhaseSuccess Phase = "success"
	PhaseClosed  Phase = "closed"
)

// IdentityView is the sub-state of the identity step.
type IdentityView string

const (
	ViewChoice       IdentityView = "choice"
	ViewLoginForm    IdentityView = "login"
	ViewRegisterForm IdentityView = "register"
	ViewShippingForm IdentityView = "shipping"
)

// StepComplete evaluates the completion predicate of step s.
func StepComplete(s Step, c Configuration, signedIn bool) bool {
	switch s {
	case StepRecipeType:
		return c.IsSet(FieldRecipeType)
	case StepSize:
		return c.IsSet(FieldSize)
	case StepSponge:
		return c.IsSet(FieldSponge)
	case StepFilling:
		return c.IsSet(FieldFilling)
	case StepCoverage:
		return c.IsSet(FieldCoverage)
	case StepCustomization:
		return c.IsSet(FieldCustomization) && c.IsSet(FieldImageProposal)
	case StepIdentity:
		return signedIn
	case StepSummary:
		return true
	}
	return false
}
