package application

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"crazy-bakery/backend/internal/features/wizard/domain"
	"crazy-bakery/backend/internal/logger"
	"crazy-bakery/backend/internal/metrics"

	"github.com/shopspring/decimal"
)

// Redirect targets once the wizard closes.
const (
	RootPath   = "/"
	OrdersPath = "/dashboard/consumer/orders"
)

// Policy holds the tunable business rules of the wizard.
type Policy struct {
	ShippingCost         decimal.Decimal
	CupcakeBoxSizes      []int
	RequireResolvedPrice bool
	CloseDelay           time.Duration
	// IdleTimeout closes a wizard nobody touched for that long. Zero keeps
	// wizards until they are cancelled or done.
	IdleTimeout time.Duration
}

// DefaultPolicy mirrors the shop's standing rules.
func DefaultPolicy() Policy {
	return Policy{
		ShippingCost:    decimal.NewFromInt(5000),
		CupcakeBoxSizes: []int{6, 12, 24},
		CloseDelay:      200 * time.Millisecond,
		IdleTimeout:     30 * time.Minute,
	}
}

// Dependencies are the leaf services a wizard coordinates.
type Dependencies struct {
	Catalog   domain.OptionProvider
	Pricing   domain.PricingService
	Assistant domain.DecorationAssistant
	Auth      domain.AuthGate
	Orders    domain.OrderSubmitter
	Geography domain.GeographyProvider
	Journal   domain.SubmissionJournal
	Metrics   *metrics.Metrics
	Log       *logger.Logger
}

// Selection is a user choice on one of the catalog steps. Recipe types are
// chosen by Value, catalog entries by OptionID.
type Selection struct {
	Field    domain.Field
	OptionID int64
	Value    string
}

// Wizard is the order-configuration state machine of one customer. All
// methods are safe for concurrent use; leaf services are always called
// without holding the lock, and their responses are applied only if the
// configuration they were issued for is still current.
type Wizard struct {
	id      string
	deps    Dependencies
	policy  Policy
	session domain.Session
	notify  func(domain.State)

	mu        sync.Mutex
	phase     domain.Phase
	step      domain.Step
	view      domain.IdentityView
	cfg       domain.Configuration
	candidate *domain.ImageProposal
	shipping  domain.ShippingProfile
	identity  *domain.Identity
	redirect  *domain.Redirect

	options [domain.StepCoverage + 1]optionSlot
	price   priceSlot
	geo     geoSlot

	enh         *enhancement
	enhSeq      uint64
	enhanceErr  string
	generating  bool
	proposalSeq uint64
	proposalErr string
	identityErr string
	submitting  bool
	rev         uint64
	submitErr   string
}

// NewWizard opens an empty wizard bound to session. notify, when not nil,
// receives a snapshot after every state change.
func NewWizard(id string, deps Dependencies, policy Policy, session domain.Session, notify func(domain.State)) *Wizard {
	return &Wizard{
		id:      id,
		deps:    deps,
		policy:  policy,
		session: session,
		notify:  notify,
		phase:   domain.PhaseActive,
		step:    domain.StepRecipeType,
		view:    domain.ViewChoice,
		cfg:     domain.NewConfiguration(),
	}
}

// ID returns the wizard id.
func (w *Wizard) ID() string {
	return w.id
}

// Session returns the authentication session the wizard observes.
func (w *Wizard) Session() domain.Session {
	return w.session
}

// Configuration returns a copy of the current configuration.
func (w *Wizard) Configuration() domain.Configuration {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cfg
}

// CurrentStep returns the current step index.
func (w *Wizard) CurrentStep() domain.Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step
}

// Next advances one step when the current step is complete. Entering the
// identity step re-reads the session.
func (w *Wizard) Next(ctx context.Context) error {
	w.mu.Lock()
	if err := w.editableLocked(); err != nil {
		w.mu.Unlock()
		return err
	}
	if w.step >= domain.LastStep {
		w.mu.Unlock()
		return domain.ErrLastStep
	}
	if !domain.StepComplete(w.step, w.cfg, w.identity != nil) {
		w.mu.Unlock()
		return fmt.Errorf("%w: %s", domain.ErrStepIncomplete, w.step)
	}
	w.step++
	entered := w.step
	w.mu.Unlock()

	w.deps.Metrics.Advanced(entered.String())
	w.deps.Log.Debug("wizard %s advanced to %s", w.id, entered)
	w.publish()

	if entered == domain.StepIdentity {
		// A failed refresh is surfaced as IdentityError; the step still changed.
		_ = w.RefreshIdentity(ctx)
	}
	return nil
}

// Back goes one step back. On the identity step an open login or register
// form first returns to the choice sub-state.
func (w *Wizard) Back() error {
	w.mu.Lock()
	if err := w.editableLocked(); err != nil {
		w.mu.Unlock()
		return err
	}
	if w.step == domain.StepIdentity && (w.view == domain.ViewLoginForm || w.view == domain.ViewRegisterForm) {
		w.view = domain.ViewChoice
		w.identityErr = ""
		w.mu.Unlock()
		w.publish()
		return nil
	}
	if w.step == domain.StepRecipeType {
		w.mu.Unlock()
		return domain.ErrFirstStep
	}
	w.step--
	w.mu.Unlock()
	w.publish()
	return nil
}

// Select applies a catalog choice of the current step. The chosen option
// must come from the list loaded for the current configuration.
func (w *Wizard) Select(sel Selection) error {
	w.mu.Lock()
	if err := w.editableLocked(); err != nil {
		w.mu.Unlock()
		return err
	}
	step, ok := domain.StepForField(sel.Field)
	if !ok {
		w.mu.Unlock()
		return fmt.Errorf("%w: field %s is not selectable", domain.ErrUnknownOption, sel.Field)
	}
	if step != w.step {
		w.mu.Unlock()
		return fmt.Errorf("%w: %s is chosen on the %s step", domain.ErrWrongStep, sel.Field, step)
	}

	var action domain.Action
	if sel.Field == domain.FieldRecipeType {
		rt, err := domain.ParseRecipeType(sel.Value)
		if err != nil {
			w.mu.Unlock()
			return err
		}
		action = domain.SelectRecipeType{Type: rt, Quantity: w.defaultQuantityLocked(rt)}
	} else {
		opt, err := w.lookupLocked(step, sel.OptionID)
		if err != nil {
			w.mu.Unlock()
			return err
		}
		switch sel.Field {
		case domain.FieldSize:
			action = domain.SelectSize{Size: *opt.Size}
		case domain.FieldSponge:
			action = domain.SelectSponge{Ingredient: *opt.Ingredient}
		case domain.FieldFilling:
			action = domain.SelectFilling{Ingredient: *opt.Ingredient}
		case domain.FieldCoverage:
			action = domain.SelectCoverage{Ingredient: *opt.Ingredient}
		}
	}
	w.applyLocked(action)
	w.mu.Unlock()

	w.publish()
	return nil
}

// SetCustomization replaces the decoration text. An enhancement still
// streaming into the text is stopped; the user's edit wins.
func (w *Wizard) SetCustomization(text string) error {
	w.mu.Lock()
	if err := w.onStepLocked(domain.StepCustomization); err != nil {
		w.mu.Unlock()
		return err
	}
	w.applyLocked(domain.SetCustomization{Text: text})
	w.mu.Unlock()
	w.publish()
	return nil
}

// SetQuantity changes the quantity on the summary step. Cakes take any
// positive amount, cupcakes only the configured box sizes.
func (w *Wizard) SetQuantity(q int) error {
	w.mu.Lock()
	if err := w.onStepLocked(domain.StepSummary); err != nil {
		w.mu.Unlock()
		return err
	}
	if err := w.checkQuantityLocked(q); err != nil {
		w.mu.Unlock()
		return err
	}
	w.applyLocked(domain.SetQuantity{Quantity: q})
	w.mu.Unlock()
	w.publish()
	return nil
}

// defaultQuantityLocked starts cupcakes at the smallest configured box.
func (w *Wizard) defaultQuantityLocked(rt domain.RecipeType) int {
	if rt != domain.RecipeCupcake || len(w.policy.CupcakeBoxSizes) == 0 {
		return rt.DefaultQuantity()
	}
	smallest := w.policy.CupcakeBoxSizes[0]
	for _, box := range w.policy.CupcakeBoxSizes[1:] {
		if box < smallest {
			smallest = box
		}
	}
	return smallest
}

func (w *Wizard) checkQuantityLocked(q int) error {
	if q < 1 {
		return fmt.Errorf("%w: %d", domain.ErrInvalidQuantity, q)
	}
	if w.cfg.RecipeType != domain.RecipeCupcake {
		return nil
	}
	for _, box := range w.policy.CupcakeBoxSizes {
		if q == box {
			return nil
		}
	}
	return fmt.Errorf("%w: cupcakes come in boxes of %v", domain.ErrInvalidQuantity, w.policy.CupcakeBoxSizes)
}

// Cancel closes the wizard. The configuration is discarded and the renderer
// is sent to the site root after the close delay. It is accepted while a
// submission runs; that submission then leaves the wizard closed.
func (w *Wizard) Cancel() {
	w.mu.Lock()
	w.detachEnhancementLocked()
	w.phase = domain.PhaseClosed
	w.redirect = &domain.Redirect{Path: RootPath, After: w.policy.CloseDelay}
	w.cfg = domain.NewConfiguration()
	w.candidate = nil
	w.mu.Unlock()
	w.deps.Log.Info("wizard %s cancelled", w.id)
	w.publish()
}

// AddAnother starts a new product on the order that was just submitted.
func (w *Wizard) AddAnother() error {
	w.mu.Lock()
	if w.phase != domain.PhaseSuccess {
		w.mu.Unlock()
		return domain.ErrWrongStep
	}
	w.cfg = domain.Reduce(w.cfg, domain.ResetForNextProduct{})
	w.candidate = nil
	w.phase = domain.PhaseActive
	w.step = domain.StepRecipeType
	w.price = priceSlot{}
	w.enhanceErr, w.proposalErr, w.submitErr, w.identityErr = "", "", "", ""
	orderID := w.cfg.OrderID
	w.mu.Unlock()
	w.deps.Log.Info("wizard %s adding another product to order %d", w.id, orderID)
	w.publish()
	return nil
}

// Done closes the wizard after a successful submission and sends the
// renderer to the customer's orders.
func (w *Wizard) Done() error {
	w.mu.Lock()
	if w.phase != domain.PhaseSuccess {
		w.mu.Unlock()
		return domain.ErrWrongStep
	}
	w.phase = domain.PhaseClosed
	w.redirect = &domain.Redirect{Path: OrdersPath, After: w.policy.CloseDelay}
	w.mu.Unlock()
	w.publish()
	return nil
}

// Snapshot returns the render contract of the current state. Each call gets a
// higher revision than the one before.
func (w *Wizard) Snapshot() domain.State {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.rev++
	st := domain.State{
		ID:                 w.id,
		Revision:           w.rev,
		Phase:              w.phase,
		Step:               w.step,
		StepName:           w.step.String(),
		Config:             w.cfg,
		Candidate:          w.candidate,
		Shipping:           w.shipping,
		Identity:           w.identity,
		Price:              w.priceViewLocked(),
		Enhancing:          w.enh != nil,
		EnhanceError:       w.enhanceErr,
		GeneratingProposal: w.generating,
		ProposalError:      w.proposalErr,
		IdentityError:      w.identityErr,
		Submitting:         w.submitting,
		SubmitError:        w.submitErr,
		OrderID:            w.cfg.OrderID,
		Redirect:           w.redirect,
	}
	if w.step == domain.StepIdentity {
		st.IdentityView = w.view
		st.Geography = w.geographyViewLocked()
	}
	if w.step.HasOptions() {
		v := w.optionsViewLocked(w.step)
		st.Options = &v
	}
	if w.phase == domain.PhaseActive && !w.submitting {
		st.CanNext = w.step < domain.LastStep && domain.StepComplete(w.step, w.cfg, w.identity != nil)
		st.CanBack = w.step > domain.StepRecipeType
		st.CanFinish = w.step == domain.StepSummary && w.finishCheckLocked() == nil
	}
	return st
}

func (w *Wizard) activeLocked() error {
	switch w.phase {
	case domain.PhaseActive:
		return nil
	case domain.PhaseClosed:
		return domain.ErrClosed
	default:
		return domain.ErrNotActive
	}
}

// editableLocked reports whether the user may change the wizard. The
// configuration is frozen while a submission is in flight.
func (w *Wizard) editableLocked() error {
	if err := w.activeLocked(); err != nil {
		return err
	}
	if w.submitting {
		return domain.ErrSubmissionInFlight
	}
	return nil
}

func (w *Wizard) onStepLocked(step domain.Step) error {
	if err := w.editableLocked(); err != nil {
		return err
	}
	if w.step != step {
		return fmt.Errorf("%w: expected %s, on %s", domain.ErrWrongStep, step, w.step)
	}
	return nil
}

// applyLocked runs a user-originated action through the reducer. Writes at
// or above the customization text invalidate the generated candidate and
// detach a running enhancement, whose text no longer belongs to it.
func (w *Wizard) applyLocked(a domain.Action) {
	w.cfg = domain.Reduce(w.cfg, a)
	if f := a.Field(); f != domain.FieldNone && f <= domain.FieldCustomization {
		w.candidate = nil
		w.proposalErr = ""
		w.detachEnhancementLocked()
	}
}

func (w *Wizard) publish() {
	if w.notify == nil {
		return
	}
	w.notify(w.Snapshot())
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return strings.TrimSpace(err.Error())
}
