package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"crazy-bakery/backend/internal/features/wizard/domain"
	"crazy-bakery/backend/internal/metrics"
)

// Finish submits the configuration: cake, then recipe, then either a new
// order or an attachment to the order created earlier in this wizard. Local
// problems fail before any remote call. A remote failure leaves the
// configuration as it was; progress is journaled so a retry resumes after the
// last step that succeeded.
func (w *Wizard) Finish(ctx context.Context) (*domain.Receipt, error) {
	w.mu.Lock()
	if err := w.onStepLocked(domain.StepSummary); err != nil {
		w.mu.Unlock()
		return nil, err
	}
	if err := w.finishCheckLocked(); err != nil {
		w.submitErr = errText(err)
		w.mu.Unlock()
		w.publish()
		return nil, err
	}
	cfg := w.cfg
	ident := *w.identity
	shipping := w.shipping
	w.submitting = true
	w.submitErr = ""
	w.mu.Unlock()
	w.publish()

	receipt, err := w.submit(ctx, cfg, ident, shipping)

	w.mu.Lock()
	w.submitting = false
	if err != nil {
		if w.phase == domain.PhaseActive {
			w.submitErr = errText(err)
		}
		w.mu.Unlock()
		w.deps.Metrics.Submission(metrics.OutcomeError)
		w.deps.Log.Error("wizard %s: submission failed: %v", w.id, err)
		w.publish()
		return nil, err
	}
	if w.phase != domain.PhaseActive {
		// Cancelled while the leaf calls ran. The order exists but the
		// wizard stays closed.
		w.mu.Unlock()
		w.deps.Metrics.Submission(metrics.OutcomeOK)
		w.deps.Log.Warn("wizard %s closed during submission, order %d was still created", w.id, receipt.OrderID)
		w.publish()
		return nil, fmt.Errorf("%w: order %d was created before the wizard closed", domain.ErrClosed, receipt.OrderID)
	}
	w.cfg.OrderID = receipt.OrderID
	w.phase = domain.PhaseSuccess
	w.mu.Unlock()

	w.deps.Metrics.Submission(metrics.OutcomeOK)
	w.deps.Log.Info("wizard %s submitted recipe %d on order %d", w.id, receipt.RecipeID, receipt.OrderID)
	w.publish()
	return receipt, nil
}

// finishCheckLocked runs the local checks of a submission.
func (w *Wizard) finishCheckLocked() error {
	var missing []string
	for f := domain.FieldRecipeType; f <= domain.FieldCoverage; f++ {
		if !w.cfg.IsSet(f) {
			missing = append(missing, f.String())
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", domain.ErrMissingFields, strings.Join(missing, ", "))
	}
	if err := w.checkQuantityLocked(w.cfg.Quantity); err != nil {
		return err
	}
	if w.identity == nil {
		return domain.ErrNotSignedIn
	}
	if err := w.shipping.Validate(); err != nil {
		return err
	}
	if w.policy.RequireResolvedPrice && w.priceViewLocked().Status != domain.StatusResolved {
		return domain.ErrPriceUnresolved
	}
	return nil
}

func (w *Wizard) submit(ctx context.Context, cfg domain.Configuration, ident domain.Identity, shipping domain.ShippingProfile) (*domain.Receipt, error) {
	rec := w.resume(ctx, cfg.Fingerprint())

	if rec.CakeID == 0 {
		started := time.Now()
		id, err := w.deps.Orders.CreateCake(ctx, domain.CakeRequest{
			SpongeID:   cfg.Sponge.ID,
			FillingID:  cfg.Filling.ID,
			CoverageID: cfg.Coverage.ID,
			SizeID:     cfg.Size.ID,
		})
		w.deps.Metrics.Leaf("create_cake", started, err)
		if err != nil {
			return nil, fmt.Errorf("create cake: %w", err)
		}
		rec.CakeID = id
		w.record(ctx, rec)
	}

	if rec.RecipeID == 0 {
		var imageURL string
		if cfg.ImageProposal != nil {
			imageURL = cfg.ImageProposal.ImageURL
		}
		started := time.Now()
		id, err := w.deps.Orders.CreateRecipe(ctx, domain.RecipeRequest{
			RecipeType:    cfg.RecipeType,
			CakeID:        rec.CakeID,
			Quantity:      cfg.Quantity,
			Customization: cfg.Customization,
			ImageURL:      imageURL,
		})
		w.deps.Metrics.Leaf("create_recipe", started, err)
		if err != nil {
			return nil, fmt.Errorf("create recipe: %w", err)
		}
		rec.RecipeID = id
		w.record(ctx, rec)
	}

	receipt := &domain.Receipt{CakeID: rec.CakeID, RecipeID: rec.RecipeID}
	started := time.Now()
	if cfg.HasOrder() {
		err := w.deps.Orders.AttachRecipe(ctx, cfg.OrderID, rec.RecipeID)
		w.deps.Metrics.Leaf("attach_recipe", started, err)
		if err != nil {
			return nil, fmt.Errorf("attach recipe to order %d: %w", cfg.OrderID, err)
		}
		receipt.OrderID = cfg.OrderID
		receipt.Attached = true
	} else {
		id, err := w.deps.Orders.CreateOrder(ctx, domain.OrderRequest{
			IdentityID: ident.ID,
			RecipeIDs:  []int64{rec.RecipeID},
			Notes:      []string{shippingNote(shipping)},
		})
		w.deps.Metrics.Leaf("create_order", started, err)
		if err != nil {
			return nil, fmt.Errorf("create order: %w", err)
		}
		receipt.OrderID = id
	}

	if w.deps.Journal != nil {
		if err := w.deps.Journal.Delete(ctx, w.id); err != nil {
			w.deps.Log.Warn("wizard %s: clearing submission journal: %v", w.id, err)
		}
	}
	return receipt, nil
}

// resume returns the journaled progress for fingerprint, or a fresh record.
func (w *Wizard) resume(ctx context.Context, fingerprint string) domain.SubmissionRecord {
	fresh := domain.SubmissionRecord{WizardID: w.id, Fingerprint: fingerprint}
	if w.deps.Journal == nil {
		return fresh
	}
	rec, err := w.deps.Journal.Load(ctx, w.id)
	if err != nil {
		w.deps.Log.Warn("wizard %s: reading submission journal: %v", w.id, err)
		return fresh
	}
	if rec == nil {
		return fresh
	}
	if rec.Fingerprint != fingerprint {
		w.deps.Log.Info("wizard %s: configuration changed since cake %d, starting over", w.id, rec.CakeID)
		return fresh
	}
	w.deps.Log.Info("wizard %s: resuming submission at cake %d recipe %d", w.id, rec.CakeID, rec.RecipeID)
	return *rec
}

func (w *Wizard) record(ctx context.Context, rec domain.SubmissionRecord) {
	if w.deps.Journal == nil {
		return
	}
	rec.UpdatedAt = time.Now()
	if err := w.deps.Journal.Save(ctx, rec); err != nil {
		w.deps.Log.Warn("wizard %s: writing submission journal: %v", w.id, err)
	}
}

func shippingNote(p domain.ShippingProfile) string {
	return fmt.Sprintf("Envío: %s, %s, %s. Tel: %s", p.Address, p.City, p.Department, p.Phone)
}
