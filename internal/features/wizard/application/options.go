package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"crazy-bakery/backend/internal/features/wizard/domain"
)

// optionSlot is the choice list of one step. key identifies the dependency
// values the list was requested for; seq orders requests for the same step.
type optionSlot struct {
	key    string
	seq    uint64
	status domain.LoadStatus
	items  []domain.Option
	err    string
}

// optionKey derives the request key of step from the configuration. It
// returns false while the step's dependencies are not chosen yet.
func optionKey(step domain.Step, c domain.Configuration) (string, bool) {
	switch step {
	case domain.StepRecipeType:
		return "static", true
	case domain.StepSize:
		if !c.IsSet(domain.FieldRecipeType) {
			return "", false
		}
		return string(c.RecipeType), true
	}
	cat, ok := step.Category()
	if !ok || !c.IsSet(domain.FieldRecipeType) || c.Size == nil {
		return "", false
	}
	return fmt.Sprintf("%s|%d|%s", c.RecipeType, c.Size.ID, cat), true
}

// LoadOptions fetches the choice list of step for the current configuration.
// A response that arrives after the configuration moved on, or after a newer
// request for the same step was issued, is discarded and ErrSuperseded is
// returned together with the current view.
func (w *Wizard) LoadOptions(ctx context.Context, step domain.Step) (domain.OptionsView, error) {
	if !step.HasOptions() {
		return domain.OptionsView{Step: step.String(), Status: domain.StatusIdle}, domain.ErrWrongStep
	}

	w.mu.Lock()
	if err := w.activeLocked(); err != nil {
		w.mu.Unlock()
		return domain.OptionsView{Step: step.String(), Status: domain.StatusIdle}, err
	}
	key, ok := optionKey(step, w.cfg)
	if !ok {
		v := w.optionsViewLocked(step)
		w.mu.Unlock()
		return v, fmt.Errorf("%w: %s options need earlier choices", domain.ErrMissingFields, step)
	}
	if step == domain.StepRecipeType {
		v := w.optionsViewLocked(step)
		w.mu.Unlock()
		return v, nil
	}
	slot := &w.options[step]
	slot.seq++
	seq := slot.seq
	slot.key = key
	slot.status = domain.StatusLoading
	slot.items = nil
	slot.err = ""
	rt, sizeID := w.cfg.RecipeType, w.cfg.SizeID()
	w.mu.Unlock()
	w.publish()

	items, err := w.fetchOptions(ctx, step, rt, sizeID)

	w.mu.Lock()
	current, ok := optionKey(step, w.cfg)
	if slot.seq != seq || !ok || current != key {
		v := w.optionsViewLocked(step)
		w.mu.Unlock()
		w.deps.Metrics.Stale("options")
		w.deps.Log.Debug("wizard %s dropped stale %s options for %s", w.id, step, key)
		return v, domain.ErrSuperseded
	}
	if err != nil {
		slot.status = domain.StatusError
		slot.err = errText(err)
	} else {
		slot.status = domain.StatusResolved
		slot.items = items
	}
	v := w.optionsViewLocked(step)
	w.mu.Unlock()
	w.publish()

	if err != nil {
		w.deps.Log.Warn("wizard %s: loading %s options failed: %v", w.id, step, err)
	}
	return v, err
}

// OptionsFresh reports whether step holds a resolved or in-flight list for
// the current configuration.
func (w *Wizard) OptionsFresh(step domain.Step) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if step == domain.StepRecipeType {
		return true
	}
	if !step.HasOptions() {
		return false
	}
	key, ok := optionKey(step, w.cfg)
	slot := w.options[step]
	return ok && slot.key == key && (slot.status == domain.StatusResolved || slot.status == domain.StatusLoading)
}

// Options returns the current view of step's choice list.
func (w *Wizard) Options(step domain.Step) domain.OptionsView {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.optionsViewLocked(step)
}

func (w *Wizard) fetchOptions(ctx context.Context, step domain.Step, rt domain.RecipeType, sizeID int64) ([]domain.Option, error) {
	started := time.Now()
	if step == domain.StepSize {
		sizes, err := w.deps.Catalog.FetchSizes(ctx, rt)
		w.deps.Metrics.Leaf("fetch_sizes", started, err)
		if err != nil {
			return nil, err
		}
		return domain.SizeOptions(sizes), nil
	}
	cat, _ := step.Category()
	items, err := w.deps.Catalog.FetchIngredients(ctx, rt, sizeID, cat)
	w.deps.Metrics.Leaf("fetch_ingredients", started, err)
	if err != nil {
		return nil, err
	}
	return domain.IngredientOptions(items), nil
}

func (w *Wizard) optionsViewLocked(step domain.Step) domain.OptionsView {
	v := domain.OptionsView{Step: step.String(), Status: domain.StatusIdle}
	if step == domain.StepRecipeType {
		v.Status = domain.StatusResolved
		v.Items = domain.RecipeTypeOptions()
		return v
	}
	if !step.HasOptions() {
		return v
	}
	key, ok := optionKey(step, w.cfg)
	slot := w.options[step]
	if !ok || slot.key != key {
		return v
	}
	v.Status = slot.status
	v.Items = slot.items
	v.Error = slot.err
	return v
}

func (w *Wizard) lookupLocked(step domain.Step, id int64) (domain.Option, error) {
	key, ok := optionKey(step, w.cfg)
	slot := w.options[step]
	if !ok || slot.key != key || slot.status != domain.StatusResolved {
		return domain.Option{}, fmt.Errorf("%w: %s", domain.ErrOptionsNotLoaded, step)
	}
	for _, opt := range slot.items {
		if opt.ID == id {
			return opt, nil
		}
	}
	return domain.Option{}, fmt.Errorf("%w: %s %d", domain.ErrUnknownOption, step, id)
}

// ignoreSuperseded drops the error a discarded stale response reports.
func ignoreSuperseded(err error) error {
	if errors.Is(err, domain.ErrSuperseded) {
		return nil
	}
	return err
}
