package application

import (
	"context"
	"sync"
	"time"

	"crazy-bakery/backend/internal/features/wizard/domain"

	"github.com/google/uuid"
)

// WizardService keeps the open wizards and runs the loads a step needs when
// it becomes active.
type WizardService struct {
	deps     Dependencies
	notifier domain.Notifier

	mu      sync.RWMutex
	policy  Policy
	wizards map[string]*entry
}

type entry struct {
	wizard *Wizard
	// idle fires once the wizard went unused for the policy's idle timeout.
	idle *time.Timer
}

// NewWizardService creates a service. notifier may be nil.
func NewWizardService(deps Dependencies, policy Policy, notifier domain.Notifier) *WizardService {
	return &WizardService{
		deps:     deps,
		notifier: notifier,
		policy:   policy,
		wizards:  make(map[string]*entry),
	}
}

// SetPolicy changes the rules used by wizards opened from now on.
func (s *WizardService) SetPolicy(p Policy) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.policy = p
}

// Policy returns the rules new wizards get.
func (s *WizardService) Policy() Policy {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.policy
}

// Open starts a wizard observing session.
func (s *WizardService) Open(ctx context.Context, session domain.Session) *Wizard {
	id := uuid.NewString()
	var notify func(domain.State)
	if s.notifier != nil {
		notify = func(st domain.State) { s.notifier.Publish(id, st) }
	}

	s.mu.Lock()
	w := NewWizard(id, s.deps, s.policy, session, notify)
	e := &entry{wizard: w}
	if ttl := w.policy.IdleTimeout; ttl > 0 {
		e.idle = time.AfterFunc(ttl, func() { s.expire(id) })
	}
	s.wizards[id] = e
	s.mu.Unlock()

	s.deps.Metrics.Opened()
	s.deps.Log.Info("wizard %s opened", id)

	// Knowing the customer early lets the identity step skip straight to
	// shipping; failures are retried on entering that step.
	_ = w.RefreshIdentity(ctx)
	return w
}

// Get returns the open wizard with id and restarts its idle timeout.
func (s *WizardService) Get(id string) (*Wizard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.wizards[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if e.idle != nil {
		e.idle.Reset(e.wizard.policy.IdleTimeout)
	}
	return e.wizard, nil
}

// Count returns the number of open wizards.
func (s *WizardService) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.wizards)
}

// Select applies a choice and preloads the options of the following step.
func (s *WizardService) Select(ctx context.Context, id string, sel Selection) (*Wizard, error) {
	w, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if err := w.Select(sel); err != nil {
		return w, err
	}
	if step, ok := domain.StepForField(sel.Field); ok {
		s.activate(ctx, w, step+1)
	}
	s.refreshPrice(ctx, w)
	return w, nil
}

// Next advances and loads whatever the entered step shows.
func (s *WizardService) Next(ctx context.Context, id string) (*Wizard, error) {
	w, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if err := w.Next(ctx); err != nil {
		return w, err
	}
	s.activate(ctx, w, w.CurrentStep())
	return w, nil
}

// Back goes back and reloads the entered step's options when they are stale.
func (s *WizardService) Back(ctx context.Context, id string) (*Wizard, error) {
	w, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if err := w.Back(); err != nil {
		return w, err
	}
	s.activate(ctx, w, w.CurrentStep())
	return w, nil
}

// SetQuantity changes the quantity and re-quotes the price.
func (s *WizardService) SetQuantity(ctx context.Context, id string, q int) (*Wizard, error) {
	w, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if err := w.SetQuantity(q); err != nil {
		return w, err
	}
	s.refreshPrice(ctx, w)
	return w, nil
}

// AddAnother resets the wizard for a further product of the same order.
func (s *WizardService) AddAnother(id string) (*Wizard, error) {
	w, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	return w, w.AddAnother()
}

// Cancel closes the wizard and forgets it after the close delay.
func (s *WizardService) Cancel(id string) (*Wizard, error) {
	w, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	w.Cancel()
	s.dropAfter(id, w.policy.CloseDelay)
	return w, nil
}

// Done closes a submitted wizard and forgets it after the close delay.
func (s *WizardService) Done(id string) (*Wizard, error) {
	w, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if err := w.Done(); err != nil {
		return w, err
	}
	s.dropAfter(id, w.policy.CloseDelay)
	return w, nil
}

// activate runs the loads of step unless they already track the current
// configuration.
func (s *WizardService) activate(ctx context.Context, w *Wizard, step domain.Step) {
	switch {
	case step.HasOptions():
		if w.OptionsFresh(step) {
			return
		}
		_, err := w.LoadOptions(ctx, step)
		if err = ignoreSuperseded(err); err != nil {
			s.deps.Log.Debug("wizard %s: %s options not loaded: %v", w.id, step, err)
		}
	case step == domain.StepSummary:
		s.refreshPrice(ctx, w)
	}
}

func (s *WizardService) refreshPrice(ctx context.Context, w *Wizard) {
	if w.PriceFresh() || !w.Configuration().Priced() {
		return
	}
	_, err := w.RefreshPrice(ctx)
	if err = ignoreSuperseded(err); err != nil {
		s.deps.Log.Debug("wizard %s: price not resolved: %v", w.id, err)
	}
}

func (s *WizardService) dropAfter(id string, delay time.Duration) {
	time.AfterFunc(delay, func() { s.drop(id) })
}

// expire closes a wizard left idle. Subscribers still watching get the
// closed state before it is forgotten.
func (s *WizardService) expire(id string) {
	s.mu.RLock()
	e, ok := s.wizards[id]
	s.mu.RUnlock()
	if !ok {
		return
	}
	s.deps.Log.Info("wizard %s idle for %s, closing", id, e.wizard.policy.IdleTimeout)
	e.wizard.Cancel()
	s.drop(id)
}

func (s *WizardService) drop(id string) {
	s.mu.Lock()
	e, ok := s.wizards[id]
	delete(s.wizards, id)
	s.mu.Unlock()
	if !ok {
		return
	}
	if e.idle != nil {
		e.idle.Stop()
	}
	s.deps.Metrics.Dropped()
	s.deps.Log.Debug("wizard %s dropped", id)
}
