package application

import (
	"context"
	"time"

	"crazy-bakery/backend/internal/features/wizard/domain"
)

// RefreshIdentity pulls the signed-in customer from the session. On the
// identity step a present identity opens the shipping form, prefilled from
// the stored profile when the form is still empty, and the location lists
// are loaded.
func (w *Wizard) RefreshIdentity(ctx context.Context) error {
	started := time.Now()
	ident, err := w.session.Current(ctx)
	w.deps.Metrics.Leaf("current_identity", started, err)

	w.mu.Lock()
	if err != nil {
		w.identityErr = errText(err)
		w.mu.Unlock()
		w.publish()
		w.deps.Log.Warn("wizard %s: identity refresh failed: %v", w.id, err)
		return err
	}
	w.identity = ident
	if w.step == domain.StepIdentity {
		switch {
		case ident != nil:
			w.view = domain.ViewShippingForm
			w.identityErr = ""
			if w.shipping.Empty() {
				w.shipping = ident.Shipping
			}
		case w.view == domain.ViewShippingForm:
			w.view = domain.ViewChoice
		}
	}
	onIdentity := w.step == domain.StepIdentity
	w.mu.Unlock()
	w.publish()

	if onIdentity {
		// A failed read shows in the geography view and is retried on the
		// next location check.
		_, _ = w.LoadGeography(ctx)
	}
	return nil
}

// ChooseAuth opens the login or register form from the choice sub-state.
func (w *Wizard) ChooseAuth(view domain.IdentityView) error {
	w.mu.Lock()
	defer w.publish()
	defer w.mu.Unlock()
	if err := w.onStepLocked(domain.StepIdentity); err != nil {
		return err
	}
	if w.view != domain.ViewChoice || (view != domain.ViewLoginForm && view != domain.ViewRegisterForm) {
		return domain.ErrWrongStep
	}
	w.view = view
	w.identityErr = ""
	return nil
}

// Login signs in with the identity provider. On success the session is
// established and re-read; the step never advances on its own.
func (w *Wizard) Login(ctx context.Context, email, password string) error {
	if err := w.expectView(domain.ViewLoginForm); err != nil {
		return err
	}
	started := time.Now()
	creds, err := w.deps.Auth.SignIn(ctx, email, password)
	w.deps.Metrics.Leaf("sign_in", started, err)
	if err != nil {
		return w.identityFailed(err)
	}
	return w.establish(ctx, *creds)
}

// Register signs a new customer up. The profile is validated locally before
// anything is sent.
func (w *Wizard) Register(ctx context.Context, profile domain.RegisterProfile) error {
	if err := w.expectView(domain.ViewRegisterForm); err != nil {
		return err
	}
	if err := profile.Validate(); err != nil {
		return w.identityFailed(err)
	}
	if err := w.checkLocation(ctx, profile.Department, profile.City); err != nil {
		return w.identityFailed(err)
	}
	started := time.Now()
	creds, err := w.deps.Auth.SignUp(ctx, profile)
	w.deps.Metrics.Leaf("sign_up", started, err)
	if err != nil {
		return w.identityFailed(err)
	}
	w.mu.Lock()
	if w.shipping.Empty() {
		w.shipping = profile.Shipping()
	}
	w.mu.Unlock()
	return w.establish(ctx, *creds)
}

func (w *Wizard) establish(ctx context.Context, creds domain.Credentials) error {
	w.session.Establish(creds)
	if err := w.RefreshIdentity(ctx); err != nil {
		return err
	}
	w.mu.Lock()
	signedIn := w.identity != nil
	w.mu.Unlock()
	if !signedIn {
		return w.identityFailed(domain.ErrNotSignedIn)
	}
	w.deps.Log.Info("wizard %s signed in as %s", w.id, creds.UserID)
	return nil
}

// UpdateShipping replaces the shipping form. Moving to another department
// drops a city the caller did not change along with it. The city must lie
// in the chosen department.
func (w *Wizard) UpdateShipping(ctx context.Context, p domain.ShippingProfile) error {
	w.mu.Lock()
	if err := w.shippingFormLocked(); err != nil {
		w.mu.Unlock()
		return err
	}
	prev := w.shipping
	next := prev.WithDepartment(p.Department)
	next.Phone, next.Address = p.Phone, p.Address
	if p.City != prev.City {
		next.City = p.City
	}
	w.mu.Unlock()

	if err := w.checkLocation(ctx, next.Department, next.City); err != nil {
		return err
	}

	w.mu.Lock()
	if err := w.shippingFormLocked(); err != nil {
		w.mu.Unlock()
		return err
	}
	if w.shipping != prev {
		w.mu.Unlock()
		return domain.ErrSuperseded
	}
	w.shipping = next
	w.mu.Unlock()
	w.publish()
	return nil
}

func (w *Wizard) shippingFormLocked() error {
	if err := w.onStepLocked(domain.StepIdentity); err != nil {
		return err
	}
	if w.view != domain.ViewShippingForm {
		return domain.ErrNotSignedIn
	}
	return nil
}

func (w *Wizard) expectView(view domain.IdentityView) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.onStepLocked(domain.StepIdentity); err != nil {
		return err
	}
	if w.view != view {
		return domain.ErrWrongStep
	}
	return nil
}

func (w *Wizard) identityFailed(err error) error {
	w.mu.Lock()
	w.identityErr = errText(err)
	w.mu.Unlock()
	w.publish()
	return err
}
