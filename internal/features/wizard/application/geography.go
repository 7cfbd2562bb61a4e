package application

import (
	"context"
	"fmt"
	"time"

	"crazy-bakery/backend/internal/features/wizard/domain"
)

type geoSlot struct {
	status domain.LoadStatus
	err    string
	data   *domain.Geography
}

// LoadGeography fetches the department and city lists. They are read once
// per wizard; a failed read is retried on the next call. Without a geography
// provider the lists stay empty and locations are not checked.
func (w *Wizard) LoadGeography(ctx context.Context) (*domain.Geography, error) {
	if w.deps.Geography == nil {
		return nil, nil
	}
	w.mu.Lock()
	if w.geo.data != nil {
		g := w.geo.data
		w.mu.Unlock()
		return g, nil
	}
	w.geo.status = domain.StatusLoading
	w.geo.err = ""
	w.mu.Unlock()
	w.publish()

	started := time.Now()
	g, err := w.fetchGeography(ctx)
	w.deps.Metrics.Leaf("geography", started, err)

	w.mu.Lock()
	if w.geo.data != nil {
		g = w.geo.data
		w.mu.Unlock()
		return g, nil
	}
	if err != nil {
		w.geo.status = domain.StatusError
		w.geo.err = errText(err)
		w.mu.Unlock()
		w.deps.Log.Warn("wizard %s: loading geography: %v", w.id, err)
		w.publish()
		return nil, err
	}
	w.geo = geoSlot{status: domain.StatusResolved, data: g}
	w.mu.Unlock()
	w.publish()
	return g, nil
}

func (w *Wizard) fetchGeography(ctx context.Context) (*domain.Geography, error) {
	departments, err := w.deps.Geography.Departments(ctx)
	if err != nil {
		return nil, fmt.Errorf("load departments: %w", err)
	}
	cities, err := w.deps.Geography.Cities(ctx)
	if err != nil {
		return nil, fmt.Errorf("load cities: %w", err)
	}
	return &domain.Geography{Departments: departments, Cities: cities}, nil
}

// checkLocation verifies that city lies in department.
func (w *Wizard) checkLocation(ctx context.Context, department, city string) error {
	g, err := w.LoadGeography(ctx)
	if err != nil || g == nil {
		return err
	}
	return g.Check(department, city)
}

// geographyViewLocked shows every department. The shipping form gets the
// cities of its department; the register form, whose fields live in the
// renderer, gets all cities.
func (w *Wizard) geographyViewLocked() *domain.GeographyView {
	if w.deps.Geography == nil || w.step != domain.StepIdentity {
		return nil
	}
	if w.view != domain.ViewShippingForm && w.view != domain.ViewRegisterForm {
		return nil
	}
	v := &domain.GeographyView{Status: w.geo.status, Error: w.geo.err}
	if v.Status == "" {
		v.Status = domain.StatusIdle
	}
	if w.geo.data == nil {
		return v
	}
	v.Departments = w.geo.data.Departments
	if w.view == domain.ViewShippingForm {
		v.Cities = w.geo.data.CitiesOf(w.shipping.Department)
	} else {
		v.Cities = w.geo.data.Cities
	}
	return v
}
