package application

import (
	"context"
	"fmt"
	"time"

	"crazy-bakery/backend/internal/features/wizard/domain"

	"github.com/shopspring/decimal"
)

type priceSlot struct {
	key    string
	seq    uint64
	status domain.LoadStatus
	cost   decimal.Decimal
	err    string
}

func priceKey(c domain.Configuration) (string, bool) {
	if !c.Priced() {
		return "", false
	}
	return fmt.Sprintf("%s|%d|%v|%d", c.RecipeType, c.SizeID(), c.IngredientIDs(), c.Quantity), true
}

// RefreshPrice asks the pricing service for the product cost of the current
// configuration. Without a complete configuration the price stays idle and
// no request is made. Quotes for superseded configurations are discarded.
func (w *Wizard) RefreshPrice(ctx context.Context) (domain.PriceView, error) {
	w.mu.Lock()
	if err := w.activeLocked(); err != nil {
		w.mu.Unlock()
		return domain.PriceView{Status: domain.StatusIdle, ShippingCost: w.policy.ShippingCost}, err
	}
	key, ok := priceKey(w.cfg)
	if !ok {
		v := w.priceViewLocked()
		w.mu.Unlock()
		return v, nil
	}
	w.price.seq++
	seq := w.price.seq
	w.price.key = key
	w.price.status = domain.StatusLoading
	w.price.err = ""
	req := domain.QuoteRequest{
		RecipeType:    w.cfg.RecipeType,
		SizeID:        w.cfg.SizeID(),
		IngredientIDs: w.cfg.IngredientIDs(),
		Quantity:      w.cfg.Quantity,
	}
	w.mu.Unlock()
	w.publish()

	started := time.Now()
	cost, err := w.deps.Pricing.QuoteCost(ctx, req)
	w.deps.Metrics.Leaf("quote_cost", started, err)

	w.mu.Lock()
	current, ok := priceKey(w.cfg)
	if w.price.seq != seq || !ok || current != key {
		v := w.priceViewLocked()
		w.mu.Unlock()
		w.deps.Metrics.Stale("price")
		return v, domain.ErrSuperseded
	}
	if err != nil {
		w.price.status = domain.StatusError
		w.price.err = errText(err)
	} else {
		w.price.status = domain.StatusResolved
		w.price.cost = cost
	}
	v := w.priceViewLocked()
	w.mu.Unlock()
	w.publish()

	if err != nil {
		w.deps.Log.Warn("wizard %s: price quote failed: %v", w.id, err)
	}
	return v, err
}

// PriceFresh reports whether the price slot already tracks the current
// configuration.
func (w *Wizard) PriceFresh() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	key, ok := priceKey(w.cfg)
	return ok && w.price.key == key &&
		(w.price.status == domain.StatusResolved || w.price.status == domain.StatusLoading)
}

func (w *Wizard) priceViewLocked() domain.PriceView {
	v := domain.PriceView{Status: domain.StatusIdle, ShippingCost: w.policy.ShippingCost}
	key, ok := priceKey(w.cfg)
	if !ok || w.price.key != key {
		return v
	}
	v.Status = w.price.status
	v.Error = w.price.err
	if w.price.status == domain.StatusResolved {
		cost := w.price.cost
		total := cost.Add(w.policy.ShippingCost)
		v.ProductCost = &cost
		v.Total = &total
	}
	return v
}
