package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LoadStatus is the lifecycle of an asynchronous read.
type LoadStatus string

const (
	StatusIdle     LoadStatus = "idle"
	StatusLoading  LoadStatus = "loading"
	StatusError    LoadStatus = "error"
	StatusResolved LoadStatus = "resolved"
)

// OptionsView is the choice list of one step.
type OptionsView struct {
	Step   string     `json:"step"`
	Status LoadStatus `json:"status"`
	Items  []Option   `json:"items,omitempty"`
	Error  string     `json:"error,omitempty"`
}

// PriceView is the pricing panel of the summary step.
type PriceView struct {
	Status       LoadStatus       `json:"status"`
	ProductCost  *decimal.Decimal `json:"product_cost,omitempty"`
	ShippingCost decimal.Decimal  `json:"shipping_cost"`
	Total        *decimal.Decimal `json:"total,omitempty"`
	Error        string           `json:"error,omitempty"`
}

// Redirect tells the renderer where to navigate once the wizard closes.
type Redirect struct {
	Path  string        `json:"path"`
	After time.Duration `json:"after_ns"`
}

// State is the render contract: everything the step renderer reads.
type State struct {
	ID string `json:"id"`
	// Revision grows with every snapshot of the same wizard.
	Revision     uint64          `json:"revision"`
	Phase        Phase           `json:"phase"`
	Step         Step            `json:"step"`
	StepName     string          `json:"step_name"`
	IdentityView IdentityView    `json:"identity_view,omitempty"`
	Config       Configuration   `json:"configuration"`
	Candidate    *ImageProposal  `json:"candidate,omitempty"`
	Shipping     ShippingProfile `json:"shipping"`
	Identity     *Identity       `json:"identity,omitempty"`
	Options      *OptionsView    `json:"options,omitempty"`
	Geography    *GeographyView  `json:"geography,omitempty"`
	Price        PriceView       `json:"price"`

	Enhancing          bool   `json:"enhancing"`
	EnhanceError       string `json:"enhance_error,omitempty"`
	GeneratingProposal bool   `json:"generating_proposal"`
	ProposalError      string `json:"proposal_error,omitempty"`
	IdentityError      string `json:"identity_error,omitempty"`
	Submitting         bool   `json:"submitting"`
	SubmitError        string `json:"submit_error,omitempty"`

	CanNext   bool      `json:"can_next"`
	CanBack   bool      `json:"can_back"`
	CanFinish bool      `json:"can_finish"`
	OrderID   int64     `json:"order_id,omitempty"`
	Redirect  *Redirect `json:"redirect,omitempty"`
}
