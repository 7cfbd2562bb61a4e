package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// OptionProvider returns the valid choice sets of the catalog.
type OptionProvider interface {
	FetchSizes(ctx context.Context, t RecipeType) ([]Size, error)
	FetchIngredients(ctx context.Context, t RecipeType, sizeID int64, c Category) ([]Ingredient, error)
}

// PricingService computes the product cost of a configuration.
type PricingService interface {
	QuoteCost(ctx context.Context, req QuoteRequest) (decimal.Decimal, error)
}

// GeographyProvider lists the departments and cities orders ship to.
type GeographyProvider interface {
	Departments(ctx context.Context) ([]Department, error)
	Cities(ctx context.Context) ([]City, error)
}

// FragmentStream is a finite, lazily produced sequence of text fragments.
// Recv returns io.EOF once the sequence is exhausted. Close may be called at
// any point to stop early.
type FragmentStream interface {
	Recv() (string, error)
	Close() error
}

// DecorationAssistant improves decoration texts and proposes images.
type DecorationAssistant interface {
	EnhanceText(ctx context.Context, c Configuration, text string) (FragmentStream, error)
	GenerateImageProposal(ctx context.Context, c Configuration) (*ImageProposal, error)
}

// AuthGate signs customers in or up with the identity provider.
type AuthGate interface {
	SignIn(ctx context.Context, email, password string) (*Credentials, error)
	SignUp(ctx context.Context, profile RegisterProfile) (*Credentials, error)
}

// Session is the externally owned authentication session a wizard observes.
// Current returns nil without error when nobody is signed in.
type Session interface {
	Current(ctx context.Context) (*Identity, error)
	Establish(creds Credentials)
}

// OrderSubmitter persists cakes, recipes and orders.
type OrderSubmitter interface {
	CreateCake(ctx context.Context, req CakeRequest) (int64, error)
	CreateRecipe(ctx context.Context, req RecipeRequest) (int64, error)
	CreateOrder(ctx context.Context, req OrderRequest) (int64, error)
	AttachRecipe(ctx context.Context, orderID, recipeID int64) error
}

// SubmissionJournal records submission progress so that a retry resumes
// after the last remote step that succeeded.
type SubmissionJournal interface {
	Load(ctx context.Context, wizardID string) (*SubmissionRecord, error)
	Save(ctx context.Context, rec SubmissionRecord) error
	Delete(ctx context.Context, wizardID string) error
}

// Notifier fans state snapshots out to subscribers of a wizard.
type Notifier interface {
	Publish(wizardID string, state State)
}
