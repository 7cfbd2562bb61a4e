package domain

import "time"

// QuoteRequest asks the pricing service for a product cost.
type QuoteRequest struct {
	RecipeType    RecipeType
	SizeID        int64
	IngredientIDs []int64
	Quantity      int
}

// CakeRequest creates the cake resource.
type CakeRequest struct {
	SpongeID   int64
	FillingID  int64
	CoverageID int64
	SizeID     int64
}

// RecipeRequest wraps a cake into a recipe.
type RecipeRequest struct {
	RecipeType    RecipeType
	CakeID        int64
	Quantity      int
	Customization string
	ImageURL      string
}

// OrderRequest creates a new order holding the given recipes.
type OrderRequest struct {
	IdentityID string
	RecipeIDs  []int64
	Notes      []string
}

// SubmissionRecord is the journaled progress of one submission.
type SubmissionRecord struct {
	WizardID    string
	Fingerprint string
	CakeID      int64
	RecipeID    int64
	UpdatedAt   time.Time
}

// Receipt is the outcome of a successful finish.
type Receipt struct {
	OrderID  int64 `json:"order_id"`
	CakeID   int64 `json:"cake_id"`
	RecipeID int64 `json:"recipe_id"`
	Attached bool  `json:"attached"`
}
