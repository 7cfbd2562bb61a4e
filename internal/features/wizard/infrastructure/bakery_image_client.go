package infrastructure

import (
	"context"
	"fmt"
	"net/http"

	"crazy-bakery/backend/internal/features/wizard/domain"
	"crazy-bakery/backend/internal/logger"
)

// BakeryImageClient asks the bakery backend to draw a decoration proposal.
type BakeryImageClient struct {
	bakeryClient
}

// NewBakeryImageClient creates an image client for the bakery backend at baseURL.
func NewBakeryImageClient(baseURL string, hc *http.Client, log *logger.Logger) *BakeryImageClient {
	return &BakeryImageClient{bakeryClient: newBakeryClient("images", baseURL, hc, log)}
}

type imageIngredient struct {
	TipoIngrediente string `json:"tipoIngrediente"`
	Ingrediente     string `json:"ingrediente"`
}

type imageRequest struct {
	TipoReceta   string            `json:"tipoReceta"`
	Tamano       string            `json:"tamano"`
	Ingredientes []imageIngredient `json:"ingredientes"`
	Detalle      string            `json:"detalle"`
}

// GenerateImageProposal sends the complete configuration to the image
// endpoint.
func (c *BakeryImageClient) GenerateImageProposal(ctx context.Context, cfg domain.Configuration) (*domain.ImageProposal, error) {
	if cfg.Size == nil || cfg.Sponge == nil || cfg.Filling == nil || cfg.Coverage == nil || cfg.Customization == "" {
		return nil, fmt.Errorf("%w: image generation needs the full configuration", domain.ErrMissingFields)
	}
	wire, err := recipeWire(cfg.RecipeType)
	if err != nil {
		return nil, err
	}
	req := imageRequest{
		TipoReceta: wire,
		Tamano:     cfg.Size.Name,
		Ingredientes: []imageIngredient{
			{TipoIngrediente: categoryWireNames[domain.CategorySponge], Ingrediente: cfg.Sponge.Name},
			{TipoIngrediente: categoryWireNames[domain.CategoryFilling], Ingrediente: cfg.Filling.Name},
			{TipoIngrediente: categoryWireNames[domain.CategoryCoverage], Ingrediente: cfg.Coverage.Name},
		},
		Detalle: cfg.Customization,
	}
	var out struct {
		Prompt   string `json:"prompt"`
		ImageURL string `json:"imageUrl"`
	}
	if err := c.do(ctx, http.MethodPost, "/generate-image/custom-cake", req, &out); err != nil {
		return nil, err
	}
	if out.ImageURL == "" {
		return nil, &domain.RemoteError{Service: c.service, Status: http.StatusOK, Message: "no image url in response"}
	}
	return &domain.ImageProposal{Prompt: out.Prompt, ImageURL: out.ImageURL}, nil
}
