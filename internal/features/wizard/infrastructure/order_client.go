package infrastructure

import (
	"context"
	"fmt"
	"net/http"

	"crazy-bakery/backend/internal/features/wizard/domain"
	"crazy-bakery/backend/internal/logger"
)

// OrderClient creates cakes, recipes and orders on the bakery backend.
type OrderClient struct {
	bakeryClient
}

// NewOrderClient creates an order client for the bakery backend at baseURL.
func NewOrderClient(baseURL string, hc *http.Client, log *logger.Logger) *OrderClient {
	return &OrderClient{bakeryClient: newBakeryClient("orders", baseURL, hc, log)}
}

type cakeDTO struct {
	BizcochoID  int64 `json:"bizcochoId"`
	RellenoID   int64 `json:"rellenoId"`
	CuberturaID int64 `json:"cuberturaId"`
	TamanoID    int64 `json:"tamanoId"`
}

type recipeDTO struct {
	TipoReceta string  `json:"tipoReceta"`
	TortaID    int64   `json:"tortaId"`
	Cantidad   int     `json:"cantidad"`
	Prompt     *string `json:"prompt"`
	ImagenURL  *string `json:"imagenUrl"`
}

type orderDTO struct {
	UsuarioID string   `json:"usuarioId"`
	RecetaIDs []int64  `json:"recetaIds"`
	Notas     []string `json:"notas"`
}

func (c *OrderClient) create(ctx context.Context, path string, body any) (int64, error) {
	var out idResponse
	if err := c.do(ctx, http.MethodPost, path, body, &out); err != nil {
		return 0, err
	}
	if out.ID == 0 {
		return 0, &domain.RemoteError{Service: c.service, Status: http.StatusOK, Message: "response carries no id for " + path}
	}
	return out.ID, nil
}

// CreateCake persists the cake built from the chosen ingredients and size.
func (c *OrderClient) CreateCake(ctx context.Context, req domain.CakeRequest) (int64, error) {
	return c.create(ctx, "/torta", cakeDTO{
		BizcochoID:  req.SpongeID,
		RellenoID:   req.FillingID,
		CuberturaID: req.CoverageID,
		TamanoID:    req.SizeID,
	})
}

// CreateRecipe wraps a cake into a recipe with quantity and decoration.
func (c *OrderClient) CreateRecipe(ctx context.Context, req domain.RecipeRequest) (int64, error) {
	wire, err := recipeWire(req.RecipeType)
	if err != nil {
		return 0, err
	}
	return c.create(ctx, "/receta", recipeDTO{
		TipoReceta: wire,
		TortaID:    req.CakeID,
		Cantidad:   req.Quantity,
		Prompt:     optional(req.Customization),
		ImagenURL:  optional(req.ImageURL),
	})
}

// CreateOrder opens a new order for the customer.
func (c *OrderClient) CreateOrder(ctx context.Context, req domain.OrderRequest) (int64, error) {
	notes := req.Notes
	if notes == nil {
		notes = []string{}
	}
	return c.create(ctx, "/orden", orderDTO{
		UsuarioID: req.IdentityID,
		RecetaIDs: req.RecipeIDs,
		Notas:     notes,
	})
}

// AttachRecipe adds a recipe to an existing order.
func (c *OrderClient) AttachRecipe(ctx context.Context, orderID, recipeID int64) error {
	body := struct {
		RecetaID int64 `json:"recetaId"`
	}{recipeID}
	return c.do(ctx, http.MethodPatch, fmt.Sprintf("/orden/%d/receta", orderID), body, nil)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
