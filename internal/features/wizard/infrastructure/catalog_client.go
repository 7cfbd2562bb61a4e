package infrastructure

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"crazy-bakery/backend/internal/features/wizard/domain"
	"crazy-bakery/backend/internal/logger"

	"github.com/shopspring/decimal"
)

// CatalogClient reads sizes and ingredients from the bakery backend and
// quotes product costs.
type CatalogClient struct {
	bakeryClient
}

// NewCatalogClient creates a catalog client for the bakery backend at baseURL.
func NewCatalogClient(baseURL string, hc *http.Client, log *logger.Logger) *CatalogClient {
	return &CatalogClient{bakeryClient: newBakeryClient("catalog", baseURL, hc, log)}
}

var (
	recipeWireNames = map[domain.RecipeType]string{
		domain.RecipeCake:    "TORTA",
		domain.RecipeCupcake: "CUPCAKE",
	}
	categoryWireNames = map[domain.Category]string{
		domain.CategorySponge:   "BIZCOCHO",
		domain.CategoryFilling:  "RELLENO",
		domain.CategoryCoverage: "COBERTURA",
	}
)

func recipeWire(t domain.RecipeType) (string, error) {
	name, ok := recipeWireNames[t]
	if !ok {
		return "", fmt.Errorf("%w: recipe type %q", domain.ErrUnknownOption, t)
	}
	return name, nil
}

type sizeDTO struct {
	ID        int64   `json:"id"`
	Nombre    string  `json:"nombre"`
	Porciones int     `json:"porciones"`
	Alto      float64 `json:"alto"`
	Diametro  float64 `json:"diametro"`
}

type ingredientDTO struct {
	ID              int64           `json:"id"`
	Nombre          string          `json:"nombre"`
	Composicion     string          `json:"composicion"`
	TipoIngrediente string          `json:"tipoIngrediente"`
	Valor           decimal.Decimal `json:"valor"`
}

// FetchSizes lists the sizes offered for a recipe type.
func (c *CatalogClient) FetchSizes(ctx context.Context, t domain.RecipeType) ([]domain.Size, error) {
	wire, err := recipeWire(t)
	if err != nil {
		return nil, err
	}
	var dtos []sizeDTO
	if err := c.do(ctx, http.MethodGet, "/tamanos/tipo-receta/"+url.PathEscape(wire), nil, &dtos); err != nil {
		return nil, err
	}
	sizes := make([]domain.Size, 0, len(dtos))
	for _, d := range dtos {
		sizes = append(sizes, domain.Size{
			ID:       d.ID,
			Name:     d.Nombre,
			Portions: d.Porciones,
			Height:   d.Alto,
			Diameter: d.Diametro,
		})
	}
	return sizes, nil
}

// FetchIngredients lists the ingredients of one category available for a
// recipe type and size.
func (c *CatalogClient) FetchIngredients(ctx context.Context, t domain.RecipeType, sizeID int64, cat domain.Category) ([]domain.Ingredient, error) {
	wire, err := recipeWire(t)
	if err != nil {
		return nil, err
	}
	catWire, ok := categoryWireNames[cat]
	if !ok {
		return nil, fmt.Errorf("%w: category %q", domain.ErrUnknownOption, cat)
	}
	q := url.Values{}
	q.Set("tipoReceta", wire)
	q.Set("tamanoId", strconv.FormatInt(sizeID, 10))
	q.Set("tipoIngrediente", catWire)

	var dtos []ingredientDTO
	if err := c.do(ctx, http.MethodGet, "/ingredientes/search?"+q.Encode(), nil, &dtos); err != nil {
		return nil, err
	}
	items := make([]domain.Ingredient, 0, len(dtos))
	for _, d := range dtos {
		items = append(items, domain.Ingredient{
			ID:          d.ID,
			Name:        d.Nombre,
			Composition: d.Composicion,
			Category:    cat,
			Value:       d.Valor,
		})
	}
	return items, nil
}

type quoteDTO struct {
	TipoReceta      string  `json:"tipoReceta"`
	TamanoID        int64   `json:"tamanoId"`
	IngredientesIDs []int64 `json:"ingredientesIds"`
	Cantidad        int     `json:"cantidad"`
}

// QuoteCost asks the backend for the product cost of a configuration.
func (c *CatalogClient) QuoteCost(ctx context.Context, req domain.QuoteRequest) (decimal.Decimal, error) {
	wire, err := recipeWire(req.RecipeType)
	if err != nil {
		return decimal.Zero, err
	}
	var out struct {
		ValorTotalPedido decimal.Decimal `json:"valorTotalPedido"`
	}
	err = c.do(ctx, http.MethodPost, "/costo/calcular", quoteDTO{
		TipoReceta:      wire,
		TamanoID:        req.SizeID,
		IngredientesIDs: req.IngredientIDs,
		Cantidad:        req.Quantity,
	}, &out)
	if err != nil {
		return decimal.Zero, err
	}
	return out.ValorTotalPedido, nil
}
