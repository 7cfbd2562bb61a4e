package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"crazy-bakery/backend/internal/features/wizard/domain"
	"crazy-bakery/backend/internal/logger"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	raw, err := io.ReadAll(r.Body)
	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}

func TestCatalogFetchSizes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/tamanos/tipo-receta/TORTA", r.URL.Path)
		_, _ = w.Write([]byte(`[{"id":1,"nombre":"Pequeña","porciones":8,"alto":10,"diametro":15}]`))
	}))
	defer srv.Close()

	c := NewCatalogClient(srv.URL, srv.Client(), logger.Nop())
	sizes, err := c.FetchSizes(context.Background(), domain.RecipeCake)
	require.NoError(t, err)
	require.Len(t, sizes, 1)
	assert.Equal(t, domain.Size{ID: 1, Name: "Pequeña", Portions: 8, Height: 10, Diameter: 15}, sizes[0])
}

func TestCatalogFetchIngredients(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ingredientes/search", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "CUPCAKE", q.Get("tipoReceta"))
		assert.Equal(t, "3", q.Get("tamanoId"))
		assert.Equal(t, "RELLENO", q.Get("tipoIngrediente"))
		_, _ = w.Write([]byte(`[{"id":7,"nombre":"Arequipe","composicion":"leche","tipoIngrediente":"RELLENO","valor":1500.5}]`))
	}))
	defer srv.Close()

	c := NewCatalogClient(srv.URL, nil, logger.Nop())
	items, err := c.FetchIngredients(context.Background(), domain.RecipeCupcake, 3, domain.CategoryFilling)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Arequipe", items[0].Name)
	assert.Equal(t, domain.CategoryFilling, items[0].Category)
	assert.True(t, decimal.RequireFromString("1500.5").Equal(items[0].Value))
}

func TestCatalogQuoteCost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/costo/calcular", r.URL.Path)
		body := decodeBody(t, r)
		assert.Equal(t, "TORTA", body["tipoReceta"])
		assert.Equal(t, float64(2), body["tamanoId"])
		assert.Equal(t, []any{float64(11), float64(12), float64(13)}, body["ingredientesIds"])
		assert.Equal(t, float64(3), body["cantidad"])
		_, _ = w.Write([]byte(`{"valorTotalPedido": 84000}`))
	}))
	defer srv.Close()

	c := NewCatalogClient(srv.URL, nil, logger.Nop())
	cost, err := c.QuoteCost(context.Background(), domain.QuoteRequest{
		RecipeType: domain.RecipeCake, SizeID: 2, IngredientIDs: []int64{11, 12, 13}, Quantity: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, "84000", cost.String())
}

func TestRemoteErrorCarriesMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"Tamaño no disponible"}`))
	}))
	defer srv.Close()

	c := NewCatalogClient(srv.URL, nil, logger.Nop())
	_, err := c.FetchSizes(context.Background(), domain.RecipeCake)
	var re *domain.RemoteError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, http.StatusUnprocessableEntity, re.Status)
	assert.Equal(t, "Tamaño no disponible", re.Message)
	assert.True(t, domain.IsRemote(err))
}

func TestRemoteErrorFallsBackToStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`<html>bad gateway</html>`))
	}))
	defer srv.Close()

	c := NewCatalogClient(srv.URL, nil, logger.Nop())
	_, err := c.FetchSizes(context.Background(), domain.RecipeCake)
	var re *domain.RemoteError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, "502 Bad Gateway", re.Message)
}

func TestOrderClientCreates(t *testing.T) {
	var attached map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method + " " + r.URL.Path {
		case "POST /torta":
			body := decodeBody(t, r)
			assert.Equal(t, float64(1), body["bizcochoId"])
			assert.Equal(t, float64(2), body["rellenoId"])
			assert.Equal(t, float64(3), body["cuberturaId"])
			assert.Equal(t, float64(4), body["tamanoId"])
			_, _ = w.Write([]byte(`{"id": 10}`))
		case "POST /receta":
			body := decodeBody(t, r)
			assert.Equal(t, "CUPCAKE", body["tipoReceta"])
			assert.Equal(t, float64(10), body["tortaId"])
			assert.Equal(t, float64(12), body["cantidad"])
			assert.Equal(t, "Unicornios", body["prompt"])
			assert.Nil(t, body["imagenUrl"])
			_, _ = w.Write([]byte(`{"id": 20}`))
		case "POST /orden":
			body := decodeBody(t, r)
			assert.Equal(t, "user-1", body["usuarioId"])
			assert.Equal(t, []any{float64(20)}, body["recetaIds"])
			assert.Equal(t, []any{}, body["notas"])
			_, _ = w.Write([]byte(`{"id": 30, "estado": "PENDIENTE"}`))
		case "PATCH /orden/30/receta":
			attached = decodeBody(t, r)
			_, _ = w.Write([]byte(`{}`))
		default:
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := NewOrderClient(srv.URL, nil, logger.Nop())
	ctx := context.Background()
	cake, err := c.CreateCake(ctx, domain.CakeRequest{SpongeID: 1, FillingID: 2, CoverageID: 3, SizeID: 4})
	require.NoError(t, err)
	assert.Equal(t, int64(10), cake)

	recipe, err := c.CreateRecipe(ctx, domain.RecipeRequest{RecipeType: domain.RecipeCupcake, CakeID: cake, Quantity: 12, Customization: "Unicornios"})
	require.NoError(t, err)
	assert.Equal(t, int64(20), recipe)

	order, err := c.CreateOrder(ctx, domain.OrderRequest{IdentityID: "user-1", RecipeIDs: []int64{recipe}})
	require.NoError(t, err)
	assert.Equal(t, int64(30), order)

	require.NoError(t, c.AttachRecipe(ctx, order, 21))
	assert.Equal(t, float64(21), attached["recetaId"])
}

func TestOrderClientRejectsMissingID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewOrderClient(srv.URL, nil, logger.Nop())
	_, err := c.CreateCake(context.Background(), domain.CakeRequest{})
	assert.True(t, domain.IsRemote(err))
}

func TestProfileRetriesUntilReady(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/usuarios/uid-1", r.URL.Path)
		switch hits.Add(1) {
		case 1:
			w.WriteHeader(http.StatusNotFound)
		case 2:
			_, _ = w.Write([]byte(`{"id":"uid-1","nombre":"Ana"}`))
		default:
			_, _ = w.Write([]byte(`{"id":"uid-1","nombre":"Ana","apellido":"Pérez","email":"ana@example.com","tipo":"consumidor","telefono":"300","direccion":"Calle 1","departamento":"Antioquia","ciudad":"Medellín"}`))
		}
	}))
	defer srv.Close()

	c := NewProfileClient(srv.URL, nil, logger.Nop())
	c.interval = time.Millisecond
	ident, err := c.Profile(context.Background(), "uid-1")
	require.NoError(t, err)
	assert.Equal(t, int32(3), hits.Load())
	assert.Equal(t, "consumidor", ident.Role)
	assert.Equal(t, domain.ShippingProfile{Phone: "300", Address: "Calle 1", Department: "Antioquia", City: "Medellín"}, ident.Shipping)
}

func TestProfileGivesUp(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewProfileClient(srv.URL, nil, logger.Nop())
	c.interval = time.Millisecond
	_, err := c.Profile(context.Background(), "uid-1")
	require.Error(t, err)
	assert.Equal(t, int32(5), hits.Load())
}

func TestCreateProfileSplitsName(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/usuarios", r.URL.Path)
		body := decodeBody(t, r)
		assert.Equal(t, "uid-2", body["id"])
		assert.Equal(t, "Luis", body["nombre"])
		assert.Equal(t, "Gómez Díaz", body["apellido"])
		assert.Equal(t, ConsumerRole, body["tipo"])
		assert.Equal(t, "Cali", body["ciudad"])
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := NewProfileClient(srv.URL, nil, logger.Nop())
	err := c.CreateProfile(context.Background(), "uid-2", domain.RegisterProfile{
		Name: "Luis Gómez Díaz", Email: "luis@example.com", City: "Cali",
	})
	require.NoError(t, err)
}

func TestBakeryImageClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/generate-image/custom-cake", r.URL.Path)
		body := decodeBody(t, r)
		assert.Equal(t, "TORTA", body["tipoReceta"])
		assert.Equal(t, "Grande", body["tamano"])
		assert.Equal(t, "Flores", body["detalle"])
		parts := body["ingredientes"].([]any)
		require.Len(t, parts, 3)
		assert.Equal(t, map[string]any{"tipoIngrediente": "BIZCOCHO", "ingrediente": "Vainilla"}, parts[0])
		_, _ = w.Write([]byte(`{"prompt":"una torta","imageUrl":"https://img.example/1.png"}`))
	}))
	defer srv.Close()

	c := NewBakeryImageClient(srv.URL, nil, logger.Nop())
	cfg := domain.Configuration{
		RecipeType:    domain.RecipeCake,
		Size:          &domain.Size{ID: 2, Name: "Grande"},
		Sponge:        &domain.Ingredient{ID: 1, Name: "Vainilla"},
		Filling:       &domain.Ingredient{ID: 2, Name: "Arequipe"},
		Coverage:      &domain.Ingredient{ID: 3, Name: "Fondant"},
		Customization: "Flores",
		Quantity:      1,
	}
	p, err := c.GenerateImageProposal(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, &domain.ImageProposal{Prompt: "una torta", ImageURL: "https://img.example/1.png"}, p)

	cfg.Coverage = nil
	_, err = c.GenerateImageProposal(context.Background(), cfg)
	assert.ErrorIs(t, err, domain.ErrMissingFields)
}

func TestGeographyClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		switch r.URL.Path {
		case "/geografia/departamentos":
			_, _ = w.Write([]byte(`[{"id":5,"name":"Antioquia"},{"id":11,"name":"Bogotá D.C."}]`))
		case "/geografia/ciudades":
			_, _ = w.Write([]byte(`[{"id":1,"name":"Medellín","departmentId":5},{"id":2,"name":"Bogotá","departmentId":11}]`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewGeographyClient(srv.URL, srv.Client(), logger.Nop())
	deps, err := c.Departments(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.Department{{ID: 5, Name: "Antioquia"}, {ID: 11, Name: "Bogotá D.C."}}, deps)

	cities, err := c.Cities(context.Background())
	require.NoError(t, err)
	require.Len(t, cities, 2)
	assert.Equal(t, domain.City{ID: 1, Name: "Medellín", DepartmentID: 5}, cities[0])
}

func TestGeographyClientRemoteError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewGeographyClient(srv.URL, nil, logger.Nop()).Cities(context.Background())
	require.Error(t, err)
	assert.True(t, domain.IsRemote(err))
}
