package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"

	"crazy-bakery/backend/internal/features/wizard/domain"
	"crazy-bakery/backend/internal/logger"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

type fakeCatalog struct {
	mu    sync.Mutex
	calls []string
	gates map[int64]chan struct{}
	err   error
}

var catalogSizes = map[domain.RecipeType][]domain.Size{
	domain.RecipeCake:    {{ID: 1, Name: "Small", Portions: 8}, {ID: 2, Name: "Large", Portions: 20}},
	domain.RecipeCupcake: {{ID: 3, Name: "Box", Portions: 1}},
}

var categoryBase = map[domain.Category]int64{
	domain.CategorySponge:   0,
	domain.CategoryFilling:  10,
	domain.CategoryCoverage: 20,
}

// ingredientID is the id of the n-th (1-based) ingredient of c for a size.
func ingredientID(sizeID int64, c domain.Category, n int64) int64 {
	return sizeID*100 + categoryBase[c] + n
}

func (f *fakeCatalog) FetchSizes(ctx context.Context, t domain.RecipeType) ([]domain.Size, error) {
	f.mu.Lock()
	f.calls = append(f.calls, "sizes:"+string(t))
	err := f.err
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return catalogSizes[t], nil
}

func (f *fakeCatalog) FetchIngredients(ctx context.Context, t domain.RecipeType, sizeID int64, c domain.Category) ([]domain.Ingredient, error) {
	f.mu.Lock()
	f.calls = append(f.calls, fmt.Sprintf("%s:%d", c, sizeID))
	gate := f.gates[sizeID]
	err := f.err
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	return []domain.Ingredient{
		{ID: ingredientID(sizeID, c, 1), Name: fmt.Sprintf("%s one for %d", c, sizeID), Category: c, Value: decimal.NewFromInt(1000)},
		{ID: ingredientID(sizeID, c, 2), Name: fmt.Sprintf("%s two for %d", c, sizeID), Category: c, Value: decimal.NewFromInt(2000)},
	}, nil
}

func (f *fakeCatalog) gate(sizeID int64) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.gates == nil {
		f.gates = make(map[int64]chan struct{})
	}
	ch := make(chan struct{})
	f.gates[sizeID] = ch
	return ch
}

func (f *fakeCatalog) callCount(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if len(c) >= len(prefix) && c[:len(prefix)] == prefix {
			n++
		}
	}
	return n
}

type fakePricing struct {
	mu    sync.Mutex
	calls []domain.QuoteRequest
	err   error
}

func (f *fakePricing) QuoteCost(ctx context.Context, req domain.QuoteRequest) (decimal.Decimal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	if f.err != nil {
		return decimal.Zero, f.err
	}
	return decimal.NewFromInt(int64(20000 * req.Quantity)), nil
}

// sliceStream replays fragments and then ends with err, or io.EOF.
type sliceStream struct {
	frags  []string
	err    error
	closed bool
}

func (s *sliceStream) Recv() (string, error) {
	if len(s.frags) == 0 {
		if s.err != nil {
			return "", s.err
		}
		return "", io.EOF
	}
	f := s.frags[0]
	s.frags = s.frags[1:]
	return f, nil
}

func (s *sliceStream) Close() error {
	s.closed = true
	return nil
}

// chanStream hands out fragments as the test sends them. Closing frags ends
// the stream.
type chanStream struct {
	ctx   context.Context
	frags chan string
	errs  chan error
}

func (s *chanStream) Recv() (string, error) {
	select {
	case <-s.ctx.Done():
		return "", s.ctx.Err()
	case err := <-s.errs:
		return "", err
	case f, ok := <-s.frags:
		if !ok {
			return "", io.EOF
		}
		return f, nil
	}
}

func (s *chanStream) Close() error { return nil }

type fakeAssistant struct {
	mu        sync.Mutex
	stream    func(ctx context.Context) domain.FragmentStream
	streamErr error
	enhanced  []string
	generated int
	imageErr  error
	imageGate chan struct{}
}

func (f *fakeAssistant) EnhanceText(ctx context.Context, c domain.Configuration, text string) (domain.FragmentStream, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.enhanced = append(f.enhanced, text)
	if f.streamErr != nil {
		return nil, f.streamErr
	}
	if f.stream != nil {
		return f.stream(ctx), nil
	}
	return &sliceStream{frags: []string{"A ", "lovely ", "cake"}}, nil
}

func (f *fakeAssistant) GenerateImageProposal(ctx context.Context, c domain.Configuration) (*domain.ImageProposal, error) {
	f.mu.Lock()
	f.generated++
	n := f.generated
	gate := f.imageGate
	err := f.imageErr
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	return &domain.ImageProposal{
		Prompt:   "prompt " + c.Customization,
		ImageURL: fmt.Sprintf("https://images.example/%d.png", n),
	}, nil
}

type fakeAuth struct {
	signInErr error
	signUpErr error
	signIns   int
	signUps   []domain.RegisterProfile
}

func (f *fakeAuth) SignIn(ctx context.Context, email, password string) (*domain.Credentials, error) {
	f.signIns++
	if f.signInErr != nil {
		return nil, f.signInErr
	}
	return &domain.Credentials{Token: "token", UserID: "user-1"}, nil
}

func (f *fakeAuth) SignUp(ctx context.Context, p domain.RegisterProfile) (*domain.Credentials, error) {
	f.signUps = append(f.signUps, p)
	if f.signUpErr != nil {
		return nil, f.signUpErr
	}
	return &domain.Credentials{Token: "token", UserID: "user-2"}, nil
}

// fakeSession becomes signed in as onEstablish once credentials arrive.
type fakeSession struct {
	mu          sync.Mutex
	current     *domain.Identity
	onEstablish *domain.Identity
	established []domain.Credentials
	reads       int
}

func (s *fakeSession) Current(ctx context.Context) (*domain.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	return s.current, nil
}

func (s *fakeSession) Establish(c domain.Credentials) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.established = append(s.established, c)
	s.current = s.onEstablish
}

type fakeOrders struct {
	mu     sync.Mutex
	calls  []string
	fail   map[string]error
	nextID int64
	orders []domain.OrderRequest
	// cakeGate, when set, holds CreateCake until it is closed.
	cakeGate chan struct{}
}

func (f *fakeOrders) step(name string) (int64, error) {
	f.calls = append(f.calls, name)
	if err := f.fail[name]; err != nil {
		return 0, err
	}
	f.nextID++
	return f.nextID, nil
}

func (f *fakeOrders) CreateCake(ctx context.Context, req domain.CakeRequest) (int64, error) {
	f.mu.Lock()
	gate := f.cakeGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.step("create_cake")
}

func (f *fakeOrders) CreateRecipe(ctx context.Context, req domain.RecipeRequest) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.step("create_recipe")
}

func (f *fakeOrders) CreateOrder(ctx context.Context, req domain.OrderRequest) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders = append(f.orders, req)
	id, err := f.step("create_order")
	if err != nil {
		return 0, err
	}
	return 900 + id, nil
}

func (f *fakeOrders) AttachRecipe(ctx context.Context, orderID, recipeID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, err := f.step(fmt.Sprintf("attach_recipe:%d", orderID))
	return err
}

func (f *fakeOrders) recorded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

type fakeGeography struct {
	mu    sync.Mutex
	err   error
	reads int
}

func (g *fakeGeography) Departments(ctx context.Context) ([]domain.Department, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.reads++
	if g.err != nil {
		return nil, g.err
	}
	return []domain.Department{{ID: 5, Name: "Antioquia"}, {ID: 25, Name: "Cundinamarca"}, {ID: 76, Name: "Valle"}}, nil
}

func (g *fakeGeography) Cities(ctx context.Context) ([]domain.City, error) {
	return []domain.City{
		{ID: 1, Name: "Medellín", DepartmentID: 5},
		{ID: 2, Name: "Chía", DepartmentID: 25},
		{ID: 3, Name: "Bogotá", DepartmentID: 25},
		{ID: 4, Name: "Cali", DepartmentID: 76},
	}, nil
}

func (g *fakeGeography) fail(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.err = err
}

type fakeJournal struct {
	mu      sync.Mutex
	records map[string]domain.SubmissionRecord
}

func (j *fakeJournal) Load(ctx context.Context, id string) (*domain.SubmissionRecord, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	rec, ok := j.records[id]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (j *fakeJournal) Save(ctx context.Context, rec domain.SubmissionRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.records == nil {
		j.records = make(map[string]domain.SubmissionRecord)
	}
	j.records[rec.WizardID] = rec
	return nil
}

func (j *fakeJournal) Delete(ctx context.Context, id string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	delete(j.records, id)
	return nil
}

type fixture struct {
	catalog   *fakeCatalog
	pricing   *fakePricing
	assistant *fakeAssistant
	auth      *fakeAuth
	session   *fakeSession
	orders    *fakeOrders
	journal   *fakeJournal
	geography *fakeGeography
	deps      Dependencies
	policy    Policy
}

var customer = &domain.Identity{
	ID:        "user-1",
	FirstName: "Ana",
	LastName:  "Pérez",
	Email:     "ana@example.com",
	Shipping: domain.ShippingProfile{
		Phone:      "3001234567",
		Address:    "Calle 1 # 2-3",
		Department: "Antioquia",
		City:       "Medellín",
	},
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		catalog:   &fakeCatalog{},
		pricing:   &fakePricing{},
		assistant: &fakeAssistant{},
		auth:      &fakeAuth{},
		session:   &fakeSession{onEstablish: customer},
		orders:    &fakeOrders{},
		journal:   &fakeJournal{},
		geography: &fakeGeography{},
		policy:    DefaultPolicy(),
	}
	f.policy.CloseDelay = 0
	f.deps = Dependencies{
		Catalog:   f.catalog,
		Pricing:   f.pricing,
		Assistant: f.assistant,
		Auth:      f.auth,
		Orders:    f.orders,
		Journal:   f.journal,
		Geography: f.geography,
		Log:       logger.Nop(),
	}
	return f
}

func (f *fixture) wizard() *Wizard {
	return NewWizard("wiz-1", f.deps, f.policy, f.session, nil)
}

// choose loads the current step's options and selects one of them.
func choose(t *testing.T, w *Wizard, field domain.Field, id int64) {
	t.Helper()
	step, ok := domain.StepForField(field)
	require.True(t, ok)
	_, err := w.LoadOptions(context.Background(), step)
	require.NoError(t, err)
	require.NoError(t, w.Select(Selection{Field: field, OptionID: id}))
}

// toCustomization drives a fresh wizard through the catalog steps with a
// small cake.
func toCustomization(t *testing.T, w *Wizard) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, w.Select(Selection{Field: domain.FieldRecipeType, Value: "CAKE"}))
	require.NoError(t, w.Next(ctx))
	choose(t, w, domain.FieldSize, 1)
	require.NoError(t, w.Next(ctx))
	choose(t, w, domain.FieldSponge, ingredientID(1, domain.CategorySponge, 1))
	require.NoError(t, w.Next(ctx))
	choose(t, w, domain.FieldFilling, ingredientID(1, domain.CategoryFilling, 1))
	require.NoError(t, w.Next(ctx))
	choose(t, w, domain.FieldCoverage, ingredientID(1, domain.CategoryCoverage, 1))
	require.NoError(t, w.Next(ctx))
	require.Equal(t, domain.StepCustomization, w.CurrentStep())
}

// toSummary continues from customization with a signed-in customer.
func toSummary(t *testing.T, w *Wizard) {
	t.Helper()
	toIdentity(t, w)
	require.NoError(t, w.Next(context.Background()))
	require.Equal(t, domain.StepSummary, w.CurrentStep())
}

// toIdentity moves from the customization step to the identity step.
func toIdentity(t *testing.T, w *Wizard) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, w.SetCustomization("Happy birthday Ana"))
	_, err := w.GenerateProposal(ctx)
	require.NoError(t, err)
	require.NoError(t, w.AcceptProposal(true))
	require.NoError(t, w.Next(ctx))
	require.Equal(t, domain.StepIdentity, w.CurrentStep())
}
