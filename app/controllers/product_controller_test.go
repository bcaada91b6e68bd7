package controllers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/productd/app/controllers"
	"github.com/shashiranjanraj/productd/app/models"
	"github.com/shashiranjanraj/productd/app/repositories"
	"github.com/shashiranjanraj/productd/app/routes"
	"github.com/shashiranjanraj/productd/app/services"
	"github.com/shashiranjanraj/productd/pkg/router"
)

// memRepo is an in-memory ProductRepository with the same observable
// behaviour as the Mongo one.
type memRepo struct {
	mu    sync.Mutex
	items map[primitive.ObjectID]models.Product
	fail  error
}

func newMemRepo() *memRepo {
	return &memRepo{items: map[primitive.ObjectID]models.Product{}}
}

func (m *memRepo) Create(_ context.Context, p *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	if p.Email != "" {
		for _, other := range m.items {
			if other.Email == p.Email {
				return repositories.ErrDuplicateKey
			}
		}
	}
	p.ID = primitive.NewObjectID()
	m.items[p.ID] = *p
	return nil
}

func (m *memRepo) FindAll(context.Context) ([]models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return nil, m.fail
	}
	out := make([]models.Product, 0, len(m.items))
	for _, p := range m.items {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Price > out[j].Price })
	return out, nil
}

func (m *memRepo) CountAbove(_ context.Context, price, rating float64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, p := range m.items {
		if p.Price > price || p.Rating > rating {
			n++
		}
	}
	return n, nil
}

func (m *memRepo) lookup(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return oid, &repositories.CastError{Kind: "ObjectId", Value: id, Path: "_id"}
	}
	if _, ok := m.items[oid]; !ok {
		return oid, repositories.ErrProductNotFound
	}
	return oid, nil
}

func (m *memRepo) FindByID(_ context.Context, id string) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	oid, err := m.lookup(id)
	if err != nil {
		return nil, err
	}
	p := m.items[oid]
	return &p, nil
}

func (m *memRepo) UpdateByID(_ context.Context, id string, upd models.ProductUpdate) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	oid, err := m.lookup(id)
	if err != nil {
		return nil, err
	}
	p := m.items[oid]
	if upd.Title != nil {
		p.Title = models.NormalizeTitle(*upd.Title)
	}
	if upd.Description != nil {
		p.Description = *upd.Description
	}
	if upd.Price != nil {
		p.Price = *upd.Price
	}
	if upd.Rating != nil {
		p.Rating = *upd.Rating
	}
	m.items[oid] = p
	return &p, nil
}

func (m *memRepo) DeleteByID(_ context.Context, id string) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	oid, err := m.lookup(id)
	if err != nil {
		return nil, err
	}
	p := m.items[oid]
	delete(m.items, oid)
	return &p, nil
}

func (m *memRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.items {
		if p.Email == email {
			return true, nil
		}
	}
	return false, nil
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newServer(t *testing.T) (http.Handler, *memRepo) {
	t.Helper()
	repo := newMemRepo()
	r := router.New()
	routes.RegisterAPI(r, controllers.NewProductController(services.NewProductService(repo)))
	return r.Handler(), repo
}

func do(t *testing.T, h http.Handler, method, path, body string) (int, envelope) {
	t.Helper()
	return send(t, h, method, path, "application/json", body)
}

func doForm(t *testing.T, h http.Handler, method, path string, form url.Values) (int, envelope) {
	t.Helper()
	return send(t, h, method, path, "application/x-www-form-urlencoded", form.Encode())
}

func send(t *testing.T, h http.Handler, method, path, contentType, body string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec.Code, env
}

func product(t *testing.T, env envelope) models.Product {
	t.Helper()
	var p models.Product
	require.NoError(t, json.Unmarshal(env.Data, &p))
	return p
}

const oppo = `{"title":"  Oppo A9 ","price":210,"phone":"555-123-4567","rating":4.2,"description":"RAM: 8GB, ROM: 128"}`

func TestWelcome(t *testing.T) {
	h, _ := newServer(t)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome to the homepage", rec.Body.String())
}

func TestCreateStoresNormalizedTitle(t *testing.T) {
	h, _ := newServer(t)

	code, env := do(t, h, http.MethodPost, "/products", oppo)

	require.Equal(t, http.StatusAccepted, code)
	assert.True(t, env.Success)
	p := product(t, env)
	assert.Equal(t, "oppo a9", p.Title)
	assert.False(t, p.ID.IsZero())
	assert.False(t, p.CreatedAt.IsZero())
}

func TestCreateRejectsSingleViolation(t *testing.T) {
	h, repo := newServer(t)

	cases := []struct {
		name    string
		body    string
		message string
	}{
		{"missing title", `{"price":210,"phone":"555-123-4567","rating":4,"description":"d"}`, "Product title is required"},
		{"short title", `{"title":" ab ","price":210,"phone":"555-123-4567","rating":4,"description":"d"}`, "minimum length of the product title should be 3"},
		{"cheap", `{"title":"lamp","price":19,"phone":"555-123-4567","rating":4,"description":"d"}`, "minimum price of the product should be 20"},
		{"expensive", `{"title":"lamp","price":21000,"phone":"555-123-4567","rating":4,"description":"d"}`, "maximum price of the product should be 2000"},
		{"bad phone", `{"title":"lamp","price":210,"phone":"5551234567","rating":4,"description":"d"}`, "5551234567 is not a valid phone number"},
		{"missing rating", `{"title":"lamp","price":210,"phone":"555-123-4567","description":"d"}`, "Product rating is required"},
		{"missing description", `{"title":"lamp","price":210,"phone":"555-123-4567","rating":4}`, "Product description is required"},
		{"empty body", ``, "Product title is required"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, env := do(t, h, http.MethodPost, "/products", tc.body)
			assert.Equal(t, http.StatusBadRequest, code)
			assert.False(t, env.Success)
			assert.Equal(t, tc.message, env.Message)
		})
	}
	assert.Empty(t, repo.items)
}

func TestCreateMalformedJSON(t *testing.T) {
	h, _ := newServer(t)
	code, env := do(t, h, http.MethodPost, "/products", `{"title":`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, env.Message, "invalid JSON")
}

func TestCreateWhitespaceIsAValue(t *testing.T) {
	h, _ := newServer(t)

	code, env := do(t, h, http.MethodPost, "/products",
		`{"title":"lamp","price":210,"phone":"555-123-4567","rating":4,"description":"   "}`)
	require.Equal(t, http.StatusAccepted, code, env.Message)
	assert.Equal(t, "   ", product(t, env).Description)

	code, env = do(t, h, http.MethodPost, "/products",
		`{"title":"lamp","price":210,"phone":"   ","rating":4,"description":"d"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "    is not a valid phone number", env.Message)

	code, env = do(t, h, http.MethodPost, "/products",
		`{"title":"   ","price":210,"phone":"555-123-4567","rating":4,"description":"d"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Product title is required", env.Message)
}

func TestCreateFromForm(t *testing.T) {
	h, _ := newServer(t)

	code, env := doForm(t, h, http.MethodPost, "/products", url.Values{
		"title":       {"Lamp"},
		"price":       {"210"},
		"phone":       {"555-123-4567"},
		"rating":      {"4"},
		"description": {"d"},
	})
	require.Equal(t, http.StatusAccepted, code, env.Message)
	p := product(t, env)
	assert.Equal(t, "lamp", p.Title)
	assert.Equal(t, 210.0, p.Price)
	assert.Equal(t, 4.0, p.Rating)

	code, env = doForm(t, h, http.MethodPost, "/products", url.Values{"title": {"Lamp"}, "rating": {"4"}})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Product price is required", env.Message)
}

func TestCreateFromFormNonNumeric(t *testing.T) {
	h, repo := newServer(t)

	code, env := doForm(t, h, http.MethodPost, "/products", url.Values{
		"title":       {"lamp"},
		"price":       {"cheap"},
		"phone":       {"555-123-4567"},
		"rating":      {"4"},
		"description": {"d"},
	})
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, `Cast to Number failed for value "cheap" (type string) at path "price"`, env.Message)
	assert.Empty(t, repo.items)
}

func TestUpdateFromForm(t *testing.T) {
	h, _ := newServer(t)
	_, env := do(t, h, http.MethodPost, "/products", oppo)
	id := product(t, env).ID.Hex()

	code, env := doForm(t, h, http.MethodPut, "/products/"+id, url.Values{"rating": {"3.5"}, "title": {" Renamed "}})
	require.Equal(t, http.StatusOK, code, env.Message)
	updated := product(t, env)
	assert.Equal(t, 3.5, updated.Rating)
	assert.Equal(t, "renamed", updated.Title)
	assert.Equal(t, 210.0, updated.Price)

	code, env = doForm(t, h, http.MethodPut, "/products/"+id, url.Values{"rating": {"top"}})
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Contains(t, env.Message, "Cast to Number failed")
}

func TestCreateDuplicateEmail(t *testing.T) {
	h, _ := newServer(t)
	body := `{"title":"lamp","price":210,"phone":"555-123-4567","rating":4,"description":"d","email":"shop@example.com"}`

	code, _ := do(t, h, http.MethodPost, "/products", body)
	require.Equal(t, http.StatusAccepted, code)

	code, env := do(t, h, http.MethodPost, "/products", body)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "email shop@example.com is already in use", env.Message)
}

func TestCreateStoreFault(t *testing.T) {
	h, repo := newServer(t)
	repo.fail = &repositories.StoreError{Op: "insert", Err: assert.AnError}

	code, env := do(t, h, http.MethodPost, "/products", oppo)
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, assert.AnError.Error(), env.Message)
}

func TestListSortedAndCount(t *testing.T) {
	h, _ := newServer(t)
	for _, body := range []string{
		`{"title":"low","price":50,"phone":"555-123-4567","rating":3,"description":"d"}`,
		`{"title":"high","price":1500,"phone":"555-123-4567","rating":2,"description":"d"}`,
		`{"title":"mid","price":700,"phone":"555-123-4567","rating":4.8,"description":"d"}`,
	} {
		code, _ := do(t, h, http.MethodPost, "/products", body)
		require.Equal(t, http.StatusAccepted, code)
	}

	code, env := do(t, h, http.MethodGet, "/products", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "return all product", env.Message)
	var list []models.Product
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list, 3)
	assert.Equal(t, []float64{1500, 700, 50}, []float64{list[0].Price, list[1].Price, list[2].Price})

	code, env = do(t, h, http.MethodGet, "/products?price=1000&rating=4.5", "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `2`, string(env.Data))

	code, env = do(t, h, http.MethodGet, "/products?price=5000&rating=5", "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Products not found", env.Message)

	code, _ = do(t, h, http.MethodGet, "/products?price=1000", "")
	assert.Equal(t, http.StatusOK, code)
}

func TestListEmptyIsOK(t *testing.T) {
	h, _ := newServer(t)
	code, env := do(t, h, http.MethodGet, "/products", "")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `[]`, string(env.Data))
}

func TestListNonNumericFilter(t *testing.T) {
	h, _ := newServer(t)
	code, env := do(t, h, http.MethodGet, "/products?price=abc&rating=4", "")
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Contains(t, env.Message, "Cast to Number failed")
}

func TestMissingIDIs404(t *testing.T) {
	h, _ := newServer(t)
	id := primitive.NewObjectID().Hex()

	code, env := do(t, h, http.MethodGet, "/products/"+id, "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Product not found", env.Message)

	code, env = do(t, h, http.MethodPut, "/products/"+id, `{"price":99}`)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "product was not updated with this id", env.Message)

	code, env = do(t, h, http.MethodDelete, "/products/"+id, "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Product was not deleted with id", env.Message)
}

func TestMalformedIDIs500(t *testing.T) {
	h, _ := newServer(t)
	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		code, env := do(t, h, method, "/products/not-an-id", `{}`)
		assert.Equal(t, http.StatusInternalServerError, code, method)
		assert.Contains(t, env.Message, "Cast to ObjectId failed", method)
	}
}

func TestUpdateTouchesOnlyMutableFields(t *testing.T) {
	h, _ := newServer(t)
	_, env := do(t, h, http.MethodPost, "/products", oppo)
	created := product(t, env)

	code, env := do(t, h, http.MethodPut, "/products/"+created.ID.Hex(),
		`{"title":"  NEW Title ","price":5,"phone":"000-000-0000","email":"x@example.com"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "updated single product", env.Message)

	updated := product(t, env)
	assert.Equal(t, "new title", updated.Title)
	assert.Equal(t, 5.0, updated.Price)
	assert.Equal(t, created.Phone, updated.Phone)
	assert.Equal(t, created.Rating, updated.Rating)
	assert.Equal(t, created.Description, updated.Description)
	assert.Empty(t, updated.Email)
	assert.True(t, created.CreatedAt.Equal(updated.CreatedAt))
}

func TestRoundTrip(t *testing.T) {
	h, _ := newServer(t)

	code, env := do(t, h, http.MethodPost, "/products", oppo)
	require.Equal(t, http.StatusAccepted, code)
	id := product(t, env).ID.Hex()

	code, env = do(t, h, http.MethodGet, "/products/"+id, "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "oppo a9", product(t, env).Title)

	code, env = do(t, h, http.MethodDelete, "/products/"+id, "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Deleted single product", env.Message)
	assert.Equal(t, id, product(t, env).ID.Hex())

	code, _ = do(t, h, http.MethodGet, "/products/"+id, "")
	assert.Equal(t, http.StatusNotFound, code)
}
