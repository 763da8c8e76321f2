package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mmeshcher/storefront-core/internal/apperror"
	"github.com/mmeshcher/storefront-core/internal/catalog"
	"github.com/mmeshcher/storefront-core/internal/checkout"
	"github.com/mmeshcher/storefront-core/internal/middleware"
	"github.com/mmeshcher/storefront-core/internal/model"
	"github.com/mmeshcher/storefront-core/internal/orders"
	"github.com/mmeshcher/storefront-core/internal/repository"
	"github.com/mmeshcher/storefront-core/internal/selection"
	"github.com/mmeshcher/storefront-core/internal/workspace"
)

type stubProvider struct {
	mu       sync.Mutex
	users    map[string]model.Session
	sessions map[string]*model.Session
}

func (p *stubProvider) CurrentSession(ctx context.Context, clientID string) (*model.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sessions[clientID], nil
}

func (p *stubProvider) SignIn(ctx context.Context, clientID string, cred model.Credential) (*model.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	s, ok := p.users[cred.Email]
	if !ok || cred.Password != "secret" {
		return nil, fmt.Errorf("%w: invalid credentials", apperror.ErrAuthorization)
	}
	p.sessions[clientID] = &s
	return &s, nil
}

func (p *stubProvider) SignUp(ctx context.Context, clientID string, cred model.Credential) (*model.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.users[cred.Email]; ok {
		return nil, repository.ErrUserExists
	}
	s := model.Session{UserID: "u-" + cred.Email, Email: cred.Email}
	p.users[cred.Email] = s
	p.sessions[clientID] = &s
	return &s, nil
}

func (p *stubProvider) SignOut(ctx context.Context, clientID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.sessions, clientID)
	return nil
}

func (p *stubProvider) Subscribe(clientID string) (<-chan model.SessionEvent, func()) {
	ch := make(chan model.SessionEvent)
	var once sync.Once
	return ch, func() { once.Do(func() { close(ch) }) }
}

type stubRoles struct{ admins map[string]bool }

func (r stubRoles) IsAdmin(ctx context.Context, userID string) (bool, error) {
	return r.admins[userID], nil
}

type stubStore struct {
	mu         sync.Mutex
	products   map[string]model.Product
	categories map[string]model.Category
	saved      map[string][]model.Product
	orders     map[string]model.Order
	lines      []model.OrderLine
}

func (s *stubStore) GetProduct(ctx context.Context, id string) (model.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return model.Product{}, repository.ErrProductNotFound
	}
	return p, nil
}

func (s *stubStore) Search(ctx context.Context, q catalog.Query) ([]model.Product, error) {
	if _, _, err := catalog.Compile(q); err != nil {
		return nil, err
	}
	out := []model.Product{}
	for _, p := range s.products {
		out = append(out, p)
	}
	return out, nil
}

func (s *stubStore) CategoryBySlug(ctx context.Context, slug string) (model.Category, error) {
	c, ok := s.categories[slug]
	if !ok {
		return model.Category{}, repository.ErrCategoryNotFound
	}
	return c, nil
}

func (s *stubStore) ListSavedProducts(ctx context.Context, userID string) ([]model.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Product(nil), s.saved[userID]...), nil
}

func (s *stubStore) AddSavedItem(ctx context.Context, userID, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved[userID] = append(s.saved[userID], s.products[productID])
	return nil
}

func (s *stubStore) RemoveSavedItem(ctx context.Context, userID, productID string) error {
	return nil
}

func (s *stubStore) CreateOrder(ctx context.Context, o model.Order) (model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o.CreatedAt = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	s.orders[o.ID] = o
	return o, nil
}

func (s *stubStore) CreateOrderLines(ctx context.Context, lines []model.OrderLine) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = append(s.lines, lines...)
	return nil
}

func (s *stubStore) DeleteOrder(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.orders, id)
	return nil
}

func (s *stubStore) ListOrders(ctx context.Context, f model.OrderFilter) ([]model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Order{}
	for _, o := range s.orders {
		if f.Status == "" || o.Status == f.Status {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *stubStore) ListOrdersByUser(ctx context.Context, userID string) ([]model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Order{}
	for _, o := range s.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *stubStore) GetOrder(ctx context.Context, id string) (model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return model.Order{}, repository.ErrOrderNotFound
	}
	return o, nil
}

func (s *stubStore) UpdateOrderStatus(ctx context.Context, id string, from, to model.OrderStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o := s.orders[id]
	if o.Status != from {
		return repository.ErrStatusConflict
	}
	o.Status = to
	s.orders[id] = o
	return nil
}

type testEnv struct {
	router http.Handler
	store  *stubStore
	reg    *workspace.Registry
	cookie *http.Cookie
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := zap.NewNop()
	provider := &stubProvider{
		users: map[string]model.Session{
			"ann@example.com":   {UserID: "u-ann", Email: "ann@example.com"},
			"admin@example.com": {UserID: "u-admin", Email: "admin@example.com"},
		},
		sessions: map[string]*model.Session{},
	}
	store := &stubStore{
		products: map[string]model.Product{
			"p1": {ID: "p1", Name: "Lamp", Price: 1000, Stock: 3},
			"p2": {ID: "p2", Name: "Mug", Price: 500, Stock: 0},
		},
		categories: map[string]model.Category{"home": {ID: "c-home", Name: "Home", Slug: "home"}},
		saved:      map[string][]model.Product{},
		orders:     map[string]model.Order{},
	}

	reg := workspace.NewRegistry(workspace.Deps{
		Provider:   provider,
		Roles:      stubRoles{admins: map[string]bool{"u-admin": true}},
		SavedItems: store,
		Orders:     store,
		Logger:     logger,
	}, time.Hour)
	t.Cleanup(reg.Close)

	h := NewHandler(reg, store, store, checkout.New(store, logger, nil), logger, middleware.NewClientMiddleware("test-secret"))
	return &testEnv{router: h.SetupRouter(nil), store: store, reg: reg}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if e.cookie != nil {
		req.AddCookie(e.cookie)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	for _, c := range rec.Result().Cookies() {
		if c.Name == "client_id" {
			e.cookie = c
		}
	}
	return rec
}

func (e *testEnv) login(t *testing.T, email string) {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/user/login", model.Credential{Email: email, Password: "secret"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestCart_Flow(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/cart/items", addLineRequest{ProductID: "p1", Quantity: 2})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/cart/items", addLineRequest{ProductID: "p2"})
	require.Equal(t, http.StatusOK, rec.Code)

	cart := decodeBody[cartResponse](t, rec)
	require.Len(t, cart.Items, 2)
	assert.Equal(t, 25.0, cart.Total)
	assert.Equal(t, 1, cart.Items[1].Quantity)

	rec = env.do(t, http.MethodPut, "/api/cart/items/p1", setQuantityRequest{Quantity: 0})
	require.Equal(t, http.StatusOK, rec.Code)
	cart = decodeBody[cartResponse](t, rec)
	require.Len(t, cart.Items, 2)
	assert.Equal(t, 5.0, cart.Total)

	rec = env.do(t, http.MethodPut, "/api/cart/items/p1", setQuantityRequest{Quantity: -1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/cart/items/p2", nil)
	cart = decodeBody[cartResponse](t, rec)
	require.Len(t, cart.Items, 1)

	rec = env.do(t, http.MethodDelete, "/api/cart", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	cart = decodeBody[cartResponse](t, env.do(t, http.MethodGet, "/api/cart", nil))
	assert.Empty(t, cart.Items)
	assert.Equal(t, 0.0, cart.Total)
}

func TestCart_UnknownProduct(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/cart/items", addLineRequest{ProductID: "missing"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCart_IsolatedPerClient(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/api/cart/items", addLineRequest{ProductID: "p1"})

	other := &testEnv{router: env.router}
	cart := decodeBody[cartResponse](t, other.do(t, http.MethodGet, "/api/cart", nil))
	assert.Empty(t, cart.Items)
}

func TestCheckout_RequiresSession(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/api/cart/items", addLineRequest{ProductID: "p1"})

	rec := env.do(t, http.MethodPost, "/api/checkout", model.ShippingDetails{FullName: "Ann", Address: "1 Main St"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, env.store.orders)
}

func TestCheckout_Success(t *testing.T) {
	env := newTestEnv(t)
	env.login(t, "ann@example.com")

	env.do(t, http.MethodPost, "/api/cart/items", addLineRequest{ProductID: "p1", Quantity: 2})
	env.do(t, http.MethodPost, "/api/cart/items", addLineRequest{ProductID: "p2", Quantity: 1})

	rec := env.do(t, http.MethodPost, "/api/checkout", model.ShippingDetails{
		FullName: "Ann Lee", Address: "1 Main St", City: "Springfield", PostalCode: "12345",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	order := decodeBody[orderResponse](t, rec)
	assert.Equal(t, 25.0, order.Total)
	assert.Equal(t, "pending", order.Status)
	assert.Len(t, env.store.lines, 2)

	cart := decodeBody[cartResponse](t, env.do(t, http.MethodGet, "/api/cart", nil))
	assert.Empty(t, cart.Items)

	rec = env.do(t, http.MethodGet, "/api/user/orders", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	history := decodeBody[[]orderResponse](t, rec)
	require.Len(t, history, 1)
	assert.Equal(t, order.ID, history[0].ID)
}

func TestCheckout_EmptySelection(t *testing.T) {
	env := newTestEnv(t)
	env.login(t, "ann@example.com")

	rec := env.do(t, http.MethodPost, "/api/checkout", model.ShippingDetails{FullName: "Ann", Address: "1 Main St"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestCheckout_MissingShipping(t *testing.T) {
	env := newTestEnv(t)
	env.login(t, "ann@example.com")
	env.do(t, http.MethodPost, "/api/cart/items", addLineRequest{ProductID: "p1"})

	rec := env.do(t, http.MethodPost, "/api/checkout", model.ShippingDetails{FullName: "Ann"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	cart := decodeBody[cartResponse](t, env.do(t, http.MethodGet, "/api/cart", nil))
	assert.Len(t, cart.Items, 1)
}

func TestGetOrders_NoContent(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/user/orders", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	env.login(t, "ann@example.com")
	rec = env.do(t, http.MethodGet, "/api/user/orders", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestSession_Lifecycle(t *testing.T) {
	env := newTestEnv(t)

	s := decodeBody[sessionResponse](t, env.do(t, http.MethodGet, "/api/user/session", nil))
	assert.Equal(t, "unauthenticated", s.State)
	assert.Equal(t, model.RoleGuest, s.Role)

	rec := env.do(t, http.MethodPost, "/api/user/login", model.Credential{Email: "ann@example.com", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	env.login(t, "admin@example.com")
	s = decodeBody[sessionResponse](t, env.do(t, http.MethodGet, "/api/user/session", nil))
	assert.Equal(t, "authenticated", s.State)
	assert.Equal(t, model.RoleAdmin, s.Role)

	rec = env.do(t, http.MethodPost, "/api/user/logout", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	s = decodeBody[sessionResponse](t, env.do(t, http.MethodGet, "/api/user/session", nil))
	assert.Equal(t, "unauthenticated", s.State)
}

func TestRegister(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/user/register", model.Credential{Email: "new@example.com", Password: "secret"})
	require.Equal(t, http.StatusOK, rec.Code)
	s := decodeBody[sessionResponse](t, rec)
	assert.Equal(t, model.RoleCustomer, s.Role)

	rec = env.do(t, http.MethodPost, "/api/user/register", model.Credential{Email: "ann@example.com", Password: "secret"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/user/register", strings.NewReader("{"))
	req.AddCookie(env.cookie)
	raw := httptest.NewRecorder()
	env.router.ServeHTTP(raw, req)
	assert.Equal(t, http.StatusBadRequest, raw.Code)
}

func TestWishlist(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/wishlist", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeBody[[]productResponse](t, rec))

	rec = env.do(t, http.MethodPost, "/api/wishlist/p1", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, env.store.saved)

	env.login(t, "ann@example.com")
	rec = env.do(t, http.MethodPost, "/api/wishlist/p1", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	items := decodeBody[[]productResponse](t, env.do(t, http.MethodGet, "/api/wishlist", nil))
	require.Len(t, items, 1)
	assert.Equal(t, "p1", items[0].ID)
	assert.True(t, items[0].Saved)

	rec = env.do(t, http.MethodPost, "/api/wishlist/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSearchProducts(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/products?q=lamp&min=0&max=10&in_stock=true&sort=price_asc", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]productResponse](t, rec), 2)

	rec = env.do(t, http.MethodGet, "/api/products?sort=random", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/products?min=10&max=1", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/categories/home/products", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/categories/garden/products", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSearchProducts_NewClientGetsNoWorkspace(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/products", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, env.cookie)
	assert.Zero(t, env.reg.Len())

	stranger := &testEnv{router: env.router}
	stranger.do(t, http.MethodGet, "/api/categories/home/products", nil)
	assert.Zero(t, env.reg.Len())

	rec = env.do(t, http.MethodGet, "/api/products", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, env.reg.Len())
}

func TestSearchProducts_SavedFlag(t *testing.T) {
	env := newTestEnv(t)
	env.login(t, "ann@example.com")
	require.Equal(t, http.StatusNoContent, env.do(t, http.MethodPost, "/api/wishlist/p1", nil).Code)

	rec := env.do(t, http.MethodGet, "/api/products", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	saved := map[string]bool{}
	for _, p := range decodeBody[[]productResponse](t, rec) {
		saved[p.ID] = p.Saved
	}
	assert.Equal(t, map[string]bool{"p1": true, "p2": false}, saved)
}

func TestSearchProducts_PriceOutOfRange(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/products?max=1e17", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "out of range")
}

func TestCart_QuantityLimit(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/cart/items", addLineRequest{ProductID: "p1", Quantity: selection.MaxQuantity + 1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/cart/items", addLineRequest{ProductID: "p1", Quantity: 1})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPut, "/api/cart/items/p1", setQuantityRequest{Quantity: selection.MaxQuantity + 1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	cart := decodeBody[cartResponse](t, env.do(t, http.MethodGet, "/api/cart", nil))
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 1, cart.Items[0].Quantity)
}

func TestParseCatalogQuery(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		want    catalog.Query
		wantErr bool
	}{
		{
			name:  "defaults",
			query: "",
			want:  catalog.Query{Sort: catalog.SortNewest},
		},
		{
			name:  "all filters",
			query: "q=mug&min=1.5&max=20&in_stock=1&sort=name_desc",
			want: catalog.Query{
				Sort: catalog.SortNameDesc,
				Filters: []catalog.Filter{
					catalog.NameContains{Text: "mug"},
					catalog.PriceRange{Min: 150, Max: 2000},
					catalog.InStock{},
				},
			},
		},
		{
			name:  "only max",
			query: "max=9.99",
			want: catalog.Query{
				Sort:    catalog.SortNewest,
				Filters: []catalog.Filter{catalog.PriceRange{Min: 0, Max: 999}},
			},
		},
		{
			name:  "in_stock false",
			query: "in_stock=false",
			want:  catalog.Query{Sort: catalog.SortNewest},
		},
		{name: "bad price", query: "min=abc", wantErr: true},
		{name: "bad bool", query: "in_stock=maybe", wantErr: true},
		{name: "max out of range", query: "max=1e17", wantErr: true},
		{name: "min out of range", query: "min=-1e17", wantErr: true},
		{name: "infinite", query: "max=Inf", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/products?"+tt.query, nil)
			got, err := parseCatalogQuery(r)
			if tt.wantErr {
				assert.ErrorIs(t, err, apperror.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAdmin_Access(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/admin/orders", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	env.login(t, "ann@example.com")
	rec = env.do(t, http.MethodGet, "/api/admin/orders", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAdmin_OrderLifecycle(t *testing.T) {
	env := newTestEnv(t)
	env.store.orders["o-1"] = model.Order{
		ID: "o-1", UserID: "u-ann", CustomerEmail: "ann@example.com",
		Status: model.OrderStatusPending, Total: 2500,
		CreatedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	env.login(t, "admin@example.com")

	rec := env.do(t, http.MethodGet, "/api/admin/orders?status=pending", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decodeBody[[]orderResponse](t, rec), 1)

	rec = env.do(t, http.MethodGet, "/api/admin/orders?status=lost", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPatch, "/api/admin/orders/o-1/status", setStatusRequest{Status: model.OrderStatusDelivered})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = env.do(t, http.MethodPatch, "/api/admin/orders/o-1/status", setStatusRequest{Status: model.OrderStatusProcessing})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "processing", decodeBody[orderResponse](t, rec).Status)
	assert.Equal(t, model.OrderStatusProcessing, env.store.orders["o-1"].Status)

	rec = env.do(t, http.MethodPatch, "/api/admin/orders/o-404/status", setStatusRequest{Status: model.OrderStatusProcessing})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/admin/orders/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "orders-")
	assert.Equal(t,
		"Order ID,Customer,Status,Total,Date\no-1,ann@example.com,processing,25.00,2026-03-01\n",
		rec.Body.String(),
	)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "validation", err: apperror.Validation("bad"), want: http.StatusBadRequest},
		{name: "illegal transition", err: fmt.Errorf("%w: x", orders.ErrIllegalTransition), want: http.StatusUnprocessableEntity},
		{name: "empty selection", err: checkout.ErrEmptySelection, want: http.StatusUnprocessableEntity},
		{name: "not authenticated", err: checkout.ErrNotAuthenticated, want: http.StatusUnauthorized},
		{name: "conflict", err: repository.ErrStatusConflict, want: http.StatusConflict},
		{name: "user exists", err: fmt.Errorf("%w: a@b.c", repository.ErrUserExists), want: http.StatusConflict},
		{name: "not found", err: repository.ErrOrderNotFound, want: http.StatusNotFound},
		{name: "persistence", err: apperror.Persistence("op", errors.New("boom")), want: http.StatusInternalServerError},
		{name: "partial write", err: &apperror.PartialWriteError{OrderID: "o-1", Err: errors.New("boom")}, want: http.StatusInternalServerError},
		{name: "unknown", err: errors.New("boom"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}
