package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/vhtruong/product-catalog/internal/apperr"
	"github.com/vhtruong/product-catalog/internal/auth"
	"github.com/vhtruong/product-catalog/internal/config"
	apphttp "github.com/vhtruong/product-catalog/internal/http"
	"github.com/vhtruong/product-catalog/internal/http/apierr"
	"github.com/vhtruong/product-catalog/internal/model"
	"github.com/vhtruong/product-catalog/internal/repository"
	"github.com/vhtruong/product-catalog/internal/service"
	"github.com/vhtruong/product-catalog/internal/storage/db"
	"github.com/vhtruong/product-catalog/pkg/validator"
)

type fakeDB struct{}

func (fakeDB) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (fakeDB) Query(context.Context, string, ...any) (pgx.Rows, error) { return nil, nil }

func (fakeDB) QueryRow(context.Context, string, ...any) pgx.Row { return nil }

func (d fakeDB) WithTx(_ context.Context, txFunc func(db.DB) error) error { return txFunc(d) }

func (d fakeDB) WithReadTx(_ context.Context, txFunc func(db.DB) error) error { return txFunc(d) }

type fakeHealth struct {
	healthy bool
}

func (h fakeHealth) IsHealthy(context.Context) (bool, error) {
	if !h.healthy {
		return false, fmt.Errorf("ping database: connection refused")
	}
	return true, nil
}

type memProductRepo struct {
	mu       sync.Mutex
	products map[uuid.UUID]model.Product
}

func newMemProductRepo() *memProductRepo {
	return &memProductRepo{products: make(map[uuid.UUID]model.Product)}
}

func (r *memProductRepo) WithDB(db.DB) repository.ProductRepository { return r }

func (r *memProductRepo) ExistsBySku(_ context.Context, sku string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.products {
		if p.Sku == sku {
			return true, nil
		}
	}
	return false, nil
}

func (r *memProductRepo) CreateProduct(_ context.Context, product model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.products {
		if p.Sku == product.Sku {
			return apperr.DuplicateSkuErr.
				WithMsgf("product with sku '%s' already exists", product.Sku)
		}
	}

	r.products[product.ID] = product
	return nil
}

func (r *memProductRepo) FindByID(_ context.Context, id uuid.UUID) (model.Product, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[id]
	return p, ok, nil
}

func (r *memProductRepo) FindBySku(_ context.Context, sku string) (model.Product, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.products {
		if p.Sku == sku {
			return p, true, nil
		}
	}
	return model.Product{}, false, nil
}

func (r *memProductRepo) ListProducts(_ context.Context, params repository.ListProductsParams) (repository.ProductPage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	all := make([]model.Product, 0, len(r.products))
	for _, p := range r.products {
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.Before(all[j].CreatedAt)
		}
		return all[i].ID.String() < all[j].ID.String()
	})

	start := min(params.Page*params.Size, len(all))
	end := min(start+params.Size, len(all))

	return repository.ProductPage{
		Items:      all[start:end],
		TotalItems: int64(len(all)),
	}, nil
}

func (r *memProductRepo) UpdateProduct(_ context.Context, product model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[product.ID]; !ok {
		return apperr.ProductNotFoundErr.
			WithMsgf("product with id '%s' was not found", product.ID)
	}
	r.products[product.ID] = product
	return nil
}

func (r *memProductRepo) DeleteProduct(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[id]; !ok {
		return apperr.ProductNotFoundErr.
			WithMsgf("product with id '%s' was not found", id)
	}
	delete(r.products, id)
	return nil
}

type testServer struct {
	router     *chi.Mux
	repo       *memProductRepo
	adminToken string
	userToken  string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)

	v, err := validator.NewDefaultValidator()
	require.NoError(t, err)

	repo := newMemProductRepo()
	productSvc := service.NewProductService(fakeDB{}, repo, v, logger)

	hash, err := bcrypt.GenerateFromPassword([]byte("adminpass"), bcrypt.MinCost)
	require.NoError(t, err)

	credentials := auth.NewCredentialStore([]auth.User{
		{Username: "admin", PasswordHash: string(hash), Roles: []auth.Role{auth.RoleAdmin}},
	})
	tokenMgr := auth.NewTokenManager("test-secret", time.Hour, "product-catalog")

	svc := apphttp.New(
		config.HTTP{Port: 0, Swagger: false, AllowedOrigins: []string{"*"}},
		logger,
		productSvc,
		credentials,
		tokenMgr,
		v,
		fakeHealth{healthy: true},
	)

	r := chi.NewRouter()
	svc.RegisterMiddlewares(r)
	svc.RegisterHandlers(r)

	adminToken, err := tokenMgr.Generate("admin", []auth.Role{auth.RoleAdmin})
	require.NoError(t, err)
	userToken, err := tokenMgr.Generate("user", []auth.Role{auth.RoleUser})
	require.NoError(t, err)

	return &testServer{
		router:     r,
		repo:       repo,
		adminToken: adminToken,
		userToken:  userToken,
	}
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp := httptest.NewRecorder()
	ts.router.ServeHTTP(resp, req)
	return resp
}

func (ts *testServer) createProduct(t *testing.T, sku string) apphttp.ProductResponse {
	t.Helper()

	resp := ts.do(t, http.MethodPost, "/api/products", ts.adminToken, map[string]any{
		"sku":      sku,
		"name":     "Coffee",
		"price":    19.99,
		"currency": "RON",
		"quantity": 10,
	})
	require.Equal(t, http.StatusCreated, resp.Code)

	var product apphttp.ProductResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &product))
	return product
}

func decodeProblem(t *testing.T, resp *httptest.ResponseRecorder) apierr.Problem {
	t.Helper()

	var p apierr.Problem
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &p))
	return p
}

func TestIssueToken(t *testing.T) {
	ts := newTestServer(t)

	t.Run("Should issue token for valid credentials", func(t *testing.T) {
		resp := ts.do(t, http.MethodPost, "/auth/token", "", map[string]string{
			"username": "admin",
			"password": "adminpass",
		})

		require.Equal(t, http.StatusOK, resp.Code)

		var body apphttp.TokenResponse
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
		assert.NotEmpty(t, body.AccessToken)
		assert.Equal(t, "Bearer", body.TokenType)
	})

	t.Run("Should reject wrong password", func(t *testing.T) {
		resp := ts.do(t, http.MethodPost, "/auth/token", "", map[string]string{
			"username": "admin",
			"password": "wrong",
		})

		assert.Equal(t, http.StatusUnauthorized, resp.Code)
	})

	t.Run("Should reject missing fields", func(t *testing.T) {
		resp := ts.do(t, http.MethodPost, "/auth/token", "", map[string]string{})

		assert.Equal(t, http.StatusBadRequest, resp.Code)
		p := decodeProblem(t, resp)
		assert.Contains(t, p.Errors, "username")
		assert.Contains(t, p.Errors, "password")
	})
}

func TestCreateProductEndpoint(t *testing.T) {
	payload := map[string]any{
		"sku":      "SKU-001",
		"name":     "Coffee",
		"price":    19.99,
		"currency": "RON",
		"quantity": 10,
	}

	t.Run("Should reject request without token", func(t *testing.T) {
		ts := newTestServer(t)

		resp := ts.do(t, http.MethodPost, "/api/products", "", payload)

		assert.Equal(t, http.StatusUnauthorized, resp.Code)
		assert.Empty(t, ts.repo.products)
	})

	t.Run("Should reject non-admin caller without side effects", func(t *testing.T) {
		ts := newTestServer(t)

		resp := ts.do(t, http.MethodPost, "/api/products", ts.userToken, payload)

		assert.Equal(t, http.StatusForbidden, resp.Code)
		p := decodeProblem(t, resp)
		assert.Equal(t, "https://example.com/problems/forbidden", p.Type)
		assert.Empty(t, ts.repo.products)
	})

	t.Run("Should create product as admin", func(t *testing.T) {
		ts := newTestServer(t)

		resp := ts.do(t, http.MethodPost, "/api/products", ts.adminToken, payload)

		require.Equal(t, http.StatusCreated, resp.Code)

		var product apphttp.ProductResponse
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &product))
		assert.NotEqual(t, uuid.Nil, product.ID)
		assert.Equal(t, "SKU-001", product.Sku)
		assert.Equal(t, 19.99, product.Price)
	})

	t.Run("Should reject duplicate sku with conflict", func(t *testing.T) {
		ts := newTestServer(t)
		ts.createProduct(t, "SKU-001")

		resp := ts.do(t, http.MethodPost, "/api/products", ts.adminToken, payload)

		assert.Equal(t, http.StatusConflict, resp.Code)
		p := decodeProblem(t, resp)
		assert.Equal(t, "https://example.com/problems/conflict", p.Type)
		assert.Contains(t, p.Detail, "SKU-001")
	})

	t.Run("Should reject invalid payload with field errors", func(t *testing.T) {
		ts := newTestServer(t)

		resp := ts.do(t, http.MethodPost, "/api/products", ts.adminToken, map[string]any{
			"sku":      "",
			"name":     "Coffee",
			"price":    -1,
			"currency": "ron",
			"quantity": -5,
		})

		assert.Equal(t, http.StatusBadRequest, resp.Code)
		p := decodeProblem(t, resp)
		assert.Equal(t, "https://example.com/problems/validation", p.Type)
		assert.Contains(t, p.Errors, "sku")
		assert.Contains(t, p.Errors, "price")
		assert.Contains(t, p.Errors, "currency")
		assert.Contains(t, p.Errors, "quantity")
	})

	t.Run("Should reject malformed body", func(t *testing.T) {
		ts := newTestServer(t)

		req := httptest.NewRequest(http.MethodPost, "/api/products", bytes.NewReader([]byte("{not json")))
		req.Header.Set("Authorization", "Bearer "+ts.adminToken)
		resp := httptest.NewRecorder()
		ts.router.ServeHTTP(resp, req)

		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})
}

func TestGetProductEndpoints(t *testing.T) {
	t.Run("Should get product by id as user", func(t *testing.T) {
		ts := newTestServer(t)
		created := ts.createProduct(t, "SKU-001")

		resp := ts.do(t, http.MethodGet, "/api/products/"+created.ID.String(), ts.userToken, nil)

		require.Equal(t, http.StatusOK, resp.Code)

		var product apphttp.ProductResponse
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &product))
		assert.Equal(t, created.ID, product.ID)
	})

	t.Run("Should get product by sku", func(t *testing.T) {
		ts := newTestServer(t)
		created := ts.createProduct(t, "SKU-001")

		resp := ts.do(t, http.MethodGet, "/api/products/by-sku/SKU-001", ts.userToken, nil)

		require.Equal(t, http.StatusOK, resp.Code)

		var product apphttp.ProductResponse
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &product))
		assert.Equal(t, created.ID, product.ID)
	})

	t.Run("Should return not found for absent id", func(t *testing.T) {
		ts := newTestServer(t)

		resp := ts.do(t, http.MethodGet, "/api/products/"+uuid.NewString(), ts.userToken, nil)

		assert.Equal(t, http.StatusNotFound, resp.Code)
		p := decodeProblem(t, resp)
		assert.Equal(t, "https://example.com/problems/not-found", p.Type)
	})

	t.Run("Should reject malformed id", func(t *testing.T) {
		ts := newTestServer(t)

		resp := ts.do(t, http.MethodGet, "/api/products/not-a-uuid", ts.userToken, nil)

		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})
}

func TestListProductsEndpoint(t *testing.T) {
	t.Run("Should return requested page with total count", func(t *testing.T) {
		ts := newTestServer(t)
		for _, sku := range []string{"SKU-001", "SKU-002", "SKU-003"} {
			ts.createProduct(t, sku)
		}

		resp := ts.do(t, http.MethodGet, "/api/products?page=0&size=2", ts.userToken, nil)

		require.Equal(t, http.StatusOK, resp.Code)

		var page apphttp.ProductPageResponse
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &page))
		assert.Len(t, page.Items, 2)
		assert.Equal(t, int64(3), page.TotalItems)
		assert.Equal(t, int64(2), page.TotalPages)
	})

	t.Run("Should reject non-numeric page parameter", func(t *testing.T) {
		ts := newTestServer(t)

		resp := ts.do(t, http.MethodGet, "/api/products?page=abc", ts.userToken, nil)

		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("Should reject oversized page size", func(t *testing.T) {
		ts := newTestServer(t)

		resp := ts.do(t, http.MethodGet, "/api/products?size=1000", ts.userToken, nil)

		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})
}

func TestUpdatePriceEndpoint(t *testing.T) {
	t.Run("Should update price as admin", func(t *testing.T) {
		ts := newTestServer(t)
		created := ts.createProduct(t, "SKU-001")

		resp := ts.do(t, http.MethodPatch, "/api/products/"+created.ID.String()+"/price",
			ts.adminToken, map[string]any{"price": 24.50})

		require.Equal(t, http.StatusOK, resp.Code)

		var product apphttp.ProductResponse
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &product))
		assert.Equal(t, 24.50, product.Price)
		assert.Equal(t, created.Sku, product.Sku)
	})

	t.Run("Should reject non-admin caller", func(t *testing.T) {
		ts := newTestServer(t)
		created := ts.createProduct(t, "SKU-001")

		resp := ts.do(t, http.MethodPatch, "/api/products/"+created.ID.String()+"/price",
			ts.userToken, map[string]any{"price": 24.50})

		assert.Equal(t, http.StatusForbidden, resp.Code)
	})

	t.Run("Should reject non-positive price", func(t *testing.T) {
		ts := newTestServer(t)
		created := ts.createProduct(t, "SKU-001")

		resp := ts.do(t, http.MethodPatch, "/api/products/"+created.ID.String()+"/price",
			ts.adminToken, map[string]any{"price": 0})

		assert.Equal(t, http.StatusBadRequest, resp.Code)

		current := ts.do(t, http.MethodGet, "/api/products/"+created.ID.String(), ts.adminToken, nil)
		var product apphttp.ProductResponse
		require.NoError(t, json.Unmarshal(current.Body.Bytes(), &product))
		assert.Equal(t, 19.99, product.Price)
	})

	t.Run("Should return not found for absent id", func(t *testing.T) {
		ts := newTestServer(t)

		resp := ts.do(t, http.MethodPatch, "/api/products/"+uuid.NewString()+"/price",
			ts.adminToken, map[string]any{"price": 24.50})

		assert.Equal(t, http.StatusNotFound, resp.Code)
	})
}

func TestDeleteProductEndpoint(t *testing.T) {
	t.Run("Should delete product as admin", func(t *testing.T) {
		ts := newTestServer(t)
		created := ts.createProduct(t, "SKU-001")

		resp := ts.do(t, http.MethodDelete, "/api/products/"+created.ID.String(), ts.adminToken, nil)
		assert.Equal(t, http.StatusNoContent, resp.Code)

		after := ts.do(t, http.MethodGet, "/api/products/"+created.ID.String(), ts.adminToken, nil)
		assert.Equal(t, http.StatusNotFound, after.Code)
	})

	t.Run("Should reject non-admin caller without side effects", func(t *testing.T) {
		ts := newTestServer(t)
		created := ts.createProduct(t, "SKU-001")

		resp := ts.do(t, http.MethodDelete, "/api/products/"+created.ID.String(), ts.userToken, nil)

		assert.Equal(t, http.StatusForbidden, resp.Code)
		assert.Len(t, ts.repo.products, 1)
	})
}

func TestHealthEndpoint(t *testing.T) {
	t.Run("Should report healthy", func(t *testing.T) {
		ts := newTestServer(t)

		resp := ts.do(t, http.MethodGet, "/healthz", "", nil)

		assert.Equal(t, http.StatusOK, resp.Code)
		assert.Contains(t, resp.Body.String(), "ok")
	})
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodGet, "/metrics", "", nil)

	assert.Equal(t, http.StatusOK, resp.Code)
}
