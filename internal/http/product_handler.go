package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/vhtruong/product-catalog/internal/apperr"
	"github.com/vhtruong/product-catalog/internal/model"
	"github.com/vhtruong/product-catalog/internal/service"
)

const (
	defaultPageSize = 20
)

type ProductResponse struct {
	ID          uuid.UUID `json:"id"`
	Sku         string    `json:"sku"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	Price       float64   `json:"price"`
	Currency    string    `json:"currency"`
	Quantity    int       `json:"quantity"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type ProductPageResponse struct {
	Items      []ProductResponse `json:"items"`
	Page       int               `json:"page"`
	Size       int               `json:"size"`
	TotalItems int64             `json:"total_items"`
	TotalPages int64             `json:"total_pages"`
}

type productHandler struct {
	responder

	productSvc service.ProductService
}

func newProductHandler(productSvc service.ProductService, re responder) *productHandler {
	return &productHandler{
		responder:  re,
		productSvc: productSvc,
	}
}

func (h *productHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var params service.CreateProductParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		h.respondError(w, r, apperr.MalformedRequestErr.WrapParent(err))
		return
	}

	product, err := h.productSvc.CreateProduct(r.Context(), params)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.respondJSON(w, r, http.StatusCreated, productToResponse(product))
}

func (h *productHandler) GetProductByID(w http.ResponseWriter, r *http.Request) {
	id, err := parseProductID(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	product, err := h.productSvc.GetProductByID(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.respondJSON(w, r, http.StatusOK, productToResponse(product))
}

func (h *productHandler) GetProductBySku(w http.ResponseWriter, r *http.Request) {
	sku := chi.URLParam(r, "sku")

	product, err := h.productSvc.GetProductBySku(r.Context(), sku)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.respondJSON(w, r, http.StatusOK, productToResponse(product))
}

func (h *productHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	params, err := parseListParams(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	page, err := h.productSvc.ListProducts(r.Context(), params)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	items := make([]ProductResponse, 0, len(page.Items))
	for _, product := range page.Items {
		items = append(items, productToResponse(product))
	}

	h.respondJSON(w, r, http.StatusOK, ProductPageResponse{
		Items:      items,
		Page:       page.Page,
		Size:       page.Size,
		TotalItems: page.TotalItems,
		TotalPages: page.TotalPages,
	})
}

func (h *productHandler) UpdateProductPrice(w http.ResponseWriter, r *http.Request) {
	id, err := parseProductID(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	var params service.UpdatePriceParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		h.respondError(w, r, apperr.MalformedRequestErr.WrapParent(err))
		return
	}

	product, err := h.productSvc.UpdateProductPrice(r.Context(), id, params)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.respondJSON(w, r, http.StatusOK, productToResponse(product))
}

func (h *productHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseProductID(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	if err := h.productSvc.DeleteProduct(r.Context(), id); err != nil {
		h.respondError(w, r, err)
		return
	}

	h.respondJSON(w, r, http.StatusNoContent, nil)
}

func parseProductID(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "id")

	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperr.MalformedRequestErr.
			WithMsgf("invalid product id: '%s'", raw).
			WrapParent(err)
	}

	return id, nil
}

func parseListParams(r *http.Request) (service.ListProductsParams, error) {
	params := service.ListProductsParams{
		Size: defaultPageSize,
		Sort: r.URL.Query().Get("sort"),
	}

	if raw := r.URL.Query().Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			return service.ListProductsParams{}, apperr.MalformedRequestErr.
				WithMsgf("invalid page parameter: '%s'", raw).
				WrapParent(err)
		}
		params.Page = page
	}

	if raw := r.URL.Query().Get("size"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil {
			return service.ListProductsParams{}, apperr.MalformedRequestErr.
				WithMsgf("invalid size parameter: '%s'", raw).
				WrapParent(err)
		}
		params.Size = size
	}

	return params, nil
}

func productToResponse(product model.Product) ProductResponse {
	return ProductResponse{
		ID:          product.ID,
		Sku:         product.Sku,
		Name:        product.Name,
		Description: product.Description,
		Price:       product.Price,
		Currency:    product.Currency,
		Quantity:    product.Quantity,
		CreatedAt:   product.CreatedAt,
		UpdatedAt:   product.UpdatedAt,
	}
}
