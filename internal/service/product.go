package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	govalidator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/vhtruong/product-catalog/internal/apperr"
	"github.com/vhtruong/product-catalog/internal/model"
	"github.com/vhtruong/product-catalog/internal/repository"
	"github.com/vhtruong/product-catalog/internal/storage/db"
	"github.com/vhtruong/product-catalog/pkg/validator"
)

type CreateProductParams struct {
	Sku         string  `json:"sku" validate:"required,notblank,max=64"`
	Name        string  `json:"name" validate:"required,notblank,max=120"`
	Description *string `json:"description" validate:"omitempty,max=500"`
	Price       float64 `json:"price" validate:"gt=0"`
	Currency    string  `json:"currency" validate:"required,currencycode"`
	Quantity    int     `json:"quantity" validate:"gte=0"`
}

type UpdatePriceParams struct {
	Price float64 `json:"price" validate:"gt=0"`
}

type ListProductsParams struct {
	Page int    `json:"page" validate:"gte=0,lte=1000000"`
	Size int    `json:"size" validate:"gte=1,lte=100"`
	Sort string `json:"sort" validate:"omitempty,oneof=created_at name price sku"`
}

type ProductPage struct {
	Items      []model.Product
	Page       int
	Size       int
	TotalItems int64
	TotalPages int64
}

type ProductService interface {
	CreateProduct(ctx context.Context, params CreateProductParams) (model.Product, error)
	GetProductByID(ctx context.Context, id uuid.UUID) (model.Product, error)
	GetProductBySku(ctx context.Context, sku string) (model.Product, error)
	ListProducts(ctx context.Context, params ListProductsParams) (ProductPage, error)
	UpdateProductPrice(ctx context.Context, id uuid.UUID, params UpdatePriceParams) (model.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
}

type productService struct {
	db          db.DB
	productRepo repository.ProductRepository
	validator   validator.Validator
	logger      *slog.Logger
}

func NewProductService(
	db db.DB,
	productRepo repository.ProductRepository,
	v validator.Validator,
	logger *slog.Logger,
) ProductService {
	return &productService{
		db:          db,
		productRepo: productRepo,
		validator:   v,
		logger:      logger.With(slog.String("service", "product")),
	}
}

// CreateProduct creates a new product after checking sku uniqueness.
// The existence check and insert run in one transaction; the unique
// constraint on sku is the backstop that makes concurrent creations with
// the same sku race-free.
func (s *productService) CreateProduct(ctx context.Context, params CreateProductParams) (model.Product, error) {
	// Round to the stored precision before validating so sub-cent inputs
	// like 0.004 cannot pass gt=0 and then persist as zero.
	params.Price = roundPrice(params.Price)

	if err := s.validate(params); err != nil {
		return model.Product{}, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return model.Product{}, fmt.Errorf("generate uuid v7: %w", err)
	}

	now := time.Now().UTC()
	product := model.Product{
		ID:          id,
		Sku:         params.Sku,
		Name:        params.Name,
		Description: params.Description,
		Price:       params.Price,
		Currency:    params.Currency,
		Quantity:    params.Quantity,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.db.WithTx(ctx, func(db db.DB) error {
		repo := s.productRepo.WithDB(db)

		exists, err := repo.ExistsBySku(ctx, product.Sku)
		if err != nil {
			return fmt.Errorf("product repository exists by sku: %w", err)
		}
		if exists {
			return apperr.DuplicateSkuErr.
				WithMsgf("product with sku '%s' already exists", product.Sku)
		}

		if err := repo.CreateProduct(ctx, product); err != nil {
			return fmt.Errorf("product repository create product: %w", err)
		}

		return nil
	}); err != nil {
		return model.Product{}, err
	}

	s.logger.DebugContext(ctx, "created product",
		slog.String("id", product.ID.String()),
		slog.String("sku", product.Sku))

	return product, nil
}

func (s *productService) GetProductByID(ctx context.Context, id uuid.UUID) (model.Product, error) {
	var product model.Product

	if err := s.db.WithReadTx(ctx, func(db db.DB) error {
		p, found, err := s.productRepo.WithDB(db).FindByID(ctx, id)
		if err != nil {
			return fmt.Errorf("product repository find by id: %w", err)
		}
		if !found {
			return apperr.ProductNotFoundErr.
				WithMsgf("product with id '%s' was not found", id)
		}

		product = p
		return nil
	}); err != nil {
		return model.Product{}, err
	}

	return product, nil
}

func (s *productService) GetProductBySku(ctx context.Context, sku string) (model.Product, error) {
	var product model.Product

	if err := s.db.WithReadTx(ctx, func(db db.DB) error {
		p, found, err := s.productRepo.WithDB(db).FindBySku(ctx, sku)
		if err != nil {
			return fmt.Errorf("product repository find by sku: %w", err)
		}
		if !found {
			return apperr.ProductNotFoundErr.
				WithMsgf("product with sku '%s' was not found", sku)
		}

		product = p
		return nil
	}); err != nil {
		return model.Product{}, err
	}

	return product, nil
}

func (s *productService) ListProducts(ctx context.Context, params ListProductsParams) (ProductPage, error) {
	if err := s.validate(params); err != nil {
		return ProductPage{}, err
	}

	var page repository.ProductPage

	if err := s.db.WithReadTx(ctx, func(db db.DB) error {
		p, err := s.productRepo.WithDB(db).ListProducts(ctx, repository.ListProductsParams{
			Page: params.Page,
			Size: params.Size,
			Sort: params.Sort,
		})
		if err != nil {
			return fmt.Errorf("product repository list products: %w", err)
		}

		page = p
		return nil
	}); err != nil {
		return ProductPage{}, err
	}

	totalPages := page.TotalItems / int64(params.Size)
	if page.TotalItems%int64(params.Size) != 0 {
		totalPages++
	}

	return ProductPage{
		Items:      page.Items,
		Page:       params.Page,
		Size:       params.Size,
		TotalItems: page.TotalItems,
		TotalPages: totalPages,
	}, nil
}

// UpdateProductPrice sets a new price and refreshes updated_at. No other
// field is mutated after creation.
func (s *productService) UpdateProductPrice(ctx context.Context, id uuid.UUID, params UpdatePriceParams) (model.Product, error) {
	params.Price = roundPrice(params.Price)

	if err := s.validate(params); err != nil {
		return model.Product{}, err
	}

	var product model.Product

	if err := s.db.WithTx(ctx, func(db db.DB) error {
		repo := s.productRepo.WithDB(db)

		p, found, err := repo.FindByID(ctx, id)
		if err != nil {
			return fmt.Errorf("product repository find by id: %w", err)
		}
		if !found {
			return apperr.ProductNotFoundErr.
				WithMsgf("product with id '%s' was not found", id)
		}

		p.Price = params.Price
		p.UpdatedAt = time.Now().UTC()

		if err := repo.UpdateProduct(ctx, p); err != nil {
			return fmt.Errorf("product repository update product: %w", err)
		}

		product = p
		return nil
	}); err != nil {
		return model.Product{}, err
	}

	s.logger.DebugContext(ctx, "updated product price",
		slog.String("id", id.String()),
		slog.Float64("price", product.Price))

	return product, nil
}

func (s *productService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if err := s.db.WithTx(ctx, func(db db.DB) error {
		repo := s.productRepo.WithDB(db)

		_, found, err := repo.FindByID(ctx, id)
		if err != nil {
			return fmt.Errorf("product repository find by id: %w", err)
		}
		if !found {
			return apperr.ProductNotFoundErr.
				WithMsgf("product with id '%s' was not found", id)
		}

		if err := repo.DeleteProduct(ctx, id); err != nil {
			return fmt.Errorf("product repository delete product: %w", err)
		}

		return nil
	}); err != nil {
		return err
	}

	s.logger.DebugContext(ctx, "deleted product", slog.String("id", id.String()))

	return nil
}

func (s *productService) validate(params any) error {
	err := s.validator.Validate(params)
	if err == nil {
		return nil
	}

	var vErrs govalidator.ValidationErrors
	if errors.As(err, &vErrs) {
		return apperr.ValidationErr.
			WithFields(validator.FieldErrors(vErrs)).
			WrapParent(err)
	}

	return fmt.Errorf("validate params: %w", err)
}

func roundPrice(price float64) float64 {
	return math.Round(price*100) / 100
}
