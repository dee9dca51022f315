package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/vhtruong/product-catalog/internal/apperr"
	"github.com/vhtruong/product-catalog/internal/model"
	"github.com/vhtruong/product-catalog/internal/storage/db"
)

// sortColumns is the allowlist of sort keys accepted by ListProducts.
// Identifiers are interpolated into the query, so only known columns pass.
var sortColumns = map[string]string{
	"created_at": "created_at",
	"name":       "name",
	"price":      "price",
	"sku":        "sku",
}

const defaultSortColumn = "created_at"

type ListProductsParams struct {
	// Page is the zero-based page index.
	Page int
	Size int
	// Sort is an optional sort key; empty falls back to created_at.
	Sort string
}

type ProductPage struct {
	Items      []model.Product
	TotalItems int64
}

type ProductRepository interface {
	WithDB(db db.DB) ProductRepository
	ExistsBySku(ctx context.Context, sku string) (bool, error)
	CreateProduct(ctx context.Context, product model.Product) error
	FindByID(ctx context.Context, id uuid.UUID) (model.Product, bool, error)
	FindBySku(ctx context.Context, sku string) (model.Product, bool, error)
	ListProducts(ctx context.Context, params ListProductsParams) (ProductPage, error)
	UpdateProduct(ctx context.Context, product model.Product) error
	DeleteProduct(ctx context.Context, id uuid.UUID) error
}

type productRepository struct {
	db db.DB
}

func NewProductRepository(db db.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r productRepository) WithDB(db db.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r productRepository) ExistsBySku(ctx context.Context, sku string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM products WHERE sku = $1)`

	var exists bool
	if err := r.db.QueryRow(ctx, query, sku).Scan(&exists); err != nil {
		return false, fmt.Errorf("query sku existence: %w", err)
	}

	return exists, nil
}

func (r productRepository) CreateProduct(ctx context.Context, product model.Product) error {
	const query = `
INSERT INTO products (id, sku, name, description, price, currency, quantity, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
`
	price, err := numericFromFloat(product.Price)
	if err != nil {
		return fmt.Errorf("convert price: %w", err)
	}

	if _, err := r.db.Exec(ctx, query,
		product.ID,
		product.Sku,
		product.Name,
		product.Description,
		price,
		product.Currency,
		product.Quantity,
		product.CreatedAt,
		product.UpdatedAt,
	); err != nil {
		if isUniqueViolation(err) {
			return apperr.DuplicateSkuErr.
				WithMsgf("product with sku '%s' already exists", product.Sku).
				WrapParent(err)
		}
		return fmt.Errorf("insert product: %w", err)
	}

	return nil
}

func (r productRepository) FindByID(ctx context.Context, id uuid.UUID) (model.Product, bool, error) {
	const query = `
SELECT id, sku, name, description, price, currency, quantity, created_at, updated_at
FROM products
WHERE id = $1
`
	product, err := scanProduct(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Product{}, false, nil
		}
		return model.Product{}, false, fmt.Errorf("find product by id: %w", err)
	}

	return product, true, nil
}

func (r productRepository) FindBySku(ctx context.Context, sku string) (model.Product, bool, error) {
	const query = `
SELECT id, sku, name, description, price, currency, quantity, created_at, updated_at
FROM products
WHERE sku = $1
`
	product, err := scanProduct(r.db.QueryRow(ctx, query, sku))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Product{}, false, nil
		}
		return model.Product{}, false, fmt.Errorf("find product by sku: %w", err)
	}

	return product, true, nil
}

func (r productRepository) ListProducts(ctx context.Context, params ListProductsParams) (ProductPage, error) {
	const countQuery = `SELECT COUNT(*) FROM products`

	var total int64
	if err := r.db.QueryRow(ctx, countQuery).Scan(&total); err != nil {
		return ProductPage{}, fmt.Errorf("count products: %w", err)
	}

	sortColumn, ok := sortColumns[params.Sort]
	if !ok {
		sortColumn = defaultSortColumn
	}

	// sortColumn is allowlisted above, never caller input.
	query := fmt.Sprintf(`
SELECT id, sku, name, description, price, currency, quantity, created_at, updated_at
FROM products
ORDER BY %s ASC, id ASC
LIMIT $1 OFFSET $2
`, sortColumn)

	rows, err := r.db.Query(ctx, query, params.Size, params.Page*params.Size)
	if err != nil {
		return ProductPage{}, fmt.Errorf("query products page: %w", err)
	}
	defer rows.Close()

	items := make([]model.Product, 0, params.Size)
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return ProductPage{}, fmt.Errorf("scan product row: %w", err)
		}
		items = append(items, product)
	}
	if err := rows.Err(); err != nil {
		return ProductPage{}, fmt.Errorf("iterate product rows: %w", err)
	}

	return ProductPage{
		Items:      items,
		TotalItems: total,
	}, nil
}

func (r productRepository) UpdateProduct(ctx context.Context, product model.Product) error {
	const query = `
UPDATE products
SET price = $2,
    updated_at = $3
WHERE id = $1
`
	price, err := numericFromFloat(product.Price)
	if err != nil {
		return fmt.Errorf("convert price: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, product.ID, price, product.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.ProductNotFoundErr.
			WithMsgf("product with id '%s' was not found", product.ID)
	}

	return nil
}

func (r productRepository) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	const query = `DELETE FROM products WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.ProductNotFoundErr.
			WithMsgf("product with id '%s' was not found", id)
	}

	return nil
}

func scanProduct(row pgx.Row) (model.Product, error) {
	var (
		p     model.Product
		price pgtype.Numeric
	)
	if err := row.Scan(
		&p.ID,
		&p.Sku,
		&p.Name,
		&p.Description,
		&price,
		&p.Currency,
		&p.Quantity,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return model.Product{}, err
	}

	priceValue, err := price.Float64Value()
	if err != nil {
		return model.Product{}, fmt.Errorf("convert price to float64: %w", err)
	}
	p.Price = priceValue.Float64

	return p, nil
}

func numericFromFloat(f float64) (pgtype.Numeric, error) {
	var n pgtype.Numeric
	if err := n.Scan(fmt.Sprintf("%.2f", f)); err != nil {
		return pgtype.Numeric{}, fmt.Errorf("scan numeric: %w", err)
	}
	return n, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
