package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"product-catalog/internal/domain"

	"github.com/shopspring/decimal"
)

var (
	ErrProductNotFound        = errors.New("product not found")
	ErrSKUAlreadyExists       = errors.New("product with this sku already exists")
	ErrConcurrentModification = errors.New("product was modified concurrently")
)

// SortOrder represents the sort direction
type SortOrder string

const (
	SortOrderAsc  SortOrder = "ASC"
	SortOrderDesc SortOrder = "DESC"
)

// ProductFilter narrows List. A nil CategoryID lists every category.
type ProductFilter struct {
	CategoryID *domain.CategoryID
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  SortOrder
}

// ProductRepository defines the interface for product data access
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id domain.ProductID, version int) error
	FindByID(ctx context.Context, id domain.ProductID) (*domain.Product, error)
	ExistsBySKU(ctx context.Context, sku domain.ProductSKU) (bool, error)
	List(ctx context.Context, filter ProductFilter) ([]*domain.Product, int, error)
	Search(ctx context.Context, query string, page, pageSize int) ([]*domain.Product, int, error)
	ListLowStock(ctx context.Context, threshold int) ([]*domain.Product, error)
}

type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a new instance of ProductRepository
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepository{db: db}
}

const productColumns = `id, name, description, price_amount, price_currency, sku, stock, category_id, created_at, updated_at, version`

// Create inserts the product and assigns the generated id to it.
func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	query := `
		INSERT INTO products (name, description, price_amount, price_currency, sku, stock, category_id, created_at, updated_at, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(
		ctx,
		query,
		product.Name(),
		product.Description(),
		product.Price().Amount(),
		product.Price().Currency(),
		product.SKU().Value(),
		product.Stock().Value(),
		int64(product.CategoryID()),
		product.CreatedAt(),
		product.UpdatedAt(),
		product.Version(),
	).Scan(&id)

	if err != nil {
		if isUniqueViolation(err, "products_sku_key") {
			return ErrSKUAlreadyExists
		}
		if isForeignKeyViolation(err) {
			return ErrCategoryNotFound
		}
		return fmt.Errorf("failed to create product: %w", err)
	}

	return product.AssignID(domain.ProductID(id))
}

// Update writes the product if nobody else has written it since it was read.
func (r *productRepository) Update(ctx context.Context, product *domain.Product) error {
	query := `
		UPDATE products
		SET name = $2, description = $3, price_amount = $4, price_currency = $5,
		    sku = $6, stock = $7, category_id = $8, updated_at = $9, version = version + 1
		WHERE id = $1 AND version = $10
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		int64(product.ID()),
		product.Name(),
		product.Description(),
		product.Price().Amount(),
		product.Price().Currency(),
		product.SKU().Value(),
		product.Stock().Value(),
		int64(product.CategoryID()),
		product.UpdatedAt(),
		product.Version(),
	)

	if err != nil {
		if isUniqueViolation(err, "products_sku_key") {
			return ErrSKUAlreadyExists
		}
		if isForeignKeyViolation(err) {
			return ErrCategoryNotFound
		}
		return fmt.Errorf("failed to update product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return r.missingOrStale(ctx, product.ID())
	}

	product.AdvanceVersion()
	return nil
}

// Delete removes a product only while its version still matches, so a stock
// change committed after the caller's read is never thrown away.
func (r *productRepository) Delete(ctx context.Context, id domain.ProductID, version int) error {
	query := `DELETE FROM products WHERE id = $1 AND version = $2`

	result, err := r.db.ExecContext(ctx, query, int64(id), version)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return r.missingOrStale(ctx, id)
	}

	return nil
}

// missingOrStale explains a guarded write that matched no row: either the row
// is gone or its version moved on.
func (r *productRepository) missingOrStale(ctx context.Context, id domain.ProductID) error {
	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM products WHERE id = $1)`, int64(id)).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check product existence: %w", err)
	}
	if !exists {
		return ErrProductNotFound
	}
	return ErrConcurrentModification
}

// FindByID retrieves a product by ID using parameterized queries
func (r *productRepository) FindByID(ctx context.Context, id domain.ProductID) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	product, err := scanProduct(r.db.QueryRowContext(ctx, query, int64(id)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}

	return product, nil
}

// ExistsBySKU compares normalized SKUs, so "abc-1" collides with "ABC-1".
func (r *productRepository) ExistsBySKU(ctx context.Context, sku domain.ProductSKU) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM products WHERE sku = $1)`, sku.Key()).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check sku: %w", err)
	}
	return exists, nil
}

// List retrieves products with optional category filtering, pagination, and sorting
func (r *productRepository) List(ctx context.Context, filter ProductFilter) ([]*domain.Product, int, error) {
	// Validate sort field to prevent SQL injection
	validSortFields := map[string]string{
		"name":       "name",
		"price":      "price_amount",
		"created_at": "created_at",
		"updated_at": "updated_at",
		"stock":      "stock",
		"sku":        "sku",
	}

	sortColumn, ok := validSortFields[filter.SortBy]
	if !ok {
		sortColumn = "created_at"
	}

	sortOrder := filter.SortOrder
	if sortOrder != SortOrderAsc && sortOrder != SortOrderDesc {
		sortOrder = SortOrderDesc
	}

	whereClause := ""
	args := []interface{}{}
	argIndex := 1

	if filter.CategoryID != nil {
		whereClause = fmt.Sprintf("WHERE category_id = $%d", argIndex)
		args = append(args, int64(*filter.CategoryID))
		argIndex++
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM products %s", whereClause)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	limit, offset := pageBounds(filter.Page, filter.PageSize)

	// id breaks ties so pages are stable
	query := fmt.Sprintf(`
		SELECT %s
		FROM products
		%s
		ORDER BY %s %s, id %s
		LIMIT $%d OFFSET $%d
	`, productColumns, whereClause, sortColumn, sortOrder, sortOrder, argIndex, argIndex+1)

	args = append(args, limit, offset)

	products, err := r.queryProducts(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}

	return products, total, nil
}

// Search searches for products by name, description or sku with pagination
func (r *productRepository) Search(ctx context.Context, query string, page, pageSize int) ([]*domain.Product, int, error) {
	if strings.TrimSpace(query) == "" {
		return r.List(ctx, ProductFilter{Page: page, PageSize: pageSize, SortBy: "created_at", SortOrder: SortOrderDesc})
	}

	searchPattern := "%" + escapeLike(strings.TrimSpace(query)) + "%"

	countQuery := `
		SELECT COUNT(*)
		FROM products
		WHERE name ILIKE $1 OR description ILIKE $1 OR sku ILIKE $1
	`
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, searchPattern).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count search results: %w", err)
	}

	limit, offset := pageBounds(page, pageSize)

	searchQuery := `
		SELECT ` + productColumns + `
		FROM products
		WHERE name ILIKE $1 OR description ILIKE $1 OR sku ILIKE $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`

	products, err := r.queryProducts(ctx, searchQuery, searchPattern, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to search products: %w", err)
	}

	return products, total, nil
}

// ListLowStock returns products with stock at or below threshold, emptiest first.
func (r *productRepository) ListLowStock(ctx context.Context, threshold int) ([]*domain.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE stock <= $1
		ORDER BY stock ASC, id ASC
	`

	products, err := r.queryProducts(ctx, query, threshold)
	if err != nil {
		return nil, fmt.Errorf("failed to list low stock products: %w", err)
	}
	return products, nil
}

func (r *productRepository) queryProducts(ctx context.Context, query string, args ...interface{}) ([]*domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := []*domain.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanProduct rebuilds the aggregate through its constructors, so a row that
// violates a domain rule surfaces as an error instead of an invalid product.
func scanProduct(row rowScanner) (*domain.Product, error) {
	var (
		id          int64
		name        string
		description string
		amount      decimal.Decimal
		currency    string
		rawSKU      string
		rawStock    int
		categoryID  int64
		createdAt   time.Time
		updatedAt   time.Time
		version     int
	)

	if err := row.Scan(&id, &name, &description, &amount, &currency, &rawSKU, &rawStock, &categoryID, &createdAt, &updatedAt, &version); err != nil {
		return nil, err
	}

	price, err := domain.NewMoney(amount, strings.TrimSpace(currency))
	if err != nil {
		return nil, fmt.Errorf("product %d price: %w", id, err)
	}
	sku, err := domain.NewProductSKU(rawSKU)
	if err != nil {
		return nil, fmt.Errorf("product %d sku: %w", id, err)
	}
	stock, err := domain.NewStockQuantity(rawStock)
	if err != nil {
		return nil, fmt.Errorf("product %d stock: %w", id, err)
	}

	return domain.ReconstituteProduct(
		domain.ProductID(id),
		name,
		description,
		price,
		sku,
		domain.CategoryID(categoryID),
		stock,
		createdAt.UTC(),
		updatedAt.UTC(),
		version,
	)
}
