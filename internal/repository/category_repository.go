package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"product-catalog/internal/domain"

	"github.com/jackc/pgx/v5/pgtype"
)

var (
	ErrCategoryNotFound      = errors.New("category not found")
	ErrCategoryAlreadyExists = errors.New("category with this name already exists")
	ErrCategoryInUse         = errors.New("category still has products")
)

// CategoryRepository defines the interface for category data access
type CategoryRepository interface {
	Create(ctx context.Context, category *domain.Category) error
	List(ctx context.Context) ([]*domain.Category, error)
	FindByID(ctx context.Context, id domain.CategoryID) (*domain.Category, error)
	Exists(ctx context.Context, id domain.CategoryID) (bool, error)
	CountProducts(ctx context.Context, id domain.CategoryID) (int, error)
	Delete(ctx context.Context, id domain.CategoryID) error
}

type categoryRepository struct {
	db *sql.DB
}

// NewCategoryRepository creates a new instance of CategoryRepository
func NewCategoryRepository(db *sql.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

// Create inserts the category and assigns the generated id to it.
func (r *categoryRepository) Create(ctx context.Context, category *domain.Category) error {
	query := `
		INSERT INTO categories (name, description, created_at)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(
		ctx,
		query,
		category.Name(),
		category.Description(),
		category.CreatedAt(),
	).Scan(&id)

	if err != nil {
		if isUniqueViolation(err, "categories_name_key") {
			return ErrCategoryAlreadyExists
		}
		return fmt.Errorf("failed to create category: %w", err)
	}

	return category.AssignID(domain.CategoryID(id))
}

// List retrieves all categories with the ids of their products.
func (r *categoryRepository) List(ctx context.Context) ([]*domain.Category, error) {
	query := `
		SELECT c.id, c.name, c.description, c.created_at,
		       COALESCE(array_agg(p.id ORDER BY p.id) FILTER (WHERE p.id IS NOT NULL), '{}')
		FROM categories c
		LEFT JOIN products p ON p.category_id = c.id
		GROUP BY c.id
		ORDER BY c.name ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	categories := []*domain.Category{}
	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, category)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	return categories, nil
}

// FindByID retrieves a category by ID using parameterized queries
func (r *categoryRepository) FindByID(ctx context.Context, id domain.CategoryID) (*domain.Category, error) {
	query := `
		SELECT c.id, c.name, c.description, c.created_at,
		       COALESCE(array_agg(p.id ORDER BY p.id) FILTER (WHERE p.id IS NOT NULL), '{}')
		FROM categories c
		LEFT JOIN products p ON p.category_id = c.id
		WHERE c.id = $1
		GROUP BY c.id
	`

	category, err := scanCategory(r.db.QueryRowContext(ctx, query, int64(id)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to find category by ID: %w", err)
	}

	return category, nil
}

func (r *categoryRepository) Exists(ctx context.Context, id domain.CategoryID) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM categories WHERE id = $1)`, int64(id)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check category: %w", err)
	}
	return exists, nil
}

func (r *categoryRepository) CountProducts(ctx context.Context, id domain.CategoryID) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products WHERE category_id = $1`, int64(id)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count category products: %w", err)
	}
	return count, nil
}

// Delete removes an empty category. The foreign key refuses categories that
// still have products.
func (r *categoryRepository) Delete(ctx context.Context, id domain.CategoryID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, int64(id))
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrCategoryInUse
		}
		return fmt.Errorf("failed to delete category: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrCategoryNotFound
	}

	return nil
}

func scanCategory(row rowScanner) (*domain.Category, error) {
	var (
		id          int64
		name        string
		description string
		createdAt   time.Time
		productIDs  []int64
	)

	// database/sql has no array support; pgtype decodes the BIGINT[]
	typeMap := pgtype.NewMap()
	if err := row.Scan(&id, &name, &description, &createdAt, typeMap.SQLScanner(&productIDs)); err != nil {
		return nil, err
	}

	ids := make([]domain.ProductID, len(productIDs))
	for i, pid := range productIDs {
		ids[i] = domain.ProductID(pid)
	}

	return domain.ReconstituteCategory(domain.CategoryID(id), name, description, createdAt.UTC(), ids)
}
