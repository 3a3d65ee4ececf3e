package service

import (
	"context"
	"errors"
	"fmt"

	"product-catalog/internal/cache"
	"product-catalog/internal/domain"
	"product-catalog/internal/repository"
	"product-catalog/internal/rules"

	"go.uber.org/zap"
)

// maxWriteAttempts bounds the reload-and-retry loop after a lost version race.
const maxWriteAttempts = 3

// CreateProductInput carries raw request values. The service turns them into
// value objects.
type CreateProductInput struct {
	Name        string
	Description string
	PriceAmount string
	Currency    string
	SKU         string
	CategoryID  int64
	Stock       int
}

type UpdateProductInput struct {
	Name        string
	Description string
	PriceAmount string
	Currency    string
}

type ListProductsInput struct {
	CategoryID *int64
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}

// ProductService defines the interface for product business logic
type ProductService interface {
	CreateProduct(ctx context.Context, input CreateProductInput) (*domain.Product, error)
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	ListProducts(ctx context.Context, input ListProductsInput) ([]*domain.Product, int, error)
	SearchProducts(ctx context.Context, query string, page, pageSize int) ([]*domain.Product, int, error)
	UpdateProduct(ctx context.Context, id int64, input UpdateProductInput) (*domain.Product, error)
	ChangeCategory(ctx context.Context, id int64, categoryID int64) (*domain.Product, error)
	ChangeSKU(ctx context.Context, id int64, sku string) (*domain.Product, error)
	AddStock(ctx context.Context, id int64, qty int) (*domain.Product, error)
	DeductStock(ctx context.Context, id int64, qty int) (*domain.Product, error)
	SetStock(ctx context.Context, id int64, qty int) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
	InventoryValue(ctx context.Context, id int64) (domain.Money, error)
	RestockSuggestion(ctx context.Context, id int64, target int) (int, error)
	ListLowStock(ctx context.Context, threshold int) ([]*domain.Product, error)
}

type productService struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
	cache        cache.ProductCache
	logger       *zap.Logger
}

// NewProductService creates a new instance of ProductService
func NewProductService(
	productRepo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
	productCache cache.ProductCache,
	logger *zap.Logger,
) ProductService {
	if productCache == nil {
		productCache = cache.NoopProductCache{}
	}
	return &productService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		cache:        productCache,
		logger:       logger,
	}
}

// CreateProduct validates every field, then checks the category exists and
// the SKU is free before storing.
func (s *productService) CreateProduct(ctx context.Context, input CreateProductInput) (*domain.Product, error) {
	price, priceErr := domain.MoneyFromString(input.PriceAmount, input.Currency)
	sku, skuErr := domain.NewProductSKU(input.SKU)
	stock, stockErr := domain.NewStockQuantity(input.Stock)
	if err := errors.Join(priceErr, skuErr, stockErr); err != nil {
		return nil, err
	}

	product, err := domain.NewProduct(input.Name, input.Description, price, sku, domain.CategoryID(input.CategoryID), stock)
	if err != nil {
		return nil, err
	}

	if err := s.requireCategory(ctx, product.CategoryID()); err != nil {
		return nil, err
	}

	taken, err := s.productRepo.ExistsBySKU(ctx, sku)
	if err != nil {
		return nil, fmt.Errorf("failed to check sku: %w", err)
	}
	if taken {
		return nil, ErrSKUAlreadyExists
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		if errors.Is(err, ErrSKUAlreadyExists) || errors.Is(err, ErrCategoryNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.logger.Info("Product created",
		zap.Int64("product_id", int64(product.ID())),
		zap.String("sku", product.SKU().Value()),
	)

	return product, nil
}

// GetProduct reads through the cache.
func (s *productService) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	if id <= 0 {
		return nil, ErrInvalidID
	}

	if product, ok := s.cache.Get(ctx, domain.ProductID(id)); ok {
		return product, nil
	}

	product, err := s.productRepo.FindByID(ctx, domain.ProductID(id))
	if err != nil {
		return nil, err
	}

	s.cache.Set(ctx, product)
	return product, nil
}

func (s *productService) ListProducts(ctx context.Context, input ListProductsInput) ([]*domain.Product, int, error) {
	filter := repository.ProductFilter{
		Page:      input.Page,
		PageSize:  input.PageSize,
		SortBy:    input.SortBy,
		SortOrder: repository.SortOrder(input.SortOrder),
	}
	if input.CategoryID != nil {
		categoryID := domain.CategoryID(*input.CategoryID)
		filter.CategoryID = &categoryID
	}

	return s.productRepo.List(ctx, filter)
}

func (s *productService) SearchProducts(ctx context.Context, query string, page, pageSize int) ([]*domain.Product, int, error) {
	return s.productRepo.Search(ctx, query, page, pageSize)
}

func (s *productService) UpdateProduct(ctx context.Context, id int64, input UpdateProductInput) (*domain.Product, error) {
	price, err := domain.MoneyFromString(input.PriceAmount, input.Currency)
	if err != nil {
		return nil, err
	}

	return s.mutate(ctx, id, func(p *domain.Product) error {
		return p.UpdateBasicInfo(input.Name, input.Description, price)
	})
}

func (s *productService) ChangeCategory(ctx context.Context, id int64, categoryID int64) (*domain.Product, error) {
	target := domain.CategoryID(categoryID)
	if err := rules.ValidateCategoryID(categoryID); err != nil {
		return nil, err
	}
	if err := s.requireCategory(ctx, target); err != nil {
		return nil, err
	}

	return s.mutate(ctx, id, func(p *domain.Product) error {
		return p.ChangeCategory(target)
	})
}

// ChangeSKU renames the product's SKU. Re-applying the product's own SKU is
// not a conflict.
func (s *productService) ChangeSKU(ctx context.Context, id int64, raw string) (*domain.Product, error) {
	sku, err := domain.NewProductSKU(raw)
	if err != nil {
		return nil, err
	}

	return s.mutate(ctx, id, func(p *domain.Product) error {
		if p.SKU().Equals(sku) {
			return p.ChangeSKU(sku)
		}
		taken, err := s.productRepo.ExistsBySKU(ctx, sku)
		if err != nil {
			return fmt.Errorf("failed to check sku: %w", err)
		}
		if taken {
			return ErrSKUAlreadyExists
		}
		return p.ChangeSKU(sku)
	})
}

func (s *productService) AddStock(ctx context.Context, id int64, qty int) (*domain.Product, error) {
	product, err := s.mutate(ctx, id, func(p *domain.Product) error {
		return p.AddStock(qty)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Stock added",
		zap.Int64("product_id", id),
		zap.Int("quantity", qty),
		zap.Int("stock", product.Stock().Value()),
	)
	return product, nil
}

func (s *productService) DeductStock(ctx context.Context, id int64, qty int) (*domain.Product, error) {
	product, err := s.mutate(ctx, id, func(p *domain.Product) error {
		return p.DeductStock(qty)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Stock deducted",
		zap.Int64("product_id", id),
		zap.Int("quantity", qty),
		zap.Int("stock", product.Stock().Value()),
	)
	if product.Stock().IsCriticalStock() {
		s.logger.Warn("Product stock is critical",
			zap.Int64("product_id", id),
			zap.String("sku", product.SKU().Value()),
			zap.Int("stock", product.Stock().Value()),
		)
	}
	return product, nil
}

func (s *productService) SetStock(ctx context.Context, id int64, qty int) (*domain.Product, error) {
	return s.mutate(ctx, id, func(p *domain.Product) error {
		return p.SetStockQuantity(qty)
	})
}

// DeleteProduct refuses products that still have units on hand. The delete is
// guarded by the version the stock check saw, so a restock that lands in
// between wins and the check runs again.
func (s *productService) DeleteProduct(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrInvalidID
	}

	productID := domain.ProductID(id)
	for attempt := 1; ; attempt++ {
		product, err := s.productRepo.FindByID(ctx, productID)
		if err != nil {
			return err
		}

		if !product.CanBeDeleted() {
			return ErrProductHasStock
		}

		err = s.productRepo.Delete(ctx, productID, product.Version())
		if err == nil {
			s.cache.Invalidate(ctx, productID, product.Version()+1)
			s.logger.Info("Product deleted", zap.Int64("product_id", id))
			return nil
		}

		if !errors.Is(err, ErrConcurrentModification) || attempt >= maxWriteAttempts {
			return err
		}

		s.logger.Debug("Retrying product delete after version conflict",
			zap.Int64("product_id", id),
			zap.Int("attempt", attempt),
		)
	}
}

func (s *productService) InventoryValue(ctx context.Context, id int64) (domain.Money, error) {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return domain.Money{}, err
	}
	return product.CalculateInventoryValue(), nil
}

func (s *productService) RestockSuggestion(ctx context.Context, id int64, target int) (int, error) {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return 0, err
	}
	return product.RestockAmount(target)
}

// ListLowStock uses the default low stock threshold when threshold is zero.
func (s *productService) ListLowStock(ctx context.Context, threshold int) ([]*domain.Product, error) {
	if threshold == 0 {
		threshold = rules.DefaultLowStockThreshold
	}
	if err := rules.ValidateQuantity(threshold); err != nil {
		return nil, err
	}
	return s.productRepo.ListLowStock(ctx, threshold)
}

// mutate loads the product, applies change and writes it back. A lost version
// race reloads and reapplies change against the fresh state.
func (s *productService) mutate(ctx context.Context, id int64, change func(*domain.Product) error) (*domain.Product, error) {
	if id <= 0 {
		return nil, ErrInvalidID
	}

	productID := domain.ProductID(id)
	for attempt := 1; ; attempt++ {
		product, err := s.productRepo.FindByID(ctx, productID)
		if err != nil {
			return nil, err
		}

		if err := change(product); err != nil {
			return nil, err
		}

		err = s.productRepo.Update(ctx, product)
		if err == nil {
			s.cache.Invalidate(ctx, productID, product.Version())
			return product, nil
		}

		if !errors.Is(err, ErrConcurrentModification) || attempt >= maxWriteAttempts {
			return nil, err
		}

		s.logger.Debug("Retrying product write after version conflict",
			zap.Int64("product_id", id),
			zap.Int("attempt", attempt),
		)
	}
}

func (s *productService) requireCategory(ctx context.Context, id domain.CategoryID) error {
	exists, err := s.categoryRepo.Exists(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check category: %w", err)
	}
	if !exists {
		return ErrCategoryNotFound
	}
	return nil
}
