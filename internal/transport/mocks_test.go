package transport

import (
	"context"
	"sort"
	"strings"
	"sync"

	"product-catalog/internal/domain"
	"product-catalog/internal/repository"
)

// memoryStore backs both repository fakes so category membership follows the
// products.
type memoryStore struct {
	mu             sync.Mutex
	products       map[domain.ProductID]domain.ProductSnapshot
	categories     map[domain.CategoryID]*domain.Category
	nextProductID  domain.ProductID
	nextCategoryID domain.CategoryID
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		products:       make(map[domain.ProductID]domain.ProductSnapshot),
		categories:     make(map[domain.CategoryID]*domain.Category),
		nextProductID:  1,
		nextCategoryID: 1,
	}
}

type mockProductRepository struct{ *memoryStore }

type mockCategoryRepository struct{ *memoryStore }

func (m mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.products {
		if existing.SKU == product.SKU().Key() {
			return repository.ErrSKUAlreadyExists
		}
	}
	if _, ok := m.categories[product.CategoryID()]; !ok {
		return repository.ErrCategoryNotFound
	}
	if err := product.AssignID(m.nextProductID); err != nil {
		return err
	}
	m.nextProductID++
	m.products[product.ID()] = product.Snapshot()
	return nil
}

func (m mockProductRepository) Update(ctx context.Context, product *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.products[product.ID()]
	if !ok {
		return repository.ErrProductNotFound
	}
	if stored.Version != product.Version() {
		return repository.ErrConcurrentModification
	}
	product.AdvanceVersion()
	m.products[product.ID()] = product.Snapshot()
	return nil
}

func (m mockProductRepository) Delete(ctx context.Context, id domain.ProductID, version int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.products[id]
	if !ok {
		return repository.ErrProductNotFound
	}
	if stored.Version != version {
		return repository.ErrConcurrentModification
	}
	delete(m.products, id)
	return nil
}

func (m mockProductRepository) FindByID(ctx context.Context, id domain.ProductID) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot, ok := m.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return domain.ProductFromSnapshot(snapshot)
}

func (m mockProductRepository) ExistsBySKU(ctx context.Context, sku domain.ProductSKU) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.products {
		if existing.SKU == sku.Key() {
			return true, nil
		}
	}
	return false, nil
}

func (m mockProductRepository) filter(keep func(domain.ProductSnapshot) bool) []*domain.Product {
	m.mu.Lock()
	defer m.mu.Unlock()

	products := []*domain.Product{}
	for _, snapshot := range m.products {
		if keep(snapshot) {
			p, _ := domain.ProductFromSnapshot(snapshot)
			products = append(products, p)
		}
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ID() < products[j].ID() })
	return products
}

func (m mockProductRepository) List(ctx context.Context, filter repository.ProductFilter) ([]*domain.Product, int, error) {
	products := m.filter(func(s domain.ProductSnapshot) bool {
		return filter.CategoryID == nil || domain.CategoryID(s.CategoryID) == *filter.CategoryID
	})
	total := len(products)
	start := (filter.Page - 1) * filter.PageSize
	if start > total {
		start = total
	}
	end := start + filter.PageSize
	if end > total {
		end = total
	}
	return products[start:end], total, nil
}

func (m mockProductRepository) Search(ctx context.Context, query string, page, pageSize int) ([]*domain.Product, int, error) {
	q := strings.ToLower(query)
	products := m.filter(func(s domain.ProductSnapshot) bool {
		return strings.Contains(strings.ToLower(s.Name), q) || strings.Contains(strings.ToLower(s.SKU), q)
	})
	return products, len(products), nil
}

func (m mockProductRepository) ListLowStock(ctx context.Context, threshold int) ([]*domain.Product, error) {
	return m.filter(func(s domain.ProductSnapshot) bool { return s.Stock <= threshold }), nil
}

func (m mockCategoryRepository) Create(ctx context.Context, category *domain.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.categories {
		if existing.Name() == category.Name() {
			return repository.ErrCategoryAlreadyExists
		}
	}
	if err := category.AssignID(m.nextCategoryID); err != nil {
		return err
	}
	m.nextCategoryID++
	m.categories[category.ID()] = category
	return nil
}

func (m mockCategoryRepository) withProducts(c *domain.Category) *domain.Category {
	var ids []domain.ProductID
	for id, p := range m.products {
		if domain.CategoryID(p.CategoryID) == c.ID() {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out, _ := domain.ReconstituteCategory(c.ID(), c.Name(), c.Description(), c.CreatedAt(), ids)
	return out
}

func (m mockCategoryRepository) List(ctx context.Context) ([]*domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	categories := []*domain.Category{}
	for _, c := range m.categories {
		categories = append(categories, m.withProducts(c))
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].Name() < categories[j].Name() })
	return categories, nil
}

func (m mockCategoryRepository) FindByID(ctx context.Context, id domain.CategoryID) (*domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.categories[id]
	if !ok {
		return nil, repository.ErrCategoryNotFound
	}
	return m.withProducts(c), nil
}

func (m mockCategoryRepository) Exists(ctx context.Context, id domain.CategoryID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.categories[id]
	return ok, nil
}

func (m mockCategoryRepository) CountProducts(ctx context.Context, id domain.CategoryID) (int, error) {
	c, err := m.FindByID(ctx, id)
	if err != nil {
		return 0, err
	}
	return len(c.ProductIDs()), nil
}

func (m mockCategoryRepository) Delete(ctx context.Context, id domain.CategoryID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.categories[id]; !ok {
		return repository.ErrCategoryNotFound
	}
	delete(m.categories, id)
	return nil
}
