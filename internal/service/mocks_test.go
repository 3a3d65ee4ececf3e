package service

import (
	"context"
	"sort"
	"sync"

	"product-catalog/internal/domain"
	"product-catalog/internal/repository"
)

// Mock repositories for testing. Products are stored as snapshots so every
// read hands out an independent aggregate, the way the database does.
type mockProductRepository struct {
	mu       sync.Mutex
	products map[domain.ProductID]domain.ProductSnapshot
	nextID   domain.ProductID

	// conflicts makes the next N updates lose the version race.
	conflicts int
	updates   int
}

func newMockProductRepository() *mockProductRepository {
	return &mockProductRepository{
		products: make(map[domain.ProductID]domain.ProductSnapshot),
		nextID:   1,
	}
}

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.products {
		if existing.SKU == product.SKU().Key() {
			return repository.ErrSKUAlreadyExists
		}
	}
	if err := product.AssignID(m.nextID); err != nil {
		return err
	}
	m.nextID++
	m.products[product.ID()] = product.Snapshot()
	return nil
}

func (m *mockProductRepository) Update(ctx context.Context, product *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.updates++
	stored, ok := m.products[product.ID()]
	if !ok {
		return repository.ErrProductNotFound
	}
	if m.conflicts > 0 {
		m.conflicts--
		stored.Version++
		m.products[product.ID()] = stored
		return repository.ErrConcurrentModification
	}
	if stored.Version != product.Version() {
		return repository.ErrConcurrentModification
	}
	product.AdvanceVersion()
	m.products[product.ID()] = product.Snapshot()
	return nil
}

func (m *mockProductRepository) Delete(ctx context.Context, id domain.ProductID, version int) error {
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

func (m *mockProductRepository) FindByID(ctx context.Context, id domain.ProductID) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot, ok := m.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return domain.ProductFromSnapshot(snapshot)
}

func (m *mockProductRepository) ExistsBySKU(ctx context.Context, sku domain.ProductSKU) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.products {
		if existing.SKU == sku.Key() {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockProductRepository) all(keep func(domain.ProductSnapshot) bool) []*domain.Product {
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

func (m *mockProductRepository) List(ctx context.Context, filter repository.ProductFilter) ([]*domain.Product, int, error) {
	products := m.all(func(s domain.ProductSnapshot) bool {
		return filter.CategoryID == nil || domain.CategoryID(s.CategoryID) == *filter.CategoryID
	})
	return products, len(products), nil
}

func (m *mockProductRepository) Search(ctx context.Context, query string, page, pageSize int) ([]*domain.Product, int, error) {
	products := m.all(func(s domain.ProductSnapshot) bool { return s.Name == query })
	return products, len(products), nil
}

func (m *mockProductRepository) ListLowStock(ctx context.Context, threshold int) ([]*domain.Product, error) {
	return m.all(func(s domain.ProductSnapshot) bool { return s.Stock <= threshold }), nil
}

type mockCategoryRepository struct {
	mu         sync.Mutex
	categories map[domain.CategoryID]*domain.Category
	products   *mockProductRepository
	nextID     domain.CategoryID
}

func newMockCategoryRepository(products *mockProductRepository) *mockCategoryRepository {
	return &mockCategoryRepository{
		categories: make(map[domain.CategoryID]*domain.Category),
		products:   products,
		nextID:     1,
	}
}

func (m *mockCategoryRepository) Create(ctx context.Context, category *domain.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.categories {
		if existing.Name() == category.Name() {
			return repository.ErrCategoryAlreadyExists
		}
	}
	if err := category.AssignID(m.nextID); err != nil {
		return err
	}
	m.nextID++
	m.categories[category.ID()] = category
	return nil
}

func (m *mockCategoryRepository) List(ctx context.Context) ([]*domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	categories := []*domain.Category{}
	for _, c := range m.categories {
		categories = append(categories, c)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].Name() < categories[j].Name() })
	return categories, nil
}

func (m *mockCategoryRepository) FindByID(ctx context.Context, id domain.CategoryID) (*domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.categories[id]
	if !ok {
		return nil, repository.ErrCategoryNotFound
	}
	return c, nil
}

func (m *mockCategoryRepository) Exists(ctx context.Context, id domain.CategoryID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.categories[id]
	return ok, nil
}

func (m *mockCategoryRepository) CountProducts(ctx context.Context, id domain.CategoryID) (int, error) {
	products, _, _ := m.products.List(ctx, repository.ProductFilter{CategoryID: &id})
	return len(products), nil
}

func (m *mockCategoryRepository) Delete(ctx context.Context, id domain.CategoryID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.categories[id]; !ok {
		return repository.ErrCategoryNotFound
	}
	delete(m.categories, id)
	return nil
}

// spyCache records cache traffic and refuses snapshots older than the last
// invalidation, like the redis cache.
type spyCache struct {
	entries     map[domain.ProductID]domain.ProductSnapshot
	fences      map[domain.ProductID]int
	hits        int
	invalidated []domain.ProductID
}

func newSpyCache() *spyCache {
	return &spyCache{
		entries: make(map[domain.ProductID]domain.ProductSnapshot),
		fences:  make(map[domain.ProductID]int),
	}
}

func (c *spyCache) Get(ctx context.Context, id domain.ProductID) (*domain.Product, bool) {
	snapshot, ok := c.entries[id]
	if !ok {
		return nil, false
	}
	c.hits++
	p, err := domain.ProductFromSnapshot(snapshot)
	return p, err == nil
}

func (c *spyCache) Set(ctx context.Context, product *domain.Product) {
	if product.Version() < c.fences[product.ID()] {
		return
	}
	c.entries[product.ID()] = product.Snapshot()
}

func (c *spyCache) Invalidate(ctx context.Context, id domain.ProductID, version int) {
	delete(c.entries, id)
	c.invalidated = append(c.invalidated, id)
	c.fences[id] = version
}
