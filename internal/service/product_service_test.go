package service

import (
	"context"
	"errors"
	"testing"

	"product-catalog/internal/domain"
	"product-catalog/internal/repository"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"go.uber.org/zap"
)

type productFixture struct {
	service    ProductService
	products   *mockProductRepository
	categories *mockCategoryRepository
	cache      *spyCache
	categoryID int64
}

func newProductFixture(t *testing.T) *productFixture {
	t.Helper()

	products := newMockProductRepository()
	categories := newMockCategoryRepository(products)
	spy := newSpyCache()

	category, err := domain.NewCategory("Electronics", "")
	if err != nil {
		t.Fatalf("NewCategory: %v", err)
	}
	if err := categories.Create(context.Background(), category); err != nil {
		t.Fatalf("Create category: %v", err)
	}

	return &productFixture{
		service:    NewProductService(products, categories, spy, zap.NewNop()),
		products:   products,
		categories: categories,
		cache:      spy,
		categoryID: int64(category.ID()),
	}
}

func (f *productFixture) create(t *testing.T, sku string, price string, stock int) *domain.Product {
	t.Helper()

	product, err := f.service.CreateProduct(context.Background(), CreateProductInput{
		Name:        "Widget " + sku,
		Description: "A widget",
		PriceAmount: price,
		Currency:    "USD",
		SKU:         sku,
		CategoryID:  f.categoryID,
		Stock:       stock,
	})
	if err != nil {
		t.Fatalf("CreateProduct(%s): %v", sku, err)
	}
	return product
}

func TestCreateProduct(t *testing.T) {
	f := newProductFixture(t)

	product := f.create(t, " wid-001 ", "19.99", 10)

	if product.ID() <= 0 {
		t.Errorf("Expected assigned id, got %d", product.ID())
	}
	if product.SKU().Value() != "WID-001" {
		t.Errorf("Expected normalized sku WID-001, got %s", product.SKU())
	}
	if product.Price().Currency() != "USD" || product.Stock().Value() != 10 {
		t.Errorf("Unexpected product %+v", product.Snapshot())
	}
}

func TestCreateProduct_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*CreateProductInput)
		wantErr error
	}{
		{"unknown category", func(in *CreateProductInput) { in.CategoryID = 99 }, ErrCategoryNotFound},
		{"duplicate sku", func(in *CreateProductInput) { in.SKU = "taken-1" }, ErrSKUAlreadyExists},
		{"too precise price", func(in *CreateProductInput) { in.PriceAmount = "1.999" }, domain.ErrInvalidAmount},
		{"unsupported currency", func(in *CreateProductInput) { in.Currency = "XYZ" }, domain.ErrInvalidAmount},
		{"negative stock", func(in *CreateProductInput) { in.Stock = -1 }, domain.ErrNegativeQuantity},
		{"bad sku", func(in *CreateProductInput) { in.SKU = "no spaces" }, domain.ErrInvalidFormat},
		{"blank name", func(in *CreateProductInput) { in.Name = "   " }, domain.ErrInvalidName},
		{"zero category", func(in *CreateProductInput) { in.CategoryID = 0 }, domain.ErrInvalidCategory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newProductFixture(t)
			f.create(t, "TAKEN-1", "5.00", 0)

			input := CreateProductInput{
				Name:        "Gadget",
				PriceAmount: "10.00",
				Currency:    "USD",
				SKU:         "GAD-001",
				CategoryID:  f.categoryID,
				Stock:       1,
			}
			tt.mutate(&input)

			_, err := f.service.CreateProduct(context.Background(), input)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestCreateProduct_ReportsEveryFieldFailure(t *testing.T) {
	f := newProductFixture(t)

	_, err := f.service.CreateProduct(context.Background(), CreateProductInput{
		Name:        "ok",
		PriceAmount: "-1",
		Currency:    "USD",
		SKU:         "x",
		CategoryID:  f.categoryID,
		Stock:       -5,
	})

	for _, want := range []error{domain.ErrInvalidAmount, domain.ErrTooShort, domain.ErrNegativeQuantity} {
		if !errors.Is(err, want) {
			t.Errorf("Expected joined error to contain %v, got %v", want, err)
		}
	}
}

func TestGetProduct_ReadsThroughCache(t *testing.T) {
	f := newProductFixture(t)
	created := f.create(t, "CACHE-1", "1.00", 1)
	ctx := context.Background()

	if _, err := f.service.GetProduct(ctx, int64(created.ID())); err != nil {
		t.Fatalf("GetProduct: %v", err)
	}
	if _, ok := f.cache.entries[created.ID()]; !ok {
		t.Fatal("Expected product to be cached after first read")
	}

	if _, err := f.service.GetProduct(ctx, int64(created.ID())); err != nil {
		t.Fatalf("GetProduct: %v", err)
	}
	if f.cache.hits != 1 {
		t.Errorf("Expected 1 cache hit, got %d", f.cache.hits)
	}

	if _, err := f.service.GetProduct(ctx, 404); !errors.Is(err, ErrProductNotFound) {
		t.Errorf("Expected ErrProductNotFound, got %v", err)
	}
	if _, err := f.service.GetProduct(ctx, 0); !errors.Is(err, ErrInvalidID) {
		t.Errorf("Expected ErrInvalidID, got %v", err)
	}
}

func TestStockOperations(t *testing.T) {
	f := newProductFixture(t)
	ctx := context.Background()
	id := int64(f.create(t, "STOCK-1", "2.50", 10).ID())

	product, err := f.service.DeductStock(ctx, id, 4)
	if err != nil || product.Stock().Value() != 6 {
		t.Fatalf("DeductStock: stock=%v err=%v", product, err)
	}

	if _, err := f.service.DeductStock(ctx, id, 7); !errors.Is(err, domain.ErrInsufficientStock) {
		t.Errorf("Expected ErrInsufficientStock, got %v", err)
	}

	product, err = f.service.AddStock(ctx, id, 4)
	if err != nil || product.Stock().Value() != 10 {
		t.Fatalf("AddStock: %v", err)
	}

	product, err = f.service.SetStock(ctx, id, 3)
	if err != nil || product.Stock().Value() != 3 {
		t.Fatalf("SetStock: %v", err)
	}

	if _, err := f.service.SetStock(ctx, id, -1); !errors.Is(err, domain.ErrNegativeQuantity) {
		t.Errorf("Expected ErrNegativeQuantity, got %v", err)
	}

	stored, _ := f.products.FindByID(ctx, domain.ProductID(id))
	if stored.Stock().Value() != 3 {
		t.Errorf("Expected stored stock 3, got %d", stored.Stock().Value())
	}
	if len(f.cache.invalidated) != 3 {
		t.Errorf("Expected 3 cache invalidations, got %d", len(f.cache.invalidated))
	}
}

func TestMutationRetriesAfterVersionConflict(t *testing.T) {
	f := newProductFixture(t)
	ctx := context.Background()
	id := int64(f.create(t, "RACE-1", "1.00", 5).ID())

	f.products.conflicts = maxWriteAttempts - 1
	product, err := f.service.DeductStock(ctx, id, 2)
	if err != nil {
		t.Fatalf("Expected retry to succeed, got %v", err)
	}
	if product.Stock().Value() != 3 {
		t.Errorf("Expected stock 3, got %d", product.Stock().Value())
	}

	f.products.conflicts = maxWriteAttempts
	if _, err := f.service.DeductStock(ctx, id, 1); !errors.Is(err, ErrConcurrentModification) {
		t.Errorf("Expected ErrConcurrentModification after %d attempts, got %v", maxWriteAttempts, err)
	}
}

func TestUpdateProduct(t *testing.T) {
	f := newProductFixture(t)
	ctx := context.Background()
	id := int64(f.create(t, "UPD-1", "1.00", 5).ID())

	product, err := f.service.UpdateProduct(ctx, id, UpdateProductInput{
		Name:        "  Renamed  ",
		Description: "new",
		PriceAmount: "3.25",
		Currency:    "usd",
	})
	if err != nil {
		t.Fatalf("UpdateProduct: %v", err)
	}
	if product.Name() != "Renamed" || product.Price().Amount().String() != "3.25" {
		t.Errorf("Unexpected product %+v", product.Snapshot())
	}

	_, err = f.service.UpdateProduct(ctx, id, UpdateProductInput{Name: "", PriceAmount: "1", Currency: "USD"})
	if !errors.Is(err, domain.ErrInvalidName) {
		t.Errorf("Expected ErrInvalidName, got %v", err)
	}

	stored, _ := f.products.FindByID(ctx, domain.ProductID(id))
	if stored.Name() != "Renamed" {
		t.Errorf("Rejected update leaked into storage: %s", stored.Name())
	}
}

func TestChangeCategoryAndSKU(t *testing.T) {
	f := newProductFixture(t)
	ctx := context.Background()
	id := int64(f.create(t, "MOVE-1", "1.00", 0).ID())
	f.create(t, "MOVE-2", "1.00", 0)

	other, err := domain.NewCategory("Garden", "")
	if err != nil {
		t.Fatalf("NewCategory: %v", err)
	}
	_ = f.categories.Create(ctx, other)

	product, err := f.service.ChangeCategory(ctx, id, int64(other.ID()))
	if err != nil || product.CategoryID() != other.ID() {
		t.Fatalf("ChangeCategory: %v", err)
	}
	if _, err := f.service.ChangeCategory(ctx, id, 999); !errors.Is(err, ErrCategoryNotFound) {
		t.Errorf("Expected ErrCategoryNotFound, got %v", err)
	}

	if _, err := f.service.ChangeSKU(ctx, id, "move-2"); !errors.Is(err, ErrSKUAlreadyExists) {
		t.Errorf("Expected ErrSKUAlreadyExists, got %v", err)
	}
	if _, err := f.service.ChangeSKU(ctx, id, "move-1"); err != nil {
		t.Errorf("Re-applying own sku should succeed, got %v", err)
	}
	product, err = f.service.ChangeSKU(ctx, id, "MOVED-1")
	if err != nil || product.SKU().Value() != "MOVED-1" {
		t.Errorf("ChangeSKU: %v", err)
	}
}

func TestDeleteProduct(t *testing.T) {
	f := newProductFixture(t)
	ctx := context.Background()
	stocked := int64(f.create(t, "DEL-1", "1.00", 2).ID())
	empty := int64(f.create(t, "DEL-2", "1.00", 0).ID())

	if err := f.service.DeleteProduct(ctx, stocked); !errors.Is(err, ErrProductHasStock) {
		t.Errorf("Expected ErrProductHasStock, got %v", err)
	}

	if err := f.service.DeleteProduct(ctx, empty); err != nil {
		t.Fatalf("DeleteProduct: %v", err)
	}
	if _, err := f.products.FindByID(ctx, domain.ProductID(empty)); !errors.Is(err, repository.ErrProductNotFound) {
		t.Errorf("Expected product to be gone, got %v", err)
	}
	if err := f.service.DeleteProduct(ctx, empty); !errors.Is(err, ErrProductNotFound) {
		t.Errorf("Expected ErrProductNotFound, got %v", err)
	}
}

// restockingRepository commits a restock between DeleteProduct's stock check
// and its delete.
type restockingRepository struct {
	*mockProductRepository
	restock func()
}

func (r *restockingRepository) Delete(ctx context.Context, id domain.ProductID, version int) error {
	if hook := r.restock; hook != nil {
		r.restock = nil
		hook()
	}
	return r.mockProductRepository.Delete(ctx, id, version)
}

func TestDeleteProduct_RestockDuringDeleteKeepsProduct(t *testing.T) {
	f := newProductFixture(t)
	ctx := context.Background()
	id := int64(f.create(t, "DEL-RACE", "1.00", 0).ID())

	repo := &restockingRepository{mockProductRepository: f.products}
	svc := NewProductService(repo, f.categories, f.cache, zap.NewNop())
	repo.restock = func() {
		if _, err := svc.AddStock(ctx, id, 50); err != nil {
			t.Errorf("AddStock: %v", err)
		}
	}

	if err := svc.DeleteProduct(ctx, id); !errors.Is(err, ErrProductHasStock) {
		t.Fatalf("Expected ErrProductHasStock, got %v", err)
	}

	stored, err := f.products.FindByID(ctx, domain.ProductID(id))
	if err != nil {
		t.Fatalf("Expected product to survive the delete, got %v", err)
	}
	if stored.Stock().Value() != 50 {
		t.Errorf("Expected stock 50, got %d", stored.Stock().Value())
	}
}

// staleReadRepository commits a stock change right after a read, so the reader
// holds the previous version when it fills the cache.
type staleReadRepository struct {
	*mockProductRepository
	afterRead func()
}

func (r *staleReadRepository) FindByID(ctx context.Context, id domain.ProductID) (*domain.Product, error) {
	product, err := r.mockProductRepository.FindByID(ctx, id)
	if hook := r.afterRead; hook != nil {
		r.afterRead = nil
		hook()
	}
	return product, err
}

func TestGetProduct_StaleReadIsNotCachedAfterInvalidation(t *testing.T) {
	f := newProductFixture(t)
	ctx := context.Background()
	id := int64(f.create(t, "CACHE-RACE", "1.00", 5).ID())

	repo := &staleReadRepository{mockProductRepository: f.products}
	svc := NewProductService(repo, f.categories, f.cache, zap.NewNop())
	repo.afterRead = func() {
		if _, err := svc.AddStock(ctx, id, 1); err != nil {
			t.Errorf("AddStock: %v", err)
		}
	}

	stale, err := svc.GetProduct(ctx, id)
	if err != nil {
		t.Fatalf("GetProduct: %v", err)
	}
	if stale.Stock().Value() != 5 {
		t.Fatalf("Expected the racing read to see stock 5, got %d", stale.Stock().Value())
	}
	if _, ok := f.cache.entries[domain.ProductID(id)]; ok {
		t.Fatal("Expected the stale snapshot to be refused by the cache")
	}

	fresh, err := svc.GetProduct(ctx, id)
	if err != nil {
		t.Fatalf("GetProduct: %v", err)
	}
	if fresh.Stock().Value() != 6 {
		t.Errorf("Expected stock 6, got %d", fresh.Stock().Value())
	}
	if cached, ok := f.cache.entries[domain.ProductID(id)]; !ok || cached.Stock != 6 {
		t.Errorf("Expected the fresh snapshot to be cached, got %+v", cached)
	}
}

func TestInventoryQueries(t *testing.T) {
	f := newProductFixture(t)
	ctx := context.Background()
	id := int64(f.create(t, "INV-1", "19.99", 3).ID())
	f.create(t, "INV-2", "1.00", 50)

	value, err := f.service.InventoryValue(ctx, id)
	if err != nil || value.Amount().String() != "59.97" || value.Currency() != "USD" {
		t.Errorf("InventoryValue: %v %v", value, err)
	}

	amount, err := f.service.RestockSuggestion(ctx, id, 10)
	if err != nil || amount != 7 {
		t.Errorf("RestockSuggestion: %d %v", amount, err)
	}
	if _, err := f.service.RestockSuggestion(ctx, id, -1); !errors.Is(err, domain.ErrNegativeQuantity) {
		t.Errorf("Expected ErrNegativeQuantity, got %v", err)
	}

	low, err := f.service.ListLowStock(ctx, 0)
	if err != nil || len(low) != 1 || int64(low[0].ID()) != id {
		t.Errorf("ListLowStock with default threshold: %d products, %v", len(low), err)
	}
	if _, err := f.service.ListLowStock(ctx, -3); !errors.Is(err, domain.ErrNegativeQuantity) {
		t.Errorf("Expected ErrNegativeQuantity, got %v", err)
	}
}

func TestProperty_StockNeverNegativeThroughService(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("deductions never drive stored stock below zero", prop.ForAll(
		func(initial int, deductions []int) bool {
			f := newProductFixture(t)
			ctx := context.Background()
			id := int64(f.create(t, "PROP-1", "1.00", initial).ID())

			expected := initial
			for _, qty := range deductions {
				_, err := f.service.DeductStock(ctx, id, qty)
				switch {
				case qty <= expected:
					if err != nil {
						t.Logf("FAIL: deduct %d from %d: %v", qty, expected, err)
						return false
					}
					expected -= qty
				case !errors.Is(err, domain.ErrInsufficientStock):
					t.Logf("FAIL: expected insufficient stock deducting %d from %d, got %v", qty, expected, err)
					return false
				}
			}

			stored, err := f.products.FindByID(ctx, domain.ProductID(id))
			return err == nil && stored.Stock().Value() == expected && expected >= 0
		},
		gen.IntRange(0, 100),
		gen.SliceOf(gen.IntRange(0, 40)),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
