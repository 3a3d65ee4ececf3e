package main

import (
	"context"
	"errors"
	"fmt"

	"product-catalog/internal/config"
	"product-catalog/internal/database"
	"product-catalog/internal/logger"
	"product-catalog/internal/repository"
	"product-catalog/internal/service"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type seedProduct struct {
	name, description, price, currency, sku string
	stock                                   int
}

type seedCategory struct {
	name, description string
	products          []seedProduct
}

var catalog = []seedCategory{
	{"Electronics", "Gadgets and accessories", []seedProduct{
		{"Wireless Mouse", "2.4GHz optical mouse", "2980", "JPY", "EL-MOUSE-001", 40},
		{"USB-C Hub", "7-in-1 adapter", "49.90", "USD", "EL-HUB-007", 12},
		{"Mechanical Keyboard", "Tenkeyless, brown switches", "129.00", "EUR", "EL-KEY-TKL", 3},
	}},
	{"Kitchen", "Cookware and utensils", []seedProduct{
		{"Chef Knife", "21cm stainless steel", "15800", "JPY", "KT-KNIFE-21", 8},
		{"Cast Iron Pan", "26cm skillet", "39.50", "GBP", "KT-PAN-26", 0},
	}},
	{"Stationery", "", []seedProduct{
		{"Gel Pen 10 Pack", "0.5mm black ink", "980", "JPY", "ST-PEN-10", 150},
		{"A5 Notebook", "Dotted, 160 pages", "12.00", "USD", "ST-NB-A5", 5},
	}},
}

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found, using environment and defaults")
	}

	cfg := config.Load()

	log, err := logger.New(cfg.Server.Env, cfg.Server.LogLevel)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer log.Sync()

	dbService, err := database.New(cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer dbService.Close()

	if err := database.RunMigrations(dbService.DB(), log); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}
	if err := database.GetMigrationStatus(dbService.DB()); err != nil {
		log.Warn("Could not read migration status", zap.Error(err))
	}

	categoryRepo := repository.NewCategoryRepository(dbService.DB())
	categories := service.NewCategoryService(categoryRepo, log)
	products := service.NewProductService(repository.NewProductRepository(dbService.DB()), categoryRepo, nil, log)

	created, skipped, err := seed(context.Background(), categories, products)
	if err != nil {
		log.Fatal("Seed failed", zap.Error(err))
	}

	log.Info("Seed complete", zap.Int("created", created), zap.Int("skipped", skipped))
}

// seed is safe to run twice: existing categories are reused and existing SKUs
// are skipped.
func seed(ctx context.Context, categories service.CategoryService, products service.ProductService) (int, int, error) {
	existing, err := categories.ListCategories(ctx)
	if err != nil {
		return 0, 0, err
	}
	byName := make(map[string]int64, len(existing))
	for _, c := range existing {
		byName[c.Name()] = int64(c.ID())
	}

	created, skipped := 0, 0
	for _, sc := range catalog {
		categoryID, ok := byName[sc.name]
		if !ok {
			category, err := categories.CreateCategory(ctx, sc.name, sc.description)
			if err != nil {
				return created, skipped, fmt.Errorf("failed to create category %q: %w", sc.name, err)
			}
			categoryID = int64(category.ID())
		}

		for _, sp := range sc.products {
			_, err := products.CreateProduct(ctx, service.CreateProductInput{
				Name:        sp.name,
				Description: sp.description,
				PriceAmount: sp.price,
				Currency:    sp.currency,
				SKU:         sp.sku,
				CategoryID:  categoryID,
				Stock:       sp.stock,
			})
			switch {
			case errors.Is(err, service.ErrSKUAlreadyExists):
				skipped++
			case err != nil:
				return created, skipped, fmt.Errorf("failed to create product %q: %w", sp.sku, err)
			default:
				created++
			}
		}
	}
	return created, skipped, nil
}
