package transport

import (
	"time"

	"product-catalog/internal/domain"
	"product-catalog/internal/rules"
)

// MoneyResponse renders an amount as a decimal string so clients never see
// float rounding, plus a display string.
type MoneyResponse struct {
	Amount    string `json:"amount"`
	Currency  string `json:"currency"`
	Formatted string `json:"formatted"`
}

// ProductResponse represents a product in API responses
type ProductResponse struct {
	ID          int64         `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Price       MoneyResponse `json:"price"`
	SKU         string        `json:"sku"`
	Stock       int           `json:"stock"`
	InStock     bool          `json:"in_stock"`
	LowStock    bool          `json:"low_stock"`
	CategoryID  int64         `json:"category_id"`
	Version     int           `json:"version"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// ProductListResponse is one page of products.
type ProductListResponse struct {
	Items    []ProductResponse `json:"items"`
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
}

// CategoryResponse represents a category in API responses
type CategoryResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	ProductIDs  []int64   `json:"product_ids"`
	CreatedAt   time.Time `json:"created_at"`
}

type InventoryValueResponse struct {
	ProductID int64         `json:"product_id"`
	Value     MoneyResponse `json:"value"`
}

type RestockResponse struct {
	ProductID int64 `json:"product_id"`
	Target    int   `json:"target"`
	Restock   int   `json:"restock"`
}

func toMoneyResponse(m domain.Money) MoneyResponse {
	return MoneyResponse{
		Amount:    m.Amount().StringFixed(rules.CurrencyDecimalPlaces(m.Currency())),
		Currency:  m.Currency(),
		Formatted: m.Format(),
	}
}

func toProductResponse(p *domain.Product) ProductResponse {
	s := p.Snapshot()
	return ProductResponse{
		ID:          s.ID,
		Name:        s.Name,
		Description: s.Description,
		Price:       toMoneyResponse(s.Price),
		SKU:         s.SKU,
		Stock:       s.Stock,
		InStock:     !p.IsOutOfStock(),
		LowStock:    p.IsLowStock(rules.DefaultLowStockThreshold),
		CategoryID:  s.CategoryID,
		Version:     s.Version,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

func toProductResponses(products []*domain.Product) []ProductResponse {
	items := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		items = append(items, toProductResponse(p))
	}
	return items
}

func toCategoryResponse(c *domain.Category) CategoryResponse {
	ids := make([]int64, 0, len(c.ProductIDs()))
	for _, id := range c.ProductIDs() {
		ids = append(ids, int64(id))
	}
	return CategoryResponse{
		ID:          int64(c.ID()),
		Name:        c.Name(),
		Description: c.Description(),
		ProductIDs:  ids,
		CreatedAt:   c.CreatedAt(),
	}
}
