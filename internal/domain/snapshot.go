package domain

import "time"

// ProductSnapshot is a flat, serializable copy of a Product. It is what the
// cache stores and what the HTTP layer renders.
type ProductSnapshot struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       Money     `json:"price"`
	SKU         string    `json:"sku"`
	Stock       int       `json:"stock"`
	CategoryID  int64     `json:"category_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Version     int       `json:"version"`
}

// Snapshot copies the aggregate state.
func (p *Product) Snapshot() ProductSnapshot {
	return ProductSnapshot{
		ID:          int64(p.id),
		Name:        p.name,
		Description: p.description,
		Price:       p.price,
		SKU:         p.sku.Value(),
		Stock:       p.stock.Value(),
		CategoryID:  int64(p.categoryID),
		CreatedAt:   p.createdAt,
		UpdatedAt:   p.updatedAt,
		Version:     p.version,
	}
}

// ProductFromSnapshot rebuilds a Product, re-running every value object
// constructor so a tampered snapshot cannot produce an invalid aggregate.
func ProductFromSnapshot(s ProductSnapshot) (*Product, error) {
	if err := requireMoney(s.Price); err != nil {
		return nil, err
	}
	price, err := NewMoney(s.Price.Amount(), s.Price.Currency())
	if err != nil {
		return nil, err
	}
	sku, err := NewProductSKU(s.SKU)
	if err != nil {
		return nil, err
	}
	stock, err := NewStockQuantity(s.Stock)
	if err != nil {
		return nil, err
	}
	return ReconstituteProduct(
		ProductID(s.ID),
		s.Name,
		s.Description,
		price,
		sku,
		CategoryID(s.CategoryID),
		stock,
		s.CreatedAt,
		s.UpdatedAt,
		s.Version,
	)
}
