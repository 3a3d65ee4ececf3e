package domain

import (
	"errors"
	"fmt"
	"time"

	"product-catalog/internal/rules"
)

// ProductID is assigned by persistence. Zero means "not yet stored".
type ProductID int64

var (
	ErrIdentityAssigned = errors.New("identity already assigned")
	ErrInvalidIdentity  = errors.New("identity must be positive")
	ErrInvalidTimeline  = errors.New("updated_at precedes created_at")
)

// now is the aggregate clock. Tests replace it.
var now = time.Now

// Product is the catalog aggregate root. It is created only through
// NewProduct or ReconstituteProduct and changed only through its methods; a
// failed method leaves the product exactly as it was.
//
// Product is not safe for concurrent mutation. The repository enforces a
// single writer per row through the version token.
type Product struct {
	id          ProductID
	name        string
	description string
	price       Money
	sku         ProductSKU
	stock       StockQuantity
	categoryID  CategoryID
	createdAt   time.Time
	updatedAt   time.Time
	version     int
}

// NewProduct validates every structural field and returns a product with
// createdAt == updatedAt == now. All failing checks are reported together.
func NewProduct(
	name string,
	description string,
	price Money,
	sku ProductSKU,
	categoryID CategoryID,
	stock StockQuantity,
) (*Product, error) {
	validName, validDescription, err := validateProductFields(name, description, price, sku, categoryID)
	if err != nil {
		return nil, err
	}

	ts := now().UTC()
	return &Product{
		name:        validName,
		description: validDescription,
		price:       price,
		sku:         sku,
		stock:       stock,
		categoryID:  categoryID,
		createdAt:   ts,
		updatedAt:   ts,
	}, nil
}

// ReconstituteProduct rebuilds a stored product. The same structural rules as
// NewProduct apply, plus a positive id and a consistent timeline.
func ReconstituteProduct(
	id ProductID,
	name string,
	description string,
	price Money,
	sku ProductSKU,
	categoryID CategoryID,
	stock StockQuantity,
	createdAt time.Time,
	updatedAt time.Time,
	version int,
) (*Product, error) {
	if id <= 0 {
		return nil, ErrInvalidIdentity
	}
	validName, validDescription, err := validateProductFields(name, description, price, sku, categoryID)
	if err != nil {
		return nil, fmt.Errorf("product %d: %w", id, err)
	}
	if updatedAt.Before(createdAt) {
		return nil, fmt.Errorf("product %d: %w", id, ErrInvalidTimeline)
	}

	return &Product{
		id:          id,
		name:        validName,
		description: validDescription,
		price:       price,
		sku:         sku,
		stock:       stock,
		categoryID:  categoryID,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
		version:     version,
	}, nil
}

func validateProductFields(name, description string, price Money, sku ProductSKU, categoryID CategoryID) (string, string, error) {
	var errs []error

	validName, err := rules.ValidateProductName(name)
	if err != nil {
		errs = append(errs, err)
	}
	validDescription, err := rules.ValidateProductDescription(description)
	if err != nil {
		errs = append(errs, err)
	}
	if err := rules.ValidateCategoryID(int64(categoryID)); err != nil {
		errs = append(errs, err)
	}
	if err := requireMoney(price); err != nil {
		errs = append(errs, err)
	}
	if err := requireSKU(sku); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return "", "", errors.Join(errs...)
	}
	return validName, validDescription, nil
}

// Zero-value value objects never went through a constructor.
func requireMoney(m Money) error {
	if m.currency == "" {
		return rules.Violationf(rules.CodeInvalidAmount, "price is required")
	}
	return nil
}

func requireSKU(s ProductSKU) error {
	if s.value == "" {
		return rules.Violationf(rules.CodeEmptyValue, "sku is required")
	}
	return nil
}

func (p *Product) ID() ProductID { return p.id }
func (p *Product) Name() string { return p.name }
func (p *Product) Description() string { return p.description }
func (p *Product) Price() Money { return p.price }
func (p *Product) SKU() ProductSKU { return p.sku }
func (p *Product) Stock() StockQuantity { return p.stock }
func (p *Product) CategoryID() CategoryID { return p.categoryID }
func (p *Product) CreatedAt() time.Time { return p.createdAt }
func (p *Product) UpdatedAt() time.Time { return p.updatedAt }
func (p *Product) Version() int { return p.version }

// AssignID records the identity chosen by persistence. It can be set once.
func (p *Product) AssignID(id ProductID) error {
	if p.id != 0 {
		return ErrIdentityAssigned
	}
	if id <= 0 {
		return ErrInvalidIdentity
	}
	p.id = id
	return nil
}

// AdvanceVersion is called by persistence after a successful write.
func (p *Product) AdvanceVersion() {
	p.version++
}

// touch refreshes updatedAt, keeping it monotonic even if the clock steps back.
func (p *Product) touch() {
	ts := now().UTC()
	if ts.Before(p.updatedAt) {
		ts = p.updatedAt
	}
	p.updatedAt = ts
}

// UpdateBasicInfo replaces name, description and price.
func (p *Product) UpdateBasicInfo(name, description string, price Money) error {
	validName, validDescription, err := validateProductFields(name, description, price, p.sku, p.categoryID)
	if err != nil {
		return err
	}
	p.name = validName
	p.description = validDescription
	p.price = price
	p.touch()
	return nil
}

// ChangeCategory moves the product to another category.
func (p *Product) ChangeCategory(categoryID CategoryID) error {
	if err := rules.ValidateCategoryID(int64(categoryID)); err != nil {
		return err
	}
	p.categoryID = categoryID
	p.touch()
	return nil
}

// ChangeSKU replaces the SKU. Uniqueness across products is the caller's job.
func (p *Product) ChangeSKU(sku ProductSKU) error {
	if err := requireSKU(sku); err != nil {
		return err
	}
	p.sku = sku
	p.touch()
	return nil
}

func (p *Product) AddStock(qty int) error {
	next, err := p.stock.Add(qty)
	if err != nil {
		return err
	}
	p.stock = next
	p.touch()
	return nil
}

func (p *Product) DeductStock(qty int) error {
	next, err := p.stock.Deduct(qty)
	if err != nil {
		return err
	}
	p.stock = next
	p.touch()
	return nil
}

// SetStockQuantity overwrites the stock level, e.g. after a physical count.
func (p *Product) SetStockQuantity(qty int) error {
	next, err := NewStockQuantity(qty)
	if err != nil {
		return err
	}
	p.stock = next
	p.touch()
	return nil
}

func (p *Product) IsInStock(qty int) bool {
	return p.stock.IsSufficient(qty)
}

func (p *Product) IsLowStock(threshold int) bool {
	return p.stock.IsLowStock(threshold)
}

func (p *Product) IsOutOfStock() bool {
	return p.stock.IsOutOfStock()
}

// CanBeDeleted is the only deletion precondition: no units left on hand.
func (p *Product) CanBeDeleted() bool {
	return p.stock.IsOutOfStock()
}

// CalculateInventoryValue returns price x units on hand.
func (p *Product) CalculateInventoryValue() Money {
	value, err := p.price.MultiplyInt(int64(p.stock.Value()))
	if err != nil {
		// stock is never negative
		panic(err)
	}
	return value
}

func (p *Product) RestockAmount(target int) (int, error) {
	return p.stock.RestockAmount(target)
}

// IsPriceInRange is an inclusive check; min and max must share the price's
// currency.
func (p *Product) IsPriceInRange(min, max Money) (bool, error) {
	aboveMin, err := p.price.GreaterThanOrEqual(min)
	if err != nil {
		return false, err
	}
	belowMax, err := p.price.LessThanOrEqual(max)
	if err != nil {
		return false, err
	}
	return aboveMin && belowMax, nil
}

func (p *Product) HasSKUPrefix(prefix string) bool {
	return p.sku.HasPrefix(prefix)
}
