package domain

import (
	"errors"
	"time"

	"product-catalog/internal/rules"
)

// CategoryID references a category row.
type CategoryID int64

// Category is a reference entity. Products point at it by CategoryID; the
// product list it carries is informational and not kept consistent here.
type Category struct {
	id          CategoryID
	name        string
	description string
	createdAt   time.Time
	productIDs  []ProductID
}

// NewCategory validates name and description.
func NewCategory(name, description string) (*Category, error) {
	validName, validDescription, err := validateCategoryFields(name, description)
	if err != nil {
		return nil, err
	}
	return &Category{
		name:        validName,
		description: validDescription,
		createdAt:   now().UTC(),
	}, nil
}

// ReconstituteCategory rebuilds a stored category.
func ReconstituteCategory(id CategoryID, name, description string, createdAt time.Time, productIDs []ProductID) (*Category, error) {
	if id <= 0 {
		return nil, ErrInvalidIdentity
	}
	validName, validDescription, err := validateCategoryFields(name, description)
	if err != nil {
		return nil, err
	}
	return &Category{
		id:          id,
		name:        validName,
		description: validDescription,
		createdAt:   createdAt,
		productIDs:  append([]ProductID(nil), productIDs...),
	}, nil
}

func validateCategoryFields(name, description string) (string, string, error) {
	validName, nameErr := rules.ValidateCategoryName(name)
	validDescription, descErr := rules.ValidateCategoryDescription(description)
	if err := errors.Join(nameErr, descErr); err != nil {
		return "", "", err
	}
	return validName, validDescription, nil
}

func (c *Category) ID() CategoryID { return c.id }
func (c *Category) Name() string { return c.name }
func (c *Category) Description() string { return c.description }
func (c *Category) CreatedAt() time.Time { return c.createdAt }

// ProductIDs returns a copy of the attached product ids.
func (c *Category) ProductIDs() []ProductID {
	return append([]ProductID(nil), c.productIDs...)
}

// AssignID records the identity chosen by persistence. It can be set once.
func (c *Category) AssignID(id CategoryID) error {
	if c.id != 0 {
		return ErrIdentityAssigned
	}
	if id <= 0 {
		return ErrInvalidIdentity
	}
	c.id = id
	return nil
}
