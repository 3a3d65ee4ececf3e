package service

import (
	"errors"

	"product-catalog/internal/repository"
)

// Persistence outcomes callers need to tell apart.
var (
	ErrProductNotFound        = repository.ErrProductNotFound
	ErrCategoryNotFound       = repository.ErrCategoryNotFound
	ErrSKUAlreadyExists       = repository.ErrSKUAlreadyExists
	ErrCategoryAlreadyExists  = repository.ErrCategoryAlreadyExists
	ErrConcurrentModification = repository.ErrConcurrentModification
	ErrCategoryInUse          = repository.ErrCategoryInUse
)

var (
	ErrProductHasStock = errors.New("product still has stock on hand")
	ErrInvalidID       = errors.New("id must be positive")
)
