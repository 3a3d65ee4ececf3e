package transport

import (
	"context"
	"net/http"
	"strconv"

	"product-catalog/internal/domain"
	"product-catalog/internal/middleware"
	"product-catalog/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// CreateProductRequest represents the product creation payload
type CreateProductRequest struct {
	Name        string `json:"name" validate:"required,product_name"`
	Description string `json:"description" validate:"product_description"`
	Price       string `json:"price" validate:"required,money=Currency,positive_amount"`
	Currency    string `json:"currency" validate:"currency"`
	SKU         string `json:"sku" validate:"required,sku"`
	CategoryID  int64  `json:"category_id" validate:"required,gt=0"`
	Stock       int    `json:"stock" validate:"gte=0"`
}

// UpdateProductRequest replaces name, description and price together.
type UpdateProductRequest struct {
	Name        string `json:"name" validate:"required,product_name"`
	Description string `json:"description" validate:"product_description"`
	Price       string `json:"price" validate:"required,money=Currency,positive_amount"`
	Currency    string `json:"currency" validate:"currency"`
}

type ChangeCategoryRequest struct {
	CategoryID int64 `json:"category_id" validate:"required,gt=0"`
}

type ChangeSKURequest struct {
	SKU string `json:"sku" validate:"required,sku"`
}

// StockRequest carries a quantity for add, deduct and set.
type StockRequest struct {
	Quantity *int `json:"quantity" validate:"required,gte=0"`
}

// ProductHandler handles HTTP requests for product operations
type ProductHandler struct {
	productService service.ProductService
	logger         *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(productService service.ProductService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		logger:         logger,
	}
}

// RegisterRoutes registers all product routes. Reads are public; writes run
// behind writeGuards.
func (h *ProductHandler) RegisterRoutes(r chi.Router, writeGuards ...func(http.Handler) http.Handler) {
	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", h.ListProducts)
		r.Get("/search", h.SearchProducts)
		r.Get("/low-stock", h.ListLowStock)
		r.Get("/{id}", h.GetProduct)
		r.Get("/{id}/inventory-value", h.GetInventoryValue)
		r.Get("/{id}/restock", h.GetRestockSuggestion)

		r.Group(func(r chi.Router) {
			r.Use(writeGuards...)
			r.Post("/", h.CreateProduct)
			r.Put("/{id}", h.UpdateProduct)
			r.Delete("/{id}", h.DeleteProduct)
			r.Patch("/{id}/category", h.ChangeCategory)
			r.Patch("/{id}/sku", h.ChangeSKU)
			r.Post("/{id}/stock/add", h.AddStock)
			r.Post("/{id}/stock/deduct", h.DeductStock)
			r.Put("/{id}/stock", h.SetStock)
		})
	})
}

// CreateProduct handles product creation
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Create product validation failed", zap.Error(err))
		middleware.RespondWithDecodeError(w, err)
		return
	}

	product, err := h.productService.CreateProduct(r.Context(), service.CreateProductInput{
		Name:        req.Name,
		Description: req.Description,
		PriceAmount: req.Price,
		Currency:    req.Currency,
		SKU:         req.SKU,
		CategoryID:  req.CategoryID,
		Stock:       req.Stock,
	})
	if err != nil {
		middleware.RespondWithServiceError(w, err, h.logger)
		return
	}

	w.Header().Set("Location", "/api/products/"+strconv.FormatInt(int64(product.ID()), 10))
	middleware.RespondWithJSON(w, http.StatusCreated, toProductResponse(product))
}

// GetProduct returns a single product
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	product, err := h.productService.GetProduct(r.Context(), id)
	if err != nil {
		middleware.RespondWithServiceError(w, err, h.logger)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, toProductResponse(product))
}

// ListProducts returns one page of products, optionally filtered by category.
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	page, pageSize, ok := pagination(w, r)
	if !ok {
		return
	}

	input := service.ListProductsInput{
		Page:      page,
		PageSize:  pageSize,
		SortBy:    r.URL.Query().Get("sort_by"),
		SortOrder: r.URL.Query().Get("sort_order"),
	}
	if raw := r.URL.Query().Get("category_id"); raw != "" {
		categoryID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || categoryID <= 0 {
			middleware.RespondWithError(w, http.StatusBadRequest, "category_id must be a positive integer")
			return
		}
		input.CategoryID = &categoryID
	}

	products, total, err := h.productService.ListProducts(r.Context(), input)
	if err != nil {
		middleware.RespondWithServiceError(w, err, h.logger)
		return
	}

	respondWithPage(w, products, total, page, pageSize)
}

// SearchProducts matches q against name, description and SKU.
func (h *ProductHandler) SearchProducts(w http.ResponseWriter, r *http.Request) {
	page, pageSize, ok := pagination(w, r)
	if !ok {
		return
	}

	products, total, err := h.productService.SearchProducts(r.Context(), r.URL.Query().Get("q"), page, pageSize)
	if err != nil {
		middleware.RespondWithServiceError(w, err, h.logger)
		return
	}

	respondWithPage(w, products, total, page, pageSize)
}

// ListLowStock returns products at or below ?threshold=, or the default
// threshold when it is absent.
func (h *ProductHandler) ListLowStock(w http.ResponseWriter, r *http.Request) {
	threshold, ok := queryInt(w, r, "threshold", 0)
	if !ok {
		return
	}

	products, err := h.productService.ListLowStock(r.Context(), threshold)
	if err != nil {
		middleware.RespondWithServiceError(w, err, h.logger)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, toProductResponses(products))
}

// UpdateProduct handles name, description and price changes
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req UpdateProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Update product validation failed", zap.Error(err))
		middleware.RespondWithDecodeError(w, err)
		return
	}

	product, err := h.productService.UpdateProduct(r.Context(), id, service.UpdateProductInput{
		Name:        req.Name,
		Description: req.Description,
		PriceAmount: req.Price,
		Currency:    req.Currency,
	})
	h.respondWithProduct(w, product, err)
}

func (h *ProductHandler) ChangeCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req ChangeCategoryRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	product, err := h.productService.ChangeCategory(r.Context(), id, req.CategoryID)
	h.respondWithProduct(w, product, err)
}

func (h *ProductHandler) ChangeSKU(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req ChangeSKURequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	product, err := h.productService.ChangeSKU(r.Context(), id, req.SKU)
	h.respondWithProduct(w, product, err)
}

func (h *ProductHandler) AddStock(w http.ResponseWriter, r *http.Request) {
	h.changeStock(w, r, h.productService.AddStock)
}

func (h *ProductHandler) DeductStock(w http.ResponseWriter, r *http.Request) {
	h.changeStock(w, r, h.productService.DeductStock)
}

// SetStock overwrites the stock level after a physical count.
func (h *ProductHandler) SetStock(w http.ResponseWriter, r *http.Request) {
	h.changeStock(w, r, h.productService.SetStock)
}

// DeleteProduct removes a product with no stock left
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.productService.DeleteProduct(r.Context(), id); err != nil {
		middleware.RespondWithServiceError(w, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *ProductHandler) GetInventoryValue(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	value, err := h.productService.InventoryValue(r.Context(), id)
	if err != nil {
		middleware.RespondWithServiceError(w, err, h.logger)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, InventoryValueResponse{
		ProductID: id,
		Value:     toMoneyResponse(value),
	})
}

// GetRestockSuggestion reports how many units reach ?target=.
func (h *ProductHandler) GetRestockSuggestion(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if r.URL.Query().Get("target") == "" {
		middleware.RespondWithError(w, http.StatusBadRequest, "target is required")
		return
	}
	target, ok := queryInt(w, r, "target", 0)
	if !ok {
		return
	}

	restock, err := h.productService.RestockSuggestion(r.Context(), id, target)
	if err != nil {
		middleware.RespondWithServiceError(w, err, h.logger)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, RestockResponse{
		ProductID: id,
		Target:    target,
		Restock:   restock,
	})
}

type stockChange func(ctx context.Context, id int64, qty int) (*domain.Product, error)

func (h *ProductHandler) changeStock(w http.ResponseWriter, r *http.Request, apply stockChange) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req StockRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	product, err := apply(r.Context(), id, *req.Quantity)
	h.respondWithProduct(w, product, err)
}

func (h *ProductHandler) respondWithProduct(w http.ResponseWriter, product *domain.Product, err error) {
	if err != nil {
		middleware.RespondWithServiceError(w, err, h.logger)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, toProductResponse(product))
}

func respondWithPage(w http.ResponseWriter, products []*domain.Product, total, page, pageSize int) {
	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	middleware.RespondWithJSON(w, http.StatusOK, ProductListResponse{
		Items:    toProductResponses(products),
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	})
}

// pathID parses the {id} URL parameter and answers 400 when it is not a
// positive integer.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		middleware.RespondWithServiceError(w, service.ErrInvalidID, nil)
		return 0, false
	}
	return id, true
}

func queryInt(w http.ResponseWriter, r *http.Request, name string, fallback int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, true
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, name+" must be an integer")
		return 0, false
	}
	return value, true
}

// pagination reads page and page_size, applying the same defaults and cap the
// repositories use so the response echoes the page actually served.
func pagination(w http.ResponseWriter, r *http.Request) (int, int, bool) {
	page, ok := queryInt(w, r, "page", 1)
	if !ok {
		return 0, 0, false
	}
	pageSize, ok := queryInt(w, r, "page_size", defaultPageSize)
	if !ok {
		return 0, 0, false
	}

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize, true
}
