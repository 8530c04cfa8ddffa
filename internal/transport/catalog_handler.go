package transport

import (
	"errors"
	"net/http"
	"strconv"

	"shopcart/internal/domain"
	"shopcart/internal/middleware"
	"shopcart/internal/repository"
	"shopcart/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProductRequest represents the create/update product payload. Price travels
// as a string so it parses straight into a decimal, never through a float.
type ProductRequest struct {
	Name         string `json:"name" validate:"required"`
	Description  string `json:"description"`
	Price        string `json:"price" validate:"required"`
	Barcode      string `json:"barcode"`
	ImageURL     string `json:"image_url"`
	DepartmentID string `json:"department_id" validate:"required,uuid"`
	LocationID   string `json:"location_id" validate:"required,uuid"`
	IsAvailable  *bool  `json:"is_available"`
	OnHand       int    `json:"on_hand" validate:"gte=0"`
}

// RestockRequest represents a stock adjustment payload
type RestockRequest struct {
	Delta int `json:"delta" validate:"required"`
}

// DepartmentRequest represents the create/update department payload
type DepartmentRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	IsTaxable   *bool  `json:"is_taxable"`
}

// LocationRequest represents the create/update location payload
type LocationRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

// ProductListResponse is a paginated product listing
type ProductListResponse struct {
	Products []*domain.Product `json:"products"`
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
}

// CatalogHandler handles HTTP requests for catalog operations
type CatalogHandler struct {
	catalogService service.CatalogService
	logger         *zap.Logger
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(catalogService service.CatalogService, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
		logger:         logger,
	}
}

// RegisterRoutes registers catalog routes. Reads are authenticated; writes
// are admin-only.
func (h *CatalogHandler) RegisterRoutes(r chi.Router, authMiddleware, adminMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/products", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/", h.ListProducts)
		r.Get("/{productID}", h.GetProduct)

		r.Group(func(r chi.Router) {
			r.Use(adminMiddleware)
			r.Post("/", h.CreateProduct)
			r.Put("/{productID}", h.UpdateProduct)
			r.Delete("/{productID}", h.DeleteProduct)
			r.Post("/{productID}/restock", h.RestockProduct)
		})
	})

	r.Route("/api/departments", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/", h.ListDepartments)
		r.Get("/{departmentID}", h.GetDepartment)

		r.Group(func(r chi.Router) {
			r.Use(adminMiddleware)
			r.Post("/", h.CreateDepartment)
			r.Put("/{departmentID}", h.UpdateDepartment)
			r.Delete("/{departmentID}", h.DeleteDepartment)
		})
	})

	r.Route("/api/locations", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/", h.ListLocations)
		r.Get("/{locationID}", h.GetLocation)

		r.Group(func(r chi.Router) {
			r.Use(adminMiddleware)
			r.Post("/", h.CreateLocation)
			r.Put("/{locationID}", h.UpdateLocation)
			r.Delete("/{locationID}", h.DeleteLocation)
		})
	})
}

// ListProducts returns a filtered, paginated product listing
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := repository.ProductFilter{Name: q.Get("q")}

	if v := q.Get("department_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid department ID")
			return
		}
		filter.DepartmentID = &id
	}
	if v := q.Get("location_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid location ID")
			return
		}
		filter.LocationID = &id
	}
	if v := q.Get("available"); v != "" {
		available, err := strconv.ParseBool(v)
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid available flag")
			return
		}
		filter.Available = &available
	}
	if v := q.Get("min_price"); v != "" {
		price, err := decimal.NewFromString(v)
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid min price")
			return
		}
		filter.MinPrice = &price
	}
	if v := q.Get("max_price"); v != "" {
		price, err := decimal.NewFromString(v)
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid max price")
			return
		}
		filter.MaxPrice = &price
	}

	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(q.Get("page_size"))
	if pageSize < 1 {
		pageSize = 20
	}

	products, total, err := h.catalogService.ListProducts(
		r.Context(), filter, page, pageSize,
		q.Get("sort_by"), repository.SortOrder(q.Get("sort_order")),
	)
	if err != nil {
		h.logger.Error("Failed to list products", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list products")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, ProductListResponse{
		Products: products,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	})
}

// GetProduct returns a single product
func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "productID"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	product, err := h.catalogService.GetProduct(r.Context(), id)
	if err != nil {
		h.respondCatalogError(w, err, "failed to get product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// CreateProduct creates a new product
func (h *CatalogHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	product, ok := h.decodeProduct(w, r)
	if !ok {
		return
	}

	created, err := h.catalogService.CreateProduct(r.Context(), product)
	if err != nil {
		h.respondCatalogError(w, err, "failed to create product")
		return
	}

	h.logger.Info("Product created", zap.String("product_id", created.ID.String()))
	middleware.RespondWithJSON(w, http.StatusCreated, created)
}

// UpdateProduct updates an existing product
func (h *CatalogHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "productID"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	product, ok := h.decodeProduct(w, r)
	if !ok {
		return
	}
	product.ID = id

	updated, err := h.catalogService.UpdateProduct(r.Context(), product)
	if err != nil {
		h.respondCatalogError(w, err, "failed to update product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, updated)
}

// DeleteProduct removes a product
func (h *CatalogHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "productID"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	if err := h.catalogService.DeleteProduct(r.Context(), id); err != nil {
		h.respondCatalogError(w, err, "failed to delete product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "product deleted"})
}

// RestockProduct adjusts a product's on-hand stock
func (h *CatalogHandler) RestockProduct(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "productID"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	var req RestockRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	product, err := h.catalogService.RestockProduct(r.Context(), id, req.Delta)
	if err != nil {
		if errors.Is(err, repository.ErrInsufficientInventory) {
			middleware.RespondWithError(w, http.StatusConflict, "insufficient inventory")
			return
		}
		h.respondCatalogError(w, err, "failed to restock product")
		return
	}

	h.logger.Info("Product restocked",
		zap.String("product_id", id.String()),
		zap.Int("delta", req.Delta),
	)
	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// ListDepartments returns all departments
func (h *CatalogHandler) ListDepartments(w http.ResponseWriter, r *http.Request) {
	departments, err := h.catalogService.ListDepartments(r.Context())
	if err != nil {
		h.logger.Error("Failed to list departments", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list departments")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, departments)
}

// GetDepartment returns a single department
func (h *CatalogHandler) GetDepartment(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "departmentID"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid department ID")
		return
	}

	department, err := h.catalogService.GetDepartment(r.Context(), id)
	if err != nil {
		h.respondCatalogError(w, err, "failed to get department")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, department)
}

// CreateDepartment creates a new department
func (h *CatalogHandler) CreateDepartment(w http.ResponseWriter, r *http.Request) {
	department, ok := h.decodeDepartment(w, r)
	if !ok {
		return
	}

	created, err := h.catalogService.CreateDepartment(r.Context(), department)
	if err != nil {
		if errors.Is(err, repository.ErrDepartmentAlreadyExists) {
			middleware.RespondWithError(w, http.StatusConflict, "department with this name already exists")
			return
		}
		h.respondCatalogError(w, err, "failed to create department")
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, created)
}

// UpdateDepartment updates an existing department
func (h *CatalogHandler) UpdateDepartment(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "departmentID"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid department ID")
		return
	}

	department, ok := h.decodeDepartment(w, r)
	if !ok {
		return
	}
	department.ID = id

	updated, err := h.catalogService.UpdateDepartment(r.Context(), department)
	if err != nil {
		h.respondCatalogError(w, err, "failed to update department")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, updated)
}

// DeleteDepartment removes a department
func (h *CatalogHandler) DeleteDepartment(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "departmentID"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid department ID")
		return
	}

	if err := h.catalogService.DeleteDepartment(r.Context(), id); err != nil {
		h.respondCatalogError(w, err, "failed to delete department")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "department deleted"})
}

// ListLocations returns all locations
func (h *CatalogHandler) ListLocations(w http.ResponseWriter, r *http.Request) {
	locations, err := h.catalogService.ListLocations(r.Context())
	if err != nil {
		h.logger.Error("Failed to list locations", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list locations")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, locations)
}

// GetLocation returns a single location
func (h *CatalogHandler) GetLocation(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "locationID"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid location ID")
		return
	}

	location, err := h.catalogService.GetLocation(r.Context(), id)
	if err != nil {
		h.respondCatalogError(w, err, "failed to get location")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, location)
}

// CreateLocation creates a new location
func (h *CatalogHandler) CreateLocation(w http.ResponseWriter, r *http.Request) {
	location, ok := h.decodeLocation(w, r)
	if !ok {
		return
	}

	created, err := h.catalogService.CreateLocation(r.Context(), location)
	if err != nil {
		h.respondCatalogError(w, err, "failed to create location")
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, created)
}

// UpdateLocation updates an existing location
func (h *CatalogHandler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "locationID"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid location ID")
		return
	}

	location, ok := h.decodeLocation(w, r)
	if !ok {
		return
	}
	location.ID = id

	updated, err := h.catalogService.UpdateLocation(r.Context(), location)
	if err != nil {
		h.respondCatalogError(w, err, "failed to update location")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, updated)
}

// DeleteLocation removes a location
func (h *CatalogHandler) DeleteLocation(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "locationID"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid location ID")
		return
	}

	if err := h.catalogService.DeleteLocation(r.Context(), id); err != nil {
		h.respondCatalogError(w, err, "failed to delete location")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "location deleted"})
}

func (h *CatalogHandler) decodeProduct(w http.ResponseWriter, r *http.Request) (*domain.Product, bool) {
	var req ProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Product validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return nil, false
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return nil, false
	}

	price, err := decimal.NewFromString(req.Price)
	if err != nil || price.IsNegative() {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid price")
		return nil, false
	}

	departmentID, err := uuid.Parse(req.DepartmentID)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid department ID")
		return nil, false
	}
	locationID, err := uuid.Parse(req.LocationID)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid location ID")
		return nil, false
	}

	isAvailable := true
	if req.IsAvailable != nil {
		isAvailable = *req.IsAvailable
	}

	return &domain.Product{
		Name:         req.Name,
		Description:  req.Description,
		Price:        price.Round(2),
		Barcode:      req.Barcode,
		ImageURL:     req.ImageURL,
		DepartmentID: departmentID,
		LocationID:   locationID,
		IsAvailable:  isAvailable,
		OnHand:       req.OnHand,
	}, true
}

func (h *CatalogHandler) decodeDepartment(w http.ResponseWriter, r *http.Request) (*domain.Department, bool) {
	var req DepartmentRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return nil, false
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return nil, false
	}

	isTaxable := true
	if req.IsTaxable != nil {
		isTaxable = *req.IsTaxable
	}

	return &domain.Department{
		Name:        req.Name,
		Description: req.Description,
		IsTaxable:   isTaxable,
	}, true
}

func (h *CatalogHandler) decodeLocation(w http.ResponseWriter, r *http.Request) (*domain.Location, bool) {
	var req LocationRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return nil, false
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return nil, false
	}

	return &domain.Location{
		Name:        req.Name,
		Description: req.Description,
	}, true
}

// respondCatalogError maps catalog errors to HTTP status codes
func (h *CatalogHandler) respondCatalogError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, repository.ErrProductNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "product not found")
	case errors.Is(err, repository.ErrDepartmentNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "department not found")
	case errors.Is(err, repository.ErrLocationNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "location not found")
	default:
		h.logger.Error("Catalog operation failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, fallback)
	}
}
