package service

import (
	"context"
	"fmt"
	"time"

	"shopcart/internal/domain"
	"shopcart/internal/repository"

	"github.com/google/uuid"
)

// CatalogService defines the interface for catalog business logic: simple
// CRUD over products, departments and locations. Writes are admin-gated at
// the transport layer.
type CatalogService interface {
	CreateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error)
	UpdateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	ListProducts(ctx context.Context, filter repository.ProductFilter, page, pageSize int, sortBy string, sortOrder repository.SortOrder) ([]*domain.Product, int, error)

	// RestockProduct adds (or with a negative delta removes) stock through the
	// inventory ledger, subject to the non-negative on-hand guard.
	RestockProduct(ctx context.Context, id uuid.UUID, delta int) (*domain.Product, error)

	CreateDepartment(ctx context.Context, department *domain.Department) (*domain.Department, error)
	UpdateDepartment(ctx context.Context, department *domain.Department) (*domain.Department, error)
	DeleteDepartment(ctx context.Context, id uuid.UUID) error
	GetDepartment(ctx context.Context, id uuid.UUID) (*domain.Department, error)
	ListDepartments(ctx context.Context) ([]*domain.Department, error)

	CreateLocation(ctx context.Context, location *domain.Location) (*domain.Location, error)
	UpdateLocation(ctx context.Context, location *domain.Location) (*domain.Location, error)
	DeleteLocation(ctx context.Context, id uuid.UUID) error
	GetLocation(ctx context.Context, id uuid.UUID) (*domain.Location, error)
	ListLocations(ctx context.Context) ([]*domain.Location, error)
}

type catalogService struct {
	productRepo    repository.ProductRepository
	departmentRepo repository.DepartmentRepository
	locationRepo   repository.LocationRepository
}

// NewCatalogService creates a new instance of CatalogService
func NewCatalogService(
	productRepo repository.ProductRepository,
	departmentRepo repository.DepartmentRepository,
	locationRepo repository.LocationRepository,
) CatalogService {
	return &catalogService{
		productRepo:    productRepo,
		departmentRepo: departmentRepo,
		locationRepo:   locationRepo,
	}
}

// CreateProduct validates the department and location refs and inserts the product
func (s *catalogService) CreateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	if _, err := s.departmentRepo.FindByID(ctx, product.DepartmentID); err != nil {
		return nil, err
	}
	if _, err := s.locationRepo.FindByID(ctx, product.LocationID); err != nil {
		return nil, err
	}

	now := time.Now()
	product.ID = uuid.New()
	product.CreatedAt = now
	product.UpdatedAt = now

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	return s.productRepo.FindByID(ctx, product.ID)
}

// UpdateProduct updates catalog attributes; on_hand only moves via RestockProduct
func (s *catalogService) UpdateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	if _, err := s.departmentRepo.FindByID(ctx, product.DepartmentID); err != nil {
		return nil, err
	}
	if _, err := s.locationRepo.FindByID(ctx, product.LocationID); err != nil {
		return nil, err
	}

	product.UpdatedAt = time.Now()
	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, err
	}

	return s.productRepo.FindByID(ctx, product.ID)
}

// DeleteProduct removes a product from the catalog
func (s *catalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	return s.productRepo.Delete(ctx, id)
}

// GetProduct retrieves a product with its department attached
func (s *catalogService) GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return s.productRepo.FindByID(ctx, id)
}

// ListProducts retrieves products with filtering, pagination, and sorting
func (s *catalogService) ListProducts(ctx context.Context, filter repository.ProductFilter, page, pageSize int, sortBy string, sortOrder repository.SortOrder) ([]*domain.Product, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return s.productRepo.List(ctx, filter, page, pageSize, sortBy, sortOrder)
}

// RestockProduct moves stock through the inventory ledger
func (s *catalogService) RestockProduct(ctx context.Context, id uuid.UUID, delta int) (*domain.Product, error) {
	if err := s.productRepo.AdjustOnHand(ctx, id, delta); err != nil {
		return nil, err
	}
	return s.productRepo.FindByID(ctx, id)
}

// CreateDepartment inserts a new department
func (s *catalogService) CreateDepartment(ctx context.Context, department *domain.Department) (*domain.Department, error) {
	now := time.Now()
	department.ID = uuid.New()
	department.CreatedAt = now
	department.UpdatedAt = now

	if err := s.departmentRepo.Create(ctx, department); err != nil {
		return nil, err
	}
	return department, nil
}

// UpdateDepartment updates an existing department
func (s *catalogService) UpdateDepartment(ctx context.Context, department *domain.Department) (*domain.Department, error) {
	department.UpdatedAt = time.Now()
	if err := s.departmentRepo.Update(ctx, department); err != nil {
		return nil, err
	}
	return s.departmentRepo.FindByID(ctx, department.ID)
}

// DeleteDepartment removes a department
func (s *catalogService) DeleteDepartment(ctx context.Context, id uuid.UUID) error {
	return s.departmentRepo.Delete(ctx, id)
}

// GetDepartment retrieves a department by ID
func (s *catalogService) GetDepartment(ctx context.Context, id uuid.UUID) (*domain.Department, error) {
	return s.departmentRepo.FindByID(ctx, id)
}

// ListDepartments retrieves all departments
func (s *catalogService) ListDepartments(ctx context.Context) ([]*domain.Department, error) {
	return s.departmentRepo.List(ctx)
}

// CreateLocation inserts a new location
func (s *catalogService) CreateLocation(ctx context.Context, location *domain.Location) (*domain.Location, error) {
	now := time.Now()
	location.ID = uuid.New()
	location.CreatedAt = now
	location.UpdatedAt = now

	if err := s.locationRepo.Create(ctx, location); err != nil {
		return nil, err
	}
	return location, nil
}

// UpdateLocation updates an existing location
func (s *catalogService) UpdateLocation(ctx context.Context, location *domain.Location) (*domain.Location, error) {
	location.UpdatedAt = time.Now()
	if err := s.locationRepo.Update(ctx, location); err != nil {
		return nil, err
	}
	return s.locationRepo.FindByID(ctx, location.ID)
}

// DeleteLocation removes a location
func (s *catalogService) DeleteLocation(ctx context.Context, id uuid.UUID) error {
	return s.locationRepo.Delete(ctx, id)
}

// GetLocation retrieves a location by ID
func (s *catalogService) GetLocation(ctx context.Context, id uuid.UUID) (*domain.Location, error) {
	return s.locationRepo.FindByID(ctx, id)
}

// ListLocations retrieves all locations
func (s *catalogService) ListLocations(ctx context.Context) ([]*domain.Location, error) {
	return s.locationRepo.List(ctx)
}
