package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"shopcart/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrProductNotFound = errors.New("product not found")

	// ErrInsufficientInventory is returned when an inventory adjustment would
	// drive a product's on-hand count below zero. The adjustment is not applied.
	ErrInsufficientInventory = errors.New("insufficient inventory")
)

// SortOrder represents the sort direction
type SortOrder string

const (
	SortOrderAsc  SortOrder = "ASC"
	SortOrderDesc SortOrder = "DESC"
)

// ProductFilter narrows a product listing
type ProductFilter struct {
	DepartmentID *uuid.UUID
	LocationID   *uuid.UUID
	Available    *bool
	MinPrice     *decimal.Decimal
	MaxPrice     *decimal.Decimal
	Name         string // case-insensitive substring match on name/description
}

// ProductRepository defines the interface for product data access,
// including the inventory ledger over the on_hand column
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	List(ctx context.Context, filter ProductFilter, page, pageSize int, sortBy string, sortOrder SortOrder) ([]*domain.Product, int, error)

	// AdjustOnHand applies on_hand += delta atomically. It fails with
	// ErrInsufficientInventory when the result would be negative, leaving
	// on_hand unchanged. This is the sole gate preventing oversell.
	AdjustOnHand(ctx context.Context, productID uuid.UUID, delta int) error
}

type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a new instance of ProductRepository
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepository{db: db}
}

// Create inserts a new product into the database using parameterized queries
func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	query := `
		INSERT INTO products (id, name, description, price, barcode, image_url,
		                      department_id, location_id, is_available, on_hand,
		                      created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		product.ID,
		product.Name,
		product.Description,
		product.Price,
		product.Barcode,
		product.ImageURL,
		product.DepartmentID,
		product.LocationID,
		product.IsAvailable,
		product.OnHand,
		product.CreatedAt,
		product.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

// Update updates an existing product. It deliberately does not touch on_hand:
// stock only moves through AdjustOnHand so cart reservations stay consistent.
func (r *productRepository) Update(ctx context.Context, product *domain.Product) error {
	query := `
		UPDATE products
		SET name = $2, description = $3, price = $4, barcode = $5, image_url = $6,
		    department_id = $7, location_id = $8, is_available = $9, updated_at = $10
		WHERE id = $1
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		product.ID,
		product.Name,
		product.Description,
		product.Price,
		product.Barcode,
		product.ImageURL,
		product.DepartmentID,
		product.LocationID,
		product.IsAvailable,
		product.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}

// Delete removes a product from the database using parameterized queries
func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM products WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}

// FindByID retrieves a product by ID along with its department,
// so callers can evaluate taxability without a second query
func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	query := `
		SELECT p.id, p.name, p.description, p.price, p.barcode, p.image_url,
		       p.department_id, p.location_id, p.is_available, p.on_hand,
		       p.created_at, p.updated_at,
		       d.id, d.name, d.description, d.is_taxable, d.created_at, d.updated_at
		FROM products p
		JOIN departments d ON d.id = p.department_id
		WHERE p.id = $1
	`

	product := &domain.Product{Department: &domain.Department{}}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&product.ID,
		&product.Name,
		&product.Description,
		&product.Price,
		&product.Barcode,
		&product.ImageURL,
		&product.DepartmentID,
		&product.LocationID,
		&product.IsAvailable,
		&product.OnHand,
		&product.CreatedAt,
		&product.UpdatedAt,
		&product.Department.ID,
		&product.Department.Name,
		&product.Department.Description,
		&product.Department.IsTaxable,
		&product.Department.CreatedAt,
		&product.Department.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}

	return product, nil
}

// List retrieves products with optional filtering, pagination, and sorting
func (r *productRepository) List(ctx context.Context, filter ProductFilter, page, pageSize int, sortBy string, sortOrder SortOrder) ([]*domain.Product, int, error) {
	// Validate sort field to prevent SQL injection
	validSortFields := map[string]bool{
		"name":       true,
		"price":      true,
		"created_at": true,
		"on_hand":    true,
	}

	if !validSortFields[sortBy] {
		sortBy = "created_at" // Default sort field
	}

	// Validate sort order
	if sortOrder != SortOrderAsc && sortOrder != SortOrderDesc {
		sortOrder = SortOrderDesc // Default sort order
	}

	// Build the WHERE clause
	conditions := []string{}
	args := []interface{}{}
	argIndex := 1

	if filter.DepartmentID != nil {
		conditions = append(conditions, fmt.Sprintf("department_id = $%d", argIndex))
		args = append(args, *filter.DepartmentID)
		argIndex++
	}
	if filter.LocationID != nil {
		conditions = append(conditions, fmt.Sprintf("location_id = $%d", argIndex))
		args = append(args, *filter.LocationID)
		argIndex++
	}
	if filter.Available != nil {
		conditions = append(conditions, fmt.Sprintf("is_available = $%d", argIndex))
		args = append(args, *filter.Available)
		argIndex++
	}
	if filter.MinPrice != nil {
		conditions = append(conditions, fmt.Sprintf("price >= $%d", argIndex))
		args = append(args, *filter.MinPrice)
		argIndex++
	}
	if filter.MaxPrice != nil {
		conditions = append(conditions, fmt.Sprintf("price <= $%d", argIndex))
		args = append(args, *filter.MaxPrice)
		argIndex++
	}
	if strings.TrimSpace(filter.Name) != "" {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR description ILIKE $%d)", argIndex, argIndex))
		args = append(args, "%"+filter.Name+"%")
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	// Count total products
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM products %s", whereClause)
	var total int
	err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	// Calculate offset
	offset := (page - 1) * pageSize

	// Build the main query with sorting and pagination
	query := fmt.Sprintf(`
		SELECT id, name, description, price, barcode, image_url,
		       department_id, location_id, is_available, on_hand, created_at, updated_at
		FROM products
		%s
		ORDER BY %s %s
		LIMIT $%d OFFSET $%d
	`, whereClause, sortBy, sortOrder, argIndex, argIndex+1)

	args = append(args, pageSize, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := []*domain.Product{}
	for rows.Next() {
		product := &domain.Product{}
		err := rows.Scan(
			&product.ID,
			&product.Name,
			&product.Description,
			&product.Price,
			&product.Barcode,
			&product.ImageURL,
			&product.DepartmentID,
			&product.LocationID,
			&product.IsAvailable,
			&product.OnHand,
			&product.CreatedAt,
			&product.UpdatedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}

	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating products: %w", err)
	}

	return products, total, nil
}

// AdjustOnHand applies a signed stock delta through the shared guarded update
func (r *productRepository) AdjustOnHand(ctx context.Context, productID uuid.UUID, delta int) error {
	return adjustOnHand(ctx, r.db, productID, delta)
}

// execer is the subset of *sql.DB and *sql.Tx the inventory ledger needs,
// so the same guarded update runs standalone or inside a cart transaction
type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// adjustOnHand is the single write path for products.on_hand. The guard in the
// WHERE clause makes check-and-apply one statement, so the row lock taken by
// the UPDATE serializes concurrent reservations against the same product.
func adjustOnHand(ctx context.Context, q execer, productID uuid.UUID, delta int) error {
	query := `
		UPDATE products
		SET on_hand = on_hand + $2, updated_at = NOW()
		WHERE id = $1 AND on_hand + $2 >= 0
	`

	result, err := q.ExecContext(ctx, query, productID, delta)
	if err != nil {
		return fmt.Errorf("failed to adjust on-hand stock: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		// Zero rows means the product is missing or the guard rejected the
		// delta. Re-check existence to pick the right error.
		var exists bool
		if err := q.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, productID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check product existence: %w", err)
		}
		if !exists {
			return ErrProductNotFound
		}
		return ErrInsufficientInventory
	}

	return nil
}
