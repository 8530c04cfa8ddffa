package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"shopcart/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrDepartmentNotFound      = errors.New("department not found")
	ErrDepartmentAlreadyExists = errors.New("department with this name already exists")
)

// DepartmentRepository defines the interface for department data access
type DepartmentRepository interface {
	Create(ctx context.Context, department *domain.Department) error
	Update(ctx context.Context, department *domain.Department) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]*domain.Department, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Department, error)
}

type departmentRepository struct {
	db *sql.DB
}

// NewDepartmentRepository creates a new instance of DepartmentRepository
func NewDepartmentRepository(db *sql.DB) DepartmentRepository {
	return &departmentRepository{db: db}
}

// Create inserts a new department into the database using parameterized queries
func (r *departmentRepository) Create(ctx context.Context, department *domain.Department) error {
	query := `
		INSERT INTO departments (id, name, description, is_taxable, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		department.ID,
		department.Name,
		department.Description,
		department.IsTaxable,
		department.CreatedAt,
		department.UpdatedAt,
	)

	if err != nil {
		// Check for unique constraint violation (duplicate name)
		if strings.Contains(err.Error(), "departments_name_key") {
			return ErrDepartmentAlreadyExists
		}
		return fmt.Errorf("failed to create department: %w", err)
	}

	return nil
}

// Update updates an existing department
func (r *departmentRepository) Update(ctx context.Context, department *domain.Department) error {
	query := `
		UPDATE departments
		SET name = $2, description = $3, is_taxable = $4, updated_at = $5
		WHERE id = $1
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		department.ID,
		department.Name,
		department.Description,
		department.IsTaxable,
		department.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to update department: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrDepartmentNotFound
	}

	return nil
}

// Delete removes a department
func (r *departmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM departments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete department: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrDepartmentNotFound
	}

	return nil
}

// List retrieves all departments ordered by name
func (r *departmentRepository) List(ctx context.Context) ([]*domain.Department, error) {
	query := `
		SELECT id, name, description, is_taxable, created_at, updated_at
		FROM departments
		ORDER BY name
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list departments: %w", err)
	}
	defer rows.Close()

	departments := []*domain.Department{}
	for rows.Next() {
		department := &domain.Department{}
		err := rows.Scan(
			&department.ID,
			&department.Name,
			&department.Description,
			&department.IsTaxable,
			&department.CreatedAt,
			&department.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan department: %w", err)
		}
		departments = append(departments, department)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating departments: %w", err)
	}

	return departments, nil
}

// FindByID retrieves a department by ID
func (r *departmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Department, error) {
	query := `
		SELECT id, name, description, is_taxable, created_at, updated_at
		FROM departments
		WHERE id = $1
	`

	department := &domain.Department{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&department.ID,
		&department.Name,
		&department.Description,
		&department.IsTaxable,
		&department.CreatedAt,
		&department.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrDepartmentNotFound
		}
		return nil, fmt.Errorf("failed to find department by ID: %w", err)
	}

	return department, nil
}
