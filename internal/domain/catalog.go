package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Location represents a physical stock location
type Location struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Department groups products and decides whether they are taxable
type Department struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	IsTaxable   bool      `json:"is_taxable" db:"is_taxable"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Product represents a product in the catalog.
// Price is a fixed-point decimal with 2 fractional digits; OnHand is the
// available stock count and never goes below zero.
type Product struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	Name         string          `json:"name" db:"name"`
	Description  string          `json:"description" db:"description"`
	Price        decimal.Decimal `json:"price" db:"price"`
	Barcode      string          `json:"barcode" db:"barcode"`
	ImageURL     string          `json:"image_url" db:"image_url"`
	DepartmentID uuid.UUID       `json:"department_id" db:"department_id"`
	LocationID   uuid.UUID       `json:"location_id" db:"location_id"`
	IsAvailable  bool            `json:"is_available" db:"is_available"`
	OnHand       int             `json:"on_hand" db:"on_hand"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at" db:"updated_at"`

	// Department is populated on joined reads where taxability matters
	Department *Department `json:"department,omitempty" db:"-"`
}
