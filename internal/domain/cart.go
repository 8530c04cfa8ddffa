package domain

import (
	"time"

	"github.com/google/uuid"
)

// Cart is a user's active shopping cart. Exactly one exists per user,
// created lazily on first access; checkout empties it but never deletes it.
type Cart struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// CartItem is a line item in a cart. At most one live item exists per
// (cart, product) pair; quantity is always positive. The quantity held by a
// cart item has already been reserved against the product's on-hand stock.
type CartItem struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CartID    uuid.UUID `json:"cart_id" db:"cart_id"`
	ProductID uuid.UUID `json:"product_id" db:"product_id"`
	Quantity  int       `json:"quantity" db:"quantity"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	// Product is populated on joined reads, with its department attached
	Product *Product `json:"product,omitempty" db:"-"`
}
