package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"shopcart/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrCartNotFound     = errors.New("cart not found")
	ErrCartItemNotFound = errors.New("cart item not found")
)

// CartRepository defines the interface for cart data access. Every mutation
// that changes a line item quantity adjusts the product's on_hand counter in
// the same database transaction, so the reserved quantity and the stock delta
// can never diverge.
type CartRepository interface {
	// GetOrCreate returns the user's cart, creating an empty one if absent.
	// Idempotent; the unique constraint on user_id guarantees one cart per user.
	GetOrCreate(ctx context.Context, userID uuid.UUID) (*domain.Cart, error)
	FindByUser(ctx context.Context, userID uuid.UUID) (*domain.Cart, error)
	FindItemByID(ctx context.Context, itemID uuid.UUID) (*domain.CartItem, error)

	// ListItems returns the cart's line items with product and department
	// snapshots attached, ready for pricing.
	ListItems(ctx context.Context, cartID uuid.UUID) ([]*domain.CartItem, error)

	// AddItem reserves quantity against the product's stock and upserts the
	// (cart, product) line item, increasing its quantity if it already exists.
	// One transaction: on ErrInsufficientInventory nothing changes.
	AddItem(ctx context.Context, cartID, productID uuid.UUID, quantity int) error

	// UpdateItemQuantity reserves or releases the signed difference between the
	// stored quantity and newQuantity, then persists newQuantity. One transaction.
	UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, newQuantity int) error

	// RemoveItem returns the item's full quantity to stock and deletes the row.
	// One transaction.
	RemoveItem(ctx context.Context, itemID uuid.UUID) error
}

type cartRepository struct {
	db *sql.DB
}

// NewCartRepository creates a new instance of CartRepository
func NewCartRepository(db *sql.DB) CartRepository {
	return &cartRepository{db: db}
}

// GetOrCreate returns the user's cart, lazily creating it on first access
func (r *cartRepository) GetOrCreate(ctx context.Context, userID uuid.UUID) (*domain.Cart, error) {
	now := time.Now()

	// ON CONFLICT DO NOTHING makes concurrent first-access calls converge on
	// the same row instead of failing on the unique user_id constraint.
	insert := `
		INSERT INTO carts (id, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, insert, uuid.New(), userID, now, now); err != nil {
		return nil, fmt.Errorf("failed to create cart: %w", err)
	}

	cart, err := r.FindByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart after create: %w", err)
	}
	return cart, nil
}

// FindByUser retrieves the user's cart without creating one
func (r *cartRepository) FindByUser(ctx context.Context, userID uuid.UUID) (*domain.Cart, error) {
	query := `
		SELECT id, user_id, created_at, updated_at
		FROM carts
		WHERE user_id = $1
	`

	cart := &domain.Cart{}
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&cart.ID,
		&cart.UserID,
		&cart.CreatedAt,
		&cart.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to find cart by user: %w", err)
	}

	return cart, nil
}

// FindItemByID retrieves a single cart item
func (r *cartRepository) FindItemByID(ctx context.Context, itemID uuid.UUID) (*domain.CartItem, error) {
	query := `
		SELECT id, cart_id, product_id, quantity, created_at, updated_at
		FROM cart_items
		WHERE id = $1
	`

	item := &domain.CartItem{}
	err := r.db.QueryRowContext(ctx, query, itemID).Scan(
		&item.ID,
		&item.CartID,
		&item.ProductID,
		&item.Quantity,
		&item.CreatedAt,
		&item.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrCartItemNotFound
		}
		return nil, fmt.Errorf("failed to find cart item by ID: %w", err)
	}

	return item, nil
}

// ListItems retrieves the cart's line items joined with their product and
// department, the full snapshot the pricing engine needs
func (r *cartRepository) ListItems(ctx context.Context, cartID uuid.UUID) ([]*domain.CartItem, error) {
	query := `
		SELECT ci.id, ci.cart_id, ci.product_id, ci.quantity, ci.created_at, ci.updated_at,
		       p.id, p.name, p.description, p.price, p.barcode, p.image_url,
		       p.department_id, p.location_id, p.is_available, p.on_hand,
		       p.created_at, p.updated_at,
		       d.id, d.name, d.description, d.is_taxable, d.created_at, d.updated_at
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		JOIN departments d ON d.id = p.department_id
		WHERE ci.cart_id = $1
		ORDER BY ci.created_at
	`

	rows, err := r.db.QueryContext(ctx, query, cartID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cart items: %w", err)
	}
	defer rows.Close()

	items := []*domain.CartItem{}
	for rows.Next() {
		item := &domain.CartItem{Product: &domain.Product{Department: &domain.Department{}}}
		err := rows.Scan(
			&item.ID,
			&item.CartID,
			&item.ProductID,
			&item.Quantity,
			&item.CreatedAt,
			&item.UpdatedAt,
			&item.Product.ID,
			&item.Product.Name,
			&item.Product.Description,
			&item.Product.Price,
			&item.Product.Barcode,
			&item.Product.ImageURL,
			&item.Product.DepartmentID,
			&item.Product.LocationID,
			&item.Product.IsAvailable,
			&item.Product.OnHand,
			&item.Product.CreatedAt,
			&item.Product.UpdatedAt,
			&item.Product.Department.ID,
			&item.Product.Department.Name,
			&item.Product.Department.Description,
			&item.Product.Department.IsTaxable,
			&item.Product.Department.CreatedAt,
			&item.Product.Department.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		items = append(items, item)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cart items: %w", err)
	}

	return items, nil
}

// AddItem reserves stock for the quantity increase and upserts the line item
func (r *cartRepository) AddItem(ctx context.Context, cartID, productID uuid.UUID, quantity int) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		// Reserve the increase (not the resulting total) against on_hand.
		if err := adjustOnHand(ctx, tx, productID, -quantity); err != nil {
			return err
		}

		now := time.Now()
		upsert := `
			INSERT INTO cart_items (id, cart_id, product_id, quantity, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (cart_id, product_id)
			DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity, updated_at = EXCLUDED.updated_at
		`
		if _, err := tx.ExecContext(ctx, upsert, uuid.New(), cartID, productID, quantity, now, now); err != nil {
			return fmt.Errorf("failed to upsert cart item: %w", err)
		}

		return nil
	})
}

// UpdateItemQuantity moves the signed quantity delta through the ledger and
// persists the new quantity
func (r *cartRepository) UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, newQuantity int) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		var productID uuid.UUID
		var oldQuantity int

		// Lock the row so concurrent updates to the same item serialize.
		lock := `SELECT product_id, quantity FROM cart_items WHERE id = $1 FOR UPDATE`
		err := tx.QueryRowContext(ctx, lock, itemID).Scan(&productID, &oldQuantity)
		if err != nil {
			if err == sql.ErrNoRows {
				return ErrCartItemNotFound
			}
			return fmt.Errorf("failed to lock cart item: %w", err)
		}

		delta := newQuantity - oldQuantity
		if delta != 0 {
			if err := adjustOnHand(ctx, tx, productID, -delta); err != nil {
				return err
			}
		}

		update := `UPDATE cart_items SET quantity = $2, updated_at = NOW() WHERE id = $1`
		if _, err := tx.ExecContext(ctx, update, itemID, newQuantity); err != nil {
			return fmt.Errorf("failed to update cart item quantity: %w", err)
		}

		return nil
	})
}

// RemoveItem returns the held quantity to stock and deletes the line item
func (r *cartRepository) RemoveItem(ctx context.Context, itemID uuid.UUID) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		var productID uuid.UUID
		var quantity int

		lock := `SELECT product_id, quantity FROM cart_items WHERE id = $1 FOR UPDATE`
		err := tx.QueryRowContext(ctx, lock, itemID).Scan(&productID, &quantity)
		if err != nil {
			if err == sql.ErrNoRows {
				return ErrCartItemNotFound
			}
			return fmt.Errorf("failed to lock cart item: %w", err)
		}

		if err := adjustOnHand(ctx, tx, productID, quantity); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE id = $1`, itemID); err != nil {
			return fmt.Errorf("failed to delete cart item: %w", err)
		}

		return nil
	})
}

// inTx runs fn inside a transaction, rolling back on error or panic
func (r *cartRepository) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
