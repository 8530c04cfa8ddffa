package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"shopcart/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// seedUser inserts a user row so cart fixtures satisfy the foreign key
func seedUser(t *testing.T) uuid.UUID {
	t.Helper()

	id := uuid.New()
	now := time.Now()
	_, err := testDB.Exec(`
		INSERT INTO users (id, email, password_hash, role, created_at, updated_at)
		VALUES ($1, $2, 'hash', 'user', $3, $4)
	`, id, fmt.Sprintf("%s@example.com", id), now, now)
	if err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	return id
}

// seedCatalog inserts a location and a taxable department
func seedCatalog(t *testing.T) (departmentID, locationID uuid.UUID) {
	t.Helper()

	departmentID = uuid.New()
	locationID = uuid.New()
	now := time.Now()

	_, err := testDB.Exec(`
		INSERT INTO locations (id, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
	`, locationID, fmt.Sprintf("location-%s", locationID), now, now)
	if err != nil {
		t.Fatalf("failed to seed location: %v", err)
	}

	_, err = testDB.Exec(`
		INSERT INTO departments (id, name, is_taxable, created_at, updated_at)
		VALUES ($1, $2, TRUE, $3, $4)
	`, departmentID, fmt.Sprintf("department-%s", departmentID), now, now)
	if err != nil {
		t.Fatalf("failed to seed department: %v", err)
	}

	return departmentID, locationID
}

// seedProduct inserts a product with the given stock
func seedProduct(t *testing.T, price string, onHand int) *domain.Product {
	t.Helper()

	departmentID, locationID := seedCatalog(t)
	now := time.Now()
	product := &domain.Product{
		ID:           uuid.New(),
		Name:         "test product",
		Price:        decimal.RequireFromString(price),
		DepartmentID: departmentID,
		LocationID:   locationID,
		IsAvailable:  true,
		OnHand:       onHand,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := NewProductRepository(testDB).Create(context.Background(), product); err != nil {
		t.Fatalf("failed to seed product: %v", err)
	}
	return product
}

func currentOnHand(t *testing.T, productID uuid.UUID) int {
	t.Helper()

	var onHand int
	if err := testDB.QueryRow("SELECT on_hand FROM products WHERE id = $1", productID).Scan(&onHand); err != nil {
		t.Fatalf("failed to read on_hand: %v", err)
	}
	return onHand
}

func cartItemCount(t *testing.T, cartID uuid.UUID) int {
	t.Helper()

	var count int
	if err := testDB.QueryRow("SELECT COUNT(*) FROM cart_items WHERE cart_id = $1", cartID).Scan(&count); err != nil {
		t.Fatalf("failed to count cart items: %v", err)
	}
	return count
}

func TestAdjustOnHand_GuardsAgainstNegativeStock(t *testing.T) {
	repo := NewProductRepository(testDB)
	ctx := context.Background()

	product := seedProduct(t, "9.99", 5)

	if err := repo.AdjustOnHand(ctx, product.ID, -3); err != nil {
		t.Fatalf("AdjustOnHand failed: %v", err)
	}
	if got := currentOnHand(t, product.ID); got != 2 {
		t.Errorf("Expected on_hand 2, got %d", got)
	}

	// Would go to -1: rejected, nothing applied
	if err := repo.AdjustOnHand(ctx, product.ID, -3); !errors.Is(err, ErrInsufficientInventory) {
		t.Errorf("Expected ErrInsufficientInventory, got %v", err)
	}
	if got := currentOnHand(t, product.ID); got != 2 {
		t.Errorf("Expected on_hand unchanged at 2, got %d", got)
	}

	// Unknown product is reported as missing, not as out of stock
	if err := repo.AdjustOnHand(ctx, uuid.New(), -1); !errors.Is(err, ErrProductNotFound) {
		t.Errorf("Expected ErrProductNotFound, got %v", err)
	}
}

func TestCartRepository_GetOrCreateIsIdempotent(t *testing.T) {
	repo := NewCartRepository(testDB)
	ctx := context.Background()

	userID := seedUser(t)

	first, err := repo.GetOrCreate(ctx, userID)
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	second, err := repo.GetOrCreate(ctx, userID)
	if err != nil {
		t.Fatalf("Second GetOrCreate failed: %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("Expected one cart per user, got %s and %s", first.ID, second.ID)
	}
}

func TestCartRepository_AddItemReservesAndMerges(t *testing.T) {
	cartRepo := NewCartRepository(testDB)
	ctx := context.Background()

	userID := seedUser(t)
	product := seedProduct(t, "9.99", 10)

	cart, err := cartRepo.GetOrCreate(ctx, userID)
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}

	if err := cartRepo.AddItem(ctx, cart.ID, product.ID, 2); err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}
	if err := cartRepo.AddItem(ctx, cart.ID, product.ID, 3); err != nil {
		t.Fatalf("Second AddItem failed: %v", err)
	}

	items, err := cartRepo.ListItems(ctx, cart.ID)
	if err != nil {
		t.Fatalf("ListItems failed: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("Expected a single merged line item, got %d", len(items))
	}
	if items[0].Quantity != 5 {
		t.Errorf("Expected merged quantity 5, got %d", items[0].Quantity)
	}
	if items[0].Product == nil || items[0].Product.Department == nil {
		t.Fatal("Expected product and department attached to the line item")
	}
	if got := currentOnHand(t, product.ID); got != 5 {
		t.Errorf("Expected on_hand 5 after reserving 5 of 10, got %d", got)
	}
}

func TestCartRepository_AddItemInsufficientStockChangesNothing(t *testing.T) {
	cartRepo := NewCartRepository(testDB)
	ctx := context.Background()

	userID := seedUser(t)
	product := seedProduct(t, "9.99", 2)

	cart, err := cartRepo.GetOrCreate(ctx, userID)
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}

	if err := cartRepo.AddItem(ctx, cart.ID, product.ID, 5); !errors.Is(err, ErrInsufficientInventory) {
		t.Fatalf("Expected ErrInsufficientInventory, got %v", err)
	}

	if got := currentOnHand(t, product.ID); got != 2 {
		t.Errorf("Expected on_hand unchanged at 2, got %d", got)
	}
	if count := cartItemCount(t, cart.ID); count != 0 {
		t.Errorf("Expected no cart items after rollback, got %d", count)
	}
}

func TestCartRepository_UpdateItemQuantityMovesDifference(t *testing.T) {
	cartRepo := NewCartRepository(testDB)
	ctx := context.Background()

	userID := seedUser(t)
	product := seedProduct(t, "9.99", 10)

	cart, err := cartRepo.GetOrCreate(ctx, userID)
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	if err := cartRepo.AddItem(ctx, cart.ID, product.ID, 3); err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}
	items, err := cartRepo.ListItems(ctx, cart.ID)
	if err != nil {
		t.Fatalf("ListItems failed: %v", err)
	}
	itemID := items[0].ID

	// 3 -> 8: five more reserved
	if err := cartRepo.UpdateItemQuantity(ctx, itemID, 8); err != nil {
		t.Fatalf("UpdateItemQuantity failed: %v", err)
	}
	if got := currentOnHand(t, product.ID); got != 2 {
		t.Errorf("Expected on_hand 2 after increase, got %d", got)
	}

	// 8 -> 1: seven released
	if err := cartRepo.UpdateItemQuantity(ctx, itemID, 1); err != nil {
		t.Fatalf("UpdateItemQuantity failed: %v", err)
	}
	if got := currentOnHand(t, product.ID); got != 9 {
		t.Errorf("Expected on_hand 9 after decrease, got %d", got)
	}

	// 1 -> 12 needs 11 more, only 9 remain: rejected atomically
	if err := cartRepo.UpdateItemQuantity(ctx, itemID, 12); !errors.Is(err, ErrInsufficientInventory) {
		t.Fatalf("Expected ErrInsufficientInventory, got %v", err)
	}
	if got := currentOnHand(t, product.ID); got != 9 {
		t.Errorf("Expected on_hand unchanged at 9, got %d", got)
	}
	item, err := cartRepo.FindItemByID(ctx, itemID)
	if err != nil {
		t.Fatalf("FindItemByID failed: %v", err)
	}
	if item.Quantity != 1 {
		t.Errorf("Expected quantity unchanged at 1, got %d", item.Quantity)
	}
}

func TestCartRepository_RemoveItemRestoresStock(t *testing.T) {
	cartRepo := NewCartRepository(testDB)
	ctx := context.Background()

	userID := seedUser(t)
	product := seedProduct(t, "9.99", 10)

	cart, err := cartRepo.GetOrCreate(ctx, userID)
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	if err := cartRepo.AddItem(ctx, cart.ID, product.ID, 4); err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}
	items, err := cartRepo.ListItems(ctx, cart.ID)
	if err != nil {
		t.Fatalf("ListItems failed: %v", err)
	}

	if err := cartRepo.RemoveItem(ctx, items[0].ID); err != nil {
		t.Fatalf("RemoveItem failed: %v", err)
	}

	if got := currentOnHand(t, product.ID); got != 10 {
		t.Errorf("Expected full stock restored to 10, got %d", got)
	}
	if count := cartItemCount(t, cart.ID); count != 0 {
		t.Errorf("Expected empty cart, got %d items", count)
	}

	if err := cartRepo.RemoveItem(ctx, items[0].ID); !errors.Is(err, ErrCartItemNotFound) {
		t.Errorf("Expected ErrCartItemNotFound on double remove, got %v", err)
	}
}

func TestCartRepository_ConcurrentAddsNeverOversell(t *testing.T) {
	cartRepo := NewCartRepository(testDB)
	ctx := context.Background()

	const stock = 5
	const shoppers = 10

	product := seedProduct(t, "9.99", stock)

	carts := make([]uuid.UUID, shoppers)
	for i := range carts {
		cart, err := cartRepo.GetOrCreate(ctx, seedUser(t))
		if err != nil {
			t.Fatalf("GetOrCreate failed: %v", err)
		}
		carts[i] = cart.ID
	}

	var wg sync.WaitGroup
	results := make(chan error, shoppers)
	for i := 0; i < shoppers; i++ {
		wg.Add(1)
		go func(cartID uuid.UUID) {
			defer wg.Done()
			results <- cartRepo.AddItem(ctx, cartID, product.ID, 1)
		}(carts[i])
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrInsufficientInventory):
		default:
			t.Errorf("Unexpected error: %v", err)
		}
	}

	if succeeded != stock {
		t.Errorf("Expected exactly %d successful adds, got %d", stock, succeeded)
	}
	if got := currentOnHand(t, product.ID); got != 0 {
		t.Errorf("Expected on_hand 0, got %d", got)
	}
}
