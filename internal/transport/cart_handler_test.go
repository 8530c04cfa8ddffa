package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"shopcart/internal/middleware"
	"shopcart/internal/repository"
	"shopcart/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// stubCartService returns canned results so handler tests can focus on
// status code mapping
type stubCartService struct {
	view *service.CartView
	err  error
}

func (s *stubCartService) GetCart(ctx context.Context, userID uuid.UUID) (*service.CartView, error) {
	return s.view, s.err
}

func (s *stubCartService) AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*service.CartView, error) {
	return s.view, s.err
}

func (s *stubCartService) UpdateItemQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*service.CartView, error) {
	return s.view, s.err
}

func (s *stubCartService) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*service.CartView, error) {
	return s.view, s.err
}

func authenticatedRequest(method, target string, body []byte) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	ctx := context.WithValue(req.Context(), middleware.UserIDKey, uuid.New().String())
	return req.WithContext(ctx)
}

func newCartRouter(svc service.CartService) chi.Router {
	router := chi.NewRouter()
	handler := NewCartHandler(svc, zap.NewNop())
	passthrough := func(next http.Handler) http.Handler { return next }
	handler.RegisterRoutes(router, passthrough)
	return router
}

func TestCartHandler_ErrorMapping(t *testing.T) {
	addBody, _ := json.Marshal(AddItemRequest{ProductID: uuid.New().String(), Quantity: 2})

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"insufficient inventory maps to conflict", repository.ErrInsufficientInventory, http.StatusConflict},
		{"unavailable product maps to conflict", service.ErrProductUnavailable, http.StatusConflict},
		{"invalid quantity maps to bad request", service.ErrInvalidQuantity, http.StatusBadRequest},
		{"missing product maps to not found", repository.ErrProductNotFound, http.StatusNotFound},
		{"missing cart item maps to not found", repository.ErrCartItemNotFound, http.StatusNotFound},
		{"unexpected error maps to internal error", fmt.Errorf("connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newCartRouter(&stubCartService{err: tt.err})

			req := authenticatedRequest(http.MethodPost, "/api/cart/items", addBody)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, w.Code)
			}

			var response map[string]interface{}
			if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
				t.Fatalf("Could not decode error response: %v", err)
			}
			if _, exists := response["error"]; !exists {
				t.Error("Response missing 'error' field")
			}
		})
	}
}

func TestCartHandler_AddItemValidation(t *testing.T) {
	router := newCartRouter(&stubCartService{view: &service.CartView{}})

	tests := []struct {
		name string
		body string
	}{
		{"missing product ID", `{"quantity": 2}`},
		{"malformed product ID", `{"product_id": "not-a-uuid", "quantity": 2}`},
		{"zero quantity", fmt.Sprintf(`{"product_id": %q, "quantity": 0}`, uuid.New())},
		{"negative quantity", fmt.Sprintf(`{"product_id": %q, "quantity": -3}`, uuid.New())},
		{"not json", `quantity=2`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := authenticatedRequest(http.MethodPost, "/api/cart/items", []byte(tt.body))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("Expected 400 for %s, got %d", tt.name, w.Code)
			}
		})
	}
}

func TestCartHandler_RequiresAuthenticatedContext(t *testing.T) {
	router := newCartRouter(&stubCartService{view: &service.CartView{}})

	// No user ID in context
	req := httptest.NewRequest(http.MethodGet, "/api/cart/", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without user context, got %d", w.Code)
	}
}

func TestCartHandler_GetCartReturnsView(t *testing.T) {
	view := &service.CartView{ID: uuid.New(), UserID: uuid.New(), Items: []*service.CartLine{}}
	router := newCartRouter(&stubCartService{view: view})

	req := authenticatedRequest(http.MethodGet, "/api/cart/", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var got service.CartView
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("Could not decode cart view: %v", err)
	}
	if got.ID != view.ID {
		t.Errorf("Expected cart %s, got %s", view.ID, got.ID)
	}
}

func TestCartHandler_InvalidItemIDInPath(t *testing.T) {
	router := newCartRouter(&stubCartService{view: &service.CartView{}})

	body, _ := json.Marshal(UpdateItemRequest{Quantity: 2})
	req := authenticatedRequest(http.MethodPut, "/api/cart/items/not-a-uuid", body)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for malformed item ID, got %d", w.Code)
	}
}
