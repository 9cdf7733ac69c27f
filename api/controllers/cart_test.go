package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mayagift/giftbloom-backend/api/middleware"
	cartsvc "github.com/mayagift/giftbloom-backend/internal/cart"
	pkgerrors "github.com/mayagift/giftbloom-backend/pkg/errors"
)

type stubCartService struct {
	cart *cartsvc.CartDTO
	err  error

	addInput *cartsvc.AddItemInput
}

func (s *stubCartService) GetCart(ctx context.Context, userID uuid.UUID) (*cartsvc.CartDTO, error) {
	return s.cart, s.err
}

func (s *stubCartService) AddItem(ctx context.Context, userID uuid.UUID, input cartsvc.AddItemInput) (*cartsvc.CartDTO, error) {
	s.addInput = &input
	return s.cart, s.err
}

func (s *stubCartService) UpdateItem(ctx context.Context, userID, itemID uuid.UUID, input cartsvc.UpdateItemInput) (*cartsvc.CartDTO, error) {
	return s.cart, s.err
}

func (s *stubCartService) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*cartsvc.CartDTO, error) {
	return s.cart, s.err
}

func (s *stubCartService) ClearCart(ctx context.Context, userID uuid.UUID) (*cartsvc.CartDTO, error) {
	return s.cart, s.err
}

func authedRequest(method, target string, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	return req.WithContext(middleware.WithUserID(req.Context(), uuid.NewString()))
}

func TestGetCartSuccess(t *testing.T) {
	cart := &cartsvc.CartDTO{ID: uuid.New(), Subtotal: decimal.NewFromInt(1500)}
	handler := GetCart(&stubCartService{cart: cart}, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodGet, "/api/v1/cart", ""))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var envelope struct {
		Data cartsvc.CartDTO `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.ID != cart.ID {
		t.Fatalf("unexpected cart id: %s", envelope.Data.ID)
	}
}

func TestGetCartMissingUserContext(t *testing.T) {
	handler := GetCart(&stubCartService{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAddCartItemDecodesPayload(t *testing.T) {
	giftID := uuid.New()
	svc := &stubCartService{cart: &cartsvc.CartDTO{ID: uuid.New()}}
	handler := AddCartItem(svc, nil)

	body := `{"gift_id":"` + giftID.String() + `","quantity":2,"message":"happy birthday","delivery_date":"2026-09-15"}`
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodPost, "/api/v1/cart/items", body))

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Code)
	}
	if svc.addInput == nil {
		t.Fatal("expected AddItem to be called")
	}
	if svc.addInput.GiftID != giftID || svc.addInput.Quantity != 2 {
		t.Fatalf("unexpected input: %+v", svc.addInput)
	}
	if svc.addInput.Message == nil || *svc.addInput.Message != "happy birthday" {
		t.Fatal("expected message to pass through")
	}
	if svc.addInput.DeliveryDate == nil || svc.addInput.DeliveryDate.Format("2006-01-02") != "2026-09-15" {
		t.Fatal("expected delivery date to parse")
	}
}

func TestAddCartItemRejectsBadDate(t *testing.T) {
	handler := AddCartItem(&stubCartService{}, nil)
	body := `{"gift_id":"` + uuid.NewString() + `","quantity":1,"delivery_date":"next tuesday"}`
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodPost, "/api/v1/cart/items", body))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestAddCartItemNotFoundGift(t *testing.T) {
	svc := &stubCartService{err: pkgerrors.New(pkgerrors.CodeNotFound, "gift not found")}
	handler := AddCartItem(svc, nil)
	body := `{"gift_id":"` + uuid.NewString() + `","quantity":1}`
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodPost, "/api/v1/cart/items", body))

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}
