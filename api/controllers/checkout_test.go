package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	checkoutsvc "github.com/mayagift/giftbloom-backend/internal/checkout"
	ordersvc "github.com/mayagift/giftbloom-backend/internal/orders"
	pkgerrors "github.com/mayagift/giftbloom-backend/pkg/errors"
)

type stubCheckoutService struct {
	order *ordersvc.OrderDTO
	err   error

	placed *checkoutsvc.PlaceOrderInput
	direct *checkoutsvc.DirectOrderInput
}

func (s *stubCheckoutService) PlaceOrder(ctx context.Context, userID uuid.UUID, input checkoutsvc.PlaceOrderInput) (*ordersvc.OrderDTO, error) {
	s.placed = &input
	return s.order, s.err
}

func (s *stubCheckoutService) PlaceDirectOrder(ctx context.Context, userID uuid.UUID, input checkoutsvc.DirectOrderInput) (*ordersvc.OrderDTO, error) {
	s.direct = &input
	return s.order, s.err
}

func TestCheckoutSuccess(t *testing.T) {
	addressID := uuid.New()
	svc := &stubCheckoutService{order: &ordersvc.OrderDTO{ID: uuid.New(), Total: decimal.NewFromInt(3490)}}
	handler := Checkout(svc, nil)

	body := `{"address_id":"` + addressID.String() + `","payment_method":"card","payment_token":"pm_card"}`
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodPost, "/api/v1/checkout", body))

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.placed == nil || svc.placed.AddressID != addressID {
		t.Fatalf("unexpected input: %+v", svc.placed)
	}
	if svc.placed.PaymentToken != "pm_card" {
		t.Fatalf("expected payment token passed through, got %q", svc.placed.PaymentToken)
	}
}

func TestCheckoutRequiresTokenForCard(t *testing.T) {
	handler := Checkout(&stubCheckoutService{}, nil)

	body := `{"address_id":"` + uuid.NewString() + `","payment_method":"card"}`
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodPost, "/api/v1/checkout", body))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCheckoutCashOnDeliveryNeedsNoToken(t *testing.T) {
	svc := &stubCheckoutService{order: &ordersvc.OrderDTO{ID: uuid.New()}}
	handler := Checkout(svc, nil)

	body := `{"address_id":"` + uuid.NewString() + `","payment_method":"cash_on_delivery"}`
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodPost, "/api/v1/checkout", body))

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestCheckoutInsufficientStockSurfacesDetails(t *testing.T) {
	svc := &stubCheckoutService{err: pkgerrors.InsufficientStock(uuid.NewString(), "Rose Hamper", 3, 1)}
	handler := Checkout(svc, nil)

	body := `{"address_id":"` + uuid.NewString() + `","payment_method":"cash_on_delivery"}`
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodPost, "/api/v1/checkout", body))

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}

	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Details struct {
				GiftName  string `json:"gift_name"`
				Requested int    `json:"requested"`
				Available int    `json:"available"`
			} `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Error.Code != string(pkgerrors.CodeInsufficientStock) {
		t.Fatalf("unexpected code %s", envelope.Error.Code)
	}
	if envelope.Error.Details.GiftName != "Rose Hamper" || envelope.Error.Details.Requested != 3 || envelope.Error.Details.Available != 1 {
		t.Fatalf("unexpected details: %+v", envelope.Error.Details)
	}
}

func TestDirectCheckoutRequiresOneDestination(t *testing.T) {
	handler := DirectCheckout(&stubCheckoutService{}, nil)

	// both address_id and shipping present
	body := `{"items":[{"gift_id":"` + uuid.NewString() + `","quantity":1}],"address_id":"` + uuid.NewString() + `","shipping":{"recipient":"A","line1":"1","city":"KTM","state":"Bagmati","postal_code":"44600","country":"NP","phone":"98"},"payment_method":"cash_on_delivery"}`
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodPost, "/api/v1/checkout/direct", body))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestDirectCheckoutInlineShipping(t *testing.T) {
	giftID := uuid.New()
	svc := &stubCheckoutService{order: &ordersvc.OrderDTO{ID: uuid.New()}}
	handler := DirectCheckout(svc, nil)

	body := `{"items":[{"gift_id":"` + giftID.String() + `","quantity":2}],"shipping":{"recipient":"Asha","line1":"Main St","city":"Kathmandu","state":"Bagmati","postal_code":"44600","country":"NP","phone":"9800000000"},"payment_method":"cash_on_delivery"}`
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodPost, "/api/v1/checkout/direct", body))

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.direct == nil || len(svc.direct.Items) != 1 || svc.direct.Items[0].GiftID != giftID {
		t.Fatalf("unexpected input: %+v", svc.direct)
	}
	if svc.direct.Shipping == nil || svc.direct.Shipping.Recipient != "Asha" {
		t.Fatal("expected inline shipping to pass through")
	}
}

func TestCheckoutPaymentDeclined(t *testing.T) {
	svc := &stubCheckoutService{err: pkgerrors.New(pkgerrors.CodePaymentDeclined, "card declined")}
	handler := Checkout(svc, nil)

	body := `{"address_id":"` + uuid.NewString() + `","payment_method":"card","payment_token":"pm_bad"}`
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodPost, "/api/v1/checkout", body))

	if resp.Code != http.StatusPaymentRequired {
		t.Fatalf("expected 402 got %d", resp.Code)
	}
}
