package payments

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"

	pkgerrors "github.com/mayagift/giftbloom-backend/pkg/errors"
)

type stubStripeClient struct {
	lastParams *stripe.PaymentIntentParams
	intent     *stripe.PaymentIntent
	err        error

	lastRefund *stripe.RefundParams
	refundErr  error
}

func (s *stubStripeClient) CreateIntent(_ context.Context, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	s.lastParams = params
	if s.err != nil {
		return nil, s.err
	}
	return s.intent, nil
}

func (s *stubStripeClient) CreateRefund(_ context.Context, params *stripe.RefundParams) (*stripe.Refund, error) {
	s.lastRefund = params
	if s.refundErr != nil {
		return nil, s.refundErr
	}
	return &stripe.Refund{ID: "re_test"}, nil
}

func TestMinorUnits(t *testing.T) {
	cases := []struct {
		amount string
		want   int64
	}{
		{"3490", 349000},
		{"3490.00", 349000},
		{"0.01", 1},
		{"12.345", 1235},
	}
	for _, tc := range cases {
		if got := MinorUnits(decimal.RequireFromString(tc.amount)); got != tc.want {
			t.Errorf("MinorUnits(%s) = %d, want %d", tc.amount, got, tc.want)
		}
	}
}

func TestStripeGatewayCharges(t *testing.T) {
	client := &stubStripeClient{
		intent: &stripe.PaymentIntent{ID: "pi_123", Status: stripe.PaymentIntentStatusSucceeded},
	}
	gateway := NewStripeGateway(client)

	ref, err := gateway.AuthorizeAndCapture(context.Background(), 349000, "inr", "pm_card",
		map[string]string{"order_kind": "gift"})
	if err != nil {
		t.Fatalf("charge: %v", err)
	}
	if ref != "pi_123" {
		t.Fatalf("expected reference pi_123, got %s", ref)
	}

	params := client.lastParams
	if params == nil || params.Amount == nil || *params.Amount != 349000 {
		t.Fatalf("expected amount 349000, got %+v", params)
	}
	if *params.Currency != "inr" || *params.PaymentMethod != "pm_card" {
		t.Fatalf("unexpected params: currency=%v method=%v", *params.Currency, *params.PaymentMethod)
	}
	if params.Confirm == nil || !*params.Confirm {
		t.Fatal("expected intent to be confirmed synchronously")
	}
}

func TestStripeGatewayDecline(t *testing.T) {
	client := &stubStripeClient{
		err: &stripe.Error{Code: stripe.ErrorCodeCardDeclined, DeclineCode: stripe.DeclineCodeInsufficientFunds},
	}
	gateway := NewStripeGateway(client)

	_, err := gateway.AuthorizeAndCapture(context.Background(), 1000, "inr", "pm_card", nil)
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodePaymentDeclined {
		t.Fatalf("expected PAYMENT_DECLINED, got %v", err)
	}
}

func TestStripeGatewayNonSucceededStatus(t *testing.T) {
	client := &stubStripeClient{
		intent: &stripe.PaymentIntent{ID: "pi_456", Status: stripe.PaymentIntentStatusRequiresAction},
	}
	gateway := NewStripeGateway(client)

	_, err := gateway.AuthorizeAndCapture(context.Background(), 1000, "inr", "pm_card", nil)
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodePaymentDeclined {
		t.Fatalf("expected PAYMENT_DECLINED for unconfirmed intent, got %v", err)
	}
}

func TestStripeGatewayRefund(t *testing.T) {
	client := &stubStripeClient{}
	gateway := NewStripeGateway(client)

	if err := gateway.Refund(context.Background(), "pi_123"); err != nil {
		t.Fatalf("refund: %v", err)
	}
	if client.lastRefund == nil || client.lastRefund.PaymentIntent == nil || *client.lastRefund.PaymentIntent != "pi_123" {
		t.Fatalf("expected refund against pi_123, got %+v", client.lastRefund)
	}

	if err := gateway.Refund(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty reference")
	}

	client.refundErr = &stripe.Error{Code: stripe.ErrorCodeChargeAlreadyRefunded}
	err := gateway.Refund(context.Background(), "pi_123")
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected DEPENDENCY_ERROR, got %v", err)
	}
}

func TestCashOnDeliveryMakesNoCall(t *testing.T) {
	gateway := NewCashOnDeliveryGateway()
	ref, err := gateway.AuthorizeAndCapture(context.Background(), 1000, "inr", "", nil)
	if err != nil {
		t.Fatalf("cod: %v", err)
	}
	if ref != "" {
		t.Fatalf("expected empty reference, got %s", ref)
	}
}
