package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/paymentintent"
	"github.com/stripe/stripe-go/v84/refund"

	pkgerrors "github.com/mayagift/giftbloom-backend/pkg/errors"
	pkgstripe "github.com/mayagift/giftbloom-backend/pkg/stripe"
)

// StripePaymentClient exposes the subset of Stripe operations the card
// gateway needs, so tests can stub the wire.
type StripePaymentClient interface {
	CreateIntent(ctx context.Context, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	CreateRefund(ctx context.Context, params *stripe.RefundParams) (*stripe.Refund, error)
}

type stripePaymentWrapper struct{}

// NewStripePaymentClient wraps the initialized Stripe client.
func NewStripePaymentClient(api *pkgstripe.Client) StripePaymentClient {
	if api == nil {
		return nil
	}
	return &stripePaymentWrapper{}
}

func (w *stripePaymentWrapper) CreateIntent(ctx context.Context, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	if params != nil {
		params.Context = ctx
	}
	return paymentintent.New(params)
}

func (w *stripePaymentWrapper) CreateRefund(ctx context.Context, params *stripe.RefundParams) (*stripe.Refund, error) {
	if params != nil {
		params.Context = ctx
	}
	return refund.New(params)
}

type stripeGateway struct {
	client StripePaymentClient
}

// NewStripeGateway builds the card gateway. Each charge is a
// PaymentIntent created and confirmed in one call; anything short of a
// succeeded intent is treated as a decline.
func NewStripeGateway(client StripePaymentClient) Gateway {
	return &stripeGateway{client: client}
}

func (g *stripeGateway) AuthorizeAndCapture(ctx context.Context, amountMinor int64, currency, methodToken string, metadata map[string]string) (string, error) {
	if methodToken == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "payment method token is required")
	}

	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(amountMinor),
		Currency:      stripe.String(currency),
		PaymentMethod: stripe.String(methodToken),
		Confirm:       stripe.Bool(true),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled:        stripe.Bool(true),
			AllowRedirects: stripe.String(string(stripe.PaymentIntentAutomaticPaymentMethodsAllowRedirectsNever)),
		},
		Metadata: metadata,
	}

	intent, err := g.client.CreateIntent(ctx, params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) {
			return "", pkgerrors.Wrap(pkgerrors.CodePaymentDeclined, err, declineMessage(stripeErr))
		}
		return "", pkgerrors.Wrap(pkgerrors.CodePaymentDeclined, err, "payment could not be processed")
	}
	if intent.Status != stripe.PaymentIntentStatusSucceeded {
		return "", pkgerrors.New(pkgerrors.CodePaymentDeclined,
			fmt.Sprintf("payment not completed (status %s)", intent.Status))
	}
	return intent.ID, nil
}

func (g *stripeGateway) Refund(ctx context.Context, reference string) error {
	if reference == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment reference is required")
	}
	_, err := g.client.CreateRefund(ctx, &stripe.RefundParams{
		PaymentIntent: stripe.String(reference),
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "refund payment")
	}
	return nil
}

func declineMessage(err *stripe.Error) string {
	if err.DeclineCode != "" {
		return fmt.Sprintf("card declined (%s)", err.DeclineCode)
	}
	if err.Code != "" {
		return fmt.Sprintf("payment declined (%s)", err.Code)
	}
	return "payment declined"
}
