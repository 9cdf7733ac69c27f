package checkout

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mayagift/giftbloom-backend/internal/cart"
	"github.com/mayagift/giftbloom-backend/internal/orders"
	"github.com/mayagift/giftbloom-backend/internal/payments"
	"github.com/mayagift/giftbloom-backend/pkg/config"
	"github.com/mayagift/giftbloom-backend/pkg/db"
	"github.com/mayagift/giftbloom-backend/pkg/db/models"
	"github.com/mayagift/giftbloom-backend/pkg/enums"
	pkgerrors "github.com/mayagift/giftbloom-backend/pkg/errors"
	"github.com/mayagift/giftbloom-backend/pkg/logger"
)

// Service turns a cart (or an inline item list) into a paid order. The
// pipeline is strictly ordered: aggregate, validate stock, resolve the
// destination, price, charge, then persist. Payment happens after the stock
// precheck and before any database write, the whole order write is one
// transaction, and a card capture is refunded if that transaction fails.
type Service interface {
	PlaceOrder(ctx context.Context, userID uuid.UUID, input PlaceOrderInput) (*orders.OrderDTO, error)
	PlaceDirectOrder(ctx context.Context, userID uuid.UUID, input DirectOrderInput) (*orders.OrderDTO, error)
}

// PlaceOrderInput checks out the user's saved cart against a saved address.
type PlaceOrderInput struct {
	AddressID     uuid.UUID
	PaymentMethod enums.PaymentMethod
	PaymentToken  string
}

// DirectItemInput is one inline purchase line for the direct variant.
type DirectItemInput struct {
	GiftID         uuid.UUID
	Quantity       int
	Message        *string
	SelectedAddOns []string
	DeliveryDate   *time.Time
	CustomImageKey *string
}

// ShippingInput is an inline destination for orders shipped somewhere the
// user has not saved.
type ShippingInput struct {
	Recipient  string
	Line1      string
	Line2      *string
	City       string
	State      string
	PostalCode string
	Country    string
	Phone      string
}

// DirectOrderInput checks out inline items, shipped to a saved address or
// an inline destination. The user's cart is left alone.
type DirectOrderInput struct {
	Items         []DirectItemInput
	AddressID     *uuid.UUID
	Shipping      *ShippingInput
	PaymentMethod enums.PaymentMethod
	PaymentToken  string
}

type addressResolver interface {
	Resolve(ctx context.Context, userID, addressID uuid.UUID) (*models.Address, error)
}

type giftReader interface {
	FindGiftsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Gift, error)
}

type checkoutMetrics interface {
	IncOrderPlaced(paymentMethod string)
	IncCheckoutFailure(reason string)
}

type service struct {
	db        *db.Client
	carts     *cart.Repository
	orders    *orders.Repository
	addresses addressResolver
	gifts     giftReader
	card      payments.Gateway
	cod       payments.Gateway
	pricing   config.PricingConfig
	metrics   checkoutMetrics
	logg      *logger.Logger
}

// ServiceParams collects the dependencies for NewService. Metrics and
// Logger may be nil.
type ServiceParams struct {
	DB          *db.Client
	Carts       *cart.Repository
	Orders      *orders.Repository
	Addresses   addressResolver
	Gifts       giftReader
	CardGateway payments.Gateway
	CODGateway  payments.Gateway
	Pricing     config.PricingConfig
	Metrics     checkoutMetrics
	Logger      *logger.Logger
}

// NewService wires the checkout service.
func NewService(params ServiceParams) Service {
	return &service{
		db:        params.DB,
		carts:     params.Carts,
		orders:    params.Orders,
		addresses: params.Addresses,
		gifts:     params.Gifts,
		card:      params.CardGateway,
		cod:       params.CODGateway,
		pricing:   params.Pricing,
		metrics:   params.Metrics,
		logg:      params.Logger,
	}
}

func (s *service) PlaceOrder(ctx context.Context, userID uuid.UUID, input PlaceOrderInput) (*orders.OrderDTO, error) {
	if !input.PaymentMethod.IsValid() {
		return nil, s.failed("validation", pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method"))
	}

	userCart, err := s.carts.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, s.failed("internal", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart"))
	}
	if len(userCart.Items) == 0 {
		return nil, s.failed("validation", pkgerrors.New(pkgerrors.CodeValidation, "cart is empty"))
	}

	items, err := itemsFromCart(userCart)
	if err != nil {
		return nil, s.failed("internal", err)
	}

	if err := s.checkStock(ctx, items); err != nil {
		return nil, s.failed(failureReason(err), err)
	}

	address, err := s.addresses.Resolve(ctx, userID, input.AddressID)
	if err != nil {
		return nil, s.failed("address", err)
	}

	order := s.buildOrder(userID, input.PaymentMethod, items, shippingFromAddress(address))
	if err := s.charge(ctx, userID, order, input.PaymentToken); err != nil {
		return nil, err
	}

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.orders.WithTx(tx).Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order")
		}
		if err := reserveStock(ctx, tx, order.Items); err != nil {
			return err
		}
		if err := s.carts.WithTx(tx).ClearItems(ctx, userCart.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear cart")
		}
		return nil
	})
	if err != nil {
		s.releaseCharge(ctx, order)
		return nil, s.failed(failureReason(err), err)
	}

	if s.metrics != nil {
		s.metrics.IncOrderPlaced(input.PaymentMethod.String())
	}
	return orders.FromModel(order), nil
}

func (s *service) PlaceDirectOrder(ctx context.Context, userID uuid.UUID, input DirectOrderInput) (*orders.OrderDTO, error) {
	if !input.PaymentMethod.IsValid() {
		return nil, s.failed("validation", pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method"))
	}
	if len(input.Items) == 0 {
		return nil, s.failed("validation", pkgerrors.New(pkgerrors.CodeValidation, "at least one item is required"))
	}

	items, err := s.itemsFromInput(ctx, input.Items)
	if err != nil {
		return nil, s.failed("validation", err)
	}

	if err := s.checkStock(ctx, items); err != nil {
		return nil, s.failed(failureReason(err), err)
	}

	shipping, err := s.resolveShipping(ctx, userID, input.AddressID, input.Shipping)
	if err != nil {
		return nil, s.failed("address", err)
	}

	order := s.buildOrder(userID, input.PaymentMethod, items, shipping)
	if err := s.charge(ctx, userID, order, input.PaymentToken); err != nil {
		return nil, err
	}

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.orders.WithTx(tx).Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order")
		}
		return reserveStock(ctx, tx, order.Items)
	})
	if err != nil {
		s.releaseCharge(ctx, order)
		return nil, s.failed(failureReason(err), err)
	}

	if s.metrics != nil {
		s.metrics.IncOrderPlaced(input.PaymentMethod.String())
	}
	return orders.FromModel(order), nil
}

// checkStock is the point-in-time stock validation over the lines about to
// become an order, run before any money moves. It carries no lock; the
// conditional decrement inside the write transaction stays the
// authoritative guard against concurrent checkouts.
func (s *service) checkStock(ctx context.Context, items []models.OrderItem) error {
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.GiftID)
	}

	gifts, err := s.gifts.FindGiftsByIDs(ctx, ids)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load gifts")
	}
	for _, item := range items {
		gift, ok := gifts[item.GiftID]
		if !ok {
			return pkgerrors.New(pkgerrors.CodeNotFound, "gift not found")
		}
		if gift.Stock < item.Quantity {
			return pkgerrors.InsufficientStock(item.GiftID.String(), item.GiftName, item.Quantity, gift.Stock)
		}
	}
	return nil
}

// releaseCharge refunds a captured card payment when the order write fails
// after capture, so a customer who loses the stock race is never left
// charged for nothing. COD orders have nothing to release.
func (s *service) releaseCharge(ctx context.Context, order *models.Order) {
	if order.PaymentMethod != enums.PaymentMethodCard || order.PaymentRef == nil {
		return
	}
	if err := s.card.Refund(ctx, *order.PaymentRef); err != nil {
		if s.metrics != nil {
			s.metrics.IncCheckoutFailure("refund_failed")
		}
		if s.logg != nil {
			logCtx := s.logg.WithField(ctx, "payment_ref", *order.PaymentRef)
			s.logg.Error(logCtx, "checkout.refund_failed", err)
		}
	}
}

// charge runs the payment step. Card orders are captured synchronously;
// any gateway failure aborts the checkout before a single row is written.
func (s *service) charge(ctx context.Context, userID uuid.UUID, order *models.Order, token string) error {
	gateway := s.cod
	if order.PaymentMethod == enums.PaymentMethodCard {
		gateway = s.card
	}

	ref, err := gateway.AuthorizeAndCapture(ctx,
		payments.MinorUnits(order.Total), order.Currency, token,
		map[string]string{"user_id": userID.String()})
	if err != nil {
		return s.failed("payment_declined", err)
	}
	if order.PaymentMethod == enums.PaymentMethodCard {
		order.PaymentStatus = enums.PaymentStatusCompleted
		order.PaymentRef = &ref
	}
	return nil
}

func (s *service) buildOrder(userID uuid.UUID, method enums.PaymentMethod, items []models.OrderItem, shipping ShippingInput) *models.Order {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.LineTotal())
	}
	quote := ComputeQuote(subtotal, s.pricing)

	return &models.Order{
		UserID:         userID,
		Status:         enums.OrderStatusPending,
		PaymentMethod:  method,
		PaymentStatus:  enums.PaymentStatusPending,
		Currency:       s.pricing.Currency,
		Subtotal:       quote.Subtotal,
		Tax:            quote.Tax,
		DeliveryCharge: quote.DeliveryCharge,
		Total:          quote.Total,
		ShipRecipient:  shipping.Recipient,
		ShipLine1:      shipping.Line1,
		ShipLine2:      shipping.Line2,
		ShipCity:       shipping.City,
		ShipState:      shipping.State,
		ShipPostalCode: shipping.PostalCode,
		ShipCountry:    shipping.Country,
		ShipPhone:      shipping.Phone,
		Items:          items,
	}
}

func (s *service) resolveShipping(ctx context.Context, userID uuid.UUID, addressID *uuid.UUID, inline *ShippingInput) (ShippingInput, error) {
	if addressID != nil {
		address, err := s.addresses.Resolve(ctx, userID, *addressID)
		if err != nil {
			return ShippingInput{}, err
		}
		return shippingFromAddress(address), nil
	}
	if inline == nil {
		return ShippingInput{}, pkgerrors.New(pkgerrors.CodeValidation, "shipping address is required")
	}
	if inline.Recipient == "" || inline.Line1 == "" || inline.City == "" ||
		inline.State == "" || inline.PostalCode == "" || inline.Country == "" || inline.Phone == "" {
		return ShippingInput{}, pkgerrors.New(pkgerrors.CodeValidation, "incomplete shipping address")
	}
	return *inline, nil
}

// itemsFromCart freezes cart lines into order items. Prices and names are
// copied so later catalog edits never rewrite history.
func itemsFromCart(userCart *models.Cart) ([]models.OrderItem, error) {
	items := make([]models.OrderItem, 0, len(userCart.Items))
	for _, line := range userCart.Items {
		if line.Gift == nil {
			return nil, pkgerrors.New(pkgerrors.CodeInternal, "cart line missing gift")
		}
		items = append(items, models.OrderItem{
			GiftID:         line.GiftID,
			GiftName:       line.Gift.Name,
			Quantity:       line.Quantity,
			UnitPrice:      line.Gift.Price,
			Message:        line.Message,
			SelectedAddOns: line.SelectedAddOns,
			DeliveryDate:   line.DeliveryDate,
			CustomImageKey: line.CustomImageKey,
		})
	}
	return items, nil
}

func (s *service) itemsFromInput(ctx context.Context, inputs []DirectItemInput) ([]models.OrderItem, error) {
	ids := make([]uuid.UUID, 0, len(inputs))
	for _, input := range inputs {
		if input.Quantity < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
		}
		ids = append(ids, input.GiftID)
	}

	gifts, err := s.gifts.FindGiftsByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load gifts")
	}

	items := make([]models.OrderItem, 0, len(inputs))
	for _, input := range inputs {
		gift, ok := gifts[input.GiftID]
		if !ok || !gift.IsActive {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "gift not found")
		}
		if err := cart.ValidatePersonalization(&gift, input.Message, input.SelectedAddOns, input.CustomImageKey); err != nil {
			return nil, err
		}
		items = append(items, models.OrderItem{
			GiftID:         gift.ID,
			GiftName:       gift.Name,
			Quantity:       input.Quantity,
			UnitPrice:      gift.Price,
			Message:        input.Message,
			SelectedAddOns: input.SelectedAddOns,
			DeliveryDate:   input.DeliveryDate,
			CustomImageKey: input.CustomImageKey,
		})
	}
	return items, nil
}

func shippingFromAddress(address *models.Address) ShippingInput {
	return ShippingInput{
		Recipient:  address.Recipient,
		Line1:      address.Line1,
		Line2:      address.Line2,
		City:       address.City,
		State:      address.State,
		PostalCode: address.PostalCode,
		Country:    address.Country,
		Phone:      address.Phone,
	}
}

// failed records the checkout failure metric and passes the error through.
func (s *service) failed(reason string, err error) error {
	if s.metrics != nil {
		s.metrics.IncCheckoutFailure(reason)
	}
	return err
}

func failureReason(err error) string {
	if appErr := pkgerrors.As(err); appErr != nil && appErr.Code() == pkgerrors.CodeInsufficientStock {
		return "insufficient_stock"
	}
	return "internal"
}
