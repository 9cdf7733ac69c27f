package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mayagift/giftbloom-backend/pkg/db/models"
	"github.com/mayagift/giftbloom-backend/pkg/enums"
)

// OrderItemDTO is one frozen purchase line.
type OrderItemDTO struct {
	ID             uuid.UUID       `json:"id"`
	GiftID         uuid.UUID       `json:"gift_id"`
	GiftName       string          `json:"gift_name"`
	Quantity       int             `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	LineTotal      decimal.Decimal `json:"line_total"`
	Message        *string         `json:"message,omitempty"`
	SelectedAddOns []string        `json:"selected_addons,omitempty"`
	DeliveryDate   *time.Time      `json:"delivery_date,omitempty"`
	CustomImageKey *string         `json:"custom_image_key,omitempty"`
}

// ShippingDTO is the denormalized destination stored on the order.
type ShippingDTO struct {
	Recipient  string  `json:"recipient"`
	Line1      string  `json:"line1"`
	Line2      *string `json:"line2,omitempty"`
	City       string  `json:"city"`
	State      string  `json:"state"`
	PostalCode string  `json:"postal_code"`
	Country    string  `json:"country"`
	Phone      string  `json:"phone"`
}

// OrderDTO is the API shape of an order.
type OrderDTO struct {
	ID             uuid.UUID           `json:"id"`
	UserID         uuid.UUID           `json:"user_id"`
	Status         enums.OrderStatus   `json:"status"`
	PaymentMethod  enums.PaymentMethod `json:"payment_method"`
	PaymentStatus  enums.PaymentStatus `json:"payment_status"`
	PaymentRef     *string             `json:"payment_ref,omitempty"`
	Currency       string              `json:"currency"`
	Subtotal       decimal.Decimal     `json:"subtotal"`
	Tax            decimal.Decimal     `json:"tax"`
	DeliveryCharge decimal.Decimal     `json:"delivery_charge"`
	Total          decimal.Decimal     `json:"total"`
	Shipping       ShippingDTO         `json:"shipping"`
	Items          []OrderItemDTO      `json:"items"`
	CreatedAt      time.Time           `json:"created_at"`
}

// OrderListResult pages orders with an opaque cursor.
type OrderListResult struct {
	Orders     []OrderDTO `json:"orders"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

// FromModel converts a persisted order into its API shape.
func FromModel(order *models.Order) *OrderDTO {
	dto := &OrderDTO{
		ID:             order.ID,
		UserID:         order.UserID,
		Status:         order.Status,
		PaymentMethod:  order.PaymentMethod,
		PaymentStatus:  order.PaymentStatus,
		PaymentRef:     order.PaymentRef,
		Currency:       order.Currency,
		Subtotal:       order.Subtotal,
		Tax:            order.Tax,
		DeliveryCharge: order.DeliveryCharge,
		Total:          order.Total,
		Shipping: ShippingDTO{
			Recipient:  order.ShipRecipient,
			Line1:      order.ShipLine1,
			Line2:      order.ShipLine2,
			City:       order.ShipCity,
			State:      order.ShipState,
			PostalCode: order.ShipPostalCode,
			Country:    order.ShipCountry,
			Phone:      order.ShipPhone,
		},
		Items:     make([]OrderItemDTO, 0, len(order.Items)),
		CreatedAt: order.CreatedAt,
	}
	for _, item := range order.Items {
		dto.Items = append(dto.Items, OrderItemDTO{
			ID:             item.ID,
			GiftID:         item.GiftID,
			GiftName:       item.GiftName,
			Quantity:       item.Quantity,
			UnitPrice:      item.UnitPrice,
			LineTotal:      item.LineTotal(),
			Message:        item.Message,
			SelectedAddOns: item.SelectedAddOns,
			DeliveryDate:   item.DeliveryDate,
			CustomImageKey: item.CustomImageKey,
		})
	}
	return dto
}
