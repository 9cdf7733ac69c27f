package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mayagift/giftbloom-backend/pkg/db/models"
)

// ItemDTO is one cart line with its gift summary and extended price.
type ItemDTO struct {
	ID             uuid.UUID       `json:"id"`
	GiftID         uuid.UUID       `json:"gift_id"`
	GiftName       string          `json:"gift_name"`
	GiftImageURL   *string         `json:"gift_image_url,omitempty"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	Quantity       int             `json:"quantity"`
	LineTotal      decimal.Decimal `json:"line_total"`
	Message        *string         `json:"message,omitempty"`
	SelectedAddOns []string        `json:"selected_addons,omitempty"`
	DeliveryDate   *time.Time      `json:"delivery_date,omitempty"`
	CustomImageKey *string         `json:"custom_image_key,omitempty"`
}

// CartDTO is the API shape of a user's cart.
type CartDTO struct {
	ID        uuid.UUID       `json:"id"`
	UserID    uuid.UUID       `json:"user_id"`
	Items     []ItemDTO       `json:"items"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func itemFromModel(item models.CartItem) ItemDTO {
	dto := ItemDTO{
		ID:             item.ID,
		GiftID:         item.GiftID,
		Quantity:       item.Quantity,
		Message:        item.Message,
		SelectedAddOns: item.SelectedAddOns,
		DeliveryDate:   item.DeliveryDate,
		CustomImageKey: item.CustomImageKey,
	}
	if item.Gift != nil {
		dto.GiftName = item.Gift.Name
		dto.UnitPrice = item.Gift.Price
		dto.LineTotal = item.Gift.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		if img := item.Gift.PrimaryImage(); img != nil {
			url := img.URL
			dto.GiftImageURL = &url
		}
	}
	return dto
}

func fromModel(cart *models.Cart) *CartDTO {
	dto := &CartDTO{
		ID:        cart.ID,
		UserID:    cart.UserID,
		Items:     make([]ItemDTO, 0, len(cart.Items)),
		Subtotal:  decimal.Zero,
		UpdatedAt: cart.UpdatedAt,
	}
	for _, item := range cart.Items {
		line := itemFromModel(item)
		dto.Items = append(dto.Items, line)
		dto.Subtotal = dto.Subtotal.Add(line.LineTotal)
	}
	return dto
}
