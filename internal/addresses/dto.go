package addresses

import (
	"time"

	"github.com/google/uuid"

	"github.com/mayagift/giftbloom-backend/pkg/db/models"
)

// AddressDTO is the API shape of a saved address.
type AddressDTO struct {
	ID         uuid.UUID `json:"id"`
	Recipient  string    `json:"recipient"`
	Line1      string    `json:"line1"`
	Line2      *string   `json:"line2,omitempty"`
	City       string    `json:"city"`
	State      string    `json:"state"`
	PostalCode string    `json:"postal_code"`
	Country    string    `json:"country"`
	Phone      string    `json:"phone"`
	IsDefault  bool      `json:"is_default"`
	CreatedAt  time.Time `json:"created_at"`
}

func fromModel(address *models.Address) AddressDTO {
	return AddressDTO{
		ID:         address.ID,
		Recipient:  address.Recipient,
		Line1:      address.Line1,
		Line2:      address.Line2,
		City:       address.City,
		State:      address.State,
		PostalCode: address.PostalCode,
		Country:    address.Country,
		Phone:      address.Phone,
		IsDefault:  address.IsDefault,
		CreatedAt:  address.CreatedAt,
	}
}
