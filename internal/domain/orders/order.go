package orders

import (
	"errors"
	"time"
)

// AnonymousUser is recorded when an order is placed without a user ID.
const AnonymousUser = "anonymous"

var ErrInvalidQuantity = errors.New("quantity must be at least 1")

// Order represents a placed order for a single product.
type Order struct {
	ID         string
	ProductID  string
	UserID     string
	UserEmail  string // optional, lets the hub skip the user lookup
	Quantity   int
	TotalPrice Money
	Status     OrderStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewOrder prices quantity units of a product at unitPrice. An empty user ID
// becomes AnonymousUser.
func NewOrder(id, productID, userID string, quantity int, unitPrice Money) (*Order, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}
	if userID == "" {
		userID = AnonymousUser
	}

	now := time.Now().UTC()
	return &Order{
		ID:         id,
		ProductID:  productID,
		UserID:     userID,
		Quantity:   quantity,
		TotalPrice: unitPrice.Times(quantity),
		Status:     StatusPlaced,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}
