package products

import (
	"time"

	"git.platform.alem.school/amibragim/shop-events/internal/domain/orders"
)

// Product is an item that can be ordered.
type Product struct {
	ID          string
	Name        string
	Description string
	Price       orders.Money
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
