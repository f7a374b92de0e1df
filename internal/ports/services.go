package ports

import (
	"context"

	"git.platform.alem.school/amibragim/shop-events/internal/domain/orders"
	"git.platform.alem.school/amibragim/shop-events/internal/domain/products"
	"git.platform.alem.school/amibragim/shop-events/internal/domain/users"
	"git.platform.alem.school/amibragim/shop-events/internal/shared/contracts"
)

// EventPublisher publishes a domain event on its topic. Failures are returned,
// never retried; producers log them and carry on.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, evt contracts.Event) error
}

// UserService handles registration and lookups: validate -> tx insert -> publish user_registered.
type UserService interface {
	Register(ctx context.Context, cmd RegisterUserCommand) (*users.User, error)
	Login(ctx context.Context, email, password string) (*users.User, error)
	Get(ctx context.Context, id string) (*users.User, error)
	List(ctx context.Context) ([]users.User, error)
}

type RegisterUserCommand struct {
	Name     string
	Email    string
	Password string
}

// ProductService handles the catalog and order placement.
type ProductService interface {
	CreateProduct(ctx context.Context, cmd ProductInput) (*products.Product, error)
	GetProduct(ctx context.Context, id string) (*products.Product, error)
	ListProducts(ctx context.Context) ([]products.Product, error)
	UpdateProduct(ctx context.Context, id string, patch ProductPatch) (*products.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	PlaceOrder(ctx context.Context, cmd PlaceOrderCommand) (*orders.Order, error)
	GetOrder(ctx context.Context, id string) (*orders.Order, error)
	ListOrders(ctx context.Context, userID string) ([]orders.Order, error)
	UpdateOrderStatus(ctx context.Context, id string, to orders.OrderStatus) (*orders.Order, error)
}

type ProductInput struct {
	Name        string
	Description string
	Price       orders.Money
}

// ProductPatch carries the fields of a PUT; nil fields are left unchanged.
type ProductPatch struct {
	Name        *string
	Description *string
	Price       *orders.Money
}

type PlaceOrderCommand struct {
	ProductID string
	UserID    string
	UserEmail string
	Quantity  int
}
