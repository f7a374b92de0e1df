package ports

import (
	"context"
	"errors"

	"git.platform.alem.school/amibragim/shop-events/internal/domain/orders"
	"git.platform.alem.school/amibragim/shop-events/internal/domain/products"
	"git.platform.alem.school/amibragim/shop-events/internal/domain/users"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// UnitOfWork wraps a function in a DB transaction.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// UserRepository stores registered users. Create returns ErrConflict on a duplicate email.
type UserRepository interface {
	Create(ctx context.Context, u *users.User) error
	GetByID(ctx context.Context, id string) (*users.User, error)
	GetByEmail(ctx context.Context, email string) (*users.User, error)
	List(ctx context.Context) ([]users.User, error)
}

// ProductRepository stores the catalog. Lookups return ErrNotFound when missing.
type ProductRepository interface {
	Create(ctx context.Context, p *products.Product) error
	GetByID(ctx context.Context, id string) (*products.Product, error)
	List(ctx context.Context) ([]products.Product, error)
	Update(ctx context.Context, p *products.Product) error
	Delete(ctx context.Context, id string) error
}

// OrderRepository stores placed orders.
type OrderRepository interface {
	Create(ctx context.Context, o *orders.Order) error
	GetByID(ctx context.Context, id string) (*orders.Order, error)
	List(ctx context.Context, userID string) ([]orders.Order, error)
	UpdateStatus(ctx context.Context, id string, from, to orders.OrderStatus) error
}
