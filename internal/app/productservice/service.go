package productservice

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"git.platform.alem.school/amibragim/shop-events/internal/domain/orders"
	"git.platform.alem.school/amibragim/shop-events/internal/domain/products"
	"git.platform.alem.school/amibragim/shop-events/internal/ports"
	"git.platform.alem.school/amibragim/shop-events/internal/shared/contracts"
	"git.platform.alem.school/amibragim/shop-events/internal/shared/logger"
	"git.platform.alem.school/amibragim/shop-events/internal/shared/rabbitmq"

	"github.com/google/uuid"
)

const maxPrice = orders.Money(99_999_999) // NUMERIC(10,2)

// Service implements ports.ProductService.
type Service struct {
	uow       ports.UnitOfWork
	products  ports.ProductRepository
	orders    ports.OrderRepository
	publisher ports.EventPublisher
	logger    *logger.Logger
}

// Ensure Service implements the interface at compile time.
var _ ports.ProductService = (*Service)(nil)

// New creates a new ProductService with the required dependencies.
func New(uow ports.UnitOfWork, products ports.ProductRepository, orders ports.OrderRepository, publisher ports.EventPublisher, logger *logger.Logger) *Service {
	return &Service{
		uow:       uow,
		products:  products,
		orders:    orders,
		publisher: publisher,
		logger:    logger,
	}
}

// CreateProduct stores a product and publishes product_created.
func (service *Service) CreateProduct(ctx context.Context, in ports.ProductInput) (*products.Product, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if err := validateProduct(in.Name, in.Price); err != nil {
		return nil, err
	}

	product := &products.Product{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
	}

	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		if err := service.products.Create(txCtx, product); err != nil {
			service.logger.Error(ctx, "db_transaction_failed", "failed to create product", err)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	rabbitmq.PublishBestEffort(ctx, service.publisher, service.logger,
		contracts.NewProductCreated(product.ID, product.Name))

	return product, nil
}

// GetProduct returns one product or ports.ErrNotFound.
func (service *Service) GetProduct(ctx context.Context, id string) (*products.Product, error) {
	var product *products.Product
	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		var err error
		product, err = service.products.GetByID(txCtx, id)
		return err
	})
	return product, err
}

// ListProducts returns the whole catalog.
func (service *Service) ListProducts(ctx context.Context) ([]products.Product, error) {
	var out []products.Product
	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		var err error
		out, err = service.products.List(txCtx)
		return err
	})
	return out, err
}

// UpdateProduct applies patch and publishes product_updated.
func (service *Service) UpdateProduct(ctx context.Context, id string, patch ports.ProductPatch) (*products.Product, error) {
	var product *products.Product
	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		var err error
		product, err = service.products.GetByID(txCtx, id)
		if err != nil {
			return err
		}

		if patch.Name != nil {
			product.Name = strings.TrimSpace(*patch.Name)
		}
		if patch.Description != nil {
			product.Description = strings.TrimSpace(*patch.Description)
		}
		if patch.Price != nil {
			product.Price = *patch.Price
		}
		if err := validateProduct(product.Name, product.Price); err != nil {
			return err
		}

		return service.products.Update(txCtx, product)
	})
	if err != nil {
		return nil, err
	}

	rabbitmq.PublishBestEffort(ctx, service.publisher, service.logger,
		contracts.NewProductUpdated(product.ID, product.Name))

	return product, nil
}

// DeleteProduct removes a product. Existing orders keep their product ID.
func (service *Service) DeleteProduct(ctx context.Context, id string) error {
	return service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		return service.products.Delete(txCtx, id)
	})
}

// PlaceOrder prices the order from the stored product, persists it and then
// publishes order_placed.
func (service *Service) PlaceOrder(ctx context.Context, cmd ports.PlaceOrderCommand) (*orders.Order, error) {
	cmd.ProductID = strings.TrimSpace(cmd.ProductID)
	cmd.UserID = strings.TrimSpace(cmd.UserID)
	cmd.UserEmail = strings.TrimSpace(cmd.UserEmail)

	// basic validation
	if cmd.ProductID == "" {
		return nil, fmt.Errorf("%w: productId is required", ports.ErrInvalidInput)
	}
	if cmd.Quantity < 1 || cmd.Quantity > 1000 {
		return nil, fmt.Errorf("%w: quantity must be between 1 and 1000", ports.ErrInvalidInput)
	}
	if cmd.UserEmail != "" {
		addr, err := mail.ParseAddress(cmd.UserEmail)
		if err != nil {
			return nil, fmt.Errorf("%w: userEmail must be a valid address", ports.ErrInvalidInput)
		}
		// keep the bare address; a display name is not a valid SMTP path
		cmd.UserEmail = addr.Address
	}

	var order *orders.Order
	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		product, err := service.products.GetByID(txCtx, cmd.ProductID)
		if err != nil {
			return err
		}

		order, err = orders.NewOrder(uuid.NewString(), product.ID, cmd.UserID, cmd.Quantity, product.Price)
		if err != nil {
			return fmt.Errorf("%w: %v", ports.ErrInvalidInput, err)
		}
		order.UserEmail = cmd.UserEmail
		if order.TotalPrice > maxPrice {
			return fmt.Errorf("%w: order total exceeds %.2f", ports.ErrInvalidInput, maxPrice.ToFloat2())
		}

		if err := service.orders.Create(txCtx, order); err != nil {
			service.logger.Error(ctx, "db_transaction_failed", "failed to create order", err)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	service.logger.Info(ctx, "order_placed", "Order placed", map[string]any{
		"order_id":    order.ID,
		"product_id":  order.ProductID,
		"quantity":    order.Quantity,
		"total_price": order.TotalPrice.ToFloat2(),
	})

	rabbitmq.PublishBestEffort(ctx, service.publisher, service.logger,
		contracts.NewOrderPlaced(contracts.OrderPlacedPayload{
			ID:         order.ID,
			ProductID:  order.ProductID,
			UserID:     order.UserID,
			UserEmail:  order.UserEmail,
			Quantity:   order.Quantity,
			TotalPrice: order.TotalPrice.ToFloat2(),
		}))

	return order, nil
}

func validateProduct(name string, price orders.Money) error {
	if len(name) < 1 || len(name) > 200 {
		return fmt.Errorf("%w: name must be 1-200 characters long", ports.ErrInvalidInput)
	}
	if price < 0 || price > maxPrice {
		return fmt.Errorf("%w: price must be between 0 and %.2f", ports.ErrInvalidInput, maxPrice.ToFloat2())
	}
	return nil
}
