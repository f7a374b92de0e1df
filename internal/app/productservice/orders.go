package productservice

import (
	"context"
	"fmt"
	"strings"

	"git.platform.alem.school/amibragim/shop-events/internal/domain/orders"
	"git.platform.alem.school/amibragim/shop-events/internal/ports"
)

// GetOrder returns one order or ports.ErrNotFound.
func (service *Service) GetOrder(ctx context.Context, id string) (*orders.Order, error) {
	var order *orders.Order
	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		var err error
		order, err = service.orders.GetByID(txCtx, id)
		return err
	})
	return order, err
}

// ListOrders returns all orders, or only those placed by userID when it is set.
func (service *Service) ListOrders(ctx context.Context, userID string) ([]orders.Order, error) {
	var out []orders.Order
	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		var err error
		out, err = service.orders.List(txCtx, strings.TrimSpace(userID))
		return err
	})
	return out, err
}

// UpdateOrderStatus moves a placed order to fulfilled or cancelled. Terminal
// orders cannot change and yield ports.ErrConflict.
func (service *Service) UpdateOrderStatus(ctx context.Context, id string, to orders.OrderStatus) (*orders.Order, error) {
	switch to {
	case orders.StatusPlaced, orders.StatusFulfilled, orders.StatusCancelled:
	default:
		return nil, fmt.Errorf("%w: unknown status %q", ports.ErrInvalidInput, to)
	}

	var order *orders.Order
	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		var err error
		order, err = service.orders.GetByID(txCtx, id)
		if err != nil {
			return err
		}

		if !orders.CanTransition(order.Status, to) {
			return fmt.Errorf("%w: order is %s and cannot become %s", ports.ErrConflict, order.Status, to)
		}
		if err := service.orders.UpdateStatus(txCtx, id, order.Status, to); err != nil {
			return err
		}

		order.Status = to
		return nil
	})
	if err != nil {
		return nil, err
	}

	service.logger.Info(ctx, "order_status_updated", "Order status updated", map[string]any{
		"order_id": order.ID,
		"status":   string(order.Status),
	})
	return order, nil
}
