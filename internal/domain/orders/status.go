package orders

// OrderStatus is a custom type that represents the current status of an order in its lifecycle.
type OrderStatus string

const (
	StatusPlaced    OrderStatus = "placed"
	StatusFulfilled OrderStatus = "fulfilled"
	StatusCancelled OrderStatus = "cancelled"
)

// Allowed state transitions.
var allowed = map[OrderStatus]map[OrderStatus]bool{
	StatusPlaced:    {StatusFulfilled: true, StatusCancelled: true},
	StatusFulfilled: {},
	StatusCancelled: {},
}

// CanTransition checks if from->to is allowed.
func CanTransition(from, to OrderStatus) bool {
	nexts := allowed[from]
	return nexts != nil && nexts[to]
}
