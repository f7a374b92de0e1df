package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOrder_PricesAndDefaults(t *testing.T) {
	o, err := NewOrder("o1", "p1", "", 2, NewMoneyFromFloat2(9.99))
	require.NoError(t, err)

	assert.Equal(t, AnonymousUser, o.UserID)
	assert.Equal(t, Money(1998), o.TotalPrice)
	assert.Equal(t, 19.98, o.TotalPrice.ToFloat2())
	assert.Equal(t, StatusPlaced, o.Status)
}

func TestNewOrder_RejectsZeroQuantity(t *testing.T) {
	_, err := NewOrder("o1", "p1", "u1", 0, 100)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestMoney_RoundsToCents(t *testing.T) {
	assert.Equal(t, Money(1), NewMoneyFromFloat2(0.005))
	assert.Equal(t, Money(1099), NewMoneyFromFloat2(10.989))
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(StatusPlaced, StatusFulfilled))
	assert.True(t, CanTransition(StatusPlaced, StatusCancelled))
	assert.False(t, CanTransition(StatusCancelled, StatusPlaced))
	assert.False(t, CanTransition("unknown", StatusPlaced))
}
