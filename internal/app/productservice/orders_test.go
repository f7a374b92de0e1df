package productservice

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"git.platform.alem.school/amibragim/shop-events/internal/domain/orders"
	"git.platform.alem.school/amibragim/shop-events/internal/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func placeOrder(t *testing.T, f fixture, userID string) *orders.Order {
	t.Helper()
	ctx := context.Background()
	p, err := f.svc.CreateProduct(ctx, ports.ProductInput{Name: "Lamp", Price: 250})
	require.NoError(t, err)
	o, err := f.svc.PlaceOrder(ctx, ports.PlaceOrderCommand{ProductID: p.ID, UserID: userID, Quantity: 2})
	require.NoError(t, err)
	return o
}

func TestGetOrder(t *testing.T) {
	f := newFixture()
	placed := placeOrder(t, f, "u1")

	got, err := f.svc.GetOrder(context.Background(), placed.ID)
	require.NoError(t, err)
	assert.Equal(t, orders.Money(500), got.TotalPrice)
	assert.Equal(t, orders.StatusPlaced, got.Status)

	_, err = f.svc.GetOrder(context.Background(), "missing")
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestListOrders_FiltersByUser(t *testing.T) {
	f := newFixture()
	placeOrder(t, f, "u1")
	placeOrder(t, f, "u2")
	placeOrder(t, f, "u1")

	all, err := f.svc.ListOrders(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	mine, err := f.svc.ListOrders(context.Background(), " u1 ")
	require.NoError(t, err)
	assert.Len(t, mine, 2)
}

func TestUpdateOrderStatus_Transitions(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	o := placeOrder(t, f, "u1")
	published := len(f.pub.Published())

	updated, err := f.svc.UpdateOrderStatus(ctx, o.ID, orders.StatusFulfilled)
	require.NoError(t, err)
	assert.Equal(t, orders.StatusFulfilled, updated.Status)

	_, err = f.svc.UpdateOrderStatus(ctx, o.ID, orders.StatusCancelled)
	assert.ErrorIs(t, err, ports.ErrConflict)

	_, err = f.svc.UpdateOrderStatus(ctx, o.ID, "shipped")
	assert.ErrorIs(t, err, ports.ErrInvalidInput)

	_, err = f.svc.UpdateOrderStatus(ctx, "missing", orders.StatusCancelled)
	assert.ErrorIs(t, err, ports.ErrNotFound)

	stored, err := f.svc.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, orders.StatusFulfilled, stored.Status)
	assert.Len(t, f.pub.Published(), published, "status changes publish nothing")
}

func TestHTTP_OrderLookupAndStatus(t *testing.T) {
	f := newFixture()
	mux := newTestMux(f)
	id := createProduct(t, mux, `{"name":"Lamp","price":3}`)

	rec := do(mux, http.MethodPost, "/orders", `{"productId":"`+id+`","userId":"u7"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var placed map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &placed))
	orderID := placed["id"].(string)

	rec = do(mux, http.MethodGet, "/orders/"+orderID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "u7", got["userId"])

	rec = do(mux, http.MethodGet, "/orders?userId=u7", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	rec = do(mux, http.MethodPatch, "/orders/"+orderID+"/status", `{"status":"cancelled"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "cancelled", got["status"])

	rec = do(mux, http.MethodPatch, "/orders/"+orderID+"/status", `{"status":"fulfilled"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(mux, http.MethodGet, "/orders/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Order not found"}`, rec.Body.String())
}
