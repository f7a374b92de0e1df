package productservice

import (
	"context"
	"errors"
	"net/http"
	"time"

	"git.platform.alem.school/amibragim/shop-events/internal/domain/orders"
	"git.platform.alem.school/amibragim/shop-events/internal/domain/products"
	"git.platform.alem.school/amibragim/shop-events/internal/ports"
	"git.platform.alem.school/amibragim/shop-events/internal/shared/httpx"
	"git.platform.alem.school/amibragim/shop-events/internal/shared/logger"
)

const requestTimeout = 5 * time.Second

// ProductHTTPHandler adapts HTTP requests to the ProductService.
type ProductHTTPHandler struct {
	svc    ports.ProductService
	logger *logger.Logger
}

// NewProductHTTPHandler wires an HTTP handler around the ProductService.
func NewProductHTTPHandler(svc ports.ProductService, logger *logger.Logger) *ProductHTTPHandler {
	return &ProductHTTPHandler{svc: svc, logger: logger}
}

// Register mounts the catalog and order routes on the provided mux.
func (handler *ProductHTTPHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /products", handler.handleCreateProduct)
	mux.HandleFunc("GET /products", handler.handleListProducts)
	mux.HandleFunc("GET /products/{id}", handler.handleGetProduct)
	mux.HandleFunc("PUT /products/{id}", handler.handleUpdateProduct)
	mux.HandleFunc("DELETE /products/{id}", handler.handleDeleteProduct)
	mux.HandleFunc("POST /orders", handler.handleCreateOrder)
	mux.HandleFunc("GET /orders", handler.handleListOrders)
	mux.HandleFunc("GET /orders/{id}", handler.handleGetOrder)
	mux.HandleFunc("PATCH /orders/{id}/status", handler.handleUpdateOrderStatus)
}

// --- Request/Response DTOs (HTTP boundary) ---

type createProductRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       *float64 `json:"price"` // decimal dollars
}

type updateProductRequest struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
}

type productResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type createOrderRequest struct {
	ProductID string `json:"productId"`
	Quantity  *int   `json:"quantity"`
	UserID    string `json:"userId"`
	UserEmail string `json:"userEmail"`
}

type updateOrderStatusRequest struct {
	Status string `json:"status"`
}

type orderResponse struct {
	ID         string    `json:"id"`
	ProductID  string    `json:"productId"`
	UserID     string    `json:"userId"`
	UserEmail  string    `json:"userEmail,omitempty"`
	Quantity   int       `json:"quantity"`
	TotalPrice float64   `json:"totalPrice"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func toProductResponse(p products.Product) productResponse {
	return productResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price.ToFloat2(),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func toOrderResponse(o orders.Order) orderResponse {
	return orderResponse{
		ID:         o.ID,
		ProductID:  o.ProductID,
		UserID:     o.UserID,
		UserEmail:  o.UserEmail,
		Quantity:   o.Quantity,
		TotalPrice: o.TotalPrice.ToFloat2(),
		Status:     string(o.Status),
		CreatedAt:  o.CreatedAt,
		UpdatedAt:  o.UpdatedAt,
	}
}

// --- Handlers ---

func (handler *ProductHTTPHandler) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var req createProductRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		handler.decodeError(ctx, w, err)
		return
	}
	if req.Price == nil {
		httpx.Error(ctx, handler.logger, w, http.StatusBadRequest, "name and price are required", nil)
		return
	}

	product, err := handler.svc.CreateProduct(ctx, ports.ProductInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       orders.NewMoneyFromFloat2(*req.Price),
	})
	if err != nil {
		handler.serviceError(ctx, w, err, "Product not found")
		return
	}

	httpx.JSON(ctx, handler.logger, w, http.StatusCreated, toProductResponse(*product))
}

func (handler *ProductHTTPHandler) handleListProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	list, err := handler.svc.ListProducts(ctx)
	if err != nil {
		handler.serviceError(ctx, w, err, "Product not found")
		return
	}

	resp := make([]productResponse, 0, len(list))
	for _, p := range list {
		resp = append(resp, toProductResponse(p))
	}
	httpx.JSON(ctx, handler.logger, w, http.StatusOK, resp)
}

func (handler *ProductHTTPHandler) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	product, err := handler.svc.GetProduct(ctx, r.PathValue("id"))
	if err != nil {
		handler.serviceError(ctx, w, err, "Product not found")
		return
	}
	httpx.JSON(ctx, handler.logger, w, http.StatusOK, toProductResponse(*product))
}

func (handler *ProductHTTPHandler) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var req updateProductRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		handler.decodeError(ctx, w, err)
		return
	}

	patch := ports.ProductPatch{Name: req.Name, Description: req.Description}
	if req.Price != nil {
		price := orders.NewMoneyFromFloat2(*req.Price)
		patch.Price = &price
	}

	product, err := handler.svc.UpdateProduct(ctx, r.PathValue("id"), patch)
	if err != nil {
		handler.serviceError(ctx, w, err, "Product not found")
		return
	}
	httpx.JSON(ctx, handler.logger, w, http.StatusOK, toProductResponse(*product))
}

func (handler *ProductHTTPHandler) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := handler.svc.DeleteProduct(ctx, r.PathValue("id")); err != nil {
		handler.serviceError(ctx, w, err, "Product not found")
		return
	}
	httpx.JSON(ctx, handler.logger, w, http.StatusOK, messageResponse{Message: "Product deleted successfully"})
}

func (handler *ProductHTTPHandler) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var req createOrderRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		handler.decodeError(ctx, w, err)
		return
	}

	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	handler.logger.Debug(ctx, "order_received", "new order request received", map[string]any{
		"product_id": req.ProductID,
		"quantity":   quantity,
	})

	order, err := handler.svc.PlaceOrder(ctx, ports.PlaceOrderCommand{
		ProductID: req.ProductID,
		UserID:    req.UserID,
		UserEmail: req.UserEmail,
		Quantity:  quantity,
	})
	if err != nil {
		handler.serviceError(ctx, w, err, "Product not found")
		return
	}

	httpx.JSON(ctx, handler.logger, w, http.StatusCreated, toOrderResponse(*order))
}

func (handler *ProductHTTPHandler) handleListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	list, err := handler.svc.ListOrders(ctx, r.URL.Query().Get("userId"))
	if err != nil {
		handler.serviceError(ctx, w, err, "Order not found")
		return
	}

	resp := make([]orderResponse, 0, len(list))
	for _, o := range list {
		resp = append(resp, toOrderResponse(o))
	}
	httpx.JSON(ctx, handler.logger, w, http.StatusOK, resp)
}

func (handler *ProductHTTPHandler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	order, err := handler.svc.GetOrder(ctx, r.PathValue("id"))
	if err != nil {
		handler.serviceError(ctx, w, err, "Order not found")
		return
	}
	httpx.JSON(ctx, handler.logger, w, http.StatusOK, toOrderResponse(*order))
}

func (handler *ProductHTTPHandler) handleUpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var req updateOrderStatusRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		handler.decodeError(ctx, w, err)
		return
	}

	order, err := handler.svc.UpdateOrderStatus(ctx, r.PathValue("id"), orders.OrderStatus(req.Status))
	if err != nil {
		handler.serviceError(ctx, w, err, "Order not found")
		return
	}
	httpx.JSON(ctx, handler.logger, w, http.StatusOK, toOrderResponse(*order))
}

// --- Helpers ---

func (handler *ProductHTTPHandler) serviceError(ctx context.Context, w http.ResponseWriter, err error, notFound string) {
	switch {
	case errors.Is(err, ports.ErrNotFound):
		httpx.Error(ctx, handler.logger, w, http.StatusNotFound, notFound, err)
	case errors.Is(err, ports.ErrConflict):
		httpx.Error(ctx, handler.logger, w, http.StatusConflict, err.Error(), err)
	case errors.Is(err, ports.ErrInvalidInput):
		httpx.Error(ctx, handler.logger, w, http.StatusBadRequest, err.Error(), err)
	default:
		httpx.Error(ctx, handler.logger, w, http.StatusInternalServerError, "database error", err)
	}
}

func (handler *ProductHTTPHandler) decodeError(ctx context.Context, w http.ResponseWriter, err error) {
	if errors.Is(err, httpx.ErrUnsupportedMediaType) {
		httpx.Error(ctx, handler.logger, w, http.StatusUnsupportedMediaType, err.Error(), err)
		return
	}
	httpx.Error(ctx, handler.logger, w, http.StatusBadRequest, err.Error(), err)
}
