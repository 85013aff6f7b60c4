package createorder

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/orders/dal/inventoryrpc"
	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/orders/service/models/order"
	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/orders/service/models/orderitem"
	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/orders/service/services/ordersvc"
	"github.com/go-playground/validator/v10"
)

// service is an interface for the service layer.
type service interface {
	CreateOrder(ctx context.Context, ord order.Order) (*order.Order, error)
}

// itemInCreateOrderRequest represents an item in a create order request.
type itemInCreateOrderRequest struct {
	ProductID int64 `json:"product_id" validate:"gt=0"`
	Quantity  int   `json:"quantity"   validate:"gt=0"`
}

// createOrderRequest represents a create order request.
type createOrderRequest struct {
	UserID int64                      `json:"user_id" validate:"gt=0"`
	Items  []itemInCreateOrderRequest `json:"items"   validate:"required,min=1,dive"`
}

// Validate validates the create order request.
func (r *createOrderRequest) Validate() error {
	return validator.New().Struct(r)
}

// toModel converts createOrderRequest to order.Order.
func (r *createOrderRequest) toModel() order.Order {
	items := make([]orderitem.OrderItem, len(r.Items))
	for i, item := range r.Items {
		items[i] = orderitem.OrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		}
	}

	return order.Order{
		UserID:     r.UserID,
		OrderItems: items,
	}
}

type errorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details,omitempty"`
}

// CreateOrder handles the create order request.
func CreateOrder(w http.ResponseWriter, r *http.Request, service service) {
	orderReq := createOrderRequest{}
	if err := json.NewDecoder(r.Body).Decode(&orderReq); err != nil {
		writeError(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
		slog.Error("Error decoding request body for create order", "error", err)

		return
	}

	if err := orderReq.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, errorResponse{Error: "User ID and a list of items are required"})
		slog.Error("Error validating request body for create order", "error", err)

		return
	}

	inserted, err := service.CreateOrder(r.Context(), orderReq.toModel())
	if err != nil {
		handleCreateOrderError(w, err)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(map[string]int64{"order_id": inserted.ID}); err != nil {
		slog.Error("Error sending response for create order", "error", err)
	}
}

func handleCreateOrderError(w http.ResponseWriter, err error) {
	var rejected *ordersvc.InventoryRejectedError

	switch {
	case errors.Is(err, ordersvc.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.As(err, &rejected):
		writeError(w, http.StatusBadRequest, errorResponse{
			Error:   "Inventory check failed",
			Details: rejected.Details,
		})
	case errors.Is(err, inventoryrpc.ErrTimeout),
		errors.Is(err, inventoryrpc.ErrBrokerUnavailable):
		writeError(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
		slog.Error("Inventory check unavailable", "error", err)
	default:
		writeError(w, http.StatusInternalServerError, errorResponse{Error: "Failed to create order"})
		slog.Error("Error creating order", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, resp errorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("Error sending error response", "error", err)
	}
}
