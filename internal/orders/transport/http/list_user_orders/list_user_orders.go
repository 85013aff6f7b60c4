package listuserorders

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/orders/service/models/enrichment"
	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/orders/service/models/order"
	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/orders/service/services/ordersvc"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/schema"
)

// service is an interface for the service layer.
type service interface {
	GetUserOrders(ctx context.Context, userID int64, filter *order.QueryOrdersModel) ([]enrichment.EnrichedOrder, error)
}

// ListUserOrders handles the enriched user orders request.
func ListUserOrders(w http.ResponseWriter, r *http.Request, service service) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user id")

		return
	}

	filter := &order.QueryOrdersModel{}
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)
	if err := decoder.Decode(filter, r.URL.Query()); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid query parameters")
		slog.Error("Error decoding query parameters for list user orders", "error", err)

		return
	}

	orders, err := service.GetUserOrders(r.Context(), userID, filter)
	if err != nil {
		if errors.Is(err, ordersvc.ErrUpstreamUnavailable) {
			writeError(w, http.StatusServiceUnavailable, "Failed to fetch related data")
			slog.Error("Enrichment upstream unavailable", "error", err)

			return
		}

		writeError(w, http.StatusInternalServerError, "Failed to get orders")
		slog.Error("Error getting user orders", "error", err)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(orders); err != nil {
		slog.Error("Error sending response for list user orders", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": msg}); err != nil {
		slog.Error("Error sending error response", "error", err)
	}
}
