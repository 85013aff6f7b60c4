package messages

import (
	"encoding/json"
	"fmt"
)

// Queue names shared by the orders and products services.
const (
	InventoryCheckQueue = "inventory_check_request"
	OrderCreatedQueue   = "order_created"
)

// Stock check result statuses.
const (
	StatusSuccess = "success"
	StatusFail    = "fail"
)

const ContentTypeJSON = "application/json"

// Item is one requested product line. It appears in both the stock check
// request and the order created event.
type Item struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// StockCheckRequest asks the products service whether every line can be
// satisfied. The correlation id and reply queue ride the AMQP message
// properties, not the body.
type StockCheckRequest struct {
	Items []Item `json:"items"`
}

// StockCheckResponse is the reply to a StockCheckRequest. When Status is
// "fail", Details maps each failing product id to a human-readable reason.
// On success ReservationID identifies the hold placed on the stock.
type StockCheckResponse struct {
	Status        string            `json:"status"`
	Details       map[string]string `json:"details,omitempty"`
	ReservationID string            `json:"reservation_id,omitempty"`
}

// Failed reports whether the check rejected the request.
func (r *StockCheckResponse) Failed() bool {
	return r.Status != StatusSuccess
}

// OrderCreatedEvent is published after an order is durably recorded. The
// order id doubles as the idempotency key for the decrement consumer.
type OrderCreatedEvent struct {
	OrderID       int64  `json:"order_id"`
	ReservationID string `json:"reservation_id,omitempty"`
	Items         []Item `json:"items"`
}

// Encode serializes a payload for publishing.
func Encode(v any) ([]byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode message: %w", err)
	}

	return body, nil
}

// Decode deserializes a message body into the given payload.
func Decode(body []byte, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to decode message: %w", err)
	}

	return nil
}
