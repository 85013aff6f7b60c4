package enrichment

// ProductInfo is a product record fetched from the products service.
type ProductInfo struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
	Inventory  int    `json:"inventory"`
}

// UserInfo is a user record fetched from the users service. When the batched
// fetch omitted the user, Error carries an explicit "not found" marker and
// the remaining fields are zero.
type UserInfo struct {
	ID       int64  `json:"id,omitempty"`
	Username string `json:"username,omitempty"`
	Error    string `json:"error,omitempty"`
}

// EnrichedItem is an order line joined with its product details. Lines whose
// product the batched fetch did not return are kept and tagged as unresolved
// so callers can tell "no items" from "items that failed to resolve".
type EnrichedItem struct {
	Product    *ProductInfo `json:"product,omitempty"`
	ProductID  int64        `json:"product_id"`
	Quantity   int          `json:"quantity"`
	Unresolved bool         `json:"unresolved,omitempty"`
}

// EnrichedOrder is an order joined with its owning user and product details.
type EnrichedOrder struct {
	OrderID int64          `json:"order_id"`
	User    UserInfo       `json:"user"`
	Items   []EnrichedItem `json:"items"`
}
