package product

// Product represents a product with its current inventory count. Inventory
// never goes negative; the decrement path enforces the floor.
type Product struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
	Inventory  int    `json:"inventory"`
}
