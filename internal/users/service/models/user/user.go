package user

// User represents an account that can place orders.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}
