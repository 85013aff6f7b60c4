package order

// QueryOrdersModel represents filter parameters for querying orders.
type QueryOrdersModel struct {
	Ids     []int64 `json:"ids,omitempty"     schema:"-"`
	UserIds []int64 `json:"userIds,omitempty" schema:"-"`
	Limit   int     `json:"limit,omitempty"   schema:"limit"`
	Offset  int     `json:"offset,omitempty"  schema:"offset"`
}
