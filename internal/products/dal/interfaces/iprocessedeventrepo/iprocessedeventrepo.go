package iprocessedeventrepo

import (
	"context"
)

// IProcessedEventRepository records which order created events have already
// been applied, making redelivery a no-op.
type IProcessedEventRepository interface {
	// MarkProcessed records the order id; inserted is false when the event
	// was processed before.
	MarkProcessed(ctx context.Context, orderID int64) (inserted bool, err error)
}
