package inbox

import (
	"time"
)

// InboxMessage represents a consumed message whose processing failed and is
// waiting for the inbox worker to retry it.
type InboxMessage struct {
	ID          int64
	MessageID   string
	QueueName   string
	RoutingKey  string
	Payload     []byte
	ContentType string
	RetryCount  int
	MaxRetries  int
	LastError   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	NextRetryAt time.Time
}
