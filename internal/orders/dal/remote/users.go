package remote

import (
	"context"
	"fmt"

	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/httpclient"
	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/orders/service/models/enrichment"
	"github.com/spf13/viper"
)

// UsersClient fetches user records from the users service.
type UsersClient struct {
	client  *httpclient.Client
	baseURL string
}

// NewUsersClient creates a users service client.
func NewUsersClient(client *httpclient.Client) *UsersClient {
	baseURL := viper.GetString("services.users_url")
	if baseURL == "" {
		panic("services.users_url is not set in config")
	}

	return &UsersClient{
		client:  client,
		baseURL: baseURL,
	}
}

// FetchUsers retrieves user records for the given ids in one batched call.
func (c *UsersClient) FetchUsers(ctx context.Context, ids []int64) ([]enrichment.UserInfo, error) {
	var users []enrichment.UserInfo

	req := map[string][]int64{"user_ids": ids}
	if err := c.client.PostJSON(ctx, c.baseURL+"/users/fetch", req, &users); err != nil {
		return nil, fmt.Errorf("failed to fetch users: %w", err)
	}

	return users, nil
}
