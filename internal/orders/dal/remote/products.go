package remote

import (
	"context"
	"fmt"

	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/httpclient"
	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/orders/service/models/enrichment"
	"github.com/spf13/viper"
)

// ProductsClient fetches product records from the products service.
type ProductsClient struct {
	client  *httpclient.Client
	baseURL string
}

// NewProductsClient creates a products service client.
func NewProductsClient(client *httpclient.Client) *ProductsClient {
	baseURL := viper.GetString("services.products_url")
	if baseURL == "" {
		panic("services.products_url is not set in config")
	}

	return &ProductsClient{
		client:  client,
		baseURL: baseURL,
	}
}

// FetchProducts retrieves product records for the given ids in one batched
// call. Ids the products service does not know are simply absent from the
// result.
func (c *ProductsClient) FetchProducts(ctx context.Context, ids []int64) ([]enrichment.ProductInfo, error) {
	var products []enrichment.ProductInfo

	req := map[string][]int64{"product_ids": ids}
	if err := c.client.PostJSON(ctx, c.baseURL+"/products/fetch", req, &products); err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}

	return products, nil
}
