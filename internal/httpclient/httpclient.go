package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// Client is a traced HTTP client shared by the remote data access layers.
// Timeouts are controlled entirely by the caller's context.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a client with a pooled transport.
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 100,
			},
		},
	}
}

// PostJSON sends body as JSON to url and decodes the JSON response into out.
// A non-2xx status is returned as an error.
func (c *Client) PostJSON(ctx context.Context, url string, body any, out any) error {
	ctx, span := otel.Tracer("httpclient").Start(ctx, "POST "+url,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.url", url),
			attribute.String("http.method", http.MethodPost),
		),
	)
	defer span.End()

	payload, err := json.Marshal(body)
	if err != nil {
		span.RecordError(err)

		return fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		span.RecordError(err)

		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return fmt.Errorf("request to %s failed: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := fmt.Errorf("request to %s returned status %d", url, resp.StatusCode)
		span.SetStatus(codes.Error, err.Error())

		return err
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		span.RecordError(err)

		return fmt.Errorf("failed to decode response from %s: %w", url, err)
	}

	return nil
}
