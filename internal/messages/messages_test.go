package messages

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStockCheckResponse_Failed(t *testing.T) {
	t.Parallel()

	assert.False(t, (&StockCheckResponse{Status: StatusSuccess}).Failed())
	assert.True(t, (&StockCheckResponse{Status: StatusFail}).Failed())
	assert.True(t, (&StockCheckResponse{}).Failed())
}

func TestEncodeDecode_StockCheckRequest(t *testing.T) {
	t.Parallel()

	body, err := Encode(StockCheckRequest{Items: []Item{
		{ProductID: 101, Quantity: 2},
	}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"items":[{"product_id":101,"quantity":2}]}`, string(body))

	var decoded StockCheckRequest
	require.NoError(t, Decode(body, &decoded))
	assert.Equal(t, int64(101), decoded.Items[0].ProductID)
	assert.Equal(t, 2, decoded.Items[0].Quantity)
}

func TestEncode_OrderCreatedEventOmitsEmptyReservation(t *testing.T) {
	t.Parallel()

	body, err := Encode(OrderCreatedEvent{
		OrderID: 42,
		Items:   []Item{{ProductID: 103, Quantity: 1}},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"order_id":42,"items":[{"product_id":103,"quantity":1}]}`, string(body))
}

func TestDecode_RejectsMalformedBody(t *testing.T) {
	t.Parallel()

	var resp StockCheckResponse
	assert.Error(t, Decode([]byte("not json"), &resp))
}
