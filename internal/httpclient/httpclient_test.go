package httpclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostJSON_RoundTrip(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req map[string][]int64
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []int64{1, 2}, req["user_ids"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":1,"username":"Pranav"}]`))
	}))
	defer srv.Close()

	var out []struct {
		ID       int64  `json:"id"`
		Username string `json:"username"`
	}

	client := NewClient()
	err := client.PostJSON(context.Background(), srv.URL, map[string][]int64{"user_ids": {1, 2}}, &out)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Pranav", out[0].Username)
}

func TestPostJSON_NonSuccessStatusIsAnError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient()
	err := client.PostJSON(context.Background(), srv.URL, map[string]string{}, nil)
	assert.ErrorContains(t, err, "status 500")
}

func TestPostJSON_ConnectionRefused(t *testing.T) {
	t.Parallel()

	client := NewClient()
	err := client.PostJSON(context.Background(), "http://127.0.0.1:1", map[string]string{}, nil)
	assert.Error(t, err)
}
