package tavily

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "key", req["api_key"])
		assert.Equal(t, "events in Tokyo", req["query"])
		assert.Equal(t, "basic", req["search_depth"])
		assert.EqualValues(t, 3, req["max_results"])

		_ = json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]string{
				{"title": "Tokyo this weekend", "url": "https://example.com/tokyo", "content": "Festivals galore."},
			},
		})
	}))
	defer srv.Close()

	svc := NewServiceWithBaseURL("key", srv.URL)
	results, err := svc.Search(context.Background(), "events in Tokyo")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Tokyo this weekend", results[0].Title)
}

func TestSearchErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"detail":"rate limited"}`))
	}))
	defer srv.Close()

	svc := NewServiceWithBaseURL("key", srv.URL)
	_, err := svc.Search(context.Background(), "anything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}
