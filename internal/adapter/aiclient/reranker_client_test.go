package aiclient_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"site-search/internal/adapter/aiclient"
	"site-search/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRerankerClient_Rerank(t *testing.T) {
	candidates := []domain.RerankCandidate{
		{ID: "v1", Content: "first content"},
		{ID: "v2", Content: "second content"},
	}

	t.Run("Maps positional scores back to candidate ids", func(t *testing.T) {
		var gotReq struct {
			Query    string `json:"query"`
			Contexts []struct {
				Text string `json:"text"`
			} `json:"contexts"`
		}
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
			_, _ = w.Write([]byte(`{"success":true,"result":{"response":[{"id":0,"score":0.2},{"id":1,"score":0.9}]}}`))
		}))
		defer srv.Close()

		client := aiclient.NewRerankerClient(srv.URL, "@cf/baai/bge-reranker-base", "", time.Second, testLogger())
		results, err := client.Rerank(context.Background(), "query", candidates)
		require.NoError(t, err)

		assert.Equal(t, "query", gotReq.Query)
		require.Len(t, gotReq.Contexts, 2)
		assert.Equal(t, "first content", gotReq.Contexts[0].Text)

		require.Len(t, results, 2)
		assert.Equal(t, domain.RerankResult{ID: "v1", Score: 0.2}, results[0])
		assert.Equal(t, domain.RerankResult{ID: "v2", Score: 0.9}, results[1])
	})

	t.Run("Invalid items are dropped not fatal", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"success":true,"result":{"response":[{"id":0,"score":0.5},{"id":7,"score":0.4},{"score":0.3},{"id":1}]}}`))
		}))
		defer srv.Close()

		client := aiclient.NewRerankerClient(srv.URL, "m", "", time.Second, testLogger())
		results, err := client.Rerank(context.Background(), "query", candidates)
		require.NoError(t, err)

		require.Len(t, results, 1)
		assert.Equal(t, "v1", results[0].ID)
	})

	t.Run("Empty candidate list skips the network call", func(t *testing.T) {
		var hits atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
		}))
		defer srv.Close()

		client := aiclient.NewRerankerClient(srv.URL, "m", "", time.Second, testLogger())
		results, err := client.Rerank(context.Background(), "query", nil)
		require.NoError(t, err)

		assert.Empty(t, results)
		assert.Equal(t, int32(0), hits.Load())
	})

	t.Run("Non-200 status is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "model busy", http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		client := aiclient.NewRerankerClient(srv.URL, "m", "", time.Second, testLogger())
		_, err := client.Rerank(context.Background(), "query", candidates)
		assert.ErrorContains(t, err, "returned 503")
	})

	t.Run("Unsuccessful response is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"success":false}`))
		}))
		defer srv.Close()

		client := aiclient.NewRerankerClient(srv.URL, "m", "", time.Second, testLogger())
		_, err := client.Rerank(context.Background(), "query", candidates)
		assert.ErrorContains(t, err, "reported failure")
	})

	t.Run("Sends the bearer token when configured", func(t *testing.T) {
		var gotAuth string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			_, _ = w.Write([]byte(`{"success":true,"result":{"response":[]}}`))
		}))
		defer srv.Close()

		client := aiclient.NewRerankerClient(srv.URL, "m", "token", time.Second, testLogger())
		_, err := client.Rerank(context.Background(), "query", candidates)
		require.NoError(t, err)
		assert.Equal(t, "Bearer token", gotAuth)
	})
}
