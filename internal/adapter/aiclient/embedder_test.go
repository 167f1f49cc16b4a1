package aiclient_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"site-search/internal/adapter/aiclient"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestEmbedder_Encode(t *testing.T) {
	t.Run("Posts texts to the model run endpoint", func(t *testing.T) {
		var gotPath, gotAuth string
		var gotBody map[string][]string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotAuth = r.Header.Get("Authorization")
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
			_, _ = w.Write([]byte(`{"success":true,"result":{"data":[[0.1,0.2],[0.3,0.4]]}}`))
		}))
		defer srv.Close()

		embedder := aiclient.NewEmbedder(srv.URL, "@cf/baai/bge-m3", "secret", time.Second, testLogger())
		vectors, err := embedder.Encode(context.Background(), []string{"one", "two"})
		require.NoError(t, err)

		assert.Equal(t, "/ai/run/@cf/baai/bge-m3", gotPath)
		assert.Equal(t, "Bearer secret", gotAuth)
		assert.Equal(t, []string{"one", "two"}, gotBody["text"])
		require.Len(t, vectors, 2)
		assert.Equal(t, []float32{0.1, 0.2}, vectors[0])
	})

	t.Run("Omits the auth header without a token", func(t *testing.T) {
		var gotAuth string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			_, _ = w.Write([]byte(`{"success":true,"result":{"data":[[0.1]]}}`))
		}))
		defer srv.Close()

		embedder := aiclient.NewEmbedder(srv.URL, "m", "", time.Second, testLogger())
		_, err := embedder.Encode(context.Background(), []string{"one"})
		require.NoError(t, err)
		assert.Empty(t, gotAuth)
	})

	t.Run("Non-200 status is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "upstream exploded", http.StatusBadGateway)
		}))
		defer srv.Close()

		embedder := aiclient.NewEmbedder(srv.URL, "m", "", time.Second, testLogger())
		_, err := embedder.Encode(context.Background(), []string{"one"})
		assert.ErrorContains(t, err, "returned 502")
	})

	t.Run("Unsuccessful response is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"success":false,"result":{"data":[]}}`))
		}))
		defer srv.Close()

		embedder := aiclient.NewEmbedder(srv.URL, "m", "", time.Second, testLogger())
		_, err := embedder.Encode(context.Background(), []string{"one"})
		assert.ErrorContains(t, err, "malformed embed response")
	})

	t.Run("Vector count mismatch is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"success":true,"result":{"data":[[0.1]]}}`))
		}))
		defer srv.Close()

		embedder := aiclient.NewEmbedder(srv.URL, "m", "", time.Second, testLogger())
		_, err := embedder.Encode(context.Background(), []string{"one", "two"})
		assert.ErrorContains(t, err, "got 1 vectors for 2 texts")
	})

	t.Run("Version reports the model", func(t *testing.T) {
		embedder := aiclient.NewEmbedder("http://x", "@cf/baai/bge-m3", "", time.Second, testLogger())
		assert.Equal(t, "@cf/baai/bge-m3", embedder.Version())
	})
}
