package keyworddata_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"site-search/internal/adapter/keyworddata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestParse(t *testing.T) {
	t.Run("Parses a JSON array", func(t *testing.T) {
		payload := `[{"title":"A","content":"body a","permalink":"/a"},{"title":"B","content":"body b","url":"https://example.com/b"}]`
		docs, err := keyworddata.Parse([]byte(payload))
		require.NoError(t, err)

		require.Len(t, docs, 2)
		assert.Equal(t, "A", docs[0].Title)
		assert.Equal(t, "/a", docs[0].Permalink)
		assert.Equal(t, "https://example.com/b", docs[1].URL)
	})

	t.Run("Parses newline-delimited JSON", func(t *testing.T) {
		payload := `{"title":"A","content":"body a","permalink":"/a"}
{"title":"B","content":"body b","permalink":"/b"}`
		docs, err := keyworddata.Parse([]byte(payload))
		require.NoError(t, err)
		assert.Len(t, docs, 2)
	})

	t.Run("Drops entries missing title or content", func(t *testing.T) {
		payload := `[{"title":"ok","content":"ok"},{"title":"no content"},{"content":"no title"},{"title":null,"content":"x"}]`
		docs, err := keyworddata.Parse([]byte(payload))
		require.NoError(t, err)

		require.Len(t, docs, 1)
		assert.Equal(t, "ok", docs[0].Title)
	})

	t.Run("Skips malformed lines", func(t *testing.T) {
		payload := `{"title":"A","content":"a"}
not json at all
{"title":"B","content":"b"}`
		docs, err := keyworddata.Parse([]byte(payload))
		require.NoError(t, err)
		assert.Len(t, docs, 2)
	})

	t.Run("Strips markup into plain content", func(t *testing.T) {
		payload := `[{"title":"A","content":"<p>Hello <em>world</em></p><script>evil()</script>"}]`
		docs, err := keyworddata.Parse([]byte(payload))
		require.NoError(t, err)

		require.Len(t, docs, 1)
		assert.Equal(t, "Hello world", docs[0].PlainContent)
		assert.Contains(t, docs[0].Content, "<p>")
	})

	t.Run("Empty payload yields no documents", func(t *testing.T) {
		docs, err := keyworddata.Parse([]byte("  \n "))
		assert.NoError(t, err)
		assert.Empty(t, docs)
	})
}

func TestStripTags(t *testing.T) {
	t.Run("Plain text passes through untouched", func(t *testing.T) {
		assert.Equal(t, "no markup here", keyworddata.StripTags("no markup here"))
	})

	t.Run("Drops script and style bodies", func(t *testing.T) {
		got := keyworddata.StripTags(`before<style>.x{color:red}</style>after<script>var a=1;</script>`)
		assert.Equal(t, "beforeafter", got)
	})
}

func TestFetcher_Documents(t *testing.T) {
	t.Run("Caches a successful fetch", func(t *testing.T) {
		var hits atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			_, _ = w.Write([]byte(`[{"title":"A","content":"body","permalink":"/a"}]`))
		}))
		defer srv.Close()

		fetcher, err := keyworddata.NewFetcher(srv.URL, srv.Client(), testLogger())
		require.NoError(t, err)

		for i := 0; i < 3; i++ {
			docs, err := fetcher.Documents(context.Background())
			require.NoError(t, err)
			assert.Len(t, docs, 1)
		}
		assert.Equal(t, int32(1), hits.Load())
	})

	t.Run("Concurrent callers share one in-flight request", func(t *testing.T) {
		var hits atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			time.Sleep(30 * time.Millisecond)
			_, _ = w.Write([]byte(`[{"title":"A","content":"body","permalink":"/a"}]`))
		}))
		defer srv.Close()

		fetcher, err := keyworddata.NewFetcher(srv.URL, srv.Client(), testLogger())
		require.NoError(t, err)

		var wg sync.WaitGroup
		for i := 0; i < 5; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				docs, err := fetcher.Documents(context.Background())
				assert.NoError(t, err)
				assert.Len(t, docs, 1)
			}()
		}
		wg.Wait()
		assert.Equal(t, int32(1), hits.Load())
	})

	t.Run("A failed fetch is not cached", func(t *testing.T) {
		var hits atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if hits.Add(1) == 1 {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			_, _ = w.Write([]byte(`[{"title":"A","content":"body","permalink":"/a"}]`))
		}))
		defer srv.Close()

		fetcher, err := keyworddata.NewFetcher(srv.URL, srv.Client(), testLogger())
		require.NoError(t, err)

		_, err = fetcher.Documents(context.Background())
		assert.ErrorContains(t, err, "returned 500")

		docs, err := fetcher.Documents(context.Background())
		require.NoError(t, err)
		assert.Len(t, docs, 1)
		assert.Equal(t, int32(2), hits.Load())
	})
}
