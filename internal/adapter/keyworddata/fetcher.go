package keyworddata

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"site-search/internal/domain"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/net/html"
	"golang.org/x/sync/singleflight"
)

// cacheSize leaves room for a handful of per-language index URLs.
const cacheSize = 8

// Fetcher loads the keyword document index over HTTP. A successful fetch is
// cached for the process lifetime; concurrent callers share one in-flight
// request through singleflight, and a failed fetch caches nothing so a later
// call retries.
type Fetcher struct {
	url    string
	client *http.Client
	cache  *lru.Cache[string, []domain.KeywordDocument]
	group  singleflight.Group
	logger *slog.Logger
}

// NewFetcher creates a document fetcher for the given index URL.
func NewFetcher(url string, client *http.Client, logger *slog.Logger) (*Fetcher, error) {
	cache, err := lru.New[string, []domain.KeywordDocument](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create document cache: %w", err)
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Fetcher{
		url:    url,
		client: client,
		cache:  cache,
		logger: logger,
	}, nil
}

// Documents returns the parsed document index, fetching it on first use.
func (f *Fetcher) Documents(ctx context.Context) ([]domain.KeywordDocument, error) {
	if docs, ok := f.cache.Get(f.url); ok {
		return docs, nil
	}

	v, err, shared := f.group.Do(f.url, func() (interface{}, error) {
		docs, err := f.fetch(ctx)
		if err != nil {
			return nil, err
		}
		f.cache.Add(f.url, docs)
		return docs, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		f.logger.Debug("keyword_fetch_shared", slog.String("url", f.url))
	}
	return v.([]domain.KeywordDocument), nil
}

func (f *Fetcher) fetch(ctx context.Context) ([]domain.KeywordDocument, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create keyword data request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch keyword data: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("keyword data fetch returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read keyword data: %w", err)
	}

	docs, err := Parse(body)
	if err != nil {
		return nil, err
	}

	f.logger.Info("keyword_data_loaded",
		slog.String("url", f.url),
		slog.Int("document_count", len(docs)))
	return docs, nil
}

// rawDocument keeps title and content as pointers so entries missing either
// field can be dropped rather than defaulted.
type rawDocument struct {
	Title     *string `json:"title"`
	Content   *string `json:"content"`
	Permalink string  `json:"permalink"`
	URL       string  `json:"url"`
}

// Parse decodes the index payload: a JSON array when the trimmed payload
// starts with '[', newline-delimited JSON otherwise. Entries without a string
// title or content are silently dropped, and content is stripped of markup.
func Parse(payload []byte) ([]domain.KeywordDocument, error) {
	trimmed := strings.TrimSpace(string(payload))
	if trimmed == "" {
		return nil, nil
	}

	var entries []json.RawMessage
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal([]byte(trimmed), &entries); err != nil {
			return nil, fmt.Errorf("failed to parse keyword data array: %w", err)
		}
	} else {
		scanner := bufio.NewScanner(strings.NewReader(trimmed))
		scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line != "" {
				entries = append(entries, json.RawMessage(line))
			}
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("failed to scan keyword data lines: %w", err)
		}
	}

	docs := make([]domain.KeywordDocument, 0, len(entries))
	for _, entry := range entries {
		var raw rawDocument
		if err := json.Unmarshal(entry, &raw); err != nil {
			continue
		}
		if raw.Title == nil || raw.Content == nil {
			continue
		}
		docs = append(docs, domain.KeywordDocument{
			Title:        *raw.Title,
			Content:      *raw.Content,
			Permalink:    raw.Permalink,
			URL:          raw.URL,
			PlainContent: StripTags(*raw.Content),
		})
	}
	return docs, nil
}

// StripTags extracts the text content of an HTML fragment, dropping script
// and style bodies.
func StripTags(fragment string) string {
	if !strings.ContainsRune(fragment, '<') {
		return fragment
	}

	tokenizer := html.NewTokenizer(strings.NewReader(fragment))
	var b strings.Builder
	skipDepth := 0
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return b.String()
		case html.StartTagToken:
			name, _ := tokenizer.TagName()
			if tag := string(name); tag == "script" || tag == "style" {
				skipDepth++
			}
		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			if tag := string(name); (tag == "script" || tag == "style") && skipDepth > 0 {
				skipDepth--
			}
		case html.TextToken:
			if skipDepth == 0 {
				b.Write(tokenizer.Text())
			}
		}
	}
}

var _ domain.KeywordDocumentSource = (*Fetcher)(nil)
