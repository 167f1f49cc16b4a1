package config

import (
	"os"
	"strconv"
	"strings"
)

// AIConfig points at the embedding and reranking gateway.
type AIConfig struct {
	BaseURL            string
	APIToken           string
	EmbeddingModel     string
	RerankModel        string
	EmbeddingDimension int
	Timeout            int // seconds
}

// SearchConfig holds the retrieval pipeline tunables.
type SearchConfig struct {
	TopK                    int
	FinalN                  int
	VectorScoreThreshold    float64
	RerankScoreThreshold    float64
	MaxContextLength        int
	ContentFetchConcurrency int
	IndexBaseName           string
	Languages               []string
	DefaultLang             string
	AggregatePerArticle     bool
	SourceTimeout           int // seconds, per hybrid source
}

// RerankConfig gates the cross-encoder path.
type RerankConfig struct {
	Enabled bool
	Timeout int // seconds
}

// KeywordConfig points at the client-style document index.
type KeywordConfig struct {
	DataURL  string
	BasePath string
	Timeout  int // seconds
}

type Config struct {
	Env        string
	Port       string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	AI         AIConfig
	Search     SearchConfig
	Rerank     RerankConfig
	Keyword    KeywordConfig
}

func Load() *Config {
	return &Config{
		Env:        getEnv("ENV", "development"),
		Port:       getEnv("PORT", "9020"),
		DBHost:     getEnv("DB_HOST", "search-db"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "search_user"),
		DBPassword: getSecret("DB_PASSWORD", "DB_PASSWORD_FILE", "search_password"),
		DBName:     getEnv("DB_NAME", "search_db"),
		AI: AIConfig{
			BaseURL:            getEnv("AI_GATEWAY_URL", "http://ai-gateway:8787"),
			APIToken:           getSecret("AI_API_TOKEN", "AI_API_TOKEN_FILE", ""),
			EmbeddingModel:     getEnv("EMBEDDING_MODEL", "@cf/baai/bge-m3"),
			RerankModel:        getEnv("RERANKER_MODEL", "@cf/baai/bge-reranker-base"),
			EmbeddingDimension: getEnvInt("EMBEDDING_DIMENSION", 768),
			Timeout:            getEnvInt("AI_TIMEOUT", 30),
		},
		Search: SearchConfig{
			TopK:                    getEnvInt("SEARCH_TOP_K", 20),
			FinalN:                  getEnvInt("SEARCH_FINAL_N", 10),
			VectorScoreThreshold:    getEnvFloat("VECTOR_SCORE_THRESHOLD", 0.46),
			RerankScoreThreshold:    getEnvFloat("RERANK_SCORE_THRESHOLD", 0.1),
			MaxContextLength:        getEnvInt("MAX_CONTEXT_LENGTH", 2000),
			ContentFetchConcurrency: getEnvInt("CONTENT_FETCH_CONCURRENCY", 4),
			IndexBaseName:           getEnv("INDEX_BASE_NAME", "semantic-search"),
			Languages:               getEnvList("SEARCH_LANGUAGES", []string{"en", "zh"}),
			DefaultLang:             getEnv("DEFAULT_LANG", "en"),
			AggregatePerArticle:     getEnvBool("AGGREGATE_PER_ARTICLE", false),
			SourceTimeout:           getEnvInt("SEARCH_SOURCE_TIMEOUT", 20),
		},
		Rerank: RerankConfig{
			Enabled: getEnvBool("RERANK_ENABLED", true),
			Timeout: getEnvInt("RERANK_TIMEOUT", 15),
		},
		Keyword: KeywordConfig{
			DataURL:  getEnv("KEYWORD_DATA_URL", "http://site/index.json"),
			BasePath: getEnv("SITE_BASE_PATH", ""),
			Timeout:  getEnvInt("KEYWORD_TIMEOUT", 10),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getSecret(envKey, fileEnvKey, fallback string) string {
	if value, ok := os.LookupEnv(envKey); ok {
		return value
	}
	if filePath, ok := os.LookupEnv(fileEnvKey); ok {
		content, err := os.ReadFile(filePath)
		if err == nil {
			return strings.TrimSpace(string(content))
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	if value, ok := os.LookupEnv(key); ok {
		var items []string
		for _, item := range strings.Split(value, ",") {
			if trimmed := strings.TrimSpace(item); trimmed != "" {
				items = append(items, trimmed)
			}
		}
		if len(items) > 0 {
			return items
		}
	}
	return fallback
}
