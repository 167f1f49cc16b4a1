// Package main is the entry point for the searchctl CLI, which runs the
// offline chunking and indexing stages of the search pipeline.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"site-search/internal/di"
	"site-search/internal/domain"
	"site-search/internal/infra"
	"site-search/internal/infra/config"
	"site-search/internal/infra/logger"
	"site-search/internal/usecase"
)

var (
	contentDir string
	outputDir  string
	langs      []string
	log        *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "searchctl",
	Short: "Offline pipeline for the site search index",
	Long: `searchctl runs the build-time stages of the search pipeline.

The chunk command splits per-language article collections into retrieval
units and writes one artifact per language. The index command embeds an
artifact and upserts the vectors into the language's index.

Example usage:
  searchctl chunk --content-dir ./content --output-dir ./artifacts
  searchctl index --output-dir ./artifacts --lang en`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		log = logger.New()
		slog.SetDefault(log)
		return nil
	},
}

var chunkCmd = &cobra.Command{
	Use:   "chunk",
	Short: "Split article collections into retrieval chunks",
	RunE:  runChunk,
}

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Embed chunk artifacts and upsert them into the vector index",
	RunE:  runIndex,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&contentDir, "content-dir", "content", "directory holding content.<lang>.json collections")
	rootCmd.PersistentFlags().StringVar(&outputDir, "output-dir", "artifacts", "directory for final-chunks.<lang>.json artifacts")
	rootCmd.PersistentFlags().StringSliceVar(&langs, "lang", []string{"en", "zh"}, "language codes to process")

	rootCmd.AddCommand(chunkCmd)
	rootCmd.AddCommand(indexCmd)
}

func runChunk(cmd *cobra.Command, args []string) error {
	// Chunking has no external dependencies, so it skips the full container.
	chunkUsecase := usecase.NewChunkArticlesUsecase(domain.NewChunker(domain.DefaultChunkerConfig()), log)

	for _, lang := range langs {
		inPath := filepath.Join(contentDir, fmt.Sprintf("content.%s.json", lang))
		articles, err := readArticles(inPath)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", inPath, err)
		}

		chunks := chunkUsecase.Execute(articles)

		outPath := filepath.Join(outputDir, fmt.Sprintf("final-chunks.%s.json", lang))
		if err := writeChunks(outPath, chunks); err != nil {
			return fmt.Errorf("failed to write %s: %w", outPath, err)
		}

		log.Info("chunk_artifact_written",
			slog.String("lang", lang),
			slog.String("path", outPath),
			slog.Int("chunk_count", len(chunks)))
	}
	return nil
}

func runIndex(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)
	pool, err := infra.NewPostgresDB(cmd.Context(), dsn)
	if err != nil {
		return fmt.Errorf("failed to connect to db: %w", err)
	}
	defer pool.Close()

	components, err := di.NewApplicationComponents(cfg, pool, log)
	if err != nil {
		return err
	}

	for _, lang := range langs {
		inPath := filepath.Join(outputDir, fmt.Sprintf("final-chunks.%s.json", lang))
		chunks, err := readChunks(inPath)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", inPath, err)
		}

		stats, err := components.IndexUsecase.Execute(cmd.Context(), lang, chunks)
		if err != nil {
			return fmt.Errorf("indexing failed for %s: %w", lang, err)
		}

		log.Info("index_run_completed",
			slog.String("lang", lang),
			slog.Int("indexed", stats.Indexed),
			slog.Int("skipped", stats.Skipped))
	}
	return nil
}

func readArticles(path string) ([]domain.Article, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var articles []domain.Article
	if err := json.Unmarshal(data, &articles); err != nil {
		return nil, err
	}
	return articles, nil
}

func readChunks(path string) ([]domain.Chunk, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var chunks []domain.Chunk
	if err := json.Unmarshal(data, &chunks); err != nil {
		return nil, err
	}
	return chunks, nil
}

func writeChunks(path string, chunks []domain.Chunk) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(chunks, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func main() {
	ctx := context.Background()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Stderr.WriteString("Error: " + err.Error() + "\n")
		os.Exit(1)
	}
}
