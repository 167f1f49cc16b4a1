package domain_test

import (
	"testing"

	"site-search/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestDetectQueryLang(t *testing.T) {
	t.Run("Han runes mark the query as Chinese", func(t *testing.T) {
		assert.Equal(t, "zh", domain.DetectQueryLang("什么是随机游走", "en"))
		assert.Equal(t, "zh", domain.DetectQueryLang("what is 随机", "en"))
	})

	t.Run("Latin queries fall back to the default language", func(t *testing.T) {
		assert.Equal(t, "en", domain.DetectQueryLang("random walk", "en"))
		assert.Equal(t, "en", domain.DetectQueryLang("", "en"))
	})
}

func TestRerankPolicy(t *testing.T) {
	policy := domain.NewRerankPolicy("en")

	t.Run("Allows the default pair only", func(t *testing.T) {
		assert.True(t, policy.Allows("en", "en"))
		assert.False(t, policy.Allows("zh", "en"))
		assert.False(t, policy.Allows("en", "zh"))
		assert.False(t, policy.Allows("zh", "zh"))
	})

	t.Run("Empty policy allows nothing", func(t *testing.T) {
		assert.False(t, domain.RerankPolicy{}.Allows("en", "en"))
	})
}

func TestVectorID(t *testing.T) {
	t.Run("Is deterministic", func(t *testing.T) {
		assert.Equal(t, domain.VectorID("a1-chunk-0"), domain.VectorID("a1-chunk-0"))
	})

	t.Run("Distinguishes keys", func(t *testing.T) {
		assert.NotEqual(t, domain.VectorID("a1-chunk-0"), domain.VectorID("a1-chunk-1"))
	})

	t.Run("Emits lowercase hex", func(t *testing.T) {
		id := domain.VectorID("a1-chunk-header")
		assert.Len(t, id, 64)
		assert.Regexp(t, "^[0-9a-f]+$", id)
	})
}
