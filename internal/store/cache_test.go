package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerationCacheRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	hash := HashPrompt("system", "prompt")

	_, ok, err := db.GetCachedGeneration(ctx, hash)
	require.NoError(t, err)
	assert.False(t, ok, "cache should miss before storing")

	require.NoError(t, db.CacheGeneration(ctx, hash, "test/model", "first response"))

	response, ok, err := db.GetCachedGeneration(ctx, hash)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "first response", response)

	// Same hash replaces the previous entry.
	require.NoError(t, db.CacheGeneration(ctx, hash, "test/model", "second response"))

	response, ok, err = db.GetCachedGeneration(ctx, hash)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "second response", response)
}

func TestHashPrompt(t *testing.T) {
	assert.Equal(t, HashPrompt("a", "b"), HashPrompt("a", "b"))
	assert.NotEqual(t, HashPrompt("a", "b"), HashPrompt("b", "a"))
	assert.NotEqual(t, HashPrompt("ab", ""), HashPrompt("a", "b"),
		"system and prompt boundaries should matter")
	assert.Len(t, HashPrompt("", ""), 64)
}

type countingGenerator struct {
	calls    int
	response string
	err      error
}

func (g *countingGenerator) Generate(ctx context.Context, system, prompt string, maxTokens int) (string, error) {
	g.calls++
	return g.response, g.err
}

func TestCachingGenerator(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	inner := &countingGenerator{response: "generated text"}
	gen := &CachingGenerator{DB: db, Inner: inner, Model: "test/model"}

	text, err := gen.Generate(ctx, "sys", "prompt", 100)
	require.NoError(t, err)
	assert.Equal(t, "generated text", text)
	assert.Equal(t, 1, inner.calls)

	// Second identical request is served from the cache.
	text, err = gen.Generate(ctx, "sys", "prompt", 100)
	require.NoError(t, err)
	assert.Equal(t, "generated text", text)
	assert.Equal(t, 1, inner.calls, "inner generator should not be called again")

	// A different prompt misses the cache.
	_, err = gen.Generate(ctx, "sys", "other prompt", 100)
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
}

func TestCachingGeneratorDoesNotCacheFailures(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	inner := &countingGenerator{err: errors.New("model unavailable")}
	gen := &CachingGenerator{DB: db, Inner: inner, Model: "test/model"}

	_, err := gen.Generate(ctx, "sys", "prompt", 100)
	require.Error(t, err)
	assert.Equal(t, 1, inner.calls)

	inner.err = nil
	inner.response = "recovered"
	text, err := gen.Generate(ctx, "sys", "prompt", 100)
	require.NoError(t, err)
	assert.Equal(t, "recovered", text)
	assert.Equal(t, 2, inner.calls, "failure should not have been cached")
}
