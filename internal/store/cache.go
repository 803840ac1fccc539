package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"errors"
	"fmt"

	"github.com/demoplan/demoplan/internal/logging"
)

// CacheGeneration stores a model response for a prompt hash. An existing
// entry for the same hash is replaced.
func (db *DB) CacheGeneration(ctx context.Context, promptHash, model, response string) error {
	_, err := db.ExecContext(ctx, `
		REPLACE INTO generation_cache (prompt_hash, model, response)
		VALUES (?, ?, ?)
	`, promptHash, model, response)
	if err != nil {
		return fmt.Errorf("failed to cache generation: %w", err)
	}
	return nil
}

// GetCachedGeneration retrieves a cached response, if one exists.
func (db *DB) GetCachedGeneration(ctx context.Context, promptHash string) (string, bool, error) {
	var response string
	err := db.QueryRowContext(ctx, `
		SELECT response FROM generation_cache WHERE prompt_hash = ?
	`, promptHash).Scan(&response)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get cached generation: %w", err)
	}
	return response, true, nil
}

// HashPrompt creates a SHA256 hash over the system and user prompts.
func HashPrompt(system, prompt string) string {
	h := sha256.New()
	h.Write([]byte(system))
	h.Write([]byte{0})
	h.Write([]byte(prompt))
	return fmt.Sprintf("%x", h.Sum(nil))
}

// Generator produces completion text for a prompt.
type Generator interface {
	Generate(ctx context.Context, system, prompt string, maxTokens int) (string, error)
}

// CachingGenerator wraps a Generator and serves repeated prompts from the
// generation cache instead of calling the model again.
type CachingGenerator struct {
	DB    *DB
	Inner Generator
	Model string
}

// Generate returns the cached response for this prompt if one exists, and
// otherwise calls the inner generator and caches its response. Cache errors
// are logged and never fail the generation.
func (g *CachingGenerator) Generate(ctx context.Context, system, prompt string, maxTokens int) (string, error) {
	hash := HashPrompt(system, prompt)

	response, ok, err := g.DB.GetCachedGeneration(ctx, hash)
	if err != nil {
		logging.Warn("generation cache lookup failed", "error", err)
	} else if ok {
		logging.Debug("generation cache hit", "prompt_hash", hash[:12])
		return response, nil
	}

	response, err = g.Inner.Generate(ctx, system, prompt, maxTokens)
	if err != nil {
		return "", err
	}

	if err := g.DB.CacheGeneration(ctx, hash, g.Model, response); err != nil {
		logging.Warn("failed to cache generation", "error", err)
	}
	return response, nil
}
