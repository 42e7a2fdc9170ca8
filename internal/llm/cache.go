package llm

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/blake2b"
)

// CacheStore persists response texts by request key.
type CacheStore interface {
	// GetListingCache returns the cached text, or "" when there is no entry.
	GetListingCache(key string) (string, error)
	SetListingCache(key, text string) error
}

// CachedGenerator wraps a Generator with a response cache. Search-augmented
// requests are never cached.
type CachedGenerator struct {
	inner Generator
	store CacheStore
}

// NewCachedGenerator creates a cached generator.
func NewCachedGenerator(inner Generator, store CacheStore) *CachedGenerator {
	return &CachedGenerator{inner: inner, store: store}
}

// requestKey hashes the serialized request. Image bytes are part of the
// serialized form, so the same photos with the same prompt share a key.
func requestKey(req *GenerationRequest) (string, error) {
	b, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}
	sum := blake2b.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

// Generate implements Generator with caching.
func (c *CachedGenerator) Generate(ctx context.Context, req *GenerationRequest) (*Response, error) {
	if c.store == nil || req == nil || req.UseSearch {
		return c.inner.Generate(ctx, req)
	}

	key, err := requestKey(req)
	if err != nil {
		log.Warn().Err(err).Msg("failed to compute cache key")
		return c.inner.Generate(ctx, req)
	}

	cached, err := c.store.GetListingCache(key)
	if err != nil {
		log.Warn().Err(err).Msg("failed to check listing cache")
	} else if cached != "" {
		log.Debug().Str("key", key[:16]).Msg("listing cache hit")
		return NewTextResponse(cached), nil
	}

	resp, err := c.inner.Generate(ctx, req)
	if err != nil {
		return nil, err
	}

	// Only well-formed responses are worth caching
	if text, err := resp.FirstText(); err == nil {
		if err := c.store.SetListingCache(key, text); err != nil {
			log.Warn().Err(err).Msg("failed to cache listing response")
		} else {
			log.Debug().Str("key", key[:16]).Msg("cached listing response")
		}
	}

	return resp, nil
}
