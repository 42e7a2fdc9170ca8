package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

type memoryCache struct {
	entries map[string]string
}

func (m *memoryCache) GetListingCache(key string) (string, error) {
	return m.entries[key], nil
}

func (m *memoryCache) SetListingCache(key, text string) error {
	m.entries[key] = text
	return nil
}

type countingGenerator struct {
	calls int
	text  string
}

func (g *countingGenerator) Generate(ctx context.Context, req *GenerationRequest) (*Response, error) {
	g.calls++
	return NewTextResponse(g.text), nil
}

func TestCachedGenerator_HitsCacheForSameRequest(t *testing.T) {
	inner := &countingGenerator{text: "info --- title --- body"}
	cached := NewCachedGenerator(inner, &memoryCache{entries: map[string]string{}})

	newReq := func() *GenerationRequest {
		return NewUserRequest(
			genai.NewPartFromText("Luo ilmoitus: Hyvä."),
			genai.NewPartFromBytes([]byte("image"), "image/png"),
		)
	}

	for i := 0; i < 3; i++ {
		resp, err := cached.Generate(context.Background(), newReq())
		require.NoError(t, err)
		text, err := resp.FirstText()
		require.NoError(t, err)
		assert.Equal(t, "info --- title --- body", text)
	}
	assert.Equal(t, 1, inner.calls)
}

func TestCachedGenerator_DifferentImagesMiss(t *testing.T) {
	inner := &countingGenerator{text: "x"}
	cached := NewCachedGenerator(inner, &memoryCache{entries: map[string]string{}})

	_, err := cached.Generate(context.Background(), NewUserRequest(genai.NewPartFromBytes([]byte("a"), "image/png")))
	require.NoError(t, err)
	_, err = cached.Generate(context.Background(), NewUserRequest(genai.NewPartFromBytes([]byte("b"), "image/png")))
	require.NoError(t, err)

	assert.Equal(t, 2, inner.calls)
}

func TestCachedGenerator_SearchBypassesCache(t *testing.T) {
	inner := &countingGenerator{text: "20 € --- tips --- tip"}
	cached := NewCachedGenerator(inner, &memoryCache{entries: map[string]string{}})

	for i := 0; i < 2; i++ {
		_, err := cached.Generate(context.Background(), NewUserRequest(genai.NewPartFromText("Tuote: X")).WithSearch())
		require.NoError(t, err)
	}
	assert.Equal(t, 2, inner.calls)
}
