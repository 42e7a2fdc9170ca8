package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/raine/myyntiapuri/internal/listing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageFiles(t *testing.T) {
	p := filepath.Join(t.TempDir(), "a.png")
	require.NoError(t, os.WriteFile(p, []byte("\x89PNG\r\n\x1a\n"), 0644))

	files, err := imageFiles([]string{p, "https://example.com/photos/b.jpg"})
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "a.png", files[0].Name())
	assert.Equal(t, "b.jpg", files[1].Name())
	assert.Equal(t, int64(-1), files[1].Size())

	_, err = imageFiles([]string{filepath.Join(t.TempDir(), "missing.png")})
	assert.Error(t, err)
}

func TestResolveCondition_Flag(t *testing.T) {
	c, err := resolveCondition("good", listing.LanguageFinnish)
	require.NoError(t, err)
	assert.Equal(t, listing.ConditionGood, c)

	_, err = resolveCondition("pristine", listing.LanguageFinnish)
	assert.Error(t, err)
}

func TestFormatText(t *testing.T) {
	got := formatText(`
		Usage: %s
		  more
	`, "listing")
	assert.Equal(t, "Usage: listing\n  more", got)
}
