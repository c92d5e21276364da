package services

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"recipe-restful/serializers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageStore(t *testing.T) {
	root := t.TempDir()
	store := NewImageStore(root)

	t.Run("Valid image", func(t *testing.T) {
		img := image.NewRGBA(image.Rect(0, 0, 10, 10))
		img.Set(1, 1, color.White)
		var buf bytes.Buffer
		require.NoError(t, png.Encode(&buf, img))

		rel, err := store.Save("Thai Prawn Curry", &buf)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(rel, "uploads/recipe/thai-prawn-curry-"))
		assert.True(t, strings.HasSuffix(rel, ".png"))

		_, err = os.Stat(filepath.Join(root, rel))
		require.NoError(t, err)

		require.NoError(t, store.Remove(rel))
		_, err = os.Stat(filepath.Join(root, rel))
		assert.True(t, os.IsNotExist(err))
		assert.NoError(t, store.Remove(rel))
	})

	t.Run("Not an image", func(t *testing.T) {
		_, err := store.Save("x", strings.NewReader("notanimage"))
		var verr *serializers.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "image")
	})
}
