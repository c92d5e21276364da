package services

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path"
	"path/filepath"

	"recipe-restful/serializers"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

const (
	recipeImageDir = "uploads/recipe"
	// MaxImageSize bounds an uploaded image.
	MaxImageSize = 10 << 20
)

// ImageStore keeps uploaded recipe images on local disk under a media root.
type ImageStore struct {
	root string
}

func NewImageStore(root string) *ImageStore {
	return &ImageStore{root: root}
}

func (s *ImageStore) Root() string { return s.root }

// Save validates that r holds a jpeg, png or gif image and writes it to
// uploads/recipe/<slug>-<uuid>.<ext>. It returns the path relative to the media root.
func (s *ImageStore) Save(title string, r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxImageSize+1))
	if err != nil {
		return "", fmt.Errorf("reading upload: %w", err)
	}
	if len(data) > MaxImageSize {
		return "", serializers.NewValidationError("image", "The uploaded image is too large.")
	}

	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", serializers.NewValidationError("image",
			"Upload a valid image. The file you uploaded was either not an image or a corrupted image.")
	}
	ext := format
	if ext == "jpeg" {
		ext = "jpg"
	}

	prefix := slug.Make(title)
	if prefix == "" {
		prefix = "recipe"
	}
	rel := path.Join(recipeImageDir, fmt.Sprintf("%s-%s.%s", prefix, uuid.NewString(), ext))

	full := filepath.Join(s.root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("creating image directory: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", fmt.Errorf("writing image: %w", err)
	}
	return rel, nil
}

// Remove deletes a previously saved image. A missing file is not an error.
func (s *ImageStore) Remove(rel string) error {
	if rel == "" {
		return nil
	}
	err := os.Remove(filepath.Join(s.root, filepath.FromSlash(rel)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
