// Package imagecheck verifies that uploaded files really decode as images
// before they are pushed to the object store.
package imagecheck

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/webp"
)

// Verify decodes the image header at path and returns the detected format
// (jpeg, png, gif, webp).
func Verify(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	_, format, err := image.DecodeConfig(f)
	if err != nil {
		return "", fmt.Errorf("not a supported image: %w", err)
	}

	return format, nil
}
