package assets

import (
	"bytes"
	"embed"
	"fmt"
	"image"
	_ "image/png"
	"path/filepath"
	"strings"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
)

//go:embed *.png
var assetsFS embed.FS

var (
	mu     sync.Mutex
	images = map[string]*ebiten.Image{}
)

// LoadImage returns the embedded image at an assets-relative path. Images
// are uploaded once and shared.
func LoadImage(path string) (*ebiten.Image, error) {
	clean := cleanAssetPath(path)
	mu.Lock()
	defer mu.Unlock()
	if img, ok := images[clean]; ok {
		return img, nil
	}
	decoded, err := Decode(clean)
	if err != nil {
		return nil, err
	}
	img := ebiten.NewImageFromImage(decoded)
	images[clean] = img
	return img, nil
}

// Decode reads and decodes an embedded image without touching the GPU.
func Decode(path string) (image.Image, error) {
	b, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("assets: decode %q: %w", path, err)
	}
	return img, nil
}

// LoadFile loads an embedded asset by assets-relative path.
func LoadFile(path string) ([]byte, error) {
	clean := cleanAssetPath(path)
	return assetsFS.ReadFile(clean)
}

func cleanAssetPath(path string) string {
	if path == "" {
		return ""
	}
	if filepath.IsAbs(path) {
		s := filepath.ToSlash(path)
		if idx := strings.LastIndex(s, "/assets/"); idx >= 0 {
			return s[idx+len("/assets/"):]
		}
		return filepath.Base(path)
	}
	s := filepath.ToSlash(path)
	if strings.HasPrefix(s, "assets/") {
		return strings.TrimPrefix(s, "assets/")
	}
	return s
}
