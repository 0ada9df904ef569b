package montage

import (
	"fmt"
	"image"
	"os"

	xdraw "golang.org/x/image/draw"

	"github.com/starford/sowilo/internal/apperr"

	_ "image/jpeg"
	_ "image/png"
)

// LoadImages decodes every path in order. A path that does not exist maps
// to apperr.ErrMissingInput so callers can distinguish absent artifacts
// from corrupt ones.
func LoadImages(paths []string) ([]image.Image, error) {
	images := make([]image.Image, 0, len(paths))
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("montage: load %s: %w", p, apperr.ErrMissingInput)
			}
			return nil, fmt.Errorf("montage: load %s: %w", p, err)
		}
		img, _, err := image.Decode(f)
		f.Close() //nolint:errcheck
		if err != nil {
			return nil, fmt.Errorf("montage: decode %s: %w", p, err)
		}
		images = append(images, img)
	}
	return images, nil
}

// resizeTo scales img to exactly w x h with a Catmull-Rom kernel.
func resizeTo(img image.Image, w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), xdraw.Src, nil)
	return dst
}
