package plot

import (
	"image/color"
	"strconv"
	"strings"
)

// ParseColor parses an "R,G,B" triple with each component in [0,255].
// Malformed input returns fallback rather than an error.
func ParseColor(s string, fallback color.RGBA) color.RGBA {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return fallback
	}
	var rgb [3]uint8
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 0 || n > 255 {
			return fallback
		}
		rgb[i] = uint8(n)
	}
	return color.RGBA{R: rgb[0], G: rgb[1], B: rgb[2], A: 255}
}
