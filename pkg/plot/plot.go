// Package plot provides the canvas model analysis units draw on and the
// registry the capture harness drains after a unit returns. Units never
// touch files; they build canvases of titled regions and the harness turns
// each canvas into a PNG artifact.
package plot

import "sync"

// Registry collects canvases in creation order. Each unit execution gets
// its own registry, so nothing leaks across units.
type Registry struct {
	mu       sync.Mutex
	nextID   int
	width    int
	height   int
	canvases []*Canvas
}

// NewRegistry returns an empty registry creating canvases at the package
// default size.
func NewRegistry() *Registry {
	return &Registry{width: DefaultWidth, height: DefaultHeight}
}

// SetCanvasSize changes the size given to canvases created afterwards.
// The active style sets this before a unit runs; units can still Resize
// individual canvases. Non-positive values are ignored.
func (r *Registry) SetCanvasSize(width, height int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if width > 0 {
		r.width = width
	}
	if height > 0 {
		r.height = height
	}
}

// NewCanvas creates a canvas registered with r and returns it. The canvas
// ID reflects creation order, starting at 1.
func (r *Registry) NewCanvas(title string) *Canvas {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	c := newCanvas(r.nextID, title, r.width, r.height)
	r.canvases = append(r.canvases, c)
	return c
}

// Drain returns every registered canvas in ascending creation order and
// empties the registry. Callers own releasing the canvases they take.
func (r *Registry) Drain() []*Canvas {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.canvases
	r.canvases = nil
	return out
}

// Count reports how many canvases are currently registered.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.canvases)
}
