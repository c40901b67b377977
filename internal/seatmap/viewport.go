package seatmap

import "math"

// Pan/zoom limits. Zoom steps multiply the scale by ZoomStep and the scale is
// always clamped to [MinScale, MaxScale].
const (
	MinScale = 0.5
	MaxScale = 4.0
	ZoomStep = 1.2
)

// Point is a 2D coordinate.
type Point struct {
	X float64
	Y float64
}

// Viewport maintains a uniform scale plus translation over a renderer's
// output and passes pointer interactions through to it. Button zooms keep
// the visible frame centered on the container; drag-pan moves it freely.
// Nothing here persists across remounts.
type Viewport struct {
	renderer *Renderer

	width  float64
	height float64

	scale     float64
	translate Point

	panning bool
	last    Point
}

// NewViewport creates a viewport over the renderer sized to its container.
// Initial state is scale 1 with centered translation.
func NewViewport(renderer *Renderer, width, height float64) *Viewport {
	v := &Viewport{
		renderer: renderer,
		width:    width,
		height:   height,
		scale:    1,
	}
	v.recenter()
	return v
}

// Scale returns the current zoom scale.
func (v *Viewport) Scale() float64 {
	return v.scale
}

// Translate returns the current translation offset.
func (v *Viewport) Translate() Point {
	return v.translate
}

// Resize updates the container size and recenters for the current scale.
func (v *Viewport) Resize(width, height float64) {
	v.width = width
	v.height = height
	v.recenter()
}

// ZoomIn zooms one step in, keeping the frame centered.
func (v *Viewport) ZoomIn() {
	v.zoom(ZoomStep)
}

// ZoomOut zooms one step out, keeping the frame centered.
func (v *Viewport) ZoomOut() {
	v.zoom(1 / ZoomStep)
}

func (v *Viewport) zoom(factor float64) {
	v.scale = clamp(v.scale*factor, MinScale, MaxScale)
	v.recenter()
}

// Reset restores scale 1 and the centered translation.
func (v *Viewport) Reset() {
	v.scale = 1
	v.translate = Point{}
}

// StartPan begins a drag-pan gesture at the given pointer position.
func (v *Viewport) StartPan(x, y float64) {
	v.panning = true
	v.last = Point{X: x, Y: y}
}

// MovePan applies the cursor delta to the translation while a gesture is
// active. The translation is deliberately not recentered here.
func (v *Viewport) MovePan(x, y float64) {
	if !v.panning {
		return
	}
	v.translate.X += x - v.last.X
	v.translate.Y += y - v.last.Y
	v.last = Point{X: x, Y: y}
}

// EndPan terminates the gesture. It is safe to call regardless of where the
// pointer was released, so a drag never sticks when the pointer leaves the
// container.
func (v *Viewport) EndPan() {
	v.panning = false
}

// Panning reports whether a drag gesture is in progress.
func (v *Viewport) Panning() bool {
	return v.panning
}

// ContentPoint maps a container-space point through the inverse camera
// transform into content space.
func (v *Viewport) ContentPoint(x, y float64) Point {
	return Point{
		X: (x - v.translate.X) / v.scale,
		Y: (y - v.translate.Y) / v.scale,
	}
}

// overlayPoint maps a content-space point into overlay (viewBox)
// coordinates, accounting for the meet-fit letterboxing of the SVG inside
// its container.
func (v *Viewport) overlayPoint(p Point) (Point, bool) {
	vb := v.renderer.Overlay().ViewBox()
	if vb.Width <= 0 || vb.Height <= 0 || v.width <= 0 || v.height <= 0 {
		return Point{}, false
	}

	fit := math.Min(v.width/vb.Width, v.height/vb.Height)
	offsetX := (v.width - vb.Width*fit) / 2
	offsetY := (v.height - vb.Height*fit) / 2

	return Point{
		X: vb.MinX + (p.X-offsetX)/fit,
		Y: vb.MinY + (p.Y-offsetY)/fit,
	}, true
}

// ZoneAt hit-tests a container-space point and returns the zone id under it.
func (v *Viewport) ZoneAt(x, y float64) (string, bool) {
	op, ok := v.overlayPoint(v.ContentPoint(x, y))
	if !ok {
		return "", false
	}
	return v.renderer.Overlay().ZoneAt(op.X, op.Y)
}

// HoverAt forwards a pointer move to the renderer: hovering an interactive
// zone highlights it, anything else clears the hover.
func (v *Viewport) HoverAt(x, y float64) {
	if id, ok := v.ZoneAt(x, y); ok && v.renderer.Interactive(id) {
		v.renderer.Hover(id)
		return
	}
	v.renderer.Leave()
}

// ClickAt forwards a pointer click to the renderer.
func (v *Viewport) ClickAt(x, y float64) {
	if id, ok := v.ZoneAt(x, y); ok {
		v.renderer.Click(id)
	}
}

// recenter recomputes the translation so the scaled frame stays centered in
// the container. Values are rounded to whole pixels the same way the
// storefront rounds its CSS transform.
func (v *Viewport) recenter() {
	v.translate = Point{
		X: math.Round((v.width - v.width*v.scale) / 2),
		Y: math.Round((v.height - v.height*v.scale) / 2),
	}
}

func clamp(val, min, max float64) float64 {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
