package seatmap

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ViewBox is the SVG root bounding box.
type ViewBox struct {
	MinX   float64
	MinY   float64
	Width  float64
	Height float64
}

func (vb ViewBox) String() string {
	return fmt.Sprintf("%s %s %s %s",
		trimFloat(vb.MinX), trimFloat(vb.MinY), trimFloat(vb.Width), trimFloat(vb.Height))
}

// Rect is an axis-aligned bounding box in overlay coordinates.
type Rect struct {
	MinX, MinY, MaxX, MaxY float64
}

func (r Rect) Contains(x, y float64) bool {
	return x >= r.MinX && x <= r.MaxX && y >= r.MinY && y <= r.MaxY
}

func (r Rect) union(o Rect) Rect {
	if r == (Rect{}) {
		return o
	}
	if o.MinX < r.MinX {
		r.MinX = o.MinX
	}
	if o.MinY < r.MinY {
		r.MinY = o.MinY
	}
	if o.MaxX > r.MaxX {
		r.MaxX = o.MaxX
	}
	if o.MaxY > r.MaxY {
		r.MaxY = o.MaxY
	}
	return r
}

// Zone is an addressable region of the overlay, identified by the same
// string key the stock snapshot uses.
type Zone struct {
	ID     string
	Bounds Rect
	// hasGeometry is false when the zone only contains path data we don't
	// measure; such zones still render but are not hit-testable.
	hasGeometry bool
}

// element is one node of the parsed SVG tree. The tree is kept verbatim so a
// render pass can re-serialize it with per-zone styling injected, instead of
// mutating a live document.
type element struct {
	name     xml.Name
	attrs    []xml.Attr
	children []*element
	text     string
}

func (e *element) attr(name string) string {
	for _, a := range e.attrs {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

// Overlay is a parsed vector seating map: the element tree, the root
// viewBox, and an index of addressable zones.
type Overlay struct {
	root    *element
	viewBox ViewBox
	zones   map[string]*Zone
}

// EmptyOverlay returns an overlay with no zones that renders to an inert,
// empty surface. Used when the source asset cannot be fetched or parsed.
func EmptyOverlay() *Overlay {
	return &Overlay{
		root:  &element{name: xml.Name{Local: "svg"}},
		zones: map[string]*Zone{},
	}
}

// ParseOverlay parses an SVG overlay asset. Every element carrying an id
// becomes an addressable zone keyed by that id.
func ParseOverlay(data []byte) (*Overlay, error) {
	decoder := xml.NewDecoder(bytes.NewReader(data))
	decoder.Strict = false

	var root *element
	var stack []*element

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse overlay: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			el := &element{name: t.Name, attrs: append([]xml.Attr(nil), t.Attr...)}
			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("overlay has more than one root element")
				}
				root = el
			} else {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, el)
			}
			stack = append(stack, el)
		case xml.EndElement:
			if len(stack) == 0 {
				return nil, fmt.Errorf("unbalanced overlay markup")
			}
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text += string(t)
			}
		}
	}

	if root == nil || root.name.Local != "svg" {
		return nil, fmt.Errorf("overlay has no svg root element")
	}

	viewBox, err := parseViewBox(root.attr("viewBox"))
	if err != nil {
		return nil, err
	}

	overlay := &Overlay{
		root:    root,
		viewBox: viewBox,
		zones:   map[string]*Zone{},
	}
	overlay.indexZones(root)

	return overlay, nil
}

// ViewBox returns the overlay's current root bounding box.
func (o *Overlay) ViewBox() ViewBox {
	return o.viewBox
}

// ZoneIDs returns every addressable zone id present in the overlay.
func (o *Overlay) ZoneIDs() []string {
	ids := make([]string, 0, len(o.zones))
	for id := range o.zones {
		ids = append(ids, id)
	}
	return ids
}

// HasZone reports whether the overlay contains the given zone id.
func (o *Overlay) HasZone(id string) bool {
	_, ok := o.zones[id]
	return ok
}

// CropTop shifts the visible frame down by offset units. The overlay and its
// paired raster background come from different exports of the same venue
// plan; the offset is the registration constant between the two.
func (o *Overlay) CropTop(offset float64) {
	if offset <= 0 || o.viewBox.Height <= offset {
		return
	}
	o.viewBox.MinY += offset
	o.viewBox.Height -= offset
}

// ZoneAt returns the id of the zone whose measured bounds contain the point,
// in overlay coordinates. Zones without measurable geometry never match.
func (o *Overlay) ZoneAt(x, y float64) (string, bool) {
	for id, zone := range o.zones {
		if zone.hasGeometry && zone.Bounds.Contains(x, y) {
			return id, true
		}
	}
	return "", false
}

// indexZones walks the tree and registers every id-carrying element as a
// zone, measuring what geometry its subtree exposes.
func (o *Overlay) indexZones(el *element) {
	if id := el.attr("id"); id != "" && el != o.root {
		bounds, ok := measure(el)
		o.zones[id] = &Zone{ID: id, Bounds: bounds, hasGeometry: ok}
	}
	for _, child := range el.children {
		o.indexZones(child)
	}
}

// measure computes the union bounding box of the shapes under el. Rects,
// circles, ellipses, polygons and polylines are measured; path outlines are
// not.
func measure(el *element) (Rect, bool) {
	var bounds Rect
	found := false

	var walk func(*element)
	walk = func(e *element) {
		if r, ok := shapeBounds(e); ok {
			bounds = bounds.union(r)
			found = true
		}
		for _, child := range e.children {
			walk(child)
		}
	}
	walk(el)

	return bounds, found
}

func shapeBounds(e *element) (Rect, bool) {
	switch e.name.Local {
	case "rect":
		x := parseFloat(e.attr("x"))
		y := parseFloat(e.attr("y"))
		w := parseFloat(e.attr("width"))
		h := parseFloat(e.attr("height"))
		if w <= 0 || h <= 0 {
			return Rect{}, false
		}
		return Rect{MinX: x, MinY: y, MaxX: x + w, MaxY: y + h}, true
	case "circle":
		cx := parseFloat(e.attr("cx"))
		cy := parseFloat(e.attr("cy"))
		r := parseFloat(e.attr("r"))
		if r <= 0 {
			return Rect{}, false
		}
		return Rect{MinX: cx - r, MinY: cy - r, MaxX: cx + r, MaxY: cy + r}, true
	case "ellipse":
		cx := parseFloat(e.attr("cx"))
		cy := parseFloat(e.attr("cy"))
		rx := parseFloat(e.attr("rx"))
		ry := parseFloat(e.attr("ry"))
		if rx <= 0 || ry <= 0 {
			return Rect{}, false
		}
		return Rect{MinX: cx - rx, MinY: cy - ry, MaxX: cx + rx, MaxY: cy + ry}, true
	case "polygon", "polyline":
		return pointsBounds(e.attr("points"))
	}
	return Rect{}, false
}

func pointsBounds(points string) (Rect, bool) {
	fields := strings.FieldsFunc(points, func(r rune) bool {
		return r == ' ' || r == ',' || r == '\n' || r == '\t'
	})
	if len(fields) < 4 {
		return Rect{}, false
	}

	var bounds Rect
	first := true
	for i := 0; i+1 < len(fields); i += 2 {
		x := parseFloat(fields[i])
		y := parseFloat(fields[i+1])
		p := Rect{MinX: x, MinY: y, MaxX: x, MaxY: y}
		if first {
			bounds = p
			first = false
		} else {
			bounds = bounds.union(p)
		}
	}
	return bounds, !first
}

func parseViewBox(raw string) (ViewBox, error) {
	fields := strings.Fields(strings.ReplaceAll(raw, ",", " "))
	if len(fields) != 4 {
		return ViewBox{}, fmt.Errorf("overlay viewBox %q is malformed", raw)
	}

	vals := make([]float64, 4)
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return ViewBox{}, fmt.Errorf("overlay viewBox %q is malformed", raw)
		}
		vals[i] = v
	}

	if vals[2] <= 0 || vals[3] <= 0 {
		return ViewBox{}, fmt.Errorf("overlay viewBox %q has no area", raw)
	}

	return ViewBox{MinX: vals[0], MinY: vals[1], Width: vals[2], Height: vals[3]}, nil
}

func parseFloat(s string) float64 {
	v, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return v
}

func trimFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
