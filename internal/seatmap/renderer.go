package seatmap

import (
	"bytes"
	"context"
	"encoding/xml"
	"strings"
)

// Zone fill styling. Available zones get a semi-transparent highlight that
// darkens on hover; everything else is invisible and ignores the pointer.
const (
	FillAvailable = "rgba(158,229,181,0.6)"
	FillHover     = "rgba(110,207,141,0.8)"
	FillNone      = "transparent"
)

// ZoneState is the visual/interactive state of one overlay zone.
type ZoneState int

const (
	// ZoneUnavailable renders fully transparent and non-interactive.
	ZoneUnavailable ZoneState = iota
	// ZoneAvailable renders highlighted and accepts hover/click.
	ZoneAvailable
)

// AssetFetcher retrieves a raw overlay asset by reference.
type AssetFetcher interface {
	Fetch(ctx context.Context, ref string) ([]byte, error)
}

// LoadOverlay fetches and parses an overlay asset. Any failure yields an
// empty inert overlay instead of an error: a broken map asset must never take
// the event page down with it.
func LoadOverlay(ctx context.Context, fetcher AssetFetcher, ref string) *Overlay {
	if ref == "" || fetcher == nil {
		return EmptyOverlay()
	}

	data, err := fetcher.Fetch(ctx, ref)
	if err != nil {
		return EmptyOverlay()
	}

	overlay, err := ParseOverlay(data)
	if err != nil {
		return EmptyOverlay()
	}

	return overlay
}

// Renderer styles an overlay from a stock snapshot and relays zone
// interactions. Its two outward signals are the hover callback (zone id, or
// "" on leave) and the select callback (zone id on click); everything else is
// presentation.
type Renderer struct {
	overlay *Overlay
	stock   map[string]int
	hovered string

	onHover  func(zoneID string)
	onSelect func(zoneID string)
}

// NewRenderer creates a renderer for the overlay and snapshot. Snapshot
// entries with no matching overlay zone are ignored; overlay zones with no
// snapshot entry render inert.
func NewRenderer(overlay *Overlay, stock map[string]int) *Renderer {
	if overlay == nil {
		overlay = EmptyOverlay()
	}
	if stock == nil {
		stock = map[string]int{}
	}
	return &Renderer{overlay: overlay, stock: stock}
}

// OnHover registers the hover callback. The callback receives the zone id,
// or "" when the pointer leaves a zone.
func (r *Renderer) OnHover(fn func(zoneID string)) {
	r.onHover = fn
}

// OnSelect registers the click callback.
func (r *Renderer) OnSelect(fn func(zoneID string)) {
	r.onSelect = fn
}

// Overlay exposes the parsed overlay for hit-testing.
func (r *Renderer) Overlay() *Overlay {
	return r.overlay
}

// Interactive reports whether the zone exists in the overlay and has stock.
func (r *Renderer) Interactive(zoneID string) bool {
	return r.overlay.HasZone(zoneID) && r.stock[zoneID] > 0
}

// State returns the render state of one overlay zone.
func (r *Renderer) State(zoneID string) ZoneState {
	if r.Interactive(zoneID) {
		return ZoneAvailable
	}
	return ZoneUnavailable
}

// ZoneStates returns the state of every zone present in the overlay.
func (r *Renderer) ZoneStates() map[string]ZoneState {
	states := make(map[string]ZoneState, len(r.overlay.zones))
	for id := range r.overlay.zones {
		states[id] = r.State(id)
	}
	return states
}

// Hover marks the zone as hovered and fires the hover callback. Inert zones
// are ignored, so decorative elements can never light up.
func (r *Renderer) Hover(zoneID string) {
	if !r.Interactive(zoneID) || r.hovered == zoneID {
		return
	}
	r.hovered = zoneID
	if r.onHover != nil {
		r.onHover(zoneID)
	}
}

// Leave clears the hovered zone and fires the hover callback with "".
func (r *Renderer) Leave() {
	if r.hovered == "" {
		return
	}
	r.hovered = ""
	if r.onHover != nil {
		r.onHover("")
	}
}

// Click fires the select callback when the zone is interactive.
func (r *Renderer) Click(zoneID string) {
	if !r.Interactive(zoneID) {
		return
	}
	if r.onSelect != nil {
		r.onSelect(zoneID)
	}
}

// Hovered returns the currently hovered zone id, or "".
func (r *Renderer) Hovered() string {
	return r.hovered
}

// Render serializes the styled overlay. The pass is a pure function of the
// overlay tree, the snapshot and the hovered zone: every element outside an
// available zone is forced transparent and non-interactive, elements inside
// one inherit the zone highlight.
func (r *Renderer) Render() []byte {
	var buf bytes.Buffer
	r.writeRoot(&buf)
	return buf.Bytes()
}

func (r *Renderer) writeRoot(buf *bytes.Buffer) {
	root := r.overlay.root

	buf.WriteString("<svg")
	for _, a := range root.attrs {
		switch a.Name.Local {
		case "width", "height", "viewBox", "preserveAspectRatio", "style":
			// replaced below: the overlay renders responsive inside its
			// container, with the crop-corrected viewBox
		default:
			writeAttr(buf, attrName(a.Name), a.Value)
		}
	}
	if vb := r.overlay.viewBox; vb.Width > 0 && vb.Height > 0 {
		writeAttr(buf, "viewBox", vb.String())
	}
	writeAttr(buf, "preserveAspectRatio", "xMidYMid meet")
	writeAttr(buf, "style", "width:100%;height:100%;display:block")

	if len(root.children) == 0 && strings.TrimSpace(root.text) == "" {
		buf.WriteString("/>")
		return
	}
	buf.WriteString(">")
	for _, child := range root.children {
		r.writeElement(buf, child, "")
	}
	buf.WriteString("</svg>")
}

func (r *Renderer) writeElement(buf *bytes.Buffer, el *element, zoneID string) {
	// An element adopts a zone context when its id matches an addressable
	// zone; descendants inherit it, matching how a zone group and all its
	// children are styled as one region.
	if id := el.attr("id"); id != "" && r.overlay.HasZone(id) {
		zoneID = id
	}

	buf.WriteString("<" + el.name.Local)
	for _, a := range el.attrs {
		if a.Name.Local == "style" {
			continue
		}
		writeAttr(buf, attrName(a.Name), a.Value)
	}
	writeAttr(buf, "style", r.styleFor(zoneID))

	if len(el.children) == 0 && strings.TrimSpace(el.text) == "" {
		buf.WriteString("/>")
		return
	}

	buf.WriteString(">")
	if text := strings.TrimSpace(el.text); text != "" {
		xml.EscapeText(buf, []byte(text))
	}
	for _, child := range el.children {
		r.writeElement(buf, child, zoneID)
	}
	buf.WriteString("</" + el.name.Local + ">")
}

func (r *Renderer) styleFor(zoneID string) string {
	if zoneID != "" && r.Interactive(zoneID) {
		fill := FillAvailable
		if zoneID == r.hovered {
			fill = FillHover
		}
		return "fill:" + fill + ";pointer-events:auto"
	}
	return "fill:" + FillNone + ";pointer-events:none"
}

func attrName(n xml.Name) string {
	if n.Space != "" {
		// keep namespaced attributes like xlink:href readable
		if idx := strings.LastIndex(n.Space, "/"); idx >= 0 && n.Space != "xmlns" {
			switch n.Space {
			case "http://www.w3.org/1999/xlink":
				return "xlink:" + n.Local
			case "http://www.w3.org/XML/1998/namespace":
				return "xml:" + n.Local
			}
		}
		if n.Space == "xmlns" {
			return "xmlns:" + n.Local
		}
	}
	return n.Local
}

func writeAttr(buf *bytes.Buffer, name, value string) {
	buf.WriteString(" " + name + `="`)
	xml.EscapeText(buf, []byte(value))
	buf.WriteString(`"`)
}
