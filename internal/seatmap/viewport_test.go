package seatmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestViewport(t *testing.T, stock map[string]int) *Viewport {
	t.Helper()
	overlay, err := ParseOverlay([]byte(testOverlaySVG))
	require.NoError(t, err)
	return NewViewport(NewRenderer(overlay, stock), 800, 600)
}

func TestViewport_InitialState(t *testing.T) {
	v := newTestViewport(t, nil)
	assert.Equal(t, 1.0, v.Scale())
	assert.Equal(t, Point{X: 0, Y: 0}, v.Translate())
}

func TestViewport_ZoomClamping(t *testing.T) {
	v := newTestViewport(t, nil)

	for i := 0; i < 30; i++ {
		v.ZoomIn()
		assert.LessOrEqual(t, v.Scale(), MaxScale)
	}
	assert.Equal(t, MaxScale, v.Scale())

	for i := 0; i < 30; i++ {
		v.ZoomOut()
		assert.GreaterOrEqual(t, v.Scale(), MinScale)
	}
	assert.Equal(t, MinScale, v.Scale())
}

func TestViewport_ZoomRecenters(t *testing.T) {
	v := newTestViewport(t, nil)

	v.ZoomIn() // scale 1.2
	assert.InDelta(t, 1.2, v.Scale(), 1e-9)
	// ((w - w*s)/2, (h - h*s)/2) rounded
	assert.Equal(t, Point{X: -80, Y: -60}, v.Translate())
}

func TestViewport_Reset(t *testing.T) {
	v := newTestViewport(t, nil)

	v.ZoomIn()
	v.StartPan(0, 0)
	v.MovePan(37, -12)
	v.EndPan()

	v.Reset()
	assert.Equal(t, 1.0, v.Scale())
	assert.Equal(t, Point{X: 0, Y: 0}, v.Translate())
}

func TestViewport_DragPan(t *testing.T) {
	v := newTestViewport(t, nil)

	// moves before a gesture starts are ignored
	v.MovePan(50, 50)
	assert.Equal(t, Point{}, v.Translate())

	v.StartPan(10, 10)
	v.MovePan(30, 25)
	assert.Equal(t, Point{X: 20, Y: 15}, v.Translate())
	v.MovePan(35, 25)
	assert.Equal(t, Point{X: 25, Y: 15}, v.Translate())

	// release can happen anywhere, even outside the container
	v.EndPan()
	assert.False(t, v.Panning())
	v.MovePan(500, 500)
	assert.Equal(t, Point{X: 25, Y: 15}, v.Translate())
}

func TestViewport_PanDoesNotRecenter(t *testing.T) {
	v := newTestViewport(t, nil)

	v.StartPan(0, 0)
	v.MovePan(40, 10)
	v.EndPan()
	assert.Equal(t, Point{X: 40, Y: 10}, v.Translate())

	// a button zoom recenters, discarding the pan offset
	v.ZoomIn()
	assert.Equal(t, Point{X: -80, Y: -60}, v.Translate())
}

func TestViewport_ZoneAtThroughTransform(t *testing.T) {
	v := newTestViewport(t, map[string]int{"zone-a": 2})

	// identity transform: container point equals overlay point
	id, ok := v.ZoneAt(150, 150)
	require.True(t, ok)
	assert.Equal(t, "zone-a", id)

	_, ok = v.ZoneAt(10, 500)
	assert.False(t, ok)

	// after a pan the same zone sits under a shifted container point
	v.StartPan(0, 0)
	v.MovePan(100, 50)
	v.EndPan()

	id, ok = v.ZoneAt(250, 200)
	require.True(t, ok)
	assert.Equal(t, "zone-a", id)
}

func TestViewport_HoverAndClickPassthrough(t *testing.T) {
	v := newTestViewport(t, map[string]int{"zone-a": 2, "zone-b": 0})

	var hovers []string
	var selects []string
	v.renderer.OnHover(func(id string) { hovers = append(hovers, id) })
	v.renderer.OnSelect(func(id string) { selects = append(selects, id) })

	v.HoverAt(150, 150) // zone-a
	v.HoverAt(450, 150) // zone-b is sold out: clears the hover
	v.ClickAt(150, 150) // zone-a
	v.ClickAt(450, 150) // inert, no signal
	v.ClickAt(10, 500)  // empty floor, no signal

	assert.Equal(t, []string{"zone-a", ""}, hovers)
	assert.Equal(t, []string{"zone-a"}, selects)
}
