package chart

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/pagoda/internal/pyramid"
)

func testSlices(t *testing.T) []pyramid.Slice {
	t.Helper()
	slices, ok := pyramid.Derive(pyramid.Pyramid{L1: 150, L2: 200, L3: 100, L4: 50})
	require.True(t, ok)
	return slices
}

func TestRender_PNG(t *testing.T) {
	data, err := RenderBytes(testSlices(t), DefaultGeometry(), Options{Title: "Tomato Egg", Oil: 15.5, Salt: 3.2})
	require.NoError(t, err)
	require.Greater(t, len(data), 8)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")), "expected PNG signature")
}

func TestRender_SVG(t *testing.T) {
	data, err := RenderBytes(testSlices(t), Square(300), Options{Format: FormatSVG})
	require.NoError(t, err)
	assert.Contains(t, string(data), "<svg")
	assert.Contains(t, string(data), "path")
}

func TestRender_SingleSliceFullRing(t *testing.T) {
	slices, ok := pyramid.Derive(pyramid.Pyramid{L3: 80})
	require.True(t, ok)

	_, err := RenderBytes(slices, Square(200), Options{})
	require.NoError(t, err)
}

func TestWedgeLabel_NamesTierAndShare(t *testing.T) {
	slices := testSlices(t)
	require.Len(t, slices, 4)
	assert.Equal(t, "Cereal & Tuber 30%", wedgeLabel(slices[0]))
	assert.Equal(t, "Vegetable & Fruit 40%", wedgeLabel(slices[1]))
	assert.Equal(t, "Meat & Egg 20%", wedgeLabel(slices[2]))
	assert.Equal(t, "Dairy, Bean & Nut 10%", wedgeLabel(slices[3]))
}

func TestRender_SVGCarriesWedgeLabels(t *testing.T) {
	data, err := RenderBytes(testSlices(t), DefaultGeometry(), Options{Format: FormatSVG, Title: "Fish & <Chips>"})
	require.NoError(t, err)
	assert.Contains(t, string(data), "Vegetable &amp; Fruit 40%")
	assert.Contains(t, string(data), "Fish &amp; &lt;Chips&gt;")

	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		_, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
	}
}

func TestRender_NoSlices(t *testing.T) {
	_, err := RenderBytes(nil, DefaultGeometry(), Options{})
	assert.True(t, errors.Is(err, ErrNoChart))
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatPNG, f)

	f, err = ParseFormat("SVG")
	require.NoError(t, err)
	assert.Equal(t, FormatSVG, f)
	assert.Equal(t, "image/svg+xml", f.ContentType())

	_, err = ParseFormat("gif")
	assert.Error(t, err)
}

func TestWedge_StartsAtTopForZeroAngle(t *testing.T) {
	pts := wedge(100, 100, 40, 80, 0, 90)
	require.NotEmpty(t, pts)

	// First outer point is straight up, last inner point is back at start.
	assert.Equal(t, [2]int{100, 20}, pts[0])
	assert.Equal(t, [2]int{100, 60}, pts[len(pts)-1])

	// The outer arc ends at 3 o'clock.
	assert.Contains(t, pts, [2]int{180, 100})
}
