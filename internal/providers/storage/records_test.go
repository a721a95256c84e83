package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeTabs(t *testing.T) {
	data := "ACTIVE:/p/b|c.go\n\nTAB:/p/a.go|0\r\nTAB:/p/b|c.go|1\nGARBAGE\nTAB:|1\nTAB:/p/noflag.go\n"

	l := DecodeTabs([]byte(data))

	assert.Equal(t, "/p/b|c.go", l.Active)
	assert.Equal(t, []TabEntry{
		{Path: "/p/a.go"},
		{Path: "/p/b|c.go", Modified: true},
		{Path: "/p/noflag.go"},
	}, l.Tabs)
}

func TestEncodeTabsWithoutActive(t *testing.T) {
	assert.Equal(t, "TAB:/x|0\n", string(EncodeTabs(TabList{Tabs: []TabEntry{{Path: "/x"}}})))
	assert.Empty(t, EncodeTabs(TabList{}))
}

func TestGeometryClamp(t *testing.T) {
	screen := Size{Width: 1920, Height: 1080}
	minimum := Size{Width: 800, Height: 600}

	tests := []struct {
		name string
		in   Geometry
		want Geometry
	}{
		{name: "inside", in: Geometry{X: 100, Y: 50, W: 1000, H: 700}, want: Geometry{X: 100, Y: 50, W: 1000, H: 700}},
		{name: "negative origin", in: Geometry{X: -30, Y: -5, W: 1000, H: 700}, want: Geometry{X: 0, Y: 0, W: 1000, H: 700}},
		{name: "too small", in: Geometry{X: 0, Y: 0, W: 200, H: 100}, want: Geometry{X: 0, Y: 0, W: 800, H: 600}},
		{name: "off screen", in: Geometry{X: 1800, Y: 1000, W: 1000, H: 700}, want: Geometry{X: 920, Y: 380, W: 1000, H: 700}},
		{name: "larger than screen", in: Geometry{X: 10, Y: 10, W: 4000, H: 3000}, want: Geometry{X: 0, Y: 0, W: 1920, H: 1080}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Clamp(screen, minimum))
		})
	}
}

func TestParseGeometry(t *testing.T) {
	g, err := ParseGeometry(" 1 2 3 4\n")
	require.NoError(t, err)
	assert.Equal(t, Geometry{X: 1, Y: 2, W: 3, H: 4}, g)

	_, err = ParseGeometry("1 2 three 4")
	assert.Error(t, err)
}

func TestParseTheme(t *testing.T) {
	th, err := ParseTheme("Light")
	require.NoError(t, err)
	assert.Equal(t, Light, th)
	assert.Equal(t, "light", th.String())

	_, err = ParseTheme("solarized")
	assert.Error(t, err)
}

func TestLines(t *testing.T) {
	assert.Nil(t, EncodeLines(nil))
	assert.Equal(t, []string{"a", "b/c"}, DecodeLines([]byte("a\n\n  b/c  \n")))
}
