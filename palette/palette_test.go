package palette

import (
	"bytes"
	"image/color"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rgb(r, g, b uint8) color.RGBA {
	return color.RGBA{r, g, b, 0xff}
}

func testColors(n int) []color.RGBA {
	out := make([]color.RGBA, n)
	for i := range out {
		out[i] = rgb(uint8(i), uint8(i*2), uint8(255-i))
	}
	return out
}

func TestNewPadsToWholeGroups(t *testing.T) {
	p, err := New(testColors(20))
	require.NoError(t, err)
	assert.Equal(t, 32, p.Len())
	assert.Equal(t, 2, p.Groups())
}

func TestNewRejectsTooManyColors(t *testing.T) {
	_, err := New(testColors(257))
	assert.Error(t, err)
}

func TestIndexOperations(t *testing.T) {
	assert.Equal(t, 0, GroupOf(0))
	assert.Equal(t, 0, GroupOf(15))
	assert.Equal(t, 1, GroupOf(16))
	assert.Equal(t, 3, GroupOf(0x3c))

	assert.Equal(t, uint8(0), LocalIndex(16))
	assert.Equal(t, uint8(12), LocalIndex(0x3c))

	assert.True(t, IsTransparent(0))
	assert.True(t, IsTransparent(16))
	assert.True(t, IsTransparent(32))
	assert.False(t, IsTransparent(1))
	assert.False(t, IsTransparent(17))
}

func TestEqualIgnoresAlpha(t *testing.T) {
	a, err := New(testColors(16))
	require.NoError(t, err)

	cp := a.ColorPalette()
	b, err := FromImagePalette(cp)
	require.NoError(t, err)

	assert.True(t, a.Equal(b))
	assert.True(t, b.Equal(a))
}

func TestEqualDetectsDifferences(t *testing.T) {
	a, err := New(testColors(16))
	require.NoError(t, err)

	colors := testColors(16)
	colors[5].G++
	b, err := New(colors)
	require.NoError(t, err)

	assert.False(t, a.Equal(b))

	c, err := New(testColors(32))
	require.NoError(t, err)
	assert.False(t, a.Equal(c))
}

func TestJASCRoundTrip(t *testing.T) {
	p, err := New(testColors(48))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, p))

	assert.True(t, strings.HasPrefix(buf.String(), "JASC-PAL\r\n0100\r\n48\r\n"))

	back, err := Decode(&buf)
	require.NoError(t, err)
	assert.True(t, p.Equal(back))
}

func TestDecodeErrors(t *testing.T) {
	cases := map[string]string{
		"bad magic":   "RIFF\r\n0100\r\n1\r\n0 0 0\r\n",
		"bad version": "JASC-PAL\r\n0200\r\n1\r\n0 0 0\r\n",
		"bad count":   "JASC-PAL\r\n0100\r\nxx\r\n",
		"zero count":  "JASC-PAL\r\n0100\r\n0\r\n",
		"bad entry":   "JASC-PAL\r\n0100\r\n1\r\n0 0\r\n",
		"range":       "JASC-PAL\r\n0100\r\n1\r\n300 0 0\r\n",
		"truncated":   "JASC-PAL\r\n0100\r\n2\r\n0 0 0\r\n",
	}
	for name, in := range cases {
		_, err := Decode(strings.NewReader(in))
		assert.Error(t, err, name)
	}
}

func TestDecodeAcceptsLFOnly(t *testing.T) {
	p, err := Decode(strings.NewReader("JASC-PAL\n0100\n2\n1 2 3\n4 5 6\n"))
	require.NoError(t, err)
	assert.Equal(t, 16, p.Len())
	assert.Equal(t, rgb(1, 2, 3), p.Color(0))
	assert.Equal(t, rgb(4, 5, 6), p.Color(1))
}
