package wanxml

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFramesRoundTrip(t *testing.T) {
	doc := &FrameDoc{Frames: []Frame{
		{Cels: []Cel{{Img: 12, X: -3, Y: 504, Pal: 3}, {Img: 0, X: 248, Y: 504, Pal: 0}}},
		{},
	}}

	var buf bytes.Buffer
	require.NoError(t, EncodeFrames(&buf, doc))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "<?xml"))
	assert.Contains(t, out, `<Cel img="12" x="-3" y="504" pal="3">`)

	back, err := DecodeFrames(strings.NewReader(out))
	require.NoError(t, err)
	require.Len(t, back.Frames, 2)
	assert.Equal(t, doc.Frames[0].Cels, back.Frames[0].Cels)
	assert.Empty(t, back.Frames[1].Cels)
}

func TestAnimsRoundTrip(t *testing.T) {
	doc := &AnimDoc{Anims: []Anim{
		{Frames: []AnimFrame{{ID: 2, Duration: 15}}},
		{Frames: []AnimFrame{{ID: 0, Duration: 1}, {ID: 1, Duration: 1}}},
	}}

	var buf bytes.Buffer
	require.NoError(t, EncodeAnims(&buf, doc))
	assert.Contains(t, buf.String(), `<Frame id="2" duration="15">`)

	back, err := DecodeAnims(&buf)
	require.NoError(t, err)
	require.Len(t, back.Anims, 2)
	assert.Equal(t, doc.Anims[0].Frames, back.Anims[0].Frames)
	assert.Equal(t, doc.Anims[1].Frames, back.Anims[1].Frames)
}

func TestDecodeFramesSyntaxError(t *testing.T) {
	_, err := DecodeFrames(strings.NewReader("<AnimData><Frames><oops"))
	assert.Error(t, err)
}
