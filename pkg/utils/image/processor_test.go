package image

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/chai2010/webp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessImageConvertsToWebP(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 40, 20))
	for x := 0; x < 40; x++ {
		src.Set(x, 10, color.RGBA{R: 200, A: 255})
	}
	var in bytes.Buffer
	require.NoError(t, png.Encode(&in, src))

	out, err := ProcessImage(&in)
	require.NoError(t, err)
	assert.Equal(t, "image/webp", out.ContentType)
	assert.Equal(t, ".webp", out.Ext)
	assert.Equal(t, 40, out.Width)
	assert.Equal(t, 20, out.Height)

	decoded, err := webp.Decode(bytes.NewReader(out.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 40, decoded.Bounds().Dx())
}

func TestProcessImageRejectsGarbage(t *testing.T) {
	_, err := ProcessImage(strings.NewReader("not an image"))
	assert.Error(t, err)
}
