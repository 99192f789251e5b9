package segment

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaskApply(t *testing.T) {
	img := solidImage(t, 2, 1, RGB{R: 7, G: 8, B: 9})
	m := NewMask(2, 1)
	m.Set(0, 0, LabelForeground)

	out := m.Apply(img, 50)
	assert.Equal(t, color.NRGBA{R: 7, G: 8, B: 9, A: 255}, out.NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{R: 7, G: 8, B: 9, A: 50}, out.NRGBAAt(1, 0))
	// 原图不变
	assert.Equal(t, uint8(255), img.Pix[7])
}

func TestMaskApplyKeepsRGBOfTransparentPixels(t *testing.T) {
	img, err := NewImage(2, 1, []uint8{40, 50, 60, 0, 70, 80, 90, 10})
	require.NoError(t, err)
	m := NewMask(2, 1)
	m.Set(0, 0, LabelForeground)

	out := m.Apply(img, 0)
	assert.Equal(t, []uint8{40, 50, 60, 255, 70, 80, 90, 0}, out.Pix)
	assert.Equal(t, []uint8{40, 50, 60, 0, 70, 80, 90, 10}, img.Pix)
}

func TestMaskAlphaThreshold(t *testing.T) {
	m := maskFromRows("#..", ".#.")
	a := m.Alpha()
	assert.Equal(t, uint8(255), a.AlphaAt(0, 0).A)
	assert.Equal(t, uint8(0), a.AlphaAt(1, 0).A)

	a.SetAlpha(2, 1, color.Alpha{A: 100})
	back := MaskFromAlpha(a, 127)
	assert.Equal(t, 2, back.Count())
	back = MaskFromAlpha(a, 50)
	assert.Equal(t, 3, back.Count())
}

func TestFromImageConvertsAnyImage(t *testing.T) {
	src := image.NewRGBA(image.Rect(2, 3, 5, 5))
	src.Set(2, 3, color.RGBA{R: 1, G: 2, B: 3, A: 255})
	src.Set(4, 4, color.RGBA{R: 10, G: 20, B: 30, A: 255})

	img := FromImage(src)
	require.Equal(t, 3, img.Width)
	require.Equal(t, 2, img.Height)
	assert.Equal(t, RGB{R: 1, G: 2, B: 3}, img.RGBAt(0, 0))
	assert.Equal(t, RGB{R: 10, G: 20, B: 30}, img.RGBAt(2, 1))
}

func TestNewImageValidatesBuffer(t *testing.T) {
	_, err := NewImage(2, 2, make([]uint8, 15))
	assert.ErrorIs(t, err, ErrDimensionMismatch)
	_, err = NewImage(0, 2, nil)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}
