package service

import (
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/golang/geo/r2"
	"github.com/jrebull/graph-cuts-segmentation/segment"
	"github.com/stretchr/testify/assert"
)

func whiteImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	return img
}

func TestRenderSeedsTintsStrokes(t *testing.T) {
	src := whiteImage(7, 7)
	t0 := time.Unix(100, 0)
	seeds := segment.NewSeedSet(
		segment.SeedPoint{Pos: r2.Point{X: 2, Y: 3}, Class: segment.Foreground, Radius: 1, Time: t0},
		segment.SeedPoint{Pos: r2.Point{X: 3, Y: 3}, Class: segment.Background, Radius: 1, Time: t0.Add(time.Second)},
	)

	out := RenderSeeds(src, seeds)

	assert.Equal(t, color.NRGBA{R: 255, G: 128, B: 128, A: 255}, out.NRGBAAt(1, 3))
	assert.Equal(t, color.NRGBA{R: 128, G: 128, B: 255, A: 255}, out.NRGBAAt(4, 3))
	// 红色笔画之上再叠加蓝色
	mixed := out.NRGBAAt(2, 3)
	assert.Equal(t, uint8(128), mixed.R)
	assert.InDelta(t, 64, int(mixed.G), 1)
	assert.InDelta(t, 192, int(mixed.B), 1)
	assert.Equal(t, color.NRGBA{R: 255, G: 255, B: 255, A: 255}, out.NRGBAAt(6, 6))
	assert.Equal(t, uint8(255), src.Pix[0], "source must not be modified")
}

func TestRenderSeedsIgnoresOffImagePixels(t *testing.T) {
	src := whiteImage(3, 3)
	seeds := segment.NewSeedSet(segment.SeedPoint{Pos: r2.Point{X: -1, Y: 1}, Class: segment.Foreground, Radius: 1})

	out := RenderSeeds(src, seeds)
	assert.Equal(t, color.NRGBA{R: 255, G: 128, B: 128, A: 255}, out.NRGBAAt(0, 1))
	assert.Equal(t, color.NRGBA{R: 255, G: 255, B: 255, A: 255}, out.NRGBAAt(1, 1))
}
