package segment

import (
	"math/rand"
	"testing"

	"github.com/golang/geo/r2"
	"github.com/stretchr/testify/require"
)

func solidImage(t *testing.T, w, h int, c RGB) *Image {
	t.Helper()
	pix := make([]uint8, 4*w*h)
	for i := 0; i < w*h; i++ {
		pix[4*i], pix[4*i+1], pix[4*i+2], pix[4*i+3] = c.R, c.G, c.B, 255
	}
	img, err := NewImage(w, h, pix)
	require.NoError(t, err)
	return img
}

func paint(img *Image, x0, y0, x1, y1 int, c RGB) {
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			i := 4 * (y*img.Width + x)
			img.Pix[i], img.Pix[i+1], img.Pix[i+2] = c.R, c.G, c.B
		}
	}
}

func noisyImage(t *testing.T, w, h int, seed int64) *Image {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	img := solidImage(t, w, h, RGB{})
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			base := uint8(40)
			if x > w/2 {
				base = 190
			}
			i := 4 * (y*w + x)
			img.Pix[i] = base + uint8(rng.Intn(40))
			img.Pix[i+1] = base + uint8(rng.Intn(40))
			img.Pix[i+2] = base + uint8(rng.Intn(40))
		}
	}
	return img
}

func fg(x, y float64, r int) SeedPoint {
	return SeedPoint{Pos: r2.Point{X: x, Y: y}, Class: Foreground, Radius: r}
}

func bg(x, y float64, r int) SeedPoint {
	return SeedPoint{Pos: r2.Point{X: x, Y: y}, Class: Background, Radius: r}
}
