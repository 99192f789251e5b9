package service

import (
	"bytes"
	"image"
	"image/color"
	"image/png"

	"github.com/jrebull/graph-cuts-segmentation/segment"
)

// fakeMasks 纯 Go 实现的 MaskProcessor，测试时不依赖 OpenCV
type fakeMasks struct {
	resized     int
	morphology  int
	keepLargest int
}

func (f *fakeMasks) Resize(m *segment.Mask, width, height int) (*segment.Mask, error) {
	f.resized++
	out := segment.NewMask(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			out.Set(x, y, m.At(x*m.Width/width, y*m.Height/height))
		}
	}
	return out, nil
}

func (f *fakeMasks) Morphology(m *segment.Mask, kernelSize int) (*segment.Mask, error) {
	f.morphology++
	return m.Clone(), nil
}

func (f *fakeMasks) KeepLargest(m *segment.Mask) (*segment.Mask, error) {
	f.keepLargest++
	return m.Clone(), nil
}

func (f *fakeMasks) BoundingBox(m *segment.Mask) (image.Rectangle, error) {
	var r image.Rectangle
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			if m.At(x, y) == segment.LabelForeground {
				r = r.Union(image.Rect(x, y, x+1, y+1))
			}
		}
	}
	return r, nil
}

func (f *fakeMasks) EncodePNG(m *segment.Mask, invert bool) ([]byte, error) {
	a := m.Alpha()
	if invert {
		for i := range a.Pix {
			a.Pix[i] = 255 - a.Pix[i]
		}
	}
	gray := &image.Gray{Pix: a.Pix, Stride: a.Stride, Rect: a.Rect}
	var buf bytes.Buffer
	err := png.Encode(&buf, gray)
	return buf.Bytes(), err
}

func (f *fakeMasks) EncodeCutout(img *image.NRGBA) ([]byte, error) {
	var buf bytes.Buffer
	err := png.Encode(&buf, img)
	return buf.Bytes(), err
}

// splitImage 左半深色、右半浅色
func splitImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.NRGBA{R: 20, G: 20, B: 20, A: 255}
			if x >= w/2 {
				c = color.NRGBA{R: 235, G: 235, B: 235, A: 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}
