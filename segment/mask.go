package segment

import (
	"image"
)

// Label 单个像素的分割结果
type Label uint8

const (
	LabelBackground Label = 0
	LabelForeground Label = 1
)

// Mask 每像素一个标签的二值掩码
type Mask struct {
	Width  int
	Height int
	Labels []Label
}

// NewMask 创建全背景掩码
func NewMask(width, height int) *Mask {
	return &Mask{
		Width:  width,
		Height: height,
		Labels: make([]Label, width*height),
	}
}

func (m *Mask) At(x, y int) Label {
	return m.Labels[y*m.Width+x]
}

func (m *Mask) Set(x, y int, l Label) {
	m.Labels[y*m.Width+x] = l
}

// Count 前景像素数量
func (m *Mask) Count() int {
	n := 0
	for _, l := range m.Labels {
		if l == LabelForeground {
			n++
		}
	}
	return n
}

func (m *Mask) Clone() *Mask {
	return &Mask{
		Width:  m.Width,
		Height: m.Height,
		Labels: append([]Label(nil), m.Labels...),
	}
}

// Diff 返回与 other 标签不同的像素数；尺寸不同时返回 -1
func (m *Mask) Diff(other *Mask) int {
	if other == nil || m.Width != other.Width || m.Height != other.Height {
		return -1
	}
	n := 0
	for i, l := range m.Labels {
		if other.Labels[i] != l {
			n++
		}
	}
	return n
}

func (m *Mask) Equal(other *Mask) bool {
	return m.Diff(other) == 0
}

// Alpha 前景 255、背景 0 的灰度掩码
func (m *Mask) Alpha() *image.Alpha {
	a := image.NewAlpha(image.Rect(0, 0, m.Width, m.Height))
	for i, l := range m.Labels {
		if l == LabelForeground {
			a.Pix[i] = 255
		}
	}
	return a
}

// Apply 保留原图 RGB，前景 alpha 为 255，背景 alpha 为 backgroundAlpha
func (m *Mask) Apply(img *Image, backgroundAlpha uint8) *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, m.Width, m.Height))
	copy(out.Pix, img.Pix)
	for i, l := range m.Labels {
		if l == LabelForeground {
			out.Pix[4*i+3] = 255
		} else {
			out.Pix[4*i+3] = backgroundAlpha
		}
	}
	return out
}

// MaskFromAlpha 以 threshold 为界将灰度掩码二值化
func MaskFromAlpha(a *image.Alpha, threshold uint8) *Mask {
	b := a.Bounds()
	m := NewMask(b.Dx(), b.Dy())
	for y := 0; y < m.Height; y++ {
		row := a.Pix[a.PixOffset(b.Min.X, b.Min.Y+y):][:m.Width]
		for x, v := range row {
			if v > threshold {
				m.Labels[y*m.Width+x] = LabelForeground
			}
		}
	}
	return m
}
