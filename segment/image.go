package segment

import (
	"fmt"
	"image"
	"image/draw"
)

// Image 行优先的 RGBA 像素缓冲区，每像素 4 字节
type Image struct {
	Width  int
	Height int
	Pix    []uint8
}

// RGB 像素颜色
type RGB struct {
	R, G, B uint8
}

// NewImage 使用已有缓冲区创建图像，缓冲区长度必须为 4*w*h
func NewImage(width, height int, pix []uint8) (*Image, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: image size %dx%d", ErrDimensionMismatch, width, height)
	}
	if len(pix) != 4*width*height {
		return nil, fmt.Errorf("%w: buffer holds %d bytes, want %d for %dx%d",
			ErrDimensionMismatch, len(pix), 4*width*height, width, height)
	}
	return &Image{Width: width, Height: height, Pix: pix}, nil
}

// FromImage 将任意 image.Image 转换为 RGBA 缓冲区
func FromImage(src image.Image) *Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()

	if nrgba, ok := src.(*image.NRGBA); ok && nrgba.Stride == 4*w && b.Min == (image.Point{}) {
		pix := make([]uint8, len(nrgba.Pix[:4*w*h]))
		copy(pix, nrgba.Pix)
		return &Image{Width: w, Height: h, Pix: pix}
	}

	// 分割只关心颜色，使用非预乘格式以保留半透明像素的原始 RGB
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return &Image{Width: w, Height: h, Pix: dst.Pix}
}

// Len 像素数量
func (im *Image) Len() int {
	return im.Width * im.Height
}

// RGBAt 返回 (x, y) 处的颜色
func (im *Image) RGBAt(x, y int) RGB {
	i := 4 * (y*im.Width + x)
	return RGB{R: im.Pix[i], G: im.Pix[i+1], B: im.Pix[i+2]}
}

func (im *Image) validate() error {
	if im == nil || im.Width <= 0 || im.Height <= 0 {
		return ErrMissingImage
	}
	if len(im.Pix) != 4*im.Width*im.Height {
		return fmt.Errorf("%w: buffer holds %d bytes, want %d",
			ErrDimensionMismatch, len(im.Pix), 4*im.Width*im.Height)
	}
	return nil
}
