package service

import (
	"fmt"
	"image"
	_ "image/gif"
	"io"
	"math"

	"github.com/disintegration/imaging"
	"github.com/golang/geo/r2"
	"github.com/jrebull/graph-cuts-segmentation/segment"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// DecodeImage 解码上传的图片，按 EXIF 方向自动旋转
func DecodeImage(r io.Reader) (image.Image, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("decode image: %w", segment.ErrMissingImage)
	}
	return img, nil
}

// SmartResize 缩放图像使长边不超过 maxSize，返回副本及缩放比例
func SmartResize(img image.Image, maxSize int) (*image.NRGBA, float64) {
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	maxDim := max(width, height)
	if maxSize <= 0 || maxDim <= maxSize {
		return imaging.Clone(img), 1.0
	}

	scale := float64(maxSize) / float64(maxDim)
	newWidth := max(1, int(float64(width)*scale))
	newHeight := max(1, int(float64(height)*scale))

	return imaging.Resize(img, newWidth, newHeight, imaging.Lanczos), scale
}

// ScaleSeeds 将种子坐标和笔刷半径映射到缩放后的图像上
func ScaleSeeds(seeds segment.SeedSet, scale float64) segment.SeedSet {
	if scale == 1.0 {
		return seeds
	}
	var points []segment.SeedPoint
	for _, c := range []segment.Class{segment.Foreground, segment.Background} {
		for _, p := range seeds.Of(c) {
			// 以像素中心对齐
			p.Pos = r2.Point{
				X: (p.Pos.X+0.5)*scale - 0.5,
				Y: (p.Pos.Y+0.5)*scale - 0.5,
			}
			p.Radius = max(1, int(math.Round(float64(p.Radius)*scale)))
			points = append(points, p)
		}
	}
	return segment.NewSeedSet(points...)
}
