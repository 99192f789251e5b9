package service

import (
	"image"
	"math"
	"sort"

	"github.com/disintegration/imaging"
	"github.com/jrebull/graph-cuts-segmentation/segment"
	colorful "github.com/lucasb-eyer/go-colorful"
)

var (
	foregroundTint = colorful.Color{R: 1, G: 0, B: 0}
	backgroundTint = colorful.Color{R: 0, G: 0, B: 1}
)

// strokeOpacity 画笔颜色的不透明度
const strokeOpacity = 0.5

// RenderSeeds 在图像上按时间顺序绘制半透明的画笔痕迹：前景红色，背景蓝色
func RenderSeeds(img image.Image, seeds segment.SeedSet) *image.NRGBA {
	dst := imaging.Clone(img)
	b := dst.Bounds()

	points := append(seeds.Foreground(), seeds.Background()...)
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Time.Before(points[j].Time)
	})

	for _, p := range points {
		tint := backgroundTint
		if p.Class == segment.Foreground {
			tint = foregroundTint
		}
		r := float64(p.Radius)
		x0 := max(b.Min.X, int(math.Floor(p.Pos.X-r)))
		x1 := min(b.Max.X-1, int(math.Ceil(p.Pos.X+r)))
		y0 := max(b.Min.Y, int(math.Floor(p.Pos.Y-r)))
		y1 := min(b.Max.Y-1, int(math.Ceil(p.Pos.Y+r)))

		for y := y0; y <= y1; y++ {
			for x := x0; x <= x1; x++ {
				dx, dy := float64(x)-p.Pos.X, float64(y)-p.Pos.Y
				if dx*dx+dy*dy > r*r {
					continue
				}
				i := dst.PixOffset(x, y)
				c := colorful.Color{
					R: float64(dst.Pix[i]) / 255,
					G: float64(dst.Pix[i+1]) / 255,
					B: float64(dst.Pix[i+2]) / 255,
				}
				dst.Pix[i], dst.Pix[i+1], dst.Pix[i+2] = c.BlendRgb(tint, strokeOpacity).RGB255()
			}
		}
	}
	return dst
}
