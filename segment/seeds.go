package segment

import (
	"fmt"
	"math"
	"time"

	"github.com/golang/geo/r2"
)

// Class 像素类别
type Class uint8

const (
	Background Class = iota
	Foreground
)

func (c Class) String() string {
	switch c {
	case Foreground:
		return "foreground"
	case Background:
		return "background"
	default:
		return fmt.Sprintf("class(%d)", uint8(c))
	}
}

// SeedPoint 用户画笔留下的一个种子点
type SeedPoint struct {
	Pos    r2.Point
	Class  Class
	Radius int
	Time   time.Time
}

// SeedSet 不可变的种子集合，按类别分别保存
type SeedSet struct {
	fg []SeedPoint
	bg []SeedPoint
}

// NewSeedSet 按类别拆分种子点
func NewSeedSet(points ...SeedPoint) SeedSet {
	return SeedSet{}.With(points...)
}

// With 返回追加了 points 的新集合，原集合不变
func (s SeedSet) With(points ...SeedPoint) SeedSet {
	next := SeedSet{
		fg: append([]SeedPoint(nil), s.fg...),
		bg: append([]SeedPoint(nil), s.bg...),
	}
	for _, p := range points {
		if p.Class == Foreground {
			next.fg = append(next.fg, p)
		} else {
			next.bg = append(next.bg, p)
		}
	}
	return next
}

// Of 返回某一类别种子的副本
func (s SeedSet) Of(c Class) []SeedPoint {
	if c == Foreground {
		return append([]SeedPoint(nil), s.fg...)
	}
	return append([]SeedPoint(nil), s.bg...)
}

func (s SeedSet) Foreground() []SeedPoint { return s.Of(Foreground) }
func (s SeedSet) Background() []SeedPoint { return s.Of(Background) }

// Len 某一类别的种子数量
func (s SeedSet) Len(c Class) int {
	if c == Foreground {
		return len(s.fg)
	}
	return len(s.bg)
}

func (s SeedSet) class(c Class) []SeedPoint {
	if c == Foreground {
		return s.fg
	}
	return s.bg
}

// clamp 将落在图像外但笔刷仍覆盖图像的种子移到最近的边缘像素。
// 笔刷完全不接触图像的种子视为尺寸不匹配。
func (s SeedSet) clamp(width, height int) (SeedSet, error) {
	out := SeedSet{
		fg: make([]SeedPoint, 0, len(s.fg)),
		bg: make([]SeedPoint, 0, len(s.bg)),
	}
	for _, c := range []Class{Foreground, Background} {
		for _, p := range s.class(c) {
			if p.Radius <= 0 {
				return SeedSet{}, fmt.Errorf("%w: %s seed at (%.1f, %.1f) has radius %d",
					ErrInvalidConfig, c, p.Pos.X, p.Pos.Y, p.Radius)
			}
			if math.IsNaN(p.Pos.X) || math.IsNaN(p.Pos.Y) {
				return SeedSet{}, fmt.Errorf("%w: %s seed position is NaN", ErrDimensionMismatch, c)
			}
			q := p
			q.Class = c
			q.Pos = r2.Point{
				X: clampf(p.Pos.X, 0, float64(width-1)),
				Y: clampf(p.Pos.Y, 0, float64(height-1)),
			}
			if p.Pos.Sub(q.Pos).Norm() > float64(p.Radius) {
				return SeedSet{}, fmt.Errorf("%w: %s seed at (%.1f, %.1f) radius %d lies outside %dx%d image",
					ErrDimensionMismatch, c, p.Pos.X, p.Pos.Y, p.Radius, width, height)
			}
			if c == Foreground {
				out.fg = append(out.fg, q)
			} else {
				out.bg = append(out.bg, q)
			}
		}
	}
	return out, nil
}

func clampf(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func clampi(v, lo, hi int) int {
	return max(lo, min(hi, v))
}
