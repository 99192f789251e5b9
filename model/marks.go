package model

import (
	"time"

	"github.com/golang/geo/r2"
	"github.com/jrebull/graph-cuts-segmentation/segment"
)

// Mark 画笔经过的一个点；radius 缺省时使用默认笔刷大小，t 为毫秒时间戳
type Mark struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Radius int     `json:"radius,omitempty"`
	T      int64   `json:"t,omitempty"`
}

// Marks 前景/背景标记，与前端画布的记录格式一致
type Marks struct {
	Foreground []Mark `json:"foreground"`
	Background []Mark `json:"background"`
}

// SeedSet 转换为分割种子
func (m Marks) SeedSet(defaultRadius int) segment.SeedSet {
	points := make([]segment.SeedPoint, 0, len(m.Foreground)+len(m.Background))
	add := func(marks []Mark, class segment.Class) {
		for _, mk := range marks {
			r := mk.Radius
			if r <= 0 {
				r = defaultRadius
			}
			var ts time.Time
			if mk.T > 0 {
				ts = time.UnixMilli(mk.T)
			}
			points = append(points, segment.SeedPoint{
				Pos:    r2.Point{X: mk.X, Y: mk.Y},
				Class:  class,
				Radius: r,
				Time:   ts,
			})
		}
	}
	add(m.Foreground, segment.Foreground)
	add(m.Background, segment.Background)
	return segment.NewSeedSet(points...)
}
