package segment

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/kdtree"
)

// memoLimit 每个协程缓存的颜色相似度条目上限
const memoLimit = 1 << 15

// Scorer 结合颜色相似度与到种子的空间距离为每个像素打分
type Scorer struct {
	fg, bg           *ColorModel
	fgSeeds, bgSeeds *kdtree.Tree

	colorWeight float64
	colorNorm   float64
	spatialNorm float64
	workers     int
}

// NewScorer 为两类种子建立二维 k-d 树索引
func NewScorer(fg, bg *ColorModel, seeds SeedSet, cfg Config) (*Scorer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if fg == nil || seeds.Len(Foreground) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptySeedClass, Foreground)
	}
	if bg == nil || seeds.Len(Background) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptySeedClass, Background)
	}

	return &Scorer{
		fg:          fg,
		bg:          bg,
		fgSeeds:     seedTree(seeds.class(Foreground)),
		bgSeeds:     seedTree(seeds.class(Background)),
		colorWeight: cfg.ColorWeight,
		colorNorm:   cfg.ColorNormalizer,
		spatialNorm: cfg.SpatialNormalizer,
		workers:     cfg.Workers,
	}, nil
}

func seedTree(seeds []SeedPoint) *kdtree.Tree {
	pts := make(kdtree.Points, len(seeds))
	for i, s := range seeds {
		pts[i] = kdtree.Point{s.Pos.X, s.Pos.Y}
	}
	return kdtree.New(pts, false)
}

// Scores 返回颜色为 c、位于 (x, y) 的像素的前景分与背景分
func (s *Scorer) Scores(c RGB, x, y float64) (fgScore, bgScore float64) {
	fa, ba := s.appearance(c)
	fp, bp := s.proximity(x, y)
	return s.combine(fa, fp), s.combine(ba, bp)
}

// Decide 前景分严格大于背景分时为前景，相等时归为背景
func Decide(fgScore, bgScore float64) Label {
	if fgScore > bgScore {
		return LabelForeground
	}
	return LabelBackground
}

// Score 并行计算每个像素的标签，得到未平滑的掩码
func (s *Scorer) Score(ctx context.Context, img *Image) (*Mask, error) {
	if err := img.validate(); err != nil {
		return nil, err
	}

	mask := NewMask(img.Width, img.Height)
	err := forEachRow(ctx, img.Height, s.workers, func() func(y int) {
		memo := make(map[RGB][2]float64)
		return func(y int) {
			row := mask.Labels[y*img.Width : (y+1)*img.Width]
			for x := range row {
				c := img.RGBAt(x, y)
				sim, ok := memo[c]
				if !ok {
					sim[0], sim[1] = s.appearance(c)
					if len(memo) < memoLimit {
						memo[c] = sim
					}
				}
				fp, bp := s.proximity(float64(x), float64(y))
				row[x] = Decide(s.combine(sim[0], fp), s.combine(sim[1], bp))
			}
		}
	})
	if err != nil {
		return nil, err
	}
	return mask, nil
}

func (s *Scorer) appearance(c RGB) (fg, bg float64) {
	return similarity(s.fg.Distance(c), s.colorNorm), similarity(s.bg.Distance(c), s.colorNorm)
}

func (s *Scorer) proximity(x, y float64) (fg, bg float64) {
	q := kdtree.Point{x, y}
	_, fd := s.fgSeeds.Nearest(q)
	_, bd := s.bgSeeds.Nearest(q)
	return similarity(math.Sqrt(fd), s.spatialNorm), similarity(math.Sqrt(bd), s.spatialNorm)
}

func (s *Scorer) combine(appearance, proximity float64) float64 {
	return s.colorWeight*appearance + (1-s.colorWeight)*proximity
}

func similarity(dist, normalizer float64) float64 {
	return math.Max(0, 1-dist/normalizer)
}
