package segment

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/stat"
)

// ColorModel 某一类别种子邻域内采样颜色的外观模型。
// 只保存不同颜色及其出现次数；最近颜色距离不受重复样本影响，
// 重复次数只参与均值和方差。
type ColorModel struct {
	colors   []RGB
	counts   []int
	samples  int
	tree     *kdtree.Tree
	mean     [3]float64
	variance [3]float64
}

// BuildColorModel 对每个种子周围半径为 min(种子半径, sampleRadius) 的圆盘采样
func BuildColorModel(img *Image, seeds []SeedPoint, sampleRadius int) (*ColorModel, error) {
	if len(seeds) == 0 {
		return nil, ErrEmptySeedClass
	}
	if err := img.validate(); err != nil {
		return nil, err
	}
	if sampleRadius <= 0 {
		return nil, fmt.Errorf("%w: sample radius %d must be positive", ErrInvalidConfig, sampleRadius)
	}

	hist := make(map[RGB]int)
	total := 0
	for _, s := range seeds {
		r := max(0, min(s.Radius, sampleRadius))
		cx := clampi(int(math.Round(s.Pos.X)), 0, img.Width-1)
		cy := clampi(int(math.Round(s.Pos.Y)), 0, img.Height-1)

		for dy := -r; dy <= r; dy++ {
			y := cy + dy
			if y < 0 || y >= img.Height {
				continue
			}
			for dx := -r; dx <= r; dx++ {
				x := cx + dx
				if x < 0 || x >= img.Width || dx*dx+dy*dy > r*r {
					continue
				}
				hist[img.RGBAt(x, y)]++
				total++
			}
		}
	}

	m := &ColorModel{
		colors:  make([]RGB, 0, len(hist)),
		counts:  make([]int, 0, len(hist)),
		samples: total,
	}
	for c := range hist {
		m.colors = append(m.colors, c)
	}
	// map 遍历顺序随机，排序后模型与种子插入顺序无关
	sort.Slice(m.colors, func(i, j int) bool {
		return packRGB(m.colors[i]) < packRGB(m.colors[j])
	})

	pts := make(kdtree.Points, len(m.colors))
	channels := [3][]float64{}
	for i := range channels {
		channels[i] = make([]float64, len(m.colors))
	}
	weights := make([]float64, len(m.colors))
	for i, c := range m.colors {
		n := hist[c]
		m.counts = append(m.counts, n)
		pts[i] = kdtree.Point{float64(c.R), float64(c.G), float64(c.B)}
		channels[0][i] = float64(c.R)
		channels[1][i] = float64(c.G)
		channels[2][i] = float64(c.B)
		weights[i] = float64(n)
	}
	m.tree = kdtree.New(pts, false)

	for i := range channels {
		if total > 1 {
			m.mean[i], m.variance[i] = stat.MeanVariance(channels[i], weights)
		} else {
			m.mean[i] = stat.Mean(channels[i], weights)
		}
	}

	return m, nil
}

// Distance 返回 c 到模型中最近颜色的欧氏距离
func (m *ColorModel) Distance(c RGB) float64 {
	q := kdtree.Point{float64(c.R), float64(c.G), float64(c.B)}
	_, d2 := m.tree.Nearest(q)
	return math.Sqrt(d2)
}

// Samples 采样总数（含重复）
func (m *ColorModel) Samples() int { return m.samples }

// Distinct 不同颜色数量
func (m *ColorModel) Distinct() int { return len(m.colors) }

// Mean 各通道加权均值 (R, G, B)
func (m *ColorModel) Mean() [3]float64 { return m.mean }

// Variance 各通道加权方差 (R, G, B)
func (m *ColorModel) Variance() [3]float64 { return m.variance }

// Count 返回颜色 c 被采样的次数
func (m *ColorModel) Count(c RGB) int {
	key := packRGB(c)
	i := sort.Search(len(m.colors), func(i int) bool { return packRGB(m.colors[i]) >= key })
	if i < len(m.colors) && m.colors[i] == c {
		return m.counts[i]
	}
	return 0
}

func packRGB(c RGB) uint32 {
	return uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
}
