package segment

import (
	"fmt"
	"math"
)

// MaxColorDistance RGB 空间中两种颜色的最大欧氏距离
var MaxColorDistance = 255 * math.Sqrt(3)

// Config 分割流水线参数
type Config struct {
	SampleRadius          int     // 颜色采样半径上限，实际半径为 min(种子笔刷半径, SampleRadius)
	ColorWeight           float64 // 颜色相似度权重，(0,1)，其余权重给空间距离
	SpatialNormalizer     float64 // 空间距离归一化常数（像素），与图像尺寸无关
	ColorNormalizer       float64 // 颜色距离归一化常数，默认 255·√3
	SmoothingKernelRadius int     // 平滑窗口半径，0 表示不平滑
	BinarizeThreshold     float64 // 平滑后前景占比超过该值判为前景
	Workers               int     // 并行协程数，0 表示 GOMAXPROCS
}

// DefaultConfig 返回默认参数
func DefaultConfig() Config {
	return Config{
		SampleRadius:          25,
		ColorWeight:           0.7,
		SpatialNormalizer:     150,
		ColorNormalizer:       MaxColorDistance,
		SmoothingKernelRadius: 1,
		BinarizeThreshold:     0.5,
	}
}

// Validate 检查参数范围
func (c Config) Validate() error {
	switch {
	case c.SampleRadius <= 0:
		return fmt.Errorf("%w: sample radius %d must be positive", ErrInvalidConfig, c.SampleRadius)
	case !(c.ColorWeight > 0 && c.ColorWeight < 1):
		return fmt.Errorf("%w: color weight %v must be in (0,1)", ErrInvalidConfig, c.ColorWeight)
	case !(c.SpatialNormalizer > 0) || math.IsInf(c.SpatialNormalizer, 0):
		return fmt.Errorf("%w: spatial normalizer %v must be positive", ErrInvalidConfig, c.SpatialNormalizer)
	case !(c.ColorNormalizer > 0) || math.IsInf(c.ColorNormalizer, 0):
		return fmt.Errorf("%w: color normalizer %v must be positive", ErrInvalidConfig, c.ColorNormalizer)
	case c.SmoothingKernelRadius < 0:
		return fmt.Errorf("%w: smoothing kernel radius %d is negative", ErrInvalidConfig, c.SmoothingKernelRadius)
	case !(c.BinarizeThreshold >= 0 && c.BinarizeThreshold < 1):
		return fmt.Errorf("%w: binarize threshold %v must be in [0,1)", ErrInvalidConfig, c.BinarizeThreshold)
	case c.Workers < 0:
		return fmt.Errorf("%w: workers %d is negative", ErrInvalidConfig, c.Workers)
	}
	return nil
}
