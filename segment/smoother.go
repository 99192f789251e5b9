package segment

import (
	"context"
	"fmt"
)

// Smooth 对二值掩码做方形窗口均值滤波后重新二值化，去除边界附近的孤立噪点。
// 窗口边长 2r+1，越界时取最近的边缘像素；输入掩码不会被修改。
func Smooth(ctx context.Context, m *Mask, kernelRadius int, threshold float64, workers int) (*Mask, error) {
	if m == nil {
		return nil, ErrMissingImage
	}
	if len(m.Labels) != m.Width*m.Height {
		return nil, fmt.Errorf("%w: mask holds %d labels, want %d",
			ErrDimensionMismatch, len(m.Labels), m.Width*m.Height)
	}
	if kernelRadius < 0 {
		return nil, fmt.Errorf("%w: kernel radius %d is negative", ErrInvalidConfig, kernelRadius)
	}
	if !(threshold >= 0 && threshold < 1) {
		return nil, fmt.Errorf("%w: threshold %v must be in [0,1)", ErrInvalidConfig, threshold)
	}
	if kernelRadius == 0 || len(m.Labels) == 0 {
		return m.Clone(), nil
	}

	w, h, r := m.Width, m.Height, kernelRadius
	rowSums := make([]int32, w*h)

	err := forEachRow(ctx, h, workers, func() func(y int) {
		return func(y int) {
			src := m.Labels[y*w : (y+1)*w]
			dst := rowSums[y*w : (y+1)*w]
			var sum int32
			for dx := -r; dx <= r; dx++ {
				sum += int32(src[clampi(dx, 0, w-1)])
			}
			dst[0] = sum
			for x := 1; x < w; x++ {
				sum += int32(src[clampi(x+r, 0, w-1)]) - int32(src[clampi(x-r-1, 0, w-1)])
				dst[x] = sum
			}
		}
	})
	if err != nil {
		return nil, err
	}

	out := NewMask(w, h)
	area := float64((2*r + 1) * (2*r + 1))
	err = forEachRow(ctx, h, workers, func() func(y int) {
		return func(y int) {
			dst := out.Labels[y*w : (y+1)*w]
			for x := range dst {
				var total int32
				for dy := -r; dy <= r; dy++ {
					total += rowSums[clampi(y+dy, 0, h-1)*w+x]
				}
				if float64(total)/area > threshold {
					dst[x] = LabelForeground
				}
			}
		}
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
