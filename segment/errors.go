package segment

import "errors"

var (
	// ErrMissingImage 没有可供分割的图像
	ErrMissingImage = errors.New("missing image")

	// ErrEmptySeedClass 前景或背景种子为空
	ErrEmptySeedClass = errors.New("empty seed class")

	// ErrDimensionMismatch 像素缓冲区尺寸不符，或种子完全落在图像之外
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrInvalidConfig 配置参数非法
	ErrInvalidConfig = errors.New("invalid config")
)
