package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/jrebull/graph-cuts-segmentation/config"
	"github.com/jrebull/graph-cuts-segmentation/model"
	"github.com/jrebull/graph-cuts-segmentation/segment"
	"github.com/jrebull/graph-cuts-segmentation/utils"
	"go.uber.org/zap"
)

// ErrQueueFull 等待处理槽位超时
var ErrQueueFull = errors.New("processing queue is full")

// MaskProcessor 掩码后处理与编码
type MaskProcessor interface {
	Resize(m *segment.Mask, width, height int) (*segment.Mask, error)
	Morphology(m *segment.Mask, kernelSize int) (*segment.Mask, error)
	KeepLargest(m *segment.Mask) (*segment.Mask, error)
	BoundingBox(m *segment.Mask) (image.Rectangle, error)
	EncodePNG(m *segment.Mask, invert bool) ([]byte, error)
	EncodeCutout(img *image.NRGBA) ([]byte, error)
}

// SegmentRequest 一次分割请求
type SegmentRequest struct {
	MD5    string
	Image  image.Image
	Seeds  segment.SeedSet
	Params model.SegmentParams
}

// SegmentService 负责根据用户标记分割图像
type SegmentService struct {
	defaults        segment.Config
	backgroundAlpha uint8
	maxSide         int
	semaphore       chan struct{}
	queueTimeout    time.Duration
	masks           MaskProcessor
}

func NewSegmentService(cfg *config.SegmentConfig, masks MaskProcessor) *SegmentService {
	return &SegmentService{
		defaults:        cfg.Pipeline(),
		backgroundAlpha: clampAlpha(cfg.BackgroundAlpha),
		maxSide:         cfg.MaxSide,
		semaphore:       make(chan struct{}, max(1, cfg.MaxConcurrent)),
		queueTimeout:    time.Duration(cfg.QueueTimeout) * time.Second,
		masks:           masks,
	}
}

// Resolve 合并请求参数与默认参数并校验，返回流水线参数、背景透明度和缓存键
func (s *SegmentService) Resolve(req *SegmentRequest) (segment.Config, uint8, string, error) {
	cfg := req.Params.Apply(s.defaults)
	if err := cfg.Validate(); err != nil {
		return segment.Config{}, 0, "", err
	}
	if req.Params.MorphologyKernel < 0 {
		return segment.Config{}, 0, "", fmt.Errorf("%w: morphology kernel %d is negative",
			segment.ErrInvalidConfig, req.Params.MorphologyKernel)
	}
	alpha := s.backgroundAlpha
	if req.Params.BackgroundAlpha != nil {
		alpha = clampAlpha(*req.Params.BackgroundAlpha)
	}
	key, err := CacheKey(req.MD5, req.Seeds, cfg, req.Params, alpha)
	if err != nil {
		return segment.Config{}, 0, "", err
	}
	return cfg, alpha, key, nil
}

// Process 分割图片并返回前景/背景图层
func (s *SegmentService) Process(ctx context.Context, req *SegmentRequest) (*model.SegmentResult, error) {
	if req.Image == nil {
		return nil, segment.ErrMissingImage
	}
	cfg, alpha, key, err := s.Resolve(req)
	if err != nil {
		return nil, err
	}

	// 并发控制
	if err := s.acquire(ctx); err != nil {
		return nil, err
	}
	defer func() { <-s.semaphore }()

	startTime := time.Now()

	bounds := req.Image.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	utils.Logger.Info("processing image",
		zap.String("key", key),
		zap.Int("width", width),
		zap.Int("height", height),
		zap.Int("fg_seeds", req.Seeds.Len(segment.Foreground)),
		zap.Int("bg_seeds", req.Seeds.Len(segment.Background)))

	// 智能缩放
	scaled, scale := SmartResize(req.Image, s.maxSide)
	seeds := ScaleSeeds(req.Seeds, scale)

	pipeline, err := segment.New(cfg, segment.WithLogger(utils.Logger))
	if err != nil {
		return nil, err
	}
	analysis, err := pipeline.Analyze(ctx, segment.FromImage(scaled), seeds)
	if err != nil {
		return nil, err
	}
	mask := analysis.Mask

	// 还原到原始尺寸
	if scale != 1.0 {
		if mask, err = s.masks.Resize(mask, width, height); err != nil {
			return nil, fmt.Errorf("resize mask: %w", err)
		}
	}

	if req.Params.MorphologyKernel > 0 {
		if mask, err = s.masks.Morphology(mask, req.Params.MorphologyKernel); err != nil {
			return nil, fmt.Errorf("morphology: %w", err)
		}
	}

	if req.Params.MaxForegroundOnly {
		if mask, err = s.masks.KeepLargest(mask); err != nil {
			return nil, fmt.Errorf("keep largest: %w", err)
		}
	}

	bbox, err := s.masks.BoundingBox(mask)
	if err != nil {
		return nil, fmt.Errorf("bounding box: %w", err)
	}
	fgMask, err := s.encodeMask(mask, false)
	if err != nil {
		return nil, err
	}
	bgMask, err := s.encodeMask(mask, true)
	if err != nil {
		return nil, err
	}

	fgConfidence := calculateConfidence(mask.Count(), width*height)

	result := &model.SegmentResult{
		Key:    key,
		MD5:    req.MD5,
		Width:  width,
		Height: height,
		Scale:  scale,
		Seeds: model.SeedCount{
			Foreground: req.Seeds.Len(segment.Foreground),
			Background: req.Seeds.Len(segment.Background),
		},
		Colors: model.ColorSummary{
			Foreground: colorStats(analysis.Foreground),
			Background: colorStats(analysis.Background),
		},
		Timestamp: time.Now().Unix(),
		Layers: []model.Layer{
			{
				ID:   1,
				Type: "foreground",
				BoundingBox: model.BBox{
					X:      bbox.Min.X,
					Y:      bbox.Min.Y,
					Width:  bbox.Dx(),
					Height: bbox.Dy(),
				},
				Mask:       fgMask,
				Confidence: fgConfidence,
			},
			{
				ID:          2,
				Type:        "background",
				BoundingBox: model.BBox{X: 0, Y: 0, Width: width, Height: height},
				Mask:        bgMask,
				Confidence:  1.0 - fgConfidence,
			},
		},
	}

	if req.Params.Cutout {
		cutout := mask.Apply(segment.FromImage(req.Image), alpha)
		data, err := s.masks.EncodeCutout(cutout)
		if err != nil {
			return nil, fmt.Errorf("encode cutout: %w", err)
		}
		result.Cutout = base64.StdEncoding.EncodeToString(data)
	}

	utils.Logger.Info("image segmented successfully",
		zap.String("key", key),
		zap.Float64("scale", scale),
		zap.Duration("duration", time.Since(startTime)),
		zap.Float64("foreground_confidence", fgConfidence))

	return result, nil
}

// acquire 占用一个处理槽位；有空闲槽位时立即返回，否则最多等待 queueTimeout
func (s *SegmentService) acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case s.semaphore <- struct{}{}:
		return nil
	default:
	}
	if s.queueTimeout <= 0 {
		return ErrQueueFull
	}

	timer := time.NewTimer(s.queueTimeout)
	defer timer.Stop()
	select {
	case s.semaphore <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrQueueFull
	}
}

// encodeMask 将掩码编码为Base64字符串
func (s *SegmentService) encodeMask(mask *segment.Mask, invert bool) (string, error) {
	data, err := s.masks.EncodePNG(mask, invert)
	if err != nil {
		return "", fmt.Errorf("encode mask: %w", err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// colorStats 颜色模型统计，随结果返回给前端
func colorStats(m *segment.ColorModel) model.ColorStats {
	return model.ColorStats{
		Samples:  m.Samples(),
		Distinct: m.Distinct(),
		Mean:     m.Mean(),
		Variance: m.Variance(),
	}
}

// calculateConfidence 前景占比，限制在 [0.05, 0.95]
func calculateConfidence(foreground, total int) float64 {
	if total == 0 {
		return 0.05
	}
	confidence := float64(foreground) / float64(total)
	if confidence < 0.05 {
		confidence = 0.05
	}
	if confidence > 0.95 {
		confidence = 0.95
	}
	return confidence
}

func clampAlpha(v int) uint8 {
	return uint8(max(0, min(255, v)))
}
