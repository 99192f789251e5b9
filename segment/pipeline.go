package segment

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Pipeline 种子分割流水线：采样建模、逐像素打分、平滑。
// 不保存运行间状态，可并发使用。
type Pipeline struct {
	cfg    Config
	logger *zap.Logger
}

// Option 流水线可选项
type Option func(*Pipeline)

// WithLogger 设置调试日志
func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// New 校验参数并创建流水线
func New(cfg Config, opts ...Option) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p := &Pipeline{cfg: cfg, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Config 返回流水线参数
func (p *Pipeline) Config() Config {
	return p.cfg
}

// Result 分割掩码及两类种子的颜色模型
type Result struct {
	Mask       *Mask
	Foreground *ColorModel
	Background *ColorModel
}

// Run 对图像执行完整分割。任一阶段失败或 ctx 被取消时不返回掩码。
func (p *Pipeline) Run(ctx context.Context, img *Image, seeds SeedSet) (*Mask, error) {
	res, err := p.Analyze(ctx, img, seeds)
	if err != nil {
		return nil, err
	}
	return res.Mask, nil
}

// Analyze 与 Run 相同，同时返回颜色模型
func (p *Pipeline) Analyze(ctx context.Context, img *Image, seeds SeedSet) (*Result, error) {
	if err := img.validate(); err != nil {
		return nil, err
	}
	for _, c := range []Class{Foreground, Background} {
		if seeds.Len(c) == 0 {
			return nil, fmt.Errorf("%w: no %s seeds", ErrEmptySeedClass, c)
		}
	}
	seeds, err := seeds.clamp(img.Width, img.Height)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	fgModel, err := BuildColorModel(img, seeds.class(Foreground), p.cfg.SampleRadius)
	if err != nil {
		return nil, fmt.Errorf("build %s model: %w", Foreground, err)
	}
	bgModel, err := BuildColorModel(img, seeds.class(Background), p.cfg.SampleRadius)
	if err != nil {
		return nil, fmt.Errorf("build %s model: %w", Background, err)
	}
	fgMean, fgVar := fgModel.Mean(), fgModel.Variance()
	bgMean, bgVar := bgModel.Mean(), bgModel.Variance()
	p.logger.Debug("color models built",
		zap.Int("fg_samples", fgModel.Samples()),
		zap.Int("fg_colors", fgModel.Distinct()),
		zap.Float64s("fg_mean", fgMean[:]),
		zap.Float64s("fg_variance", fgVar[:]),
		zap.Int("bg_samples", bgModel.Samples()),
		zap.Int("bg_colors", bgModel.Distinct()),
		zap.Float64s("bg_mean", bgMean[:]),
		zap.Float64s("bg_variance", bgVar[:]),
		zap.Duration("cost", time.Since(start)))

	scorer, err := NewScorer(fgModel, bgModel, seeds, p.cfg)
	if err != nil {
		return nil, err
	}
	stage := time.Now()
	raw, err := scorer.Score(ctx, img)
	if err != nil {
		return nil, err
	}
	p.logger.Debug("pixels scored",
		zap.Int("foreground", raw.Count()),
		zap.Int("pixels", img.Len()),
		zap.Duration("cost", time.Since(stage)))

	stage = time.Now()
	mask, err := Smooth(ctx, raw, p.cfg.SmoothingKernelRadius, p.cfg.BinarizeThreshold, p.cfg.Workers)
	if err != nil {
		return nil, err
	}
	p.logger.Debug("mask smoothed",
		zap.Int("flipped", raw.Diff(mask)),
		zap.Duration("cost", time.Since(stage)),
		zap.Duration("total", time.Since(start)))

	return &Result{Mask: mask, Foreground: fgModel, Background: bgModel}, nil
}

// Segment 使用给定参数执行一次分割
func Segment(ctx context.Context, img *Image, seeds SeedSet, cfg Config) (*Mask, error) {
	p, err := New(cfg)
	if err != nil {
		return nil, err
	}
	return p.Run(ctx, img, seeds)
}
