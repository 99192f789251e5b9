package model

import (
	"github.com/jrebull/graph-cuts-segmentation/segment"
)

// SegmentParams 单次请求可覆盖的参数
type SegmentParams struct {
	SampleRadius      *int     `form:"sample_radius" json:"sample_radius,omitempty"`
	ColorWeight       *float64 `form:"color_weight" json:"color_weight,omitempty"`
	SpatialNormalizer *float64 `form:"spatial_normalizer" json:"spatial_normalizer,omitempty"`
	KernelRadius      *int     `form:"kernel_radius" json:"kernel_radius,omitempty"`
	Threshold         *float64 `form:"threshold" json:"threshold,omitempty"`
	BackgroundAlpha   *int     `form:"background_alpha" json:"background_alpha,omitempty"`
	MaxForegroundOnly bool     `form:"max_foreground_only" json:"max_foreground_only,omitempty"`
	MorphologyKernel  int      `form:"morphology_kernel" json:"morphology_kernel,omitempty"`
	Cutout            bool     `form:"cutout" json:"cutout,omitempty"`
}

// Apply 用请求参数覆盖默认流水线参数
func (p SegmentParams) Apply(cfg segment.Config) segment.Config {
	if p.SampleRadius != nil {
		cfg.SampleRadius = *p.SampleRadius
	}
	if p.ColorWeight != nil {
		cfg.ColorWeight = *p.ColorWeight
	}
	if p.SpatialNormalizer != nil {
		cfg.SpatialNormalizer = *p.SpatialNormalizer
	}
	if p.KernelRadius != nil {
		cfg.SmoothingKernelRadius = *p.KernelRadius
	}
	if p.Threshold != nil {
		cfg.BinarizeThreshold = *p.Threshold
	}
	return cfg
}
