package config

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"time"

	"github.com/jrebull/graph-cuts-segmentation/segment"
	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Upload  UploadConfig  `mapstructure:"upload"`
	Segment SegmentConfig `mapstructure:"segment"`
	Live    LiveConfig    `mapstructure:"live"`
}

type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	Mode         string        `mapstructure:"mode"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type UploadConfig struct {
	MaxSize      int64    `mapstructure:"max_size"`
	AllowedTypes []string `mapstructure:"allowed_types"`
}

// SegmentConfig 分割流水线默认参数及服务端并发控制
type SegmentConfig struct {
	SampleRadius          int     `mapstructure:"sample_radius"`
	ColorWeight           float64 `mapstructure:"color_weight"`
	SpatialNormalizer     float64 `mapstructure:"spatial_normalizer"`
	ColorNormalizer       float64 `mapstructure:"color_normalizer"`
	SmoothingKernelRadius int     `mapstructure:"smoothing_kernel_radius"`
	BinarizeThreshold     float64 `mapstructure:"binarize_threshold"`
	Workers               int     `mapstructure:"workers"`
	DefaultBrushRadius    int     `mapstructure:"default_brush_radius"`
	BackgroundAlpha       int     `mapstructure:"background_alpha"`
	MaxSide               int     `mapstructure:"max_side"`
	MaxConcurrent         int     `mapstructure:"max_concurrent"`
	QueueTimeout          int     `mapstructure:"queue_timeout"`
}

type LiveConfig struct {
	ReadLimit    int64         `mapstructure:"read_limit"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// Pipeline 转换为分割流水线参数
func (c SegmentConfig) Pipeline() segment.Config {
	return segment.Config{
		SampleRadius:          c.SampleRadius,
		ColorWeight:           c.ColorWeight,
		SpatialNormalizer:     c.SpatialNormalizer,
		ColorNormalizer:       c.ColorNormalizer,
		SmoothingKernelRadius: c.SmoothingKernelRadius,
		BinarizeThreshold:     c.BinarizeThreshold,
		Workers:               c.Workers,
	}
}

// Load 从 YAML 文件加载配置
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	// 设置默认值
	setDefaults(v)

	// 读取配置文件
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Segment.Pipeline().Validate(); err != nil {
		return nil, fmt.Errorf("segment config: %w", err)
	}
	if cfg.Segment.QueueTimeout < 0 {
		return nil, fmt.Errorf("segment config: %w: queue timeout %d is negative",
			segment.ErrInvalidConfig, cfg.Segment.QueueTimeout)
	}

	return &cfg, nil
}

// DefaultPath 默认配置文件路径
const DefaultPath = "config.yaml"

// New 使用默认配置路径加载配置
func New() (*Config, error) {
	return NewFrom(DefaultPath)
}

// NewFrom 加载指定配置文件；文件不存在时返回默认配置，存在但无效时返回错误
func NewFrom(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); errors.Is(err, fs.ErrNotExist) {
		return getDefaultConfig(), nil
	}
	return Load(configPath)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", 24*time.Hour)

	v.SetDefault("upload.max_size", 10*1024*1024)
	v.SetDefault("upload.allowed_types", []string{"image/jpeg", "image/png", "image/jpg", "image/webp", "image/bmp", "image/tiff", "image/gif"})

	v.SetDefault("segment.sample_radius", 25)
	v.SetDefault("segment.color_weight", 0.7)
	v.SetDefault("segment.spatial_normalizer", 150.0)
	v.SetDefault("segment.color_normalizer", 255*math.Sqrt(3))
	v.SetDefault("segment.smoothing_kernel_radius", 1)
	v.SetDefault("segment.binarize_threshold", 0.5)
	v.SetDefault("segment.workers", 0)
	v.SetDefault("segment.default_brush_radius", 15)
	v.SetDefault("segment.background_alpha", 0)
	v.SetDefault("segment.max_side", 1200)
	v.SetDefault("segment.max_concurrent", 3)
	v.SetDefault("segment.queue_timeout", 30)

	v.SetDefault("live.read_limit", 16*1024*1024)
	v.SetDefault("live.write_timeout", 10*time.Second)
}

func getDefaultConfig() *Config {
	pipeline := segment.DefaultConfig()
	return &Config{
		Server: ServerConfig{
			Port:         ":8080",
			Mode:         "debug",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 60 * time.Second,
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			Password: "",
			DB:       0,
			TTL:      24 * time.Hour,
		},
		Upload: UploadConfig{
			MaxSize:      10 * 1024 * 1024,
			AllowedTypes: []string{"image/jpeg", "image/png", "image/jpg", "image/webp", "image/bmp", "image/tiff", "image/gif"},
		},
		Segment: SegmentConfig{
			SampleRadius:          pipeline.SampleRadius,
			ColorWeight:           pipeline.ColorWeight,
			SpatialNormalizer:     pipeline.SpatialNormalizer,
			ColorNormalizer:       pipeline.ColorNormalizer,
			SmoothingKernelRadius: pipeline.SmoothingKernelRadius,
			BinarizeThreshold:     pipeline.BinarizeThreshold,
			Workers:               pipeline.Workers,
			DefaultBrushRadius:    15,
			BackgroundAlpha:       0,
			MaxSide:               1200,
			MaxConcurrent:         3,
			QueueTimeout:          30,
		},
		Live: LiveConfig{
			ReadLimit:    16 * 1024 * 1024,
			WriteTimeout: 10 * time.Second,
		},
	}
}
