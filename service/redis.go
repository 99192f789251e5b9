package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jrebull/graph-cuts-segmentation/config"
	"github.com/jrebull/graph-cuts-segmentation/model"
	"github.com/jrebull/graph-cuts-segmentation/utils"
	"github.com/klauspost/compress/zstd"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// keyPrefix 分割结果在 Redis 中的键前缀
const keyPrefix = "seg:"

type RedisService struct {
	client *redis.Client
	ttl    time.Duration
	enc    *zstd.Encoder
	dec    *zstd.Decoder
}

func NewRedisService(cfg *config.RedisConfig) (*RedisService, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	return &RedisService{
		client: client,
		ttl:    cfg.TTL,
		enc:    enc,
		dec:    dec,
	}, nil
}

func (s *RedisService) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// GetResult 从缓存获取分割结果，未命中时返回 nil, nil
func (s *RedisService) GetResult(ctx context.Context, key string) (*model.SegmentResult, error) {
	data, err := s.client.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // 缓存未命中
		}
		return nil, err
	}

	result, err := s.decode(data)
	if err != nil {
		utils.Logger.Error("failed to decode cached result",
			zap.String("key", key), zap.Error(err))
		return nil, err
	}
	return result, nil
}

// SetResult 压缩后写入缓存
func (s *RedisService) SetResult(ctx context.Context, key string, result *model.SegmentResult) error {
	data, err := s.encode(result)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, keyPrefix+key, data, s.ttl).Err()
}

func (s *RedisService) encode(result *model.SegmentResult) ([]byte, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}
	return s.enc.EncodeAll(data, make([]byte, 0, len(data)/2)), nil
}

func (s *RedisService) decode(data []byte) (*model.SegmentResult, error) {
	raw, err := s.dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress result: %w", err)
	}
	var result model.SegmentResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("unmarshal result: %w", err)
	}
	return &result, nil
}

func (s *RedisService) Close() error {
	s.enc.Close()
	s.dec.Close()
	return s.client.Close()
}
