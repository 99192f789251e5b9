package service

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/jrebull/graph-cuts-segmentation/model"
	"github.com/jrebull/graph-cuts-segmentation/segment"
	"github.com/jrebull/graph-cuts-segmentation/utils"
)

type seedKey struct {
	X, Y float64
	R    int
}

type cacheKeyPayload struct {
	Foreground []seedKey
	Background []seedKey
	Config     segment.Config
	MaxFG      bool
	Morphology int
	Cutout     bool
	BgAlpha    int
}

// CacheKey 由图片MD5、种子、参数计算缓存键。种子先排序，键与标记顺序无关。
func CacheKey(imageMD5 string, seeds segment.SeedSet, cfg segment.Config, params model.SegmentParams, backgroundAlpha uint8) (string, error) {
	payload := cacheKeyPayload{
		Foreground: sortedSeedKeys(seeds.Foreground()),
		Background: sortedSeedKeys(seeds.Background()),
		Config:     cfg,
		MaxFG:      params.MaxForegroundOnly,
		Morphology: params.MorphologyKernel,
		Cutout:     params.Cutout,
		BgAlpha:    int(backgroundAlpha),
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal cache key: %w", err)
	}
	return utils.PartsMD5([]byte(imageMD5), data), nil
}

func sortedSeedKeys(points []segment.SeedPoint) []seedKey {
	keys := make([]seedKey, len(points))
	for i, p := range points {
		keys[i] = seedKey{X: p.Pos.X, Y: p.Pos.Y, R: p.Radius}
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.X != b.X {
			return a.X < b.X
		}
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.R < b.R
	})
	return keys
}
