package handler

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jrebull/graph-cuts-segmentation/config"
	"github.com/jrebull/graph-cuts-segmentation/middleware"
	"github.com/jrebull/graph-cuts-segmentation/model"
	"github.com/jrebull/graph-cuts-segmentation/segment"
	"github.com/jrebull/graph-cuts-segmentation/service"
	"github.com/stretchr/testify/require"
)

const splitMarks = `{"foreground":[{"x":8,"y":10,"radius":4}],"background":[{"x":32,"y":10,"radius":4}]}`

// memoryCache 内存实现的结果缓存
type memoryCache struct {
	mu    sync.Mutex
	items map[string]*model.SegmentResult
	sets  int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{items: make(map[string]*model.SegmentResult)}
}

func (m *memoryCache) GetResult(_ context.Context, key string) (*model.SegmentResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.items[key], nil
}

func (m *memoryCache) SetResult(_ context.Context, key string, result *model.SegmentResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = result
	m.sets++
	return nil
}

// pngMasks 纯 Go 实现的 MaskProcessor
type pngMasks struct{}

func (pngMasks) Resize(m *segment.Mask, width, height int) (*segment.Mask, error) {
	out := segment.NewMask(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			out.Set(x, y, m.At(x*m.Width/width, y*m.Height/height))
		}
	}
	return out, nil
}

func (pngMasks) Morphology(m *segment.Mask, _ int) (*segment.Mask, error) { return m.Clone(), nil }

func (pngMasks) KeepLargest(m *segment.Mask) (*segment.Mask, error) { return m.Clone(), nil }

func (pngMasks) BoundingBox(m *segment.Mask) (image.Rectangle, error) {
	var r image.Rectangle
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			if m.At(x, y) == segment.LabelForeground {
				r = r.Union(image.Rect(x, y, x+1, y+1))
			}
		}
	}
	return r, nil
}

func (pngMasks) EncodePNG(m *segment.Mask, invert bool) ([]byte, error) {
	a := m.Alpha()
	if invert {
		for i := range a.Pix {
			a.Pix[i] = 255 - a.Pix[i]
		}
	}
	var buf bytes.Buffer
	err := png.Encode(&buf, &image.Gray{Pix: a.Pix, Stride: a.Stride, Rect: a.Rect})
	return buf.Bytes(), err
}

func (pngMasks) EncodeCutout(img *image.NRGBA) ([]byte, error) {
	var buf bytes.Buffer
	err := png.Encode(&buf, img)
	return buf.Bytes(), err
}

func testConfig() *config.Config {
	d := segment.DefaultConfig()
	return &config.Config{
		Upload: config.UploadConfig{
			MaxSize:      1024 * 1024,
			AllowedTypes: []string{"image/png", "image/jpeg"},
		},
		Segment: config.SegmentConfig{
			SampleRadius:          d.SampleRadius,
			ColorWeight:           d.ColorWeight,
			SpatialNormalizer:     d.SpatialNormalizer,
			ColorNormalizer:       d.ColorNormalizer,
			SmoothingKernelRadius: d.SmoothingKernelRadius,
			BinarizeThreshold:     d.BinarizeThreshold,
			DefaultBrushRadius:    15,
			MaxSide:               1200,
			MaxConcurrent:         2,
			QueueTimeout:          5,
		},
		Live: config.LiveConfig{
			ReadLimit:    1024 * 1024,
			WriteTimeout: 5 * time.Second,
		},
	}
}

// splitPNG 左半深色、右半浅色的 40x20 PNG
func splitPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 40, 20))
	for y := 0; y < 20; y++ {
		for x := 0; x < 40; x++ {
			c := color.NRGBA{R: 20, G: 20, B: 20, A: 255}
			if x >= 20 {
				c = color.NRGBA{R: 235, G: 235, B: 235, A: 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// multipartRequest 构造带图片和表单字段的请求；data 为 nil 时不附带图片
func multipartRequest(t *testing.T, path string, data []byte, contentType string, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if data != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="image"; filename="image.png"`)
		h.Set("Content-Type", contentType)
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func newTestRouter(cfg *config.Config, cache ResultCache) *gin.Engine {
	gin.SetMode(gin.TestMode)
	svc := service.NewSegmentService(&cfg.Segment, pngMasks{})
	segmentHandler := NewSegmentHandler(cfg, cache, svc)
	liveHandler := NewLiveHandler(cfg, svc)

	r := gin.New()
	r.Use(middleware.Language())
	api := r.Group("/api/v1")
	{
		api.POST("/segment", segmentHandler.Segment)
		api.GET("/segment/:key", segmentHandler.GetByKey)
		api.POST("/preview", segmentHandler.Preview)
		api.GET("/live", liveHandler.Serve)
	}
	return r
}
