package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
	"github.com/jrebull/graph-cuts-segmentation/config"
	"github.com/jrebull/graph-cuts-segmentation/middleware"
	"github.com/jrebull/graph-cuts-segmentation/model"
	"github.com/jrebull/graph-cuts-segmentation/segment"
	"github.com/jrebull/graph-cuts-segmentation/service"
	"github.com/jrebull/graph-cuts-segmentation/utils"
	"go.uber.org/zap"
)

// ResultCache 分割结果缓存
type ResultCache interface {
	GetResult(ctx context.Context, key string) (*model.SegmentResult, error)
	SetResult(ctx context.Context, key string, result *model.SegmentResult) error
}

type SegmentHandler struct {
	cfg       *config.Config
	cache     ResultCache
	segmenter *service.SegmentService
}

func NewSegmentHandler(cfg *config.Config, cache ResultCache, segmenter *service.SegmentService) *SegmentHandler {
	return &SegmentHandler{
		cfg:       cfg,
		cache:     cache,
		segmenter: segmenter,
	}
}

// requestError 带状态码和提示文案的请求错误
type requestError struct {
	status int
	msg    model.MessageKey
	err    error
}

func (e *requestError) Error() string {
	if e.err == nil {
		return string(e.msg)
	}
	return e.err.Error()
}

func (e *requestError) Unwrap() error {
	return e.err
}

// upload 已解码的上传图片
type upload struct {
	image image.Image
	md5   string
	size  int64
}

// Segment 根据上传图片和前景/背景标记进行分割
func (h *SegmentHandler) Segment(c *gin.Context) {
	lang := middleware.Lang(c)

	up, err := h.readImage(c)
	if err != nil {
		h.fail(c, lang, err)
		return
	}

	seeds, err := h.readSeeds(c)
	if err != nil {
		h.fail(c, lang, err)
		return
	}

	var params model.SegmentParams
	if err := c.ShouldBind(&params); err != nil {
		h.fail(c, lang, &requestError{status: http.StatusBadRequest, msg: model.MsgBadParams, err: err})
		return
	}

	req := &service.SegmentRequest{
		MD5:    up.md5,
		Image:  up.image,
		Seeds:  seeds,
		Params: params,
	}

	_, _, cacheKey, err := h.segmenter.Resolve(req)
	if err != nil {
		h.fail(c, lang, err)
		return
	}

	utils.Logger.Info("segment requested",
		zap.String("md5", up.md5),
		zap.String("cache_key", cacheKey),
		zap.Int64("size", up.size),
		zap.Int("fg_seeds", seeds.Len(segment.Foreground)),
		zap.Int("bg_seeds", seeds.Len(segment.Background)))

	// 检查缓存
	ctx := c.Request.Context()
	cachedResult, err := h.cache.GetResult(ctx, cacheKey)
	if err != nil {
		utils.Logger.Warn("failed to get cache", zap.Error(err))
	}

	if cachedResult != nil {
		utils.Logger.Info("cache hit", zap.String("cache_key", cacheKey))
		c.JSON(http.StatusOK, model.SegmentResponse{
			Success: true,
			Message: model.Message(lang, model.MsgSegmentCached),
			Data:    cachedResult,
		})
		return
	}

	result, err := h.segmenter.Process(ctx, req)
	if err != nil {
		h.fail(c, lang, err)
		return
	}

	// 保存到缓存
	if err := h.cache.SetResult(ctx, cacheKey, result); err != nil {
		utils.Logger.Warn("failed to set cache", zap.Error(err))
	}

	c.JSON(http.StatusOK, model.SegmentResponse{
		Success: true,
		Message: model.Message(lang, model.MsgSegmentDone),
		Data:    result,
	})
}

// GetByKey 根据缓存键获取分割结果
func (h *SegmentHandler) GetByKey(c *gin.Context) {
	lang := middleware.Lang(c)
	key := c.Param("key")
	if key == "" {
		h.fail(c, lang, &requestError{status: http.StatusBadRequest, msg: model.MsgKeyMissing})
		return
	}

	result, err := h.cache.GetResult(c.Request.Context(), key)
	if err != nil {
		utils.Logger.Error("failed to get segment result", zap.Error(err))
		h.fail(c, lang, &requestError{status: http.StatusInternalServerError, msg: model.MsgQueryFailed, err: err})
		return
	}

	if result == nil {
		h.fail(c, lang, &requestError{status: http.StatusNotFound, msg: model.MsgNotFound})
		return
	}

	c.JSON(http.StatusOK, model.SegmentResponse{
		Success: true,
		Message: model.Message(lang, model.MsgQueryDone),
		Data:    result,
	})
}

// Preview 在图片上绘制标记，返回 PNG
func (h *SegmentHandler) Preview(c *gin.Context) {
	lang := middleware.Lang(c)

	up, err := h.readImage(c)
	if err != nil {
		h.fail(c, lang, err)
		return
	}

	seeds, err := h.readSeeds(c)
	if err != nil {
		h.fail(c, lang, err)
		return
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, service.RenderSeeds(up.image, seeds), imaging.PNG); err != nil {
		utils.Logger.Error("failed to render preview", zap.Error(err))
		h.fail(c, lang, &requestError{status: http.StatusInternalServerError, msg: model.MsgRenderFailed, err: err})
		return
	}

	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

// readImage 校验并解码上传的图片
func (h *SegmentHandler) readImage(c *gin.Context) (*upload, error) {
	file, err := c.FormFile("image")
	if err != nil {
		return nil, &requestError{status: http.StatusBadRequest, msg: model.MsgUploadImage, err: err}
	}

	// 验证文件大小
	if file.Size > h.cfg.Upload.MaxSize {
		return nil, &requestError{
			status: http.StatusBadRequest,
			msg:    model.MsgFileTooLarge,
			err:    fmt.Errorf("file size %d exceeds %d MB", file.Size, h.cfg.Upload.MaxSize/(1024*1024)),
		}
	}

	// 验证文件类型
	contentType := file.Header.Get("Content-Type")
	if !h.isAllowedType(contentType) {
		return nil, &requestError{
			status: http.StatusBadRequest,
			msg:    model.MsgUnsupportedType,
			err:    fmt.Errorf("content type %q", contentType),
		}
	}

	f, err := file.Open()
	if err != nil {
		return nil, &requestError{status: http.StatusBadRequest, msg: model.MsgUploadImage, err: err}
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, &requestError{status: http.StatusBadRequest, msg: model.MsgUploadImage, err: err}
	}

	img, err := service.DecodeImage(bytes.NewReader(data))
	if err != nil {
		utils.Logger.Warn("failed to decode image", zap.String("filename", file.Filename), zap.Error(err))
		return nil, &requestError{status: http.StatusBadRequest, msg: model.MsgDecodeFailed, err: err}
	}

	return &upload{image: img, md5: utils.BytesMD5(data), size: file.Size}, nil
}

// readSeeds 解析 seeds 表单字段
func (h *SegmentHandler) readSeeds(c *gin.Context) (segment.SeedSet, error) {
	raw := c.PostForm("seeds")
	if raw == "" {
		return segment.SeedSet{}, nil
	}
	var marks model.Marks
	if err := json.Unmarshal([]byte(raw), &marks); err != nil {
		return segment.SeedSet{}, &requestError{status: http.StatusBadRequest, msg: model.MsgBadMarks, err: err}
	}
	return marks.SeedSet(h.cfg.Segment.DefaultBrushRadius), nil
}

func (h *SegmentHandler) fail(c *gin.Context, lang string, err error) {
	status, msg := classify(err)
	if status >= http.StatusInternalServerError {
		utils.Logger.Error("segment request failed", zap.Int("status", status), zap.Error(err))
	}
	_ = c.Error(err)
	c.JSON(status, model.ErrorResponse{
		Success: false,
		Message: model.Message(lang, msg),
		Code:    string(msg),
		Error:   err.Error(),
	})
}

// classify 将错误映射为状态码和提示文案
func classify(err error) (int, model.MessageKey) {
	var reqErr *requestError
	switch {
	case errors.As(err, &reqErr):
		return reqErr.status, reqErr.msg
	case errors.Is(err, segment.ErrMissingImage):
		return http.StatusBadRequest, model.MsgMissingImage
	case errors.Is(err, segment.ErrEmptySeedClass):
		return http.StatusBadRequest, model.MsgEmptySeedClass
	case errors.Is(err, segment.ErrDimensionMismatch):
		return http.StatusBadRequest, model.MsgSeedOutside
	case errors.Is(err, segment.ErrInvalidConfig):
		return http.StatusBadRequest, model.MsgInvalidConfig
	case errors.Is(err, service.ErrQueueFull):
		return http.StatusServiceUnavailable, model.MsgQueueFull
	default:
		return http.StatusInternalServerError, model.MsgSegmentFailed
	}
}

func (h *SegmentHandler) isAllowedType(contentType string) bool {
	for _, allowed := range h.cfg.Upload.AllowedTypes {
		if strings.EqualFold(contentType, allowed) {
			return true
		}
	}
	return false
}
