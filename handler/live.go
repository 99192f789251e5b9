package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/jrebull/graph-cuts-segmentation/config"
	"github.com/jrebull/graph-cuts-segmentation/middleware"
	"github.com/jrebull/graph-cuts-segmentation/model"
	"github.com/jrebull/graph-cuts-segmentation/service"
	"github.com/jrebull/graph-cuts-segmentation/utils"
	"go.uber.org/zap"
)

// LiveHandler 通过 WebSocket 提供交互式分割：
// 二进制帧为新图片，文本帧为最新的标记快照，每次结果以 JSON 推送。
type LiveHandler struct {
	cfg      *config.Config
	proc     service.Processor
	upgrader websocket.Upgrader
}

func NewLiveHandler(cfg *config.Config, proc service.Processor) *LiveHandler {
	return &LiveHandler{
		cfg:  cfg,
		proc: proc,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// liveConn 串行化写操作
type liveConn struct {
	conn    *websocket.Conn
	timeout time.Duration
	mu      sync.Mutex
}

func (lc *liveConn) send(msg model.LiveMessage) error {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	if err := lc.conn.SetWriteDeadline(time.Now().Add(lc.timeout)); err != nil {
		return err
	}
	return lc.conn.WriteJSON(msg)
}

// Serve 升级连接并运行会话直到客户端断开
func (h *LiveHandler) Serve(c *gin.Context) {
	lang := middleware.Lang(c)

	var params model.SegmentParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Success: false,
			Message: model.Message(lang, model.MsgBadParams),
			Code:    string(model.MsgBadParams),
			Error:   err.Error(),
		})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade 已写入错误响应
		utils.Logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()
	conn.SetReadLimit(h.cfg.Live.ReadLimit)

	sessionID := utils.GenerateID()
	utils.Logger.Info("live session opened", zap.String("session", sessionID))

	lc := &liveConn{conn: conn, timeout: h.cfg.Live.WriteTimeout}
	session := service.NewLiveSession(h.proc, params)

	// 连接被劫持后不再依赖请求上下文
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for r := range session.Results() {
			if err := lc.send(resultMessage(lang, r)); err != nil {
				utils.Logger.Debug("failed to push live result", zap.String("session", sessionID), zap.Error(err))
			}
		}
	}()

	h.readLoop(ctx, lc, session, lang, sessionID)

	cancel()
	session.Close()
	<-done
	utils.Logger.Info("live session closed", zap.String("session", sessionID))
}

func (h *LiveHandler) readLoop(ctx context.Context, lc *liveConn, session *service.LiveSession, lang, sessionID string) {
	for {
		msgType, data, err := lc.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				utils.Logger.Warn("live session read failed", zap.String("session", sessionID), zap.Error(err))
			}
			return
		}

		var reply *model.LiveMessage
		switch msgType {
		case websocket.BinaryMessage:
			img, err := service.DecodeImage(bytes.NewReader(data))
			if err != nil {
				reply = errorMessage(lang, 0, &requestError{msg: model.MsgDecodeFailed, err: err})
				break
			}
			gen := session.SetImage(img, utils.BytesMD5(data))
			bounds := img.Bounds()
			utils.Logger.Debug("live image received",
				zap.String("session", sessionID),
				zap.Int("width", bounds.Dx()),
				zap.Int("height", bounds.Dy()))
			reply = &model.LiveMessage{
				Type:       "ready",
				Generation: gen,
				Message:    model.Message(lang, model.MsgImageReady),
			}
		case websocket.TextMessage:
			var marks model.Marks
			if err := json.Unmarshal(data, &marks); err != nil {
				reply = errorMessage(lang, 0, &requestError{msg: model.MsgBadMarks, err: err})
				break
			}
			if _, err := session.Submit(ctx, marks.SeedSet(h.cfg.Segment.DefaultBrushRadius)); err != nil {
				reply = errorMessage(lang, 0, err)
			}
		}

		if reply != nil {
			if err := lc.send(*reply); err != nil {
				utils.Logger.Debug("failed to reply", zap.String("session", sessionID), zap.Error(err))
				return
			}
		}
	}
}

func resultMessage(lang string, r service.LiveResult) model.LiveMessage {
	if r.Err != nil {
		return *errorMessage(lang, r.Generation, r.Err)
	}
	return model.LiveMessage{
		Type:       "result",
		Generation: r.Generation,
		Data:       r.Result,
		Message:    model.Message(lang, model.MsgSegmentDone),
	}
}

func errorMessage(lang string, gen uint64, err error) *model.LiveMessage {
	_, msg := classify(err)
	if !errors.Is(err, context.Canceled) {
		utils.Logger.Debug("live request failed", zap.Uint64("generation", gen), zap.Error(err))
	}
	return &model.LiveMessage{
		Type:       "error",
		Generation: gen,
		Message:    model.Message(lang, msg),
		Code:       string(msg),
	}
}
