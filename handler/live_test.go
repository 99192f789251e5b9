package handler

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jrebull/graph-cuts-segmentation/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialLive(t *testing.T, query string) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(newTestRouter(testConfig(), newMemoryCache()))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/live" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readLive(t *testing.T, conn *websocket.Conn) model.LiveMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg model.LiveMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestLiveSession(t *testing.T) {
	conn := dialLive(t, "?lang=en")

	// 没有图片时提交标记
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(splitMarks)))
	msg := readLive(t, conn)
	assert.Equal(t, "error", msg.Type)
	assert.Equal(t, string(model.MsgMissingImage), msg.Code)

	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, splitPNG(t)))
	msg = readLive(t, conn)
	assert.Equal(t, "ready", msg.Type)
	assert.Equal(t, "Image loaded, mark the object and the background", msg.Message)
	ready := msg.Generation

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{")))
	msg = readLive(t, conn)
	assert.Equal(t, "error", msg.Type)
	assert.Equal(t, string(model.MsgBadMarks), msg.Code)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(splitMarks)))
	msg = readLive(t, conn)
	require.Equal(t, "result", msg.Type, msg.Message)
	assert.Greater(t, msg.Generation, ready)
	require.NotNil(t, msg.Data)
	require.Len(t, msg.Data.Layers, 2)
	assert.Equal(t, model.BBox{X: 0, Y: 0, Width: 20, Height: 20}, msg.Data.Layers[0].BoundingBox)
}

func TestLiveSessionReportsSegmentErrors(t *testing.T) {
	conn := dialLive(t, "")

	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, splitPNG(t)))
	require.Equal(t, "ready", readLive(t, conn).Type)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"foreground":[{"x":8,"y":10}]}`)))
	msg := readLive(t, conn)
	assert.Equal(t, "error", msg.Type)
	assert.Equal(t, string(model.MsgEmptySeedClass), msg.Code)
	assert.Equal(t, model.Message("es", model.MsgEmptySeedClass), msg.Message)
}

func TestLiveSessionBadImage(t *testing.T) {
	conn := dialLive(t, "")

	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, []byte("not an image")))
	msg := readLive(t, conn)
	assert.Equal(t, "error", msg.Type)
	assert.Equal(t, string(model.MsgDecodeFailed), msg.Code)
}
