package game

import (
	"net/http"
	"strconv"

	"github.com/strafehub/jumptimer/internal/pubsub"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// handleRecordsWs streams world-record announcements. With a map_id query
// parameter the feed narrows to one map, otherwise it carries all of them.
func (h *Handler) handleRecordsWs(c *gin.Context) {
	topic := pubsub.TopicRecords
	if raw := c.Query("map_id"); raw != "" {
		mapID, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			c.String(http.StatusBadRequest, "invalid map_id")
			return
		}
		topic = pubsub.MapTopic(uint(mapID))
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		zap.S().Errorf("failed to upgrade websocket: %v", err)
		return
	}
	defer conn.Close()

	msgChan, unsubscribe := h.broker.Subscribe(topic)
	defer unsubscribe()

	clientClosed := make(chan struct{})
	go func() {
		defer close(clientClosed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					zap.S().Infof("websocket unexpected close error: %v", err)
				}
				return
			}
		}
	}()

	for {
		select {
		case msg, ok := <-msgChan:
			if !ok {
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				zap.S().Warnf("error writing to websocket: %v", err)
				return
			}
		case <-clientClosed:
			return
		}
	}
}
