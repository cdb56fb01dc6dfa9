package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/legalclear/legalclear/internal/services"
	"github.com/redis/go-redis/v9"
)

// SpeechWSHandler streams speech status events (generating, playing,
// stopped) to the interface over a websocket. Events originate from the
// controller and the narration workers via Redis pub/sub; the handler is a
// dumb forwarder.
type SpeechWSHandler struct {
	manager  *services.SpeechManager
	redis    *redis.Client
	upgrader websocket.Upgrader
}

func NewSpeechWSHandler(manager *services.SpeechManager, rdb *redis.Client) *SpeechWSHandler {
	return &SpeechWSHandler{
		manager: manager,
		redis:   rdb,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true }, // TODO: restrict origin in prod
		},
	}
}

type speechWSClientMsg struct {
	Type string `json:"type"` // stop
	Key  string `json:"key"`
}

type speechWSConn struct {
	c  *websocket.Conn
	mu sync.Mutex
}

func (w *speechWSConn) writeText(b []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.c.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return w.c.WriteMessage(websocket.TextMessage, b)
}

func (h *SpeechWSHandler) SpeechWS(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// upgrade already wrote response in most cases
		return
	}
	defer conn.Close()

	wc := &speechWSConn{c: conn}
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	controller := h.manager.ControllerFor(userID)

	pubsub := h.redis.Subscribe(ctx, services.SpeechEventChannel(userID))
	defer pubsub.Close()

	// reader: client control messages; a dropped socket means the page is
	// gone, so narration stops with it
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		conn.SetPongHandler(func(string) error {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			return nil
		})

		for {
			_, data, rerr := conn.ReadMessage()
			if rerr != nil {
				return
			}

			var msg speechWSClientMsg
			if err := json.Unmarshal(data, &msg); err != nil {
				_ = wc.writeText([]byte(`{"type":"error","code":"INVALID_ARGUMENT","message":"invalid json"}`))
				continue
			}

			switch msg.Type {
			case "stop":
				controller.Stop(ctx)
			default:
				_ = wc.writeText([]byte(`{"type":"error","code":"INVALID_ARGUMENT","message":"unknown message type"}`))
			}
		}
	}()
	defer controller.Stop(context.WithoutCancel(ctx))

	// writer: Redis Pub/Sub -> WS
	for {
		select {
		case <-readDone:
			return
		case <-ctx.Done():
			return
		default:
			m, err := pubsub.ReceiveMessage(ctx)
			if err != nil {
				return
			}
			// forward as-is (payload expected JSON string)
			if werr := wc.writeText([]byte(m.Payload)); werr != nil {
				return
			}
		}
	}
}
