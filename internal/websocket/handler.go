package websocket

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"estateline/internal/auth"
	"estateline/internal/redis"
	"estateline/internal/transport/httpdto"
)

// Handler upgrades an authenticated browser session to a websocket and
// keeps presence in sync for the lifetime of the connection.
type Handler struct {
	parser   *auth.TokenParser
	hub      *Hub
	presence *redis.PresenceStore
}

func NewHandler(parser *auth.TokenParser, hub *Hub, presence *redis.PresenceStore) *Handler {
	return &Handler{parser: parser, hub: hub, presence: presence}
}

func (h *Handler) Connect(c *gin.Context) {
	// Browsers cannot set headers on websocket upgrades, so the token
	// travels as a query parameter.
	p, err := h.parser.Parse(c.Query("token"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	userID := p.UserID.String()
	client := NewClient(conn, userID)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h.hub.Register(client)
	if h.presence != nil {
		_ = h.presence.TrackConnection(ctx, userID, client.ID)
	}
	go client.WriteLoop(ctx)

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		if h.presence != nil {
			_ = h.presence.Heartbeat(ctx, userID)
		}
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	}

	if h.presence != nil {
		_ = h.presence.RemoveConnection(context.Background(), userID, client.ID)
	}
	h.hub.Unregister(client)
}
