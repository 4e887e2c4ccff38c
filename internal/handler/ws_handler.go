package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stemsi/learnhub-backend/internal/middleware"
	"github.com/stemsi/learnhub-backend/internal/response"
	"github.com/stemsi/learnhub-backend/internal/service"
	ws "github.com/stemsi/learnhub-backend/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if allowed == "*" || strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams notifications to connected clients.
type WSHandler struct {
	notificationService *service.NotificationService
	log                 zerolog.Logger
	upgrader            websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(notificationService *service.NotificationService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		notificationService: notificationService,
		log:                 log.With().Str("component", "ws_handler").Logger(),
		upgrader:            buildUpgrader(allowedOrigins),
	}
}

// NotificationStream godoc
// WS /ws/v1/notifications?token=...
// Forwards every notification published for the user. Clients may send
// {"action":"ping"} and {"action":"read","id":"..."}.
func (h *WSHandler) NotificationStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	userID := claims.UserID

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()
	ws.Prepare(conn)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	wsLog := h.log.With().Str("user_id", userID.String()).Logger()

	pubsub := h.notificationService.Subscribe(ctx, userID)
	defer pubsub.Close()
	if _, err := pubsub.Receive(ctx); err != nil {
		wsLog.Error().Err(err).Msg("Subscribe failed")
		_ = ws.WriteError(conn, "notifications unavailable")
		return
	}
	published := pubsub.Channel()

	unread, err := h.notificationService.UnreadCount(ctx, userID)
	if err != nil {
		wsLog.Warn().Err(err).Msg("Unread count failed")
	}
	if err := ws.WriteTyped(conn, ws.ReadyResponse{Event: ws.EventReady, Unread: unread}); err != nil {
		return
	}

	wsLog.Info().Msg("Notification stream connected")

	// gorilla allows one concurrent writer, so the reader hands replies to
	// this goroutine instead of writing itself.
	replies := make(chan interface{}, 8)
	readerDone := make(chan struct{})
	go h.readLoop(ctx, conn, wsLog, userID, replies, readerDone)

	ticker := time.NewTicker(ws.PingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-readerDone:
			wsLog.Debug().Msg("Notification stream closed")
			return
		case msg, ok := <-published:
			if !ok {
				return
			}
			evt := ws.NotificationEvent{Event: ws.EventNotification, Data: json.RawMessage(msg.Payload)}
			if err := ws.WriteTyped(conn, evt); err != nil {
				wsLog.Debug().Err(err).Msg("Write failed")
				return
			}
		case reply := <-replies:
			if err := ws.WriteTyped(conn, reply); err != nil {
				return
			}
		case <-ticker.C:
			if err := ws.WritePing(conn); err != nil {
				return
			}
		}
	}
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, log zerolog.Logger, userID uuid.UUID, replies chan<- interface{}, done chan<- struct{}) {
	defer close(done)
	for {
		var msg ws.RequestEnvelope
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Msg("Unexpected close")
			}
			return
		}

		var reply interface{}
		switch msg.Action {
		case ws.ActionPing:
			reply = ws.PongResponse{Event: ws.EventPong}
		case ws.ActionRead:
			reply = h.markRead(ctx, log, userID, msg.ID)
		default:
			reply = ws.ErrorResponse{Event: ws.EventError, Error: "unknown action: " + string(msg.Action)}
		}

		select {
		case replies <- reply:
		case <-ctx.Done():
			return
		}
	}
}

func (h *WSHandler) markRead(ctx context.Context, log zerolog.Logger, userID uuid.UUID, rawID string) interface{} {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return ws.ErrorResponse{Event: ws.EventError, Error: "invalid id"}
	}
	if err := h.notificationService.MarkRead(ctx, userID, id); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return ws.ErrorResponse{Event: ws.EventError, Error: "notification not found"}
		}
		log.Error().Err(err).Msg("Mark read failed")
		return ws.ErrorResponse{Event: ws.EventError, Error: "mark read failed"}
	}
	return ws.ReadResponse{Event: ws.EventRead, ID: id.String()}
}
