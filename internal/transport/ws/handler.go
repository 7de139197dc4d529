package ws

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"codeclive/internal/model"
	"codeclive/internal/ratelimit"
	"codeclive/internal/service"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 256 * 1024
	sendBuffer     = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // origin is enforced by the token
	},
}

// Handler handles WebSocket connections
type Handler struct {
	hub          *Hub
	relay        *service.Relay
	authSvc      *service.AuthService
	limiters     *ratelimit.ClientLimiters
	authRequired bool
}

// NewHandler creates a new WebSocket handler
func NewHandler(hub *Hub, relay *service.Relay, authSvc *service.AuthService, limiters *ratelimit.ClientLimiters, authRequired bool) *Handler {
	return &Handler{
		hub:          hub,
		relay:        relay,
		authSvc:      authSvc,
		limiters:     limiters,
		authRequired: authRequired,
	}
}

// ServeWS handles GET /v1/ws/liverooms
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")

	var identity *model.Identity
	if token != "" {
		id, err := h.authSvc.ValidateToken(token)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		identity = id
	} else if h.authRequired {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("module", "ws").Msg("upgrade failed")
		return
	}

	conn := &Connection{
		ID:   uuid.New().String(),
		Send: make(chan []byte, sendBuffer),
	}
	h.hub.Register(conn)
	h.relay.Connect(conn.ID, identity)

	hello := ConnectedPayload{ConnectionID: conn.ID}
	if identity != nil {
		hello.Username = identity.Username
	}
	h.hub.Send(conn.ID, model.EvtConnected, hello)

	log.Info().Str("module", "ws").Str("conn", conn.ID).Str("user", hello.Username).Msg("connected")

	go h.writePump(wsConn, conn)
	go h.readPump(wsConn, conn)
}

func (h *Handler) readPump(wsConn *websocket.Conn, conn *Connection) {
	ctx, cancel := context.WithCancel(context.Background())
	reason := "disconnect"
	defer func() {
		cancel()
		h.relay.Disconnect(conn.ID, reason)
		if h.limiters != nil {
			h.limiters.Remove(conn.ID)
		}
		h.hub.Unregister(conn)
		wsConn.Close()
		log.Info().Str("module", "ws").Str("conn", conn.ID).Str("reason", reason).Msg("disconnected")
	}()

	wsConn.SetReadLimit(maxMessageSize)
	wsConn.SetReadDeadline(time.Now().Add(pongWait))
	wsConn.SetPongHandler(func(string) error {
		wsConn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := wsConn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("module", "ws").Str("conn", conn.ID).Msg("read failed")
				reason = "error"
			}
			return
		}
		if h.limiters != nil && !h.limiters.Get(conn.ID).Allow() {
			h.hub.Send(conn.ID, model.EvtError, service.ErrorPayload{Code: "RateLimited", Message: "too many messages"})
			continue
		}
		h.handleMessage(ctx, conn.ID, data)
	}
}

// handleMessage routes one inbound frame. Failures are reported to the
// sending connection only.
func (h *Handler) handleMessage(ctx context.Context, connectionID string, data []byte) {
	msg, err := decodeEnvelope(data)
	if err != nil {
		h.replyError(connectionID, "", err)
		return
	}

	switch msg.Type {
	case MsgActive:
		var p ActivePayload
		if err = decodePayload(msg.Payload, &p); err == nil {
			err = h.relay.Announce(connectionID, p.Username, p.RoomID)
		}
	case MsgInit, MsgInitServer:
		var p service.InitOptions
		if err = decodePayload(msg.Payload, &p); err == nil {
			err = h.relay.Init(ctx, connectionID, p)
		}
	case MsgJoinRoom:
		var p JoinPayload
		if err = decodePayload(msg.Payload, &p); err == nil {
			err = h.relay.Join(ctx, connectionID, p.Username, p.RoomID)
		}
	default:
		var cmd service.Command
		if cmd, err = service.DecodeCommand(service.CommandKind(msg.Type), msg.Payload); err == nil {
			err = h.relay.Handle(ctx, connectionID, cmd)
		}
	}

	if errors.Is(err, service.ErrAlreadyJoined) {
		log.Debug().Str("module", "ws").Str("conn", connectionID).Str("type", msg.Type).Msg("duplicate join ignored")
		return
	}
	if err != nil {
		h.replyError(connectionID, msg.Type, err)
	}
}

func (h *Handler) replyError(connectionID, command string, err error) {
	payload := service.NewErrorPayload(command, err)
	if payload.Code == "Internal" {
		log.Error().Err(err).Str("module", "ws").Str("conn", connectionID).Str("type", command).Msg("message failed")
	} else {
		log.Debug().Err(err).Str("module", "ws").Str("conn", connectionID).Str("type", command).Msg("message rejected")
	}
	h.hub.Send(connectionID, model.EvtError, payload)
}

func (h *Handler) writePump(wsConn *websocket.Conn, conn *Connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		wsConn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				wsConn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := wsConn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := wsConn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
