package ws

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/maxai/internal/model/chat"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	writeWait  = 10 * time.Second
)

// Conversation is the controller surface driven over the socket.
type Conversation interface {
	Snapshot() chat.State
	Subscribe() (<-chan chat.State, func())
	Dispatch(ctx context.Context, raw string) bool
	SetDraft(text string)
}

// Handler speaks the UI command protocol over a WebSocket.
//
// Inbound:  {"type":"submit","text":"..."} | {"type":"draft","text":"..."}
// Outbound: {"type":"state","data":State} | {"type":"rejected",...} | {"type":"error",...}
type Handler struct {
	conv     Conversation
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

// New 创建WebSocket处理器。allowedOrigins 与 CORS 配置一致，"*" 表示不限制。
func New(conv Conversation, allowedOrigins []string, log zerolog.Logger) *Handler {
	return &Handler{
		conv: conv,
		log:  log,
		upgrader: websocket.Upgrader{
			CheckOrigin:     originChecker(allowedOrigins),
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// originChecker admits requests without an Origin header, same-origin pages and the
// configured origins.
func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		origin = strings.ToLower(strings.TrimRight(strings.TrimSpace(origin), "/"))
		if origin == "*" {
			return func(*http.Request) bool { return true }
		}
		if origin != "" {
			set[origin] = struct{}{}
		}
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		if strings.EqualFold(u.Host, r.Host) {
			return true
		}
		_, ok := set[strings.ToLower(strings.TrimRight(origin, "/"))]
		return ok
	}
}

// RegisterRoutes 注册WebSocket路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws", h.handleWebSocket)
}

// Inbound message types.
const (
	TypeSubmit = "submit"
	TypeDraft  = "draft"
)

// Outbound message types.
const (
	TypeState    = "state"
	TypeRejected = "rejected"
	TypeError    = "error"
)

type inboundMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type outgoingMessage struct {
	Type      string `json:"type"`
	Data      any    `json:"data,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

func newOutgoing(typ string, data any) outgoingMessage {
	return outgoingMessage{Type: typ, Data: data, Timestamp: time.Now().Unix()}
}

// handleWebSocket 处理WebSocket连接
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	h.log.Debug().Str("remote", r.RemoteAddr).Msg("websocket connected")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	states, unsubscribe := h.conv.Subscribe()
	defer unsubscribe()

	replies := make(chan outgoingMessage, 8)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		defer conn.Close()
		defer cancel()
		h.writeLoop(ctx, conn, states, replies)
	}()

	replies <- newOutgoing(TypeState, h.conv.Snapshot())

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg inboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug().Err(err).Msg("websocket read error")
			}
			break
		}
		conn.SetReadDeadline(time.Now().Add(pongWait))

		reply, ok := h.handleMessage(ctx, msg)
		if !ok {
			continue
		}
		select {
		case replies <- reply:
		case <-ctx.Done():
		}
	}

	cancel()
	<-writerDone
}

// handleMessage applies one inbound command, returning an optional direct reply.
func (h *Handler) handleMessage(ctx context.Context, msg inboundMessage) (outgoingMessage, bool) {
	switch msg.Type {
	case TypeSubmit:
		if !h.conv.Dispatch(ctx, msg.Text) {
			return newOutgoing(TypeRejected, map[string]string{"text": msg.Text}), true
		}
		return outgoingMessage{}, false
	case TypeDraft:
		h.conv.SetDraft(msg.Text)
		return outgoingMessage{}, false
	default:
		return newOutgoing(TypeError, map[string]string{"message": "unsupported message type: " + msg.Type}), true
	}
}

// writeLoop is the only goroutine writing to conn.
func (h *Handler) writeLoop(ctx context.Context, conn *websocket.Conn, states <-chan chat.State, replies <-chan outgoingMessage) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	write := func(v any) bool {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(v); err != nil {
			h.log.Debug().Err(err).Msg("websocket write failed")
			return false
		}
		return true
	}

	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		case state, ok := <-states:
			if !ok || !write(newOutgoing(TypeState, state)) {
				return
			}
		case reply := <-replies:
			if !write(reply) {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
