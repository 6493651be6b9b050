package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/maxai/internal/model/chat"
	"github.com/zhouzirui/maxai/pkg/utils"
)

// Conversation is the controller surface the handler drives.
type Conversation interface {
	Snapshot() chat.State
	Messages() []chat.Message
	Dispatch(ctx context.Context, raw string) bool
}

// Handler 聊天服务的HTTP处理器
type Handler struct {
	conv Conversation
	log  zerolog.Logger
}

// New 创建聊天处理器
func New(conv Conversation, log zerolog.Logger) *Handler {
	return &Handler{conv: conv, log: log}
}

// RegisterRoutes 注册聊天相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/messages", h.handleListMessages)
	r.Post("/messages", h.handleSubmit)
	r.Get("/state", h.handleState)
}

func (h *Handler) handleListMessages(w http.ResponseWriter, r *http.Request) {
	h.respond(w, http.StatusOK, h.conv.Messages())
}

func (h *Handler) handleState(w http.ResponseWriter, r *http.Request) {
	h.respond(w, http.StatusOK, h.conv.Snapshot())
}

// handleSubmit accepts a submission; the reply arrives later through /state, /events or /ws.
func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Text string `json:"text"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(payload.Text) == "" {
		h.respondError(w, http.StatusBadRequest, "text is required")
		return
	}

	if !h.conv.Dispatch(r.Context(), payload.Text) {
		h.respondError(w, http.StatusConflict, "a reply is still being generated")
		return
	}

	h.respond(w, http.StatusAccepted, h.conv.Snapshot())
}

func (h *Handler) respond(w http.ResponseWriter, status int, payload any) {
	if err := utils.RespondJSON(w, status, payload); err != nil {
		h.log.Warn().Err(err).Msg("failed to encode response")
	}
}

func (h *Handler) respondError(w http.ResponseWriter, status int, message string) {
	h.respond(w, status, map[string]string{"error": message})
}
