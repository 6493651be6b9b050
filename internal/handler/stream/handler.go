package stream

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/maxai/internal/model/chat"
	"github.com/zhouzirui/maxai/pkg/utils"
)

// EventState is the SSE event name carrying a conversation snapshot.
const EventState = "state"

const defaultHeartbeat = 15 * time.Second

// Source publishes conversation snapshots.
type Source interface {
	Snapshot() chat.State
	Subscribe() (<-chan chat.State, func())
}

// Handler streams conversation state changes via Server-Sent Events.
type Handler struct {
	source    Source
	heartbeat time.Duration
	log       zerolog.Logger
}

// New creates a new stream handler
func New(source Source, log zerolog.Logger) *Handler {
	return &Handler{source: source, heartbeat: defaultHeartbeat, log: log}
}

// RegisterRoutes mounts GET /events.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/events", h.HandleEvents)
}

// HandleEvents sends the current snapshot, then one event per change until the client
// goes away.
func (h *Handler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		_ = utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	states, unsubscribe := h.source.Subscribe()
	defer unsubscribe()

	utils.SetupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)

	ctx := r.Context()
	h.log.Debug().Msg("opening event stream")

	if err := utils.SendSSEEvent(w, flusher, EventState, h.source.Snapshot()); err != nil {
		h.log.Debug().Err(err).Msg("failed to send initial snapshot")
		return
	}

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.log.Debug().Msg("closing event stream")
			return
		case state, ok := <-states:
			if !ok {
				return
			}
			if err := utils.SendSSEEvent(w, flusher, EventState, state); err != nil {
				h.log.Debug().Err(err).Msg("failed to send snapshot")
				return
			}
		case <-ticker.C:
			if err := utils.SendSSEComment(w, flusher, "heartbeat"); err != nil {
				return
			}
		}
	}
}
