package page

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/maxai/internal/model/chat"
	"github.com/zhouzirui/maxai/internal/model/persona"
	"github.com/zhouzirui/maxai/internal/render"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.New("").Funcs(template.FuncMap{
	"markdown": render.HTML,
	"isUser":   func(m chat.Message) bool { return m.IsUser() },
}).ParseFS(templateFS, "templates/*.html"))

// Source provides the conversation state to draw.
type Source interface {
	Snapshot() chat.State
}

// Handler serves the single-page chat UI.
type Handler struct {
	source  Source
	persona persona.Persona
	log     zerolog.Logger
}

func New(source Source, p persona.Persona, log zerolog.Logger) *Handler {
	return &Handler{source: source, persona: p, log: log}
}

// RegisterRoutes mounts the page and its transcript fragment.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.handleIndex)
	r.Get("/fragment/transcript", h.handleTranscript)
}

type view struct {
	Persona persona.Persona
	State   chat.State
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	h.render(w, "index.html", view{Persona: h.persona, State: h.source.Snapshot()})
}

func (h *Handler) handleTranscript(w http.ResponseWriter, r *http.Request) {
	h.render(w, "transcript.html", view{Persona: h.persona, State: h.source.Snapshot()})
}

// render executes into a buffer first so a template error never yields half a page.
func (h *Handler) render(w http.ResponseWriter, name string, data view) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		h.log.Error().Err(err).Str("template", name).Msg("failed to render page")
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}
