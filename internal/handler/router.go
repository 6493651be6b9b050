package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/maxai/internal/handler/chat"
	"github.com/zhouzirui/maxai/internal/handler/page"
	personaHandler "github.com/zhouzirui/maxai/internal/handler/persona"
	"github.com/zhouzirui/maxai/internal/handler/stream"
	"github.com/zhouzirui/maxai/internal/handler/ws"
	"github.com/zhouzirui/maxai/internal/model/persona"
	chatService "github.com/zhouzirui/maxai/internal/service/chat"
	"github.com/zhouzirui/maxai/pkg/utils"
)

// Options carries the collaborators the router wires together.
type Options struct {
	Controller     *chatService.Controller
	Persona        persona.Persona
	AllowedOrigins []string
	Mocked         bool
	Logger         zerolog.Logger
}

// NewRouter wires HTTP routes to core services.
func NewRouter(opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(opts.Logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))

	page.New(opts.Controller, opts.Persona, opts.Logger).RegisterRoutes(r)
	ws.New(opts.Controller, opts.AllowedOrigins, opts.Logger).RegisterRoutes(r)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_ = utils.RespondJSON(w, http.StatusOK, map[string]any{
			"status": "ok",
			"mocked": opts.Mocked,
			"busy":   opts.Controller.Busy(),
		})
	})

	r.Route("/api", func(api chi.Router) {
		personaHandler.New(opts.Persona).RegisterRoutes(api)
		chat.New(opts.Controller, opts.Logger).RegisterRoutes(api)
		stream.New(opts.Controller, opts.Logger).RegisterRoutes(api)
	})

	return r
}

// requestLogger logs one line per request through zerolog.
func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				log.Info().
					Str("request_id", middleware.GetReqID(r.Context())).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Int("status", ww.Status()).
					Int("bytes", ww.BytesWritten()).
					Dur("duration", time.Since(start)).
					Msg("http request")
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
