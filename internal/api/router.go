package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/micro-nova/pwsink-go/internal/config"
	"github.com/micro-nova/pwsink-go/internal/events"
	"github.com/micro-nova/pwsink-go/internal/identity"
)

// NewRouter creates the HTTP router. settings is consulted on every request so
// that reloaded aliases and defaults apply immediately; the mutation rate limit
// is fixed from the settings at construction. bus may be nil.
func NewRouter(eng Engine, bus *events.Bus, settings func() config.Config, info identity.Info, log *slog.Logger) http.Handler {
	if log == nil {
		log = slog.Default()
	}
	if bus == nil {
		bus = events.NewBus()
	}
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(requestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.CleanPath)

	h := &Handlers{eng: eng, events: bus, settings: settings, info: info, log: log}

	r.Get("/api/info", h.getInfo)
	r.Get("/api/status", h.getStatus)
	r.Get("/api/sinks", h.getSinks)
	r.Get("/api/sinks/default", h.getDefaultSink)
	r.Get("/api/devices", h.getDevices)
	r.Get("/api/events", h.sseEvents)

	serve := settings().Serve
	limiter := rate.NewLimiter(rate.Limit(serve.Rate), serve.Burst)
	r.Group(func(r chi.Router) {
		r.Use(rateLimit(limiter))
		r.Post("/api/sinks/{label}", h.setSink)
		r.Post("/api/devices/disconnect", h.disconnect)
		r.Post("/api/devices/{label}/connect", h.connect)
	})

	return r
}

// rateLimit rejects requests beyond the limiter's budget with 429. Each
// accepted request may drive bluetoothd for several seconds.
func rateLimit(l *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res := l.Reserve()
			if delay := res.Delay(); delay > 0 {
				res.Cancel()
				secs := int(delay/time.Second) + 1
				w.Header().Set("Retry-After", strconv.Itoa(secs))
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requestLogger logs one line per request.
func requestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
