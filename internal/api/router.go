package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"daily-tracker/internal/logger"
)

// HealthFunc reports whether the backing store is reachable.
type HealthFunc func(ctx context.Context) error

// NewRouter wires middleware and routes.
func NewRouter(todos *TodoHandler, auth *Authenticator, health HealthFunc, log *slog.Logger) http.Handler {
	if log == nil {
		log = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(log))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if health != nil {
			if err := health(ctx); err != nil {
				logger.FromContext(r.Context()).Error("health check failed", slog.String("error", err.Error()))
				respondError(w, r, http.StatusServiceUnavailable, "Unavailable")
				return
			}
		}
		respondJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/todos", func(r chi.Router) {
		r.Use(auth.Authenticate)

		r.Post("/", todos.CreateTodo)
		r.Get("/", todos.ListTodos)

		r.Route("/templates", func(r chi.Router) {
			r.Get("/", todos.ListTemplates)
			r.Get("/{id}", todos.GetTemplate)
			r.Put("/{id}", todos.UpdateTemplate)
			r.Delete("/{id}", todos.DeleteTemplate)
		})

		r.Route("/stats", func(r chi.Router) {
			r.Get("/daily", todos.DailyStats)
			r.Get("/weekly", todos.WeeklyStats)
			r.Get("/overview", todos.OverviewStats)
			r.Get("/grass", todos.GrassStats)
		})

		r.Get("/{id}", todos.GetTodo)
		r.Put("/{id}", todos.UpdateTodo)
		r.Delete("/{id}", todos.DeleteTodo)
		r.Patch("/{id}/toggle", todos.ToggleTodo)
	})

	return r
}

// requestLogger stores a request-scoped logger in the context and writes
// one line per finished request.
func requestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			log := base.With(slog.String("request_id", middleware.GetReqID(r.Context())))
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r.WithContext(logger.WithContext(r.Context(), log)))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			level := slog.LevelInfo
			if status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			log.Log(r.Context(), level, "request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", status),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Duration("duration", time.Since(start)))
		})
	}
}
