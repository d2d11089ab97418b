package server

import (
	"net/http"
	"time"

	"github.com/diewo77/feedback-app/internal/handlers"
	"github.com/diewo77/feedback-app/internal/httpx"
	"github.com/diewo77/feedback-app/internal/middleware"
	"github.com/diewo77/feedback-app/internal/services"
	"github.com/diewo77/feedback-app/internal/store"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// New constructs the root http.Handler with all routes and middlewares applied.
func New(db *gorm.DB) http.Handler {
	mux := http.NewServeMux()

	// --- Health endpoints ---
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		// Lightweight DB probe (SELECT 1)
		if err := db.Exec("SELECT 1").Error; err != nil {
			httpx.JSONError(w, http.StatusServiceUnavailable, "degraded", nil)
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	userStore := store.NewUserStore(db)
	userService := services.NewUserService(userStore)
	uh := handlers.NewUserHandler(userService)

	// User form CRUD. The mux prefers the literal /users/create over the
	// {id} wildcard, so both can coexist.
	mux.HandleFunc("GET /users", uh.List)
	mux.HandleFunc("GET /users/create", uh.CreateForm)
	mux.HandleFunc("POST /users/create", uh.Create)
	mux.HandleFunc("GET /users/{id}", uh.Read)
	mux.HandleFunc("GET /users/{id}/update", uh.UpdateForm)
	mux.HandleFunc("POST /users/{id}/update", uh.Update)
	mux.HandleFunc("POST /users/{id}/delete", uh.Delete)

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/users", http.StatusFound)
	})

	return middleware.RequestID(withRecover(withLogging(mux)))
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logrus.WithFields(logrus.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     rec.status,
			"duration":   time.Since(start).String(),
			"request_id": middleware.RequestIDFrom(r.Context()),
		}).Info("request")
	})
}

func withRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logrus.WithField("panic", rec).Error("request panic")
				httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}
