// Package web is the JSON HTTP surface over the service layer, plus the
// SSE mirror of a user's private event topic.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"syscall"

	"github.com/matryer/way"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/parleyhq/parley/errs"
	"github.com/parleyhq/parley/service"
	"github.com/parleyhq/parley/validator"
)

type Handler struct {
	Service *service.Service
	Logger  *slog.Logger

	handler http.Handler
	once    sync.Once
}

func (h *Handler) init() {
	router := way.NewRouter()

	router.HandleFunc("POST", "/api/login", h.login)
	router.HandleFunc("GET", "/api/users", h.searchUsers)
	router.HandleFunc("POST", "/api/friendships", h.createFriendship)
	router.HandleFunc("POST", "/api/friendships/:friendship_id/respond", h.respondFriendship)
	router.HandleFunc("GET", "/api/friends", h.friends)
	router.HandleFunc("GET", "/api/conversations", h.conversations)
	router.HandleFunc("POST", "/api/conversations", h.createConversation)
	router.HandleFunc("GET", "/api/conversations/:conversation_id/messages", h.messages)
	router.HandleFunc("POST", "/api/conversations/:conversation_id/messages", h.createMessage)
	router.HandleFunc("POST", "/api/typing", h.typing)
	router.HandleFunc("POST", "/api/rooms/join", h.joinRoom)
	router.HandleFunc("GET", "/api/rooms/:code/messages", h.roomMessages)
	router.HandleFunc("POST", "/api/rooms/:code/messages", h.createRoomMessage)
	router.HandleFunc("GET", "/api/events", h.events)
	router.Handle("GET", "/metrics", promhttp.Handler())

	h.handler = withMetrics(router)
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.once.Do(h.init)
	h.handler.ServeHTTP(w, r)
}

func (h *Handler) respond(w http.ResponseWriter, v any, statusCode int) {
	b, err := json.Marshal(v)
	if err != nil {
		h.respondErr(w, fmt.Errorf("json marshal http response body: %w", err))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	_, err = w.Write(b)
	if err != nil && !errors.Is(err, syscall.EPIPE) && !errors.Is(err, context.Canceled) {
		h.Logger.Error("write http response", "err", err)
	}
}

func (h *Handler) respondErr(w http.ResponseWriter, err error) {
	statusCode := err2code(err)
	if statusCode == http.StatusInternalServerError {
		if !errors.Is(err, context.Canceled) {
			h.Logger.Error("internal server error", "err", err)
		}
		h.respond(w, errBody{Error: "internal server error"}, statusCode)
		return
	}

	h.respond(w, errBody{Error: err.Error()}, statusCode)
}

type errBody struct {
	Error string `json:"error"`
}

func err2code(err error) int {
	if err == nil {
		return http.StatusOK
	}

	var v *validator.Validator
	if errors.As(err, &v) {
		return http.StatusBadRequest
	}

	var e *errs.Error
	if errors.As(err, &e) {
		switch e.Kind {
		case errs.KindInvalidArgument:
			return http.StatusBadRequest
		case errs.KindUnauthenticated:
			return http.StatusUnauthorized
		case errs.KindPermissionDenied:
			return http.StatusForbidden
		case errs.KindNotFound:
			return http.StatusNotFound
		case errs.KindAlreadyExists:
			return http.StatusConflict
		}
	}

	return http.StatusInternalServerError
}

func decodeBody(r *http.Request, v any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errs.NewInvalidArgumentError("Body", "malformed request body")
	}
	return nil
}

var requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "parley_http_requests_total",
	Help: "HTTP requests served, by method and status code.",
}, []string{"method", "code"})

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *statusRecorder) Flush() {
	if f, ok := rec.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func withMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		requestsTotal.WithLabelValues(r.Method, fmt.Sprint(rec.status)).Inc()
	})
}
