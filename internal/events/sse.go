package events

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/flosslyDevs/ToothMatch/internal/auth"
	"github.com/flosslyDevs/ToothMatch/internal/logger"
	"github.com/flosslyDevs/ToothMatch/internal/metrics"
)

// Stream serves GET /events as Server-Sent Events for the caller.
type Stream struct {
	rdb       *redis.Client
	registry  *Registry
	log       logger.Logger
	heartbeat time.Duration

	closing   chan struct{}
	closeOnce sync.Once
}

// NewStream returns a Stream. heartbeat <= 0 disables keep-alive comments.
func NewStream(rdb *redis.Client, registry *Registry, log logger.Logger, heartbeat time.Duration) *Stream {
	return &Stream{rdb: rdb, registry: registry, log: log, heartbeat: heartbeat, closing: make(chan struct{})}
}

// Close ends every open stream. Register it with http.Server.RegisterOnShutdown.
func (s *Stream) Close() {
	s.closeOnce.Do(func() { close(s.closing) })
}

// RegisterRoutes mounts the stream on mux.
func (s *Stream) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle("GET /events", s)
}

func (s *Stream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	if userID == "" {
		http.Error(w, `{"message":"User not authenticated"}`, http.StatusUnauthorized)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, `{"message":"streaming unsupported"}`, http.StatusInternalServerError)
		return
	}

	// Streams outlive the server write timeout.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	ctx := r.Context()
	connID := uuid.NewString()
	log := s.log.With(map[string]interface{}{"userId": userID, "connId": connID})

	if err := s.registry.Add(ctx, userID, connID); err != nil {
		log.Warn("register connection failed", map[string]interface{}{"error": err})
	}
	defer func() {
		// request context is already cancelled here
		cleanup, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := s.registry.Remove(cleanup, connID); err != nil {
			log.Warn("unregister connection failed", map[string]interface{}{"error": err})
		}
	}()

	sub := s.rdb.Subscribe(ctx, Channel(userID))
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		log.Error("subscribe failed", map[string]interface{}{"error": err})
		http.Error(w, `{"message":"event stream unavailable"}`, http.StatusServiceUnavailable)
		return
	}

	metrics.ActiveStreams.Inc()
	defer metrics.ActiveStreams.Dec()

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	fmt.Fprintf(w, "event: ready\ndata: {\"connId\":%q}\n\n", connID)
	flusher.Flush()
	log.Debug("event stream opened", nil)

	var tick <-chan time.Time
	if s.heartbeat > 0 {
		ticker := time.NewTicker(s.heartbeat)
		defer ticker.Stop()
		tick = ticker.C
	}

	msgs := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			log.Debug("event stream closed", nil)
			return
		case <-s.closing:
			fmt.Fprint(w, "event: shutdown\ndata: {}\n\n")
			flusher.Flush()
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg.Payload)
			flusher.Flush()
		case <-tick:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		}
	}
}
