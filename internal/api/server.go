// Package api serves read-only views of a running simulation over HTTP.
// Handlers read the snapshot published at the end of each cycle and never
// touch live simulation state.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/talgya/trigrid/internal/engine"
)

// Server serves the latest snapshot over HTTP.
type Server struct {
	Port int

	latest  atomic.Pointer[Snapshot]
	encoded atomic.Pointer[[]byte]
	hub     *hub

	upgrader websocket.Upgrader
}

// NewServer creates a server listening on port once started.
func NewServer(port int) *Server {
	return &Server{
		Port: port,
		hub:  newHub(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// Publish replaces the served snapshot and pushes it to stream subscribers.
func (s *Server) Publish(snap *Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	s.latest.Store(snap)
	s.encoded.Store(&data)
	s.hub.broadcast(data)
	return nil
}

// Latest returns the most recently published snapshot, or nil.
func (s *Server) Latest() *Snapshot {
	return s.latest.Load()
}

// Subscribers returns the number of open stream connections.
func (s *Server) Subscribers() int {
	return s.hub.count()
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	streamLimiter := NewRateLimiter(30, time.Minute)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/status", s.handleStatus)
	mux.HandleFunc("GET /api/v1/entities", s.handleEntities)
	mux.HandleFunc("GET /api/v1/fields/{type}", s.handleField)
	mux.HandleFunc("GET /api/v1/events", s.handleEvents)
	mux.HandleFunc("GET /api/v1/stats", s.handleStats)
	mux.HandleFunc("GET /api/v1/stream", RateLimitMiddleware(streamLimiter, s.handleStream))
	return mux
}

// Start serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	slog.Info("HTTP API starting", "addr", srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		s.hub.closeAll()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()
}

// snapshot fetches the latest snapshot or answers 503.
func (s *Server) snapshot(w http.ResponseWriter) (*Snapshot, bool) {
	snap := s.latest.Load()
	if snap == nil {
		http.Error(w, "no cycle completed yet", http.StatusServiceUnavailable)
		return nil, false
	}
	return snap, true
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w)
	if !ok {
		return
	}
	fields := make([]string, 0, len(snap.Fields))
	for name := range snap.Fields {
		fields = append(fields, name)
	}
	status := map[string]any{
		"cycle":       snap.Cycle,
		"phase":       snap.Phase,
		"sim_time":    snap.SimTime,
		"cells":       snap.Cells,
		"entities":    len(snap.Entities),
		"effects":     snap.Effects,
		"fields":      len(fields),
		"subscribers": s.hub.count(),
	}
	writeJSON(w, status)
}

func (s *Server) handleEntities(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w)
	if !ok {
		return
	}
	entities := snap.Entities
	if kind := r.URL.Query().Get("kind"); kind != "" {
		var filtered []EntityView
		for _, e := range entities {
			if e.Kind == kind {
				filtered = append(filtered, e)
			}
		}
		entities = filtered
	}
	if entities == nil {
		entities = []EntityView{}
	}
	writeJSON(w, entities)
}

func (s *Server) handleField(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w)
	if !ok {
		return
	}
	cells, ok := snap.Fields[r.PathValue("type")]
	if !ok {
		http.Error(w, "unknown field", http.StatusNotFound)
		return
	}
	writeJSON(w, cells)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w)
	if !ok {
		return
	}
	limit := recentEvents
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= recentEvents {
			limit = n
		}
	}

	events := snap.Events
	if category := r.URL.Query().Get("category"); category != "" {
		var filtered []engine.Event
		for _, e := range events {
			if e.Category == category {
				filtered = append(filtered, e)
			}
		}
		events = filtered
	}

	start := 0
	if len(events) > limit {
		start = len(events) - limit
	}
	if events == nil {
		events = []engine.Event{}
	}
	writeJSON(w, events[start:])
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w)
	if !ok {
		return
	}
	writeJSON(w, snap.Stats)
}

// handleStream upgrades to a websocket that receives every published
// snapshot, starting with the latest.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if s.hub.count() >= maxStreamed {
		http.Error(w, "too many stream connections", http.StatusServiceUnavailable)
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Debug("stream upgrade failed", "error", err)
		return
	}
	sub := s.hub.add(conn)
	if sub == nil {
		message := websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "too many stream connections")
		conn.WriteControl(websocket.CloseMessage, message, time.Now().Add(writeWait))
		conn.Close()
		return
	}
	if data := s.encoded.Load(); data != nil {
		s.hub.sendTo(sub, *data)
	}

	// Clients only listen; reading detects the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			s.hub.remove(sub)
			return
		}
	}
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
