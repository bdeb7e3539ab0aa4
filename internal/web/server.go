// Package web provides an HTTP status server for the trip-fusion daemon.
package web

import (
	"context"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sweeney/trip-fusion/internal/status"
)

const writeWait = 5 * time.Second

// Server serves the status page over HTTP and pushes updates over a websocket.
type Server struct {
	httpServer *http.Server
	tracker    *status.Tracker
	hub        *Hub
	upgrader   websocket.Upgrader
}

// New creates a Server that reads state from the given tracker.
func New(addr string, tracker *status.Tracker) *Server {
	s := &Server{tracker: tracker, hub: NewHub()}
	tracker.OnUpdate(func(snap status.Snapshot) {
		s.hub.Broadcast(status.FormatJSON(snap))
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/index.html", s.handleIndex)
	mux.HandleFunc("/index.json", s.handleJSON)
	mux.HandleFunc("/ws", s.handleWS)

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	return s
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener. Useful for tests.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server. Hijacked websocket connections
// are not tracked by net/http and close when their clients go away.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/index.html" {
		http.NotFound(w, r)
		return
	}
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	renderHTML(w, snap)
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.Write(status.FormatJSON(snap))
}

// handleWS sends the current status, then every update, until the client
// disconnects.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	c := s.hub.register()
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.hub.unregister(c)
		log.Printf("web: websocket upgrade: %v", err)
		return
	}
	defer conn.Close()
	select {
	case c.send <- status.FormatJSON(s.tracker.Snapshot()):
	default:
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for msg := range c.send {
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		}
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	s.hub.unregister(c)
	<-done
}
