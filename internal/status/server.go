// Package status exposes responder statistics over HTTP and a websocket feed.
package status

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"seq-transfer/internal/metrics"

	"github.com/gorilla/websocket"
)

// WebSocket upgrader for the live stats feed
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow connections from any origin
	},
}

// Server serves /health, /metrics and /ws
type Server struct {
	metrics  *metrics.Metrics
	interval time.Duration
	server   *http.Server
}

// NewServer creates a status server that pushes stats to websocket clients every interval
func NewServer(addr string, m *metrics.Metrics, interval time.Duration) *Server {
	s := &Server{
		metrics:  m,
		interval: interval,
	}
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}
	return s
}

// Handler returns the routes of the status server
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.healthHandler)
	mux.HandleFunc("/metrics", s.metricsHandler)
	mux.HandleFunc("/ws", s.statsWebSocketHandler)
	return mux
}

// Start serves until ctx is cancelled, then shuts the HTTP server down
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Printf("[Status] INFO: Listening on %s", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
}

func (s *Server) metricsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.metrics.GetGlobalStats())
}

// statsWebSocketHandler pushes a stats snapshot right away and then every
// interval until the client goes away
func (s *Server) statsWebSocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[Status] ERROR: WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	// Reader goroutine notices the client closing the connection
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Printf("[Status] WARN: WebSocket read error: %v", err)
				}
				return
			}
		}
	}()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteJSON(s.metrics.GetGlobalStats()); err != nil {
			return
		}

		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}
	}
}
