// Package health serves liveness, status and metrics endpoints. The root
// endpoint doubles as a keep-alive target for free-tier hosting.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"TradeSentinel/internal/logging"
)

// Status is the payload served on /status, produced by the trader.
type Status struct {
	Running   bool        `json:"running"`
	PaperMode bool        `json:"paper_mode"`
	Symbol    string      `json:"symbol"`
	Summary   interface{} `json:"summary"`
}

// StatusFunc supplies the current bot status on each request.
type StatusFunc func() Status

// Server exposes /, /health, /status and /metrics.
type Server struct {
	srv       *http.Server
	status    StatusFunc
	startedAt time.Time
	log       zerolog.Logger
}

// NewServer creates the health server on the given port.
func NewServer(port int, status StatusFunc) *Server {
	s := &Server{
		status:    status,
		startedAt: time.Now(),
		log:       logging.Component("health"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleHome)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/status", s.handleStatus)
	mux.Handle("/metrics", promhttp.Handler())

	s.srv = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}
	return s
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	fmt.Fprint(w, "🤖 Trading bot is running!")
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "healthy",
		"service": "trading-bot",
		"uptime":  time.Since(s.startedAt).Round(time.Second).String(),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if s.status == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{"status": "bot not initialized"})
		return
	}
	json.NewEncoder(w).Encode(s.status())
}

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		s.log.Info().Str("addr", s.srv.Addr).Msg("health server listening")
		if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
			s.log.Error().Err(err).Msg("health server error")
		}
	}()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
