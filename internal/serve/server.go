// Package serve exposes a fitted interval forest over HTTP: a prediction
// endpoint, model/health introspection, the Prometheus endpoint, and a
// WebSocket stream of build progress while a fit is running.
package serve

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"intervalforest/internal/forest"
	"intervalforest/internal/series"
)

// Server serves predictions from a forest and streams fit progress to
// connected WebSocket clients.
type Server struct {
	forest   *forest.Forest
	server   *http.Server
	upgrader websocket.Upgrader

	clientsMu sync.RWMutex
	clients   map[*websocket.Conn]bool

	progress    chan forest.Progress
	stopChannel chan struct{}
	stopOnce    sync.Once
}

// PredictionRequest carries the series batch to score.
type PredictionRequest struct {
	Cases     series.Batch `json:"cases"`
	PerMember bool         `json:"per_member,omitempty"`
	RequestID string       `json:"request_id,omitempty"`
}

// PredictionResponse carries the aggregated (and optionally per-member)
// predictions.
type PredictionResponse struct {
	Predictions []float64   `json:"predictions"`
	PerMember   [][]float64 `json:"per_member,omitempty"`
	RequestID   string      `json:"request_id,omitempty"`
	LatencyMs   float64     `json:"latency_ms"`
	Timestamp   time.Time   `json:"timestamp"`
}

// New builds a server around the given forest. The gatherer backs the
// /metrics endpoint; pass prometheus.DefaultGatherer in production.
func New(f *forest.Forest, port int, gatherer prometheus.Gatherer) *Server {
	s := &Server{
		forest:      f,
		upgrader:    websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		clients:     make(map[*websocket.Conn]bool),
		progress:    make(chan forest.Progress, 100),
		stopChannel: make(chan struct{}),
	}

	r := mux.NewRouter()
	r.HandleFunc("/predict", s.handlePredict).Methods("POST")
	r.HandleFunc("/healthz", s.handleHealth).Methods("GET")
	r.HandleFunc("/model", s.handleModelInfo).Methods("GET")
	r.HandleFunc("/ws/progress", s.handleWebSocket).Methods("GET")
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s
}

// OnProgress returns a callback suitable for forest.Config.OnProgress; events
// are fanned out to all connected WebSocket clients.
func (s *Server) OnProgress() func(forest.Progress) {
	return func(p forest.Progress) {
		select {
		case s.progress <- p:
		default:
			// A slow client must not stall the build loop.
		}
	}
}

// Start begins serving and broadcasting. Blocks until the listener fails or
// Shutdown is called.
func (s *Server) Start() error {
	go s.broadcastLoop()
	log.Info().Str("addr", s.server.Addr).Msg("starting forest server")
	return s.server.ListenAndServe()
}

// Shutdown stops the broadcast loop and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.stopOnce.Do(func() { close(s.stopChannel) })
	return s.server.Shutdown(ctx)
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req PredictionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request: %v", err), http.StatusBadRequest)
		return
	}
	if len(req.Cases) == 0 {
		http.Error(w, "cases cannot be empty", http.StatusBadRequest)
		return
	}

	preds, err := s.forest.Predict(req.Cases)
	if err != nil {
		status := http.StatusInternalServerError
		switch err.(type) {
		case *forest.ShapeMismatchError, *forest.ConfigError:
			status = http.StatusBadRequest
		default:
			if err == forest.ErrNotFitted {
				status = http.StatusServiceUnavailable
			}
		}
		log.Error().Err(err).Msg("prediction failed")
		http.Error(w, fmt.Sprintf("prediction failed: %v", err), status)
		return
	}

	resp := PredictionResponse{
		Predictions: preds,
		RequestID:   req.RequestID,
		LatencyMs:   float64(time.Since(start).Milliseconds()),
		Timestamp:   time.Now(),
	}
	if req.PerMember {
		if perMember, err := s.forest.PredictPerMember(req.Cases); err == nil {
			resp.PerMember = perMember
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	_, err := s.forest.ModelInfo()
	status := http.StatusOK
	body := map[string]any{"fitted": err == nil}
	if err != nil {
		status = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func (s *Server) handleModelInfo(w http.ResponseWriter, r *http.Request) {
	info, err := s.forest.ModelInfo()
	if err != nil {
		http.Error(w, "model not fitted", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(info)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	s.clientsMu.Lock()
	s.clients[conn] = true
	s.clientsMu.Unlock()

	log.Debug().Str("remote", conn.RemoteAddr().String()).Msg("progress client connected")

	// Reader loop only to detect disconnects.
	go func() {
		defer s.dropClient(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *Server) dropClient(conn *websocket.Conn) {
	s.clientsMu.Lock()
	delete(s.clients, conn)
	s.clientsMu.Unlock()
	conn.Close()
}

func (s *Server) broadcastLoop() {
	for {
		select {
		case p := <-s.progress:
			s.broadcast(p)
		case <-s.stopChannel:
			return
		}
	}
}

func (s *Server) broadcast(p forest.Progress) {
	s.clientsMu.RLock()
	conns := make([]*websocket.Conn, 0, len(s.clients))
	for c := range s.clients {
		conns = append(conns, c)
	}
	s.clientsMu.RUnlock()

	for _, c := range conns {
		c.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := c.WriteJSON(p); err != nil {
			s.dropClient(c)
		}
	}
}
