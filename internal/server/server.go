package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/mailops/ses-guardian/pkg/model"
	"github.com/mailops/ses-guardian/pkg/storage"
)

// Server provides health check and check-history API endpoints.
type Server struct {
	store  storage.Storage
	mux    *http.ServeMux
	logger *slog.Logger
}

// NewServer creates an API server.
func NewServer(store storage.Storage, logger *slog.Logger) *Server {
	s := &Server{
		store:  store,
		mux:    http.NewServeMux(),
		logger: logger,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("GET /api/v1/checks", s.handleChecks)
	s.mux.HandleFunc("GET /api/v1/deliveries", s.handleDeliveries)
}

// Handler returns the HTTP handler for this server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleChecks(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	filter := model.HistoryFilter{
		Signal: model.Signal(r.URL.Query().Get("signal")),
		Status: model.Status(r.URL.Query().Get("status")),
		Limit:  queryLimit(r),
	}

	records, err := s.store.ListChecks(ctx, filter)
	if err != nil {
		s.logger.Error("list checks", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(records)
}

func (s *Server) handleDeliveries(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	filter := model.HistoryFilter{
		Backend: r.URL.Query().Get("backend"),
		Limit:   queryLimit(r),
	}

	records, err := s.store.ListDeliveries(ctx, filter)
	if err != nil {
		s.logger.Error("list deliveries", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(records)
}

func queryLimit(r *http.Request) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
