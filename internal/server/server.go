// Package server exposes the arena over HTTP: JSON endpoints for game
// control and a server-sent-events stream per session.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/hailam/chessarena/internal/config"
	"github.com/hailam/chessarena/internal/llm"
	"github.com/hailam/chessarena/internal/session"
)

// Server wires the HTTP surface to the registry, broadcaster and LLM
// client.
type Server struct {
	cfg         config.Config
	registry    *session.Registry
	broadcaster *session.Broadcaster
	client      *llm.Client
	catalog     *llm.ModelCatalog
	logger      *zap.Logger
}

func New(cfg config.Config, registry *session.Registry, broadcaster *session.Broadcaster,
	client *llm.Client, catalog *llm.ModelCatalog, logger *zap.Logger) *Server {
	return &Server{
		cfg:         cfg,
		registry:    registry,
		broadcaster: broadcaster,
		client:      client,
		catalog:     catalog,
		logger:      logger,
	}
}

// Router builds the route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.corsMiddleware, s.logMiddleware)

	r.HandleFunc("/api/token", s.handleToken).Methods(http.MethodPost)
	r.HandleFunc("/api/game/stream", s.handleStream).Methods(http.MethodGet)
	r.HandleFunc("/api/game/start", s.handleStart).Methods(http.MethodPost)
	r.HandleFunc("/api/game/state", s.handleState).Methods(http.MethodGet)
	r.HandleFunc("/api/game/move", s.handleMove).Methods(http.MethodPost)
	r.HandleFunc("/api/game/legal-moves", s.handleLegalMoves).Methods(http.MethodGet)
	r.HandleFunc("/api/game/stop", s.handleStop).Methods(http.MethodPost)
	r.HandleFunc("/api/game/reset", s.handleReset).Methods(http.MethodPost)
	r.HandleFunc("/api/models", s.handleModels).Methods(http.MethodPost)
	r.HandleFunc("/api/models/default", s.handleModelsDefault).Methods(http.MethodPost)

	return r
}

// corsMiddleware allows all origins; tokens are the only capability and
// they travel in the query string.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("took", time.Since(start)))
	})
}

// token extracts the session token from the query string.
func token(r *http.Request) string {
	return r.URL.Query().Get("token")
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
