package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"omni_pulse/internal/ai"
	"omni_pulse/internal/logger"
	"omni_pulse/internal/models"
	"omni_pulse/internal/state"
	"omni_pulse/internal/watcher"
)

// Analysis is the orchestrator surface the API drives.
type Analysis interface {
	Trigger() error
	ResolveAsset(key string) (models.Asset, error)
	DeepDive(ctx context.Context, key string) (*models.Recommendation, error)
}

// AssetView is an asset with the recommendation currently attached to it.
type AssetView struct {
	Asset          models.Asset           `json:"asset"`
	Recommendation *models.Recommendation `json:"recommendation,omitempty"`
}

// Server exposes the dashboard read API and live push.
type Server struct {
	board    *state.Board
	analysis Analysis
	hub      *Hub
	log      *logrus.Entry
}

func New(board *state.Board, analysis Analysis, hub *Hub) *Server {
	return &Server{
		board:    board,
		analysis: analysis,
		hub:      hub,
		log:      logger.Log.WithField("component", "http"),
	}
}

// RegisterRoutes registers all API routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/snapshot", s.handleSnapshot)
	mux.HandleFunc("GET /api/assets/{id}", s.handleAsset)
	mux.HandleFunc("POST /api/assets/{id}/deep-dive", s.handleDeepDive)
	mux.HandleFunc("POST /api/analysis", s.handleTrigger)
	mux.HandleFunc("GET /api/sentiment", s.handleSentiment)
	mux.HandleFunc("GET /ws", s.handleWS)
	mux.HandleFunc("GET /healthz", s.handleHealth)
}

// Handler returns the routed API wrapped in request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return s.logRequests(mux)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("Dashboard API listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("dashboard server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("dashboard shutdown: %w", err)
	}
	return nil
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.board.Snapshot())
}

func (s *Server) handleAsset(w http.ResponseWriter, r *http.Request) {
	asset, err := s.analysis.ResolveAsset(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	snap := s.board.Snapshot()
	view := AssetView{Asset: asset}
	for _, a := range snap.Assets.Flatten() {
		if a.ID == asset.ID {
			view.Asset = a
			break
		}
	}
	if rec, ok := models.FindRecommendation(snap.Recommendations, view.Asset); ok {
		view.Recommendation = &rec
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleDeepDive(w http.ResponseWriter, r *http.Request) {
	rec, err := s.analysis.DeepDive(r.Context(), r.PathValue("id"))
	switch {
	case errors.Is(err, watcher.ErrUnknownAsset):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ai.ErrMissingCredentials):
		writeError(w, http.StatusPreconditionFailed, err.Error())
	case err != nil:
		s.log.WithError(err).Error("Deep dive failed")
		writeError(w, http.StatusBadGateway, "deep dive failed")
	case rec == nil:
		w.WriteHeader(http.StatusNoContent)
	default:
		writeJSON(w, http.StatusOK, rec)
	}
}

func (s *Server) handleTrigger(w http.ResponseWriter, r *http.Request) {
	switch err := s.analysis.Trigger(); {
	case errors.Is(err, ai.ErrMissingCredentials):
		writeError(w, http.StatusPreconditionFailed, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "started"})
}

func (s *Server) handleSentiment(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.board.Snapshot().Sentiment)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	s.hub.ServeWS(w, r, s.board.Snapshot)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.WithError(err).Error("Encoding JSON response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	return h.Hijack()
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(start).Round(time.Millisecond),
		}).Debug("HTTP request")
	})
}
