package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/pageguard/pageguard/internal/heuristic"
	"github.com/pageguard/pageguard/internal/model"
)

// Server timeouts.
const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// Server is the reference moderation service.
type Server struct {
	mux        *http.ServeMux
	classifier *heuristic.Classifier
	rephraser  *heuristic.Rephraser
	metrics    *Metrics
	logger     *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets a custom logger. Defaults to slog.Default().
// Pass a redacting logger: analyze and rephrase bodies carry page text.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClassifier replaces the classifier backing the analyze endpoint.
func WithClassifier(c *heuristic.Classifier) Option {
	return func(s *Server) {
		if c != nil {
			s.classifier = c
		}
	}
}

// WithRephraser replaces the rephraser backing the rephrase endpoint.
func WithRephraser(r *heuristic.Rephraser) Option {
	return func(s *Server) {
		if r != nil {
			s.rephraser = r
		}
	}
}

// NewServer creates a Server.
func NewServer(opts ...Option) *Server {
	s := &Server{
		classifier: heuristic.NewClassifier(),
		rephraser:  heuristic.NewRephraser(),
		metrics:    NewMetrics(),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()
	mux.Handle("POST /analyze", s.instrument("analyze", s.handleAnalyze))
	mux.Handle("POST /rephrase", s.instrument("rephrase", s.handleRephrase))
	mux.Handle("GET /healthz", s.instrument("healthz", s.handleHealthz))
	mux.Handle("GET /metrics", s.metrics.Handler())
	s.mux = mux

	return s
}

// Handler returns the server's HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Run serves on addr until the context is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("moderation service listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("moderation service shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// instrument wraps a handler with request counting, latency recording,
// and request-scoped logging.
func (s *Server) instrument(route string, next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.NewString()

		s.metrics.requests.WithLabelValues(route).Inc()
		next(w, r)

		elapsed := time.Since(start)
		s.metrics.duration.WithLabelValues(route).Observe(elapsed.Seconds())
		s.logger.Debug("request handled",
			"route", route,
			"request_id", requestID,
			"duration_ms", elapsed.Milliseconds(),
		)
	})
}

// analyzeRequest is the /analyze request body.
type analyzeRequest struct {
	Text string `json:"text"`
}

// analyzeResponse is the /analyze response body.
type analyzeResponse struct {
	IsHarmful   bool    `json:"isHarmful"`
	Category    string  `json:"category"`
	Confidence  float64 `json:"confidence"`
	Explanation string  `json:"explanation"`
	Text        string  `json:"text"`
}

// rephraseRequest is the /rephrase request body.
type rephraseRequest struct {
	Text     string `json:"text"`
	Category string `json:"category"`
}

// rephraseResponse is the /rephrase response body.
type rephraseResponse struct {
	Original  string `json:"original"`
	Rephrased string `json:"rephrased"`
}

// handleAnalyze classifies the submitted text.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	verdict := s.classifier.Classify(req.Text)
	s.metrics.verdicts.WithLabelValues(verdict.Category.String()).Inc()

	s.writeJSON(w, http.StatusOK, analyzeResponse{
		IsHarmful:   verdict.Category.Flagged(),
		Category:    verdict.Category.String(),
		Confidence:  verdict.Confidence,
		Explanation: verdict.Explanation,
		Text:        req.Text,
	})
}

// handleRephrase rewrites the submitted flagged text.
func (s *Server) handleRephrase(w http.ResponseWriter, r *http.Request) {
	var req rephraseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res := s.rephraser.Rephrase(req.Text, model.ParseCategory(req.Category))
	s.writeJSON(w, http.StatusOK, rephraseResponse{
		Original:  res.Original,
		Rephrased: res.Rephrased,
	})
}

// handleHealthz reports liveness.
func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeJSON writes a JSON response body.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("failed to encode response", "error", err)
	}
}

// writeError writes a JSON error body.
func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
