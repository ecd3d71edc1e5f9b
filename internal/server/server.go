// Package server exposes the trained model over HTTP: a health probe
// and a single/batch prediction endpoint.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/procurewatch/prguard/pkg/features"
	"github.com/procurewatch/prguard/pkg/model"
	"github.com/procurewatch/prguard/pkg/scoring"
)

// PredictPath is where inference traffic is routed.
const PredictPath = "/v1/models/pr-anomaly/predict"

// HealthPath is the liveness/readiness probe.
const HealthPath = "/v1/health"

// Server holds the lazily loaded scorer and the HTTP handlers. The
// artifact is loaded at most once and shared read-only across all
// requests; a failed load leaves the server in a degraded state that
// health and predict report as unavailable, retried on the next call.
type Server struct {
	modelPath string

	mu     sync.RWMutex
	scorer *scoring.Scorer
}

// New constructs a Server reading its artifact from modelPath.
func New(modelPath string) *Server {
	return &Server{modelPath: modelPath}
}

// Preload attempts to load the artifact so the first request is fast.
// A missing artifact is not fatal; the server starts degraded.
func (s *Server) Preload() error {
	_, err := s.load()
	return err
}

// load returns the shared scorer, loading the artifact on first use.
// Double-checked so concurrent first requests trigger one load.
func (s *Server) load() (*scoring.Scorer, error) {
	s.mu.RLock()
	sc := s.scorer
	s.mu.RUnlock()
	if sc != nil {
		return sc, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.scorer != nil {
		return s.scorer, nil
	}

	artifact, err := model.Load(s.modelPath)
	if err != nil {
		return nil, err
	}
	slog.Info("model artifact loaded",
		"path", s.modelPath,
		"features", artifact.Engineer.NFeatures(),
		"threshold", artifact.Threshold,
	)
	s.scorer = scoring.New(artifact)
	modelLoadedGauge.Set(1)
	return s.scorer, nil
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(HealthPath, s.HealthHandler)
	mux.HandleFunc(PredictPath, s.PredictHandler)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

// HealthHandler reports readiness: 200 with model details when the
// artifact is loaded, 503 otherwise.
func (s *Server) HealthHandler(w http.ResponseWriter, _ *http.Request) {
	defer observe("health", time.Now())

	sc, err := s.load()
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "error",
			"detail": err.Error(),
		})
		return
	}

	artifact := sc.Artifact()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "ok",
		"model_loaded": true,
		"n_features":   artifact.Engineer.NFeatures(),
		"threshold":    artifact.Threshold,
	})
}

// PredictHandler scores one or many PR items. It accepts a bare item
// object or {"items": [...]}; client errors are rejected before any
// model access.
func (s *Server) PredictHandler(w http.ResponseWriter, r *http.Request) {
	defer observe("predict", time.Now())

	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid or missing JSON body"})
		return
	}

	var items []any
	if raw, ok := payload["items"]; ok {
		list, ok := raw.([]any)
		if !ok {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "'items' must be a list"})
			return
		}
		items = list
	} else {
		items = []any{payload}
	}

	if len(items) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Empty items list"})
		return
	}

	sc, err := s.load()
	if err != nil {
		slog.Error("model not available", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "Model not loaded", "detail": err.Error()})
		return
	}

	predictions := make([]scoring.Prediction, len(items))
	for i, item := range items {
		fields, ok := item.(map[string]any)
		if !ok {
			predictions[i] = scoring.Prediction{Label: scoring.LabelError, Error: "item must be an object"}
		} else {
			predictions[i] = sc.ScoreRecord(features.NewRecord(fields))
		}
		predictionsTotal.WithLabelValues(string(predictions[i].Label)).Inc()
		if predictions[i].Label == scoring.LabelError {
			slog.Warn("scoring error", "item_number", predictions[i].ItemNumber, "error", predictions[i].Error)
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"predictions": predictions})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func observe(endpoint string, start time.Time) {
	requestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}
