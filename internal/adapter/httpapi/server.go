// Package httpapi serves the fused trajectory to the Cesium/ECharts frontend
// alongside the operational health, readiness, and metrics routes.
package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Continy/ShipTrackViz/internal/track"
)

// Server exposes the trajectory API plus health, readiness, and metrics routes.
type Server struct {
	httpServer *http.Server
	store      *Store
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics, and
// GET /api/trajectory routes.
func NewServer(addr string, store *Store, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		store:  store,
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /api/trajectory", s.handleTrajectory)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// handleReady reports ready once a trajectory has been published.
func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	if _, _, err := s.store.Current(); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// trajectoryResponse is the display payload: a CZML document for the globe
// view and aligned chart series for the plots.
type trajectoryResponse struct {
	CZML     []any         `json:"czml"`
	Chart    chartResponse `json:"chart"`
	LoadedAt time.Time     `json:"loaded_at"`
}

type chartResponse struct {
	Timestamps []string         `json:"timestamps"`
	Series     map[string][]any `json:"series"`
}

func (s *Server) handleTrajectory(w http.ResponseWriter, _ *http.Request) {
	traj, loadedAt, err := s.store.Current()
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
		return
	}

	resp := trajectoryResponse{
		CZML:     buildCZML(traj),
		Chart:    buildChart(traj),
		LoadedAt: loadedAt,
	}
	writeJSON(w, http.StatusOK, resp)
}

// buildCZML renders the trajectory as a two-packet CZML document: the
// document header with the track's time interval, and the vessel entity with
// its epoch-relative position samples. Samples with NaN coordinates are
// skipped so the polyline stays continuous.
func buildCZML(traj *track.Trajectory) []any {
	times := traj.Timestamps()
	if len(times) == 0 {
		return []any{map[string]any{"id": "document", "name": "vessel-track", "version": "1.0"}}
	}

	start := times[0]
	end := times[len(times)-1]
	interval := start.UTC().Format(time.RFC3339) + "/" + end.UTC().Format(time.RFC3339)

	var coords []float64
	for i := 0; i < traj.Len(); i++ {
		p, err := traj.At(i)
		if err != nil {
			continue
		}
		lat, lon := p.Latitude(), p.Longitude()
		if math.IsNaN(lat) || math.IsNaN(lon) {
			continue
		}
		offset := p.Timestamp().Sub(start).Seconds()
		coords = append(coords, offset, lon, lat, 0)
	}

	doc := map[string]any{
		"id":      "document",
		"name":    "vessel-track",
		"version": "1.0",
		"clock": map[string]any{
			"interval":    interval,
			"currentTime": start.UTC().Format(time.RFC3339),
			"multiplier":  60,
		},
	}
	vessel := map[string]any{
		"id":           "vessel",
		"availability": interval,
		"position": map[string]any{
			"epoch":                  start.UTC().Format(time.RFC3339),
			"cartographicDegrees":    coords,
			"interpolationDegree":    1,
			"interpolationAlgorithm": "LINEAR",
		},
		"path": map[string]any{
			"leadTime":  0,
			"trailTime": end.Sub(start).Seconds(),
			"width":     2,
		},
	}
	return []any{doc, vessel}
}

// buildChart renders every imported series aligned to the timestamp axis.
// NaN markers become JSON null, which ECharts treats as a gap.
func buildChart(traj *track.Trajectory) chartResponse {
	times := traj.Timestamps()
	stamps := make([]string, len(times))
	for i, t := range times {
		stamps[i] = t.UTC().Format(time.RFC3339)
	}

	series := make(map[string][]any)
	for _, name := range traj.SeriesNames() {
		vals, err := traj.Key(name)
		if err != nil {
			continue
		}
		col := make([]any, len(vals))
		for i, v := range vals {
			if math.IsNaN(v) {
				col[i] = nil
			} else {
				col[i] = v
			}
		}
		series[name] = col
	}
	return chartResponse{Timestamps: stamps, Series: series}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
