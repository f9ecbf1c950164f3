package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/lirany1/test-metrics-charts/pkg/generator"
	"github.com/lirany1/test-metrics-charts/pkg/logger"
	"github.com/lirany1/test-metrics-charts/pkg/metrics"
	"github.com/lirany1/test-metrics-charts/pkg/models"
	"github.com/lirany1/test-metrics-charts/pkg/pages"
	"github.com/lirany1/test-metrics-charts/pkg/renderer"
	"github.com/lirany1/test-metrics-charts/pkg/storage"
)

const (
	defaultSnapshotLimit = 20
	maxSnapshotLimit     = 200
)

// Config holds server configuration
type Config struct {
	Host         string
	Port         int
	ChartTitle   string
	ChartWidth   int
	ChartHeight  int
	DefaultQuery models.Query
}

// SnapshotStore reads fetch history; *storage.Database satisfies it
type SnapshotStore interface {
	GetRecentSnapshots(limit int) ([]storage.SnapshotRecord, error)
	GetSnapshot(id string) (*storage.SnapshotRecord, error)
}

// Server serves the chart pages and JSON API
type Server struct {
	config    *Config
	router    *mux.Router
	generator *generator.Generator
	store     SnapshotStore
	pages     *pages.Renderer
	svg       renderer.SeriesRenderer
	png       renderer.SeriesRenderer
}

// NewServer creates a new chart server. store may be nil when history is
// disabled.
func NewServer(cfg *Config, gen *generator.Generator, store SnapshotStore) (*Server, error) {
	pageRenderer, err := pages.NewRenderer()
	if err != nil {
		return nil, err
	}

	s := &Server{
		config:    cfg,
		router:    mux.NewRouter(),
		generator: gen,
		store:     store,
		pages:     pageRenderer,
		svg:       renderer.NewSVGRenderer(cfg.ChartWidth, cfg.ChartHeight),
		png:       renderer.NewPNGRenderer(cfg.ChartWidth, cfg.ChartHeight),
	}
	s.setupRoutes()
	return s, nil
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start runs the HTTP server until ctx is cancelled
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("Server running at http://%s", addr)
		logger.Infof("Press Ctrl+C to stop")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) setupRoutes() {
	s.router.Use(loggingMiddleware)

	s.router.HandleFunc("/td", s.handleTimeseries).Methods("GET")
	s.router.HandleFunc("/td.png", s.handleTimeseriesPNG).Methods("GET")
	s.router.HandleFunc("/bokeh", s.handleBarCharts).Methods("GET")
	s.router.HandleFunc("/plot", s.handleStaticPlot).Methods("GET")
	s.router.HandleFunc("/p", s.handleFruitChart).Methods("GET")

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/timeseries", s.handleTimeseriesJSON).Methods("GET")
	api.HandleFunc("/snapshots", s.handleListSnapshots).Methods("GET")
	api.HandleFunc("/snapshots/{id}", s.handleGetSnapshot).Methods("GET")

	// registered last so named routes win
	s.router.HandleFunc("/{bars_count:-?[0-9]+}", s.handleBarsCount).Methods("GET")
}

// queryFrom applies release/build/about URL overrides to the default query
func (s *Server) queryFrom(r *http.Request) models.Query {
	q := s.config.DefaultQuery
	params := r.URL.Query()
	if v := params.Get("release"); v != "" {
		q.Release = v
	}
	if v := params.Get("build"); v != "" {
		q.Build = v
	}
	if v := params.Get("about"); v != "" {
		q.About = v
	}
	return q
}

func (s *Server) handleTimeseries(w http.ResponseWriter, r *http.Request) {
	report, err := s.generator.Generate(r.Context(), s.queryFrom(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	svg, err := s.svg.RenderSeries(s.config.ChartTitle, report.Series)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.renderPage(w, r, pages.TimeseriesPage(s.config.ChartTitle, report, svg))
}

func (s *Server) handleTimeseriesPNG(w http.ResponseWriter, r *http.Request) {
	report, err := s.generator.Generate(r.Context(), s.queryFrom(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	png, err := s.png.RenderSeries(s.config.ChartTitle, report.Series)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", s.png.ContentType())
	_, _ = w.Write(png)
}

func (s *Server) handleTimeseriesJSON(w http.ResponseWriter, r *http.Request) {
	report, err := s.generator.Generate(r.Context(), s.queryFrom(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, report)
}

func (s *Server) handleBarsCount(w http.ResponseWriter, r *http.Request) {
	count, err := strconv.Atoi(mux.Vars(r)["bars_count"])
	if err != nil {
		http.Error(w, "invalid bars count", http.StatusBadRequest)
		return
	}
	s.renderPage(w, r, pages.Page{Title: "Bars", BarsCount: ClampBarsCount(count)})
}

// ClampBarsCount coerces non-positive counts to 1
func ClampBarsCount(n int) int {
	if n <= 0 {
		return 1
	}
	return n
}

func (s *Server) handleBarCharts(w http.ResponseWriter, r *http.Request) {
	charts := []struct {
		name string
		xs   []float64
		tops []float64
	}{
		{name: "red", xs: []float64{1, 2, 3, 4}, tops: []float64{1.7, 2.2, 4.6, 3.9}},
		{name: "blue", xs: []float64{1, 0.25, 3, 4, 8}, tops: []float64{1.7, 2.2, 4.6, 3.9, 12.55}},
	}

	plots := make([]pages.Plot, 0, len(charts))
	for _, c := range charts {
		bars, err := renderer.NumericBars(c.xs, c.tops)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		svg, err := renderer.RenderBars(renderer.BarChart{
			Width:    600,
			Height:   600,
			Color:    "navy",
			BarWidth: 0.5,
			Bars:     bars,
		})
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		plots = append(plots, pages.SVGPlot(c.name, svg))
	}

	s.renderPage(w, r, pages.Page{Title: "Bar Charts", Plots: plots})
}

func (s *Server) handleFruitChart(w http.ResponseWriter, r *http.Request) {
	svg, err := renderer.RenderBars(renderer.BarChart{
		Title:    "Fruit Counts",
		Width:    600,
		Height:   350,
		Color:    "#1f77b4",
		BarWidth: 0.3,
		Bars: []renderer.Bar{
			{Label: "Apples", Value: 5},
			{Label: "Pears", Value: 3},
			{Label: "Nectarines", Value: 4},
			{Label: "Plums", Value: 2},
			{Label: "Grapes", Value: 4},
			{Label: "Strawberries", Value: 6},
		},
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.renderPage(w, r, pages.Page{Title: "Fruit Counts", Plots: []pages.Plot{pages.SVGPlot("yellow", svg)}})
}

func (s *Server) handleStaticPlot(w http.ResponseWriter, r *http.Request) {
	png, err := renderer.RenderStaticPlot([]float64{0, 2, 1, 3, 4}, []float64{1, 2, 3, 4, 5}, 640, 480)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(renderer.ImageTag(png)))
}

func (s *Server) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		http.Error(w, "history is disabled", http.StatusServiceUnavailable)
		return
	}

	limit := defaultSnapshotLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}
	if limit > maxSnapshotLimit {
		limit = maxSnapshotLimit
	}

	snapshots, err := s.store.GetRecentSnapshots(limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if snapshots == nil {
		snapshots = []storage.SnapshotRecord{}
	}
	s.writeJSON(w, r, http.StatusOK, map[string]interface{}{"snapshots": snapshots})
}

func (s *Server) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		http.Error(w, "history is disabled", http.StatusServiceUnavailable)
		return
	}

	snapshot, err := s.store.GetSnapshot(mux.Vars(r)["id"])
	if errors.Is(err, storage.ErrNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, snapshot)
}

func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, page pages.Page) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.pages.Render(w, "chart.html", page); err != nil {
		s.writeError(w, r, err)
	}
}

// writeError maps upstream failures to 502 and everything else to 500
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	var remoteErr *metrics.RemoteError
	if errors.As(err, &remoteErr) {
		status = http.StatusBadGateway
	}

	logger.WithFields(logger.Fields{
		"path":   r.URL.Path,
		"status": status,
	}).Errorf("Request failed: %v", err)

	http.Error(w, err.Error(), status)
}

// writeJSON encodes v before touching the response so an encoding
// failure still reaches the client as a 500
func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		s.writeError(w, r, fmt.Errorf("failed to encode response: %w", err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		logger.Warnf("Failed to write JSON response: %v", err)
	}
}
