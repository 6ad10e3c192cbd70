package visualization

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/nvandessel/washout/internal/logging"
	"github.com/nvandessel/washout/internal/simulation"
)

// Server serves a live chart preview and re-runs the scenario on request.
type Server struct {
	scenario   *simulation.Scenario
	traj       *simulation.Trajectory
	opts       Options
	logger     *slog.Logger
	httpServer *http.Server
	listener   net.Listener
	mu         sync.Mutex
	addr       string
}

// NewServer creates a preview server for traj, a run of sc.
func NewServer(sc *simulation.Scenario, traj *simulation.Trajectory, opts Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Server{
		scenario: sc,
		traj:     traj,
		opts:     opts,
		logger:   logger,
	}
}

// Addr returns the address the server is listening on (e.g., "localhost:PORT").
// Returns empty string if the server hasn't started yet.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Handler returns the HTTP routes without starting a listener.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/chart.svg", s.handleSVG)
	mux.HandleFunc("/api/simulate", s.handleSimulate)
	return mux
}

// ListenAndServe starts the HTTP server on an OS-assigned port and blocks
// until the context is cancelled. Returns nil on clean shutdown.
func (s *Server) ListenAndServe(ctx context.Context) error {
	// Let the OS pick a free port.
	ln, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	s.mu.Lock()
	s.listener = ln
	s.addr = ln.Addr().String()
	s.httpServer = &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	s.mu.Unlock()

	s.logger.Info("preview server listening", "addr", s.addr)

	// Graceful shutdown when context is cancelled.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.httpServer.Shutdown(shutdownCtx)
	}()

	err = s.httpServer.Serve(ln)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// handleIndex serves the chart page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	chart, err := NewChart(s.traj, s.scenario, s.opts)
	if err != nil {
		http.Error(w, "chart error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	data := htmlTemplateData{Live: true}
	if s.scenario.Seed != nil {
		data.Seed = *s.scenario.Seed
	}
	html, err := renderHTML(chart, data)
	if err != nil {
		http.Error(w, "render error: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(html)
}

// handleSVG serves the chart as a standalone SVG image. With ?seed=N the
// scenario is re-run with that seed first.
func (s *Server) handleSVG(w http.ResponseWriter, r *http.Request) {
	traj := s.traj
	if r.URL.Query().Has("seed") {
		var status int
		var err error
		if traj, status, err = s.rerun(r); err != nil {
			http.Error(w, err.Error(), status)
			return
		}
	}
	chart, err := NewChart(traj, s.scenario, s.opts)
	if err != nil {
		http.Error(w, "chart error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	svg, err := chart.SVG()
	if err != nil {
		http.Error(w, "render error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Write(svg)
}

// handleSimulate re-runs the scenario with the given seed and returns the
// trajectory as JSON.
func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	traj, status, err := s.rerun(r)
	if err != nil {
		http.Error(w, err.Error(), status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(traj)
}

// rerun simulates the scenario with the request's seed parameter. On
// failure it returns the HTTP status to report.
func (s *Server) rerun(r *http.Request) (*simulation.Trajectory, int, error) {
	raw := r.URL.Query().Get("seed")
	if raw == "" {
		return nil, http.StatusBadRequest, fmt.Errorf("missing 'seed' query parameter")
	}
	seed, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil, http.StatusBadRequest, fmt.Errorf("invalid seed: %s", raw)
	}

	sim := simulation.NewSeededSimulator(seed, simulation.WithLogger(s.logger), simulation.WithRunName(s.scenario.Name))
	traj, err := sim.SimulateScenario(s.scenario)
	if err != nil {
		return nil, http.StatusUnprocessableEntity, fmt.Errorf("simulation error: %w", err)
	}
	return traj, http.StatusOK, nil
}
