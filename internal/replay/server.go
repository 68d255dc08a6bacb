package replay

import (
	"errors"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/JakeFAU/convert-progress/internal/metrics"
	"github.com/JakeFAU/convert-progress/internal/middleware"
	"github.com/JakeFAU/convert-progress/internal/sse"
)

// Config tunes how fixtures are streamed.
type Config struct {
	// Interval separates consecutive frames.
	Interval time.Duration
	// FailAfter aborts a stream after that many frames; 0 disables.
	FailAfter int
}

// Server is the replay HTTP server.
type Server struct {
	router   chi.Router
	fixtures *Fixtures
	cfg      Config
	logger   *zap.Logger

	mu      sync.Mutex
	results []Result
}

// Result is one acknowledged result navigation.
type Result struct {
	Filename string    `json:"filename"`
	Success  bool      `json:"success"`
	At       time.Time `json:"at"`
}

// NewServer wires routes and middleware. HTTP metrics are registered on reg
// and exposed at /metrics together with everything else reg gathers.
func NewServer(fixtures *Fixtures, cfg Config, logger *zap.Logger, reg *prometheus.Registry) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	httpMetrics, err := metrics.NewHTTP(reg)
	if err != nil {
		return nil, err
	}
	s := &Server{
		fixtures: fixtures,
		cfg:      cfg,
		logger:   logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging(logger))
	r.Use(middleware.Recover(logger))
	r.Use(httpMetrics.Middleware)

	r.Get("/healthz", s.healthz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler(reg))
	r.Get("/progress/{session_id}", s.stream)
	r.Get("/result/{filename}", s.result)

	s.router = r
	return s, nil
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Results returns the acknowledged result navigations in arrival order.
func (s *Server) Results() []Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Result(nil), s.results...)
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) stream(w http.ResponseWriter, r *http.Request) {
	session := pathParam(r, "session_id")
	frames, err := s.fixtures.Lookup(session)
	if errors.Is(err, ErrNoFixture) {
		middleware.WriteError(w, http.StatusNotFound, err.Error())
		return
	}

	enc, err := sse.NewEncoder(w)
	if err != nil {
		middleware.WriteError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	w.WriteHeader(http.StatusOK)
	logger := s.logger.With(
		zap.String("session_id", session),
		zap.String("request_id", middleware.RequestIDFrom(r.Context())),
	)
	logger.Info("replaying fixture", zap.Int("frames", len(frames)))

	timer := time.NewTimer(0)
	defer timer.Stop()
	<-timer.C

	for i, frame := range frames {
		if s.cfg.FailAfter > 0 && i >= s.cfg.FailAfter {
			logger.Info("aborting stream", zap.Int("sent", i))
			return
		}
		if i > 0 && s.cfg.Interval > 0 {
			timer.Reset(s.cfg.Interval)
			select {
			case <-r.Context().Done():
				logger.Debug("client went away", zap.Int("sent", i))
				return
			case <-timer.C:
			}
		}
		if err := enc.WriteData(frame); err != nil {
			logger.Debug("write frame", zap.Error(err))
			return
		}
	}
	logger.Info("fixture replayed", zap.Int("sent", len(frames)))
}

func (s *Server) result(w http.ResponseWriter, r *http.Request) {
	res := Result{
		Filename: pathParam(r, "filename"),
		Success:  r.URL.Query().Get("success") == "true",
		At:       time.Now().UTC(),
	}
	s.mu.Lock()
	s.results = append(s.results, res)
	s.mu.Unlock()

	s.logger.Info("result requested", zap.String("filename", res.Filename), zap.Bool("success", res.Success))
	middleware.WriteJSON(w, http.StatusOK, res)
}

// pathParam returns the decoded route parameter. chi matches on RawPath when
// the request carried escaped slashes, leaving the parameter escaped.
func pathParam(r *http.Request, name string) string {
	v := chi.URLParam(r, name)
	if r.URL.RawPath == "" {
		return v
	}
	if decoded, err := url.PathUnescape(v); err == nil {
		return decoded
	}
	return v
}
