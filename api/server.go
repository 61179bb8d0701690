// Package api provides the HTTP REST API server for fedlens.
//
// It exposes the period and analysis listings, single-series fetches,
// dashboard reports, the Prometheus scrape endpoint and a WebSocket notice
// feed.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"github.com/seenimoa/fedlens/internal/catalog"
	"github.com/seenimoa/fedlens/internal/config"
	"github.com/seenimoa/fedlens/internal/dashboard"
	"github.com/seenimoa/fedlens/internal/eras"
	"github.com/seenimoa/fedlens/internal/fetcher"
	"github.com/seenimoa/fedlens/internal/logging"
	"github.com/seenimoa/fedlens/internal/telemetry"
	"github.com/seenimoa/fedlens/pkg/models"
)

// requestTimeout bounds a single request, including every upstream fetch an
// analysis performs.
const requestTimeout = 120 * time.Second

// Options wires a Server. Config, Source and Dashboard are required.
type Options struct {
	Config    *config.Config
	Source    fetcher.Source
	Dashboard *dashboard.Service
	Hub       *WSHub // created when nil
	Logger    logrus.FieldLogger
	Clock     func() time.Time
	Version   string
}

// Server is the HTTP API server.
type Server struct {
	router  chi.Router
	cfg     *config.Config
	src     fetcher.Source
	dash    *dashboard.Service
	wsHub   *WSHub
	log     logrus.FieldLogger
	now     func() time.Time
	version string
}

// NewServer creates a configured API server with all routes and middleware.
func NewServer(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if opts.Hub == nil {
		opts.Hub = NewWSHub(opts.Logger)
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}

	srv := &Server{
		cfg:     opts.Config,
		src:     opts.Source,
		dash:    opts.Dashboard,
		wsHub:   opts.Hub,
		log:     opts.Logger,
		now:     opts.Clock,
		version: opts.Version,
	}
	srv.router = srv.buildRouter()
	return srv
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// Hub returns the WebSocket hub notices are broadcast on.
func (s *Server) Hub() *WSHub {
	return s.wsHub
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: requestTimeout + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go s.wsHub.Run(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("HTTP server listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.log))
	r.Use(middleware.Recoverer)

	// CORS
	origins := []string{"*"}
	if s.cfg != nil && len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", telemetry.Handler())

	// The WebSocket feed is long-lived and sits outside the request timeout.
	r.Get("/ws", s.handleWebSocket)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))

		r.Get("/health", s.handleHealth)

		r.Get("/periods", s.handlePeriods)
		r.Get("/analyses", s.handleAnalyses)
		r.Get("/catalog", s.handleCatalog)

		r.Get("/series/{key}", s.handleSeries)
		r.Get("/analysis/{name}", s.handleAnalysis)

		r.Get("/config", s.handleGetConfig)
		r.Get("/config/keys", s.handleGetConfigKeys)
	})

	return r
}

// requestLogger logs one line per request through the application logger.
func requestLogger(log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.WithFields(logrus.Fields{
				logging.FieldPath: r.URL.Path,
				"method":          r.Method,
				"status":          ww.Status(),
				"bytes":           ww.BytesWritten(),
				"duration":        time.Since(start).String(),
				"request_id":      middleware.GetReqID(r.Context()),
			}).Debug("request served")
		})
	}
}

// ============================================================
// Request / Response types
// ============================================================

// APIResponse is the standard JSON envelope. Notices carry data-quality
// warnings for a response that still succeeded.
type APIResponse struct {
	Success bool            `json:"success"`
	Data    interface{}     `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
	Notices []models.Notice `json:"notices,omitempty"`
}

// PeriodInfo is a selectable period with its resolved bounds.
type PeriodInfo struct {
	Label string     `json:"label"`
	Range eras.Range `json:"range"`
}

// CatalogResponse is the body of GET /api/v1/catalog.
type CatalogResponse struct {
	Series     []catalog.Entry                      `json:"series"`
	Categories map[catalog.Category][]catalog.Entry `json:"categories"`
}

// ============================================================
// Handlers
// ============================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"status":     "ok",
			"version":    s.version,
			"time":       s.now().UTC().Format(time.RFC3339),
			"ws_clients": s.wsHub.ClientCount(),
		},
	})
}

func (s *Server) handlePeriods(w http.ResponseWriter, r *http.Request) {
	today := s.now()
	labels := eras.Periods()
	out := make([]PeriodInfo, 0, len(labels))
	for _, l := range labels {
		out = append(out, PeriodInfo{Label: l, Range: eras.ResolveRange(l, today)})
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: out})
}

func (s *Server) handleAnalyses(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: dashboard.Analyses()})
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: CatalogResponse{
			Series:     catalog.All(),
			Categories: catalog.ByCategory(),
		},
	})
}

// handleSeries serves one series. Explicit start/end dates win over a period
// label; with neither, the default period applies. A failed fetch still
// answers 200 with an empty series and a notice.
func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	key := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "key")))
	if key == "" {
		writeError(w, http.StatusBadRequest, "series key is required")
		return
	}

	q := r.URL.Query()
	var rng eras.Range
	if q.Get("start") != "" || q.Get("end") != "" {
		var err error
		if rng, err = eras.ParseRange(q.Get("start"), q.Get("end")); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	} else {
		rng = eras.ResolveRange(q.Get("period"), s.now())
	}

	series, err := s.src.Fetch(r.Context(), key, rng)
	if ctxErr := r.Context().Err(); ctxErr != nil {
		writeError(w, http.StatusServiceUnavailable, ctxErr.Error())
		return
	}

	resp := APIResponse{Success: true, Data: series}
	if err != nil {
		resp.Notices = []models.Notice{fetcher.FailureNotice(key, err)}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	name, err := dashboard.ParseAnalysis(chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	rep, err := s.dash.Run(r.Context(), dashboard.Request{
		Analysis: name,
		Period:   r.URL.Query().Get("period"),
	})
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusServiceUnavailable
		}
		writeError(w, status, err.Error())
		return
	}

	s.wsHub.Broadcast(WSMessage{
		Type: MsgAnalysisComplete,
		Data: map[string]interface{}{
			"analysis": rep.Analysis,
			"period":   rep.Period,
			"figures":  len(rep.Figures),
			"notices":  len(rep.Notices),
		},
	})

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    rep,
		Notices: rep.Notices,
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithError(err).Error("failed to write JSON response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}
