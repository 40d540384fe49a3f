// Package server exposes the engine over HTTP for the browser UI
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/fenilsonani/homesweep/internal/cleaner"
	"github.com/fenilsonani/homesweep/internal/engine"
	"github.com/fenilsonani/homesweep/internal/logger"
	"github.com/fenilsonani/homesweep/internal/trash"
	"github.com/fenilsonani/homesweep/pkg/utils"
)

// maxPlanBytes bounds the apply request body
const maxPlanBytes = 10 << 20

// Server serves the scan/apply API and the UI's static assets
type Server struct {
	engine    *engine.Engine
	log       *logger.Logger
	staticDir string
	tokens    *tokenStore
	router    chi.Router
}

// New creates a Server. staticDir may be empty.
func New(eng *engine.Engine, staticDir string, log *logger.Logger) *Server {
	s := &Server{
		engine:    eng,
		log:       log,
		staticDir: staticDir,
		tokens:    newTokenStore(5 * time.Minute),
	}
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Route("/api", func(r chi.Router) {
		r.Get("/scan", s.handleScan)
		r.Get("/status", s.handleStatus)
		r.Get("/trash", s.handleTrashList)

		r.Group(func(r chi.Router) {
			r.Use(s.sameOrigin)
			r.Post("/apply", s.handleApply)
			r.Post("/trash/{id}/restore", s.handleRestore)
		})
	})

	if s.staticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(s.staticDir)))
	}

	return r
}

// ListenAndServe serves on addr until ctx is cancelled
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down: %w", err)
		}
		return nil
	}
}

// handleScan handles GET /api/scan
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filters := s.engine.DefaultFilters()
	if v := q.Get("minSize"); v != "" {
		n, err := utils.ParseSize(v)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, err)
			return
		}
		filters.MinSizeBytes = n
	}
	if v := q.Get("minAgeDays"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.respondError(w, http.StatusBadRequest, fmt.Errorf("invalid minAgeDays: %s", v))
			return
		}
		filters.MinAgeDays = n
	}

	req := engine.ScanRequest{
		Include: q["categories"],
		Exclude: q["exclude"],
		Filters: filters,
		Fresh:   parseBool(q.Get("fresh")),
	}

	res, err := s.engine.Scan(r.Context(), req)
	if err != nil {
		s.respondEngineError(w, err)
		return
	}

	if res.Cached {
		w.Header().Set("X-Cache", "hit")
	} else {
		w.Header().Set("X-Cache", "miss")
	}
	s.respondJSON(w, http.StatusOK, res.Report)
}

// handleApply handles POST /api/apply. A delete that is not a dry run must
// carry the confirmation token returned by a dry run of the same body.
func (s *Server) handleApply(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	mode, err := cleaner.ParseMode(q.Get("mode"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}
	dryRun := parseBool(q.Get("dryRun"))

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPlanBytes))
	if err != nil {
		s.respondError(w, http.StatusRequestEntityTooLarge, err)
		return
	}

	plan, err := cleaner.ParsePlan(body, r.Header.Get("Content-Type"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}

	effective := mode
	if effective == "" {
		effective = plan.ApplyMode
	}
	needsConfirm := effective == cleaner.ModeDelete && !dryRun
	if needsConfirm && !s.tokens.redeem(q.Get("confirm"), body) {
		s.respondError(w, http.StatusPreconditionRequired,
			errors.New("delete requires the confirmation token from a dry run of the same plan"))
		return
	}

	result, err := s.engine.Apply(plan, cleaner.Options{DryRun: dryRun, Mode: mode})
	if err != nil {
		s.respondEngineError(w, err)
		return
	}

	if dryRun && result.Summary.Mode == cleaner.ModeDelete {
		w.Header().Set("X-Confirmation-Token", s.tokens.issue(body))
	}
	s.respondJSON(w, http.StatusOK, result)
}

// handleStatus handles GET /api/status
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.engine.Status(r.Context()))
}

// handleTrashList handles GET /api/trash
func (s *Server) handleTrashList(w http.ResponseWriter, r *http.Request) {
	recs, err := s.engine.Trashed()
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err)
		return
	}
	if recs == nil {
		recs = []trash.Record{}
	}
	s.respondJSON(w, http.StatusOK, recs)
}

// handleRestore handles POST /api/trash/{id}/restore
func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request) {
	rec, err := s.engine.Restore(chi.URLParam(r, "id"))
	switch {
	case err == nil:
		s.respondJSON(w, http.StatusOK, rec)
	case errors.Is(err, trash.ErrRecordNotFound):
		s.respondError(w, http.StatusNotFound, err)
	case errors.Is(err, trash.ErrRestoreConflict):
		s.respondError(w, http.StatusConflict, err)
	case errors.Is(err, trash.ErrRestoreDenied):
		s.respondError(w, http.StatusForbidden, err)
	default:
		s.respondError(w, http.StatusInternalServerError, err)
	}
}

func (s *Server) respondEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrInvalidRequest):
		s.respondError(w, http.StatusBadRequest, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		s.respondError(w, http.StatusServiceUnavailable, err)
	default:
		s.respondError(w, http.StatusInternalServerError, err)
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn("failed to write response: %v", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, err error) {
	if status >= 500 {
		s.log.Error("%v", err)
	}
	s.respondJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug("%s %s %d %s [%s]", r.Method, r.URL.Path, ww.Status(),
			time.Since(start).Round(time.Millisecond), middleware.GetReqID(r.Context()))
	})
}

// sameOrigin rejects mutating requests sent by pages from another origin.
// Browsers attach Origin to cross-origin POSTs, including the simple ones
// that skip a CORS preflight. Requests without either header come from
// non-browser clients and pass.
func (s *Server) sameOrigin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if site := r.Header.Get("Sec-Fetch-Site"); site != "" && site != "same-origin" && site != "none" {
			s.respondError(w, http.StatusForbidden, fmt.Errorf("cross-origin request rejected (%s)", site))
			return
		}
		if origin := r.Header.Get("Origin"); origin != "" {
			u, err := url.Parse(origin)
			if err != nil || u.Host == "" || !strings.EqualFold(u.Host, r.Host) {
				s.respondError(w, http.StatusForbidden, fmt.Errorf("cross-origin request rejected: %s", origin))
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
