// Package api serves completed run artifacts as JSON tables. Rendering and
// plotting stay out of scope; this is the structured surface downstream tools
// consume.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"winstack/domain/core"
	"winstack/domain/run"
	"winstack/internal"
	"winstack/ports"
)

// Server exposes read-only run artifacts over HTTP.
type Server struct {
	runs   ports.RunRepository
	log    *internal.Logger
	router chi.Router
}

// NewServer wires the artifact routes.
func NewServer(runs ports.RunRepository, log *internal.Logger) *Server {
	s := &Server{runs: runs, log: log}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", s.handleHealth)
	r.Route("/runs", func(r chi.Router) {
		r.Get("/", s.handleListRuns)
		r.Route("/{runID}", func(r chi.Router) {
			r.Get("/", s.handleRun(func(res *run.Result) interface{} { return res }))
			r.Get("/weights", s.handleRun(func(res *run.Result) interface{} { return res.Weights }))
			r.Get("/auc", s.handleRun(func(res *run.Result) interface{} {
				return map[string]interface{}{
					"learners": res.LearnerAUC,
					"ensemble": res.Ensemble,
				}
			}))
			r.Get("/grid", s.handleRun(func(res *run.Result) interface{} { return res.WinGrid }))
			r.Get("/tie", s.handleRun(func(res *run.Result) interface{} { return res.TieGrid }))
			r.Get("/calibration", s.handleRun(func(res *run.Result) interface{} { return res.Calibration }))
		})
	})
	s.router = r
	return s
}

// Router returns the HTTP handler for mounting or testing.
func (s *Server) Router() http.Handler { return s.router }

// ListenAndServe blocks serving the artifact API.
func (s *Server) ListenAndServe(port string) error {
	s.log.Info("artifact API listening on :%s", port)
	return http.ListenAndServe(":"+port, s.router)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	ids, err := s.runs.RunIDs(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"runs": ids})
}

func (s *Server) handleRun(project func(*run.Result) interface{}) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := core.RunID(chi.URLParam(r, "runID"))
		result, err := s.runs.RunByID(r.Context(), id)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, project(result))
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Error("failed to encode response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, core.ErrNotFound) {
		status = http.StatusNotFound
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}
