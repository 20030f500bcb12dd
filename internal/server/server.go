// Package server exposes the analysis engine over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/oncall-tools/rca-cli/internal/analysis"
	"github.com/oncall-tools/rca-cli/internal/engine"
	"github.com/oncall-tools/rca-cli/internal/llm"
	"github.com/oncall-tools/rca-cli/internal/store"
)

// Server routes API requests to the engine and store.
type Server struct {
	engine *engine.Engine
	store  store.Store
	router chi.Router
}

// New builds the HTTP server. Store may be nil; history endpoints then
// return 503.
func New(eng *engine.Engine, st store.Store) *Server {
	s := &Server{engine: eng, store: st}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/types", s.handleTypes)
		r.Get("/validate", s.handleValidate)
		r.Post("/analyze", s.handleAnalyze)
		r.Get("/analyses", s.handleListAnalyses)
		r.Get("/analyses/{id}", s.handleGetAnalysis)
	})
	s.router = r
	return s
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleTypes(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"types": s.engine.AvailableTypes()})
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Validate(r.Context()))
}

// analyzeRequest is the POST /api/analyze body.
type analyzeRequest struct {
	Type     string   `json:"analysis_type"`
	Issue    string   `json:"issue_description"`
	Files    []string `json:"files,omitempty"`
	URLs     []string `json:"urls,omitempty"`
	Tickets  []string `json:"tickets,omitempty"`
	Extra    string   `json:"additional_context,omitempty"`
	Provider string   `json:"provider,omitempty"`
	Model    string   `json:"model,omitempty"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	typ, err := analysis.ParseType(req.Type)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rec, err := s.engine.Generate(r.Context(), engine.GenerateRequest{
		Type:    typ,
		Issue:   req.Issue,
		Files:   req.Files,
		URLs:    req.URLs,
		Tickets: req.Tickets,
		Extra:   req.Extra,
		Options: engine.Options{Provider: req.Provider, Model: req.Model},
	})
	if err != nil {
		var exhausted *llm.ExhaustedError
		status := http.StatusInternalServerError
		if errors.As(err, &exhausted) {
			status = http.StatusBadGateway
		}
		zap.L().Error("server: analyze failed",
			zap.String("type", req.Type),
			zap.Error(err),
		)
		writeError(w, status, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleListAnalyses(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "no store configured")
		return
	}

	filter := store.Filter{}
	if typ := r.URL.Query().Get("type"); typ != "" {
		t, err := analysis.ParseType(typ)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		filter.Type = t
	}
	filter.Limit = queryInt(r, "limit")
	filter.Offset = queryInt(r, "offset")

	records, err := s.store.ListAnalyses(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if records == nil {
		records = []analysis.Record{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"analyses": records})
}

func (s *Server) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "no store configured")
		return
	}

	rec, err := s.store.GetAnalysis(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func queryInt(r *http.Request, key string) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return 0
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
