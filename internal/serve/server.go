package serve

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"formautofill/models"
	"formautofill/pkg/mapping"
	"formautofill/pkg/orchestrator"
)

// Server exposes the extension message protocol over HTTP: request_fill as
// POST /v1/fill and learn_mapping as POST /v1/learn.
type Server struct {
	orch   *orchestrator.Orchestrator
	store  *mapping.Store
	logger *slog.Logger
}

func NewServer(orch *orchestrator.Orchestrator, store *mapping.Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{orch: orch, store: store, logger: logger}
}

// Router builds the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Post("/v1/fill", s.handleFill)
	r.Post("/v1/learn", s.handleLearn)
	return r
}

type fillRequest struct {
	Schema        models.FormSchema     `json:"schema"`
	DomainMapping *models.DomainMapping `json:"domainMapping,omitempty"`
	Profile       *models.UserProfile   `json:"profile,omitempty"`
	Locale        string                `json:"locale"`
}

type fillResponse struct {
	Plan models.FillPlan `json:"plan"`
}

type learnRequest struct {
	Domain      string            `json:"domain"`
	Corrections []models.FillItem `json:"corrections"`
}

type errorBody struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

func (s *Server) handleFill(w http.ResponseWriter, r *http.Request) {
	var req fillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Schema.FormID == "" {
		s.writeError(w, http.StatusBadRequest, "schema.formId is required")
		return
	}

	plan := s.orch.MakePlan(r.Context(), orchestrator.Request{
		Schema:  req.Schema,
		Mapping: req.DomainMapping,
		Profile: req.Profile,
		Locale:  req.Locale,
	})
	s.writeJSON(w, http.StatusOK, fillResponse{Plan: plan})
}

func (s *Server) handleLearn(w http.ResponseWriter, r *http.Request) {
	var req learnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Domain == "" {
		s.writeError(w, http.StatusBadRequest, "domain is required")
		return
	}
	if s.store == nil {
		s.writeError(w, http.StatusServiceUnavailable, "mapping store unavailable")
		return
	}

	if err := s.store.Learn(req.Domain, req.Corrections); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// Acknowledged with an empty noop plan, mirroring the message protocol.
	s.writeJSON(w, http.StatusOK, fillResponse{
		Plan: models.FillPlan{FormID: "noop", Items: []models.FillItem{}},
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("failed to write response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, errorResponse{Error: errorBody{Message: message}})
}
