package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	caseworkflow "caseflow/contexts/moderation-safety/case-workflow"
	caseerrors "caseflow/contexts/moderation-safety/case-workflow/domain/errors"
	casehttp "caseflow/contexts/moderation-safety/case-workflow/transport/http"

	_ "caseflow/internal/platform/httpserver/docs"

	httpSwagger "github.com/swaggo/http-swagger"
)

type Server struct {
	mux          *http.ServeMux
	logger       *slog.Logger
	addr         string
	caseWorkflow caseworkflow.Module
}

func New(caseWorkflowModule caseworkflow.Module, logger *slog.Logger, addr string) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:          http.NewServeMux(),
		logger:       logger,
		addr:         addr,
		caseWorkflow: caseWorkflowModule,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("POST /api/moderation/v1/cases", s.handleCreateCase)
	s.mux.HandleFunc("GET /api/moderation/v1/cases/{case_id}", s.handleGetCase)
	s.mux.HandleFunc("POST /api/moderation/v1/cases/{case_id}/assign", s.handleAssignCase)
	s.mux.HandleFunc("POST /api/moderation/v1/cases/{case_id}/release", s.handleReleaseCase)
	s.mux.HandleFunc("POST /api/moderation/v1/cases/{case_id}/review/start", s.handleStartReview)
	s.mux.HandleFunc("POST /api/moderation/v1/cases/{case_id}/notes", s.handleAddNote)
	s.mux.HandleFunc("POST /api/moderation/v1/cases/{case_id}/evidence", s.handleAddEvidence)
	s.mux.HandleFunc("POST /api/moderation/v1/cases/{case_id}/decision", s.handleDecision)
	s.mux.HandleFunc("POST /api/moderation/v1/cases/{case_id}/escalate", s.handleEscalate)
	s.mux.HandleFunc("POST /api/moderation/v1/cases/{case_id}/appeal", s.handleAppeal)
	s.mux.HandleFunc("POST /api/moderation/v1/cases/{case_id}/appeal/review", s.handleAppealReview)
	s.mux.HandleFunc("POST /api/moderation/v1/cases/{case_id}/links", s.handleLink)
	s.mux.HandleFunc("POST /api/moderation/v1/cases/{case_id}/pattern", s.handlePattern)
	s.mux.HandleFunc("POST /api/moderation/v1/cases/{case_id}/feedback", s.handleFeedback)
	s.mux.HandleFunc("GET /api/moderation/v1/communities/{community_id}/queue", s.handleQueue)
	s.mux.HandleFunc("GET /api/moderation/v1/communities/{community_id}/stats", s.handleCommunityStats)
	s.mux.HandleFunc("GET /api/moderation/v1/automation/accuracy", s.handleAutomationAccuracy)
}

func (s *Server) handleCreateCase(w http.ResponseWriter, r *http.Request) {
	var req casehttp.CreateCaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeCaseError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.caseWorkflow.Handler.CreateCaseHandler(r.Context(), r.Header.Get("Idempotency-Key"), req)
	if err != nil {
		writeCaseDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetCase(w http.ResponseWriter, r *http.Request) {
	resp, err := s.caseWorkflow.Handler.GetCaseHandler(r.Context(), r.PathValue("case_id"))
	if err != nil {
		writeCaseDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAssignCase(w http.ResponseWriter, r *http.Request) {
	var req casehttp.AssignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeCaseError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	if strings.TrimSpace(req.AssignedBy) == "" {
		req.AssignedBy = r.Header.Get("X-User-Id")
	}
	resp, err := s.caseWorkflow.Handler.AssignHandler(r.Context(), r.PathValue("case_id"), req)
	if err != nil {
		writeCaseDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReleaseCase(w http.ResponseWriter, r *http.Request) {
	resp, err := s.caseWorkflow.Handler.ReleaseHandler(r.Context(), r.PathValue("case_id"))
	if err != nil {
		writeCaseDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStartReview(w http.ResponseWriter, r *http.Request) {
	resp, err := s.caseWorkflow.Handler.StartReviewHandler(r.Context(), r.PathValue("case_id"))
	if err != nil {
		writeCaseDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAddNote(w http.ResponseWriter, r *http.Request) {
	var req casehttp.NoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeCaseError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	if strings.TrimSpace(req.AddedBy) == "" {
		req.AddedBy = r.Header.Get("X-User-Id")
	}
	resp, err := s.caseWorkflow.Handler.AddNoteHandler(r.Context(), r.PathValue("case_id"), req)
	if err != nil {
		writeCaseDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAddEvidence(w http.ResponseWriter, r *http.Request) {
	var req casehttp.EvidenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeCaseError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	if strings.TrimSpace(req.UploadedBy) == "" {
		req.UploadedBy = r.Header.Get("X-User-Id")
	}
	resp, err := s.caseWorkflow.Handler.AddEvidenceHandler(r.Context(), r.PathValue("case_id"), req)
	if err != nil {
		writeCaseDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDecision(w http.ResponseWriter, r *http.Request) {
	var req casehttp.DecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeCaseError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	if strings.TrimSpace(req.DecisionMadeBy) == "" {
		req.DecisionMadeBy = r.Header.Get("X-User-Id")
	}
	resp, err := s.caseWorkflow.Handler.DecisionHandler(r.Context(), r.PathValue("case_id"), req)
	if err != nil {
		writeCaseDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleEscalate(w http.ResponseWriter, r *http.Request) {
	var req casehttp.EscalateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeCaseError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	if strings.TrimSpace(req.EscalatedBy) == "" {
		req.EscalatedBy = r.Header.Get("X-User-Id")
	}
	resp, err := s.caseWorkflow.Handler.EscalateHandler(r.Context(), r.PathValue("case_id"), req)
	if err != nil {
		writeCaseDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAppeal(w http.ResponseWriter, r *http.Request) {
	var req casehttp.AppealRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeCaseError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.caseWorkflow.Handler.AppealHandler(r.Context(), r.PathValue("case_id"), req)
	if err != nil {
		writeCaseDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAppealReview(w http.ResponseWriter, r *http.Request) {
	var req casehttp.AppealReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeCaseError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	if strings.TrimSpace(req.ReviewerID) == "" {
		req.ReviewerID = r.Header.Get("X-User-Id")
	}
	resp, err := s.caseWorkflow.Handler.AppealReviewHandler(r.Context(), r.PathValue("case_id"), req)
	if err != nil {
		writeCaseDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLink(w http.ResponseWriter, r *http.Request) {
	var req casehttp.LinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeCaseError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.caseWorkflow.Handler.LinkHandler(r.Context(), r.PathValue("case_id"), req)
	if err != nil {
		writeCaseDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePattern(w http.ResponseWriter, r *http.Request) {
	var req casehttp.PatternRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeCaseError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.caseWorkflow.Handler.PatternHandler(r.Context(), r.PathValue("case_id"), req)
	if err != nil {
		writeCaseDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var req casehttp.FeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeCaseError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	if strings.TrimSpace(req.ProvidedBy) == "" {
		req.ProvidedBy = r.Header.Get("X-User-Id")
	}
	resp, err := s.caseWorkflow.Handler.FeedbackHandler(r.Context(), r.PathValue("case_id"), req)
	if err != nil {
		writeCaseDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleQueue(w http.ResponseWriter, r *http.Request) {
	resp, err := s.caseWorkflow.Handler.QueueHandler(
		r.Context(),
		r.PathValue("community_id"),
		r.URL.Query().Get("assignee"),
	)
	if err != nil {
		writeCaseDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCommunityStats(w http.ResponseWriter, r *http.Request) {
	resp, err := s.caseWorkflow.Handler.CommunityStatsHandler(
		r.Context(),
		r.PathValue("community_id"),
		r.URL.Query().Get("timeframe_days"),
	)
	if err != nil {
		writeCaseDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAutomationAccuracy(w http.ResponseWriter, r *http.Request) {
	resp, err := s.caseWorkflow.Handler.AutomationAccuracyHandler(
		r.Context(),
		r.URL.Query().Get("timeframe_days"),
	)
	if err != nil {
		writeCaseDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeCaseDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, caseerrors.ErrCaseNotFound):
		writeCaseError(w, http.StatusNotFound, "case_not_found", err.Error())
	case errors.Is(err, caseerrors.ErrIdempotencyKeyRequired):
		writeCaseError(w, http.StatusBadRequest, "idempotency_key_required", err.Error())
	case errors.Is(err, caseerrors.ErrValidation):
		writeCaseError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, caseerrors.ErrInvalidTransition):
		writeCaseError(w, http.StatusConflict, "invalid_transition", err.Error())
	case errors.Is(err, caseerrors.ErrAlreadyAssigned):
		writeCaseError(w, http.StatusConflict, "already_assigned", err.Error())
	case errors.Is(err, caseerrors.ErrNotAssigned):
		writeCaseError(w, http.StatusConflict, "not_assigned", err.Error())
	case errors.Is(err, caseerrors.ErrAppealAlreadySubmitted),
		errors.Is(err, caseerrors.ErrAppealNotSubmitted),
		errors.Is(err, caseerrors.ErrAppealAlreadyReviewed):
		writeCaseError(w, http.StatusConflict, "appeal_conflict", err.Error())
	case errors.Is(err, caseerrors.ErrIdempotencyConflict):
		writeCaseError(w, http.StatusConflict, "idempotency_conflict", err.Error())
	case errors.Is(err, caseerrors.ErrConcurrentModification):
		writeCaseError(w, http.StatusConflict, "concurrent_modification", err.Error())
	default:
		writeCaseError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeCaseError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, casehttp.ErrorEnvelope{
		Status: "error",
		Error: casehttp.ErrorBody{
			Code:    code,
			Message: message,
		},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
