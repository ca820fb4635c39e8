package main

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/basevitale/billing/billing"
	"github.com/basevitale/billing/invoice"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		if err := s.db.Ping(); err != nil {
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unhealthy",
				"error":  err.Error(),
			})
			return
		}
	}

	info := s.service.RulesInfo()
	respondJSON(w, http.StatusOK, map[string]any{
		"status":       "healthy",
		"rulesVersion": info.Version,
	})
}

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	var req SimulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, "invalid request body")
		return
	}
	if req.Acts == nil {
		respondBadRequest(w, "acts are required")
		return
	}

	result, err := s.service.Simulate(r.Context(), billing.SimulateInput{
		Acts:       *req.Acts,
		PatientID:  req.PatientID,
		PatientAge: req.PatientAge,
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleCreateInvoice(w http.ResponseWriter, r *http.Request) {
	var req SimulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, "invalid request body")
		return
	}
	if req.Acts == nil {
		respondBadRequest(w, "acts are required")
		return
	}

	inv, err := s.service.CreateInvoice(r.Context(), billing.SimulateInput{
		Acts:       *req.Acts,
		PatientID:  req.PatientID,
		PatientAge: req.PatientAge,
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, inv)
}

func (s *Server) handleGetInvoice(w http.ResponseWriter, r *http.Request) {
	inv, err := s.service.GetInvoice(r.Context(), chi.URLParam(r, "invoiceId"))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, inv)
}

func (s *Server) handleGetLifecycle(w http.ResponseWriter, r *http.Request) {
	view, err := s.service.GetInvoiceLifecycle(r.Context(), chi.URLParam(r, "invoiceId"))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (s *Server) handleTransition(w http.ResponseWriter, r *http.Request) {
	var req TransitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, "invalid request body")
		return
	}

	action, ok := invoice.ParseAction(req.Action)
	if !ok {
		respondJSON(w, http.StatusBadRequest, ErrorResponse{
			Code:    billing.CodeValidationError,
			Field:   "action",
			Message: "action must be one of VALIDATE, TRANSMIT, MARK_PAID, REJECT",
		})
		return
	}

	inv, err := s.service.TransitionInvoice(r.Context(), chi.URLParam(r, "invoiceId"), action)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, inv)
}

func (s *Server) handleListPatients(w http.ResponseWriter, r *http.Request) {
	patients, err := s.service.ListPatients(r.Context())
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"patients": patients})
}

func (s *Server) handleRulesInfo(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.service.RulesInfo())
}

func (s *Server) handleReloadRules(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.service.ReloadRules(r.Context()))
}

// respondDomainError maps the domain error taxonomy onto HTTP statuses.
// Guard violations get 412 so clients can render them apart from plain
// bad requests.
func respondDomainError(w http.ResponseWriter, err error) {
	var validationErr *billing.ValidationError
	var missingErr *billing.MissingContextError
	var notFoundErr *invoice.NotFoundError
	var transitionErr *invoice.InvalidTransitionError
	var guardErr *invoice.GuardViolationError
	var conflictErr *invoice.StatusConflictError

	switch {
	case errors.As(err, &validationErr):
		respondJSON(w, http.StatusBadRequest, ErrorResponse{
			Code: billing.CodeValidationError, Field: validationErr.Field, Message: validationErr.Message,
		})
	case errors.As(err, &missingErr):
		respondJSON(w, http.StatusBadRequest, ErrorResponse{
			Code: billing.CodeMissingContext, Field: missingErr.Field, Message: missingErr.Message,
		})
	case errors.As(err, &notFoundErr):
		respondJSON(w, http.StatusNotFound, ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
	case errors.As(err, &transitionErr):
		respondJSON(w, http.StatusBadRequest, ErrorResponse{Code: "INVALID_TRANSITION", Message: err.Error()})
	case errors.As(err, &guardErr):
		respondJSON(w, http.StatusPreconditionFailed, ErrorResponse{Code: "GUARD_VIOLATION", Message: err.Error()})
	case errors.As(err, &conflictErr):
		respondJSON(w, http.StatusConflict, ErrorResponse{Code: "STATUS_CONFLICT", Message: err.Error()})
	default:
		respondJSON(w, http.StatusInternalServerError, ErrorResponse{Code: "INTERNAL", Message: "internal error"})
	}
}

func respondBadRequest(w http.ResponseWriter, message string) {
	respondJSON(w, http.StatusBadRequest, ErrorResponse{
		Code:    billing.CodeValidationError,
		Message: message,
	})
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
