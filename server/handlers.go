package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/intelscout/intelscout/pkg/domain"
	"github.com/intelscout/intelscout/pkg/store"
)

// monitoringStatusHandler returns the per-organization monitoring summary.
// An unreachable store is reported as health down rather than an opaque 500.
func (s *Server) monitoringStatusHandler(w http.ResponseWriter, r *http.Request) {
	orgID, err := pathInt64(r, "orgID")
	if err != nil {
		RenderError(w, r, err, http.StatusBadRequest)
		return
	}

	if err := s.store.Ping(r.Context()); err != nil {
		RenderJSON(w, r, http.StatusOK, domain.MonitoringStatus{
			OrganizationID: orgID,
			Health:         domain.HealthDown,
		})
		return
	}

	status, err := s.store.GetStatus(r.Context(), orgID)
	if errors.Is(err, store.ErrNotFound) {
		// no scan has run yet for this organization
		RenderJSON(w, r, http.StatusOK, domain.MonitoringStatus{
			OrganizationID: orgID,
			Health:         domain.HealthGood,
		})
		return
	}
	if err != nil {
		RenderError(w, r, err, http.StatusInternalServerError)
		return
	}

	RenderJSON(w, r, http.StatusOK, status)
}

// getTargetsHandler returns all targets for an organization
func (s *Server) getTargetsHandler(w http.ResponseWriter, r *http.Request) {
	orgID, err := pathInt64(r, "orgID")
	if err != nil {
		RenderError(w, r, err, http.StatusBadRequest)
		return
	}

	targets, err := s.store.GetTargets(r.Context(), orgID, false)
	if err != nil {
		RenderError(w, r, err, http.StatusInternalServerError)
		return
	}

	RenderJSON(w, r, http.StatusOK, toTargetResponses(targets))
}

// targetRequest is the POST body for target creation
type targetRequest struct {
	OrganizationID int64    `json:"organization_id"`
	Name           string   `json:"name"`
	Kind           string   `json:"kind"`
	Priority       string   `json:"priority"`
	Keywords       []string `json:"keywords"`
}

// createTargetHandler registers a new monitoring target
func (s *Server) createTargetHandler(w http.ResponseWriter, r *http.Request) {
	var req targetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RenderError(w, r, fmt.Errorf("decode request: %w", err), http.StatusBadRequest)
		return
	}

	if req.OrganizationID == 0 || req.Name == "" {
		RenderError(w, r, fmt.Errorf("organization_id and name are required"), http.StatusBadRequest)
		return
	}
	if len(req.Keywords) == 0 {
		RenderError(w, r, fmt.Errorf("keywords must not be empty"), http.StatusBadRequest)
		return
	}

	kind := domain.TargetKind(req.Kind)
	switch kind {
	case domain.TargetOrganization, domain.TargetCompetitor, domain.TargetTopic:
	case "":
		kind = domain.TargetTopic
	default:
		RenderError(w, r, fmt.Errorf("unknown target kind %q", req.Kind), http.StatusBadRequest)
		return
	}

	priority := domain.Priority(req.Priority)
	switch priority {
	case domain.PriorityLow, domain.PriorityMedium, domain.PriorityHigh:
	case "":
		priority = domain.PriorityMedium
	default:
		RenderError(w, r, fmt.Errorf("unknown priority %q", req.Priority), http.StatusBadRequest)
		return
	}

	target := domain.Target{
		OrganizationID: req.OrganizationID,
		Name:           req.Name,
		Kind:           kind,
		Priority:       priority,
		Keywords:       req.Keywords,
		Active:         true,
	}
	if err := s.store.CreateTarget(r.Context(), &target); err != nil {
		RenderError(w, r, err, http.StatusInternalServerError)
		return
	}

	RenderJSON(w, r, http.StatusCreated, toTargetResponse(target))
}

// setTargetActiveHandler toggles a target's active flag
func (s *Server) setTargetActiveHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		RenderError(w, r, err, http.StatusBadRequest)
		return
	}

	var req struct {
		Active bool `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RenderError(w, r, fmt.Errorf("decode request: %w", err), http.StatusBadRequest)
		return
	}

	err = s.store.SetTargetActive(r.Context(), id, req.Active)
	if errors.Is(err, store.ErrNotFound) {
		RenderError(w, r, fmt.Errorf("target %d not found", id), http.StatusNotFound)
		return
	}
	if err != nil {
		RenderError(w, r, err, http.StatusInternalServerError)
		return
	}

	RenderJSON(w, r, http.StatusOK, map[string]interface{}{"id": id, "active": req.Active})
}

// getFindingsHandler returns the latest findings for an organization
func (s *Server) getFindingsHandler(w http.ResponseWriter, r *http.Request) {
	orgID, err := strconv.ParseInt(r.URL.Query().Get("organization_id"), 10, 64)
	if err != nil {
		RenderError(w, r, fmt.Errorf("organization_id query parameter is required"), http.StatusBadRequest)
		return
	}

	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, parseErr := strconv.Atoi(l); parseErr == nil && parsed > 0 {
			limit = parsed
		}
	}

	findings, err := s.store.GetFindings(r.Context(), orgID, limit)
	if err != nil {
		RenderError(w, r, err, http.StatusInternalServerError)
		return
	}

	RenderJSON(w, r, http.StatusOK, toFindingResponses(findings))
}

// getOpportunitiesHandler returns opportunities for an organization,
// optionally filtered by status
func (s *Server) getOpportunitiesHandler(w http.ResponseWriter, r *http.Request) {
	orgID, err := pathInt64(r, "orgID")
	if err != nil {
		RenderError(w, r, err, http.StatusBadRequest)
		return
	}

	status := domain.OpportunityStatus(r.URL.Query().Get("status"))
	if status != "" && !domain.ValidStatus(status) {
		RenderError(w, r, fmt.Errorf("unknown status %q", status), http.StatusBadRequest)
		return
	}

	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, parseErr := strconv.Atoi(l); parseErr == nil && parsed > 0 {
			limit = parsed
		}
	}

	opps, err := s.store.GetOpportunities(r.Context(), orgID, status, limit)
	if err != nil {
		RenderError(w, r, err, http.StatusInternalServerError)
		return
	}

	RenderJSON(w, r, http.StatusOK, toOpportunityResponses(opps))
}

// updateOpportunityStatusHandler applies an operator status change
func (s *Server) updateOpportunityStatusHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		RenderError(w, r, err, http.StatusBadRequest)
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RenderError(w, r, fmt.Errorf("decode request: %w", err), http.StatusBadRequest)
		return
	}

	err = s.store.UpdateOpportunityStatus(r.Context(), id, domain.OpportunityStatus(req.Status))
	switch {
	case errors.Is(err, store.ErrNotFound):
		RenderError(w, r, fmt.Errorf("opportunity %d not found", id), http.StatusNotFound)
	case errors.Is(err, store.ErrInvalidTransition):
		RenderError(w, r, err, http.StatusConflict)
	case err != nil:
		RenderError(w, r, err, http.StatusInternalServerError)
	default:
		RenderJSON(w, r, http.StatusOK, map[string]interface{}{"id": id, "status": req.Status})
	}
}

// triggerScanHandler forces one scan cycle for an organization
func (s *Server) triggerScanHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OrganizationID int64 `json:"organization_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RenderError(w, r, fmt.Errorf("decode request: %w", err), http.StatusBadRequest)
		return
	}
	if req.OrganizationID == 0 {
		RenderError(w, r, fmt.Errorf("organization_id is required"), http.StatusBadRequest)
		return
	}

	result, err := s.scanner.ScanByID(r.Context(), req.OrganizationID)
	if err != nil {
		RenderError(w, r, err, http.StatusInternalServerError)
		return
	}

	RenderJSON(w, r, http.StatusOK, result)
}

// pathInt64 parses an int64 path value
func pathInt64(r *http.Request, name string) (int64, error) {
	v, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", name, r.PathValue(name))
	}
	return v, nil
}
