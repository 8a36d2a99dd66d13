package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/me/patrol/pkg/model"
)

func parseDate(s string) (time.Time, error) {
	return time.Parse(model.DateLayout, s)
}

// assignmentID parses the {id} URL parameter.
func assignmentID(r *http.Request) (uint64, error) {
	return strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
}

func validateAssignment(a *model.Assignment) *model.APIError {
	if a.InstanceName == "" {
		return model.NewValidationError("instance_name is required")
	}
	if a.DeviceUUID != "" && a.DeviceGroupName != "" {
		return model.NewValidationError("device_uuid and device_group_name are mutually exclusive")
	}
	if a.Time > 86399 {
		return model.NewValidationError("time must be within 0..86399 seconds of the day")
	}
	if a.Date != "" {
		if _, err := parseDate(a.Date); err != nil {
			return model.NewValidationError("date must be formatted " + model.DateLayout)
		}
	}
	return nil
}

func (s *Server) handleCreateAssignment(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	var a model.Assignment
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		respondError(w, reqID, http.StatusBadRequest, model.NewValidationError("invalid JSON body: "+err.Error()))
		return
	}
	if apiErr := validateAssignment(&a); apiErr != nil {
		respondError(w, reqID, http.StatusBadRequest, apiErr)
		return
	}

	if err := s.store.CreateAssignment(r.Context(), &a); err != nil {
		respondError(w, reqID, http.StatusInternalServerError, model.NewInternalError(err.Error()))
		return
	}
	// Write-through so the evaluation loop sees the rule immediately.
	if s.scheduler != nil {
		s.scheduler.Cache().Add(&a)
	}

	s.logger.Info("assignment created", "assignment_id", a.ID, "instance", a.InstanceName)
	respondCreated(w, reqID, &a)
}

func (s *Server) handleListAssignments(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	assignments, err := s.store.ListAssignments(r.Context())
	if err != nil {
		respondError(w, reqID, http.StatusInternalServerError, model.NewInternalError(err.Error()))
		return
	}

	page, pg := paginate(assignments, listOptions(r))
	respondList(w, reqID, page, pg)
}

func (s *Server) handleGetAssignment(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	id, err := assignmentID(r)
	if err != nil {
		respondError(w, reqID, http.StatusBadRequest, model.NewValidationError("id must be numeric"))
		return
	}
	a, err := s.store.GetAssignment(r.Context(), id)
	if err != nil {
		respondError(w, reqID, http.StatusInternalServerError, model.NewInternalError(err.Error()))
		return
	}
	if a == nil {
		respondError(w, reqID, http.StatusNotFound, model.NewNotFoundError("assignment", chi.URLParam(r, "id")))
		return
	}
	respondOK(w, reqID, a)
}

func (s *Server) handleUpdateAssignment(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	id, err := assignmentID(r)
	if err != nil {
		respondError(w, reqID, http.StatusBadRequest, model.NewValidationError("id must be numeric"))
		return
	}
	existing, err := s.store.GetAssignment(r.Context(), id)
	if err != nil {
		respondError(w, reqID, http.StatusInternalServerError, model.NewInternalError(err.Error()))
		return
	}
	if existing == nil {
		respondError(w, reqID, http.StatusNotFound, model.NewNotFoundError("assignment", chi.URLParam(r, "id")))
		return
	}

	var a model.Assignment
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		respondError(w, reqID, http.StatusBadRequest, model.NewValidationError("invalid JSON body: "+err.Error()))
		return
	}
	a.ID = id
	if apiErr := validateAssignment(&a); apiErr != nil {
		respondError(w, reqID, http.StatusBadRequest, apiErr)
		return
	}

	if err := s.store.UpdateAssignment(r.Context(), &a); err != nil {
		respondError(w, reqID, http.StatusInternalServerError, model.NewInternalError(err.Error()))
		return
	}
	if s.scheduler != nil {
		s.scheduler.Cache().Edit(&a, id)
	}

	s.logger.Info("assignment updated", "assignment_id", id)
	respondOK(w, reqID, &a)
}

func (s *Server) handleDeleteAssignment(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	id, err := assignmentID(r)
	if err != nil {
		respondError(w, reqID, http.StatusBadRequest, model.NewValidationError("id must be numeric"))
		return
	}
	if err := s.store.DeleteAssignment(r.Context(), id); err != nil {
		respondError(w, reqID, http.StatusInternalServerError, model.NewInternalError(err.Error()))
		return
	}
	if s.scheduler != nil {
		s.scheduler.Cache().Delete(id)
	}

	s.logger.Info("assignment deleted", "assignment_id", id)
	respondOK(w, reqID, map[string]any{"deleted": true})
}

// handleStartAssignment force-triggers a rule now.
// POST /api/v1/assignments/{id}/start
func (s *Server) handleStartAssignment(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	id, err := assignmentID(r)
	if err != nil {
		respondError(w, reqID, http.StatusBadRequest, model.NewValidationError("id must be numeric"))
		return
	}
	if s.scheduler == nil {
		respondError(w, reqID, http.StatusConflict, model.NewConflictError("scheduler not running"))
		return
	}
	if err := s.scheduler.StartAssignment(r.Context(), id); err != nil {
		respondError(w, reqID, http.StatusNotFound, model.NewNotFoundError("assignment", chi.URLParam(r, "id")))
		return
	}
	respondOK(w, reqID, map[string]any{"started": true})
}

// handleReQuest clears quest state along the dependency chains of the
// named assignments and force-triggers them.
// POST /api/v1/assignments/re-quest
func (s *Server) handleReQuest(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	var req struct {
		AssignmentIDs []uint64 `json:"assignment_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, reqID, http.StatusBadRequest, model.NewValidationError("invalid JSON body: "+err.Error()))
		return
	}
	if len(req.AssignmentIDs) == 0 {
		respondError(w, reqID, http.StatusBadRequest, model.NewValidationError("assignment_ids must not be empty"))
		return
	}
	if s.scheduler == nil {
		respondError(w, reqID, http.StatusConflict, model.NewConflictError("scheduler not running"))
		return
	}

	if err := s.scheduler.ReQuest(r.Context(), req.AssignmentIDs); err != nil {
		respondError(w, reqID, http.StatusNotFound, &model.APIError{Code: model.ErrNotFound, Message: err.Error()})
		return
	}
	respondOK(w, reqID, map[string]any{"re_quested": true})
}
