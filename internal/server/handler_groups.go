package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/me/patrol/pkg/model"
)

func (s *Server) handleCreateAssignmentGroup(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	var g model.AssignmentGroup
	if err := json.NewDecoder(r.Body).Decode(&g); err != nil {
		respondError(w, reqID, http.StatusBadRequest, model.NewValidationError("invalid JSON body: "+err.Error()))
		return
	}
	if g.Name == "" {
		respondError(w, reqID, http.StatusBadRequest, model.NewValidationError("name is required"))
		return
	}
	if len(g.AssignmentIDs) == 0 {
		respondError(w, reqID, http.StatusBadRequest, model.NewValidationError("assignment_ids must not be empty"))
		return
	}

	existing, err := s.store.GetAssignmentGroup(r.Context(), g.Name)
	if err != nil {
		respondError(w, reqID, http.StatusInternalServerError, model.NewInternalError(err.Error()))
		return
	}
	if existing != nil {
		respondError(w, reqID, http.StatusConflict, model.NewConflictError("assignment group '"+g.Name+"' already exists"))
		return
	}

	if err := s.store.CreateAssignmentGroup(r.Context(), &g); err != nil {
		respondError(w, reqID, http.StatusInternalServerError, model.NewInternalError(err.Error()))
		return
	}

	s.logger.Info("assignment group created", "group", g.Name, "members", len(g.AssignmentIDs))
	respondCreated(w, reqID, &g)
}

func (s *Server) handleListAssignmentGroups(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	groups, err := s.store.ListAssignmentGroups(r.Context())
	if err != nil {
		respondError(w, reqID, http.StatusInternalServerError, model.NewInternalError(err.Error()))
		return
	}

	page, pg := paginate(groups, listOptions(r))
	respondList(w, reqID, page, pg)
}

func (s *Server) handleGetAssignmentGroup(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	name := chi.URLParam(r, "name")

	g, err := s.store.GetAssignmentGroup(r.Context(), name)
	if err != nil {
		respondError(w, reqID, http.StatusInternalServerError, model.NewInternalError(err.Error()))
		return
	}
	if g == nil {
		respondError(w, reqID, http.StatusNotFound, model.NewNotFoundError("assignment group", name))
		return
	}
	respondOK(w, reqID, g)
}

func (s *Server) handleDeleteAssignmentGroup(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	name := chi.URLParam(r, "name")

	if err := s.store.DeleteAssignmentGroup(r.Context(), name); err != nil {
		respondError(w, reqID, http.StatusInternalServerError, model.NewInternalError(err.Error()))
		return
	}
	respondOK(w, reqID, map[string]any{"deleted": true})
}

// handleStartAssignmentGroup force-triggers every rule in a group.
// POST /api/v1/assignment-groups/{name}/start
func (s *Server) handleStartAssignmentGroup(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	name := chi.URLParam(r, "name")

	if s.scheduler == nil {
		respondError(w, reqID, http.StatusConflict, model.NewConflictError("scheduler not running"))
		return
	}
	if err := s.scheduler.StartAssignmentGroup(r.Context(), name); err != nil {
		respondError(w, reqID, http.StatusNotFound, model.NewNotFoundError("assignment group", name))
		return
	}
	respondOK(w, reqID, map[string]any{"started": true})
}
