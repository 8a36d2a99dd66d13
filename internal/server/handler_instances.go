package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/me/patrol/pkg/model"
)

func validInstanceType(t model.InstanceType) bool {
	switch t {
	case model.InstanceTypeCircle, model.InstanceTypeQuest, model.InstanceTypeIVQueue, model.InstanceTypeLeveling:
		return true
	}
	return false
}

func (s *Server) handleCreateInstance(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	var inst model.Instance
	if err := json.NewDecoder(r.Body).Decode(&inst); err != nil {
		respondError(w, reqID, http.StatusBadRequest, model.NewValidationError("invalid JSON body: "+err.Error()))
		return
	}
	if inst.Name == "" {
		respondError(w, reqID, http.StatusBadRequest, model.NewValidationError("name is required"))
		return
	}
	if !validInstanceType(inst.Type) {
		respondError(w, reqID, http.StatusBadRequest, model.NewValidationError("unknown instance type '"+string(inst.Type)+"'"))
		return
	}

	if err := s.store.CreateInstance(r.Context(), &inst); err != nil {
		respondError(w, reqID, http.StatusInternalServerError, model.NewInternalError(err.Error()))
		return
	}

	s.logger.Info("instance created", "instance", inst.Name, "type", inst.Type)
	respondCreated(w, reqID, &inst)
}

func (s *Server) handleListInstances(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	var (
		instances []*model.Instance
		err       error
	)
	if typ := r.URL.Query().Get("type"); typ != "" {
		instances, err = s.store.ListInstancesByType(r.Context(), model.InstanceType(typ))
	} else {
		instances, err = s.store.ListInstances(r.Context())
	}
	if err != nil {
		respondError(w, reqID, http.StatusInternalServerError, model.NewInternalError(err.Error()))
		return
	}

	page, pg := paginate(instances, listOptions(r))
	respondList(w, reqID, page, pg)
}

func (s *Server) handleGetInstance(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	name := chi.URLParam(r, "name")

	inst, err := s.store.GetInstance(r.Context(), name)
	if err != nil {
		respondError(w, reqID, http.StatusInternalServerError, model.NewInternalError(err.Error()))
		return
	}
	if inst == nil {
		respondError(w, reqID, http.StatusNotFound, model.NewNotFoundError("instance", name))
		return
	}
	respondOK(w, reqID, inst)
}

func (s *Server) handleDeleteInstance(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	name := chi.URLParam(r, "name")

	if err := s.store.DeleteInstance(r.Context(), name); err != nil {
		respondError(w, reqID, http.StatusInternalServerError, model.NewInternalError(err.Error()))
		return
	}
	respondOK(w, reqID, map[string]any{"deleted": true})
}

// handleInstanceComplete is the webhook a job controller calls when an
// instance finishes its work cycle; it fires every completion-driven
// rule.
// POST /api/v1/instances/{name}/complete
func (s *Server) handleInstanceComplete(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	name := chi.URLParam(r, "name")

	inst, err := s.store.GetInstance(r.Context(), name)
	if err != nil {
		respondError(w, reqID, http.StatusInternalServerError, model.NewInternalError(err.Error()))
		return
	}
	if inst == nil {
		respondError(w, reqID, http.StatusNotFound, model.NewNotFoundError("instance", name))
		return
	}
	if s.scheduler == nil {
		respondError(w, reqID, http.StatusConflict, model.NewConflictError("scheduler not running"))
		return
	}

	s.scheduler.OnInstanceComplete(r.Context(), name)
	respondOK(w, reqID, map[string]any{"completed": true})
}
