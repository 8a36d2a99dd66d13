package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/me/patrol/pkg/model"
)

func (s *Server) handleCreateDevice(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	var d model.Device
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		respondError(w, reqID, http.StatusBadRequest, model.NewValidationError("invalid JSON body: "+err.Error()))
		return
	}
	if d.UUID == "" {
		respondError(w, reqID, http.StatusBadRequest, model.NewValidationError("uuid is required"))
		return
	}

	existing, err := s.store.GetDevice(r.Context(), d.UUID)
	if err != nil {
		respondError(w, reqID, http.StatusInternalServerError, model.NewInternalError(err.Error()))
		return
	}
	if existing != nil {
		respondError(w, reqID, http.StatusConflict, model.NewConflictError("device '"+d.UUID+"' already exists"))
		return
	}

	if err := s.store.CreateDevice(r.Context(), &d); err != nil {
		respondError(w, reqID, http.StatusInternalServerError, model.NewInternalError(err.Error()))
		return
	}

	s.logger.Info("device registered", "device", d.UUID, "instance", d.InstanceName)
	respondCreated(w, reqID, &d)
}

func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	devices, err := s.store.ListDevices(r.Context())
	if err != nil {
		respondError(w, reqID, http.StatusInternalServerError, model.NewInternalError(err.Error()))
		return
	}

	page, pg := paginate(devices, listOptions(r))
	respondList(w, reqID, page, pg)
}

func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	uuid := chi.URLParam(r, "uuid")

	d, err := s.store.GetDevice(r.Context(), uuid)
	if err != nil {
		respondError(w, reqID, http.StatusInternalServerError, model.NewInternalError(err.Error()))
		return
	}
	if d == nil {
		respondError(w, reqID, http.StatusNotFound, model.NewNotFoundError("device", uuid))
		return
	}
	respondOK(w, reqID, d)
}

func (s *Server) handleCreateDeviceGroup(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	var g model.DeviceGroup
	if err := json.NewDecoder(r.Body).Decode(&g); err != nil {
		respondError(w, reqID, http.StatusBadRequest, model.NewValidationError("invalid JSON body: "+err.Error()))
		return
	}
	if g.Name == "" {
		respondError(w, reqID, http.StatusBadRequest, model.NewValidationError("name is required"))
		return
	}
	if len(g.DeviceUUIDs) == 0 {
		respondError(w, reqID, http.StatusBadRequest, model.NewValidationError("device_uuids must not be empty"))
		return
	}

	if err := s.store.CreateDeviceGroup(r.Context(), &g); err != nil {
		respondError(w, reqID, http.StatusInternalServerError, model.NewInternalError(err.Error()))
		return
	}

	s.logger.Info("device group created", "group", g.Name, "devices", len(g.DeviceUUIDs))
	respondCreated(w, reqID, &g)
}

func (s *Server) handleListDeviceGroups(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	groups, err := s.store.ListDeviceGroups(r.Context())
	if err != nil {
		respondError(w, reqID, http.StatusInternalServerError, model.NewInternalError(err.Error()))
		return
	}

	page, pg := paginate(groups, listOptions(r))
	respondList(w, reqID, page, pg)
}

func (s *Server) handleGetDeviceGroup(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	name := chi.URLParam(r, "name")

	g, err := s.store.GetDeviceGroup(r.Context(), name)
	if err != nil {
		respondError(w, reqID, http.StatusInternalServerError, model.NewInternalError(err.Error()))
		return
	}
	if g == nil {
		respondError(w, reqID, http.StatusNotFound, model.NewNotFoundError("device group", name))
		return
	}
	respondOK(w, reqID, g)
}

func (s *Server) handleDeleteDeviceGroup(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	name := chi.URLParam(r, "name")

	if err := s.store.DeleteDeviceGroup(r.Context(), name); err != nil {
		respondError(w, reqID, http.StatusInternalServerError, model.NewInternalError(err.Error()))
		return
	}
	respondOK(w, reqID, map[string]any{"deleted": true})
}
