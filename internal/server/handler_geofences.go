package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/me/patrol/pkg/model"
)

func (s *Server) handleCreateGeofence(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	var g model.Geofence
	if err := json.NewDecoder(r.Body).Decode(&g); err != nil {
		respondError(w, reqID, http.StatusBadRequest, model.NewValidationError("invalid JSON body: "+err.Error()))
		return
	}
	if g.Name == "" {
		respondError(w, reqID, http.StatusBadRequest, model.NewValidationError("name is required"))
		return
	}

	if err := s.store.CreateGeofence(r.Context(), &g); err != nil {
		respondError(w, reqID, http.StatusInternalServerError, model.NewInternalError(err.Error()))
		return
	}

	s.logger.Info("geofence created", "geofence", g.Name)
	respondCreated(w, reqID, &g)
}

func (s *Server) handleListGeofences(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	fences, err := s.store.ListGeofences(r.Context())
	if err != nil {
		respondError(w, reqID, http.StatusInternalServerError, model.NewInternalError(err.Error()))
		return
	}

	page, pg := paginate(fences, listOptions(r))
	respondList(w, reqID, page, pg)
}

func (s *Server) handleDeleteGeofence(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	name := chi.URLParam(r, "name")

	if err := s.store.DeleteGeofence(r.Context(), name); err != nil {
		respondError(w, reqID, http.StatusInternalServerError, model.NewInternalError(err.Error()))
		return
	}
	respondOK(w, reqID, map[string]any{"deleted": true})
}
