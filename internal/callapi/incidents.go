package callapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/linnemanlabs/callpoint/internal/incident"
	"github.com/linnemanlabs/callpoint/internal/notify/dispatch"
)

func (a *API) handleListIncidents(w http.ResponseWriter, r *http.Request) {
	recs, err := a.svc.List(r.Context())
	if err != nil {
		a.logger.Error(r.Context(), err, "failed to list incidents")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if recs == nil {
		recs = []*incident.Record{}
	}
	writeJSON(w, http.StatusOK, recs)
}

func (a *API) handleConfirm(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if body.ID == "" {
		writeError(w, http.StatusBadRequest, "missing incident id")
		return
	}

	rec, err := a.svc.Confirm(r.Context(), body.ID)
	if err != nil {
		if errors.Is(err, incident.ErrNotFound) {
			writeError(w, http.StatusNotFound, "incident not found")
			return
		}
		a.logger.Error(r.Context(), err, "failed to confirm incident", "id", body.ID)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

func (a *API) handleDeleteIncident(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := a.svc.Delete(r.Context(), id); err != nil {
		if errors.Is(err, incident.ErrNotFound) {
			writeError(w, http.StatusNotFound, "incident not found")
			return
		}
		a.logger.Error(r.Context(), err, "failed to delete incident", "id", id)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleDispatch(w http.ResponseWriter, r *http.Request) {
	var msg dispatch.Message
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if msg.IncidentID == "" {
		writeError(w, http.StatusBadRequest, "missing incident id")
		return
	}
	if !msg.Channel.Valid() {
		writeError(w, http.StatusBadRequest, "invalid channel")
		return
	}
	if msg.Message == "" {
		writeError(w, http.StatusBadRequest, "missing message")
		return
	}

	if a.dispatcher != nil {
		if err := a.dispatcher.Send(r.Context(), &msg); err != nil {
			a.logger.Error(r.Context(), err, "dispatch failed", "incident_id", msg.IncidentID, "channel", msg.Channel)
			writeError(w, http.StatusBadGateway, "dispatch failed")
			return
		}
	}

	a.logger.Info(r.Context(), "message dispatched", "incident_id", msg.IncidentID, "channel", msg.Channel)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
