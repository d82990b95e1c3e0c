// Heatsheet - Ski Race Administration Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/heatsheet

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/heatsheet/internal/models"
)

// generateCommand is the body of the generate-*-for-event commands.
type generateCommand struct {
	EventID string `json:"event_id"`
}

func (rt *Router) generateRaceplan(w http.ResponseWriter, r *http.Request) {
	var cmd generateCommand
	if err := decodeBody(r, &cmd); err != nil {
		writeError(w, r, err)
		return
	}
	if cmd.EventID == "" {
		writeError(w, r, models.Validationf("event_id is required"))
		return
	}

	plan, err := rt.service.GenerateRaceplanForEvent(r.Context(), cmd.EventID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCreated(w, "/raceplans/"+plan.ID, plan)
}

func (rt *Router) createRaceplan(w http.ResponseWriter, r *http.Request) {
	var plan models.Raceplan
	if err := decodeBody(r, &plan); err != nil {
		writeError(w, r, err)
		return
	}
	created, err := rt.service.CreateRaceplan(r.Context(), &plan)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCreated(w, "/raceplans/"+created.ID, created)
}

func (rt *Router) listRaceplans(w http.ResponseWriter, r *http.Request) {
	plans, err := rt.service.ListRaceplans(r.Context(), r.URL.Query().Get("eventId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, plans)
}

func (rt *Router) getRaceplan(w http.ResponseWriter, r *http.Request) {
	detail, err := rt.service.GetRaceplan(r.Context(), chi.URLParam(r, "raceplanId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (rt *Router) updateRaceplan(w http.ResponseWriter, r *http.Request) {
	var plan models.Raceplan
	if err := decodeBody(r, &plan); err != nil {
		writeError(w, r, err)
		return
	}
	plan.ID = chi.URLParam(r, "raceplanId")
	if err := rt.service.UpdateRaceplan(r.Context(), &plan); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Router) deleteRaceplan(w http.ResponseWriter, r *http.Request) {
	if err := rt.service.DeleteRaceplan(r.Context(), chi.URLParam(r, "raceplanId")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Router) validateRaceplan(w http.ResponseWriter, r *http.Request) {
	diagnostics, err := rt.service.ValidateRaceplan(r.Context(), chi.URLParam(r, "raceplanId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, diagnostics)
}
