// Heatsheet - Ski Race Administration Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/heatsheet

package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/heatsheet/internal/auth"
	"github.com/tomtom215/heatsheet/internal/database"
	"github.com/tomtom215/heatsheet/internal/models"
)

// createTimeEvent ingests one time event. A rejected event still gets
// persisted with status "Error" by the processor, so the 422 response
// body names the reason while the document remains queryable.
func (rt *Router) createTimeEvent(w http.ResponseWriter, r *http.Request) {
	var event models.TimeEvent
	if err := decodeBody(r, &event); err != nil {
		writeError(w, r, err)
		return
	}
	subject := auth.SubjectFromContext(r.Context())
	stored, err := rt.service.IngestTimeEvent(r.Context(), subject, &event)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCreated(w, "/time-events/"+stored.ID, stored)
}

func (rt *Router) listTimeEvents(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := database.TimeEventFilter{
		EventID:     query.Get("eventId"),
		RaceID:      query.Get("raceId"),
		TimingPoint: query.Get("timingPoint"),
	}
	if raw := query.Get("bib"); raw != "" {
		bib, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, r, models.Validationf("bib must be an integer: %q", raw))
			return
		}
		filter.Bib = bib
	}

	events, err := rt.service.ListTimeEvents(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (rt *Router) getTimeEvent(w http.ResponseWriter, r *http.Request) {
	event, err := rt.service.GetTimeEvent(r.Context(), chi.URLParam(r, "timeEventId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

func (rt *Router) deleteTimeEvent(w http.ResponseWriter, r *http.Request) {
	subject := auth.SubjectFromContext(r.Context())
	if err := rt.service.DeleteTimeEvent(r.Context(), subject, chi.URLParam(r, "timeEventId")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
