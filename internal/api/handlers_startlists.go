// Heatsheet - Ski Race Administration Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/heatsheet

package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/heatsheet/internal/models"
)

func (rt *Router) generateStartlist(w http.ResponseWriter, r *http.Request) {
	var cmd generateCommand
	if err := decodeBody(r, &cmd); err != nil {
		writeError(w, r, err)
		return
	}
	if cmd.EventID == "" {
		writeError(w, r, models.Validationf("event_id is required"))
		return
	}

	list, err := rt.service.GenerateStartlistForEvent(r.Context(), cmd.EventID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCreated(w, "/startlists/"+list.ID, list)
}

func (rt *Router) createStartlist(w http.ResponseWriter, r *http.Request) {
	var list models.Startlist
	if err := decodeBody(r, &list); err != nil {
		writeError(w, r, err)
		return
	}
	created, err := rt.service.CreateStartlist(r.Context(), &list)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCreated(w, "/startlists/"+created.ID, created)
}

// listStartlists lists startlists, hydrated with entries when eventId
// is given. The optional bib filter narrows the embedded entries to
// one contestant, which the start gate uses to look up a skier's
// starts across the whole event.
func (rt *Router) listStartlists(w http.ResponseWriter, r *http.Request) {
	eventID := r.URL.Query().Get("eventId")
	lists, err := rt.service.ListStartlists(r.Context(), eventID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if eventID == "" {
		writeJSON(w, http.StatusOK, lists)
		return
	}

	bib := 0
	if raw := r.URL.Query().Get("bib"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, r, models.Validationf("bib must be an integer: %q", raw))
			return
		}
		bib = parsed
	}

	details := make([]models.StartlistDetail, 0, len(lists))
	for i := range lists {
		detail, err := rt.service.GetStartlist(r.Context(), lists[i].ID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if bib != 0 {
			filtered := detail.StartEntries[:0]
			for _, entry := range detail.StartEntries {
				if entry.Bib == bib {
					filtered = append(filtered, entry)
				}
			}
			detail.StartEntries = filtered
		}
		details = append(details, *detail)
	}
	writeJSON(w, http.StatusOK, details)
}

func (rt *Router) getStartlist(w http.ResponseWriter, r *http.Request) {
	detail, err := rt.service.GetStartlist(r.Context(), chi.URLParam(r, "startlistId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (rt *Router) updateStartlist(w http.ResponseWriter, r *http.Request) {
	var list models.Startlist
	if err := decodeBody(r, &list); err != nil {
		writeError(w, r, err)
		return
	}
	list.ID = chi.URLParam(r, "startlistId")
	if err := rt.service.UpdateStartlist(r.Context(), &list); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Router) deleteStartlist(w http.ResponseWriter, r *http.Request) {
	if err := rt.service.DeleteStartlist(r.Context(), chi.URLParam(r, "startlistId")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
