// Heatsheet - Ski Race Administration Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/heatsheet

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/heatsheet/internal/auth"
	"github.com/tomtom215/heatsheet/internal/models"
)

func (rt *Router) createRace(w http.ResponseWriter, r *http.Request) {
	var race models.Race
	if err := decodeBody(r, &race); err != nil {
		writeError(w, r, err)
		return
	}
	created, err := rt.service.CreateRace(r.Context(), &race)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCreated(w, "/races/"+created.ID, created)
}

func (rt *Router) listRaces(w http.ResponseWriter, r *http.Request) {
	races, err := rt.service.ListRaces(r.Context(), r.URL.Query().Get("eventId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, races)
}

func (rt *Router) getRace(w http.ResponseWriter, r *http.Request) {
	detail, err := rt.service.GetRace(r.Context(), chi.URLParam(r, "raceId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (rt *Router) updateRace(w http.ResponseWriter, r *http.Request) {
	var race models.Race
	if err := decodeBody(r, &race); err != nil {
		writeError(w, r, err)
		return
	}
	race.ID = chi.URLParam(r, "raceId")
	if err := rt.service.UpdateRace(r.Context(), &race); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Router) deleteRace(w http.ResponseWriter, r *http.Request) {
	if err := rt.service.DeleteRace(r.Context(), chi.URLParam(r, "raceId")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Router) createStartEntry(w http.ResponseWriter, r *http.Request) {
	var entry models.StartEntry
	if err := decodeBody(r, &entry); err != nil {
		writeError(w, r, err)
		return
	}
	raceID := chi.URLParam(r, "raceId")
	subject := auth.SubjectFromContext(r.Context())
	created, err := rt.service.CreateStartEntry(r.Context(), subject, raceID, &entry)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCreated(w, "/races/"+raceID+"/start-entries/"+created.ID, created)
}

func (rt *Router) listStartEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := rt.service.ListStartEntriesByRace(r.Context(), chi.URLParam(r, "raceId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if startlistID := r.URL.Query().Get("startlistId"); startlistID != "" {
		filtered := entries[:0]
		for _, entry := range entries {
			if entry.StartlistID == startlistID {
				filtered = append(filtered, entry)
			}
		}
		entries = filtered
	}
	writeJSON(w, http.StatusOK, entries)
}

func (rt *Router) getStartEntry(w http.ResponseWriter, r *http.Request) {
	entry, err := rt.service.GetStartEntry(r.Context(), chi.URLParam(r, "raceId"), chi.URLParam(r, "startEntryId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (rt *Router) updateStartEntry(w http.ResponseWriter, r *http.Request) {
	var entry models.StartEntry
	if err := decodeBody(r, &entry); err != nil {
		writeError(w, r, err)
		return
	}
	entry.ID = chi.URLParam(r, "startEntryId")
	subject := auth.SubjectFromContext(r.Context())
	if err := rt.service.UpdateStartEntry(r.Context(), subject, chi.URLParam(r, "raceId"), &entry); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Router) deleteStartEntry(w http.ResponseWriter, r *http.Request) {
	if err := rt.service.DeleteStartEntry(r.Context(), chi.URLParam(r, "raceId"), chi.URLParam(r, "startEntryId")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// listRaceResults lists a race's results, hydrated with ranked time
// events unless idsOnly is set.
func (rt *Router) listRaceResults(w http.ResponseWriter, r *http.Request) {
	raceID := chi.URLParam(r, "raceId")
	timingPoint := r.URL.Query().Get("timingPoint")

	if r.URL.Query().Get("idsOnly") == "true" {
		results, err := rt.service.ListRaceResultsByRace(r.Context(), raceID, timingPoint)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, results)
		return
	}

	details, err := rt.service.ListRaceResultDetailsByRace(r.Context(), raceID, timingPoint)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

func (rt *Router) getRaceResult(w http.ResponseWriter, r *http.Request) {
	detail, err := rt.service.GetRaceResult(r.Context(), chi.URLParam(r, "raceId"), chi.URLParam(r, "raceResultId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if r.URL.Query().Get("idsOnly") == "true" {
		writeJSON(w, http.StatusOK, detail.RaceResult)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (rt *Router) updateRaceResult(w http.ResponseWriter, r *http.Request) {
	var result models.RaceResult
	if err := decodeBody(r, &result); err != nil {
		writeError(w, r, err)
		return
	}
	result.ID = chi.URLParam(r, "raceResultId")
	if err := rt.service.UpdateRaceResult(r.Context(), chi.URLParam(r, "raceId"), &result); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Router) deleteRaceResult(w http.ResponseWriter, r *http.Request) {
	if err := rt.service.DeleteRaceResult(r.Context(), chi.URLParam(r, "raceId"), chi.URLParam(r, "raceResultId")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
