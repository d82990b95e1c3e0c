// Heatsheet - Ski Race Administration Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/heatsheet

package timing

import (
	"sort"

	"github.com/tomtom215/heatsheet/internal/models"
)

// Qualifier is one contestant advancing from a finished heat into a
// later race, before positions are assigned. SourceRank is the rank in
// the finished heat after DNS/DNF/DSQ exclusions; SourceOrder the
// schedule order of the finished heat, used to interleave qualifiers
// from parallel heats deterministically.
type Qualifier struct {
	Bib         int
	Event       models.TimeEvent
	Entry       models.StartEntry
	SourceID    string
	SourceOrder int
	SourceRank  int
	Round       string
	Index       string
	Heat        int
}

// PlanQualifiers applies a finished heat's advancement rule to its
// ranked finish events and returns where every qualifier goes. It is
// pure: resolving target race ids and writing entries is the caller's
// job.
//
// The rule's fixed quotas are filled first in rank order, keyword
// targets take the remainder, and contestants not covered by any
// target are out of the tournament. Within one target, heat h of the
// source deals its r-th qualifier to target heat ((h-1)+(r-1)) mod H + 1
// so parallel source heats spread their qualifiers instead of piling
// into target heat one.
func PlanQualifiers(source models.Race, ranked []models.TimeEvent, entries map[int]models.StartEntry, targetHeats map[[2]string]int) []Qualifier {
	eligible := make([]models.TimeEvent, 0, len(ranked))
	for _, ev := range ranked {
		entry, ok := entries[ev.Bib]
		if !ok || models.StartEntryStatusExcludes(entry.Status) {
			continue
		}
		eligible = append(eligible, ev)
	}

	var out []Qualifier
	next := 0
	for _, ref := range source.Rule.OrderedTargets() {
		take := ref.Target.Take(len(eligible) - next)
		heats := targetHeats[[2]string{ref.Round, ref.Index}]
		if heats < 1 {
			heats = 1
		}
		for r := 1; r <= take; r++ {
			ev := eligible[next]
			out = append(out, Qualifier{
				Bib:         ev.Bib,
				Event:       ev,
				Entry:       entries[ev.Bib],
				SourceID:    source.ID,
				SourceOrder: source.Order,
				SourceRank:  next + 1,
				Round:       ref.Round,
				Index:       ref.Index,
				Heat:        (source.Heat-1+r-1)%heats + 1,
			})
			next++
		}
	}
	return out
}

// SortQualifiers orders the combined qualifiers of one target race
// into starting-position order: better source ranks first, ties broken
// by the earlier-scheduled source heat. Positions are then dense 1..n
// in this order.
func SortQualifiers(qualifiers []Qualifier) {
	sort.SliceStable(qualifiers, func(i, j int) bool {
		if qualifiers[i].SourceRank != qualifiers[j].SourceRank {
			return qualifiers[i].SourceRank < qualifiers[j].SourceRank
		}
		return qualifiers[i].SourceOrder < qualifiers[j].SourceOrder
	})
}

// rankFinishEvents orders OK finish events by registration time, then
// bib, then arrival order (the order events come from storage). The
// input slice is in arrival order already, so the sort only needs to
// be stable.
func rankFinishEvents(events []models.TimeEvent) []models.TimeEvent {
	ranked := make([]models.TimeEvent, 0, len(events))
	for _, ev := range events {
		if ev.Status == models.TimeEventStatusOK {
			ranked = append(ranked, ev)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].RegistrationTime != ranked[j].RegistrationTime {
			return ranked[i].RegistrationTime < ranked[j].RegistrationTime
		}
		return ranked[i].Bib < ranked[j].Bib
	})
	return ranked
}

// arrivalOrderEvents filters to OK events, keeping arrival order. Used
// for Start and intermediate timing points where the sequence is the
// order observations came in.
func arrivalOrderEvents(events []models.TimeEvent) []models.TimeEvent {
	ordered := make([]models.TimeEvent, 0, len(events))
	for _, ev := range events {
		if ev.Status == models.TimeEventStatusOK {
			ordered = append(ordered, ev)
		}
	}
	return ordered
}
