// Heatsheet - Ski Race Administration Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/heatsheet

package timing

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/heatsheet/internal/database"
	"github.com/tomtom215/heatsheet/internal/logging"
	"github.com/tomtom215/heatsheet/internal/metrics"
	"github.com/tomtom215/heatsheet/internal/models"
)

// ReevaluateHeat re-checks whether a sprint heat is complete and, if
// so, propagates its qualifiers. The race office calls this path
// indirectly: marking a start entry DNS can complete a heat without
// any new finish event arriving.
func (p *Processor) ReevaluateHeat(ctx context.Context, subject, raceID string) error {
	key := PairKey(raceID, models.TimingPointFinish)
	p.locks.Lock(key)
	defer p.locks.Unlock(key)

	err := p.db.InTx(ctx, func(tx *database.Tx) error {
		race, err := tx.GetRace(ctx, raceID)
		if err != nil {
			return err
		}
		return p.reevaluateHeat(ctx, tx, subject, race)
	})
	if rej, ok := err.(rejection); ok {
		return models.Conflictf("%s", rej.reason)
	}
	return err
}

// reevaluateHeat propagates the qualifiers of race if its heat is now
// complete: every planned contestant has either an OK finish or an
// excluding status. Runs inside the caller's transaction so an
// overflow rolls the whole mutation back.
func (p *Processor) reevaluateHeat(ctx context.Context, tx *database.Tx, subject string, race *models.Race) error {
	if race.Datatype != models.RaceDatatypeIndividualSprint || len(race.Rule) == 0 {
		return nil
	}

	ranked, entries, complete, err := p.heatState(ctx, tx, race)
	if err != nil || !complete {
		return err
	}

	planRaces, err := tx.ListRacesByRaceplan(ctx, race.RaceplanID)
	if err != nil {
		return err
	}
	targetHeats := countTargetHeats(planRaces, race.Raceclass)

	qualifiers := PlanQualifiers(*race, ranked, entries, targetHeats)
	if err := p.applyQualifiers(ctx, tx, subject, race, qualifiers, planRaces, targetHeats); err != nil {
		return err
	}

	metrics.PropagationsApplied.Inc()
	logging.Info().
		Str("race_id", race.ID).
		Str("race", race.Name()).
		Int("qualifiers", len(qualifiers)).
		Msg("heat complete, qualifiers propagated")
	return nil
}

// heatState loads the ranked OK finishes and start entries of a race
// and reports whether the heat is complete.
func (p *Processor) heatState(ctx context.Context, tx *database.Tx, race *models.Race) ([]models.TimeEvent, map[int]models.StartEntry, bool, error) {
	events, err := tx.ListTimeEvents(ctx, database.TimeEventFilter{
		RaceID:      race.ID,
		TimingPoint: models.TimingPointFinish,
	})
	if err != nil {
		return nil, nil, false, err
	}
	ranked := rankFinishEvents(events)

	list, err := tx.ListStartEntriesByRace(ctx, race.ID)
	if err != nil {
		return nil, nil, false, err
	}
	entries := make(map[int]models.StartEntry, len(list))
	excluded := 0
	for _, entry := range list {
		entries[entry.Bib] = entry
		if models.StartEntryStatusExcludes(entry.Status) {
			excluded++
		}
	}

	finished := map[int]bool{}
	for _, ev := range ranked {
		entry, ok := entries[ev.Bib]
		if ok && !models.StartEntryStatusExcludes(entry.Status) {
			finished[ev.Bib] = true
		}
	}

	complete := race.NoOfContestants > 0 && len(finished)+excluded >= race.NoOfContestants
	return ranked, entries, complete, nil
}

// countTargetHeats counts how many heats each (round, index) column of
// one raceclass has.
func countTargetHeats(planRaces []models.Race, raceclass string) map[[2]string]int {
	heats := map[[2]string]int{}
	for _, r := range planRaces {
		if r.Raceclass == raceclass && r.Round != "" {
			heats[[2]string{r.Round, r.Index}]++
		}
	}
	return heats
}

// applyQualifiers writes the propagation outcome for every target race
// the completed heat feeds. Each target's roster is rebuilt from all
// of its completed source heats, so a heat finishing later slots its
// qualifiers between earlier ones and existing derived entries move
// instead of duplicating.
func (p *Processor) applyQualifiers(ctx context.Context, tx *database.Tx, subject string, source *models.Race, qualifiers []Qualifier, planRaces []models.Race, targetHeats map[[2]string]int) error {
	type heatKey struct {
		round, index string
		heat         int
	}
	// Every heat of every target column is rebuilt, including heats
	// the new qualifier set leaves empty, so entries from an earlier
	// propagation cannot outlive the roster that placed them.
	affected := map[heatKey]bool{}
	for _, ref := range source.Rule.OrderedTargets() {
		if !ruleTargets(source.Rule, ref.Round, ref.Index) {
			continue
		}
		for h := 1; h <= targetHeats[[2]string{ref.Round, ref.Index}]; h++ {
			affected[heatKey{ref.Round, ref.Index, h}] = true
		}
	}

	for key := range affected {
		round, index, heat := key.round, key.index, key.heat
		target := findRace(planRaces, source.Raceclass, round, index, heat)
		if target == nil {
			return rejectf("no %s%s heat %d race exists for raceclass %s",
				round, index, heat, source.Raceclass)
		}

		roster, err := p.collectRoster(ctx, tx, source, qualifiers, planRaces, targetHeats, round, index, heat)
		if err != nil {
			return err
		}
		SortQualifiers(roster)

		if target.MaxNoOfContestants > 0 && len(roster) > target.MaxNoOfContestants {
			metrics.PropagationConflicts.Inc()
			return rejectf("race %s is full: %d qualifiers for max %d",
				target.Name(), len(roster), target.MaxNoOfContestants)
		}

		if err := p.writeRoster(ctx, tx, subject, target, roster); err != nil {
			return err
		}
	}
	return nil
}

// collectRoster gathers the qualifiers destined for one target heat
// from every completed source heat of the class.
func (p *Processor) collectRoster(ctx context.Context, tx *database.Tx, source *models.Race, own []Qualifier, planRaces []models.Race, targetHeats map[[2]string]int, round, index string, heat int) ([]Qualifier, error) {
	var roster []Qualifier
	for _, q := range own {
		if q.Round == round && q.Index == index && q.Heat == heat {
			roster = append(roster, q)
		}
	}

	for i := range planRaces {
		other := &planRaces[i]
		if other.ID == source.ID || other.Raceclass != source.Raceclass {
			continue
		}
		if !ruleTargets(other.Rule, round, index) {
			continue
		}
		ranked, entries, complete, err := p.heatState(ctx, tx, other)
		if err != nil {
			return nil, err
		}
		if !complete {
			continue
		}
		for _, q := range PlanQualifiers(*other, ranked, entries, targetHeats) {
			if q.Round == round && q.Index == index && q.Heat == heat {
				roster = append(roster, q)
			}
		}
	}
	return roster, nil
}

// derivedEntryMarker tags start entries created by propagation, as
// opposed to entries seeded at startlist generation. The changelog
// comment carries the source race id after the marker.
const derivedEntryMarker = "PROPAGATED_FROM:"

func derivedEntry(entry *models.StartEntry) bool {
	for _, c := range entry.Changelog {
		if strings.HasPrefix(c.Comment, derivedEntryMarker) {
			return true
		}
	}
	return false
}

// writeRoster upserts the target race's start entries in position
// order, prunes derived entries the new roster supersedes, and points
// each source finish event at its next race.
func (p *Processor) writeRoster(ctx context.Context, tx *database.Tx, subject string, target *models.Race, roster []Qualifier) error {
	target.StartEntries = make([]string, 0, len(roster))
	for i, q := range roster {
		position := i + 1

		entry, err := tx.GetStartEntryByRaceAndBib(ctx, target.ID, q.Bib)
		if err != nil {
			return err
		}
		if entry == nil {
			entry = &models.StartEntry{
				ID:                 uuid.New().String(),
				StartlistID:        q.Entry.StartlistID,
				RaceID:             target.ID,
				Bib:                q.Bib,
				Name:               q.Entry.Name,
				Club:               q.Entry.Club,
				StartingPosition:   position,
				ScheduledStartTime: target.StartTime,
				Changelog: []models.Changelog{{
					Timestamp: time.Now().UTC(),
					UserID:    subject,
					Comment:   derivedEntryMarker + q.SourceID,
				}},
			}
			if err := tx.CreateStartEntry(ctx, entry); err != nil {
				return err
			}
		} else if entry.StartingPosition != position {
			entry.StartingPosition = position
			if err := tx.UpdateStartEntry(ctx, entry); err != nil {
				return err
			}
		}
		target.StartEntries = append(target.StartEntries, entry.ID)

		if q.Event.NextRaceID != target.ID || q.Event.NextRacePosition == nil || *q.Event.NextRacePosition != position {
			ev := q.Event
			ev.NextRace = target.Name()
			ev.NextRaceID = target.ID
			ev.NextRacePosition = &position
			if err := tx.UpdateTimeEvent(ctx, &ev); err != nil {
				return err
			}
		}
	}

	if err := p.pruneSupersededEntries(ctx, tx, target, roster); err != nil {
		return err
	}

	target.NoOfContestants = len(roster)
	return tx.UpdateRace(ctx, target)
}

// pruneSupersededEntries deletes derived entries of the target race
// that a re-propagation dropped from the roster, as when a qualifier
// goes DNS and the next ranked finisher takes the slot. Seeded entries
// and entries with recorded time events are left alone.
func (p *Processor) pruneSupersededEntries(ctx context.Context, tx *database.Tx, target *models.Race, roster []Qualifier) error {
	keep := make(map[int]bool, len(roster))
	for _, q := range roster {
		keep[q.Bib] = true
	}

	existing, err := tx.ListStartEntriesByRace(ctx, target.ID)
	if err != nil {
		return err
	}
	for i := range existing {
		entry := &existing[i]
		if keep[entry.Bib] || !derivedEntry(entry) {
			continue
		}
		dependents, err := tx.ListTimeEvents(ctx, database.TimeEventFilter{
			RaceID: target.ID,
			Bib:    entry.Bib,
		})
		if err != nil {
			return err
		}
		if len(dependents) > 0 {
			continue
		}
		if err := tx.DeleteStartEntry(ctx, entry.ID); err != nil {
			return err
		}
		logging.Info().
			Str("race_id", target.ID).
			Int("bib", entry.Bib).
			Msg("superseded qualifier entry withdrawn")
	}
	return nil
}

// ruleTargets reports whether a rule advances anyone into the given
// (round, index) column.
func ruleTargets(rule models.AdvancementRule, round, index string) bool {
	target, ok := rule[round][index]
	if !ok {
		return false
	}
	return target.Keyword != "" || target.Count > 0
}

// findRace locates one heat of a raceclass in the plan.
func findRace(planRaces []models.Race, raceclass, round, index string, heat int) *models.Race {
	for i := range planRaces {
		r := &planRaces[i]
		if r.Raceclass == raceclass && r.Round == round && r.Index == index && r.Heat == heat {
			return r
		}
	}
	return nil
}
