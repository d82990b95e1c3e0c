// Heatsheet - Ski Race Administration Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/heatsheet

package timing

import (
	"context"
	"sort"

	"github.com/tomtom215/heatsheet/internal/database"
	"github.com/tomtom215/heatsheet/internal/logging"
	"github.com/tomtom215/heatsheet/internal/models"
)

// Delete removes a time event and repairs everything derived from it:
// the pair's ranking sequence is recomputed, and a start entry the
// event propagated into a later race is withdrawn. The withdrawal
// fails with a conflict if time events have already been recorded for
// that entry, since deleting it would orphan them.
func (p *Processor) Delete(ctx context.Context, subject, id string) error {
	event, err := p.db.GetTimeEvent(ctx, id)
	if err != nil {
		return err
	}

	key := PairKey(event.RaceID, event.TimingPoint)
	p.locks.Lock(key)
	defer p.locks.Unlock(key)

	err = p.db.InTx(ctx, func(tx *database.Tx) error {
		if event.NextRaceID != "" {
			if err := p.withdrawDerivedEntry(ctx, tx, event); err != nil {
				return err
			}
		}

		if err := tx.DeleteTimeEvent(ctx, id); err != nil {
			return err
		}
		return p.rerankAfterDelete(ctx, tx, event)
	})
	if err != nil {
		return err
	}

	logging.Info().
		Str("time_event_id", id).
		Str("race_id", event.RaceID).
		Str("user", subject).
		Msg("time event deleted")
	return nil
}

// rerankAfterDelete rebuilds the pair's ranking sequence without the
// deleted event. An emptied result is removed along with the race's
// reference to it.
func (p *Processor) rerankAfterDelete(ctx context.Context, tx *database.Tx, event *models.TimeEvent) error {
	result, err := tx.GetRaceResultByPair(ctx, event.RaceID, event.TimingPoint)
	if err != nil || result == nil {
		return err
	}

	race, err := tx.GetRace(ctx, event.RaceID)
	if err != nil {
		return err
	}

	events, err := tx.ListTimeEvents(ctx, database.TimeEventFilter{
		RaceID:      event.RaceID,
		TimingPoint: event.TimingPoint,
	})
	if err != nil {
		return err
	}
	var ordered []models.TimeEvent
	if event.TimingPoint == models.TimingPointFinish {
		ordered = rankFinishEvents(events)
	} else {
		ordered = arrivalOrderEvents(events)
	}

	if len(ordered) == 0 {
		if err := tx.DeleteRaceResult(ctx, result.ID); err != nil {
			return err
		}
		delete(race.Results, event.TimingPoint)
		return tx.UpdateRace(ctx, race)
	}

	result.RankingSequence = make([]string, 0, len(ordered))
	for i := range ordered {
		rank := i + 1
		if ordered[i].Rank == nil || *ordered[i].Rank != rank {
			ordered[i].Rank = &rank
			if err := tx.UpdateTimeEvent(ctx, &ordered[i]); err != nil {
				return err
			}
		}
		result.RankingSequence = append(result.RankingSequence, ordered[i].ID)
	}
	result.NoOfContestants = len(ordered)
	return tx.UpdateRaceResult(ctx, result)
}

// withdrawDerivedEntry removes the start entry the event propagated
// into its next race and closes the position gap it leaves.
func (p *Processor) withdrawDerivedEntry(ctx context.Context, tx *database.Tx, event *models.TimeEvent) error {
	dependents, err := tx.ListTimeEvents(ctx, database.TimeEventFilter{
		RaceID: event.NextRaceID,
		Bib:    event.Bib,
	})
	if err != nil {
		return err
	}
	if len(dependents) > 0 {
		return models.Conflictf(
			"bib %d already has %d time events in race %s",
			event.Bib, len(dependents), event.NextRaceID)
	}

	entry, err := tx.GetStartEntryByRaceAndBib(ctx, event.NextRaceID, event.Bib)
	if err != nil {
		return err
	}
	if entry == nil {
		return nil
	}
	if err := tx.DeleteStartEntry(ctx, entry.ID); err != nil {
		return err
	}

	target, err := tx.GetRace(ctx, event.NextRaceID)
	if err != nil {
		return err
	}
	remaining, err := tx.ListStartEntriesByRace(ctx, target.ID)
	if err != nil {
		return err
	}
	sort.SliceStable(remaining, func(i, j int) bool {
		return remaining[i].StartingPosition < remaining[j].StartingPosition
	})

	target.StartEntries = make([]string, 0, len(remaining))
	for i := range remaining {
		if remaining[i].StartingPosition != i+1 {
			remaining[i].StartingPosition = i + 1
			if err := tx.UpdateStartEntry(ctx, &remaining[i]); err != nil {
				return err
			}
		}
		target.StartEntries = append(target.StartEntries, remaining[i].ID)
	}
	target.NoOfContestants = len(remaining)
	return tx.UpdateRace(ctx, target)
}
