// Heatsheet - Ski Race Administration Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/heatsheet

// Package timing ingests time events from timing points, maintains the
// race result for each (race, timing point) pair, and advances
// qualifiers through sprint brackets as heats finish.
package timing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/heatsheet/internal/database"
	"github.com/tomtom215/heatsheet/internal/logging"
	"github.com/tomtom215/heatsheet/internal/metrics"
	"github.com/tomtom215/heatsheet/internal/models"
	"github.com/tomtom215/heatsheet/internal/validation"
)

// ResultUpdate is broadcast to live consumers whenever a race result
// changes.
type ResultUpdate struct {
	EventID     string            `json:"event_id"`
	RaceID      string            `json:"race_id"`
	TimingPoint string            `json:"timing_point"`
	Result      models.RaceResult `json:"result"`
}

// Publisher broadcasts result updates. A nil publisher disables
// broadcasting.
type Publisher interface {
	PublishResultUpdate(ctx context.Context, update ResultUpdate)
}

// Processor handles time-event ingestion and deletion. Events of the
// same (race, timing point) pair are serialized on a keyed mutex;
// disjoint pairs proceed in parallel.
type Processor struct {
	db    *database.DB
	locks KeyedMutex
	pub   Publisher
}

// NewProcessor returns a processor over the given store. pub may be
// nil.
func NewProcessor(db *database.DB, pub Publisher) *Processor {
	return &Processor{db: db, pub: pub}
}

// rejection marks an event that must be persisted with status "Error"
// and surfaced as unprocessable, rather than failing outright.
type rejection struct {
	reason string
}

func (r rejection) Error() string { return r.reason }

func rejectf(format string, args ...interface{}) error {
	return rejection{reason: fmt.Sprintf(format, args...)}
}

// Ingest processes one incoming time event: attach it to the pair's
// race result, recompute ranks, and, when a sprint heat is thereby
// complete, propagate its qualifiers. A rejected event is still
// persisted with status "Error" and the reason in its changelog; only
// a duplicate id or a malformed document fails without persisting.
func (p *Processor) Ingest(ctx context.Context, subject string, event *models.TimeEvent) (*models.TimeEvent, error) {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if err := validation.ValidateStruct(event); err != nil {
		return nil, err
	}
	if event.RaceID == "" {
		return nil, models.Validationf("time event has no race_id")
	}

	// Dedupe is by id only; identical content under a new id is a new
	// observation.
	if existing, err := p.db.GetTimeEvent(ctx, event.ID); err == nil && existing != nil {
		return nil, models.Conflictf("time event %s already exists", event.ID)
	} else if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	key := PairKey(event.RaceID, event.TimingPoint)
	p.locks.Lock(key)
	defer p.locks.Unlock(key)

	var result *models.RaceResult
	err := p.db.InTx(ctx, func(tx *database.Tx) error {
		race, err := tx.GetRace(ctx, event.RaceID)
		if errors.Is(err, models.ErrNotFound) {
			return rejectf("race %s does not exist", event.RaceID)
		}
		if err != nil {
			return err
		}
		if !timingPointAllowed(race.Datatype, event.TimingPoint) {
			return rejectf("timing point %q is not valid for a %s race",
				event.TimingPoint, race.Datatype)
		}
		if !models.ValidTimeOfDay(event.RegistrationTime) {
			return rejectf("registration time %q is not a valid HH:MM:SS reading",
				event.RegistrationTime)
		}

		entry, err := tx.GetStartEntryByRaceAndBib(ctx, race.ID, event.Bib)
		if err != nil {
			return err
		}
		if entry == nil {
			return rejectf("bib %d has no start entry in race %s", event.Bib, race.Name())
		}
		if models.StartEntryStatusExcludes(entry.Status) {
			return rejectf("bib %d has status %s in race %s", event.Bib, entry.Status, race.Name())
		}

		event.Race = race.Name()
		event.Status = models.TimeEventStatusOK
		if event.Name == "" {
			event.Name = entry.Name
		}
		if event.Club == "" {
			event.Club = entry.Club
		}
		if err := tx.CreateTimeEvent(ctx, event); err != nil {
			return err
		}

		result, err = p.attachToResult(ctx, tx, race, event.TimingPoint)
		if err != nil {
			return err
		}

		if event.TimingPoint == models.TimingPointFinish {
			if err := p.reevaluateHeat(ctx, tx, subject, race); err != nil {
				return err
			}
			// The event document may have gained propagation fields.
			if updated, err := tx.GetTimeEvent(ctx, event.ID); err == nil {
				*event = *updated
			}
		}
		return nil
	})

	var rej rejection
	if errors.As(err, &rej) {
		metrics.TimeEventsErrored.Inc()
		return p.storeRejected(ctx, subject, event, rej.reason)
	}
	if err != nil {
		return nil, err
	}

	metrics.TimeEventsAccepted.WithLabelValues(event.TimingPoint).Inc()
	if p.pub != nil && result != nil {
		p.pub.PublishResultUpdate(ctx, ResultUpdate{
			EventID:     event.EventID,
			RaceID:      event.RaceID,
			TimingPoint: event.TimingPoint,
			Result:      *result,
		})
	}
	return event, nil
}

// storeRejected persists a rejected event with status "Error" and a
// changelog entry recording why, then reports it unprocessable.
func (p *Processor) storeRejected(ctx context.Context, subject string, event *models.TimeEvent, reason string) (*models.TimeEvent, error) {
	event.Status = models.TimeEventStatusError
	event.Rank = nil
	event.NextRace = ""
	event.NextRaceID = ""
	event.NextRacePosition = nil
	event.Changelog = append(event.Changelog, models.Changelog{
		Timestamp: time.Now().UTC(),
		UserID:    subject,
		Comment:   reason,
	})
	if err := p.db.CreateTimeEvent(ctx, event); err != nil {
		return nil, err
	}
	logging.Warn().
		Str("time_event_id", event.ID).
		Str("race_id", event.RaceID).
		Int("bib", event.Bib).
		Str("reason", reason).
		Msg("time event rejected")
	return event, models.Unprocessablef("%s", reason)
}

// attachToResult rebuilds the ranking sequence of one (race, timing
// point) pair from its stored events: time order for Finish, arrival
// order elsewhere. Creates the race result on first use and keeps the
// race's results index current.
func (p *Processor) attachToResult(ctx context.Context, tx *database.Tx, race *models.Race, timingPoint string) (*models.RaceResult, error) {
	events, err := tx.ListTimeEvents(ctx, database.TimeEventFilter{
		RaceID:      race.ID,
		TimingPoint: timingPoint,
	})
	if err != nil {
		return nil, err
	}

	var ordered []models.TimeEvent
	if timingPoint == models.TimingPointFinish {
		ordered = rankFinishEvents(events)
	} else {
		ordered = arrivalOrderEvents(events)
	}

	result, err := tx.GetRaceResultByPair(ctx, race.ID, timingPoint)
	if err != nil {
		return nil, err
	}
	if result == nil {
		result = &models.RaceResult{
			ID:          uuid.New().String(),
			RaceID:      race.ID,
			TimingPoint: timingPoint,
			Status:      models.ResultStatusUnofficial,
		}
		if err := tx.CreateRaceResult(ctx, result); err != nil {
			return nil, err
		}
	}

	result.RankingSequence = make([]string, 0, len(ordered))
	for i := range ordered {
		rank := i + 1
		if ordered[i].Rank == nil || *ordered[i].Rank != rank {
			ordered[i].Rank = &rank
			if err := tx.UpdateTimeEvent(ctx, &ordered[i]); err != nil {
				return nil, err
			}
		}
		result.RankingSequence = append(result.RankingSequence, ordered[i].ID)
	}
	result.NoOfContestants = len(ordered)
	if err := tx.UpdateRaceResult(ctx, result); err != nil {
		return nil, err
	}

	if race.Results == nil {
		race.Results = map[string]string{}
	}
	if race.Results[timingPoint] != result.ID {
		race.Results[timingPoint] = result.ID
		if err := tx.UpdateRace(ctx, race); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// timingPointAllowed reports whether a timing point is meaningful for
// a race of the given datatype. Sprints additionally accept Template
// readings taken between heats.
func timingPointAllowed(datatype, timingPoint string) bool {
	switch timingPoint {
	case models.TimingPointStart, models.TimingPointFinish:
		return true
	case models.TimingPointTemplate:
		return datatype == models.RaceDatatypeIndividualSprint
	default:
		return false
	}
}
