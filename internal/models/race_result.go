// Heatsheet - Ski Race Administration Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/heatsheet

package models

// ResultStatus is the publication state of a race result.
type ResultStatus int

// Result statuses. A result is born unofficial when the first time
// event arrives and is promoted to official by the race office.
const (
	ResultStatusNone       ResultStatus = 0
	ResultStatusUnofficial ResultStatus = 1
	ResultStatusOfficial   ResultStatus = 2
)

// RaceResult collects the time events of one (race, timing point) pair.
// RankingSequence holds time-event ids ordered by rank; the hydrated
// form expands them to full time events.
type RaceResult struct {
	ID              string       `json:"id"`
	RaceID          string       `json:"race_id" validate:"required"`
	TimingPoint     string       `json:"timing_point" validate:"required"`
	NoOfContestants int          `json:"no_of_contestants" validate:"gte=0"`
	RankingSequence []string     `json:"ranking_sequence"`
	Status          ResultStatus `json:"status"`
}

// RaceResultDetail is a race result with its ranking sequence hydrated
// to full time events sorted by rank.
type RaceResultDetail struct {
	RaceResult
	RankingSequence []TimeEvent `json:"ranking_sequence"`
}
